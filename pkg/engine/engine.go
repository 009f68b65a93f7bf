package engine

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/germanamz/kata/pkg/agent"
	"github.com/germanamz/kata/pkg/agents/delegate"
	"github.com/germanamz/kata/pkg/aimodel"
	"github.com/germanamz/kata/pkg/chats/content"
	"github.com/germanamz/kata/pkg/tools/httprequest"
	"github.com/germanamz/kata/pkg/tools/mcpclient"
	"github.com/germanamz/kata/pkg/tools/toolbox"
	"github.com/germanamz/kata/pkg/vectorstore"
	"github.com/google/uuid"
	"github.com/philippgille/chromem-go"
)

// Options configure an Engine.
type Options struct {
	// Model is shared by every agent. When nil it is built from the process
	// environment with aimodel.FromEnvironment.
	Model aimodel.Model
	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// HTTPClient is used by the model (when built here) and the http_request tool.
	HTTPClient *http.Client
	// Embed overrides the embedding function of the retrieve toolbox.
	Embed chromem.EmbeddingFunc
}

// Engine is the composition root that assembles all framework components from
// configuration and exposes them through a frontend-agnostic API.
type Engine struct {
	cfg        Config
	log        *slog.Logger
	model      aimodel.Model
	events     *EventBus
	registry   *agent.Registry
	toolboxes  map[string]*toolbox.ToolBox
	mcpClients []*mcpclient.MCPClient

	mu       sync.Mutex
	sessions map[string]*Session
}

// New creates an Engine from the given configuration. It validates the config,
// resolves the model, builds the builtin toolboxes, connects MCP clients, and
// registers agent factories.
func New(ctx context.Context, cfg Config, opts Options) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	model := opts.Model
	if model == nil {
		mc, err := aimodel.FromEnvironment(nil)
		if err != nil {
			return nil, fmt.Errorf("engine: model: %w", err)
		}
		if model, err = aimodel.GetOrCreate(&mc, aimodel.WithHTTPClient(opts.HTTPClient)); err != nil {
			return nil, fmt.Errorf("engine: model: %w", err)
		}
		log.Debug("model configured", "config", mc)
	}

	e := &Engine{
		cfg:       cfg,
		log:       log,
		model:     model,
		events:    NewEventBus(),
		registry:  agent.NewRegistry(),
		toolboxes: make(map[string]*toolbox.ToolBox),
		sessions:  make(map[string]*Session),
	}

	e.toolboxes[ToolboxHTTP] = httprequest.New(httprequest.Options{
		AllowedHosts: cfg.HTTP.AllowedHosts,
		BlockPrivate: cfg.HTTP.BlockPrivate,
		Client:       opts.HTTPClient,
	}).Tools()

	if rc := cfg.Retrieve; rc != nil {
		e.toolboxes[ToolboxRetrieve] = retrieveToolbox(*rc, opts.Embed)
	}

	for _, mc := range cfg.MCPServers {
		tb, err := e.connectMCP(ctx, mc)
		if err != nil {
			if !mc.Optional {
				_ = e.Close()
				return nil, err
			}
			log.Warn("optional mcp server unavailable", "server", mc.Name, "error", err)
			tb = toolbox.New()
		}
		e.toolboxes[mc.Name] = tb
	}

	for _, ac := range cfg.Agents {
		e.registerAgent(ac)
	}

	return e, nil
}

func (e *Engine) connectMCP(ctx context.Context, mc MCPConfig) (*toolbox.ToolBox, error) {
	client, err := mcpclient.New(ctx, mc.Env, mc.Command, mc.Args...)
	if err != nil {
		return nil, fmt.Errorf("engine: mcp %q: %w", mc.Name, err)
	}

	tools, err := client.ListTools(ctx)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("engine: mcp %q: list tools: %w", mc.Name, err)
	}
	e.mcpClients = append(e.mcpClients, client)

	tb := toolbox.New()
	tb.Register(tools...)
	e.log.Debug("mcp server connected", "server", mc.Name, "tools", tb.Names())

	return tb, nil
}

func retrieveToolbox(rc RetrieveConfig, embed chromem.EmbeddingFunc) *toolbox.ToolBox {
	if embed == nil {
		embed = vectorstore.OpenAIEmbedder(rc.EmbeddingBaseURL, rc.APIKey, rc.EmbeddingModel)
	}

	opener := &vectorstore.Opener{WorkDir: rc.WorkDir, Embed: embed}

	tb := toolbox.New()
	tb.Register(vectorstore.LazyRetrieveTool(opener.Open))
	return tb
}

// Events returns the engine's event bus.
func (e *Engine) Events() *EventBus { return e.events }

// Model returns the model shared by all agents.
func (e *Engine) Model() aimodel.Model { return e.model }

// Agents lists the registered agents sorted by name.
func (e *Engine) Agents() []agent.Entry { return e.registry.List() }

// Registry returns the agent directory.
func (e *Engine) Registry() *agent.Registry { return e.registry }

// Toolbox returns a toolbox by name: a builtin or an MCP server.
func (e *Engine) Toolbox(name string) (*toolbox.ToolBox, bool) {
	tb, ok := e.toolboxes[name]
	return tb, ok
}

// Agent spawns a fresh instance of the named agent. An empty name selects the
// entry agent.
func (e *Engine) Agent(name string) (*agent.Agent, error) {
	name = e.resolve(name)

	a, ok := e.registry.Spawn(name)
	if !ok {
		return nil, fmt.Errorf("engine: agent %q not found", name)
	}
	return a, nil
}

// NewSession creates a new interactive session. If agentName is empty the
// config's EntryAgent is used. If EntryAgent is also empty, the first agent
// in the config is used.
func (e *Engine) NewSession(agentName string) (*Session, error) {
	a, err := e.Agent(agentName)
	if err != nil {
		return nil, err
	}

	s := newSession(uuid.NewString(), a, e.events)

	e.mu.Lock()
	e.sessions[s.ID()] = s
	e.mu.Unlock()

	return s, nil
}

// Session returns an existing session by ID.
func (e *Engine) Session(id string) (*Session, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.sessions[id]
	return s, ok
}

// CloseSession forgets a session.
func (e *Engine) CloseSession(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.sessions, id)
}

// Close shuts down MCP clients and releases resources.
func (e *Engine) Close() error {
	var firstErr error
	for _, c := range e.mcpClients {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	e.mcpClients = nil
	return firstErr
}

func (e *Engine) resolve(name string) string {
	if name == "" {
		name = e.cfg.EntryAgent
	}
	if name == "" && len(e.cfg.Agents) > 0 {
		name = e.cfg.Agents[0].Name
	}
	return name
}

// registerAgent creates a factory for the given agent config and registers it.
// Delegate tools are resolved when an agent is spawned, so agents may delegate
// to agents registered after them.
func (e *Engine) registerAgent(ac AgentConfig) {
	var tbs []*toolbox.ToolBox
	for _, name := range ac.Toolboxes {
		tbs = append(tbs, e.toolboxes[name])
	}

	var middleware []agent.Middleware
	if ac.Options.Timeout != "" {
		d, _ := time.ParseDuration(ac.Options.Timeout)
		middleware = append(middleware, agent.Timeout(d))
	}
	middleware = append(middleware, agent.Recovery(), agent.Logger(e.log, ac.Name))

	opts := agent.Options{
		MaxIterations: ac.Options.MaxIterations,
		WindowSize:    ac.Options.WindowSize,
		Middleware:    middleware,
		Hooks:         e.hooks(),
		Logger:        e.log,
	}
	delegateOpts := delegate.Options{MaxDepth: ac.Options.MaxDelegationDepth, Logger: e.log}

	name := ac.Name
	desc := ac.Description
	instr := ac.Instructions
	delegates := ac.Delegates

	e.registry.Register(name, desc, func() *agent.Agent {
		a := agent.New(name, desc, instr, e.model, opts)
		a.AddToolBoxes(tbs...)

		if len(delegates) > 0 {
			staff := toolbox.New()
			for _, d := range delegates {
				at, err := delegate.FromRegistry(e.registry, d, delegateOpts)
				if err != nil {
					e.log.Error("delegate unavailable", "agent", name, "delegate", d, "error", err)
					continue
				}
				staff.Register(at.Tool())
			}
			a.AddToolBoxes(staff)
		}

		return a
	})
}

// hooks publish tool activity on the event bus.
func (e *Engine) hooks() agent.Hooks {
	return agent.Hooks{
		OnToolCall: func(ctx context.Context, name string, call content.ToolCall) {
			e.events.Publish(Event{
				Kind:      EventToolCallStart,
				SessionID: sessionIDFromContext(ctx),
				Agent:     name,
				Timestamp: time.Now(),
				Data:      ToolEvent{Call: call},
			})
		},
		OnToolResult: func(ctx context.Context, name string, call content.ToolCall, result content.ToolResult, took time.Duration) {
			e.events.Publish(Event{
				Kind:      EventToolCallEnd,
				SessionID: sessionIDFromContext(ctx),
				Agent:     name,
				Timestamp: time.Now(),
				Data:      ToolEvent{Call: call, Result: result, Duration: took},
			})
		},
	}
}
