// Package agent runs a ReAct loop (reason + act): the model is asked for a
// reply, any tool calls in the reply are executed, and their results are fed
// back until the model answers without calling tools.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/germanamz/kata/pkg/agentctx"
	"github.com/germanamz/kata/pkg/chats/chat"
	"github.com/germanamz/kata/pkg/chats/content"
	"github.com/germanamz/kata/pkg/chats/message"
	"github.com/germanamz/kata/pkg/chats/role"
	"github.com/germanamz/kata/pkg/modeladapter"
	"github.com/germanamz/kata/pkg/modeladapter/usage"
	"github.com/germanamz/kata/pkg/tools/toolbox"
	"github.com/google/uuid"
)

// ErrMaxIterations is returned when the ReAct loop exceeds MaxIterations
// without the model producing a final answer.
var ErrMaxIterations = errors.New("agent: max iterations reached")

// Hooks observe the loop. Any field may be nil.
type Hooks struct {
	OnToolCall   func(ctx context.Context, agent string, call content.ToolCall)
	OnToolResult func(ctx context.Context, agent string, call content.ToolCall, result content.ToolResult, took time.Duration)
}

// Options configures an Agent.
type Options struct {
	MaxIterations int          // ReAct loop limit (0 = unlimited).
	WindowSize    int          // Non-system messages kept in the chat (0 = unbounded).
	Middleware    []Middleware // Applied around Run().
	Hooks         Hooks
	Logger        *slog.Logger // Defaults to slog.Default().
}

// Agent holds one conversation with a model and the tools it may call.
// An Agent is not safe for concurrent use; create one per conversation.
type Agent struct {
	name         string
	description  string
	instructions string
	completer    modeladapter.Completer
	chat         *chat.Chat
	toolboxes    []*toolbox.ToolBox
	options      Options
	log          *slog.Logger
}

// New creates an Agent with the given configuration.
func New(name, description, instructions string, completer modeladapter.Completer, opts Options) *Agent {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	return &Agent{
		name:         name,
		description:  description,
		instructions: instructions,
		completer:    completer,
		chat:         chat.New(),
		options:      opts,
		log:          log,
	}
}

// Name returns the agent's name.
func (a *Agent) Name() string { return a.name }

// Description returns the agent's description.
func (a *Agent) Description() string { return a.description }

// Chat returns the agent's chat.
func (a *Agent) Chat() *chat.Chat { return a.chat }

// Completer returns the agent's completer.
func (a *Agent) Completer() modeladapter.Completer { return a.completer }

// AddToolBoxes adds toolboxes to the agent.
func (a *Agent) AddToolBoxes(tbs ...*toolbox.ToolBox) {
	a.toolboxes = append(a.toolboxes, tbs...)
}

// Tools returns the tools offered to the model, in toolbox order.
func (a *Agent) Tools() []toolbox.Tool {
	var tools []toolbox.Tool
	for _, tb := range a.toolboxes {
		tools = append(tools, tb.Tools()...)
	}
	return tools
}

// Init appends the system prompt if the chat does not have one yet.
func (a *Agent) Init() {
	if a.chat.SystemPrompt() == "" {
		a.chat.Append(message.NewText(a.name, role.System, a.buildSystemPrompt()))
	}
}

// Invoke appends prompt as a user message and runs the loop.
func (a *Agent) Invoke(ctx context.Context, prompt string) (Result, error) {
	a.Init()
	a.chat.Append(message.NewText("user", role.User, prompt))

	return a.Run(ctx)
}

// Run executes the ReAct loop over the current chat with middleware applied.
func (a *Agent) Run(ctx context.Context) (Result, error) {
	if agentctx.RunIDFromContext(ctx) == "" || agentctx.AgentNameFromContext(ctx) != a.name {
		ctx = agentctx.WithRunID(ctx, uuid.NewString())
	}
	ctx = agentctx.WithAgentName(ctx, a.name)

	var runner Runner = RunnerFunc(a.run)

	// Apply middleware in reverse order so the first middleware is outermost.
	for i := len(a.options.Middleware) - 1; i >= 0; i-- {
		runner = a.options.Middleware[i](runner)
	}

	return runner.Run(ctx)
}

func (a *Agent) run(ctx context.Context) (Result, error) {
	a.Init()

	start := time.Now()
	rec := newRecorder(agentctx.RunIDFromContext(ctx))

	runUsage := &usage.Tracker{}
	ctx = usage.WithTracker(ctx, runUsage)

	finish := func(msg message.Message) Result {
		m := rec.metrics(time.Since(start))
		m.Usage = runUsage.Total()
		return Result{Message: msg, Metrics: m}
	}

	tools := a.Tools()

	for i := 0; a.options.MaxIterations == 0 || i < a.options.MaxIterations; i++ {
		if err := ctx.Err(); err != nil {
			return finish(message.Message{}), err
		}

		if a.options.WindowSize > 0 {
			if dropped := a.chat.TrimTo(a.options.WindowSize); dropped > 0 {
				a.log.DebugContext(ctx, "conversation window trimmed", "agent", a.name, "dropped", dropped)
			}
		}

		cycleStart := time.Now()

		reply, err := a.completer.Complete(ctx, a.chat, tools)
		if err != nil {
			rec.cycle(time.Since(cycleStart))
			return finish(message.Message{}), fmt.Errorf("agent %s: %w", a.name, err)
		}

		reply.Sender = a.name
		a.chat.Append(reply)

		calls := reply.ToolCalls()
		if len(calls) == 0 {
			rec.cycle(time.Since(cycleStart))
			return finish(reply), nil
		}

		for _, tc := range calls {
			a.chat.Append(message.New(a.name, role.Tool, a.callTool(ctx, rec, tc)))
		}

		rec.cycle(time.Since(cycleStart))
	}

	return finish(message.Message{}), ErrMaxIterations
}

func (a *Agent) callTool(ctx context.Context, rec *recorder, tc content.ToolCall) content.ToolResult {
	if h := a.options.Hooks.OnToolCall; h != nil {
		h(ctx, a.name, tc)
	}

	a.log.DebugContext(ctx, "tool call", "agent", a.name, "tool", tc.Name, "run_id", agentctx.RunIDFromContext(ctx))

	start := time.Now()
	result := findAndCall(ctx, a.toolboxes, tc)
	took := time.Since(start)

	rec.tool(tc.Name, result.IsError, took)

	if result.IsError {
		a.log.WarnContext(ctx, "tool call failed", "agent", a.name, "tool", tc.Name, "error", result.Content)
	}

	if h := a.options.Hooks.OnToolResult; h != nil {
		h(ctx, a.name, tc, result, took)
	}

	return result
}

// findAndCall searches all toolboxes for the named tool and executes it.
func findAndCall(ctx context.Context, toolboxes []*toolbox.ToolBox, tc content.ToolCall) content.ToolResult {
	for _, tb := range toolboxes {
		if _, ok := tb.Get(tc.Name); ok {
			return tb.Call(ctx, tc)
		}
	}

	return content.ToolResult{
		ToolCallID: tc.ID,
		Content:    fmt.Sprintf("tool not found: %s", tc.Name),
		IsError:    true,
	}
}

func (a *Agent) buildSystemPrompt() string {
	if a.instructions != "" {
		return a.instructions
	}

	var b strings.Builder

	fmt.Fprintf(&b, "You are %s.", a.name)
	if a.description != "" {
		fmt.Fprintf(&b, " %s", a.description)
	}

	return b.String()
}
