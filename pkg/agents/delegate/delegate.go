// Package delegate wraps an agent factory as a toolbox.Tool, enabling the
// "delegation" (agent-as-tool) pattern. A parent agent invokes a specialist
// through its normal tool-calling mechanism; the specialist runs its full
// reasoning loop privately in a fresh agent and only the final text reply
// surfaces as the tool result.
package delegate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/germanamz/kata/pkg/agent"
	"github.com/germanamz/kata/pkg/agentctx"
	"github.com/germanamz/kata/pkg/tools/toolbox"
)

// DefaultMaxDepth bounds nested delegation when Options.MaxDepth is zero.
const DefaultMaxDepth = 3

// inputSchema accepts a single required "query" string.
var inputSchema = json.RawMessage(`{"type":"object","properties":{"query":{"type":"string","description":"The question or task to hand to the specialist"}},"required":["query"]}`)

type queryInput struct {
	Query string `json:"query"`
}

// Options configure an AgentTool.
type Options struct {
	MaxDepth int          // Nested delegation limit (0 = DefaultMaxDepth).
	Logger   *slog.Logger // Defaults to slog.Default().
}

// AgentTool spawns a fresh agent per call and returns its reply.
type AgentTool struct {
	name        string
	description string
	factory     agent.Factory
	maxDepth    int
	log         *slog.Logger
}

// NewAgentTool creates an AgentTool named name that spawns agents with factory.
func NewAgentTool(name, description string, factory agent.Factory, opts Options) *AgentTool {
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	return &AgentTool{
		name:        name,
		description: description,
		factory:     factory,
		maxDepth:    maxDepth,
		log:         log,
	}
}

// FromRegistry creates an AgentTool for a registered agent.
func FromRegistry(r *agent.Registry, name string, opts Options) (*AgentTool, error) {
	f, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("delegate: agent %q is not registered", name)
	}

	e, _ := r.Describe(name)

	return NewAgentTool(name, e.Description, f, opts), nil
}

// Tool returns the toolbox.Tool. Its name matches the agent's name.
func (at *AgentTool) Tool() toolbox.Tool {
	return toolbox.Tool{
		Name:        at.name,
		Description: at.description,
		InputSchema: inputSchema,
		Handler:     toolbox.Typed(at.name, at.handle),
	}
}

// handle never returns an error for failures of the specialist itself; they
// come back as text so that the orchestrator can explain them to the user.
func (at *AgentTool) handle(ctx context.Context, in queryInput) (string, error) {
	if strings.TrimSpace(in.Query) == "" {
		return "", fmt.Errorf("%s: query is required", at.name)
	}

	depth := agentctx.DepthFromContext(ctx) + 1
	if depth > at.maxDepth {
		return at.failure(fmt.Errorf("delegation depth %d exceeds limit %d", depth, at.maxDepth)), nil
	}

	sub := at.factory()
	if sub == nil {
		return at.failure(fmt.Errorf("factory returned no agent")), nil
	}

	at.log.DebugContext(ctx, "delegating",
		"from", agentctx.AgentNameFromContext(ctx),
		"to", at.name,
		"depth", depth,
	)

	res, err := sub.Invoke(agentctx.WithDepth(ctx, depth), in.Query)
	if err != nil {
		at.log.WarnContext(ctx, "delegate failed", "agent", at.name, "error", err)
		return at.failure(err), nil
	}

	return res.Text(), nil
}

func (at *AgentTool) failure(err error) string {
	return fmt.Sprintf("Error in %s: %v", at.name, err)
}
