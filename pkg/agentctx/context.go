// Package agentctx carries agent identity through a context: the name of the
// running agent, the run ID used to correlate log lines, and how deeply the
// run is nested inside delegations. It has no dependencies so that agent,
// delegate and engine can all import it.
package agentctx

import "context"

type (
	agentNameCtxKey struct{}
	runIDCtxKey     struct{}
	depthCtxKey     struct{}
)

// WithAgentName returns a new context carrying the given agent name.
func WithAgentName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, agentNameCtxKey{}, name)
}

// AgentNameFromContext extracts the agent name from the context.
// Returns "" if no agent name is present.
func AgentNameFromContext(ctx context.Context) string {
	v, _ := ctx.Value(agentNameCtxKey{}).(string)
	return v
}

// WithRunID returns a new context carrying the given run ID.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDCtxKey{}, id)
}

// RunIDFromContext returns the run ID, or "" if none is set.
func RunIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(runIDCtxKey{}).(string)
	return v
}

// WithDepth returns a new context recording the delegation depth.
func WithDepth(ctx context.Context, depth int) context.Context {
	return context.WithValue(ctx, depthCtxKey{}, depth)
}

// DepthFromContext returns the delegation depth; top-level runs are 0.
func DepthFromContext(ctx context.Context) int {
	v, _ := ctx.Value(depthCtxKey{}).(int)
	return v
}
