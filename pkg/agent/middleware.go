package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/germanamz/kata/pkg/agentctx"
)

// Runner executes agent logic and returns the run's result.
type Runner interface {
	Run(ctx context.Context) (Result, error)
}

// RunnerFunc adapts a plain function to the Runner interface.
type RunnerFunc func(ctx context.Context) (Result, error)

// Run calls the underlying function.
func (f RunnerFunc) Run(ctx context.Context) (Result, error) {
	return f(ctx)
}

// Middleware wraps a Runner, returning a new Runner with added behaviour.
type Middleware func(next Runner) Runner

// --- Timeout middleware ---

// Timeout returns a Middleware that wraps the runner's context with a deadline.
func Timeout(d time.Duration) Middleware {
	return func(next Runner) Runner {
		return RunnerFunc(func(ctx context.Context) (Result, error) {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()

			return next.Run(ctx)
		})
	}
}

// --- Recovery middleware ---

// Recovery returns a Middleware that catches panics and converts them to errors.
func Recovery() Middleware {
	return func(next Runner) Runner {
		return RunnerFunc(func(ctx context.Context) (res Result, err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("agent panicked: %v", r)
				}
			}()

			return next.Run(ctx)
		})
	}
}

// --- Logger middleware ---

// Logger returns a Middleware that logs agent start, duration, token usage
// and error.
func Logger(log *slog.Logger, name string) Middleware {
	return func(next Runner) Runner {
		return RunnerFunc(func(ctx context.Context) (Result, error) {
			runID := agentctx.RunIDFromContext(ctx)
			depth := agentctx.DepthFromContext(ctx)

			log.InfoContext(ctx, "agent started", "agent", name, "run_id", runID, "depth", depth)

			start := time.Now()

			res, err := next.Run(ctx)

			duration := time.Since(start)

			if err != nil {
				log.ErrorContext(ctx, "agent finished with error",
					"agent", name,
					"run_id", runID,
					"duration", duration,
					"error", err,
				)
			} else {
				log.InfoContext(ctx, "agent finished",
					"agent", name,
					"run_id", runID,
					"duration", duration,
					"tokens", res.Metrics.Usage.Total(),
					"cycles", len(res.Metrics.Cycles),
				)
			}

			return res, err
		})
	}
}
