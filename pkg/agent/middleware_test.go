package agent

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/germanamz/kata/pkg/agentctx"
	"github.com/germanamz/kata/pkg/chats/message"
	"github.com/germanamz/kata/pkg/chats/role"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- test helpers ---

func stubRunner(msg message.Message, err error) Runner {
	return RunnerFunc(func(_ context.Context) (Result, error) {
		return Result{Message: msg}, err
	})
}

func panicRunner() Runner {
	return RunnerFunc(func(_ context.Context) (Result, error) {
		panic("something went wrong")
	})
}

func slowRunner(delay time.Duration) Runner {
	return RunnerFunc(func(ctx context.Context) (Result, error) {
		select {
		case <-time.After(delay):
			return Result{Message: message.NewText("bot", role.Assistant, "done")}, nil
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
	})
}

// --- Timeout tests ---

func TestTimeout(t *testing.T) {
	inner := stubRunner(message.NewText("bot", role.Assistant, "done"), nil)

	wrapped := Timeout(time.Second)(inner)
	res, err := wrapped.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "done", res.Text())
}

func TestTimeoutExpires(t *testing.T) {
	wrapped := Timeout(50 * time.Millisecond)(slowRunner(200 * time.Millisecond))
	_, err := wrapped.Run(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// --- Recovery tests ---

func TestRecovery(t *testing.T) {
	inner := stubRunner(message.NewText("bot", role.Assistant, "ok"), nil)

	wrapped := Recovery()(inner)
	res, err := wrapped.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "ok", res.Text())
}

func TestRecoveryCatchesPanic(t *testing.T) {
	wrapped := Recovery()(panicRunner())
	res, err := wrapped.Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "agent panicked")
	assert.Contains(t, err.Error(), "something went wrong")
	assert.Equal(t, Result{}, res)
}

// --- Logger tests ---

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	inner := stubRunner(message.NewText("bot", role.Assistant, "reply"), nil)

	wrapped := Logger(log, "test-agent")(inner)
	res, err := wrapped.Run(agentctx.WithRunID(context.Background(), "run-1"))

	require.NoError(t, err)
	assert.Equal(t, "reply", res.Text())

	output := buf.String()
	assert.Contains(t, output, "run_id=run-1")
	assert.Contains(t, output, "agent started")
	assert.Contains(t, output, "agent finished")
	assert.Contains(t, output, "test-agent")
}

func TestLoggerWithError(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	inner := stubRunner(message.Message{}, errors.New("boom"))

	wrapped := Logger(log, "err-agent")(inner)
	_, err := wrapped.Run(context.Background())

	require.Error(t, err)
	output := buf.String()
	assert.Contains(t, output, "agent finished with error")
	assert.Contains(t, output, "boom")
}

// --- Middleware composition test ---

func TestMiddlewareComposition(t *testing.T) {
	var order []string

	mw := func(name string) Middleware {
		return func(next Runner) Runner {
			return RunnerFunc(func(ctx context.Context) (Result, error) {
				order = append(order, name+":before")
				res, err := next.Run(ctx)
				order = append(order, name+":after")
				return res, err
			})
		}
	}

	inner := stubRunner(message.NewText("bot", role.Assistant, "done"), nil)

	// Apply A(B(C(inner)))
	wrapped := mw("A")(mw("B")(mw("C")(inner)))
	_, err := wrapped.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{
		"A:before", "B:before", "C:before",
		"C:after", "B:after", "A:after",
	}, order)
}
