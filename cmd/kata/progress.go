package main

import (
	"fmt"
	"io"

	"github.com/germanamz/kata/pkg/engine"
)

// watchTools prints tool activity from bus to out until the returned stop
// func is called. When sessionID is set, events of other sessions are skipped.
func watchTools(bus *engine.EventBus, out io.Writer, sessionID string) (stop func()) {
	sub := bus.Subscribe(64)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for ev := range sub.C {
			if line, ok := toolLine(ev, sessionID); ok {
				fmt.Fprintln(out, line)
			}
		}
	}()

	return func() {
		bus.Unsubscribe(sub)
		<-done
	}
}

func toolLine(ev engine.Event, sessionID string) (string, bool) {
	if sessionID != "" && ev.SessionID != sessionID {
		return "", false
	}

	te, ok := ev.Data.(engine.ToolEvent)
	if !ok {
		return "", false
	}

	switch ev.Kind {
	case engine.EventToolCallStart:
		return dimStyle.Render(fmt.Sprintf("  %s → %s", ev.Agent, te.Call.Name)), true
	case engine.EventToolCallEnd:
		mark := "✓"
		if te.Result.IsError {
			mark = "✗"
		}
		return dimStyle.Render(fmt.Sprintf("  %s %s %s (%s)", ev.Agent, mark, te.Call.Name, fmtDuration(te.Duration))), true
	default:
		return "", false
	}
}
