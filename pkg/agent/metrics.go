package agent

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/germanamz/kata/pkg/chats/message"
	"github.com/germanamz/kata/pkg/modeladapter/usage"
)

// Result is the outcome of one run.
type Result struct {
	Message message.Message
	Metrics Metrics
}

// Text returns the text of the final message.
func (r Result) Text() string { return r.Message.TextContent() }

// ToolStats counts the calls made to one tool during a run.
type ToolStats struct {
	Calls    int
	Errors   int
	Duration time.Duration
}

// Metrics summarises a run. Usage covers the completions made for this run,
// including those of sub-agents it delegated to.
type Metrics struct {
	RunID    string
	Usage    usage.TokenCount
	Cycles   []time.Duration
	Tools    map[string]ToolStats
	Duration time.Duration
}

// ToolsUsed returns the names of the tools called, sorted.
func (m Metrics) ToolsUsed() []string {
	names := make([]string, 0, len(m.Tools))
	for n := range m.Tools {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// CycleTime returns the summed duration of all cycles.
func (m Metrics) CycleTime() time.Duration {
	var total time.Duration
	for _, c := range m.Cycles {
		total += c
	}
	return total
}

// Summary renders the metrics as a short multi-line report.
func (m Metrics) Summary() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Total tokens: %d (input %d, output %d)\n", m.Usage.Total(), m.Usage.InputTokens, m.Usage.OutputTokens)
	fmt.Fprintf(&b, "Execution time: %.2fs over %d cycle(s)\n", m.Duration.Seconds(), len(m.Cycles))

	tools := m.ToolsUsed()
	if len(tools) == 0 {
		b.WriteString("Tools used: none\n")
		return b.String()
	}

	b.WriteString("Tools used:\n")
	for _, n := range tools {
		s := m.Tools[n]
		fmt.Fprintf(&b, "  - %s: %d call(s), %d error(s)\n", n, s.Calls, s.Errors)
	}

	return b.String()
}

// recorder accumulates metrics during a run. Tool calls may come from
// concurrent handlers, so it is locked.
type recorder struct {
	mu     sync.Mutex
	runID  string
	cycles []time.Duration
	tools  map[string]ToolStats
}

func newRecorder(runID string) *recorder {
	return &recorder{runID: runID, tools: make(map[string]ToolStats)}
}

func (r *recorder) cycle(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cycles = append(r.cycles, d)
}

func (r *recorder) tool(name string, failed bool, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.tools[name]
	s.Calls++
	s.Duration += d
	if failed {
		s.Errors++
	}
	r.tools[name] = s
}

func (r *recorder) metrics(total time.Duration) Metrics {
	r.mu.Lock()
	defer r.mu.Unlock()

	tools := make(map[string]ToolStats, len(r.tools))
	for k, v := range r.tools {
		tools[k] = v
	}

	return Metrics{
		RunID:    r.runID,
		Cycles:   slices.Clone(r.cycles),
		Tools:    tools,
		Duration: total,
	}
}
