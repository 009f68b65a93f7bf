// Package usage records token consumption reported by model providers.
package usage

import (
	"context"
	"fmt"
	"sync"
)

// TokenCount holds prompt and completion token counts for a single call.
type TokenCount struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Total returns the sum of input and output tokens.
func (tc TokenCount) Total() int {
	return tc.InputTokens + tc.OutputTokens
}

// Plus returns the element-wise sum of tc and other.
func (tc TokenCount) Plus(other TokenCount) TokenCount {
	return TokenCount{
		InputTokens:  tc.InputTokens + other.InputTokens,
		OutputTokens: tc.OutputTokens + other.OutputTokens,
	}
}

func (tc TokenCount) String() string {
	return fmt.Sprintf("in=%d out=%d total=%d", tc.InputTokens, tc.OutputTokens, tc.Total())
}

// Tracker accumulates token usage across calls. It keeps running totals
// only, so its size does not grow with the number of calls. It is safe for
// concurrent use.
type Tracker struct {
	mu    sync.Mutex
	total TokenCount
	last  TokenCount
	count int
}

// Add records a token count entry.
func (t *Tracker) Add(tc TokenCount) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.total = t.total.Plus(tc)
	t.last = tc
	t.count++
}

// Last returns the most recent entry. The bool is false when the tracker is empty.
func (t *Tracker) Last() (TokenCount, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.last, t.count > 0
}

// Total returns the aggregate across all entries.
func (t *Tracker) Total() TokenCount {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.total
}

// Count returns the number of recorded entries.
func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.count
}

// Reset clears all recorded entries.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.total, t.last, t.count = TokenCount{}, TokenCount{}, 0
}

type trackersKey struct{}

// WithTracker returns a context whose recorded usage is also added to t.
// Trackers already attached to ctx keep receiving usage, so a run nested in
// another one is counted by both.
func WithTracker(ctx context.Context, t *Tracker) context.Context {
	parents, _ := ctx.Value(trackersKey{}).([]*Tracker)
	trackers := make([]*Tracker, 0, len(parents)+1)
	trackers = append(trackers, parents...)
	trackers = append(trackers, t)
	return context.WithValue(ctx, trackersKey{}, trackers)
}

// Record adds tc to every tracker attached to ctx with WithTracker.
func Record(ctx context.Context, tc TokenCount) {
	trackers, _ := ctx.Value(trackersKey{}).([]*Tracker)
	for _, t := range trackers {
		t.Add(tc)
	}
}
