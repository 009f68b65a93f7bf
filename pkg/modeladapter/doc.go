// Package modeladapter defines the interface and shared plumbing for LLM
// completion adapters.
//
// It contains:
//   - [Completer] interface and embeddable [ModelAdapter] base struct with HTTP helpers, auth, and custom headers
//   - [Settings], the model identifier and generation parameters an adapter sends on every request
//   - [github.com/germanamz/kata/pkg/modeladapter/usage] — thread-safe token usage tracker
//
// This package contains no provider-specific code. Concrete adapters live in
// pkg/providers and embed ModelAdapter.
package modeladapter
