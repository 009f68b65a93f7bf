// Package providers groups the concrete LLM completion adapters.
//
// It is organized into sub-packages:
//   - [github.com/germanamz/kata/pkg/providers/openai] — OpenAI Chat Completions API
//   - [github.com/germanamz/kata/pkg/providers/litellm] — LiteLLM proxy (OpenAI-compatible)
//
// Every adapter embeds [github.com/germanamz/kata/pkg/modeladapter.ModelAdapter]
// and implements [github.com/germanamz/kata/pkg/modeladapter.Completer].
package providers
