// Package litellm provides a Completer for a LiteLLM proxy. The proxy speaks
// the OpenAI Chat Completions wire format, so requests and responses reuse
// the openai package's codec.
package litellm

import (
	"strings"

	"github.com/germanamz/kata/pkg/modeladapter"
	"github.com/germanamz/kata/pkg/providers/openai"
)

// DefaultBaseURL is the address of a locally running LiteLLM proxy.
const DefaultBaseURL = "http://localhost:4000"

const completionsPath = "/chat/completions"

var _ modeladapter.Completer = (*Adapter)(nil)

// Adapter implements modeladapter.Completer against a LiteLLM proxy. Model
// identifiers are passed through untouched, so provider-prefixed names such
// as "anthropic/claude-3-5-sonnet" route to the proxy's configured backend.
type Adapter struct {
	*openai.Adapter
}

// New creates an Adapter for the proxy at baseURL. An empty baseURL selects
// DefaultBaseURL. The API key is sent as a Bearer token when non-empty.
func New(baseURL, apiKey, model string) *Adapter {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}

	inner := openai.New(base, apiKey, model)
	inner.Provider = "litellm"
	inner.Path = completionsPath

	return &Adapter{Adapter: inner}
}
