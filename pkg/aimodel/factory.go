package aimodel

import (
	"net/http"

	"github.com/germanamz/kata/pkg/modeladapter"
	"github.com/germanamz/kata/pkg/modeladapter/usage"
	"github.com/germanamz/kata/pkg/providers/litellm"
	"github.com/germanamz/kata/pkg/providers/openai"
)

// Model is a ready-to-use backend handle.
type Model interface {
	modeladapter.Completer
	// Settings reports the model ID, endpoint and generation parameters the
	// handle sends with every request.
	Settings() modeladapter.Settings
	// UsageTracker returns the token usage recorded by the handle.
	UsageTracker() *usage.Tracker
}

// Option customises the handle built by GetOrCreate.
type Option func(*factoryOptions)

type factoryOptions struct {
	client  *http.Client
	headers map[string]string
}

// WithHTTPClient sets the HTTP client used by the handle.
func WithHTTPClient(c *http.Client) Option {
	return func(o *factoryOptions) { o.client = c }
}

// WithHeaders adds headers sent with every request.
func WithHeaders(h map[string]string) Option {
	return func(o *factoryOptions) { o.headers = h }
}

// GetOrCreate returns a fresh Model for cfg. A nil cfg is read from the
// process environment and any loading error is returned unchanged.
func GetOrCreate(cfg *Config, opts ...Option) (Model, error) {
	return GetOrCreateWith(cfg, OSLookup, opts...)
}

// GetOrCreateWith is GetOrCreate with an explicit environment lookup for the
// nil-cfg case.
func GetOrCreateWith(cfg *Config, lookup LookupFunc, opts ...Option) (Model, error) {
	if cfg == nil {
		loaded, err := FromEnvironment(lookup)
		if err != nil {
			return nil, err
		}
		cfg = &loaded
	}

	var o factoryOptions
	for _, opt := range opts {
		opt(&o)
	}

	// An empty base URL is never passed through: each backend then applies
	// its own default endpoint.
	switch cfg.kind {
	case OpenAI:
		a := openai.New(cfg.baseURL, cfg.apiKey, cfg.modelID)
		configure(&a.ModelAdapter, cfg, o)
		return a, nil
	case LiteLLM:
		a := litellm.New(cfg.baseURL, cfg.apiKey, cfg.modelID)
		configure(&a.ModelAdapter, cfg, o)
		return a, nil
	default:
		// Only reachable with a zero Config that bypassed New.
		return nil, invalid(ReasonUnsupportedKind, "", cfg.kind.String())
	}
}

func configure(a *modeladapter.ModelAdapter, cfg *Config, o factoryOptions) {
	a.MaxTokens = cfg.maxTokens
	a.Temperature = cfg.temperature
	a.Client = o.client
	if len(o.headers) > 0 {
		a.Headers = o.headers
	}
}
