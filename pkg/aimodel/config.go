package aimodel

import (
	"log/slog"
	"math"
	"strconv"
)

// Settings are the raw inputs to New.
type Settings struct {
	Kind        Kind
	APIKey      string
	BaseURL     string // empty selects the backend's default endpoint
	ModelID     string
	MaxTokens   int
	Temperature float64
}

// Config is a validated model configuration. It is immutable and comparable;
// the only way to obtain a non-zero Config is New or FromEnvironment.
type Config struct {
	kind        Kind
	apiKey      string
	baseURL     string
	modelID     string
	maxTokens   int
	temperature float64
}

// New validates s and returns the corresponding Config. The first violated
// constraint is reported; no partially valid Config is ever returned.
func New(s Settings) (Config, error) {
	switch {
	case s.Kind == 0:
		return Config{}, invalid(ReasonKindRequired, "", "")
	case !s.Kind.Valid():
		return Config{}, invalid(ReasonUnsupportedKind, "", strconv.Itoa(int(s.Kind)))
	case s.APIKey == "":
		return Config{}, invalid(ReasonAPIKeyRequired, "", "")
	case s.ModelID == "":
		return Config{}, invalid(ReasonModelIDRequired, "", "")
	case s.MaxTokens <= 0:
		return Config{}, invalid(ReasonMaxTokens, "", strconv.Itoa(s.MaxTokens))
	case math.IsNaN(s.Temperature) || s.Temperature < 0 || s.Temperature > 1:
		return Config{}, invalid(ReasonTemperature, "", strconv.FormatFloat(s.Temperature, 'g', -1, 64))
	}

	return Config{
		kind:        s.Kind,
		apiKey:      s.APIKey,
		baseURL:     s.BaseURL,
		modelID:     s.ModelID,
		maxTokens:   s.MaxTokens,
		temperature: s.Temperature,
	}, nil
}

// Kind returns the selected backend.
func (c Config) Kind() Kind { return c.kind }

// APIKey returns the credential sent to the backend.
func (c Config) APIKey() string { return c.apiKey }

// BaseURL returns the configured endpoint, or "" for the backend default.
func (c Config) BaseURL() string { return c.baseURL }

// ModelID returns the model or deployment name.
func (c Config) ModelID() string { return c.modelID }

// MaxTokens returns the response token limit.
func (c Config) MaxTokens() int { return c.maxTokens }

// Temperature returns the sampling temperature.
func (c Config) Temperature() float64 { return c.temperature }

// Settings returns the raw values c was built from.
func (c Config) Settings() Settings {
	return Settings{
		Kind:        c.kind,
		APIKey:      c.apiKey,
		BaseURL:     c.baseURL,
		ModelID:     c.modelID,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}
}

// LogValue implements slog.LogValuer. The API key is never logged.
func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("kind", c.kind.String()),
		slog.String("model_id", c.modelID),
		slog.String("base_url", c.baseURL),
		slog.Int("max_tokens", c.maxTokens),
		slog.Float64("temperature", c.temperature),
	)
}
