package aimodel

import (
	"os"
	"strconv"
	"strings"
)

// Environment variable names.
const (
	envModelType      = "MODEL_TYPE"
	envOpenAIAPIKey   = "OPENAI_API_KEY"
	envOpenAIBaseURL  = "OPENAI_BASE_URL"
	envOpenAIModel    = "OPENAI_MODEL"
	envLiteLLMAPIKey  = "LITELLM_API_KEY"
	envLiteLLMBaseURL = "LITELLM_BASE_URL"
	envLiteLLMModel   = "LITELLM_MODEL"
	envMaxTokens      = "MODEL_MAX_TOKEN"
	envTemperature    = "MODEL_TEMPERATURE"
)

// Defaults applied when the optional variables are unset.
const (
	DefaultKind        = OpenAI
	DefaultModelID     = "gpt-4.1"
	DefaultMaxTokens   = 1000
	DefaultTemperature = 0.7
)

// LookupFunc reads one environment variable. The bool reports whether the
// variable is set, as with os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// OSLookup reads the process environment.
func OSLookup(key string) (string, bool) {
	return os.LookupEnv(key)
}

// MapLookup returns a LookupFunc backed by m.
func MapLookup(m map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

// namespace holds the per-backend variable names.
type namespace struct {
	apiKey  string
	baseURL string
	modelID string
}

func namespaceFor(k Kind) (namespace, error) {
	switch k {
	case OpenAI:
		return namespace{apiKey: envOpenAIAPIKey, baseURL: envOpenAIBaseURL, modelID: envOpenAIModel}, nil
	case LiteLLM:
		return namespace{apiKey: envLiteLLMAPIKey, baseURL: envLiteLLMBaseURL, modelID: envLiteLLMModel}, nil
	default:
		// Unreachable for kinds produced by ParseKind.
		return namespace{}, invalid(ReasonUnsupportedKind, envModelType, k.String())
	}
}

// FromEnvironment reads the model configuration through lookup. A nil lookup
// reads the process environment. Set-but-empty variables count as set: an
// empty API key or model ID fails validation, an empty base URL selects the
// backend default.
func FromEnvironment(lookup LookupFunc) (Config, error) {
	if lookup == nil {
		lookup = OSLookup
	}

	kind := DefaultKind
	if raw, ok := lookup(envModelType); ok {
		k, err := ParseKind(raw)
		if err != nil {
			return Config{}, err
		}
		kind = k
	}

	ns, err := namespaceFor(kind)
	if err != nil {
		return Config{}, err
	}

	apiKey, ok := lookup(ns.apiKey)
	if !ok {
		return Config{}, invalid(ReasonMissingVariable, ns.apiKey, "")
	}

	baseURL, _ := lookup(ns.baseURL)

	modelID, ok := lookup(ns.modelID)
	if !ok {
		modelID = DefaultModelID
	}

	maxTokens := DefaultMaxTokens
	if raw, ok := lookup(envMaxTokens); ok {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return Config{}, invalid(ReasonInvalidValue, envMaxTokens, raw)
		}
		maxTokens = n
	}

	temperature := DefaultTemperature
	if raw, ok := lookup(envTemperature); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return Config{}, invalid(ReasonInvalidValue, envTemperature, raw)
		}
		temperature = f
	}

	return New(Settings{
		Kind:        kind,
		APIKey:      apiKey,
		BaseURL:     baseURL,
		ModelID:     modelID,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
}
