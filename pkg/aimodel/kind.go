package aimodel

// Kind identifies a model backend. The zero value is not a valid Kind.
type Kind uint8

const (
	// OpenAI talks to the OpenAI Chat Completions API or a compatible endpoint.
	OpenAI Kind = iota + 1
	// LiteLLM talks to a LiteLLM proxy.
	LiteLLM
)

// Kinds lists every supported backend.
var Kinds = []Kind{OpenAI, LiteLLM}

// ParseKind maps a MODEL_TYPE token to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "openai":
		return OpenAI, nil
	case "litellm":
		return LiteLLM, nil
	default:
		return 0, invalid(ReasonUnsupportedKind, envModelType, s)
	}
}

// String returns the MODEL_TYPE token for k.
func (k Kind) String() string {
	switch k {
	case OpenAI:
		return "openai"
	case LiteLLM:
		return "litellm"
	default:
		return "unknown"
	}
}

// Valid reports whether k is one of the supported backends.
func (k Kind) Valid() bool {
	return k == OpenAI || k == LiteLLM
}

// UnmarshalText lets a Kind be decoded from configuration files and flags.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// MarshalText encodes k as its MODEL_TYPE token.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, invalid(ReasonUnsupportedKind, "", k.String())
	}
	return []byte(k.String()), nil
}
