package aimodel

import (
	"errors"
	"fmt"
)

// ErrInvalidConfiguration matches every *InvalidConfigurationError via errors.Is.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// Reasons carried by InvalidConfigurationError.
const (
	ReasonUnsupportedKind = "unsupported model type"
	ReasonMissingVariable = "missing required variable"
	ReasonInvalidValue    = "invalid value for variable"
	ReasonKindRequired    = "model type is required"
	ReasonAPIKeyRequired  = "API key is required"
	ReasonModelIDRequired = "model ID is required"
	ReasonMaxTokens       = "max tokens must be positive"
	ReasonTemperature     = "temperature must be between 0 and 1"
)

// InvalidConfigurationError reports a configuration that cannot produce a
// usable model. Variable names the environment variable involved, if any;
// Value holds the offending raw value, if any.
type InvalidConfigurationError struct {
	Reason   string
	Variable string
	Value    string
}

func (e *InvalidConfigurationError) Error() string {
	msg := "aimodel: " + e.Reason
	if e.Variable != "" {
		msg += " " + e.Variable
	}
	if e.Value != "" {
		msg += fmt.Sprintf(": %q", e.Value)
	}
	return msg
}

// Is reports whether target is ErrInvalidConfiguration.
func (e *InvalidConfigurationError) Is(target error) bool {
	return target == ErrInvalidConfiguration
}

func invalid(reason, variable, value string) error {
	return &InvalidConfigurationError{Reason: reason, Variable: variable, Value: value}
}
