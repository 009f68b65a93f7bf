package toolbox

import (
	"context"
	"encoding/json"
	"fmt"
)

// Handler executes a tool with the given JSON input and returns a text result.
type Handler func(ctx context.Context, input json.RawMessage) (string, error)

// Tool represents an executable tool with a name, description, JSON Schema, and handler.
type Tool struct {
	Name        string
	Description string
	InputSchema json.RawMessage
	Handler     Handler
}

// Typed adapts a handler that takes a decoded input struct. Malformed JSON
// input is reported as a tool error naming the tool.
func Typed[In any](name string, fn func(ctx context.Context, in In) (string, error)) Handler {
	return func(ctx context.Context, input json.RawMessage) (string, error) {
		var in In
		if len(input) > 0 {
			if err := json.Unmarshal(input, &in); err != nil {
				return "", fmt.Errorf("%s: invalid input: %w", name, err)
			}
		}
		return fn(ctx, in)
	}
}
