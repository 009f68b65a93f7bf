// Package openai provides a Completer implementation for the OpenAI Chat Completions API.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/germanamz/kata/pkg/chats/chat"
	"github.com/germanamz/kata/pkg/chats/content"
	"github.com/germanamz/kata/pkg/chats/message"
	"github.com/germanamz/kata/pkg/chats/role"
	"github.com/germanamz/kata/pkg/modeladapter"
	"github.com/germanamz/kata/pkg/modeladapter/usage"
	"github.com/germanamz/kata/pkg/tools/toolbox"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "https://api.openai.com"

const (
	defaultPath       = "/v1/chat/completions"
	completionsPath   = "/chat/completions"
	defaultMaxTokens  = 4096
	defaultProviderID = "openai"
)

var _ modeladapter.Completer = (*Adapter)(nil)

// Adapter implements modeladapter.Completer for the OpenAI Chat Completions
// API and for servers that speak the same wire format.
type Adapter struct {
	modeladapter.ModelAdapter

	// Provider prefixes errors returned by Complete.
	Provider string
	// Path is appended to BaseURL for completion requests.
	Path string
}

// New creates an Adapter configured for the OpenAI API. An empty baseURL
// selects DefaultBaseURL and its "/v1" API prefix. A configured base URL is
// used as given, with "/chat/completions" appended.
func New(baseURL, apiKey, model string) *Adapter {
	base := strings.TrimRight(baseURL, "/")
	path := completionsPath
	if base == "" {
		base = DefaultBaseURL
		path = defaultPath
	}

	a := &Adapter{Provider: defaultProviderID, Path: path}
	a.BaseURL = base
	a.Auth = modeladapter.Auth{Key: apiKey}
	a.ModelID = model
	a.MaxTokens = defaultMaxTokens

	return a
}

// Complete sends a conversation to the Chat Completions endpoint and returns
// the assistant's reply.
func (a *Adapter) Complete(ctx context.Context, c *chat.Chat, tools []toolbox.Tool) (message.Message, error) {
	req := BuildRequest(a.Settings(), c, tools)

	var resp Response
	if err := a.PostJSON(ctx, a.Path, req, &resp); err != nil {
		return message.Message{}, fmt.Errorf("%s: %w", a.Provider, err)
	}

	a.RecordUsage(ctx, usage.TokenCount{
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	})

	if len(resp.Choices) == 0 {
		return message.Message{}, fmt.Errorf("%s: empty choices in response", a.Provider)
	}

	return ParseChoice(resp.Choices[0]), nil
}

// --- request types ---

// Request is the Chat Completions request body. Temperature is always sent,
// including zero.
type Request struct {
	Model       string       `json:"model"`
	Messages    []apiMessage `json:"messages"`
	MaxTokens   int          `json:"max_tokens"`
	Temperature float64      `json:"temperature"`
	Tools       []apiToolDef `json:"tools,omitempty"`
}

type apiMessage struct {
	Role       string        `json:"role"`
	Content    *string       `json:"content"`
	ToolCalls  []apiToolCall `json:"tool_calls,omitempty"`
	ToolCallID string        `json:"tool_call_id,omitempty"`
}

type apiToolCall struct {
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	Function apiToolFunction `json:"function"`
}

type apiToolFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type apiToolDef struct {
	Type     string         `json:"type"`
	Function apiToolDefFunc `json:"function"`
}

type apiToolDefFunc struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters"`
}

// --- response types ---

// Response is the Chat Completions response body.
type Response struct {
	Choices []Choice `json:"choices"`
	Usage   apiUsage `json:"usage"`
}

// Choice is one completion alternative.
type Choice struct {
	Message      apiRespMessage `json:"message"`
	FinishReason string         `json:"finish_reason"`
}

type apiRespMessage struct {
	Role      string        `json:"role"`
	Content   *string       `json:"content"`
	ToolCalls []apiToolCall `json:"tool_calls,omitempty"`
}

type apiUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// --- conversion helpers ---

// BuildRequest converts a conversation and tool set into a request body
// carrying the model and generation parameters from s.
func BuildRequest(s modeladapter.Settings, c *chat.Chat, tools []toolbox.Tool) Request {
	req := Request{
		Model:       s.ModelID,
		MaxTokens:   s.Params.MaxTokens,
		Temperature: s.Params.Temperature,
	}

	if len(tools) > 0 {
		req.Tools = make([]apiToolDef, len(tools))
		for i, t := range tools {
			schema := t.InputSchema
			if schema == nil {
				schema = json.RawMessage(`{"type":"object"}`)
			}
			req.Tools[i] = apiToolDef{
				Type: "function",
				Function: apiToolDefFunc{
					Name:        t.Name,
					Description: t.Description,
					Parameters:  schema,
				},
			}
		}
	}

	for _, m := range c.Messages() {
		appendMessages(&req.Messages, m)
	}

	return req
}

func appendMessages(msgs *[]apiMessage, m message.Message) {
	switch m.Role {
	case role.System:
		text := m.TextContent()
		*msgs = append(*msgs, apiMessage{Role: "system", Content: &text})

	case role.User:
		text := m.TextContent()
		*msgs = append(*msgs, apiMessage{Role: "user", Content: &text})

	case role.Assistant:
		var toolCalls []apiToolCall
		var text strings.Builder

		for _, p := range m.Parts {
			switch v := p.(type) {
			case content.Text:
				text.WriteString(v.Text)
			case content.ToolCall:
				toolCalls = append(toolCalls, apiToolCall{
					ID:   v.ID,
					Type: "function",
					Function: apiToolFunction{
						Name:      v.Name,
						Arguments: v.Arguments,
					},
				})
			}
		}

		msg := apiMessage{Role: "assistant", ToolCalls: toolCalls}
		if text.Len() > 0 {
			joined := text.String()
			msg.Content = &joined
		}

		*msgs = append(*msgs, msg)

	case role.Tool:
		for _, p := range m.Parts {
			if tr, ok := p.(content.ToolResult); ok {
				*msgs = append(*msgs, apiMessage{
					Role:       "tool",
					Content:    &tr.Content,
					ToolCallID: tr.ToolCallID,
				})
			}
		}
	}
}

// ParseChoice converts a response choice into an assistant message.
func ParseChoice(choice Choice) message.Message {
	var parts []content.Part

	if choice.Message.Content != nil && *choice.Message.Content != "" {
		parts = append(parts, content.Text{Text: *choice.Message.Content})
	}

	for _, tc := range choice.Message.ToolCalls {
		parts = append(parts, content.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}

	return message.New("", role.Assistant, parts...)
}
