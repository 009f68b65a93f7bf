package mcpdemo

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/germanamz/kata/pkg/tools/mcpserver"
	"github.com/germanamz/kata/pkg/chats/role"
	"github.com/germanamz/kata/pkg/tools/toolbox"
)

// HelloServerName is the implementation name advertised by NewHelloServer.
const HelloServerName = "My First MCP Server"

// Version is advertised by the demo servers.
const Version = "0.1.0"

// URIs served by the hello server.
const (
	ConfigURI          = "data://config"
	ProfileURITemplate = "users://{user_id}/profile"
)

// AppConfig is the document served at ConfigURI.
type AppConfig struct {
	Theme        string   `json:"theme"`
	Version      string   `json:"version"`
	FeatureFlags []string `json:"feature_flags"`
}

// Profile is a user profile served by the profile template.
type Profile struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

var appConfig = AppConfig{Theme: "dark", Version: "1.1", FeatureFlags: []string{"new_dashboard"}}

var profiles = map[int]Profile{
	101: {Name: "Alice", Status: "active"},
	102: {Name: "Bob", Status: "inactive"},
}

type greetInput struct {
	Name string `json:"name"`
}

type addInput struct {
	A int `json:"a"`
	B int `json:"b"`
}

// NewHelloServer builds the hello server.
func NewHelloServer() *mcpserver.MCPServer {
	s := mcpserver.New(HelloServerName, Version)

	s.Register(
		toolbox.Tool{
			Name:        "greet",
			Description: "Greet a person by name provided as input",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"name":{"type":"string"}},"required":["name"]}`),
			Handler: toolbox.Typed("greet", func(_ context.Context, in greetInput) (string, error) {
				return fmt.Sprintf("Hello, %s!", in.Name), nil
			}),
		},
		toolbox.Tool{
			Name:        "add",
			Description: "Add two integers together, in a very smart way!",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"a":{"type":"integer"},"b":{"type":"integer"}},"required":["a","b"]}`),
			Handler: toolbox.Typed("add", func(_ context.Context, in addInput) (string, error) {
				return strconv.Itoa(in.A + in.B), nil
			}),
		},
	)

	s.AddResource(mcpserver.Resource{
		URI:         ConfigURI,
		Name:        "config",
		Description: "Provides the application configuration.",
		MIMEType:    "application/json",
		Read: func(context.Context, string) (string, error) {
			return marshal(appConfig)
		},
	})

	s.AddResourceTemplate(mcpserver.ResourceTemplate{
		URITemplate: ProfileURITemplate,
		Name:        "user_profile",
		Description: "Retrieves a user's profile by their ID.",
		MIMEType:    "application/json",
		Read: func(_ context.Context, uri string) (string, error) {
			return marshal(lookupProfile(uri))
		},
	})

	s.AddPrompt(mcpserver.Prompt{
		Name:        "summarize",
		Description: "Generates a prompt to summarize the provided text.",
		Arguments:   []mcpserver.PromptArgument{{Name: "text", Description: "Text to summarize", Required: true}},
		Render: func(_ context.Context, args map[string]string) ([]mcpserver.PromptMessage, error) {
			return SummarizePrompt(args["text"]), nil
		},
	})

	return s
}

// SummarizePrompt renders the summarize prompt for text: a system message
// setting up the assistant, then the user request.
func SummarizePrompt(text string) []mcpserver.PromptMessage {
	return []mcpserver.PromptMessage{
		{Role: role.System, Text: "You are a helpful assistant skilled at summarization."},
		{Role: role.User, Text: "Please summarize the following text:\n\n" + text},
	}
}

// lookupProfile resolves users://<id>/profile. Unknown or malformed ids yield
// an error document rather than a protocol error.
func lookupProfile(uri string) any {
	id := strings.TrimSuffix(strings.TrimPrefix(uri, "users://"), "/profile")
	if n, err := strconv.Atoi(id); err == nil {
		if p, ok := profiles[n]; ok {
			return p
		}
	}
	return map[string]string{"error": "User not found"}
}

func marshal(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
