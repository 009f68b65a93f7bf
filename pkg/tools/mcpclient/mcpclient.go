// Package mcpclient connects to external MCP servers and exposes their tools
// as toolbox tools. Resources and prompts are available through ReadResource
// and GetPrompt.
package mcpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"strings"

	"github.com/germanamz/kata/pkg/tools/toolbox"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// MCPClient communicates with an MCP server using the official MCP Go SDK.
type MCPClient struct {
	client  *mcp.Client
	session *mcp.ClientSession
}

// New spawns an MCP server process and returns a connected client. env
// entries ("KEY=value") are appended to the current process environment.
func New(ctx context.Context, env []string, command string, args ...string) (*MCPClient, error) {
	cmd := exec.Command(command, args...) //nolint:gosec // command comes from operator configuration
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}

	return newFromTransport(ctx, &mcp.CommandTransport{Command: cmd})
}

// NewSSE connects to an SSE-based MCP server at the given URL.
func NewSSE(ctx context.Context, url string) (*MCPClient, error) {
	return newFromTransport(ctx, &mcp.SSEClientTransport{Endpoint: url})
}

// NewStreamable connects to a streamable-HTTP MCP server at the given URL.
// A nil client uses http.DefaultClient.
func NewStreamable(ctx context.Context, url string, client *http.Client) (*MCPClient, error) {
	return newFromTransport(ctx, &mcp.StreamableClientTransport{Endpoint: url, HTTPClient: client})
}

func newFromTransport(ctx context.Context, transport mcp.Transport) (*MCPClient, error) {
	client := mcp.NewClient(&mcp.Implementation{
		Name:    "kata",
		Version: "0.1.0",
	}, nil)

	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("mcpclient: connect: %w", err)
	}

	return &MCPClient{client: client, session: session}, nil
}

// ListTools fetches available tools from the server and returns them as
// toolbox.Tool instances whose handlers call back through CallTool.
func (c *MCPClient) ListTools(ctx context.Context) ([]toolbox.Tool, error) {
	result, err := c.session.ListTools(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("mcpclient: list tools: %w", err)
	}

	tools := make([]toolbox.Tool, 0, len(result.Tools))
	for _, sdkTool := range result.Tools {
		t, err := fromSDKTool(sdkTool, c)
		if err != nil {
			return nil, fmt.Errorf("mcpclient: convert tool %q: %w", sdkTool.Name, err)
		}
		tools = append(tools, t)
	}

	return tools, nil
}

// CallTool calls a named tool on the server with the given arguments.
func (c *MCPClient) CallTool(ctx context.Context, name string, arguments json.RawMessage) (string, error) {
	var args map[string]any
	if len(arguments) > 0 {
		if err := json.Unmarshal(arguments, &args); err != nil {
			return "", fmt.Errorf("mcpclient: unmarshal arguments: %w", err)
		}
	}

	result, err := c.session.CallTool(ctx, &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		return "", fmt.Errorf("mcpclient: call tool: %w", err)
	}

	text := extractText(result.Content)

	if result.IsError {
		return "", fmt.Errorf("mcpclient: tool error: %s", text)
	}

	return text, nil
}

// ReadResource returns the text contents of the resource at uri, joined with
// newlines when the server returns several.
func (c *MCPClient) ReadResource(ctx context.Context, uri string) (string, error) {
	res, err := c.session.ReadResource(ctx, &mcp.ReadResourceParams{URI: uri})
	if err != nil {
		return "", fmt.Errorf("mcpclient: read resource %s: %w", uri, err)
	}

	texts := make([]string, 0, len(res.Contents))
	for _, rc := range res.Contents {
		texts = append(texts, rc.Text)
	}

	return strings.Join(texts, "\n"), nil
}

// GetPrompt renders a server prompt and returns its messages as
// "role: text" lines.
func (c *MCPClient) GetPrompt(ctx context.Context, name string, args map[string]string) (string, error) {
	res, err := c.session.GetPrompt(ctx, &mcp.GetPromptParams{Name: name, Arguments: args})
	if err != nil {
		return "", fmt.Errorf("mcpclient: get prompt %s: %w", name, err)
	}

	lines := make([]string, 0, len(res.Messages))
	for _, m := range res.Messages {
		lines = append(lines, fmt.Sprintf("%s: %s", m.Role, extractText([]mcp.Content{m.Content})))
	}

	return strings.Join(lines, "\n"), nil
}

// Close terminates the session. For command transports the SDK closes stdin
// and escalates to SIGTERM/SIGKILL if the process does not exit.
func (c *MCPClient) Close() error {
	return c.session.Close()
}

func fromSDKTool(sdkTool *mcp.Tool, c *MCPClient) (toolbox.Tool, error) {
	schemaBytes, err := json.Marshal(sdkTool.InputSchema)
	if err != nil {
		return toolbox.Tool{}, fmt.Errorf("marshal input schema: %w", err)
	}

	name := sdkTool.Name

	return toolbox.Tool{
		Name:        sdkTool.Name,
		Description: sdkTool.Description,
		InputSchema: json.RawMessage(schemaBytes),
		Handler: func(ctx context.Context, input json.RawMessage) (string, error) {
			return c.CallTool(ctx, name, input)
		},
	}, nil
}

// extractText joins all TextContent items with newlines.
func extractText(content []mcp.Content) string {
	var texts []string
	for _, item := range content {
		if tc, ok := item.(*mcp.TextContent); ok {
			texts = append(texts, tc.Text)
		}
	}

	return strings.Join(texts, "\n")
}
