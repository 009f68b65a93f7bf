// Package mcpserver exposes tools, resources and prompts over the MCP
// protocol, on stdio or as a streamable HTTP handler.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/germanamz/kata/pkg/chats/role"
	"github.com/germanamz/kata/pkg/tools/toolbox"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ReadFunc returns the text of the resource identified by uri.
type ReadFunc func(ctx context.Context, uri string) (string, error)

// Resource is a fixed-URI resource.
type Resource struct {
	URI         string
	Name        string
	Description string
	MIMEType    string
	Read        ReadFunc
}

// ResourceTemplate is a parameterised resource such as "users://{id}/profile".
// Read receives the concrete URI requested by the client.
type ResourceTemplate struct {
	URITemplate string
	Name        string
	Description string
	MIMEType    string
	Read        ReadFunc
}

// PromptArgument describes one argument of a Prompt.
type PromptArgument struct {
	Name        string
	Description string
	Required    bool
}

// PromptMessage is one rendered prompt message.
type PromptMessage struct {
	Role role.Role
	Text string
}

// Prompt is a reusable prompt template. Render produces its messages in order.
type Prompt struct {
	Name        string
	Description string
	Arguments   []PromptArgument
	Render      func(ctx context.Context, args map[string]string) ([]PromptMessage, error)
}

// MCPServer serves tools over the MCP protocol using the official MCP Go SDK.
type MCPServer struct {
	server *mcp.Server
}

// New creates a new MCPServer with the given name and version.
func New(name, version string) *MCPServer {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    name,
		Version: version,
	}, nil)

	return &MCPServer{server: server}
}

// Register adds tools to the server.
func (s *MCPServer) Register(tools ...toolbox.Tool) {
	for _, t := range tools {
		s.server.AddTool(toSDKTool(t), toSDKHandler(t.Handler))
	}
}

// AddResource registers a fixed-URI resource.
func (s *MCPServer) AddResource(r Resource) {
	s.server.AddResource(&mcp.Resource{
		URI:         r.URI,
		Name:        r.Name,
		Description: r.Description,
		MIMEType:    r.MIMEType,
	}, toResourceHandler(r.MIMEType, r.Read))
}

// AddResourceTemplate registers a parameterised resource.
func (s *MCPServer) AddResourceTemplate(rt ResourceTemplate) {
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: rt.URITemplate,
		Name:        rt.Name,
		Description: rt.Description,
		MIMEType:    rt.MIMEType,
	}, toResourceHandler(rt.MIMEType, rt.Read))
}

// AddPrompt registers a prompt template.
func (s *MCPServer) AddPrompt(p Prompt) {
	args := make([]*mcp.PromptArgument, 0, len(p.Arguments))
	for _, a := range p.Arguments {
		args = append(args, &mcp.PromptArgument{
			Name:        a.Name,
			Description: a.Description,
			Required:    a.Required,
		})
	}

	render := p.Render
	s.server.AddPrompt(&mcp.Prompt{
		Name:        p.Name,
		Description: p.Description,
		Arguments:   args,
	}, func(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		for _, a := range p.Arguments {
			if a.Required && strings.TrimSpace(req.Params.Arguments[a.Name]) == "" {
				return nil, fmt.Errorf("prompt %s: missing argument %q", p.Name, a.Name)
			}
		}

		msgs, err := render(ctx, req.Params.Arguments)
		if err != nil {
			return nil, err
		}

		out := make([]*mcp.PromptMessage, 0, len(msgs))
		for _, m := range msgs {
			r := m.Role
			if r == "" {
				r = role.User
			}
			out = append(out, &mcp.PromptMessage{Role: mcp.Role(r), Content: &mcp.TextContent{Text: m.Text}})
		}

		return &mcp.GetPromptResult{Description: p.Description, Messages: out}, nil
	})
}

// Serve starts serving MCP requests. It reads requests from in and writes
// responses to out. It blocks until ctx is cancelled or the transport closes.
func (s *MCPServer) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	transport := &mcp.IOTransport{
		Reader: io.NopCloser(in),
		Writer: nopWriteCloser{out},
	}

	return s.Run(ctx, transport)
}

// ServeStdio serves on the process's stdin and stdout.
func (s *MCPServer) ServeStdio(ctx context.Context) error {
	return s.Run(ctx, &mcp.StdioTransport{})
}

// Handler returns an http.Handler speaking the streamable HTTP transport.
func (s *MCPServer) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil)
}

// Run serves on an arbitrary transport until ctx is cancelled or the
// transport closes.
func (s *MCPServer) Run(ctx context.Context, transport mcp.Transport) error {
	return s.server.Run(ctx, transport)
}

func toSDKTool(t toolbox.Tool) *mcp.Tool {
	schema := t.InputSchema
	if len(schema) == 0 {
		schema = json.RawMessage(`{"type":"object"}`)
	}

	return &mcp.Tool{
		Name:        t.Name,
		Description: t.Description,
		InputSchema: schema,
	}
}

func toSDKHandler(h toolbox.Handler) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.Params.Arguments
		if args == nil {
			args = json.RawMessage("{}")
		}
		result, err := h(ctx, args)
		if err != nil {
			return &mcp.CallToolResult{
				Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
				IsError: true,
			}, nil
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: result}},
		}, nil
	}
}

func toResourceHandler(mimeType string, read ReadFunc) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		uri := req.Params.URI
		text, err := read(ctx, uri)
		if err != nil {
			return nil, err
		}

		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{URI: uri, MIMEType: mimeType, Text: text},
			},
		}, nil
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
