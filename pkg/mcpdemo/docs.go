package mcpdemo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/germanamz/kata/pkg/tools/mcpserver"
	"github.com/germanamz/kata/pkg/tools/toolbox"
	"github.com/germanamz/kata/pkg/vectorstore"
)

// DocsServerName is the implementation name advertised by NewDocsServer.
const DocsServerName = "LangGraph-Docs-MCP-Server"

// DocsURI serves the whole corpus.
const DocsURI = "docs://langgraph/full"

// DocsSource is what the docs server needs from a vector store.
type DocsSource interface {
	Query(ctx context.Context, q string, k int) ([]vectorstore.Document, error)
	LLMSFull() (string, error)
}

type queryInput struct {
	Query string `json:"query"`
}

// NewDocsServer exposes src as a query tool and a full-corpus resource.
func NewDocsServer(src DocsSource) *mcpserver.MCPServer {
	s := mcpserver.New(DocsServerName, Version)

	s.Register(toolbox.Tool{
		Name:        "langgraph_query_tool",
		Description: "Query the LangGraph documentation.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"query":{"type":"string","description":"The query to search the documentation with"}},"required":["query"]}`),
		Handler: toolbox.Typed("langgraph_query_tool", func(ctx context.Context, in queryInput) (string, error) {
			if strings.TrimSpace(in.Query) == "" {
				return "", fmt.Errorf("langgraph_query_tool: query is required")
			}
			docs, err := src.Query(ctx, in.Query, vectorstore.DefaultK)
			if err != nil {
				return "", err
			}
			return vectorstore.FormatDocuments(docs), nil
		}),
	})

	s.AddResource(mcpserver.Resource{
		URI:         DocsURI,
		Name:        "langgraph_full",
		Description: "Get all LangGraph documentation in one single shot.",
		MIMEType:    "text/plain",
		Read: func(context.Context, string) (string, error) {
			return src.LLMSFull()
		},
	})

	return s
}
