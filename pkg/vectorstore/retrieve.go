package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/germanamz/kata/pkg/tools/toolbox"
)

// RetrieveToolName is the name of the tool returned by RetrieveTool.
const RetrieveToolName = "retrieve"

type retrieveInput struct {
	Query string `json:"query"`
	K     int    `json:"k,omitempty"`
}

// FormatDocuments renders docs as numbered "==DOCUMENT i==" blocks.
func FormatDocuments(docs []Document) string {
	blocks := make([]string, len(docs))
	for i, d := range docs {
		blocks[i] = fmt.Sprintf("==DOCUMENT %d==\n%s", i+1, d.Content)
	}
	return strings.Join(blocks, "\n\n")
}

// RetrieveTool exposes h as a tool that returns the formatted top-k chunks.
func RetrieveTool(h *QueryHelper) toolbox.Tool {
	return LazyRetrieveTool(func() (*QueryHelper, error) { return h, nil })
}

// LazyRetrieveTool is RetrieveTool with the helper resolved on each call, so
// that the store is only opened once an agent actually searches it.
func LazyRetrieveTool(open func() (*QueryHelper, error)) toolbox.Tool {
	return toolbox.Tool{
		Name:        RetrieveToolName,
		Description: "Retrieve the documentation passages most relevant to a query.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"query":{"type":"string","description":"What to search for"},"k":{"type":"integer","description":"Number of passages (default 3)"}},"required":["query"]}`),
		Handler: toolbox.Typed(RetrieveToolName, func(ctx context.Context, in retrieveInput) (string, error) {
			if strings.TrimSpace(in.Query) == "" {
				return "", fmt.Errorf("%s: query is required", RetrieveToolName)
			}

			h, err := open()
			if err != nil {
				return "", err
			}

			docs, err := h.Query(ctx, in.Query, in.K)
			if err != nil {
				return "", err
			}
			if len(docs) == 0 {
				return "No documents found.", nil
			}

			return FormatDocuments(docs), nil
		}),
	}
}

// Tools returns a toolbox containing RetrieveTool(h).
func Tools(h *QueryHelper) *toolbox.ToolBox {
	tb := toolbox.New()
	tb.Register(RetrieveTool(h))
	return tb
}
