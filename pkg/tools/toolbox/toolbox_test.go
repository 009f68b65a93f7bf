package toolbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/germanamz/kata/pkg/chats/content"
)

// stub returns a tool whose handler reports its own name and input.
func stub(name string) Tool {
	return Tool{
		Name:        name,
		Description: "stub " + name,
		InputSchema: json.RawMessage(`{"type":"object"}`),
		Handler: func(_ context.Context, input json.RawMessage) (string, error) {
			return name + ":" + string(input), nil
		},
	}
}

func agentTools() *ToolBox {
	tb := New()
	tb.Register(stub("retrieve"), stub("calculate"), stub("http_request"), stub("get_weather"))
	return tb
}

func TestNames_Sorted(t *testing.T) {
	tb := agentTools()

	assert.Equal(t, []string{"calculate", "get_weather", "http_request", "retrieve"}, tb.Names())
	assert.Empty(t, New().Names())
}

func TestTools_SortedByName(t *testing.T) {
	tb := New()
	tb.Register(stub("zeta"), stub("alpha"), stub("mid"))

	var got []string
	for _, tool := range tb.Tools() {
		got = append(got, tool.Name)
	}
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, got)
}

func TestRegister_SameNameReplaces(t *testing.T) {
	tb := agentTools()
	tb.Register(Tool{Name: "calculate", Description: "v2", Handler: stub("calculate").Handler})

	got, ok := tb.Get("calculate")
	require.True(t, ok)
	assert.Equal(t, "v2", got.Description)
	assert.Len(t, tb.Names(), 4)

	_, ok = tb.Get("unknown")
	assert.False(t, ok)
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name  string
		names []string
		want  []string
	}{
		{name: "subset", names: []string{"retrieve", "calculate"}, want: []string{"calculate", "retrieve"}},
		{name: "unknown names skipped", names: []string{"calculate", "send_email"}, want: []string{"calculate"}},
		{name: "only unknown names", names: []string{"send_email"}, want: []string{}},
		{name: "duplicates collapse", names: []string{"retrieve", "retrieve"}, want: []string{"retrieve"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tb := agentTools()
			filtered := tb.Filter(tt.names)

			assert.NotSame(t, tb, filtered)
			assert.Equal(t, tt.want, filtered.Names())
			assert.Len(t, tb.Names(), 4)
		})
	}
}

func TestFilter_NoNamesKeepsEverything(t *testing.T) {
	tb := agentTools()

	assert.Same(t, tb, tb.Filter(nil))
	assert.Same(t, tb, tb.Filter([]string{}))
}

func TestFilter_IndependentOfSource(t *testing.T) {
	tb := agentTools()
	filtered := tb.Filter([]string{"calculate"})

	tb.Register(stub("new_tool"))
	filtered.Register(stub("other"))

	assert.Equal(t, []string{"calculate", "other"}, filtered.Names())
	assert.NotContains(t, tb.Names(), "other")
}

func TestMerge_OtherWins(t *testing.T) {
	mcp := New()
	mcp.Register(Tool{Name: "retrieve", Description: "remote"}, stub("get_forecast"))

	tb := agentTools()
	tb.Merge(mcp)

	assert.Equal(t, []string{"calculate", "get_forecast", "get_weather", "http_request", "retrieve"}, tb.Names())
	got, _ := tb.Get("retrieve")
	assert.Equal(t, "remote", got.Description)
}

func TestCall(t *testing.T) {
	tb := agentTools()
	tb.Register(Tool{Name: "broken", Handler: func(context.Context, json.RawMessage) (string, error) {
		return "", errors.New("upstream timeout")
	}})

	tests := []struct {
		name    string
		call    content.ToolCall
		want    string
		isError bool
	}{
		{
			name: "arguments passed through",
			call: content.ToolCall{ID: "c1", Name: "calculate", Arguments: `{"expression":"2+2"}`},
			want: `calculate:{"expression":"2+2"}`,
		},
		{
			name: "empty arguments become empty object",
			call: content.ToolCall{ID: "c2", Name: "get_weather"},
			want: "get_weather:{}",
		},
		{
			name:    "unknown tool",
			call:    content.ToolCall{ID: "c3", Name: "send_email"},
			want:    "tool not found: send_email",
			isError: true,
		},
		{
			name:    "handler error",
			call:    content.ToolCall{ID: "c4", Name: "broken"},
			want:    "upstream timeout",
			isError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := tb.Call(context.Background(), tt.call)

			assert.Equal(t, tt.call.ID, res.ToolCallID)
			assert.Equal(t, tt.want, res.Content)
			assert.Equal(t, tt.isError, res.IsError)
		})
	}
}

func TestCall_PassesContext(t *testing.T) {
	type key struct{}
	tb := New()
	tb.Register(Tool{Name: "ctx", Handler: func(ctx context.Context, _ json.RawMessage) (string, error) {
		return fmt.Sprint(ctx.Value(key{})), nil
	}})

	ctx := context.WithValue(context.Background(), key{}, "run-7")
	assert.Equal(t, "run-7", tb.Call(ctx, content.ToolCall{Name: "ctx"}).Content)
}

func TestToolBox_ConcurrentUse(t *testing.T) {
	tb := agentTools()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			tb.Register(stub(fmt.Sprintf("tool_%02d", i)))
		}()
		go func() {
			defer wg.Done()
			res := tb.Call(context.Background(), content.ToolCall{Name: "calculate"})
			assert.False(t, res.IsError)
		}()
		go func() {
			defer wg.Done()
			_ = tb.Filter([]string{"retrieve", "calculate"}).Names()
			_ = tb.Tools()
		}()
	}
	wg.Wait()

	assert.Len(t, tb.Names(), 24)
}
