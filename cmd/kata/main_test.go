package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/germanamz/kata/pkg/agent"
	"github.com/germanamz/kata/pkg/chats/message"
	"github.com/germanamz/kata/pkg/chats/role"
	"github.com/germanamz/kata/pkg/modeladapter/usage"
)

func parse(t *testing.T, args ...string) (*CLI, *kong.Context) {
	t.Helper()

	cli := &CLI{}
	parser, err := kong.New(cli, kong.Name("kata"), kong.Exit(func(int) { t.Fatal("unexpected exit") }))
	require.NoError(t, err)

	kctx, err := parser.Parse(args)
	require.NoError(t, err)
	return cli, kctx
}

func TestParse_Ask(t *testing.T) {
	cli, kctx := parse(t, "ask", "math_assistant", "Solve 2x + 3 = 7")

	assert.Equal(t, "ask <agent> <prompt>", kctx.Command())
	assert.Equal(t, "math_assistant", cli.Ask.Agent)
	assert.Equal(t, "Solve 2x + 3 = 7", cli.Ask.Prompt)
	assert.Equal(t, ".env", cli.Env)
}

func TestParse_A2AServe(t *testing.T) {
	cli, kctx := parse(t, "a2a", "serve", "math_assistant", "--port", "9101")

	assert.Equal(t, "a2a serve <agent>", kctx.Command())
	assert.Equal(t, 9101, cli.A2A.Serve.Port)
	assert.Equal(t, "localhost", cli.A2A.Serve.Host)
}

func TestParse_A2AChatURLs(t *testing.T) {
	cli, _ := parse(t, "a2a", "chat", "--url", "http://localhost:9000", "--url", "http://localhost:9001")

	assert.Equal(t, []string{"http://localhost:9000", "http://localhost:9001"}, cli.A2A.Chat.URL)
	assert.Equal(t, "teacher_assistant", cli.A2A.Chat.Agent)
}

func TestParse_DocsDefaults(t *testing.T) {
	cli, _ := parse(t, "docs", "index")

	assert.Equal(t, 2, cli.Docs.Index.MaxDepth)
	assert.Equal(t, "text-embedding-3-large", cli.Docs.Index.EmbeddingModel)
	assert.True(t, strings.HasSuffix(cli.Docs.Index.WorkDir, "vector_store_data"))
}

func TestParse_MCPHelloServer(t *testing.T) {
	cli, kctx := parse(t, "mcp", "hello-server", "--http", ":8000")

	assert.Equal(t, "mcp hello-server", kctx.Command())
	assert.Equal(t, ":8000", cli.MCP.HelloServer.HTTP)
}

func reply(text string) agent.Result {
	return agent.Result{Message: message.NewText("", role.Assistant, text)}
}

func TestChatLoop(t *testing.T) {
	in := strings.NewReader("hello\n\nfail\nsecond\nexit\nnever sent\n")
	var out bytes.Buffer
	var sent []string

	send := func(_ context.Context, text string) (agent.Result, error) {
		sent = append(sent, text)
		if text == "fail" {
			return agent.Result{}, errors.New("rate limited")
		}
		return reply("echo " + text), nil
	}

	require.NoError(t, chatLoop(context.Background(), in, &out, "teacher_assistant", send))

	assert.Equal(t, []string{"hello", "fail", "second"}, sent)
	assert.Contains(t, out.String(), "Error: rate limited")
	assert.Contains(t, out.String(), "echo second")
	assert.NotContains(t, out.String(), "never sent")
}

func TestChatLoop_EOF(t *testing.T) {
	var out bytes.Buffer
	send := func(context.Context, string) (agent.Result, error) { return reply("hi"), nil }

	require.NoError(t, chatLoop(context.Background(), strings.NewReader("hello"), &out, "a", send))
	assert.Contains(t, out.String(), "hi")
}

func TestPrintMetrics(t *testing.T) {
	var out bytes.Buffer
	printMetrics(&out, agent.Metrics{
		Usage:    usage.TokenCount{InputTokens: 1200, OutputTokens: 300},
		Tools:    map[string]agent.ToolStats{"math_assistant": {Calls: 1}, "http_request": {Calls: 2}},
		Duration: 2500 * time.Millisecond,
	})

	s := out.String()
	assert.Contains(t, s, "Total tokens: 1.5k")
	assert.Contains(t, s, "Execution time: 2.5s")
	assert.Contains(t, s, "Tools used: http_request, math_assistant")
}

func TestPrintMetrics_NoTools(t *testing.T) {
	var out bytes.Buffer
	printMetrics(&out, agent.Metrics{})
	assert.Contains(t, out.String(), "Tools used: none")
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "999", fmtTokens(999))
	assert.Equal(t, "2.0M", fmtTokens(2_000_000))
	assert.Equal(t, "1m05s", fmtDuration(65*time.Second))
	assert.Equal(t, "localhost:8000", displayAddr(":8000"))
	assert.Equal(t, "dev", version())
}
