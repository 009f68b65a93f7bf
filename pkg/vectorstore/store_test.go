package vectorstore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFactory(t *testing.T, srvClient *Loader) *Factory {
	t.Helper()

	f, err := NewFactory(t.TempDir(), FactoryOptions{
		Embed:    keywordEmbed,
		Loader:   srvClient,
		Splitter: Splitter{ChunkSize: 1000, ChunkOverlap: 10, Tokenizer: runeTokenizer{}},
	})
	require.NoError(t, err)
	return f
}

func TestNewFactory_RequiresEmbedder(t *testing.T) {
	_, err := NewFactory(t.TempDir(), FactoryOptions{})
	assert.ErrorContains(t, err, "embedding function is required")
}

func TestFactory_BuildAndQuery(t *testing.T) {
	srv, _ := newSite(t)
	f := newTestFactory(t, &Loader{Client: srv.Client()})

	require.NoError(t, f.Build(context.Background(), []string{srv.URL + "/docs/"}, 2))

	full, err := os.ReadFile(filepath.Join(f.WorkDir(), LLMSFullFile))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(full), "DOCUMENT 1\nSOURCE: "+srv.URL+"/docs/\nCONTENT:\n"))
	assert.Contains(t, string(full), "DOCUMENT 3\nSOURCE: "+srv.URL+"/docs/b\n")
	assert.Contains(t, string(full), "\n\n"+strings.Repeat("=", 80)+"\n\n")

	h, err := OpenQueryHelper(f.WorkDir(), keywordEmbed)
	require.NoError(t, err)
	assert.Equal(t, 3, h.Count())

	docs, err := h.Query(context.Background(), "rockets", 1)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, srv.URL+"/docs/b", docs[0].Source)
	assert.Equal(t, "Rockets and engines.", docs[0].Content)

	docs, err = h.Query(context.Background(), "apples", 10)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, srv.URL+"/docs/a", docs[0].Source)

	text, err := h.LLMSFull()
	require.NoError(t, err)
	assert.Equal(t, string(full), text)
}

func TestFactory_BuildNothingLoaded(t *testing.T) {
	srv, _ := newSite(t)
	f := newTestFactory(t, &Loader{Client: srv.Client()})

	err := f.Build(context.Background(), []string{srv.URL + "/missing"}, 1)
	assert.ErrorIs(t, err, ErrNoDocuments)
}

func TestFactory_IndexReplacesCollection(t *testing.T) {
	f := newTestFactory(t, nil)
	ctx := context.Background()

	require.NoError(t, f.Index(ctx, []Document{{Source: "1", Content: "apples"}, {Source: "2", Content: "bananas"}}))
	require.NoError(t, f.Index(ctx, []Document{{Source: "3", Content: "rockets"}}))

	h, err := OpenQueryHelper(f.WorkDir(), keywordEmbed)
	require.NoError(t, err)
	assert.Equal(t, 1, h.Count())
}

func TestQueryHelper_EmptyStore(t *testing.T) {
	dir := t.TempDir()
	h, err := OpenQueryHelper(dir, keywordEmbed)
	require.NoError(t, err)
	assert.Equal(t, 0, h.Count())
	assert.NoDirExists(t, filepath.Join(dir, DBDir))

	docs, err := h.Query(context.Background(), "anything", 0)
	require.NoError(t, err)
	assert.Empty(t, docs)

	text, err := h.LLMSFull()
	require.NoError(t, err)
	assert.Equal(t, MissingLLMSFull, text)
}

func TestRetrieveTool(t *testing.T) {
	f := newTestFactory(t, nil)
	require.NoError(t, f.Index(context.Background(), []Document{
		{Source: "1", Content: "LangGraph agents"},
		{Source: "2", Content: "rockets"},
	}))

	h, err := OpenQueryHelper(f.WorkDir(), keywordEmbed)
	require.NoError(t, err)

	tool, ok := Tools(h).Get(RetrieveToolName)
	require.True(t, ok)

	out, err := tool.Handler(context.Background(), json.RawMessage(`{"query":"langgraph","k":2}`))
	require.NoError(t, err)
	assert.Equal(t, "==DOCUMENT 1==\nLangGraph agents\n\n==DOCUMENT 2==\nrockets", out)

	_, err = tool.Handler(context.Background(), json.RawMessage(`{"query":""}`))
	assert.ErrorContains(t, err, "query is required")
}

func TestFormatDocuments_Empty(t *testing.T) {
	assert.Equal(t, "", FormatDocuments(nil))
}

func TestLazyRetrieveTool_OpenError(t *testing.T) {
	tool := LazyRetrieveTool(func() (*QueryHelper, error) {
		return nil, assert.AnError
	})

	_, err := tool.Handler(context.Background(), json.RawMessage(`{"query":"q"}`))
	assert.ErrorIs(t, err, assert.AnError)
}

func TestOpener_RetriesUntilBuilt(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "store")
	require.NoError(t, os.WriteFile(dir, []byte("not a directory"), 0o600))

	o := &Opener{WorkDir: dir, Embed: keywordEmbed}
	_, err := o.Open()
	require.Error(t, err)

	require.NoError(t, os.Remove(dir))
	h, err := o.Open()
	require.NoError(t, err)
	assert.Equal(t, 0, h.Count())
	assert.NoDirExists(t, dir)

	f, err := NewFactory(dir, FactoryOptions{Embed: keywordEmbed})
	require.NoError(t, err)
	require.NoError(t, f.Index(context.Background(), []Document{{Source: "1", Content: "rockets"}}))

	h, err = o.Open()
	require.NoError(t, err)
	assert.Equal(t, 1, h.Count())

	again, err := o.Open()
	require.NoError(t, err)
	assert.Same(t, h, again)
}
