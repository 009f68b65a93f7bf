package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/philippgille/chromem-go"
)

// Names of the artifacts written under a work directory.
const (
	CollectionName = "langgraph-docs"
	LLMSFullFile   = "llms_full.txt"
	DBDir          = "chromem"
)

// Default embedding settings.
const (
	DefaultEmbeddingModel   = "text-embedding-3-large"
	DefaultEmbeddingBaseURL = "https://api.openai.com/v1"
)

// LangGraphDocsURLs are the pages indexed when no urls are given.
var LangGraphDocsURLs = []string{
	"https://langchain-ai.github.io/langgraph/",
	"https://langchain-ai.github.io/langgraph/tutorials/workflows/",
	"https://langchain-ai.github.io/langgraph/tutorials/introduction/",
	"https://langchain-ai.github.io/langgraph/tutorials/langgraph-platform/local-server/",
}

// ErrNoDocuments is returned by Build when nothing could be loaded.
var ErrNoDocuments = errors.New("vectorstore: no documents loaded")

// OpenAIEmbedder returns an embedding function backed by an OpenAI-compatible
// /embeddings endpoint.
func OpenAIEmbedder(baseURL, apiKey, model string) chromem.EmbeddingFunc {
	if baseURL == "" {
		baseURL = DefaultEmbeddingBaseURL
	}
	if model == "" {
		model = DefaultEmbeddingModel
	}
	return chromem.NewEmbeddingFuncOpenAICompat(strings.TrimRight(baseURL, "/"), apiKey, model, nil)
}

// FactoryOptions configure a Factory.
type FactoryOptions struct {
	Embed    chromem.EmbeddingFunc // Required.
	Loader   *Loader               // Defaults to a Loader with default settings.
	Splitter Splitter
	Logger   *slog.Logger
}

// Factory builds the vector store for one work directory.
type Factory struct {
	workDir  string
	embed    chromem.EmbeddingFunc
	loader   *Loader
	splitter Splitter
	log      *slog.Logger
}

// NewFactory creates the work directory if needed and returns a Factory.
func NewFactory(workDir string, opts FactoryOptions) (*Factory, error) {
	if opts.Embed == nil {
		return nil, fmt.Errorf("vectorstore: embedding function is required")
	}
	if err := os.MkdirAll(workDir, 0o750); err != nil {
		return nil, fmt.Errorf("vectorstore: create work dir: %w", err)
	}

	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	loader := opts.Loader
	if loader == nil {
		loader = &Loader{Logger: log}
	}

	return &Factory{
		workDir:  workDir,
		embed:    opts.Embed,
		loader:   loader,
		splitter: opts.Splitter,
		log:      log,
	}, nil
}

// WorkDir returns the directory the factory writes to.
func (f *Factory) WorkDir() string { return f.workDir }

// Build loads urls up to maxDepth, saves llms_full.txt, splits the documents
// and replaces the collection with their embeddings.
func (f *Factory) Build(ctx context.Context, urls []string, maxDepth int) error {
	loader := *f.loader
	if maxDepth > 0 {
		loader.MaxDepth = maxDepth
	}

	docs, err := loader.Load(ctx, urls...)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return ErrNoDocuments
	}

	tok := f.splitter.Tokenizer
	if tok == nil {
		tok, _ = DefaultTokenizer()
	}
	if tok != nil {
		total := 0
		for _, d := range docs {
			total += len(tok.Encode(d.Content))
		}
		f.log.InfoContext(ctx, "corpus size", "documents", len(docs), "tokens", total)
	}

	if err := f.SaveLLMSFull(docs); err != nil {
		return err
	}

	chunks, err := f.splitter.Split(docs)
	if err != nil {
		return err
	}
	f.log.InfoContext(ctx, "documents split", "chunks", len(chunks))

	return f.Index(ctx, chunks)
}

// SaveLLMSFull writes every document to llms_full.txt.
func (f *Factory) SaveLLMSFull(docs []Document) error {
	var b strings.Builder
	for i, d := range docs {
		source := d.Source
		if source == "" {
			source = "Unknown URL"
		}
		fmt.Fprintf(&b, "DOCUMENT %d\nSOURCE: %s\nCONTENT:\n%s\n\n%s\n\n", i+1, source, d.Content, strings.Repeat("=", 80))
	}

	path := filepath.Join(f.workDir, LLMSFullFile)
	if err := os.WriteFile(path, []byte(b.String()), 0o600); err != nil {
		return fmt.Errorf("vectorstore: save %s: %w", LLMSFullFile, err)
	}

	return nil
}

// Index replaces the collection with chunks.
func (f *Factory) Index(ctx context.Context, chunks []Document) error {
	if len(chunks) == 0 {
		return ErrNoDocuments
	}

	db, err := openDB(f.workDir)
	if err != nil {
		return err
	}

	if err := db.DeleteCollection(CollectionName); err != nil {
		return fmt.Errorf("vectorstore: reset collection: %w", err)
	}

	col, err := db.GetOrCreateCollection(CollectionName, nil, f.embed)
	if err != nil {
		return fmt.Errorf("vectorstore: create collection: %w", err)
	}

	records := make([]chromem.Document, len(chunks))
	for i, c := range chunks {
		records[i] = chromem.Document{
			ID:      strconv.Itoa(i),
			Content: c.Content,
			Metadata: map[string]string{
				"source": c.Source,
				"chunk":  strconv.Itoa(c.Chunk),
			},
		}
	}

	if err := col.AddDocuments(ctx, records, runtime.NumCPU()); err != nil {
		return fmt.Errorf("vectorstore: embed documents: %w", err)
	}

	f.log.InfoContext(ctx, "vector store persisted", "path", filepath.Join(f.workDir, DBDir), "documents", col.Count())

	return nil
}

func openDB(workDir string) (*chromem.DB, error) {
	db, err := chromem.NewPersistentDB(filepath.Join(workDir, DBDir), false)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: open db: %w", err)
	}
	return db, nil
}
