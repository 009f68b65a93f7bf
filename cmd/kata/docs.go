package main

import (
	"context"
	"fmt"
	"os"

	"github.com/philippgille/chromem-go"

	"github.com/germanamz/kata/pkg/vectorstore"
)

// StoreFlags locate a vector store and its embedding endpoint.
type StoreFlags struct {
	WorkDir          string `help:"Vector store directory." default:"vector_store_data" type:"path"`
	EmbeddingModel   string `help:"Embedding model." default:"text-embedding-3-large"`
	EmbeddingBaseURL string `name:"embedding-base-url" help:"OpenAI-compatible embeddings endpoint." default:"https://api.openai.com/v1"`
}

// embedder reads the API key from OPENAI_API_KEY, after .env has been loaded.
func (f StoreFlags) embedder() chromem.EmbeddingFunc {
	return vectorstore.OpenAIEmbedder(f.EmbeddingBaseURL, os.Getenv("OPENAI_API_KEY"), f.EmbeddingModel)
}

func (f StoreFlags) open() (*vectorstore.QueryHelper, error) {
	return vectorstore.OpenQueryHelper(f.WorkDir, f.embedder())
}

// DocsCmd groups the vector store commands.
type DocsCmd struct {
	Index DocsIndexCmd `cmd:"" help:"Crawl documentation pages and build the vector store."`
	Query DocsQueryCmd `cmd:"" help:"Query the vector store."`
}

// DocsIndexCmd builds the store.
type DocsIndexCmd struct {
	StoreFlags `embed:""`
	URL      []string `name:"url" help:"Start pages (default: the LangGraph documentation)."`
	MaxDepth int      `help:"Crawl depth; pages at depth below it are loaded." default:"2"`
}

func (c *DocsIndexCmd) Run(ctx context.Context, cli *CLI) error {
	urls := c.URL
	if len(urls) == 0 {
		urls = vectorstore.LangGraphDocsURLs
	}

	f, err := vectorstore.NewFactory(c.WorkDir, vectorstore.FactoryOptions{
		Embed:  c.embedder(),
		Logger: cli.log,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Building the vector store in %s ...\n", f.WorkDir())
	if err := f.Build(ctx, urls, c.MaxDepth); err != nil {
		return err
	}
	fmt.Println("Vector store created successfully.")
	return nil
}

// DocsQueryCmd prints the chunks most similar to a query.
type DocsQueryCmd struct {
	StoreFlags `embed:""`
	Query string `arg:"" help:"Query text."`
	K     int    `short:"k" help:"Number of chunks to return." default:"3"`
}

func (c *DocsQueryCmd) Run(ctx context.Context, cli *CLI) error {
	helper, err := c.open()
	if err != nil {
		return err
	}

	docs, err := helper.Query(ctx, c.Query, c.K)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Println("No documents found.")
		return nil
	}
	fmt.Println(vectorstore.FormatDocuments(docs))
	return nil
}
