package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/philippgille/chromem-go"
)

// DefaultK is the number of documents returned by a query when k <= 0.
const DefaultK = 3

// MissingLLMSFull is returned by LLMSFull when the corpus has not been built.
const MissingLLMSFull = "llms_full.txt not found. Please ensure the vector store has been created."

// QueryHelper answers similarity queries against a built work directory.
type QueryHelper struct {
	workDir string
	col     *chromem.Collection // Nil until the store is built.
}

// OpenQueryHelper opens the collection stored under workDir. It never writes:
// a work directory without a built store yields an empty helper.
func OpenQueryHelper(workDir string, embed chromem.EmbeddingFunc) (*QueryHelper, error) {
	if embed == nil {
		return nil, fmt.Errorf("vectorstore: embedding function is required")
	}

	h := &QueryHelper{workDir: workDir}

	if _, err := os.Stat(filepath.Join(workDir, DBDir)); errors.Is(err, os.ErrNotExist) {
		return h, nil
	} else if err != nil {
		return nil, fmt.Errorf("vectorstore: open db: %w", err)
	}

	db, err := openDB(workDir)
	if err != nil {
		return nil, err
	}
	h.col = db.GetCollection(CollectionName, embed)

	return h, nil
}

// Opener opens the QueryHelper of a work directory on first use. Failed opens
// and stores that are not built yet are retried on the next call. It is safe
// for concurrent use.
type Opener struct {
	WorkDir string
	Embed   chromem.EmbeddingFunc

	mu sync.Mutex
	h  *QueryHelper
}

// Open returns the cached helper, opening it when there is none.
func (o *Opener) Open() (*QueryHelper, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.h != nil {
		return o.h, nil
	}

	h, err := OpenQueryHelper(o.WorkDir, o.Embed)
	if err != nil {
		return nil, err
	}
	if h.Count() > 0 {
		o.h = h
	}
	return h, nil
}

// Count returns the number of indexed chunks.
func (h *QueryHelper) Count() int {
	if h.col == nil {
		return 0
	}
	return h.col.Count()
}

// Query returns up to k chunks most similar to q, best first.
func (h *QueryHelper) Query(ctx context.Context, q string, k int) ([]Document, error) {
	if k <= 0 {
		k = DefaultK
	}
	k = min(k, h.Count())
	if k == 0 {
		return nil, nil
	}

	results, err := h.col.Query(ctx, q, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: query: %w", err)
	}

	docs := make([]Document, len(results))
	for i, r := range results {
		chunk, _ := strconv.Atoi(r.Metadata["chunk"])
		docs[i] = Document{Source: r.Metadata["source"], Content: r.Content, Chunk: chunk}
	}

	return docs, nil
}

// LLMSFull returns the concatenated corpus, or MissingLLMSFull.
func (h *QueryHelper) LLMSFull() (string, error) {
	data, err := os.ReadFile(filepath.Join(h.workDir, LLMSFullFile))
	if errors.Is(err, os.ErrNotExist) {
		return MissingLLMSFull, nil
	}
	if err != nil {
		return "", fmt.Errorf("vectorstore: read %s: %w", LLMSFullFile, err)
	}
	return string(data), nil
}
