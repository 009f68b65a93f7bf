package vectorstore

import (
	"fmt"
	"strings"
)

// Default splitting parameters, in tokens.
const (
	DefaultChunkSize    = 8000
	DefaultChunkOverlap = 500
)

// Splitter cuts documents into overlapping token windows.
type Splitter struct {
	ChunkSize    int
	ChunkOverlap int
	Tokenizer    Tokenizer // Defaults to DefaultTokenizer().
}

// Split returns the chunks of every document. Documents that fit in one
// window are returned whole.
func (s Splitter) Split(docs []Document) ([]Document, error) {
	size := s.ChunkSize
	if size <= 0 {
		size = DefaultChunkSize
	}
	overlap := s.ChunkOverlap
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		return nil, fmt.Errorf("vectorstore: chunk overlap %d must be smaller than chunk size %d", overlap, size)
	}

	tok := s.Tokenizer
	if tok == nil {
		var err error
		if tok, err = DefaultTokenizer(); err != nil {
			return nil, err
		}
	}

	var out []Document
	for _, d := range docs {
		tokens := tok.Encode(d.Content)
		if len(tokens) <= size {
			if strings.TrimSpace(d.Content) != "" {
				out = append(out, Document{Source: d.Source, Content: d.Content})
			}
			continue
		}

		chunk := 0
		for start := 0; start < len(tokens); start += size - overlap {
			end := min(start+size, len(tokens))
			text := strings.ToValidUTF8(tok.Decode(tokens[start:end]), "")
			out = append(out, Document{Source: d.Source, Content: text, Chunk: chunk})
			chunk++
			if end == len(tokens) {
				break
			}
		}
	}

	return out, nil
}
