package vectorstore

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is the tiktoken encoding used for counting and splitting.
const DefaultEncoding = "cl100k_base"

// Tokenizer converts between text and token ids.
type Tokenizer interface {
	Encode(text string) []int
	Decode(tokens []int) string
}

type tiktokenizer struct {
	enc *tiktoken.Tiktoken
}

func (t tiktokenizer) Encode(text string) []int  { return t.enc.Encode(text, nil, nil) }
func (t tiktokenizer) Decode(tokens []int) string { return t.enc.Decode(tokens) }

var defaultTokenizer = sync.OnceValues(func() (Tokenizer, error) {
	enc, err := tiktoken.GetEncoding(DefaultEncoding)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: load %s encoding: %w", DefaultEncoding, err)
	}
	return tiktokenizer{enc: enc}, nil
})

// DefaultTokenizer returns the shared cl100k_base tokenizer.
func DefaultTokenizer() (Tokenizer, error) {
	return defaultTokenizer()
}

// CountTokens counts the cl100k_base tokens in text.
func CountTokens(text string) (int, error) {
	tok, err := DefaultTokenizer()
	if err != nil {
		return 0, err
	}
	return len(tok.Encode(text)), nil
}
