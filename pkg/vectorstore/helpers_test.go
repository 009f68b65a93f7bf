package vectorstore

import (
	"context"
	"math"
	"strings"
)

// runeTokenizer treats every rune as one token.
type runeTokenizer struct{}

func (runeTokenizer) Encode(text string) []int {
	runes := []rune(text)
	out := make([]int, len(runes))
	for i, r := range runes {
		out[i] = int(r)
	}
	return out
}

func (runeTokenizer) Decode(tokens []int) string {
	runes := make([]rune, len(tokens))
	for i, t := range tokens {
		runes[i] = rune(t)
	}
	return string(runes)
}

var vocabulary = map[string]int{
	"apples":    1,
	"bananas":   2,
	"rockets":   3,
	"engines":   4,
	"langgraph": 5,
	"agents":    6,
}

// keywordEmbed embeds text as a normalized keyword histogram.
func keywordEmbed(_ context.Context, text string) ([]float32, error) {
	v := make([]float32, len(vocabulary)+1)
	v[0] = 0.1
	for _, w := range strings.Fields(strings.ToLower(text)) {
		if i, ok := vocabulary[strings.Trim(w, ".,!?")]; ok {
			v[i]++
		}
	}

	var norm float64
	for _, x := range v {
		norm += float64(x * x)
	}
	norm = math.Sqrt(norm)
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v, nil
}
