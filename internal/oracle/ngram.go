// Package oracle provides the embedding and strength models consumed by the
// breach engine, plus caching and circuit-breaking wrappers around them.
package oracle

import (
	"context"
	"errors"
	"hash/fnv"
)

// NGram defaults, matching the character n-gram range of fastText.
const (
	DefaultMinN       = 3
	DefaultMaxN       = 6
	DefaultDimensions = 100
)

// NGramEmbedder embeds text locally by hashing its character n-grams into a
// fixed number of buckets and averaging them. The word is wrapped in '<' and
// '>' so prefixes and suffixes hash differently from inner n-grams, and the
// whole wrapped word is included as one extra feature.
type NGramEmbedder struct {
	dim  int
	minN int
	maxN int
}

// NewNGramEmbedder returns an embedder producing vectors of dim components.
func NewNGramEmbedder(dim, minN, maxN int) (*NGramEmbedder, error) {
	if dim <= 0 {
		dim = DefaultDimensions
	}
	if minN <= 0 {
		minN = DefaultMinN
	}
	if maxN <= 0 {
		maxN = DefaultMaxN
	}
	if minN > maxN {
		return nil, errors.New("ngram: minN must not exceed maxN")
	}
	return &NGramEmbedder{dim: dim, minN: minN, maxN: maxN}, nil
}

// Dimensions returns the vector size.
func (e *NGramEmbedder) Dimensions() int { return e.dim }

// Embed returns the averaged n-gram vector for text.
func (e *NGramEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.vector(text), nil
}

// EmbedBatch embeds each text in order.
func (e *NGramEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = e.vector(t)
	}
	return out, nil
}

func (e *NGramEmbedder) vector(text string) []float32 {
	word := "<" + text + ">"
	runes := []rune(word)

	acc := make([]float64, e.dim)
	var count int
	add := func(s string) {
		h := fnv.New32a()
		h.Write([]byte(s))
		sum := h.Sum32()
		// The top bit picks the sign so colliding features partly cancel.
		sign := 1.0
		if sum&(1<<31) != 0 {
			sign = -1
		}
		acc[int(sum%uint32(e.dim))] += sign
		count++
	}

	add(word)
	for n := e.minN; n <= e.maxN; n++ {
		for i := 0; i+n <= len(runes); i++ {
			// Skip the n-gram that equals the whole word; it is already counted.
			if i == 0 && n == len(runes) {
				continue
			}
			add(string(runes[i : i+n]))
		}
	}

	out := make([]float32, e.dim)
	for i, v := range acc {
		out[i] = float32(v / float64(count))
	}
	return out
}

