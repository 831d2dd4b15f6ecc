// Package embedtest provides a deterministic embedder for tests.
package embedtest

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// WordEmbedder produces deterministic bag-of-words vectors: each distinct
// lowercased word contributes one unit to a hash-derived position, and the
// result is normalized to unit length. Texts sharing words produce nearby
// vectors, so similarity ordering in tests is predictable.
type WordEmbedder struct {
	dims int
}

// New returns a WordEmbedder with the given dimension count.
func New(dims int) *WordEmbedder {
	return &WordEmbedder{dims: dims}
}

func (e *WordEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	for i, text := range texts {
		results[i] = e.vector(text)
	}
	return results, nil
}

func (e *WordEmbedder) Dimensions() int { return e.dims }
func (e *WordEmbedder) Name() string    { return "embedtest" }

func (e *WordEmbedder) vector(text string) []float32 {
	vec := make([]float32, e.dims)

	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	seen := make(map[string]bool, len(words))
	for _, w := range words {
		if seen[w] {
			continue
		}
		seen[w] = true
		h := fnv.New32a()
		h.Write([]byte(w))
		vec[int(h.Sum32())%e.dims]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v * v)
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] = float32(float64(vec[i]) / norm)
		}
	}
	return vec
}
