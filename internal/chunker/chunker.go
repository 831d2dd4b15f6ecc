// Package chunker splits document text into fixed-size overlapping passages.
package chunker

import (
	"iter"

	"github.com/passagedb/passage/internal/errdefs"
)

const (
	// DefaultSize is the default maximum chunk length in characters.
	DefaultSize = 1000
	// DefaultOverlap is the default overlap between consecutive chunks.
	DefaultOverlap = 200
)

// Chunk is one contiguous passage of a document's text.
type Chunk struct {
	Index int
	Text  string
}

// Chunker produces overlapping chunks of at most Size characters, where
// consecutive chunks of the same document share Overlap characters.
// Chunking operates on Unicode code points, not bytes.
type Chunker struct {
	size    int
	overlap int
}

// New validates the chunking parameters. Overlap must satisfy
// 0 <= overlap < size.
func New(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, errdefs.Newf(errdefs.ErrInvalidConfiguration, "chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, errdefs.Newf(errdefs.ErrInvalidConfiguration, "chunk overlap must be in [0, %d), got %d", size, overlap)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Size returns the maximum chunk length in characters.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the configured overlap length.
func (c *Chunker) Overlap() int { return c.overlap }

// All returns a lazy, restartable sequence of chunks. Chunk i starts at
// character offset i*(size-overlap) and spans at most size characters.
// Empty input yields no chunks. The sequence is deterministic for a given
// input and configuration.
func (c *Chunker) All(text string) iter.Seq[Chunk] {
	runes := []rune(text)
	stride := c.size - c.overlap

	return func(yield func(Chunk) bool) {
		for i, start := 0, 0; start < len(runes); i, start = i+1, start+stride {
			end := start + c.size
			if end > len(runes) {
				end = len(runes)
			}
			if !yield(Chunk{Index: i, Text: string(runes[start:end])}) {
				return
			}
		}
	}
}

// Split materializes the full chunk sequence for text.
func (c *Chunker) Split(text string) []Chunk {
	var chunks []Chunk
	for ch := range c.All(text) {
		chunks = append(chunks, ch)
	}
	return chunks
}

// Count returns the number of chunks Split would produce without
// materializing them: ceil(len(text) / (size - overlap)).
func (c *Chunker) Count(text string) int {
	n := len([]rune(text))
	if n == 0 {
		return 0
	}
	stride := c.size - c.overlap
	return (n + stride - 1) / stride
}
