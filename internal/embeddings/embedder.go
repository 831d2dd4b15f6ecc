package embeddings

import (
	"context"

	"github.com/passagedb/passage/internal/errdefs"
)

// Embedder defines the interface for generating text embeddings.
type Embedder interface {
	// Embed generates embeddings for one or more texts. The result has the
	// same length and order as the input.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the number of dimensions in the embedding vectors.
	Dimensions() int

	// Name returns the name/identifier of the embedding model.
	Name() string
}

// checkDimensions verifies an embedding returned by a provider against the
// embedder's configured dimension. Everything downstream sizes itself from
// Dimensions(), so a provider response that disagrees is rejected here
// instead of failing later inside a collection's index.
func checkDimensions(vec []float32, want int) error {
	if len(vec) != want {
		return errdefs.Newf(errdefs.ErrDimensionMismatch,
			"provider returned a %d-dimension embedding, model is configured for %d", len(vec), want)
	}
	return nil
}
