package pipeline

import (
	"context"
	"log"
	"strings"

	"github.com/passagedb/passage/internal/embeddings"
	"github.com/passagedb/passage/internal/errdefs"
	"github.com/passagedb/passage/internal/llm"
	"github.com/passagedb/passage/internal/registry"
)

const (
	// DefaultK is the number of passages retrieved when the caller does
	// not specify one.
	DefaultK = 5
	// MaxK bounds the number of passages a single query may retrieve.
	MaxK = 10
)

// NoContextAnswer is returned when the collection holds no chunks, or
// retrieval produces none. The generation gateway is not called in that
// case.
const NoContextAnswer = "I couldn't find any relevant information in the uploaded documents to answer your question."

// Querier turns a question into a ranked context set and a generated
// answer with provenance.
type Querier struct {
	registry  *registry.Registry
	embedder  embeddings.Embedder
	generator llm.Provider
	model     string
	defaultCo string
}

// NewQuerier creates a query pipeline.
func NewQuerier(reg *registry.Registry, embedder embeddings.Embedder, generator llm.Provider, model, defaultCollection string) *Querier {
	return &Querier{
		registry:  reg,
		embedder:  embedder,
		generator: generator,
		model:     model,
		defaultCo: defaultCollection,
	}
}

// Query retrieves the k most similar chunks from the collection and asks
// the generation gateway to answer the question from them. k defaults to
// DefaultK when zero; values outside [1, MaxK] are rejected. Querying an
// empty collection is not an error: it short-circuits with NoContextAnswer
// and zero sources.
func (q *Querier) Query(ctx context.Context, collection, question string, k int) (*QueryResult, error) {
	if strings.TrimSpace(question) == "" {
		return nil, errdefs.Newf(errdefs.ErrInvalidArgument, "question must not be empty")
	}
	if k == 0 {
		k = DefaultK
	}
	if k < 1 || k > MaxK {
		return nil, errdefs.Newf(errdefs.ErrInvalidArgument, "k must be between 1 and %d, got %d", MaxK, k)
	}
	if collection == "" {
		collection = q.defaultCo
	}

	s, err := q.registry.GetOrCreate(collection)
	if err != nil {
		return nil, err
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		return nil, err
	}

	result := &QueryResult{
		Query:       question,
		TotalChunks: stats.TotalChunks,
		Collection:  collection,
	}

	if stats.TotalChunks == 0 {
		result.Answer = NoContextAnswer
		return result, nil
	}

	// Neither the embedding nor the generation round-trip holds the
	// collection's lock; only Search below briefly takes the read lock.
	vectors, err := q.embedder.Embed(ctx, []string{question})
	if err != nil {
		return nil, errdefs.Wrap(errdefs.ErrServiceUnavailable, err, "embedding gateway")
	}
	if len(vectors) != 1 {
		return nil, errdefs.Newf(errdefs.ErrServiceUnavailable,
			"embedding gateway returned %d vectors for one question", len(vectors))
	}

	hits, err := s.Search(ctx, vectors[0], k)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		result.Answer = NoContextAnswer
		return result, nil
	}

	passages := make([]string, len(hits))
	sources := make([]Source, len(hits))
	for i, h := range hits {
		passages[i] = h.Text
		sources[i] = Source{
			ChunkNumber: i + 1,
			Text:        h.Text,
			Filename:    h.Filename,
			DocumentID:  h.DocumentID,
			ChunkIndex:  h.ChunkIndex,
			Similarity:  h.Distance,
			Collection:  collection,
		}
	}

	resp, err := q.generator.Complete(ctx, llm.CompletionRequest{
		Model: q.model,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: BuildPrompt(question, passages)},
		},
	})
	if err != nil {
		return nil, errdefs.Wrap(errdefs.ErrServiceUnavailable, err, "generation gateway")
	}

	log.Printf("pipeline: answered query in collection %q using %d/%d chunks",
		collection, len(hits), stats.TotalChunks)

	result.Answer = resp.Content
	result.Sources = sources
	result.ChunksUsed = len(hits)
	return result, nil
}
