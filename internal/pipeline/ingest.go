// Package pipeline wires the chunker, embedding gateway, collection
// registry, and generation gateway into the ingestion and query flows.
package pipeline

import (
	"context"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/passagedb/passage/internal/chunker"
	"github.com/passagedb/passage/internal/embeddings"
	"github.com/passagedb/passage/internal/errdefs"
	"github.com/passagedb/passage/internal/registry"
	"github.com/passagedb/passage/internal/store"
)

// Ingestor turns an uploaded document into persisted, searchable chunks.
type Ingestor struct {
	registry  *registry.Registry
	embedder  embeddings.Embedder
	chunker   *chunker.Chunker
	defaultCo string
}

// NewIngestor creates an ingestion pipeline. defaultCollection is used when
// a request does not name a collection.
func NewIngestor(reg *registry.Registry, embedder embeddings.Embedder, ch *chunker.Chunker, defaultCollection string) *Ingestor {
	return &Ingestor{
		registry:  reg,
		embedder:  embedder,
		chunker:   ch,
		defaultCo: defaultCollection,
	}
}

// Ingest chunks text, embeds the chunks, and inserts them into the named
// collection under a freshly generated document id. A failure in the
// embedding gateway or the store leaves the collection unchanged. Every
// ingestion creates a new independent document, even for a filename seen
// before.
func (in *Ingestor) Ingest(ctx context.Context, collection, filename, text string) (*IngestResult, error) {
	if collection == "" {
		collection = in.defaultCo
	}

	s, err := in.registry.GetOrCreate(collection)
	if err != nil {
		return nil, err
	}

	chunks := in.chunker.Split(text)
	if len(chunks) == 0 {
		return nil, errdefs.Newf(errdefs.ErrEmptyDocument, "no text to ingest from %q", filename)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	// The embedding round-trip happens before any store mutation and
	// outside the collection's write lock.
	vectors, err := in.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, errdefs.Wrap(errdefs.ErrServiceUnavailable, err, "embedding gateway")
	}
	if len(vectors) != len(texts) {
		return nil, errdefs.Newf(errdefs.ErrServiceUnavailable,
			"embedding gateway returned %d vectors for %d texts", len(vectors), len(texts))
	}

	inputs := make([]store.ChunkInput, len(chunks))
	for i, c := range chunks {
		inputs[i] = store.ChunkInput{Index: c.Index, Text: c.Text, Vector: vectors[i]}
	}

	documentID := uuid.NewString()
	count, err := s.Insert(ctx, documentID, filename, inputs)
	if err != nil {
		return nil, err
	}

	log.Printf("pipeline: ingested %q into collection %q as document %s (%d chunks)",
		filename, collection, documentID, count)

	return &IngestResult{
		DocumentID: documentID,
		ChunkCount: count,
		Collection: collection,
	}, nil
}

// ValidateFilename rejects blank filenames before ingestion.
func ValidateFilename(filename string) error {
	if strings.TrimSpace(filename) == "" {
		return errdefs.Newf(errdefs.ErrInvalidArgument, "filename must not be empty")
	}
	return nil
}
