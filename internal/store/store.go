// Package store owns a single collection: one flat similarity index plus
// one metadata table, kept row-for-row consistent.
//
// Durability model: appends stage the index file first and commit by
// writing metadata. Both sides carry a row-numbering generation that only
// a rebuild (document deletion) bumps. On reload, index rows beyond the
// metadata count are an uncommitted staged tail and are truncated, but
// only when the generations match; a generation mismatch means the index
// on disk predates a committed rebuild and the collection is reported
// corrupt rather than silently truncated. Metadata rows without index
// vectors can never result from a crashed append, so that mismatch is
// also a corrupt collection.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/passagedb/passage/internal/errdefs"
	"github.com/passagedb/passage/internal/index"
)

const (
	indexFileName = "index.psgx"
	metaFileName  = "metadata.db"
)

// Store is a single collection's vector index and metadata table.
// Structural mutation is serialized by a per-collection RW lock; reads
// proceed concurrently.
type Store struct {
	name string
	dir  string

	mu  sync.RWMutex
	db  *sql.DB
	idx *index.Flat
	gen uint64
}

// Open creates or reopens the collection stored under baseDir/name.
// dim fixes the embedding dimension for a fresh collection; a persisted
// collection keeps the dimension it was created with.
func Open(baseDir, name string, dim int) (*Store, error) {
	dir := filepath.Join(baseDir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating collection directory: %w", err)
	}

	db, err := openMetaDB(filepath.Join(dir, metaFileName))
	if err != nil {
		return nil, err
	}

	gen, err := readGeneration(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{name: name, dir: dir, db: db, gen: gen}

	idx, err := index.ReadFile(s.indexPath())
	switch {
	case err == nil:
		s.idx = idx
	case os.IsNotExist(err):
		s.idx = index.NewFlat(dim)
		s.idx.SetGeneration(gen)
	default:
		db.Close()
		return nil, fmt.Errorf("loading index for collection %q: %w", name, err)
	}

	if err := s.reconcile(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// reconcile validates the index/metadata row pairing after a reload.
func (s *Store) reconcile() error {
	var metaRows int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM chunks`).Scan(&metaRows); err != nil {
		return fmt.Errorf("counting metadata rows: %w", err)
	}

	if s.idx.Generation() != s.gen {
		// The index on disk uses a row numbering an already-committed rebuild
		// replaced. Its rows cannot be paired with the metadata at all, so
		// truncation would attach deleted vectors to surviving rows.
		return errdefs.Newf(errdefs.ErrCorruptCollection,
			"collection %q index generation %d does not match metadata generation %d",
			s.name, s.idx.Generation(), s.gen)
	}

	switch {
	case s.idx.Rows() > metaRows:
		// Staged append that never committed; drop the tail.
		log.Printf("store: collection %q: truncating %d uncommitted index rows", s.name, s.idx.Rows()-metaRows)
		s.idx.Truncate(metaRows)
		if err := s.idx.WriteFile(s.indexPath()); err != nil {
			return fmt.Errorf("rewriting reconciled index: %w", err)
		}
	case s.idx.Rows() < metaRows:
		return errdefs.Newf(errdefs.ErrCorruptCollection,
			"collection %q has %d metadata rows but %d index rows", s.name, metaRows, s.idx.Rows())
	}
	return nil
}

// Name returns the collection name.
func (s *Store) Name() string { return s.name }

// Dir returns the collection's storage directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) indexPath() string { return filepath.Join(s.dir, indexFileName) }

// Close releases the metadata database handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Insert appends the document's chunks: vectors to the index in order,
// matching metadata rows keyed by the assigned row ids. The chunks of one
// insert receive contiguous row ids. Returns the number of chunks inserted.
func (s *Store) Insert(ctx context.Context, documentID, filename string, chunks []ChunkInput) (int, error) {
	if len(chunks) == 0 {
		return 0, errdefs.Newf(errdefs.ErrInvalidArgument, "insert requires at least one chunk")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	base := s.idx.Rows()

	vectors := make([][]float32, len(chunks))
	for i, c := range chunks {
		vectors[i] = c.Vector
	}
	if err := s.idx.Add(vectors); err != nil {
		return 0, err
	}

	// Stage the index on disk first; the metadata commit below is the
	// commit point. See the package comment for the reload reconcile.
	if err := s.idx.WriteFile(s.indexPath()); err != nil {
		s.idx.Truncate(base)
		return 0, fmt.Errorf("persisting index: %w", err)
	}

	if err := s.insertMeta(ctx, base, documentID, filename, chunks); err != nil {
		s.idx.Truncate(base)
		if werr := s.idx.WriteFile(s.indexPath()); werr != nil {
			log.Printf("store: collection %q: restoring index after failed insert: %v", s.name, werr)
		}
		return 0, err
	}

	log.Printf("store: collection %q: inserted %d chunks for document %s", s.name, len(chunks), documentID)
	return len(chunks), nil
}

func (s *Store) insertMeta(ctx context.Context, base int, documentID, filename string, chunks []ChunkInput) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning metadata transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (row_id, document_id, filename, chunk_index, text) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing chunk insert: %w", err)
	}
	defer stmt.Close()

	for i, c := range chunks {
		if _, err := stmt.ExecContext(ctx, base+i, documentID, filename, c.Index, c.Text); err != nil {
			return fmt.Errorf("inserting chunk %d: %w", c.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing metadata: %w", err)
	}
	return nil
}

// Search returns up to k nearest chunks by squared-Euclidean distance,
// ascending, ties broken by lower row id. k is clamped to the number of
// rows present; k <= 0 is an InvalidArgument error.
func (s *Store) Search(ctx context.Context, query []float32, k int) ([]SearchHit, error) {
	if k <= 0 {
		return nil, errdefs.Newf(errdefs.ErrInvalidArgument, "k must be positive, got %d", k)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	matches, err := s.idx.Search(query, k)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}

	records, err := s.chunksByRowID(ctx, matches)
	if err != nil {
		return nil, err
	}

	hits := make([]SearchHit, len(matches))
	for i, m := range matches {
		rec, ok := records[m.Row]
		if !ok {
			return nil, errdefs.Newf(errdefs.ErrCorruptCollection, "no metadata for index row %d", m.Row)
		}
		hits[i] = SearchHit{ChunkRecord: rec, Distance: m.Distance}
	}
	return hits, nil
}

func (s *Store) chunksByRowID(ctx context.Context, matches []index.Match) (map[int]ChunkRecord, error) {
	placeholders := make([]string, len(matches))
	args := make([]any, len(matches))
	for i, m := range matches {
		placeholders[i] = "?"
		args[i] = m.Row
	}

	query := fmt.Sprintf(
		`SELECT row_id, document_id, filename, chunk_index, text FROM chunks WHERE row_id IN (%s)`,
		strings.Join(placeholders, ","))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetching chunk metadata: %w", err)
	}
	defer rows.Close()

	records := make(map[int]ChunkRecord, len(matches))
	for rows.Next() {
		rec, err := scanChunk(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning chunk metadata: %w", err)
		}
		records[rec.RowID] = rec
	}
	return records, rows.Err()
}

// DeleteDocument removes all chunks of the document and rebuilds the index
// from the retained vectors. Row ids are renumbered to stay dense and
// contiguous from zero. Returns the number of chunks removed.
func (s *Store) DeleteDocument(ctx context.Context, documentID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT row_id, document_id, filename, chunk_index, text FROM chunks ORDER BY row_id`)
	if err != nil {
		return 0, fmt.Errorf("reading chunk metadata: %w", err)
	}

	var retained []ChunkRecord
	removed := 0
	for rows.Next() {
		rec, err := scanChunk(rows)
		if err != nil {
			rows.Close()
			return 0, fmt.Errorf("scanning chunk metadata: %w", err)
		}
		if rec.DocumentID == documentID {
			removed++
		} else {
			retained = append(retained, rec)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, err
	}
	rows.Close()

	if removed == 0 {
		return 0, errdefs.Newf(errdefs.ErrNotFound, "document %s in collection %q", documentID, s.name)
	}

	rebuilt := index.NewFlat(s.idx.Dim())
	rebuilt.SetGeneration(s.gen + 1)
	for _, rec := range retained {
		vec, err := s.idx.Reconstruct(rec.RowID)
		if err != nil {
			return 0, err
		}
		if err := rebuilt.Add([][]float32{vec}); err != nil {
			return 0, err
		}
	}

	// Commit the metadata first, bumping the generation in the same
	// transaction. A crash before the rebuilt index is written leaves the
	// stale pre-rebuild file at the old generation, which the reload
	// reconcile rejects as CorruptCollection instead of truncating it onto
	// the renumbered metadata.
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning metadata transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks`); err != nil {
		return 0, fmt.Errorf("clearing chunk metadata: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (row_id, document_id, filename, chunk_index, text) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing chunk insert: %w", err)
	}
	defer stmt.Close()
	for newRow, rec := range retained {
		if _, err := stmt.ExecContext(ctx, newRow, rec.DocumentID, rec.Filename, rec.ChunkIndex, rec.Text); err != nil {
			return 0, fmt.Errorf("renumbering chunk row %d: %w", newRow, err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE collection_meta SET value = ? WHERE key = 'generation'`, s.gen+1); err != nil {
		return 0, fmt.Errorf("bumping collection generation: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing metadata: %w", err)
	}

	s.gen++
	s.idx = rebuilt
	if err := s.idx.WriteFile(s.indexPath()); err != nil {
		return 0, fmt.Errorf("persisting rebuilt index: %w", err)
	}

	log.Printf("store: collection %q: deleted document %s (%d chunks, %d retained)", s.name, documentID, removed, len(retained))
	return removed, nil
}

// DeleteAll clears the index and metadata, leaving an empty, still-valid
// collection with the same dimension.
func (s *Store) DeleteAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM chunks`); err != nil {
		return fmt.Errorf("clearing chunk metadata: %w", err)
	}

	// The generation stays: a stale nonempty index at the same generation
	// truncates to zero rows on reload, which is the cleared state anyway.
	s.idx = index.NewFlat(s.idx.Dim())
	s.idx.SetGeneration(s.gen)
	if err := s.idx.WriteFile(s.indexPath()); err != nil {
		return fmt.Errorf("persisting cleared index: %w", err)
	}

	log.Printf("store: collection %q: cleared", s.name)
	return nil
}

// ListDocuments returns every document in the collection in first-insertion
// order.
func (s *Store) ListDocuments(ctx context.Context) ([]DocumentInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT document_id, filename, COUNT(*) FROM chunks GROUP BY document_id, filename ORDER BY MIN(row_id)`)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var docs []DocumentInfo
	for rows.Next() {
		var d DocumentInfo
		if err := rows.Scan(&d.DocumentID, &d.Filename, &d.ChunkCount); err != nil {
			return nil, fmt.Errorf("scanning document row: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// GetDocument returns the document's summary and its chunks ordered by
// chunk index.
func (s *Store) GetDocument(ctx context.Context, documentID string) (DocumentInfo, []ChunkRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT row_id, document_id, filename, chunk_index, text FROM chunks WHERE document_id = ? ORDER BY chunk_index`,
		documentID)
	if err != nil {
		return DocumentInfo{}, nil, fmt.Errorf("reading document chunks: %w", err)
	}
	defer rows.Close()

	var chunks []ChunkRecord
	for rows.Next() {
		rec, err := scanChunk(rows)
		if err != nil {
			return DocumentInfo{}, nil, fmt.Errorf("scanning chunk row: %w", err)
		}
		chunks = append(chunks, rec)
	}
	if err := rows.Err(); err != nil {
		return DocumentInfo{}, nil, err
	}

	if len(chunks) == 0 {
		return DocumentInfo{}, nil, errdefs.Newf(errdefs.ErrNotFound, "document %s in collection %q", documentID, s.name)
	}

	info := DocumentInfo{
		DocumentID: documentID,
		Filename:   chunks[0].Filename,
		ChunkCount: len(chunks),
	}
	return info, chunks, nil
}

// ListChunks pages through the collection's chunks ordered by ascending
// row id. The ordering is stable across calls when no mutation occurs
// between them.
func (s *Store) ListChunks(ctx context.Context, limit, offset int) ([]ChunkRecord, error) {
	if limit <= 0 {
		return nil, errdefs.Newf(errdefs.ErrInvalidArgument, "limit must be positive, got %d", limit)
	}
	if offset < 0 {
		return nil, errdefs.Newf(errdefs.ErrInvalidArgument, "offset must be non-negative, got %d", offset)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT row_id, document_id, filename, chunk_index, text FROM chunks ORDER BY row_id LIMIT ? OFFSET ?`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing chunks: %w", err)
	}
	defer rows.Close()

	var chunks []ChunkRecord
	for rows.Next() {
		rec, err := scanChunk(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning chunk row: %w", err)
		}
		chunks = append(chunks, rec)
	}
	return chunks, rows.Err()
}

// Stats returns the collection's chunk and document counts.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var st Stats
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(DISTINCT document_id) FROM chunks`).Scan(&st.TotalChunks, &st.TotalDocuments)
	if err != nil {
		return Stats{}, fmt.Errorf("reading collection stats: %w", err)
	}
	return st, nil
}
