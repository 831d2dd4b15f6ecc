package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/passagedb/passage/internal/errdefs"
)

const testDim = 4

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	baseDir := t.TempDir()
	s, err := Open(baseDir, "test", testDim)
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, baseDir
}

func vec(vals ...float32) []float32 {
	v := make([]float32, testDim)
	copy(v, vals)
	return v
}

func insertDoc(t *testing.T, s *Store, docID, filename string, vectors ...[]float32) {
	t.Helper()
	chunks := make([]ChunkInput, len(vectors))
	for i, v := range vectors {
		chunks[i] = ChunkInput{
			Index:  i,
			Text:   fmt.Sprintf("%s chunk %d", filename, i),
			Vector: v,
		}
	}
	if _, err := s.Insert(context.Background(), docID, filename, chunks); err != nil {
		t.Fatalf("inserting %s: %v", docID, err)
	}
}

func TestInsertAndSearch(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	insertDoc(t, s, "doc-a", "a.txt", vec(1, 0), vec(0, 1))
	insertDoc(t, s, "doc-b", "b.txt", vec(0, 0, 1))

	hits, err := s.Search(ctx, vec(1, 0), 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}

	if hits[0].DocumentID != "doc-a" || hits[0].ChunkIndex != 0 {
		t.Errorf("top hit = %s chunk %d, want doc-a chunk 0", hits[0].DocumentID, hits[0].ChunkIndex)
	}
	if hits[0].Distance != 0 {
		t.Errorf("exact match distance = %v, want 0", hits[0].Distance)
	}
	if hits[1].Distance < hits[0].Distance {
		t.Error("hits not in ascending distance order")
	}
	if hits[0].Text != "a.txt chunk 0" {
		t.Errorf("hit text = %q", hits[0].Text)
	}
}

func TestSearchClampsToRowCount(t *testing.T) {
	s, _ := newTestStore(t)

	insertDoc(t, s, "doc-a", "a.txt", vec(1, 0))

	hits, err := s.Search(context.Background(), vec(1, 0), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 {
		t.Errorf("expected 1 hit, got %d", len(hits))
	}
}

func TestSearchEmptyCollection(t *testing.T) {
	s, _ := newTestStore(t)

	hits, err := s.Search(context.Background(), vec(1, 0), 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 0 {
		t.Errorf("expected no hits, got %d", len(hits))
	}
}

func TestSearchIsIdempotent(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	insertDoc(t, s, "doc-a", "a.txt", vec(1, 0), vec(0, 1), vec(1, 1))

	first, err := s.Search(ctx, vec(0.5, 0.5), 3)
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.Search(ctx, vec(0.5, 0.5), 3)
	if err != nil {
		t.Fatal(err)
	}

	if len(first) != len(second) {
		t.Fatalf("result lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].RowID != second[i].RowID || first[i].Distance != second[i].Distance {
			t.Errorf("result %d differs between identical searches", i)
		}
	}
}

func TestInsertRowIDsAreContiguous(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	insertDoc(t, s, "doc-a", "a.txt", vec(1), vec(2))
	insertDoc(t, s, "doc-b", "b.txt", vec(3))

	chunks, err := s.ListChunks(ctx, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if c.RowID != i {
			t.Errorf("chunk %d has row id %d", i, c.RowID)
		}
	}
}

func TestDeleteDocumentRenumbersRows(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	insertDoc(t, s, "doc-a", "a.txt", vec(1, 0), vec(0, 1))
	insertDoc(t, s, "doc-b", "b.txt", vec(0, 0, 1))
	insertDoc(t, s, "doc-c", "c.txt", vec(0, 0, 0, 1))

	removed, err := s.DeleteDocument(ctx, "doc-a")
	if err != nil {
		t.Fatal(err)
	}
	if removed != 2 {
		t.Fatalf("removed %d chunks, want 2", removed)
	}

	// Surviving rows are renumbered densely from zero in retained order.
	chunks, err := s.ListChunks(ctx, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 surviving chunks, got %d", len(chunks))
	}
	if chunks[0].RowID != 0 || chunks[0].DocumentID != "doc-b" {
		t.Errorf("row 0 = %s/%d, want doc-b/0", chunks[0].DocumentID, chunks[0].RowID)
	}
	if chunks[1].RowID != 1 || chunks[1].DocumentID != "doc-c" {
		t.Errorf("row 1 = %s/%d, want doc-c/1", chunks[1].DocumentID, chunks[1].RowID)
	}

	// The rebuilt index must still pair vectors with the right metadata.
	hits, err := s.Search(ctx, vec(0, 0, 0, 1), 1)
	if err != nil {
		t.Fatal(err)
	}
	if hits[0].DocumentID != "doc-c" || hits[0].Distance != 0 {
		t.Errorf("top hit after delete = %s dist %v, want doc-c dist 0", hits[0].DocumentID, hits[0].Distance)
	}
}

func TestDeleteDocumentNotFound(t *testing.T) {
	s, _ := newTestStore(t)

	insertDoc(t, s, "doc-a", "a.txt", vec(1))

	_, err := s.DeleteDocument(context.Background(), "missing")
	if !errors.Is(err, errdefs.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}

	// The collection is untouched.
	st, err := s.Stats(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if st.TotalChunks != 1 {
		t.Errorf("chunks after failed delete = %d, want 1", st.TotalChunks)
	}
}

func TestDeleteAll(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	insertDoc(t, s, "doc-a", "a.txt", vec(1), vec(2))
	if err := s.DeleteAll(ctx); err != nil {
		t.Fatal(err)
	}

	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.TotalChunks != 0 || st.TotalDocuments != 0 {
		t.Errorf("stats after clear = %+v, want zeros", st)
	}

	// Still usable with the same dimension.
	insertDoc(t, s, "doc-b", "b.txt", vec(3))
	hits, err := s.Search(ctx, vec(3), 1)
	if err != nil {
		t.Fatal(err)
	}
	if hits[0].DocumentID != "doc-b" {
		t.Errorf("hit after reuse = %s", hits[0].DocumentID)
	}
}

func TestListDocuments(t *testing.T) {
	s, _ := newTestStore(t)

	insertDoc(t, s, "doc-a", "a.txt", vec(1), vec(2))
	insertDoc(t, s, "doc-b", "b.txt", vec(3))

	docs, err := s.ListDocuments(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0].DocumentID != "doc-a" || docs[0].ChunkCount != 2 {
		t.Errorf("first doc = %+v", docs[0])
	}
	if docs[1].DocumentID != "doc-b" || docs[1].ChunkCount != 1 {
		t.Errorf("second doc = %+v", docs[1])
	}
}

func TestGetDocument(t *testing.T) {
	s, _ := newTestStore(t)

	insertDoc(t, s, "doc-a", "a.txt", vec(1), vec(2), vec(3))

	info, chunks, err := s.GetDocument(context.Background(), "doc-a")
	if err != nil {
		t.Fatal(err)
	}
	if info.Filename != "a.txt" || info.ChunkCount != 3 {
		t.Errorf("info = %+v", info)
	}
	for i, c := range chunks {
		if c.ChunkIndex != i {
			t.Errorf("chunk %d has index %d", i, c.ChunkIndex)
		}
	}

	if _, _, err := s.GetDocument(context.Background(), "missing"); !errors.Is(err, errdefs.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestListChunksPagination(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	insertDoc(t, s, "doc-a", "a.txt", vec(1), vec(2), vec(3), vec(4), vec(5))

	page1, err := s.ListChunks(ctx, 2, 0)
	if err != nil {
		t.Fatal(err)
	}
	page2, err := s.ListChunks(ctx, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	page3, err := s.ListChunks(ctx, 2, 4)
	if err != nil {
		t.Fatal(err)
	}

	if len(page1) != 2 || len(page2) != 2 || len(page3) != 1 {
		t.Fatalf("page sizes = %d/%d/%d, want 2/2/1", len(page1), len(page2), len(page3))
	}

	var rowIDs []int
	for _, page := range [][]ChunkRecord{page1, page2, page3} {
		for _, c := range page {
			rowIDs = append(rowIDs, c.RowID)
		}
	}
	for i, id := range rowIDs {
		if id != i {
			t.Errorf("paged row ids = %v, want 0..4 in order", rowIDs)
			break
		}
	}

	if _, err := s.ListChunks(ctx, 0, 0); !errors.Is(err, errdefs.ErrInvalidArgument) {
		t.Errorf("limit 0 should be invalid, got %v", err)
	}
	if _, err := s.ListChunks(ctx, 5, -1); !errors.Is(err, errdefs.ErrInvalidArgument) {
		t.Errorf("negative offset should be invalid, got %v", err)
	}
}

func TestReopenPreservesData(t *testing.T) {
	baseDir := t.TempDir()
	ctx := context.Background()

	s, err := Open(baseDir, "persist", testDim)
	if err != nil {
		t.Fatal(err)
	}
	insertDoc(t, s, "doc-a", "a.txt", vec(1, 0), vec(0, 1))
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(baseDir, "persist", testDim)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	hits, err := reopened.Search(ctx, vec(1, 0), 1)
	if err != nil {
		t.Fatal(err)
	}
	if hits[0].DocumentID != "doc-a" || hits[0].Distance != 0 {
		t.Errorf("hit after reopen = %+v", hits[0])
	}
}

func TestReopenTruncatesUncommittedIndexTail(t *testing.T) {
	baseDir := t.TempDir()
	ctx := context.Background()

	s, err := Open(baseDir, "crash", testDim)
	if err != nil {
		t.Fatal(err)
	}
	insertDoc(t, s, "doc-a", "a.txt", vec(1, 0))

	// Simulate a crash between index staging and metadata commit by
	// growing the index file without touching metadata.
	s.mu.Lock()
	if err := s.idx.Add([][]float32{vec(9, 9)}); err != nil {
		t.Fatal(err)
	}
	if err := s.idx.WriteFile(s.indexPath()); err != nil {
		t.Fatal(err)
	}
	s.mu.Unlock()
	s.Close()

	reopened, err := Open(baseDir, "crash", testDim)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	st, err := reopened.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.TotalChunks != 1 {
		t.Errorf("chunks after reconcile = %d, want 1", st.TotalChunks)
	}

	hits, err := reopened.Search(ctx, vec(9, 9), 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].DocumentID != "doc-a" {
		t.Errorf("staged tail should be gone, got %d hits", len(hits))
	}
}

func TestReopenDetectsStalePreDeleteIndex(t *testing.T) {
	baseDir := t.TempDir()
	ctx := context.Background()

	s, err := Open(baseDir, "crash", testDim)
	if err != nil {
		t.Fatal(err)
	}
	insertDoc(t, s, "doc-a", "a.txt", vec(1, 0), vec(0, 1))
	insertDoc(t, s, "doc-b", "b.txt", vec(0, 0, 1))
	indexPath := s.indexPath()

	preDelete, err := os.ReadFile(indexPath)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.DeleteDocument(ctx, "doc-a"); err != nil {
		t.Fatal(err)
	}
	s.Close()

	// Simulate a crash between the metadata commit and the rebuilt index
	// write by restoring the pre-delete index file. Its rows use the old
	// numbering; truncating it to the metadata count would pair doc-a's
	// deleted vectors with doc-b's rows.
	if err := os.WriteFile(indexPath, preDelete, 0o644); err != nil {
		t.Fatal(err)
	}

	_, err = Open(baseDir, "crash", testDim)
	if !errors.Is(err, errdefs.ErrCorruptCollection) {
		t.Errorf("expected corrupt collection, got %v", err)
	}
}

func TestDeleteDocumentBumpsGeneration(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	insertDoc(t, s, "doc-a", "a.txt", vec(1, 0))
	insertDoc(t, s, "doc-b", "b.txt", vec(0, 1))

	before, err := readGeneration(s.db)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.DeleteDocument(ctx, "doc-a"); err != nil {
		t.Fatal(err)
	}

	after, err := readGeneration(s.db)
	if err != nil {
		t.Fatal(err)
	}
	if after != before+1 {
		t.Errorf("generation after delete = %d, want %d", after, before+1)
	}
	if s.idx.Generation() != after {
		t.Errorf("index generation = %d, metadata generation = %d", s.idx.Generation(), after)
	}
}

func TestReopenDetectsMissingIndexRows(t *testing.T) {
	baseDir := t.TempDir()

	s, err := Open(baseDir, "corrupt", testDim)
	if err != nil {
		t.Fatal(err)
	}
	insertDoc(t, s, "doc-a", "a.txt", vec(1), vec(2))
	indexPath := s.indexPath()
	s.Close()

	// Metadata rows with no index vectors cannot result from a crashed
	// append and must be reported, not repaired.
	if err := os.Remove(indexPath); err != nil {
		t.Fatal(err)
	}

	_, err = Open(baseDir, "corrupt", testDim)
	if !errors.Is(err, errdefs.ErrCorruptCollection) {
		t.Errorf("expected corrupt collection, got %v", err)
	}
}

func TestInsertEmptyChunks(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Insert(context.Background(), "doc-a", "a.txt", nil)
	if !errors.Is(err, errdefs.ErrInvalidArgument) {
		t.Errorf("expected invalid argument, got %v", err)
	}
}

func TestInsertDimensionMismatchLeavesStoreUnchanged(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	insertDoc(t, s, "doc-a", "a.txt", vec(1))

	bad := []ChunkInput{{Index: 0, Text: "bad", Vector: []float32{1, 2}}}
	if _, err := s.Insert(ctx, "doc-b", "b.txt", bad); !errors.Is(err, errdefs.ErrDimensionMismatch) {
		t.Fatalf("expected dimension mismatch, got %v", err)
	}

	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.TotalChunks != 1 || st.TotalDocuments != 1 {
		t.Errorf("stats after failed insert = %+v, want 1/1", st)
	}
}

func TestConcurrentInserts(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	const writers = 8
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			docID := fmt.Sprintf("doc-%d", w)
			chunks := []ChunkInput{
				{Index: 0, Text: docID + " first", Vector: vec(float32(w), 1)},
				{Index: 1, Text: docID + " second", Vector: vec(float32(w), 2)},
			}
			if _, err := s.Insert(ctx, docID, docID+".txt", chunks); err != nil {
				t.Errorf("insert %s: %v", docID, err)
			}
		}(w)
	}
	wg.Wait()

	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.TotalChunks != writers*2 || st.TotalDocuments != writers {
		t.Errorf("stats = %+v, want %d chunks / %d documents", st, writers*2, writers)
	}

	// Every chunk keeps its own metadata: row ids are dense and each
	// document's two chunks are adjacent.
	chunks, err := s.ListChunks(ctx, writers*2, 0)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < len(chunks); i += 2 {
		if chunks[i].DocumentID != chunks[i+1].DocumentID {
			t.Errorf("rows %d/%d belong to different documents: %s vs %s",
				i, i+1, chunks[i].DocumentID, chunks[i+1].DocumentID)
		}
	}
}

func TestOpenCreatesDirectory(t *testing.T) {
	baseDir := filepath.Join(t.TempDir(), "nested", "data")
	s, err := Open(baseDir, "fresh", testDim)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if _, err := os.Stat(filepath.Join(baseDir, "fresh")); err != nil {
		t.Errorf("collection directory missing: %v", err)
	}
}
