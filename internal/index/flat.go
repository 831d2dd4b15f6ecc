// Package index implements a flat squared-Euclidean similarity index.
//
// Vectors are stored densely in insertion order; a vector's row id is its
// zero-based position in the index. Search is an exhaustive scan, which is
// exact and needs no tuning. The index has no notion of deletion; callers
// rebuild from retained vectors (see the store package).
package index

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/passagedb/passage/internal/errdefs"
)

const (
	fileMagic   uint32 = 0x50534758 // "PSGX"
	fileVersion uint32 = 2

	// magic + version + dim (uint32 each), generation + rows (uint64 each).
	fileHeaderSize = 3*4 + 2*8
)

// Flat is a brute-force squared-L2 index over fixed-dimension vectors.
// It is not safe for concurrent use; the owning store serializes access.
//
// The generation counter identifies which row numbering the vectors belong
// to. Appends keep the generation; a rebuild that renumbers rows must bump
// it so the owning store can tell a stale pre-rebuild file from a staged
// append tail.
type Flat struct {
	dim        int
	generation uint64
	vectors    []float32 // row-major, len == rows*dim
}

// NewFlat creates an empty index. dim may be zero, in which case the
// dimension is fixed by the first Add.
func NewFlat(dim int) *Flat {
	return &Flat{dim: dim}
}

// Dim returns the vector dimension, or zero if not yet fixed.
func (f *Flat) Dim() int { return f.dim }

// Generation returns the row-numbering generation the index was written
// with.
func (f *Flat) Generation() uint64 { return f.generation }

// SetGeneration stamps the index with a row-numbering generation.
func (f *Flat) SetGeneration(g uint64) { f.generation = g }

// Rows returns the number of vectors in the index.
func (f *Flat) Rows() int {
	if f.dim == 0 {
		return 0
	}
	return len(f.vectors) / f.dim
}

// Add appends vectors in order. Row ids are assigned contiguously starting
// at the current row count. All vectors must match the index dimension;
// the first Add on a dimensionless index fixes it.
func (f *Flat) Add(vecs [][]float32) error {
	if len(vecs) == 0 {
		return nil
	}
	if f.dim == 0 {
		if len(vecs[0]) == 0 {
			return errdefs.Newf(errdefs.ErrDimensionMismatch, "cannot add zero-length vector")
		}
		f.dim = len(vecs[0])
	}
	for i, v := range vecs {
		if len(v) != f.dim {
			return errdefs.Newf(errdefs.ErrDimensionMismatch, "vector %d has dimension %d, index has %d", i, len(v), f.dim)
		}
	}
	for _, v := range vecs {
		f.vectors = append(f.vectors, v...)
	}
	return nil
}

// Reconstruct returns a copy of the vector at the given row.
func (f *Flat) Reconstruct(row int) ([]float32, error) {
	if row < 0 || row >= f.Rows() {
		return nil, errdefs.Newf(errdefs.ErrInvalidArgument, "row %d out of range [0, %d)", row, f.Rows())
	}
	out := make([]float32, f.dim)
	copy(out, f.vectors[row*f.dim:(row+1)*f.dim])
	return out, nil
}

// Truncate discards all rows at index rows and beyond. Used to drop a
// staged tail that was never committed to metadata.
func (f *Flat) Truncate(rows int) {
	if rows < 0 || rows >= f.Rows() {
		return
	}
	f.vectors = f.vectors[:rows*f.dim]
}

// Match is one search hit: a row id and its squared-Euclidean distance to
// the query vector. Lower distance means more similar.
type Match struct {
	Row      int
	Distance float32
}

// Search returns up to k nearest rows by squared-Euclidean distance in
// ascending order, ties broken by lower row id. k is clamped to the row
// count; k <= 0 is an error.
func (f *Flat) Search(query []float32, k int) ([]Match, error) {
	if k <= 0 {
		return nil, errdefs.Newf(errdefs.ErrInvalidArgument, "k must be positive, got %d", k)
	}
	rows := f.Rows()
	if rows == 0 {
		return nil, nil
	}
	if len(query) != f.dim {
		return nil, errdefs.Newf(errdefs.ErrDimensionMismatch, "query has dimension %d, index has %d", len(query), f.dim)
	}
	if k > rows {
		k = rows
	}

	matches := make([]Match, rows)
	for row := 0; row < rows; row++ {
		var dist float32
		base := row * f.dim
		for i, q := range query {
			d := q - f.vectors[base+i]
			dist += d * d
		}
		matches[row] = Match{Row: row, Distance: dist}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Distance != matches[j].Distance {
			return matches[i].Distance < matches[j].Distance
		}
		return matches[i].Row < matches[j].Row
	})

	return matches[:k], nil
}

// WriteFile persists the index to path atomically (temp file + rename).
func (f *Flat) WriteFile(path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".index-*")
	if err != nil {
		return fmt.Errorf("creating temp index file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	header := []uint32{fileMagic, fileVersion, uint32(f.dim)}
	for _, h := range header {
		if err := binary.Write(w, binary.LittleEndian, h); err != nil {
			tmp.Close()
			return fmt.Errorf("writing index header: %w", err)
		}
	}
	for _, h := range []uint64{f.generation, uint64(f.Rows())} {
		if err := binary.Write(w, binary.LittleEndian, h); err != nil {
			tmp.Close()
			return fmt.Errorf("writing index header: %w", err)
		}
	}
	if err := binary.Write(w, binary.LittleEndian, f.vectors); err != nil {
		tmp.Close()
		return fmt.Errorf("writing index vectors: %w", err)
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("flushing index file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing index file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing index file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing index file: %w", err)
	}
	return nil
}

// ReadFile loads an index previously written with WriteFile. A missing
// file is reported via os.ErrNotExist; malformed content is a
// CorruptCollection error.
func ReadFile(path string) (*Flat, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	r := bufio.NewReader(fh)
	var magic, version, dim uint32
	var generation, rows uint64
	for _, dst := range []any{&magic, &version, &dim, &generation, &rows} {
		if err := binary.Read(r, binary.LittleEndian, dst); err != nil {
			return nil, errdefs.Wrap(errdefs.ErrCorruptCollection, err, "reading index header")
		}
	}
	if magic != fileMagic {
		return nil, errdefs.Newf(errdefs.ErrCorruptCollection, "bad index magic %#x", magic)
	}
	if version != fileVersion {
		return nil, errdefs.Newf(errdefs.ErrCorruptCollection, "unsupported index version %d", version)
	}
	if dim == 0 && rows > 0 {
		return nil, errdefs.Newf(errdefs.ErrCorruptCollection, "index has %d rows but zero dimension", rows)
	}

	// Bound the claimed row count by the file size before allocating, so a
	// corrupted header cannot trigger a huge or overflowing allocation.
	if rows > 0 {
		fi, err := fh.Stat()
		if err != nil {
			return nil, fmt.Errorf("statting index file: %w", err)
		}
		if fi.Size() < fileHeaderSize || rows > (uint64(fi.Size())-fileHeaderSize)/(uint64(dim)*4) {
			return nil, errdefs.Newf(errdefs.ErrCorruptCollection,
				"index header claims %d rows of dimension %d, file has %d bytes", rows, dim, fi.Size())
		}
	}

	f := &Flat{dim: int(dim), generation: generation}
	if rows > 0 {
		f.vectors = make([]float32, int(rows)*int(dim))
		if err := binary.Read(r, binary.LittleEndian, f.vectors); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, errdefs.Newf(errdefs.ErrCorruptCollection, "index file truncated at %d rows", rows)
			}
			return nil, errdefs.Wrap(errdefs.ErrCorruptCollection, err, "reading index vectors")
		}
	}
	return f, nil
}
