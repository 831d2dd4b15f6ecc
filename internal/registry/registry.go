// Package registry caches one collection store per name for the lifetime
// of the process, loading or creating collections lazily.
package registry

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"

	"github.com/passagedb/passage/internal/errdefs"
	"github.com/passagedb/passage/internal/store"
)

// Collection names double as directory names, so they must be URL-safe
// unreserved characters and never path navigation.
var nameRe = regexp.MustCompile(`^[A-Za-z0-9._~-]+$`)

// ValidateName reports whether name is a legal collection name.
func ValidateName(name string) error {
	if name == "" {
		return errdefs.Newf(errdefs.ErrInvalidArgument, "collection name must not be empty")
	}
	if name == "." || name == ".." || !nameRe.MatchString(name) {
		return errdefs.Newf(errdefs.ErrInvalidArgument, "invalid collection name %q", name)
	}
	return nil
}

// CollectionInfo describes one known collection.
type CollectionInfo struct {
	Name           string `json:"name"`
	TotalChunks    int    `json:"total_chunks"`
	TotalDocuments int    `json:"total_documents"`
}

// entry holds a lazily-created store. The sync.Once resolves racing
// GetOrCreate calls for the same name to a single store instance without
// holding the registry lock across the disk load.
type entry struct {
	once  sync.Once
	store *store.Store
	err   error
}

// Registry is a process-wide cache mapping collection name to its store.
// Entries are retained until the collection is deleted; there is no LRU
// eviction.
type Registry struct {
	dataDir string
	dim     int

	mu      sync.Mutex
	entries map[string]*entry
}

// New creates a registry persisting collections under dataDir. dim is the
// embedding dimension applied to collections created fresh.
func New(dataDir string, dim int) *Registry {
	return &Registry{
		dataDir: dataDir,
		dim:     dim,
		entries: make(map[string]*entry),
	}
}

// DataDir returns the registry's storage root.
func (r *Registry) DataDir() string { return r.dataDir }

// GetOrCreate returns the cached store for name, loading it from disk or
// creating an empty one as needed. Concurrent calls for the same name get
// the same instance.
func (r *Registry) GetOrCreate(name string) (*store.Store, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	r.mu.Lock()
	e, ok := r.entries[name]
	if !ok {
		e = &entry{}
		r.entries[name] = e
	}
	r.mu.Unlock()

	e.once.Do(func() {
		e.store, e.err = store.Open(r.dataDir, name, r.dim)
		if e.err == nil {
			log.Printf("registry: opened collection %q", name)
		}
	})

	if e.err != nil {
		// Drop the failed entry so a later call can retry the load.
		r.mu.Lock()
		if r.entries[name] == e {
			delete(r.entries, name)
		}
		r.mu.Unlock()
		return nil, e.err
	}
	return e.store, nil
}

// Exists reports whether the collection is cached or persisted on disk.
func (r *Registry) Exists(name string) bool {
	r.mu.Lock()
	_, cached := r.entries[name]
	r.mu.Unlock()
	if cached {
		return true
	}
	info, err := os.Stat(filepath.Join(r.dataDir, name))
	return err == nil && info.IsDir()
}

// Info returns the collection's name and counts, or NotFound if the
// collection neither is cached nor exists on disk.
func (r *Registry) Info(ctx context.Context, name string) (CollectionInfo, error) {
	if err := ValidateName(name); err != nil {
		return CollectionInfo{}, err
	}
	if !r.Exists(name) {
		return CollectionInfo{}, errdefs.Newf(errdefs.ErrNotFound, "collection %q", name)
	}

	s, err := r.GetOrCreate(name)
	if err != nil {
		return CollectionInfo{}, err
	}
	st, err := s.Stats(ctx)
	if err != nil {
		return CollectionInfo{}, err
	}
	return CollectionInfo{Name: name, TotalChunks: st.TotalChunks, TotalDocuments: st.TotalDocuments}, nil
}

// Delete removes the collection's cache entry and persisted artifacts.
// Deleting an unknown collection is NotFound. A later GetOrCreate starts
// from a fresh empty collection.
func (r *Registry) Delete(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if !r.Exists(name) {
		return errdefs.Newf(errdefs.ErrNotFound, "collection %q", name)
	}

	r.mu.Lock()
	e, cached := r.entries[name]
	delete(r.entries, name)
	r.mu.Unlock()

	if cached {
		// Ensure the load finished before closing, so we never close a
		// store another goroutine is still opening.
		e.once.Do(func() {})
		if e.store != nil {
			if err := e.store.Close(); err != nil {
				log.Printf("registry: closing collection %q: %v", name, err)
			}
		}
	}

	if err := os.RemoveAll(filepath.Join(r.dataDir, name)); err != nil {
		return fmt.Errorf("removing collection %q artifacts: %w", name, err)
	}

	log.Printf("registry: deleted collection %q", name)
	return nil
}

// List returns every known collection, cached or only persisted, with
// its chunk and document counts, sorted by name.
func (r *Registry) List(ctx context.Context) ([]CollectionInfo, error) {
	names := make(map[string]bool)

	dirEntries, err := os.ReadDir(r.dataDir)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading data directory: %w", err)
	}
	for _, de := range dirEntries {
		if de.IsDir() && ValidateName(de.Name()) == nil {
			names[de.Name()] = true
		}
	}

	r.mu.Lock()
	for name := range r.entries {
		names[name] = true
	}
	r.mu.Unlock()

	infos := make([]CollectionInfo, 0, len(names))
	for name := range names {
		info, err := r.Info(ctx, name)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// CloseAll closes every cached store. Used on shutdown.
func (r *Registry) CloseAll() error {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[string]*entry)
	r.mu.Unlock()

	var firstErr error
	for name, e := range entries {
		e.once.Do(func() {})
		if e.store == nil {
			continue
		}
		if err := e.store.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing collection %q: %w", name, err)
		}
	}
	return firstErr
}
