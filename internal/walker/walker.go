// Package walker discovers ingestable files under a directory tree.
package walker

import (
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// FileInfo holds metadata about a single file discovered during traversal.
type FileInfo struct {
	Path    string // Absolute path on disk.
	RelPath string // Path relative to the root directory.
	Size    int64  // File size in bytes.
}

// Config controls the behaviour of the Walk function.
type Config struct {
	RootDir     string   // Root directory to walk.
	Include     []string // Glob patterns; only matching files are included.
	Exclude     []string // Glob patterns; matching files are excluded.
	MaxFileSize int64    // Files larger than this are skipped (0 = no limit).
}

// Walk traverses the directory tree rooted at config.RootDir and returns
// metadata for every regular file that passes the include/exclude filters,
// in deterministic directory order.
func Walk(config Config) ([]FileInfo, error) {
	root, err := filepath.Abs(config.RootDir)
	if err != nil {
		return nil, fmt.Errorf("walker: resolve root: %w", err)
	}

	var files []FileInfo

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// Skip entries we cannot read instead of aborting.
			return nil
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		if !matchesAny(relPath, config.Include, true) {
			return nil
		}
		if matchesAny(relPath, config.Exclude, false) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if config.MaxFileSize > 0 && info.Size() > config.MaxFileSize {
			return nil
		}

		files = append(files, FileInfo{Path: path, RelPath: relPath, Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walker: %w", err)
	}

	return files, nil
}

// matchesAny reports whether relPath matches any of the patterns.
// emptyMeans is returned when no patterns are given: an empty include list
// matches everything, an empty exclude list matches nothing.
func matchesAny(relPath string, patterns []string, emptyMeans bool) bool {
	if len(patterns) == 0 {
		return emptyMeans
	}
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, relPath); err == nil && ok {
			return true
		}
	}
	return false
}
