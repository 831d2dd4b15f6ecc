// Package extract gates uploaded files before chunking: only plain-text
// formats within the configured size limit are accepted.
package extract

import (
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/passagedb/passage/internal/errdefs"
)

// DefaultMaxBytes is the default upload size limit (10 MiB).
const DefaultMaxBytes int64 = 10 << 20

var textExtensions = map[string]bool{
	".txt":      true,
	".text":     true,
	".md":       true,
	".markdown": true,
}

// SupportedExtension reports whether the filename has a text-extractable
// extension.
func SupportedExtension(filename string) bool {
	return textExtensions[strings.ToLower(filepath.Ext(filename))]
}

// Text validates the upload and returns its content as a string.
// Oversized uploads fail with FileTooLarge; unsupported extensions and
// non-UTF-8 content fail with UnsupportedFormat. maxBytes <= 0 applies
// DefaultMaxBytes.
func Text(filename string, data []byte, maxBytes int64) (string, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if int64(len(data)) > maxBytes {
		return "", errdefs.Newf(errdefs.ErrFileTooLarge, "%q is %d bytes, limit is %d", filename, len(data), maxBytes)
	}
	if !SupportedExtension(filename) {
		return "", errdefs.Newf(errdefs.ErrUnsupportedFormat, "%q: only plain text files are supported", filename)
	}
	if !utf8.Valid(data) {
		return "", errdefs.Newf(errdefs.ErrUnsupportedFormat, "%q is not valid UTF-8 text", filename)
	}
	return string(data), nil
}
