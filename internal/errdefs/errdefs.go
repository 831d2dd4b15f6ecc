// Package errdefs defines the stable error kinds surfaced by passage.
// Every user-visible failure wraps exactly one of these sentinels so
// callers can classify errors with errors.Is and map them to transport
// status codes without parsing messages.
package errdefs

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrEmptyDocument        = errors.New("empty document")
	ErrDimensionMismatch    = errors.New("embedding dimension mismatch")
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrNotFound             = errors.New("not found")
	ErrCorruptCollection    = errors.New("corrupt collection")
	ErrServiceUnavailable   = errors.New("service unavailable")
	ErrFileTooLarge         = errors.New("file too large")
	ErrUnsupportedFormat    = errors.New("unsupported format")
)

// Newf builds an error of the given kind with a formatted message.
func Newf(kind error, format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, kind)...)
}

// Wrap attaches a kind to an underlying error. The cause's text is kept
// in the message; the kind is what errors.Is matches.
func Wrap(kind error, cause error, msg string) error {
	if cause == nil {
		return fmt.Errorf("%s: %w", msg, kind)
	}
	return fmt.Errorf("%s: %w: %v", msg, kind, cause)
}

// Kind returns the machine-readable name for the error's kind.
// Unclassified errors report as "internal".
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidConfiguration):
		return "invalid_configuration"
	case errors.Is(err, ErrEmptyDocument):
		return "empty_document"
	case errors.Is(err, ErrDimensionMismatch):
		return "dimension_mismatch"
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrCorruptCollection):
		return "corrupt_collection"
	case errors.Is(err, ErrServiceUnavailable):
		return "service_unavailable"
	case errors.Is(err, ErrFileTooLarge):
		return "file_too_large"
	case errors.Is(err, ErrUnsupportedFormat):
		return "unsupported_format"
	default:
		return "internal"
	}
}

// HTTPStatus maps an error to the status code the API responds with.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidArgument),
		errors.Is(err, ErrInvalidConfiguration),
		errors.Is(err, ErrEmptyDocument),
		errors.Is(err, ErrDimensionMismatch),
		errors.Is(err, ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, ErrCorruptCollection):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
