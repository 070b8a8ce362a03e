package extraction

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidFormat is returned when the byte stream is not a PDF.
	ErrInvalidFormat = errors.New("invalid document format")
	// ErrEmptyFile is returned for zero-byte files.
	ErrEmptyFile = errors.New("empty file")
	// ErrTooLarge is returned when the file exceeds the configured size ceiling.
	ErrTooLarge = errors.New("file too large")
	// ErrTooManyPages is returned when the page count exceeds the configured ceiling.
	ErrTooManyPages = errors.New("too many pages")
	// ErrUnreadable is returned when the file cannot be opened or parsed.
	ErrUnreadable = errors.New("unreadable document")
	// ErrExtraction is returned when text extraction fails at the document level.
	ErrExtraction = errors.New("extraction failed")
	// ErrToolNotFound is returned when a required external binary is not on PATH.
	ErrToolNotFound = errors.New("external tool not found")
)

// ValidationError describes why a document was rejected. It wraps one of the
// sentinel errors above so callers can use errors.Is.
type ValidationError struct {
	Path   string
	Err    error
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("validation failed for %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("validation failed for %s: %v: %s", e.Path, e.Err, e.Detail)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(path string, err error, format string, args ...any) *ValidationError {
	return &ValidationError{Path: path, Err: err, Detail: fmt.Sprintf(format, args...)}
}
