package resmgr

import (
	"errors"
	"fmt"
)

// Sentinel errors for library operations.
var (
	ErrLoadFailed  = errors.New("resource load failed")
	ErrEmptyURL    = errors.New("resource URL cannot be empty")
	ErrNilDocument = errors.New("document cannot be nil")
	ErrDocument    = errors.New("document operation failed")

	// Browser errors.
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
	ErrForeignElement = errors.New("element belongs to another document")

	// Static document errors.
	ErrHTMLParse = errors.New("failed to parse HTML document")
)

// LoadError reports a script or stylesheet that failed to load.
// It matches ErrLoadFailed with errors.Is.
type LoadError struct {
	Kind Kind
	URL  string
	Err  error // cause reported by the document, may be nil
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load %s: %s", e.Kind.label(), e.URL)
}

// Unwrap returns the underlying cause.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrLoadFailed.
func (e *LoadError) Is(target error) bool {
	return target == ErrLoadFailed
}
