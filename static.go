package resmgr

import (
	"context"
	"fmt"
	"io"

	"github.com/alnah/go-resmgr/internal/htmldoc"
)

// StaticDocument is a parsed HTML page that can be rendered back out after
// resources were injected. Loads are checked with its Fetcher.
type StaticDocument = htmldoc.Document

// Fetcher checks or downloads a resource on behalf of a StaticDocument.
type Fetcher = htmldoc.Fetcher

// ParseHTMLDocument parses an HTML page into a StaticDocument.
// A nil fetcher makes every load succeed.
func ParseHTMLDocument(ctx context.Context, r io.Reader, f Fetcher) (*StaticDocument, error) {
	doc, err := htmldoc.ParseContext(ctx, r, f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHTMLParse, err)
	}
	return doc, nil
}
