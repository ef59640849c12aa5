// Package fetch provides resource fetchers for static documents: over HTTP,
// from a directory on disk, or from a plain function.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Sentinel errors for fetch operations.
var (
	ErrStatus            = errors.New("unexpected HTTP status")
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")
	ErrPathTraversal     = errors.New("path escapes root directory")
	ErrNotFile           = errors.New("not a regular file")
)

// defaultTimeout bounds a single HTTP fetch.
const defaultTimeout = 30 * time.Second

// Func adapts a function to the fetcher interface.
type Func func(ctx context.Context, tag, url string) error

// Fetch calls f.
func (f Func) Fetch(ctx context.Context, tag, url string) error {
	return f(ctx, tag, url)
}

// HTTP fetches resources with GET requests, resolving relative references
// against Base. Any status below 400 counts as loaded.
type HTTP struct {
	Client *http.Client
	Base   *url.URL
}

// NewHTTP creates an HTTP fetcher. base may be empty when every reference
// is absolute. A timeout <= 0 uses the default.
func NewHTTP(base string, timeout time.Duration) (*HTTP, error) {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	h := &HTTP{Client: &http.Client{Timeout: timeout}}
	if base != "" {
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("parsing base URL: %w", err)
		}
		h.Base = u
	}
	return h, nil
}

// Fetch downloads ref and discards the body.
func (h *HTTP) Fetch(ctx context.Context, _, ref string) error {
	body, err := h.Open(ctx, ref)
	if err != nil {
		return err
	}
	defer body.Close()
	_, _ = io.Copy(io.Discard, body)
	return nil
}

// Open issues a GET for ref and returns the response body.
// The caller closes it.
func (h *HTTP) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	u, err := h.resolve(ref)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: %s: %s", ErrStatus, u, resp.Status)
	}
	return resp.Body, nil
}

func (h *HTTP) resolve(ref string) (*url.URL, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("parsing URL %q: %w", ref, err)
	}
	if h.Base != nil {
		u = h.Base.ResolveReference(u)
	}
	return u, nil
}

// Dir resolves references to files under Root. Absolute paths are taken
// relative to Root; file:// URLs are accepted, other schemes are not.
type Dir struct {
	Root string
}

// Fetch checks that ref names a regular file inside Root.
func (d Dir) Fetch(ctx context.Context, _, ref string) error {
	_, err := d.stat(ctx, ref)
	return err
}

// Open opens the file ref names inside Root. The caller closes it.
func (d Dir) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	p, err := d.stat(ctx, ref)
	if err != nil {
		return nil, err
	}
	return os.Open(p) // #nosec G304 -- confined to Root by path
}

func (d Dir) stat(ctx context.Context, ref string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	p, err := d.path(ref)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(p)
	if err != nil {
		return "", err
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s", ErrNotFile, p)
	}
	return p, nil
}

// path maps ref to a cleaned file path, rejecting anything outside Root.
func (d Dir) path(ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parsing URL %q: %w", ref, err)
	}
	if u.Scheme != "" && u.Scheme != "file" {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}

	root, err := filepath.Abs(d.Root)
	if err != nil {
		return "", fmt.Errorf("resolving root: %w", err)
	}

	rel := filepath.FromSlash(strings.TrimPrefix(u.Path, "/"))
	p := filepath.Join(root, rel)
	if p != root && !strings.HasPrefix(p, root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrPathTraversal, ref)
	}
	return p, nil
}
