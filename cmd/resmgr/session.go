package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	resmgr "github.com/alnah/go-resmgr"
	"github.com/alnah/go-resmgr/internal/fetch"
	"github.com/alnah/go-resmgr/internal/fileutil"
)

// ErrReadPage is returned when a static page cannot be read.
var ErrReadPage = errors.New("failed to read page")

// Session opens pages. A Session is used by one worker at a time.
type Session interface {
	Open(ctx context.Context, page string) (Target, error)
	Close() error
}

// Target is an opened page ready for a Manager.
type Target interface {
	resmgr.Document
	Close() error
}

// renderer is implemented by targets that can write their HTML back out.
type renderer interface {
	Render(w io.Writer) error
}

// sessionOptions configures how sessions open pages.
type sessionOptions struct {
	static     bool
	base       string
	timeout    time.Duration
	browserBin string
	noSandbox  bool
}

// Compile-time interface checks
var (
	_ Session  = (*chromeSession)(nil)
	_ Session  = (*staticSession)(nil)
	_ Target   = (*resmgr.Page)(nil)
	_ Target   = (*staticTarget)(nil)
	_ renderer = (*staticTarget)(nil)
)

// newSession returns a static or Chrome session for opts.
func newSession(opts sessionOptions) Session {
	if opts.static {
		return &staticSession{opts: opts}
	}

	browserOpts := []resmgr.BrowserOption{
		resmgr.WithBrowserBin(opts.browserBin),
		resmgr.WithNoSandbox(opts.noSandbox),
	}
	if opts.timeout > 0 {
		browserOpts = append(browserOpts, resmgr.WithPageTimeout(opts.timeout))
	}
	return &chromeSession{browser: resmgr.NewBrowser(browserOpts...)}
}

// chromeSession opens pages as tabs of one headless Chrome.
type chromeSession struct {
	browser *resmgr.Browser
}

func (s *chromeSession) Open(ctx context.Context, page string) (Target, error) {
	p, err := s.browser.Open(ctx, page)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *chromeSession) Close() error {
	return s.browser.Close()
}

// staticSession parses pages from disk or HTTP. Resource loads are checked
// against the page's directory, the page URL, or --base.
type staticSession struct {
	opts sessionOptions
}

func (s *staticSession) Open(ctx context.Context, page string) (Target, error) {
	body, err := s.read(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrReadPage, page, err)
	}
	defer body.Close()

	fetcher, err := s.fetcher(page)
	if err != nil {
		return nil, err
	}

	doc, err := resmgr.ParseHTMLDocument(ctx, body, fetcher)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", page, err)
	}
	return &staticTarget{StaticDocument: doc}, nil
}

func (s *staticSession) Close() error {
	return nil
}

// read opens the page source.
func (s *staticSession) read(ctx context.Context, page string) (io.ReadCloser, error) {
	if fileutil.IsURL(page) {
		h, err := fetch.NewHTTP("", s.opts.timeout)
		if err != nil {
			return nil, err
		}
		return h.Open(ctx, page)
	}
	return fetch.Dir{Root: filepath.Dir(page)}.Open(ctx, filepath.Base(page))
}

// fetcher picks where the page's resource references resolve.
func (s *staticSession) fetcher(page string) (resmgr.Fetcher, error) {
	switch {
	case s.opts.base != "":
		return fetch.NewHTTP(s.opts.base, s.opts.timeout)
	case fileutil.IsURL(page):
		return fetch.NewHTTP(page, s.opts.timeout)
	default:
		// Local page: relative references are files, absolute URLs go out over HTTP.
		dir := fetch.Dir{Root: filepath.Dir(page)}
		remote, err := fetch.NewHTTP("", s.opts.timeout)
		if err != nil {
			return nil, err
		}
		return fetch.Func(func(ctx context.Context, tag, ref string) error {
			if fileutil.IsURL(ref) {
				return remote.Fetch(ctx, tag, ref)
			}
			return dir.Fetch(ctx, tag, ref)
		}), nil
	}
}

// staticTarget is a parsed page. Close waits for outstanding fetches.
type staticTarget struct {
	*resmgr.StaticDocument
}

func (t *staticTarget) Close() error {
	t.Wait()
	resmgr.Uninstall(t)
	return nil
}
