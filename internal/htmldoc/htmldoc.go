// Package htmldoc implements a Document over a parsed HTML tree.
//
// It behaves like a very small browser: setting src on an attached script,
// or href on an attached stylesheet link, starts a fetch on its own
// goroutine, and the fetch result fires the element's load or error handler.
// The mutated tree can be written back out with Render.
package htmldoc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/alnah/go-resmgr/internal/dom"
)

// Compile-time interface checks
var (
	_ dom.Document = (*Document)(nil)
	_ dom.Element  = (*element)(nil)
)

// Sentinel errors for document operations.
var (
	ErrNoHead         = errors.New("htmldoc: document has no head element")
	ErrForeignElement = errors.New("htmldoc: element belongs to another document")
	ErrInvalidTag     = errors.New("htmldoc: invalid tag name")
)

// Fetcher retrieves a resource referenced by an element.
// tag is the element name ("script" or "link").
type Fetcher interface {
	Fetch(ctx context.Context, tag, url string) error
}

// Document is a parsed HTML page. It is safe for concurrent use.
type Document struct {
	mu       sync.Mutex
	root     *html.Node
	head     *html.Node
	fetcher  Fetcher
	ctx      context.Context
	elements map[*html.Node]*element
	inflight sync.WaitGroup
}

// Parse reads an HTML page. A nil fetcher makes every load succeed.
func Parse(r io.Reader, f Fetcher) (*Document, error) {
	return ParseContext(context.Background(), r, f)
}

// ParseContext is Parse with a context passed to every fetch.
func ParseContext(ctx context.Context, r io.Reader, f Fetcher) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("htmldoc: %w", err)
	}

	head := findFirst(root, atom.Head)
	if head == nil {
		return nil, ErrNoHead
	}

	return &Document{
		root:     root,
		head:     head,
		fetcher:  f,
		ctx:      ctx,
		elements: make(map[*html.Node]*element),
	}, nil
}

// New returns an empty page.
func New(f Fetcher) *Document {
	d, err := Parse(strings.NewReader("<!DOCTYPE html><html><head></head><body></body></html>"), f)
	if err != nil {
		// The literal above always parses.
		panic(err)
	}
	return d
}

// CreateElement returns a detached element.
func (d *Document) CreateElement(tag string) (dom.Element, error) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" || strings.ContainsAny(tag, " <>/\"'=") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTag, tag)
	}

	n := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	return d.wrap(n), nil
}

// AppendToHead attaches el at the end of <head>. An element that already
// carries its source starts loading immediately.
func (d *Document) AppendToHead(el dom.Element) error {
	e, ok := el.(*element)
	if !ok || e.doc != d {
		return ErrForeignElement
	}

	d.mu.Lock()
	if e.node.Parent != nil {
		e.node.Parent.RemoveChild(e.node)
	}
	d.head.AppendChild(e.node)
	url, fetch := e.source()
	d.mu.Unlock()

	if fetch {
		d.startFetch(e, url)
	}
	return nil
}

// QueryAll returns every element matching a CSS selector, in document order.
func (d *Document) QueryAll(selector string) ([]dom.Element, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("htmldoc: selector %q: %w", selector, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	nodes := cascadia.QueryAll(d.root, sel)
	out := make([]dom.Element, len(nodes))
	for i, n := range nodes {
		out[i] = d.wrap(n)
	}
	return out, nil
}

// OnReady runs fn immediately: a parsed document is always ready.
func (d *Document) OnReady(fn func()) {
	fn()
}

// Wait blocks until every started fetch has fired its handler.
func (d *Document) Wait() {
	d.inflight.Wait()
}

// Render writes the current tree as HTML.
func (d *Document) Render(w io.Writer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return html.Render(w, d.root)
}

// wrap returns the element for n, creating it on first sight so handlers
// stay attached to the same node. Caller holds d.mu.
func (d *Document) wrap(n *html.Node) *element {
	if e, ok := d.elements[n]; ok {
		return e
	}
	e := &element{doc: d, node: n}
	d.elements[n] = e
	return e
}

// startFetch loads url on its own goroutine and fires e's handler.
func (d *Document) startFetch(e *element, url string) {
	d.inflight.Add(1)
	go func() {
		defer d.inflight.Done()

		var err error
		if d.fetcher != nil {
			err = d.fetcher.Fetch(d.ctx, e.node.Data, url)
		}

		d.mu.Lock()
		onLoad, onError := e.onLoad, e.onError
		d.mu.Unlock()

		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		if onLoad != nil {
			onLoad()
		}
	}()
}

// element is a node handle. All node access goes through doc.mu.
type element struct {
	doc     *Document
	node    *html.Node
	onLoad  func()
	onError func(error)
}

func (e *element) SetAttribute(name, value string) error {
	name = strings.ToLower(name)

	e.doc.mu.Lock()
	setAttr(e.node, name, value)
	url, fetch := e.source()
	fetch = fetch && (name == sourceAttr(e.node) || name == dom.AttrRel)
	e.doc.mu.Unlock()

	if fetch {
		e.doc.startFetch(e, url)
	}
	return nil
}

func (e *element) Attribute(name string) (string, bool) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	return getAttr(e.node, strings.ToLower(name))
}

func (e *element) OnLoad(fn func()) {
	e.doc.mu.Lock()
	e.onLoad = fn
	e.doc.mu.Unlock()
}

func (e *element) OnError(fn func(error)) {
	e.doc.mu.Lock()
	e.onError = fn
	e.doc.mu.Unlock()
}

func (e *element) Remove() error {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	if e.node.Parent != nil {
		e.node.Parent.RemoveChild(e.node)
	}
	return nil
}

// source reports the URL a connected element would load, if any.
// Caller holds doc.mu.
func (e *element) source() (string, bool) {
	if !e.connected() {
		return "", false
	}
	attr := sourceAttr(e.node)
	if attr == "" {
		return "", false
	}
	if e.node.DataAtom == atom.Link {
		rel, _ := getAttr(e.node, dom.AttrRel)
		if !strings.EqualFold(rel, dom.RelStylesheet) {
			return "", false
		}
	}
	url, ok := getAttr(e.node, attr)
	return url, ok && url != ""
}

// connected reports whether the node is reachable from the document root.
func (e *element) connected() bool {
	for n := e.node; n != nil; n = n.Parent {
		if n == e.doc.root {
			return true
		}
	}
	return false
}

// sourceAttr is the attribute that makes an element fetch.
func sourceAttr(n *html.Node) string {
	switch n.DataAtom {
	case atom.Script:
		return dom.AttrSrc
	case atom.Link:
		return dom.AttrHref
	default:
		return ""
	}
}

func getAttr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, name, value string) {
	for i := range n.Attr {
		if n.Attr[i].Namespace == "" && n.Attr[i].Key == name {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
}

// findFirst returns the first element with atom a in depth-first order.
func findFirst(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, a); found != nil {
			return found
		}
	}
	return nil
}
