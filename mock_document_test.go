package resmgr

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/alnah/go-resmgr/internal/dom"
)

// mockDocument is an in-memory Document. By default element loads stay
// pending until the test calls fire; with auto set, setting a source fires
// immediately with auto's result.
type mockDocument struct {
	mu        sync.Mutex
	head      []*mockElement
	existing  map[string][]dom.Element
	created   int
	ready     bool
	readyFns  []func()
	auto      func(tag, url string) error
	createErr error
	appendErr error
	queryErr  error
}

// Compile-time interface checks
var (
	_ dom.Document = (*mockDocument)(nil)
	_ dom.Element  = (*mockElement)(nil)
)

func newMockDocument() *mockDocument {
	return &mockDocument{ready: true, existing: make(map[string][]dom.Element)}
}

// autoDocument loads everything immediately; URLs in failing are rejected.
func autoDocument(failing ...string) *mockDocument {
	d := newMockDocument()
	d.auto = func(_, url string) error {
		for _, f := range failing {
			if f == url {
				return fmt.Errorf("mock: %s unavailable", url)
			}
		}
		return nil
	}
	return d
}

func (d *mockDocument) CreateElement(tag string) (dom.Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.createErr != nil {
		return nil, d.createErr
	}
	d.created++
	return &mockElement{doc: d, tag: tag, attrs: map[string]string{}}, nil
}

func (d *mockDocument) AppendToHead(el dom.Element) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.appendErr != nil {
		return d.appendErr
	}
	e := el.(*mockElement)
	e.attached = true
	d.head = append(d.head, e)
	return nil
}

func (d *mockDocument) QueryAll(selector string) ([]dom.Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.queryErr != nil {
		return nil, d.queryErr
	}
	return d.existing[selector], nil
}

func (d *mockDocument) OnReady(fn func()) {
	d.mu.Lock()
	if !d.ready {
		d.readyFns = append(d.readyFns, fn)
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()
	fn()
}

// finishParsing marks the document ready and runs deferred OnReady callbacks.
func (d *mockDocument) finishParsing() {
	d.mu.Lock()
	d.ready = true
	fns := d.readyFns
	d.readyFns = nil
	d.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// addExisting registers elements a selector returns, as if parsed from HTML.
func (d *mockDocument) addExisting(selector, attr string, urls ...string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, u := range urls {
		d.existing[selector] = append(d.existing[selector], &mockElement{doc: d, attrs: map[string]string{attr: u}, attached: true})
	}
}

// fire settles the most recent attached element loading url.
func (d *mockDocument) fire(t *testing.T, url string, err error) {
	t.Helper()
	e := d.element(url)
	if e == nil {
		t.Fatalf("no element loading %q", url)
	}
	e.fire(err)
}

// element returns the most recent attached element whose source is url.
func (d *mockDocument) element(url string) *mockElement {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := len(d.head) - 1; i >= 0; i-- {
		if d.head[i].source() == url && !d.head[i].removed {
			return d.head[i]
		}
	}
	return nil
}

// injected counts attached, non-removed elements with source url.
func (d *mockDocument) injected(url string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, e := range d.head {
		if e.source() == url && !e.removed {
			n++
		}
	}
	return n
}

// sources lists the sources of attached elements in append order.
func (d *mockDocument) sources() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []string
	for _, e := range d.head {
		if !e.removed {
			out = append(out, e.source())
		}
	}
	return out
}

type mockElement struct {
	doc      *mockDocument
	tag      string
	attrs    map[string]string
	attached bool
	removed  bool
	onLoad   func()
	onError  func(error)
}

func (e *mockElement) SetAttribute(name, value string) error {
	e.doc.mu.Lock()
	e.attrs[name] = value
	auto := e.doc.auto
	starts := e.attached && (name == dom.AttrSrc || name == dom.AttrHref)
	e.doc.mu.Unlock()

	if starts && auto != nil {
		e.fire(auto(e.tag, value))
	}
	return nil
}

func (e *mockElement) Attribute(name string) (string, bool) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	v, ok := e.attrs[name]
	return v, ok
}

func (e *mockElement) OnLoad(fn func()) {
	e.doc.mu.Lock()
	e.onLoad = fn
	e.doc.mu.Unlock()
}

func (e *mockElement) OnError(fn func(error)) {
	e.doc.mu.Lock()
	e.onError = fn
	e.doc.mu.Unlock()
}

func (e *mockElement) Remove() error {
	e.doc.mu.Lock()
	e.removed = true
	e.doc.mu.Unlock()
	return nil
}

func (e *mockElement) fire(err error) {
	e.doc.mu.Lock()
	onLoad, onError := e.onLoad, e.onError
	e.doc.mu.Unlock()
	if err != nil {
		if onError != nil {
			onError(err)
		}
		return
	}
	if onLoad != nil {
		onLoad()
	}
}

// source is the src or href attribute. Caller holds doc.mu.
func (e *mockElement) source() string {
	if v, ok := e.attrs[dom.AttrSrc]; ok {
		return v
	}
	return e.attrs[dom.AttrHref]
}

// recordLogger collects status lines.
type recordLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *recordLogger) Logf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

func (l *recordLogger) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.lines...)
}

func (l *recordLogger) contains(substr string) bool {
	for _, line := range l.all() {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}

var errMock = errors.New("mock failure")
