package resmgr

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-resmgr/internal/dom"
	"github.com/alnah/go-resmgr/internal/process"
)

// Compile-time interface checks
var (
	_ dom.Document = (*Page)(nil)
	_ dom.Element  = (*pageElement)(nil)
	_ dom.Element  = (*queriedElement)(nil)
)

// defaultPageTimeout bounds page loads and each resource load event wait.
const defaultPageTimeout = 30 * time.Second

// errLoadEvent is reported when the browser fires an error event on an element.
var errLoadEvent = errors.New("browser fired error event")

// In-page helpers. Elements created through a Page are tracked in
// window.__resmgr by id so Go can reach them after insertion.
const (
	jsAppend = `(id, tag, attrs) => {
		const reg = window.__resmgr || (window.__resmgr = {});
		const el = document.createElement(tag);
		for (const [k, v] of attrs) el.setAttribute(k, v);
		const entry = { el };
		entry.done = new Promise((resolve) => {
			el.addEventListener('load', () => resolve(''), { once: true });
			el.addEventListener('error', () => resolve('error'), { once: true });
		});
		reg[id] = entry;
		document.head.appendChild(el);
	}`
	jsAwait     = `(id) => window.__resmgr[id].done`
	jsSetAttr   = `(id, k, v) => { const r = window.__resmgr && window.__resmgr[id]; if (r) r.el.setAttribute(k, v); }`
	jsRemove    = `(id) => { const r = window.__resmgr && window.__resmgr[id]; if (r) r.el.remove(); }`
	jsRelease   = `(id) => { if (window.__resmgr) delete window.__resmgr[id]; }`
	jsReadState = `() => document.readyState`
	jsReady     = `() => new Promise((resolve) => {
		if (document.readyState !== 'loading') { resolve(); return; }
		document.addEventListener('DOMContentLoaded', () => resolve(), { once: true });
	})`
)

// Browser owns a headless Chrome instance and opens pages on it.
// Rod automatically downloads Chromium on first run if not found.
type Browser struct {
	mu        sync.Mutex
	browser   *rod.Browser
	launcher  *launcher.Launcher
	timeout   time.Duration
	bin       string
	noSandbox bool
}

// BrowserOption configures a Browser.
type BrowserOption func(*Browser)

// WithPageTimeout sets how long to wait for a page or resource load.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithPageTimeout(d time.Duration) BrowserOption {
	if d <= 0 {
		panic("resmgr: WithPageTimeout duration must be positive")
	}
	return func(b *Browser) {
		b.timeout = d
	}
}

// WithBrowserBin uses a pre-installed Chrome binary instead of the managed one.
func WithBrowserBin(path string) BrowserOption {
	return func(b *Browser) {
		b.bin = path
	}
}

// WithNoSandbox disables the Chrome sandbox (containers, CI).
func WithNoSandbox(disable bool) BrowserOption {
	return func(b *Browser) {
		b.noSandbox = disable
	}
}

// NewBrowser creates a Browser. Chrome is launched lazily by the first Open.
func NewBrowser(opts ...BrowserOption) *Browser {
	b := &Browser{timeout: defaultPageTimeout}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// ensureBrowser lazily launches and connects to Chrome.
func (b *Browser) ensureBrowser() error {
	if b.browser != nil {
		return nil
	}

	l := launcher.New()

	// Use pre-installed browser if specified (Docker/containerized environments)
	bin := b.bin
	if bin == "" {
		bin = os.Getenv("ROD_BROWSER_BIN")
	}
	if bin != "" {
		l = l.Bin(bin)
	}

	// NoSandbox required for CI and containerized environments
	if b.noSandbox || os.Getenv("CI") == "true" || os.Getenv("ROD_NO_SANDBOX") == "1" || bin != "" {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	b.browser = browser
	b.launcher = l
	return nil
}

// Open navigates a new tab to url and waits for it to load.
// The context deadline, if any, replaces the page timeout for the load.
func (b *Browser) Open(ctx context.Context, url string) (*Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	err := b.ensureBrowser()
	browser := b.browser
	b.mu.Unlock()
	if err != nil {
		return nil, err
	}

	rp, err := browser.Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}

	timeout := b.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			_ = rp.Close()
			return nil, context.DeadlineExceeded
		}
	}

	if err := rp.Timeout(timeout).WaitLoad(); err != nil {
		_ = rp.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrPageLoad, url, err)
	}

	pctx, cancel := context.WithCancel(context.Background())
	return &Page{
		page:    rp,
		url:     url,
		timeout: b.timeout,
		ctx:     pctx,
		cancel:  cancel,
	}, nil
}

// Close shuts Chrome down, killing its process group.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browser == nil {
		return nil
	}
	err := b.browser.Close()
	b.browser = nil

	if b.launcher != nil {
		if pid := b.launcher.PID(); pid > 0 {
			process.KillProcessGroup(pid)
		}
		b.launcher.Kill()
		b.launcher = nil
	}
	return err
}

// Page is a Chrome tab exposed as a Document.
type Page struct {
	page    *rod.Page
	url     string
	timeout time.Duration
	ctx     context.Context
	cancel  context.CancelFunc
	nextID  atomic.Int64
}

// URL returns the address the page was opened with.
func (p *Page) URL() string {
	return p.url
}

// Close closes the tab and drops any Manager installed for it.
func (p *Page) Close() error {
	p.cancel()
	Uninstall(p)
	return p.page.Close()
}

// eval runs js with the page timeout and waits for any returned promise.
func (p *Page) eval(js string, args ...any) (*proto.RuntimeRemoteObject, error) {
	ctx, cancel := context.WithTimeout(p.ctx, p.timeout)
	defer cancel()
	return p.page.Context(ctx).Evaluate(rod.Eval(js, args...).ByPromise())
}

// CreateElement returns a detached element. Attributes and handlers are
// buffered until AppendToHead creates the real node.
func (p *Page) CreateElement(tag string) (dom.Element, error) {
	if tag == "" {
		return nil, errors.New("empty tag name")
	}
	return &pageElement{page: p, id: p.nextID.Add(1), tag: tag}, nil
}

// AppendToHead inserts el into document.head. For elements created by this
// page the load and error listeners are attached before insertion.
func (p *Page) AppendToHead(el dom.Element) error {
	switch e := el.(type) {
	case *pageElement:
		if e.page != p {
			return ErrForeignElement
		}
		return e.attach()
	case *queriedElement:
		if e.page != p {
			return ErrForeignElement
		}
		_, err := e.el.Eval(`() => document.head.appendChild(this)`)
		return err
	default:
		return ErrForeignElement
	}
}

// QueryAll returns the elements currently matching selector.
func (p *Page) QueryAll(selector string) ([]dom.Element, error) {
	ctx, cancel := context.WithTimeout(p.ctx, p.timeout)
	defer cancel()

	found, err := p.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, err
	}
	out := make([]dom.Element, len(found))
	for i, el := range found {
		out[i] = &queriedElement{page: p, el: el}
	}
	return out, nil
}

// OnReady runs fn synchronously if the DOM is already parsed, otherwise
// once DOMContentLoaded fires. fn never runs if the page goes away first.
func (p *Page) OnReady(fn func()) {
	res, err := p.eval(jsReadState)
	if err == nil && res.Value.Str() != "loading" {
		fn()
		return
	}
	go func() {
		if _, err := p.page.Context(p.ctx).Evaluate(rod.Eval(jsReady).ByPromise()); err == nil {
			fn()
		}
	}()
}

// pageElement is an element created through a Page.
type pageElement struct {
	page *Page
	id   int64
	tag  string

	mu       sync.Mutex
	attrs    [][2]string
	attached bool
	removed  bool
	onLoad   func()
	onError  func(error)
}

func (e *pageElement) SetAttribute(name, value string) error {
	e.mu.Lock()
	e.setLocal(name, value)
	attached := e.attached
	e.mu.Unlock()

	if !attached {
		return nil
	}
	_, err := e.page.eval(jsSetAttr, e.id, name, value)
	return err
}

func (e *pageElement) setLocal(name, value string) {
	for i := range e.attrs {
		if e.attrs[i][0] == name {
			e.attrs[i][1] = value
			return
		}
	}
	e.attrs = append(e.attrs, [2]string{name, value})
}

func (e *pageElement) Attribute(name string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, kv := range e.attrs {
		if kv[0] == name {
			return kv[1], true
		}
	}
	return "", false
}

func (e *pageElement) OnLoad(fn func()) {
	e.mu.Lock()
	e.onLoad = fn
	e.mu.Unlock()
}

func (e *pageElement) OnError(fn func(error)) {
	e.mu.Lock()
	e.onError = fn
	e.mu.Unlock()
}

func (e *pageElement) Remove() error {
	e.mu.Lock()
	attached, removed := e.attached, e.removed
	e.removed = true
	e.mu.Unlock()

	if !attached || removed {
		return nil
	}
	_, err := e.page.eval(jsRemove, e.id)
	return err
}

// attach creates the node in the page and starts waiting for its events.
func (e *pageElement) attach() error {
	e.mu.Lock()
	if e.attached {
		e.mu.Unlock()
		return nil
	}
	attrs := append([][2]string(nil), e.attrs...)
	e.mu.Unlock()

	if _, err := e.page.eval(jsAppend, e.id, e.tag, attrs); err != nil {
		return err
	}

	e.mu.Lock()
	e.attached = true
	e.mu.Unlock()

	go e.await()
	return nil
}

// await blocks on the in-page settle promise and fires the Go handler.
// A timeout or closed page counts as an error event.
func (e *pageElement) await() {
	res, err := e.page.eval(jsAwait, e.id)

	var cause error
	switch {
	case err != nil:
		cause = err
	case res.Value.Str() != "":
		cause = errLoadEvent
	}

	e.mu.Lock()
	onLoad, onError := e.onLoad, e.onError
	e.mu.Unlock()

	if cause != nil {
		if onError != nil {
			onError(cause)
		}
	} else if onLoad != nil {
		onLoad()
	}

	_, _ = e.page.eval(jsRelease, e.id)
}

// queriedElement wraps an element found by QueryAll. It was already
// present on the page, so load handlers are accepted but never fire.
type queriedElement struct {
	page *Page
	el   *rod.Element
}

func (e *queriedElement) SetAttribute(name, value string) error {
	_, err := e.el.Eval(`(k, v) => this.setAttribute(k, v)`, name, value)
	return err
}

func (e *queriedElement) Attribute(name string) (string, bool) {
	v, err := e.el.Attribute(name)
	if err != nil || v == nil {
		return "", false
	}
	return *v, true
}

func (e *queriedElement) OnLoad(func())       {}
func (e *queriedElement) OnError(func(error)) {}

func (e *queriedElement) Remove() error {
	return e.el.Remove()
}
