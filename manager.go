package resmgr

import (
	"sync"

	"github.com/alnah/go-resmgr/internal/dom"
)

// Manager injects scripts and stylesheets into one document and remembers
// what it has loaded. Each URL is injected at most once at a time: callers
// asking for a URL that is already loading share its Signal, and callers
// asking for a URL that already loaded get an immediately resolved Signal.
//
// A Manager is safe for concurrent use.
type Manager struct {
	doc        dom.Document
	log        Logger
	batchLimit int
	inject     [kindCount]injector

	mu         sync.Mutex
	registries [kindCount]*registry
	inflight   [kindCount]map[int]*Signal[Resource]
}

// New creates a Manager for doc. Most callers should use Install, which
// guarantees a single Manager per document.
func New(doc Document, opts ...Option) (*Manager, error) {
	if doc == nil {
		return nil, ErrNilDocument
	}

	m := &Manager{
		doc:        doc,
		log:        NopLogger(),
		batchLimit: DefaultBatchLimit,
	}
	for k := Kind(0); k < kindCount; k++ {
		m.registries[k] = newRegistry(k)
		m.inflight[k] = make(map[int]*Signal[Resource])
		m.inject[k] = injectorFor(k)
	}

	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

// LoadScript loads one or more scripts.
//
// A single URL resolves with that script's Resource. Several URLs are loaded
// in order, one at a time, and resolve with the zero Resource once all have
// loaded (or the batch limit was reached). No URLs resolve immediately.
func (m *Manager) LoadScript(urls ...string) *Signal[Resource] {
	return m.load(KindScript, urls)
}

// LoadCSS loads one or more stylesheets. See LoadScript for the semantics.
func (m *Manager) LoadCSS(urls ...string) *Signal[Resource] {
	return m.load(KindCSS, urls)
}

// LoadPlugin loads every stylesheet of p, then every script. Scripts are not
// attempted when a stylesheet fails; the first error rejects the signal.
func (m *Manager) LoadPlugin(p Plugin) *Signal[struct{}] {
	out := newSignal[struct{}]()
	m.LoadCSS(p.CSS...).Subscribe(func(_ Resource, err error) {
		if err != nil {
			out.reject(err)
			return
		}
		m.LoadScript(p.JS...).Subscribe(func(_ Resource, err error) {
			if err != nil {
				out.reject(err)
				return
			}
			out.resolve(struct{}{})
		})
	})
	return out
}

// load normalizes the URL list and dispatches to the single or batch path.
func (m *Manager) load(kind Kind, urls []string) *Signal[Resource] {
	if len(urls) == 1 {
		return m.loadOne(kind, urls[0])
	}
	return loadSequential(urls, m.batchLimit, func(url string) *Signal[Resource] {
		return m.loadOne(kind, url)
	}, m.log)
}

// loadOne loads a single URL, joining or short-circuiting on its record.
func (m *Manager) loadOne(kind Kind, url string) *Signal[Resource] {
	m.mu.Lock()
	reg := m.registries[kind]
	idx, ok := reg.find(url)
	if !ok {
		if idx, ok = reg.create(url, StateNew); !ok {
			m.mu.Unlock()
			return rejectedSignal[Resource](ErrEmptyURL)
		}
	}

	switch reg.at(idx).state {
	case StateFulfilled:
		res := reg.resource(idx)
		m.mu.Unlock()
		m.log.Logf("%s %s already had been loaded.", titleLabel(kind), url)
		return resolvedSignal(res)
	case StatePending:
		sig := m.inflight[kind][idx]
		m.mu.Unlock()
		return sig
	}

	// new or rejected: start a load. The record is pending before the
	// document sees the element, so concurrent callers join this signal.
	sig := newSignal[Resource]()
	reg.setState(idx, StatePending)
	m.inflight[kind][idx] = sig
	m.mu.Unlock()

	m.inject[kind](m.doc, url).Subscribe(func(_ struct{}, err error) {
		m.settle(kind, idx, sig, err)
	})
	return sig
}

// settle records the outcome of a load and releases its waiters.
func (m *Manager) settle(kind Kind, idx int, sig *Signal[Resource], err error) {
	state := StateFulfilled
	if err != nil {
		state = StateRejected
	}

	m.mu.Lock()
	reg := m.registries[kind]
	reg.setState(idx, state)
	delete(m.inflight[kind], idx)
	res := reg.resource(idx)
	m.mu.Unlock()

	if err != nil {
		m.log.Logf("%s", err.Error())
		sig.reject(err)
		return
	}
	m.log.Logf("%s %s has been loaded.", titleLabel(kind), res.URL)
	sig.resolve(res)
}

// Resources returns a snapshot of every record of kind in insertion order.
func (m *Manager) Resources(kind Kind) []Resource {
	if kind < 0 || kind >= kindCount {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.registries[kind].snapshot()
}

// Resource returns the record for url, if any.
func (m *Manager) Resource(kind Kind, url string) (Resource, bool) {
	if kind < 0 || kind >= kindCount {
		return Resource{}, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	reg := m.registries[kind]
	idx, ok := reg.find(url)
	if !ok {
		return Resource{}, false
	}
	return reg.resource(idx), true
}

// Document returns the document the Manager injects into.
func (m *Manager) Document() Document {
	return m.doc
}

// titleLabel is the capitalized kind used at the start of log lines.
func titleLabel(kind Kind) string {
	if kind == KindCSS {
		return "CSS"
	}
	return "Script"
}
