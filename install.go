package resmgr

import (
	"fmt"
	"sync"

	"github.com/alnah/go-resmgr/internal/dom"
)

// installed holds the one Manager per document.
var (
	installMu sync.Mutex
	installed = make(map[dom.Document]*Manager)
)

// Install returns the Manager for doc, creating it on first use.
// A new Manager schedules Scan for when the document is ready. Later calls
// for the same document return the existing Manager and ignore opts.
func Install(doc Document, opts ...Option) (*Manager, error) {
	if doc == nil {
		return nil, ErrNilDocument
	}

	installMu.Lock()
	if m, ok := installed[doc]; ok {
		installMu.Unlock()
		return m, nil
	}
	m, err := New(doc, opts...)
	if err != nil {
		installMu.Unlock()
		return nil, err
	}
	installed[doc] = m
	installMu.Unlock()

	doc.OnReady(func() {
		if err := m.Scan(); err != nil {
			m.log.Logf("%v", err)
		}
	})
	return m, nil
}

// Installed returns the Manager installed for doc, if any.
func Installed(doc Document) (*Manager, bool) {
	if doc == nil {
		return nil, false
	}
	installMu.Lock()
	defer installMu.Unlock()
	m, ok := installed[doc]
	return m, ok
}

// Uninstall forgets the Manager for doc. Call it when the page goes away.
func Uninstall(doc Document) {
	if doc == nil {
		return
	}
	installMu.Lock()
	delete(installed, doc)
	installMu.Unlock()
}

// Scan seeds the registries with scripts and stylesheets already present
// in the document, marking them fulfilled so they are never injected again.
// URLs that already have a record keep it, so a rejected record is not
// overridden by an element found on the page.
func (m *Manager) Scan() error {
	m.log.Logf("Initializing Resource Manager...")

	if err := m.seed(KindScript, dom.SelectScripts, dom.AttrSrc); err != nil {
		return err
	}
	if n := m.count(KindScript); n > 0 {
		m.log.Logf("Found JS scripts: %d", n)
	}

	if err := m.seed(KindCSS, dom.SelectCSS, dom.AttrHref); err != nil {
		return err
	}
	if n := m.count(KindCSS); n > 0 {
		m.log.Logf("Found CSS: %d", n)
	}
	return nil
}

// seed adds a fulfilled record for every new URL found by selector.
func (m *Manager) seed(kind Kind, selector, attr string) error {
	elements, err := m.doc.QueryAll(selector)
	if err != nil {
		return fmt.Errorf("%w: scanning %s: %v", ErrDocument, selector, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	reg := m.registries[kind]
	for _, el := range elements {
		url, ok := el.Attribute(attr)
		if !ok || url == "" {
			continue
		}
		if _, exists := reg.find(url); exists {
			continue
		}
		reg.create(url, StateFulfilled)
	}
	return nil
}

func (m *Manager) count(kind Kind) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.registries[kind].len()
}
