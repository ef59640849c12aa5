package resmgr

import (
	"fmt"

	"github.com/alnah/go-resmgr/internal/dom"
)

// injector starts loading one URL into a document.
type injector func(doc dom.Document, url string) *Signal[struct{}]

// injectScript appends <script src=url> to the document head.
func injectScript(doc dom.Document, url string) *Signal[struct{}] {
	return inject(doc, KindScript, url)
}

// injectCSS appends <link rel="stylesheet" type="text/css" href=url> to the document head.
func injectCSS(doc dom.Document, url string) *Signal[struct{}] {
	return inject(doc, KindCSS, url)
}

// injectorFor returns the DOM primitive for kind.
func injectorFor(kind Kind) injector {
	if kind == KindCSS {
		return injectCSS
	}
	return injectScript
}

// inject builds the element for kind, wires its handlers, attaches it and
// only then sets its source, so neither event can fire unobserved.
// The element stays in the document on success and is removed on error.
func inject(doc dom.Document, kind Kind, url string) *Signal[struct{}] {
	sig := newSignal[struct{}]()

	tag, srcAttr := dom.TagScript, dom.AttrSrc
	if kind == KindCSS {
		tag, srcAttr = dom.TagLink, dom.AttrHref
	}

	el, err := doc.CreateElement(tag)
	if err != nil {
		sig.reject(fmt.Errorf("%w: creating <%s>: %v", ErrDocument, tag, err))
		return sig
	}

	el.OnError(func(cause error) {
		_ = el.Remove()
		sig.reject(&LoadError{Kind: kind, URL: url, Err: cause})
	})
	el.OnLoad(func() {
		sig.resolve(struct{}{})
	})

	if kind == KindCSS {
		if err := setAttributes(el, dom.AttrRel, dom.RelStylesheet, dom.AttrType, dom.TypeCSS); err != nil {
			sig.reject(fmt.Errorf("%w: %v", ErrDocument, err))
			return sig
		}
	}

	if err := doc.AppendToHead(el); err != nil {
		sig.reject(fmt.Errorf("%w: appending <%s>: %v", ErrDocument, tag, err))
		return sig
	}

	if err := el.SetAttribute(srcAttr, url); err != nil {
		_ = el.Remove()
		sig.reject(fmt.Errorf("%w: setting %s: %v", ErrDocument, srcAttr, err))
	}
	return sig
}

// setAttributes applies name/value pairs in order.
func setAttributes(el dom.Element, pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if err := el.SetAttribute(pairs[i], pairs[i+1]); err != nil {
			return fmt.Errorf("setting %s: %w", pairs[i], err)
		}
	}
	return nil
}
