package resmgr

import "github.com/alnah/go-resmgr/internal/dom"

// Document is the page capability a Manager injects resources into.
// See NewBrowser for a Chrome-backed page and ParseHTMLDocument for a
// static HTML tree.
type Document = dom.Document

// Element is a node created by or found in a Document.
type Element = dom.Element
