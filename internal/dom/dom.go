// Package dom defines the document capability the resource manager drives.
//
// A Document is anything that can create elements, attach them to its head,
// and answer selector queries for elements already present. Implementations
// include a live Chrome page, a parsed static HTML tree, and test fakes.
package dom

// Element tags and attributes used for resource injection.
const (
	TagScript = "script"
	TagLink   = "link"

	AttrSrc  = "src"
	AttrHref = "href"
	AttrRel  = "rel"
	AttrType = "type"

	RelStylesheet = "stylesheet"
	TypeCSS       = "text/css"
)

// Selectors used by the startup scan.
const (
	SelectScripts = "script"
	SelectCSS     = `link[type="text/css"]`
)

// Element is a single node in a Document.
//
// Handlers registered with OnLoad and OnError fire at most once per load
// attempt and may run on any goroutine. Handlers must be registered before
// the element is attached, otherwise the event can be missed.
type Element interface {
	SetAttribute(name, value string) error
	Attribute(name string) (string, bool)
	OnLoad(fn func())
	OnError(fn func(cause error))
	Remove() error
}

// Document is the page a resource manager injects into.
type Document interface {
	CreateElement(tag string) (Element, error)
	AppendToHead(el Element) error
	QueryAll(selector string) ([]Element, error)

	// OnReady runs fn once the document has finished parsing.
	// If it already has, fn runs before OnReady returns.
	OnReady(fn func())
}
