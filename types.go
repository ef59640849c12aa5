package resmgr

import "fmt"

// Kind identifies a resource registry.
type Kind int

// Resource kinds.
const (
	KindScript Kind = iota
	KindCSS

	kindCount = 2
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindScript:
		return "script"
	case KindCSS:
		return "css"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// label is the kind name as it appears in log lines and errors.
func (k Kind) label() string {
	if k == KindCSS {
		return "CSS"
	}
	return "script"
}

// State is the load state of a resource record.
type State int

// Resource states.
const (
	StateNew State = iota
	StatePending
	StateFulfilled
	StateRejected
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StatePending:
		return "pending"
	case StateFulfilled:
		return "fulfilled"
	case StateRejected:
		return "rejected"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Resource is a snapshot of a registry record.
type Resource struct {
	Kind  Kind
	URL   string
	State State
}

// Plugin is a bundle of stylesheets and scripts loaded together, CSS first.
type Plugin struct {
	Name string
	CSS  []string
	JS   []string
}

// String returns the plugin name, or a summary when unnamed.
func (p Plugin) String() string {
	if p.Name != "" {
		return p.Name
	}
	return fmt.Sprintf("plugin(%d css, %d js)", len(p.CSS), len(p.JS))
}

// DefaultBatchLimit is the maximum number of URLs a single batch loads.
const DefaultBatchLimit = 20

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the status line sink. A nil logger disables logging.
func WithLogger(l Logger) Option {
	return func(m *Manager) {
		if l == nil {
			l = NopLogger()
		}
		m.log = l
	}
}

// WithBatchLimit sets the batch iteration ceiling.
// Panics if n <= 0 (programmer error, similar to time.NewTicker).
func WithBatchLimit(n int) Option {
	if n <= 0 {
		panic("resmgr: WithBatchLimit must be positive")
	}
	return func(m *Manager) {
		m.batchLimit = n
	}
}
