package main

import (
	"runtime"
	"sync"
)

// Pool abstracts session pool operations for testability.
type Pool interface {
	Acquire() Session
	Release(Session)
	Size() int
}

// SessionPool manages a pool of Session instances for parallel page loads.
// Each Chrome session has its own browser instance, enabling true parallelism.
// Sessions are created lazily on first acquire to avoid startup delay.
type SessionPool struct {
	size     int
	factory  func() Session
	sessions []Session
	sem      chan Session
	mu       sync.Mutex
	created  int
	closed   bool
}

// Compile-time check that SessionPool implements Pool.
var _ Pool = (*SessionPool)(nil)

// NewSessionPool creates a pool with capacity for n sessions built by factory.
// Sessions are created lazily when acquired, not at pool creation.
func NewSessionPool(n int, factory func() Session) *SessionPool {
	if n < 1 {
		n = 1
	}

	return &SessionPool{
		size:     n,
		factory:  factory,
		sessions: make([]Session, 0, n),
		sem:      make(chan Session, n),
	}
}

// Acquire gets a session from the pool, creating one if needed.
// Blocks if all sessions are in use.
func (p *SessionPool) Acquire() Session {
	// Try to get an existing session (non-blocking)
	select {
	case s := <-p.sem:
		return s
	default:
	}

	// Check if we can create a new session
	p.mu.Lock()
	if p.created < p.size {
		p.created++
		p.mu.Unlock()

		// Create new session outside the lock
		s := p.factory()

		p.mu.Lock()
		p.sessions = append(p.sessions, s)
		p.mu.Unlock()

		return s
	}
	p.mu.Unlock()

	// All sessions created, wait for one to be released
	return <-p.sem
}

// Release returns a session to the pool.
func (p *SessionPool) Release(s Session) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.closed {
		p.sem <- s
	}
}

// Close releases all browser resources.
func (p *SessionPool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.sem)
	sessions := p.sessions
	p.mu.Unlock()

	var lastErr error
	for _, s := range sessions {
		if err := s.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// Size returns the pool capacity.
func (p *SessionPool) Size() int {
	return p.size
}

// resolvePoolSize determines the optimal pool size.
// Priority: explicit flag > GOMAXPROCS-based calculation.
func resolvePoolSize(flagWorkers int) int {
	// Explicit flag takes priority
	if flagWorkers > 0 {
		return flagWorkers
	}

	// Auto-calculate based on GOMAXPROCS (adjusted by automaxprocs for containers)
	available := runtime.GOMAXPROCS(0)
	n := available / 2

	// Minimum 1, maximum 8
	if n < 1 {
		return 1
	}
	if n > 8 {
		return 8
	}
	return n
}
