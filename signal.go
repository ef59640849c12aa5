package resmgr

import (
	"context"
	"sync"
)

// Signal is a completion handle that settles exactly once, with either a
// value or an error. Every caller that joins an in-flight load receives the
// same Signal and observes the same outcome.
//
// The zero value is not usable; signals are created by the Manager.
type Signal[T any] struct {
	mu          sync.Mutex
	done        chan struct{}
	settled     bool
	value       T
	err         error
	subscribers []func(T, error)
}

func newSignal[T any]() *Signal[T] {
	return &Signal[T]{done: make(chan struct{})}
}

// resolvedSignal returns a signal already settled with v.
func resolvedSignal[T any](v T) *Signal[T] {
	s := newSignal[T]()
	s.settle(v, nil)
	return s
}

// rejectedSignal returns a signal already settled with err.
func rejectedSignal[T any](err error) *Signal[T] {
	s := newSignal[T]()
	var zero T
	s.settle(zero, err)
	return s
}

// settle records the outcome and notifies subscribers.
// Returns false if the signal had already settled; the first outcome wins.
func (s *Signal[T]) settle(v T, err error) bool {
	s.mu.Lock()
	if s.settled {
		s.mu.Unlock()
		return false
	}
	s.settled = true
	s.value = v
	s.err = err
	subs := s.subscribers
	s.subscribers = nil
	close(s.done)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(v, err)
	}
	return true
}

func (s *Signal[T]) resolve(v T) bool {
	return s.settle(v, nil)
}

func (s *Signal[T]) reject(err error) bool {
	var zero T
	return s.settle(zero, err)
}

// Subscribe registers fn to run once the signal settles.
// If the signal has already settled, fn runs immediately on the caller's goroutine.
// Otherwise fn runs on the goroutine that settles the signal.
func (s *Signal[T]) Subscribe(fn func(T, error)) {
	s.mu.Lock()
	if !s.settled {
		s.subscribers = append(s.subscribers, fn)
		s.mu.Unlock()
		return
	}
	v, err := s.value, s.err
	s.mu.Unlock()
	fn(v, err)
}

// Done returns a channel closed when the signal settles.
func (s *Signal[T]) Done() <-chan struct{} {
	return s.done
}

// Settled reports whether the signal has an outcome.
func (s *Signal[T]) Settled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settled
}

// Result returns the outcome without blocking.
// Before the signal settles it returns the zero value and a nil error.
func (s *Signal[T]) Result() (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, s.err
}

// Wait blocks until the signal settles or ctx is done.
// Cancelling ctx stops the wait, not the load.
func (s *Signal[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-s.done:
		return s.Result()
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Err blocks until the signal settles and returns its error.
func (s *Signal[T]) Err() error {
	<-s.done
	_, err := s.Result()
	return err
}
