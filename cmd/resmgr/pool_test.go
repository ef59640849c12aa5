package main

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeSession counts opens and closes. Open fails when err is set.
type fakeSession struct {
	id     int
	opens  atomic.Int32
	closed atomic.Bool
	err    error
}

func (s *fakeSession) Open(context.Context, string) (Target, error) {
	s.opens.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return nil, errors.New("fake session has no pages")
}

func (s *fakeSession) Close() error {
	s.closed.Store(true)
	return nil
}

func TestResolvePoolSize(t *testing.T) {
	gomaxprocs := runtime.GOMAXPROCS(0)

	tests := []struct {
		name        string
		flagWorkers int
		want        int
	}{
		{"flag takes priority", 4, 4},
		{"flag=1 for sequential", 1, 1},
		{"flag=0 uses auto calculation", 0, min(max(gomaxprocs/2, 1), 8)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolvePoolSize(tt.flagWorkers)
			if got != tt.want {
				t.Errorf("resolvePoolSize(%d) = %d, want %d", tt.flagWorkers, got, tt.want)
			}
		})
	}
}

func TestSessionPool_LazyCreation(t *testing.T) {
	t.Parallel()

	var created atomic.Int32
	pool := NewSessionPool(2, func() Session {
		return &fakeSession{id: int(created.Add(1))}
	})

	if created.Load() != 0 {
		t.Fatalf("sessions created at pool creation: %d", created.Load())
	}

	s1 := pool.Acquire()
	pool.Release(s1)
	s2 := pool.Acquire()

	if created.Load() != 1 {
		t.Errorf("created = %d, want 1 (released session reused)", created.Load())
	}
	if s1 != s2 {
		t.Error("expected the released session to be reused")
	}
	pool.Release(s2)
}

func TestSessionPool_BlocksAtCapacity(t *testing.T) {
	t.Parallel()

	pool := NewSessionPool(1, func() Session { return &fakeSession{} })
	s := pool.Acquire()

	got := make(chan Session)
	go func() { got <- pool.Acquire() }()

	select {
	case <-got:
		t.Fatal("Acquire should block while the only session is in use")
	case <-time.After(20 * time.Millisecond):
	}

	pool.Release(s)
	select {
	case s2 := <-got:
		if s2 != s {
			t.Error("expected the released session")
		}
	case <-time.After(time.Second):
		t.Fatal("Acquire did not unblock after Release")
	}
}

func TestSessionPool_Close(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var sessions []*fakeSession
	pool := NewSessionPool(3, func() Session {
		s := &fakeSession{}
		mu.Lock()
		sessions = append(sessions, s)
		mu.Unlock()
		return s
	})

	a, b := pool.Acquire(), pool.Acquire()
	pool.Release(a)

	if err := pool.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := pool.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	// Release after close must not panic on the closed channel
	pool.Release(b)

	for i, s := range sessions {
		if !s.closed.Load() {
			t.Errorf("session %d not closed", i)
		}
	}
}

func TestSessionPool_MinimumSize(t *testing.T) {
	t.Parallel()

	pool := NewSessionPool(0, func() Session { return &fakeSession{} })
	if pool.Size() != 1 {
		t.Errorf("Size() = %d, want 1", pool.Size())
	}
}
