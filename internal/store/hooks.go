package store

import (
	"sync"
	"time"
)

// Transition describes one applied action.
type Transition[S, A any] struct {
	Store      string
	DispatchID string
	Version    uint64
	Action     A
	Prev       S
	Next       S
	Took       time.Duration
}

// PanicSource identifies where a recovered panic originated.
type PanicSource string

const (
	PanicInReducer  PanicSource = "reducer"
	PanicInObserver PanicSource = "observer"
)

// PanicInfo describes a panic recovered by the store.
type PanicInfo struct {
	Store      string
	DispatchID string
	Source     PanicSource
	Recovered  any
	Err        error
}

// hooks holds the lifecycle hook state for a Store.
type hooks[S, A any] struct {
	mu         sync.RWMutex
	onDispatch []func(string, A)
	onApplied  []func(Transition[S, A])
	onPanic    []func(PanicInfo)
}

// OnDispatch registers a hook that fires after an action has been queued.
// It runs on the dispatching goroutine and may observe the action after it
// has already been applied.
func (s *Store[S, A]) OnDispatch(fn func(dispatchID string, action A)) {
	s.hooks.mu.Lock()
	s.hooks.onDispatch = append(s.hooks.onDispatch, fn)
	s.hooks.mu.Unlock()
}

// OnApplied registers a hook that fires on the serial executor after a
// transition has been stored and before it is delivered to observers.
func (s *Store[S, A]) OnApplied(fn func(Transition[S, A])) {
	s.hooks.mu.Lock()
	s.hooks.onApplied = append(s.hooks.onApplied, fn)
	s.hooks.mu.Unlock()
}

// OnPanic registers a hook that fires when a reducer or observer panics.
func (s *Store[S, A]) OnPanic(fn func(PanicInfo)) {
	s.hooks.mu.Lock()
	s.hooks.onPanic = append(s.hooks.onPanic, fn)
	s.hooks.mu.Unlock()
}

func (s *Store[S, A]) runOnDispatch(id string, action A) {
	s.hooks.mu.RLock()
	fns := make([]func(string, A), len(s.hooks.onDispatch))
	copy(fns, s.hooks.onDispatch)
	s.hooks.mu.RUnlock()
	for _, fn := range fns {
		s.guardHook("dispatch", func() { fn(id, action) })
	}
}

func (s *Store[S, A]) runOnApplied(t Transition[S, A]) {
	s.hooks.mu.RLock()
	fns := make([]func(Transition[S, A]), len(s.hooks.onApplied))
	copy(fns, s.hooks.onApplied)
	s.hooks.mu.RUnlock()
	for _, fn := range fns {
		s.guardHook("applied", func() { fn(t) })
	}
}

func (s *Store[S, A]) runOnPanic(info PanicInfo) {
	s.hooks.mu.RLock()
	fns := make([]func(PanicInfo), len(s.hooks.onPanic))
	copy(fns, s.hooks.onPanic)
	s.hooks.mu.RUnlock()
	for _, fn := range fns {
		func() {
			defer func() { recover() }() //nolint:errcheck
			fn(info)
		}()
	}
}

func (s *Store[S, A]) guardHook(kind string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Store hook panicked", "store", s.name, "hook", kind, "panic", r)
		}
	}()
	fn()
}
