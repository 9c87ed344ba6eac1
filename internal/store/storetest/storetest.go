// Package storetest provides test utilities for stores.
// It records every published state and offers wait helpers.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"git.home.luguber.info/inful/screenstore/internal/store"
)

// DefaultTimeout bounds every wait helper.
const DefaultTimeout = 2 * time.Second

// Recorder captures the states delivered to one observer.
type Recorder[S any] struct {
	mu     sync.Mutex
	states []S
	notify chan struct{}
}

// NewRecorder creates an unattached recorder.
func NewRecorder[S any]() *Recorder[S] {
	return &Recorder[S]{notify: make(chan struct{}, 1)}
}

// Record subscribes a new recorder to src for the duration of the test.
func Record[S any](t *testing.T, src store.Source[S]) *Recorder[S] {
	t.Helper()
	rec := NewRecorder[S]()
	sub, err := src.Subscribe(t.Context(), rec.Observe)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	t.Cleanup(sub.Unsubscribe)
	return rec
}

// Observe is the store.Observer implementation.
func (r *Recorder[S]) Observe(state S) {
	r.mu.Lock()
	r.states = append(r.states, state)
	r.mu.Unlock()
	select {
	case r.notify <- struct{}{}:
	default:
	}
}

// States returns a copy of the recorded states.
func (r *Recorder[S]) States() []S {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]S, len(r.states))
	copy(out, r.states)
	return out
}

// Len returns the number of recorded states.
func (r *Recorder[S]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.states)
}

// Last returns the most recent state, failing the test when none was recorded.
func (r *Recorder[S]) Last(t *testing.T) S {
	t.Helper()
	states := r.States()
	if len(states) == 0 {
		t.Fatal("no state recorded")
	}
	return states[len(states)-1]
}

// WaitFor blocks until at least n states were recorded and returns them.
func (r *Recorder[S]) WaitFor(t *testing.T, n int) []S {
	t.Helper()
	return r.WaitUntil(t, func(states []S) bool { return len(states) >= n })
}

// WaitUntil blocks until cond holds for the recorded states.
func (r *Recorder[S]) WaitUntil(t *testing.T, cond func([]S) bool) []S {
	t.Helper()
	deadline := time.After(DefaultTimeout)
	for {
		states := r.States()
		if cond(states) {
			return states
		}
		select {
		case <-r.notify:
		case <-deadline:
			t.Fatalf("condition not met within %s; recorded %d states", DefaultTimeout, len(states))
			return nil
		}
	}
}

// MustApply dispatches action and waits for its future, failing the test on error.
func MustApply[S, A any](t *testing.T, s *store.Store[S, A], action A) S {
	t.Helper()
	ctx, cancel := context.WithTimeout(t.Context(), DefaultTimeout)
	defer cancel()
	state, err := s.Dispatch(action).Wait(ctx)
	if err != nil {
		t.Fatalf("dispatch %s: %v", store.ActionName(action), err)
	}
	return state
}
