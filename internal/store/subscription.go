package store

import (
	"context"
	"sync"
	"sync/atomic"

	ferrors "git.home.luguber.info/inful/screenstore/internal/foundation/errors"
)

// Observer receives every state published after it subscribed.
type Observer[S any] func(state S)

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	id     uint64
	active *atomic.Bool
	once   sync.Once
	stop   func()

	mu      sync.Mutex
	release func() bool
}

// ID returns the subscriber identifier used in logs.
func (sub *Subscription) ID() uint64 { return sub.id }

// Active reports whether the subscription still receives states.
func (sub *Subscription) Active() bool { return sub.active.Load() }

// Unsubscribe stops delivery immediately: when it returns, the observer is
// not running and will not be called again. Calling it from inside the
// observer is allowed. It is idempotent.
func (sub *Subscription) Unsubscribe() {
	sub.once.Do(sub.stop)
}

type subscriber[S any] struct {
	id       uint64
	observer Observer[S]
	active   atomic.Bool
	lastSeq  atomic.Uint64

	// callMu is held for the whole observer call. caller is the goroutine
	// running that call, zero when idle.
	callMu sync.Mutex
	caller atomic.Uint64
}

// halt ends delivery. Once it returns no observer call is running or can
// start, except when halt is reached from inside that observer's own call.
func (sub *subscriber[S]) halt() {
	sub.active.Store(false)
	if id := goroutineID(); id != 0 && sub.caller.Load() == id {
		return
	}
	sub.callMu.Lock()
	sub.callMu.Unlock() //nolint:staticcheck // waits out an in-flight call
}

// accept reports whether version should be delivered and records it as seen.
func (sub *subscriber[S]) accept(version uint64) bool {
	if !sub.active.Load() {
		return false
	}
	for {
		last := sub.lastSeq.Load()
		if last >= version {
			return false
		}
		if sub.lastSeq.CompareAndSwap(last, version) {
			return true
		}
	}
}

// Subscribe registers observer for every state published from now on. The
// subscription ends when ctx is done or Unsubscribe is called, whichever
// comes first.
func (s *Store[S, A]) Subscribe(ctx context.Context, observer Observer[S]) (*Subscription, error) {
	if observer == nil {
		return nil, ErrNilObserver
	}
	if err := ctx.Err(); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryCanceled, "subscription context already done").
			WithContext("store", s.name).
			Build()
	}

	sub := &subscriber[S]{
		id:       s.nextSubID.Add(1),
		observer: observer,
	}
	sub.active.Store(true)

	s.subsMu.Lock()
	if s.closed.Load() {
		s.subsMu.Unlock()
		return nil, ErrStoreClosed.WithContext("store", s.name)
	}
	sub.lastSeq.Store(s.current.Load().version)
	s.subs[sub.id] = sub
	s.subsMu.Unlock()

	handle := &Subscription{id: sub.id, active: &sub.active}
	handle.stop = func() {
		s.removeSubscriber(sub.id)
		sub.halt()
		handle.mu.Lock()
		release := handle.release
		handle.mu.Unlock()
		if release != nil {
			release()
		}
	}
	handle.mu.Lock()
	handle.release = context.AfterFunc(ctx, handle.Unsubscribe)
	handle.mu.Unlock()

	s.logger.Debug("Observer subscribed", "store", s.name, "subscriber", sub.id)
	return handle, nil
}

// SubscriberCount returns the number of active subscribers.
//
// This is primarily intended for tests and diagnostics.
func (s *Store[S, A]) SubscriberCount() int {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	return len(s.subs)
}

func (s *Store[S, A]) removeSubscriber(id uint64) {
	s.subsMu.Lock()
	delete(s.subs, id)
	s.subsMu.Unlock()
}

// subscribers returns a copy of the registry so delivery never iterates a map
// that observers may mutate by unsubscribing.
func (s *Store[S, A]) subscribers() []*subscriber[S] {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	out := make([]*subscriber[S], 0, len(s.subs))
	for _, sub := range s.subs {
		out = append(out, sub)
	}
	return out
}

func (s *Store[S, A]) detachAll() int {
	s.subsMu.Lock()
	subs := s.subs
	s.subs = make(map[uint64]*subscriber[S])
	s.subsMu.Unlock()
	for _, sub := range subs {
		sub.active.Store(false)
	}
	return len(subs)
}
