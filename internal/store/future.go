package store

import (
	"context"
	"sync"
	"sync/atomic"
)

const (
	futurePending int32 = iota
	futureClaimed
	futureDone
)

// Future is the completion handle returned by Dispatch. It resolves with the
// published state once the action has been applied and delivered, or with an
// error when the action was canceled, rejected by the reducer, or the store
// closed first.
type Future[S any] struct {
	id     string
	status atomic.Int32
	done   chan struct{}
	once   sync.Once

	state S
	err   error
}

func newFuture[S any](id string) *Future[S] {
	return &Future[S]{id: id, done: make(chan struct{})}
}

func failedFuture[S any](id string, err error) *Future[S] {
	f := newFuture[S](id)
	f.abort(err)
	return f
}

// ID returns the dispatch identifier used in logs, hooks and the journal.
func (f *Future[S]) ID() string { return f.id }

// Done is closed when the future has resolved.
func (f *Future[S]) Done() <-chan struct{} { return f.done }

// Wait blocks until the future resolves or ctx is done.
func (f *Future[S]) Wait(ctx context.Context) (S, error) {
	select {
	case <-f.done:
		return f.state, f.err
	case <-ctx.Done():
		var zero S
		return zero, ctx.Err()
	}
}

// Err returns the failure of a resolved future. It returns nil while the
// future is pending and after a successful resolution.
func (f *Future[S]) Err() error {
	select {
	case <-f.done:
		return f.err
	default:
		return nil
	}
}

// Cancel prevents a not-yet-applied action from being applied and fails the
// future with ErrDispatchCanceled. It reports false when the action is
// already being applied or the future has resolved.
func (f *Future[S]) Cancel() bool {
	if !f.status.CompareAndSwap(futurePending, futureDone) {
		return false
	}
	var zero S
	f.resolve(zero, ErrDispatchCanceled)
	return true
}

// claim marks the action as being applied. It fails for canceled or aborted futures.
func (f *Future[S]) claim() bool {
	return f.status.CompareAndSwap(futurePending, futureClaimed)
}

func (f *Future[S]) abort(err error) {
	f.status.Store(futureDone)
	var zero S
	f.resolve(zero, err)
}

func (f *Future[S]) complete(state S) {
	f.status.Store(futureDone)
	f.resolve(state, nil)
}

func (f *Future[S]) resolve(state S, err error) {
	f.once.Do(func() {
		f.state = state
		f.err = err
		close(f.done)
	})
}
