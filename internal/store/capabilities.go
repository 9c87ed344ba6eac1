package store

import "context"

// Dispatcher is the capability collaborators use to submit actions.
type Dispatcher[S, A any] interface {
	Dispatch(action A) *Future[S]
}

// Source is the read side of a store: snapshots and change notifications.
type Source[S any] interface {
	State() S
	Version() uint64
	Subscribe(ctx context.Context, observer Observer[S]) (*Subscription, error)
}

var (
	_ Dispatcher[int, int] = (*Store[int, int])(nil)
	_ Source[int]          = (*Store[int, int])(nil)
)
