package store

import (
	ferrors "git.home.luguber.info/inful/screenstore/internal/foundation/errors"
)

var (
	// ErrStoreClosed is returned for any dispatch or subscribe after Close,
	// and fails every Future still queued when Close is called.
	ErrStoreClosed = ferrors.LifecycleError("store is closed").Build()

	// ErrDispatchCanceled fails a Future whose action was canceled before
	// the serial executor reached it.
	ErrDispatchCanceled = ferrors.CanceledError("dispatch canceled").Build()

	// ErrNilObserver is returned by Subscribe for a nil observer.
	ErrNilObserver = ferrors.ValidationError("observer cannot be nil").Build()
)
