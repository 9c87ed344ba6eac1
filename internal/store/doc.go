// Package store implements a generic unidirectional state store.
//
// A Store owns one immutable State value. Callers submit Actions with
// Dispatch; a single serial executor applies them one at a time through a
// pure Reducer and publishes every resulting State to the registered
// observers. Dispatch never blocks and returns a Future that resolves once
// the transition has been applied and delivered.
//
// Lifecycle is Active → Closed. Closing fails all queued Futures with
// ErrStoreClosed and detaches every observer; State keeps returning the last
// published snapshot. Closing twice is a programmer error and panics.
//
// Reducers signal impossible state/action combinations by panicking with a
// programmer error (see foundation/errors.ProgrammerError). The store
// recovers the panic, leaves the state untouched and fails that dispatch's
// Future with the error.
package store
