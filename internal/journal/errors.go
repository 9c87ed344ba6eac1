package journal

import (
	ferrors "git.home.luguber.info/inful/screenstore/internal/foundation/errors"
)

var (
	// ErrOpenFailed indicates the SQLite database could not be opened.
	ErrOpenFailed = ferrors.JournalError("could not open action journal").Build()

	// ErrAppendFailed indicates appending an entry failed.
	ErrAppendFailed = ferrors.JournalError("failed to append journal entry").Build()

	// ErrQueryFailed indicates reading entries failed.
	ErrQueryFailed = ferrors.JournalError("failed to query journal").Build()

	// ErrReplayFailed indicates an entry could not be decoded or reduced.
	ErrReplayFailed = ferrors.JournalError("failed to replay journal").Build()

	// ErrSessionNotFound indicates a session has no entries for a screen.
	ErrSessionNotFound = ferrors.NotFoundError("journal session not found").Build()

	// ErrWriterClosed is returned when entries are submitted after Close.
	ErrWriterClosed = ferrors.LifecycleError("journal writer is closed").Build()
)
