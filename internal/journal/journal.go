// Package journal persists applied store actions and rebuilds screen state
// from them.
package journal

import (
	"context"
	"time"
)

// Entry is one applied action.
type Entry struct {
	ID         int64
	Session    string
	Screen     string
	Version    uint64
	DispatchID string
	Kind       string
	Payload    []byte
	RecordedAt time.Time
}

// SessionInfo summarizes one journal session.
type SessionInfo struct {
	Session   string
	Screen    string
	Entries   int
	FirstSeen time.Time
	LastSeen  time.Time
}

// Journal persists and retrieves entries.
type Journal interface {
	// Append stores one entry.
	Append(ctx context.Context, e Entry) error

	// Entries returns the entries of a session for one screen in version order.
	Entries(ctx context.Context, session, screen string) ([]Entry, error)

	// Sessions lists recorded sessions, most recent first.
	Sessions(ctx context.Context) ([]SessionInfo, error)

	// Close closes the journal and releases resources.
	Close() error
}
