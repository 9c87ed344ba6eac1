package journal

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	ferrors "git.home.luguber.info/inful/screenstore/internal/foundation/errors"
)

// SQLiteJournal implements Journal using SQLite.
type SQLiteJournal struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ Journal = (*SQLiteJournal)(nil)

// OpenSQLite opens or creates a journal database.
// Use ":memory:" for an in-memory database, or a file path for persistent storage.
func OpenSQLite(dbPath string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryJournal, ErrOpenFailed.Message()).
			WithContext("path", dbPath).
			Build()
	}
	// An in-memory database exists per connection.
	db.SetMaxOpenConns(1)

	j := &SQLiteJournal{db: db}
	if err := j.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, ferrors.WrapError(err, ferrors.CategoryJournal, ErrOpenFailed.Message()).
			WithContext("path", dbPath).
			WithContext("stage", "schema").
			Build()
	}
	return j, nil
}

func (j *SQLiteJournal) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS actions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session TEXT NOT NULL,
		screen TEXT NOT NULL,
		version INTEGER NOT NULL,
		dispatch_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		payload BLOB,
		recorded_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_actions_session_screen ON actions(session, screen, version);
	CREATE INDEX IF NOT EXISTS idx_actions_recorded_at ON actions(recorded_at);
	`
	_, err := j.db.Exec(schema)
	return err
}

// Append adds an entry to the journal.
func (j *SQLiteJournal) Append(ctx context.Context, e Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	recordedAt := e.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now()
	}
	_, err := j.db.ExecContext(ctx,
		"INSERT INTO actions (session, screen, version, dispatch_id, kind, payload, recorded_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		e.Session, e.Screen, int64(e.Version), e.DispatchID, e.Kind, e.Payload, recordedAt.UnixMilli(),
	)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryJournal, ErrAppendFailed.Message()).
			WithContext("session", e.Session).
			WithContext("screen", e.Screen).
			WithContext("kind", e.Kind).
			Build()
	}
	return nil
}

// Entries retrieves the entries of a session for one screen.
func (j *SQLiteJournal) Entries(ctx context.Context, session, screen string) ([]Entry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	rows, err := j.db.QueryContext(ctx,
		"SELECT id, session, screen, version, dispatch_id, kind, payload, recorded_at FROM actions WHERE session = ? AND screen = ? ORDER BY version, id",
		session, screen,
	)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryJournal, ErrQueryFailed.Message()).Build()
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var version, recordedAt int64
		if err := rows.Scan(&e.ID, &e.Session, &e.Screen, &version, &e.DispatchID, &e.Kind, &e.Payload, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Version = uint64(version)
		e.RecordedAt = time.UnixMilli(recordedAt)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return entries, nil
}

// Sessions lists every (session, screen) pair, most recently active first.
func (j *SQLiteJournal) Sessions(ctx context.Context) ([]SessionInfo, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	rows, err := j.db.QueryContext(ctx, `
		SELECT session, screen, COUNT(*), MIN(recorded_at), MAX(recorded_at)
		FROM actions
		GROUP BY session, screen
		ORDER BY MAX(recorded_at) DESC, session, screen`)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryJournal, ErrQueryFailed.Message()).Build()
	}
	defer rows.Close()

	var out []SessionInfo
	for rows.Next() {
		var info SessionInfo
		var first, last int64
		if err := rows.Scan(&info.Session, &info.Screen, &info.Entries, &first, &last); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		info.FirstSeen = time.UnixMilli(first)
		info.LastSeen = time.UnixMilli(last)
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// Close closes the database connection.
func (j *SQLiteJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.db.Close()
}
