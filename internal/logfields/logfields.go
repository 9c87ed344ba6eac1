package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyStore      = "store"
	KeyScreen     = "screen"
	KeyAction     = "action"
	KeyDispatchID = "dispatch_id"
	KeyVersion    = "version"
	KeySubscriber = "subscriber"
	KeySession    = "session"
	KeySubject    = "subject"
	KeyJob        = "job"
	KeySchedule   = "schedule_name"
	KeyPath       = "path"
	KeyDurationMS = "duration_ms"
	KeyPanic      = "panic"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Store(name string) slog.Attr     { return slog.String(KeyStore, name) }
func Screen(name string) slog.Attr    { return slog.String(KeyScreen, name) }
func Action(name string) slog.Attr    { return slog.String(KeyAction, name) }
func DispatchID(id string) slog.Attr  { return slog.String(KeyDispatchID, id) }
func Version(v uint64) slog.Attr      { return slog.Uint64(KeyVersion, v) }
func Subscriber(id uint64) slog.Attr  { return slog.Uint64(KeySubscriber, id) }
func Session(id string) slog.Attr     { return slog.String(KeySession, id) }
func Subject(s string) slog.Attr      { return slog.String(KeySubject, s) }
func Job(name string) slog.Attr       { return slog.String(KeyJob, name) }
func ScheduleName(n string) slog.Attr { return slog.String(KeySchedule, n) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Panic(v any) slog.Attr           { return slog.Any(KeyPanic, v) }
func Took(d time.Duration) slog.Attr  { return DurationMS(float64(d.Microseconds()) / 1000) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
