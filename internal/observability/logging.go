package observability

import (
	"context"
	"log/slog"
)

// LogContext holds structured logging context information.
type LogContext struct {
	Store      string
	DispatchID string
	Session    string
	Component  string
}

type logContextKeyType string

const logContextKey logContextKeyType = "log-context"

// WithStore adds a store name to the context.
func WithStore(ctx context.Context, store string) context.Context {
	lc := extractLogContext(ctx)
	lc.Store = store
	return context.WithValue(ctx, logContextKey, lc)
}

// WithDispatchID adds a dispatch ID to the context.
func WithDispatchID(ctx context.Context, id string) context.Context {
	lc := extractLogContext(ctx)
	lc.DispatchID = id
	return context.WithValue(ctx, logContextKey, lc)
}

// WithSession adds a journal session ID to the context.
func WithSession(ctx context.Context, session string) context.Context {
	lc := extractLogContext(ctx)
	lc.Session = session
	return context.WithValue(ctx, logContextKey, lc)
}

// WithComponent adds a component name to the context.
func WithComponent(ctx context.Context, component string) context.Context {
	lc := extractLogContext(ctx)
	lc.Component = component
	return context.WithValue(ctx, logContextKey, lc)
}

func extractLogContext(ctx context.Context) LogContext {
	if lc, ok := ctx.Value(logContextKey).(LogContext); ok {
		return lc
	}
	return LogContext{}
}

// Attrs returns slog attributes from the context's LogContext.
func Attrs(ctx context.Context) []slog.Attr {
	lc := extractLogContext(ctx)
	attrs := []slog.Attr{}

	if lc.Store != "" {
		attrs = append(attrs, slog.String("store", lc.Store))
	}
	if lc.DispatchID != "" {
		attrs = append(attrs, slog.String("dispatch_id", lc.DispatchID))
	}
	if lc.Session != "" {
		attrs = append(attrs, slog.String("session", lc.Session))
	}
	if lc.Component != "" {
		attrs = append(attrs, slog.String("component", lc.Component))
	}

	return attrs
}

// Log writes msg at level on logger, prefixed with the context's attributes.
// A nil logger falls back to slog.Default().
func Log(ctx context.Context, logger *slog.Logger, level slog.Level, msg string, attrs ...slog.Attr) {
	if logger == nil {
		logger = slog.Default()
	}
	if !logger.Enabled(ctx, level) {
		return
	}
	all := append(Attrs(ctx), attrs...)
	logger.LogAttrs(ctx, level, msg, all...)
}

// InfoContext logs an info message with context information.
func InfoContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	Log(ctx, nil, slog.LevelInfo, msg, attrs...)
}

// WarnContext logs a warning message with context information.
func WarnContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	Log(ctx, nil, slog.LevelWarn, msg, attrs...)
}

// ErrorContext logs an error message with context information.
func ErrorContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	Log(ctx, nil, slog.LevelError, msg, attrs...)
}

// DebugContext logs a debug message with context information.
func DebugContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	Log(ctx, nil, slog.LevelDebug, msg, attrs...)
}

// GetContext returns the structured log context from the provided context.
func GetContext(ctx context.Context) LogContext {
	return extractLogContext(ctx)
}
