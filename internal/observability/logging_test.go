package observability

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestContextFieldsAccumulate(t *testing.T) {
	ctx := context.Background()
	ctx = WithStore(ctx, "history")
	ctx = WithDispatchID(ctx, "d-1")
	ctx = WithSession(ctx, "s-1")
	ctx = WithComponent(ctx, "journal")

	lc := GetContext(ctx)
	if lc.Store != "history" || lc.DispatchID != "d-1" || lc.Session != "s-1" || lc.Component != "journal" {
		t.Errorf("unexpected log context: %+v", lc)
	}
	if got := len(Attrs(ctx)); got != 4 {
		t.Errorf("expected 4 attrs, got %d", got)
	}
}

func TestEmptyContextHasNoAttrs(t *testing.T) {
	if got := Attrs(context.Background()); len(got) != 0 {
		t.Errorf("expected no attrs, got %v", got)
	}
}

func TestLogPrependsContextAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	ctx := WithStore(context.Background(), "bookmarks")
	Log(ctx, logger, slog.LevelInfo, "applied", slog.Int("n", 1))

	out := buf.String()
	if !strings.Contains(out, "store=bookmarks") {
		t.Errorf("expected store attr in %q", out)
	}
	if strings.Index(out, "store=") > strings.Index(out, "n=1") {
		t.Errorf("context attrs should precede call attrs: %q", out)
	}
}

func TestLogSkipsDisabledLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	Log(context.Background(), logger, slog.LevelDebug, "noise")
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestPackageLevelHelpersUseDefaultLogger(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })

	ctx := WithComponent(context.Background(), "relay")
	InfoContext(ctx, "info")
	WarnContext(ctx, "warn")
	ErrorContext(ctx, "error")
	DebugContext(ctx, "debug")

	out := buf.String()
	for _, want := range []string{"msg=info", "msg=warn", "msg=error", "msg=debug", "component=relay"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output %q", want, out)
		}
	}
}
