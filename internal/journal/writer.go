package journal

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"git.home.luguber.info/inful/screenstore/internal/executor"
	"git.home.luguber.info/inful/screenstore/internal/logfields"
	"git.home.luguber.info/inful/screenstore/internal/metrics"
	"git.home.luguber.info/inful/screenstore/internal/screens"
	"git.home.luguber.info/inful/screenstore/internal/store"
)

// appendTimeout bounds a single background append.
const appendTimeout = 5 * time.Second

// Writer appends entries in the background, in submission order, so store
// hooks never wait on disk I/O.
type Writer struct {
	journal  Journal
	logger   *slog.Logger
	recorder metrics.Recorder
	serial   *executor.Serial

	written atomic.Uint64
	failed  atomic.Uint64
}

// NewWriter starts a background writer for j.
func NewWriter(j Journal, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	w := &Writer{journal: j, logger: logger, recorder: metrics.NoopRecorder{}}
	w.serial = executor.NewSerial("journal", executor.WithPanicHandler(func(r any) {
		w.failed.Add(1)
		w.logger.Error("Journal append panicked", logfields.Panic(r))
	}))
	return w
}

// SetRecorder reports append outcomes to rec. Call before the first Submit.
func (w *Writer) SetRecorder(rec metrics.Recorder) {
	if rec != nil {
		w.recorder = rec
	}
}

// Submit queues e for appending. It fails with ErrWriterClosed after Close.
func (w *Writer) Submit(e Entry) error {
	if e.RecordedAt.IsZero() {
		e.RecordedAt = time.Now()
	}
	err := w.serial.Execute(func() {
		ctx, cancel := context.WithTimeout(context.Background(), appendTimeout)
		defer cancel()
		if err := w.journal.Append(ctx, e); err != nil {
			w.failed.Add(1)
			w.recorder.IncJournalWrite(metrics.ResultFailed)
			w.logger.Error("Journal append failed",
				logfields.Session(e.Session),
				logfields.Screen(e.Screen),
				logfields.Version(e.Version),
				logfields.Error(err))
			return
		}
		w.written.Add(1)
		w.recorder.IncJournalWrite(metrics.ResultSuccess)
	})
	if err != nil {
		return ErrWriterClosed.WithContext("screen", e.Screen)
	}
	return nil
}

// Written returns the number of entries appended successfully.
func (w *Writer) Written() uint64 { return w.written.Load() }

// Failed returns the number of entries that could not be appended.
func (w *Writer) Failed() uint64 { return w.failed.Load() }

// Close stops accepting entries and waits until queued entries are written
// or ctx is done.
func (w *Writer) Close(ctx context.Context) error {
	w.serial.Close()
	select {
	case <-w.serial.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Attach records every transition applied by st under session.
func Attach[S, A any](w *Writer, session string, st *store.Store[S, A], codec *screens.Codec[A]) {
	st.OnApplied(func(tr store.Transition[S, A]) {
		env, err := codec.Encode(tr.Action)
		if err != nil {
			w.logger.Warn("Action not journaled", logfields.Store(tr.Store), logfields.Error(err))
			return
		}
		if err := w.Submit(Entry{
			Session:    session,
			Screen:     codec.Screen(),
			Version:    tr.Version,
			DispatchID: tr.DispatchID,
			Kind:       env.Kind,
			Payload:    env.Payload,
		}); err != nil {
			w.logger.Debug("Action not journaled", logfields.Store(tr.Store), logfields.Error(err))
		}
	})
}
