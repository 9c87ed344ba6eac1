// Package relay publishes store snapshots to NATS subjects so out-of-process
// renderers can follow a screen.
package relay

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"

	"git.home.luguber.info/inful/screenstore/internal/executor"
	ferrors "git.home.luguber.info/inful/screenstore/internal/foundation/errors"
	"git.home.luguber.info/inful/screenstore/internal/logfields"
	"git.home.luguber.info/inful/screenstore/internal/metrics"
	"git.home.luguber.info/inful/screenstore/internal/retry"
	"git.home.luguber.info/inful/screenstore/internal/store"
)

const publishTimeout = 30 * time.Second

// Publisher delivers an encoded snapshot to a subject.
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// Message is the wire form of a published snapshot.
type Message struct {
	Screen      string          `json:"screen"`
	Version     uint64          `json:"version"`
	State       json.RawMessage `json:"state"`
	PublishedAt time.Time       `json:"published_at"`
}

// Relay forwards snapshots to a Publisher off the store goroutine.
type Relay struct {
	pub      Publisher
	prefix   string
	logger   *slog.Logger
	recorder metrics.Recorder
	policy   retry.Policy
	serial   *executor.Serial

	published atomic.Uint64
	failed    atomic.Uint64
}

// Option configures a Relay.
type Option func(*Relay)

// WithLogger sets the relay logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithRecorder reports publish outcomes to rec.
func WithRecorder(rec metrics.Recorder) Option {
	return func(r *Relay) {
		if rec != nil {
			r.recorder = rec
		}
	}
}

// WithRetry retries failed publishes under p.
func WithRetry(p retry.Policy) Option {
	return func(r *Relay) { r.policy = p }
}

// New creates a relay publishing under prefix.
func New(pub Publisher, prefix string, opts ...Option) *Relay {
	r := &Relay{
		pub:      pub,
		prefix:   prefix,
		logger:   slog.Default(),
		recorder: metrics.NoopRecorder{},
		policy:   retry.NewPolicy(retry.ModeFixed, 0, 0, 0),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.serial = executor.NewSerial("relay", executor.WithPanicHandler(func(rec any) {
		r.failed.Add(1)
		r.logger.Error("Relay publish panicked", logfields.Panic(rec))
	}))
	return r
}

// Subject returns the subject snapshots of screen are published on.
func (r *Relay) Subject(screen string) string {
	if r.prefix == "" {
		return screen
	}
	return r.prefix + "." + screen
}

// Published returns the number of snapshots delivered to the publisher.
func (r *Relay) Published() uint64 { return r.published.Load() }

// Failed returns the number of snapshots the publisher rejected.
func (r *Relay) Failed() uint64 { return r.failed.Load() }

// Submit encodes state and queues it for publishing.
func (r *Relay) Submit(screen string, version uint64, state any) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryRelay, "failed to encode snapshot").
			WithContext("screen", screen).
			Build()
	}
	data, err := json.Marshal(Message{
		Screen:      screen,
		Version:     version,
		State:       raw,
		PublishedAt: time.Now().UTC(),
	})
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryRelay, "failed to encode message").Build()
	}
	subject := r.Subject(screen)
	if err := r.serial.Execute(func() { r.publish(subject, version, data) }); err != nil {
		return ErrRelayClosed.WithContext("screen", screen)
	}
	return nil
}

func (r *Relay) publish(subject string, version uint64, data []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	err := retry.Do(ctx, r.policy, func(ctx context.Context) error {
		return r.pub.Publish(ctx, subject, data)
	})
	if err != nil {
		r.failed.Add(1)
		r.recorder.IncRelayPublish(subject, metrics.ResultFailed)
		r.logger.Warn("Snapshot not published",
			logfields.Subject(subject),
			logfields.Version(version),
			logfields.Error(err))
		return
	}
	r.published.Add(1)
	r.recorder.IncRelayPublish(subject, metrics.ResultSuccess)
}

// Close stops accepting snapshots and waits for queued ones or ctx.
func (r *Relay) Close(ctx context.Context) error {
	r.serial.Close()
	select {
	case <-r.serial.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Attach subscribes to src and relays every published state until ctx ends.
func Attach[S any](ctx context.Context, r *Relay, screen string, src store.Source[S]) (*store.Subscription, error) {
	return src.Subscribe(ctx, func(state S) {
		if err := r.Submit(screen, src.Version(), state); err != nil {
			r.logger.Debug("Snapshot dropped", logfields.Screen(screen), logfields.Error(err))
		}
	})
}
