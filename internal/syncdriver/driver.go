package syncdriver

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"

	ferrors "git.home.luguber.info/inful/screenstore/internal/foundation/errors"
	"git.home.luguber.info/inful/screenstore/internal/logfields"
	"git.home.luguber.info/inful/screenstore/internal/metrics"
)

// ErrUnknownTarget is returned by RunNow for unregistered targets.
var ErrUnknownTarget = ferrors.NotFoundError("unknown sync target").Build()

// Driver schedules sync targets on a gocron scheduler.
type Driver struct {
	scheduler gocron.Scheduler
	timeout   time.Duration
	logger    *slog.Logger
	recorder  metrics.Recorder

	mu      sync.Mutex
	targets map[string]Target
	jobs    map[string]uuid.UUID
}

// Option configures a Driver.
type Option func(*Driver)

// WithTimeout bounds a single sync run.
func WithTimeout(d time.Duration) Option {
	return func(dr *Driver) {
		if d > 0 {
			dr.timeout = d
		}
	}
}

// WithLogger sets the driver logger.
func WithLogger(logger *slog.Logger) Option {
	return func(dr *Driver) {
		if logger != nil {
			dr.logger = logger
		}
	}
}

// WithRecorder reports sync durations to rec.
func WithRecorder(rec metrics.Recorder) Option {
	return func(dr *Driver) {
		if rec != nil {
			dr.recorder = rec
		}
	}
}

// New creates a stopped driver.
func New(opts ...Option) (*Driver, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	d := &Driver{
		scheduler: s,
		timeout:   30 * time.Second,
		logger:    slog.Default(),
		recorder:  metrics.NoopRecorder{},
		targets:   make(map[string]Target),
		jobs:      make(map[string]uuid.UUID),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Register adds t. A positive interval also schedules it periodically.
func (d *Driver) Register(t Target, interval time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.targets[t.Name()]; exists {
		return ferrors.ValidationError("sync target already registered").
			WithContext("screen", t.Name()).
			Build()
	}
	d.targets[t.Name()] = t
	if interval <= 0 {
		return nil
	}
	return d.scheduleLocked(t, interval)
}

func (d *Driver) scheduleLocked(t Target, interval time.Duration) error {
	job, err := d.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(d.runScheduled, t.Name()),
		gocron.WithName(t.Name()+"-sync"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule %s sync: %w", t.Name(), err)
	}
	d.jobs[t.Name()] = job.ID()
	return nil
}

// Reschedule replaces the interval of every target. A non-positive interval
// unschedules them; they stay available to RunNow.
func (d *Driver) Reschedule(interval time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for name, id := range d.jobs {
		if err := d.scheduler.RemoveJob(id); err != nil {
			return fmt.Errorf("failed to unschedule %s sync: %w", name, err)
		}
		delete(d.jobs, name)
	}
	if interval <= 0 {
		return nil
	}
	for _, t := range d.targets {
		if err := d.scheduleLocked(t, interval); err != nil {
			return err
		}
	}
	return nil
}

// Scheduled reports how many targets run periodically.
func (d *Driver) Scheduled() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.jobs)
}

// Start begins periodic execution.
func (d *Driver) Start() {
	d.logger.Info("Starting sync scheduler")
	d.scheduler.Start()
}

// Stop shuts the scheduler down, waiting for running syncs.
func (d *Driver) Stop() error {
	d.logger.Info("Stopping sync scheduler")
	return d.scheduler.Shutdown()
}

// RunNow syncs the named target once and waits for it.
func (d *Driver) RunNow(ctx context.Context, name string) error {
	d.mu.Lock()
	t, ok := d.targets[name]
	d.mu.Unlock()
	if !ok {
		return ErrUnknownTarget.WithContext("screen", name)
	}
	return d.run(ctx, t)
}

func (d *Driver) runScheduled(name string) {
	if err := d.RunNow(context.Background(), name); err != nil {
		d.logger.Warn("Scheduled sync failed", logfields.Screen(name), logfields.Error(err))
	}
}

func (d *Driver) run(ctx context.Context, t Target) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	err := t.Run(ctx)
	took := time.Since(start)

	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultFailed
	}
	d.recorder.ObserveSyncDuration(t.Name(), took, result)
	d.logger.Debug("Sync finished",
		logfields.Screen(t.Name()),
		logfields.Took(took),
		slog.String("result", string(result)))
	return err
}
