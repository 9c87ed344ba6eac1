// Package daemon wires the screen stores to their collaborators for the
// long-running `run` command.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	prom "github.com/prometheus/client_golang/prometheus"
	promcollect "github.com/prometheus/client_golang/prometheus/collectors"

	"git.home.luguber.info/inful/screenstore/internal/config"
	"git.home.luguber.info/inful/screenstore/internal/executor"
	"git.home.luguber.info/inful/screenstore/internal/journal"
	"git.home.luguber.info/inful/screenstore/internal/logfields"
	"git.home.luguber.info/inful/screenstore/internal/metrics"
	"git.home.luguber.info/inful/screenstore/internal/readyqueue"
	"git.home.luguber.info/inful/screenstore/internal/relay"
	"git.home.luguber.info/inful/screenstore/internal/screens/bookmarks"
	"git.home.luguber.info/inful/screenstore/internal/screens/collections"
	"git.home.luguber.info/inful/screenstore/internal/screens/history"
	"git.home.luguber.info/inful/screenstore/internal/store"
	"git.home.luguber.info/inful/screenstore/internal/syncdriver"
)

// Status represents the lifecycle state of the daemon.
type Status string

const (
	StatusStopped  Status = "stopped"
	StatusStarting Status = "starting"
	StatusRunning  Status = "running"
	StatusStopping Status = "stopping"
)

// Daemon owns the screen stores and everything observing them.
type Daemon struct {
	configPath string
	levelVar   *slog.LevelVar
	logger     *slog.Logger
	session    string
	startTime  time.Time
	status     atomic.Value
	closed     atomic.Bool

	mu  sync.RWMutex
	cfg *config.Config

	History     *history.Store
	Bookmarks   *bookmarks.Store
	Collections *collections.Store
	deliveries  []*executor.Serial

	registry *prom.Registry
	recorder metrics.Recorder

	journal *journal.SQLiteJournal
	writer  *journal.Writer

	publisher relay.Publisher
	nats      *relay.NATSClient
	relay     *relay.Relay

	historySource   syncdriver.Fetcher[[]history.Item]
	bookmarksSource syncdriver.Fetcher[bookmarks.Node]
	driver          *syncdriver.Driver

	ready      *readyqueue.Queue
	startup    *executor.Serial
	listener   net.Listener
	httpServer *http.Server
	watcher    *config.Watcher
}

// New builds a stopped daemon from cfg.
func New(cfg *config.Config, opts ...Option) (*Daemon, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	d := &Daemon{cfg: cfg, logger: slog.Default()}
	for _, opt := range opts {
		opt(d)
	}
	d.status.Store(StatusStopped)
	d.session = cfg.Journal.Session
	if d.session == "" {
		d.session = uuid.NewString()
	}
	d.ready = readyqueue.New(d.logger)
	d.startup = executor.NewSerial("startup", executor.WithPanicHandler(func(r any) {
		d.logger.Error("Deferred startup job panicked", logfields.Panic(r))
	}))

	d.recorder = metrics.NoopRecorder{}
	if cfg.Metrics.Enabled {
		d.registry = prom.NewRegistry()
		d.registry.MustRegister(promcollect.NewGoCollector(), promcollect.NewProcessCollector(promcollect.ProcessCollectorOpts{}))
		d.recorder = metrics.NewPrometheusRecorder(d.registry)
	}

	d.History = history.NewStore(history.Initial(), d.storeOptions(history.Name)...)
	d.Bookmarks = bookmarks.NewStore(bookmarks.Initial(nil), d.storeOptions(bookmarks.Name)...)
	d.Collections = collections.NewStore(collections.Initial(collections.StepSelectTabs, nil), d.storeOptions(collections.Name)...)
	metrics.Instrument(d.recorder, d.History)
	metrics.Instrument(d.recorder, d.Bookmarks)
	metrics.Instrument(d.recorder, d.Collections)

	if cfg.Journal.Enabled {
		if err := d.openJournal(cfg.Journal.Path); err != nil {
			d.abort()
			return nil, err
		}
	}

	driver, err := syncdriver.New(
		syncdriver.WithTimeout(cfg.Sync.TimeoutDuration()),
		syncdriver.WithLogger(d.logger),
		syncdriver.WithRecorder(d.recorder))
	if err != nil {
		d.abort()
		return nil, err
	}
	d.driver = driver
	if err := d.registerSyncTargets(); err != nil {
		_ = d.driver.Stop()
		d.abort()
		return nil, err
	}

	d.logger.Debug("Daemon configured",
		logfields.Session(d.session),
		slog.Bool("journal", cfg.Journal.Enabled),
		slog.Bool("relay", cfg.Relay.Enabled),
		slog.Bool("metrics", cfg.Metrics.Enabled))
	return d, nil
}

func (d *Daemon) storeOptions(name string) []store.Option {
	opts := []store.Option{store.WithLogger(d.logger.With(logfields.Store(name)))}
	if d.cfg.Store.Delivery == config.DeliverySerial {
		exec := executor.NewSerial(name + "-delivery")
		d.deliveries = append(d.deliveries, exec)
		opts = append(opts, store.WithDeliveryExecutor(exec))
	}
	return opts
}

func (d *Daemon) openJournal(path string) error {
	j, err := journal.OpenSQLite(path)
	if err != nil {
		return err
	}
	d.journal = j
	d.writer = journal.NewWriter(j, d.logger)
	d.writer.SetRecorder(d.recorder)
	journal.Attach(d.writer, d.session, d.History, history.Codec)
	journal.Attach(d.writer, d.session, d.Bookmarks, bookmarks.Codec)
	journal.Attach(d.writer, d.session, d.Collections, collections.Codec)
	return nil
}

func (d *Daemon) registerSyncTargets() error {
	interval := time.Duration(0)
	if d.cfg.Sync.Enabled {
		interval = d.cfg.Sync.IntervalDuration()
	}
	historySource := d.historySource
	if historySource == nil && d.cfg.Sync.HistoryFile != "" {
		historySource = syncdriver.JSONFile[[]history.Item](d.cfg.Sync.HistoryFile)
	}
	if historySource != nil {
		if err := d.driver.Register(syncdriver.HistoryTarget(d.History, historySource), interval); err != nil {
			return err
		}
	}
	bookmarksSource := d.bookmarksSource
	if bookmarksSource == nil && d.cfg.Sync.BookmarksFile != "" {
		bookmarksSource = syncdriver.JSONFile[bookmarks.Node](d.cfg.Sync.BookmarksFile)
	}
	if bookmarksSource != nil {
		if err := d.driver.Register(syncdriver.BookmarksTarget(d.Bookmarks, bookmarksSource), interval); err != nil {
			return err
		}
	}
	return nil
}

// Session identifies the journal session of this run.
func (d *Daemon) Session() string { return d.session }

// GetStatus returns the lifecycle status.
func (d *Daemon) GetStatus() Status { return d.status.Load().(Status) }

// Config returns the active configuration.
func (d *Daemon) Config() *config.Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cfg
}

// Ready reports whether deferred startup work has been released.
func (d *Daemon) Ready() bool { return d.ready.Executed() }

// MetricsAddr returns the address the HTTP endpoint listens on, or "".
func (d *Daemon) MetricsAddr() string {
	if d.listener == nil {
		return ""
	}
	return d.listener.Addr().String()
}

// Start connects the relay, publishes the initial snapshots and then releases
// the deferred startup work. A failed Start releases everything the daemon
// holds; the daemon cannot be started again.
func (d *Daemon) Start(ctx context.Context) error {
	if d.closed.Load() {
		return fmt.Errorf("daemon closed")
	}
	if d.GetStatus() != StatusStopped {
		return fmt.Errorf("daemon already started")
	}
	d.status.Store(StatusStarting)
	d.startTime = time.Now()
	d.logger.Info("Starting screenstore daemon", logfields.Session(d.session))

	if err := d.start(ctx); err != nil {
		d.logger.Error("Daemon failed to start", logfields.Error(err))
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		if terr := d.teardown(stopCtx); terr != nil {
			d.logger.Warn("Cleanup after failed start incomplete", logfields.Error(terr))
		}
		d.status.Store(StatusStopped)
		return err
	}

	d.status.Store(StatusRunning)
	d.publishInitialSnapshots()
	started := d.ready.Start()
	d.logger.Info("Daemon ready", slog.Int("deferred_jobs", started))
	return nil
}

func (d *Daemon) start(ctx context.Context) error {
	cfg := d.Config()
	if cfg.Relay.Enabled {
		if err := d.startRelay(ctx, cfg.Relay); err != nil {
			return err
		}
	}

	if cfg.Metrics.Enabled {
		ln, err := net.Listen("tcp", cfg.Metrics.ListenAddr)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", cfg.Metrics.ListenAddr, err)
		}
		d.listener = ln
		d.httpServer = &http.Server{Handler: d.Handler(), ReadHeaderTimeout: 5 * time.Second}
	}

	if err := d.queueStartupJobs(ctx); err != nil {
		return err
	}

	if d.configPath != "" {
		w, err := config.NewWatcher(d.configPath, 0, d.ReloadConfig)
		if err != nil {
			return err
		}
		d.watcher = w
		if err := w.Start(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (d *Daemon) startRelay(ctx context.Context, cfg config.RelayConfig) error {
	pub := d.publisher
	if pub == nil {
		client, err := relay.ConnectNATS(ctx, relay.NATSOptions{URL: cfg.NATSURL, KVBucket: cfg.KVBucket})
		if err != nil {
			return err
		}
		d.nats = client
		pub = client
	}
	d.relay = relay.New(pub, cfg.SubjectPrefix, relay.WithLogger(d.logger), relay.WithRecorder(d.recorder), relay.WithRetry(cfg.Retry.Policy()))
	// Subscriptions end with the stores; Close detaches them.
	if _, err := relay.Attach[history.State](context.Background(), d.relay, history.Name, d.History); err != nil {
		return err
	}
	if _, err := relay.Attach[bookmarks.State](context.Background(), d.relay, bookmarks.Name, d.Bookmarks); err != nil {
		return err
	}
	if _, err := relay.Attach[collections.State](context.Background(), d.relay, collections.Name, d.Collections); err != nil {
		return err
	}
	return nil
}

// publishInitialSnapshots hands the current state of every screen to the
// relay so followers render before any action is dispatched.
func (d *Daemon) publishInitialSnapshots() {
	if d.relay == nil {
		return
	}
	submit := func(screen string, version uint64, state any) {
		if err := d.relay.Submit(screen, version, state); err != nil {
			d.logger.Warn("Initial snapshot not published", logfields.Screen(screen), logfields.Error(err))
		}
	}
	submit(history.Name, d.History.Version(), d.History.State())
	submit(bookmarks.Name, d.Bookmarks.Version(), d.Bookmarks.State())
	submit(collections.Name, d.Collections.Version(), d.Collections.State())
}

// Run starts the daemon and blocks until ctx is done, then stops it.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	return d.Stop(stopCtx)
}

// Stop shuts components down in reverse order of start.
func (d *Daemon) Stop(ctx context.Context) error {
	switch d.GetStatus() {
	case StatusStopped, StatusStopping:
		return nil
	}
	d.status.Store(StatusStopping)
	d.logger.Info("Stopping screenstore daemon")

	err := d.teardown(ctx)

	d.status.Store(StatusStopped)
	d.logger.Info("Daemon stopped", slog.Duration("uptime", time.Since(d.startTime)))
	return err
}

// teardown releases every component. The stores are closed afterwards, so
// it runs at most once.
func (d *Daemon) teardown(ctx context.Context) error {
	d.closed.Store(true)

	var errs []error
	if d.watcher != nil {
		if err := d.watcher.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("config watcher: %w", err))
		}
	}
	if err := d.driver.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("sync scheduler: %w", err))
	}
	if d.httpServer != nil {
		if err := d.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http server: %w", err))
		}
	}
	if d.listener != nil {
		// Shutdown only closes listeners that were served.
		if err := d.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			errs = append(errs, fmt.Errorf("listener: %w", err))
		}
	}
	d.startup.Close()

	d.closeStores()

	if d.relay != nil {
		if err := d.relay.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("relay: %w", err))
		}
	}
	if d.nats != nil {
		if err := d.nats.Close(); err != nil {
			errs = append(errs, fmt.Errorf("nats: %w", err))
		}
	}
	if d.writer != nil {
		if err := d.writer.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("journal writer: %w", err))
		}
	}
	if d.journal != nil {
		if err := d.journal.Close(); err != nil {
			errs = append(errs, fmt.Errorf("journal: %w", err))
		}
	}
	return errors.Join(errs...)
}

// abort releases what New acquired before failing.
func (d *Daemon) abort() {
	d.startup.Close()
	d.closeStores()
	if d.writer != nil {
		_ = d.writer.Close(context.Background())
	}
	if d.journal != nil {
		_ = d.journal.Close()
	}
}

func (d *Daemon) closeStores() {
	for _, st := range []interface {
		Closed() bool
		Close() error
	}{d.History, d.Bookmarks, d.Collections} {
		if !st.Closed() {
			_ = st.Close()
		}
	}
	for _, exec := range d.deliveries {
		exec.Close()
	}
}
