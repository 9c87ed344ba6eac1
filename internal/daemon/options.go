package daemon

import (
	"log/slog"

	"git.home.luguber.info/inful/screenstore/internal/relay"
	"git.home.luguber.info/inful/screenstore/internal/screens/bookmarks"
	"git.home.luguber.info/inful/screenstore/internal/screens/history"
	"git.home.luguber.info/inful/screenstore/internal/syncdriver"
)

// Option customizes a Daemon.
type Option func(*Daemon)

// WithConfigPath enables reloading the configuration when path changes.
func WithConfigPath(path string) Option {
	return func(d *Daemon) { d.configPath = path }
}

// WithLevelVar lets configuration reloads adjust the process log level.
func WithLevelVar(v *slog.LevelVar) Option {
	return func(d *Daemon) { d.levelVar = v }
}

// WithLogger sets the daemon logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Daemon) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithPublisher replaces the NATS connection the relay would dial.
func WithPublisher(pub relay.Publisher) Option {
	return func(d *Daemon) { d.publisher = pub }
}

// WithHistorySource overrides the configured history file.
func WithHistorySource(fetch syncdriver.Fetcher[[]history.Item]) Option {
	return func(d *Daemon) { d.historySource = fetch }
}

// WithBookmarksSource overrides the configured bookmarks file.
func WithBookmarksSource(fetch syncdriver.Fetcher[bookmarks.Node]) Option {
	return func(d *Daemon) { d.bookmarksSource = fetch }
}
