package daemon

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/screenstore/internal/config"
	"git.home.luguber.info/inful/screenstore/internal/logfields"
)

// ReloadConfig applies the parts of cfg that can change at runtime: the log
// level and the sync schedule. Other changes take effect on restart.
func (d *Daemon) ReloadConfig(_ context.Context, cfg *config.Config) {
	d.mu.Lock()
	prev := d.cfg
	d.cfg = cfg
	d.mu.Unlock()

	if d.levelVar != nil && prev.Log.Level != cfg.Log.Level {
		d.levelVar.Set(cfg.Log.Level.SlogLevel())
		d.logger.Info("Log level changed", slog.String("level", string(cfg.Log.Level)))
	}

	if prev.Sync.Enabled != cfg.Sync.Enabled || prev.Sync.Interval != cfg.Sync.Interval {
		interval := cfg.Sync.IntervalDuration()
		if !cfg.Sync.Enabled {
			interval = 0
		}
		if err := d.driver.Reschedule(interval); err != nil {
			d.logger.Error("Failed to reschedule sync", logfields.Error(err))
		} else {
			d.logger.Info("Sync rescheduled", slog.Duration("interval", interval))
		}
	}

	if prev.Journal != cfg.Journal || prev.Relay != cfg.Relay || prev.Metrics != cfg.Metrics || prev.Store != cfg.Store {
		d.logger.Warn("Configuration changes outside log and sync require a restart")
	}
}
