package daemon

import (
	"context"
	"errors"
	"net/http"

	"git.home.luguber.info/inful/screenstore/internal/logfields"
	"git.home.luguber.info/inful/screenstore/internal/readyqueue"
	"git.home.luguber.info/inful/screenstore/internal/screens/bookmarks"
	"git.home.luguber.info/inful/screenstore/internal/screens/history"
	"git.home.luguber.info/inful/screenstore/internal/syncdriver"
)

// queueStartupJobs defers work that does not affect the first rendered
// snapshot until the daemon is ready.
func (d *Daemon) queueStartupJobs(ctx context.Context) error {
	var jobs []*readyqueue.Job

	if d.httpServer != nil {
		srv, ln := d.httpServer, d.listener
		jobs = append(jobs, readyqueue.NewJob("metrics-server", d.startup, func() {
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					d.logger.Error("HTTP server failed", logfields.Error(err))
				}
			}()
		}))
	}

	if d.Config().Sync.Enabled {
		syncCtx := context.WithoutCancel(ctx)
		jobs = append(jobs, readyqueue.NewJob("initial-sync", d.startup, func() {
			d.initialSync(syncCtx)
		}))
	}
	// The scheduler runs even with nothing scheduled so a reload can enable sync.
	jobs = append(jobs, readyqueue.NewJob("sync-scheduler", d.startup, d.driver.Start))

	for _, j := range jobs {
		if err := d.ready.Add(j); err != nil {
			return err
		}
	}
	return nil
}

func (d *Daemon) initialSync(ctx context.Context) {
	for _, screen := range []string{history.Name, bookmarks.Name} {
		err := d.driver.RunNow(ctx, screen)
		switch {
		case err == nil:
		case errors.Is(err, syncdriver.ErrUnknownTarget):
			d.logger.Debug("No sync source configured", logfields.Screen(screen))
		default:
			d.logger.Warn("Initial sync failed", logfields.Screen(screen), logfields.Error(err))
		}
	}
}
