package commands

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/screenstore/internal/config"
	"git.home.luguber.info/inful/screenstore/internal/daemon"
)

// RunCmd implements the 'run' command.
type RunCmd struct {
	NoWatch bool `name:"no-watch" help:"Do not reload the configuration when the file changes"`
}

func (r *RunCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	applyLogConfig(g, root, cfg)

	opts := []daemon.Option{daemon.WithLevelVar(g.Level), daemon.WithLogger(slog.Default())}
	if !r.NoWatch {
		opts = append(opts, daemon.WithConfigPath(root.Config))
	}
	d, err := daemon.New(cfg, opts...)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	slog.Info("Daemon starting, waiting for shutdown signal", "session", d.Session())
	if err := d.Run(ctx); err != nil {
		return err
	}
	slog.Info("Daemon stopped successfully")
	return nil
}
