// Package commands implements the screenstore CLI.
package commands

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/screenstore/internal/config"
	ferrors "git.home.luguber.info/inful/screenstore/internal/foundation/errors"
)

// Global carries state shared by every command.
type Global struct {
	Out    io.Writer
	Log    io.Writer
	Level  *slog.LevelVar
	Format config.LogFormat
}

// NewGlobal returns a Global writing command output to out and logs to stderr.
func NewGlobal(out io.Writer) *Global {
	return &Global{Out: out, Log: os.Stderr, Level: new(slog.LevelVar)}
}

// SetLogFormat installs the default slog handler for format.
func (g *Global) SetLogFormat(format config.LogFormat) {
	g.Format = format
	opts := &slog.HandlerOptions{Level: g.Level}
	var handler slog.Handler = slog.NewTextHandler(g.Log, opts)
	if format == config.LogFormatJSON {
		handler = slog.NewJSONHandler(g.Log, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// CLI definition & global flags.
type CLI struct {
	Config    string           `short:"c" help:"Configuration file path" default:"screenstore.yaml"`
	Verbose   bool             `short:"v" help:"Enable verbose logging"`
	LogFormat string           `name:"log-format" help:"Log output format (text, json); defaults to log.format from the configuration"`
	Version   kong.VersionFlag `name:"version" help:"Show version and exit"`

	Run      RunCmd      `cmd:"" help:"Run the daemon: stores, journal, relay, sync and metrics"`
	Apply    ApplyCmd    `cmd:"" help:"Dispatch a scripted action sequence and print every published state"`
	Replay   ReplayCmd   `cmd:"" help:"Rebuild a screen state from the journal"`
	Sessions SessionsCmd `cmd:"" help:"List journal sessions"`
	Init     InitCmd     `cmd:"" help:"Initialize a new configuration file"`
}

// AfterApply runs after flag parsing; setup logging once.
func (c *CLI) AfterApply(g *Global) error {
	switch c.LogFormat {
	case "", string(config.LogFormatText), string(config.LogFormatJSON):
	default:
		return ferrors.ValidationError("unsupported log format").
			WithContext("format", c.LogFormat).
			Build()
	}
	if c.Verbose {
		g.Level.Set(slog.LevelDebug)
	}
	g.SetLogFormat(config.NormalizeLogFormat(c.LogFormat))
	return nil
}

// applyLogConfig lets the configuration choose what the flags left unset.
func applyLogConfig(g *Global, root *CLI, cfg *config.Config) {
	if !root.Verbose {
		g.Level.Set(cfg.Log.Level.SlogLevel())
	}
	if root.LogFormat == "" && cfg.Log.Format != g.Format {
		g.SetLogFormat(cfg.Log.Format)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	return enc.Encode(v)
}
