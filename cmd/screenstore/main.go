package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/screenstore/cmd/screenstore/commands"
	ferrors "git.home.luguber.info/inful/screenstore/internal/foundation/errors"
	"git.home.luguber.info/inful/screenstore/internal/version"
)

func main() {
	global := commands.NewGlobal(os.Stdout)
	var cli commands.CLI
	parser := kong.Parse(&cli,
		kong.Name("screenstore"),
		kong.Description("Unidirectional state stores for browser screens"),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.Bind(global),
	)
	if err := parser.Run(&cli); err != nil {
		ferrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
	}
}
