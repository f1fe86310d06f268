package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/relkit/cmd/relkit/commands"
	rkerrors "git.home.luguber.info/inful/relkit/internal/errors"
	"git.home.luguber.info/inful/relkit/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("relkit"),
		kong.Description("Release tooling for the Thrones project: packaging, version bumps, whitespace cleanup, minification and a local web server."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	global := commands.NewGlobal()
	err := parser.Run(global, cli)
	if err != nil {
		rkerrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
		os.Exit(1)
	}
}
