// Command prev serves and builds documentation sites with isolated
// component previews.
package main

import (
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/prev/cmd/prev/commands"
	derrors "git.home.luguber.info/inful/prev/internal/foundation/errors"
	"git.home.luguber.info/inful/prev/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("prev"),
		kong.Description("Zero-config documentation site generator with live component previews."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	if err := parser.Run(&commands.Global{}, cli); err != nil {
		os.Exit(derrors.NewCLIErrorAdapter(cli.Verbose, nil).Handle(os.Stderr, err))
	}
}
