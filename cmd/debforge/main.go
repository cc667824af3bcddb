package main

import (
	"fmt"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/debforge/cmd/debforge/commands"
	"git.home.luguber.info/inful/debforge/internal/version"
)

func main() {
	cli := commands.CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("debforge"),
		kong.Description("Build Debian packages in sbuild chroots and publish them to a package repository."),
		kong.UsageOnError(),
		kong.Vars{
			"version": fmt.Sprintf("debforge %s (commit %s, built %s)", version.Version, version.GitCommit, version.BuildTime),
		},
	)
	ctx.FatalIfErrorf(ctx.Run(&commands.Global{}, &cli))
}
