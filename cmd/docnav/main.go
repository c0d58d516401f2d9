package main

import (
	"fmt"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/docnav/cmd/docnav/commands"
	"git.home.luguber.info/inful/docnav/internal/version"
)

func main() {
	var cli commands.CLI
	ctx := kong.Parse(&cli,
		kong.Name("docnav"),
		kong.Description("Compile a navigation descriptor and markdown docs into a static site."),
		kong.Vars{"version": fmt.Sprintf("docnav %s (%s, built %s)",
			version.Version, version.GitCommit, version.BuildTime)},
	)
	ctx.FatalIfErrorf(ctx.Run(&commands.Global{}))
}
