package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitebuilder/cmd/sitebuilder/commands"
	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("sitebuilder"),
		kong.Description("Build a static site from structured content, media assets and page templates."),
		kong.UsageOnError(),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	err := parser.Run(&commands.Global{Context: ctx}, cli)
	if err != nil {
		cancel()
		ferrors.NewCLIErrorAdapter(cli.Verbose, nil).HandleError(err)
	}
}
