package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/docaggregator/cmd/docaggregator/commands"
	foundationerrors "git.home.luguber.info/inful/docaggregator/internal/foundation/errors"
	"git.home.luguber.info/inful/docaggregator/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var cli commands.CLI
	g := commands.NewGlobal(ctx, stdout, stderr)
	parser, err := kong.New(&cli,
		kong.Name("docaggregator"),
		kong.Description("Aggregate documentation content from git repositories into component versions."),
		kong.UsageOnError(),
		kong.Writers(stdout, stderr),
		kong.Vars{"version": version.String()},
		kong.Bind(g),
	)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 1
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "docaggregator: error: %v\n", err)
		return 2
	}
	if err := kctx.Run(&cli); err != nil {
		return foundationerrors.NewCLIErrorAdapter(cli.Verbose, g.Logger).Report(stderr, err)
	}
	return 0
}
