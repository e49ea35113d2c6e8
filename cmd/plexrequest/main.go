package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	logging "github.com/ipfs/go-log/v2"
	"github.com/urfave/cli/v2"

	"github.com/ng-cloudflare/plexrequest/cmd"
)

var log = logging.Logger("plexrequest")

func main() {
	logging.SetLogLevel("*", "info")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.App{
		Name:  "plexrequest",
		Usage: "Accept plex requests from friends and family.",
		Commands: []*cli.Command{
			cmd.ServeCmd,
			cmd.VersionCmd,
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
