package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/ng-cloudflare/plexrequest/cmd/cliutil"
	"github.com/ng-cloudflare/plexrequest/internal/telemetry"
	"github.com/ng-cloudflare/plexrequest/pkg/aws"
	"github.com/ng-cloudflare/plexrequest/pkg/config"
	"github.com/ng-cloudflare/plexrequest/pkg/server"
)

var ServeCmd = &cli.Command{
	Name:  "serve",
	Usage: "Run the plex request server locally.",
	Flags: ServeFlags,
	Action: func(cCtx *cli.Context) error {
		ctx := cCtx.Context

		app, err := config.LoadConfig(cCtx)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg, err := aws.NewConfig(ctx, app)
		if err != nil {
			return err
		}

		if err := telemetry.SetupErrorReporting(app.Telemetry.SentryDSN, app.Telemetry.SentryEnvironment); err != nil {
			return err
		}
		defer telemetry.Flush()

		service, err := aws.Construct(cfg)
		if err != nil {
			return fmt.Errorf("constructing service: %w", err)
		}
		svr, err := service.Server()
		if err != nil {
			return fmt.Errorf("creating server: %w", err)
		}

		addr := fmt.Sprintf(":%d", app.Server.Port)
		if err := svr.Start(addr); err != nil {
			return fmt.Errorf("starting server: %w", err)
		}
		cliutil.PrintHero(fmt.Sprintf("http://localhost:%d%s", app.Server.Port, server.NewRequestPath), string(app.DeploymentMode()))

		<-ctx.Done()
		log.Info("shutting down")

		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := svr.Shutdown(stopCtx); err != nil {
			return fmt.Errorf("stopping server: %w", err)
		}
		return nil
	},
}
