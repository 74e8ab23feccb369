package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/GarciaKevinFab/academico-sync/cmd/app/commands"
	"github.com/GarciaKevinFab/academico-sync/internal/app"
	"github.com/GarciaKevinFab/academico-sync/internal/config"
)

func getCommands(version string) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "server",
			Usage: "Start the API server, metrics server and delivery worker",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunServer(ctx, version)
			},
		},
		{
			Name:  "worker",
			Usage: "Start the delivery worker only",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunWorker(ctx, version)
			},
		},
		{
			Name:  "reconcile",
			Usage: "Run a reconciliation for one academic period",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "period",
					Aliases:  []string{"p"},
					Required: true,
					Usage:    "Academic period to reconcile (e.g., 2026-I)",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				reconciler, err := container.ReconcilerUseCase()
				if err != nil {
					return err
				}

				return commands.RunReconcile(
					ctx,
					reconciler,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("period"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "migrate",
			Usage: "Run database migrations",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				return commands.RunMigrations(container.Logger(), cfg.DBDriver, cfg.DBConnectionString)
			},
		},
	}
}
