package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/envelope/cmd/app/commands"
	"github.com/allisson/envelope/internal/app"
)

func getKeyCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-kek",
			Usage: "Generate a new Key Encryption Key (KEK)",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "kms-key-uri",
					Value: "",
					Usage: "Encrypt the KEK with this KMS key (e.g., gcpkms://..., awskms:///alias/..., base64key://...)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withContainer(ctx, func(container *app.Container) error {
					return commands.RunCreateKek(
						ctx,
						container.KMSService(),
						container.Logger(),
						commands.DefaultIO().Writer,
						cmd.String("kms-key-uri"),
					)
				})
			},
		},
		{
			Name:  "rotate-dek",
			Usage: "Generate a new active Data Encryption Key (DEK)",
			Flags: []cli.Flag{formatFlag()},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withContainer(ctx, func(container *app.Container) error {
					container.ReportKekStatus(ctx)

					dekUseCase, err := container.DekUseCase()
					if err != nil {
						return err
					}

					return commands.RunRotateDek(
						ctx,
						dekUseCase,
						container.Logger(),
						commands.DefaultIO().Writer,
						cmd.String("format"),
					)
				})
			},
		},
		{
			Name:  "list-deks",
			Usage: "List Data Encryption Keys without key material",
			Flags: []cli.Flag{formatFlag()},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withContainer(ctx, func(container *app.Container) error {
					dekUseCase, err := container.DekUseCase()
					if err != nil {
						return err
					}

					return commands.RunListDeks(ctx, dekUseCase, commands.DefaultIO().Writer, cmd.String("format"))
				})
			},
		},
		{
			Name:  "prune-deks",
			Usage: "Remove inactive DEKs older than the given age",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:     "max-age-days",
					Aliases:  []string{"d"},
					Required: true,
					Usage:    "Remove inactive DEKs created more than this many days ago",
				},
				&cli.StringSliceFlag{
					Name:    "retain",
					Aliases: []string{"r"},
					Usage:   "DEK id that must be kept regardless of age (repeatable)",
				},
				&cli.BoolFlag{
					Name:    "dry-run",
					Aliases: []string{"n"},
					Value:   false,
					Usage:   "Show which DEKs would be removed without removing them",
				},
				&cli.BoolFlag{
					Name:  "confirm",
					Value: false,
					Usage: "Confirm that data encrypted with removed DEKs becomes unrecoverable",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withContainer(ctx, func(container *app.Container) error {
					dekUseCase, err := container.DekUseCase()
					if err != nil {
						return err
					}

					return commands.RunPruneDeks(
						ctx,
						dekUseCase,
						container.Logger(),
						commands.DefaultIO().Writer,
						int(cmd.Int("max-age-days")),
						cmd.StringSlice("retain"),
						cmd.Bool("dry-run"),
						cmd.Bool("confirm"),
						cmd.String("format"),
					)
				})
			},
		},
	}
}
