package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/envelope/cmd/app/commands"
	"github.com/allisson/envelope/internal/app"
)

func getSettingsCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "rotation-settings",
			Usage: "Show the DEK rotation settings",
			Flags: []cli.Flag{formatFlag()},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withContainer(ctx, func(container *app.Container) error {
					settingsUseCase, err := container.SettingsUseCase()
					if err != nil {
						return err
					}

					return commands.RunShowRotationSettings(
						ctx,
						settingsUseCase,
						commands.DefaultIO().Writer,
						cmd.String("format"),
					)
				})
			},
		},
		{
			Name:      "set-rotation-interval",
			Usage:     "Change the DEK rotation interval (hourly, twicedaily, daily or weekly)",
			ArgsUsage: "<interval>",
			Flags:     []cli.Flag{formatFlag()},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withContainer(ctx, func(container *app.Container) error {
					settingsUseCase, err := container.SettingsUseCase()
					if err != nil {
						return err
					}

					return commands.RunSetRotationInterval(
						ctx,
						settingsUseCase,
						container.Logger(),
						commands.DefaultIO().Writer,
						cmd.Args().First(),
						cmd.String("format"),
					)
				})
			},
		},
	}
}
