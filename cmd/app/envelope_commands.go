package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/envelope/cmd/app/commands"
	"github.com/allisson/envelope/internal/app"
)

func getEnvelopeCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:      "encrypt-string",
			Usage:     "Encrypt a value (argument or first line of stdin) into an envelope string",
			ArgsUsage: "[value]",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withContainer(ctx, func(container *app.Container) error {
					envelopeUseCase, err := container.EnvelopeUseCase()
					if err != nil {
						return err
					}

					return commands.RunEncryptString(ctx, envelopeUseCase, commands.DefaultIO(), cmd.Args().First())
				})
			},
		},
		{
			Name:      "decrypt-string",
			Usage:     "Decrypt an envelope string (argument or first line of stdin)",
			ArgsUsage: "[envelope]",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "passthrough",
					Value: false,
					Usage: "Print input that is not an envelope unchanged instead of failing",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withContainer(ctx, func(container *app.Container) error {
					envelopeUseCase, err := container.EnvelopeUseCase()
					if err != nil {
						return err
					}

					return commands.RunDecryptString(
						ctx,
						envelopeUseCase,
						commands.DefaultIO(),
						cmd.Args().First(),
						cmd.Bool("passthrough"),
					)
				})
			},
		},
		{
			Name:  "encrypt-file",
			Usage: "Encrypt a file and write its .meta sidecar",
			Flags: fileFlags("Destination (default: <in>.enc)"),
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withContainer(ctx, func(container *app.Container) error {
					envelopeUseCase, err := container.EnvelopeUseCase()
					if err != nil {
						return err
					}

					return commands.RunEncryptFile(
						ctx,
						envelopeUseCase,
						container.Logger(),
						commands.DefaultIO(),
						cmd.String("in"),
						cmd.String("out"),
					)
				})
			},
		},
		{
			Name:  "decrypt-file",
			Usage: "Decrypt a file using its .meta sidecar",
			Flags: fileFlags("Destination (default: <in> without .enc)"),
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withContainer(ctx, func(container *app.Container) error {
					envelopeUseCase, err := container.EnvelopeUseCase()
					if err != nil {
						return err
					}

					return commands.RunDecryptFile(
						ctx,
						envelopeUseCase,
						container.Logger(),
						commands.DefaultIO(),
						cmd.String("in"),
						cmd.String("out"),
					)
				})
			},
		},
	}
}

func fileFlags(outUsage string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "in",
			Aliases:  []string{"i"},
			Required: true,
			Usage:    "Source file",
		},
		&cli.StringFlag{
			Name:    "out",
			Aliases: []string{"o"},
			Usage:   outUsage,
		},
	}
}
