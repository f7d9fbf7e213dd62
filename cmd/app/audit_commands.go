package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/envelope/cmd/app/commands"
	"github.com/allisson/envelope/internal/app"
)

func getAuditCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "audit-logs",
			Usage: "Show audit log events, newest first",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:    "limit",
					Aliases: []string{"l"},
					Value:   50,
					Usage:   "Maximum number of events to show",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withContainer(ctx, func(container *app.Container) error {
					auditLogUseCase, err := container.AuditLogUseCase()
					if err != nil {
						return err
					}

					return commands.RunAuditLogs(
						ctx,
						auditLogUseCase,
						commands.DefaultIO().Writer,
						int(cmd.Int("limit")),
						cmd.String("format"),
					)
				})
			},
		},
		{
			Name:  "clear-audit-logs",
			Usage: "Remove every audit log event",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withContainer(ctx, func(container *app.Container) error {
					auditLogUseCase, err := container.AuditLogUseCase()
					if err != nil {
						return err
					}

					return commands.RunClearAuditLogs(
						ctx,
						auditLogUseCase,
						container.Logger(),
						commands.DefaultIO().Writer,
					)
				})
			},
		},
		{
			Name:  "verify-audit-logs",
			Usage: "Verify the HMAC signatures of audit log events",
			Flags: []cli.Flag{formatFlag()},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return withContainer(ctx, func(container *app.Container) error {
					auditLogUseCase, err := container.AuditLogUseCase()
					if err != nil {
						return err
					}

					return commands.RunVerifyAuditLogs(
						ctx,
						auditLogUseCase,
						container.Logger(),
						commands.DefaultIO().Writer,
						cmd.String("format"),
					)
				})
			},
		},
	}
}
