package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/envelope/internal/app"
	"github.com/allisson/envelope/internal/config"
)

func getCommands(version string) []*cli.Command {
	cmds := []*cli.Command{}
	cmds = append(cmds, getSystemCommands(version)...)
	cmds = append(cmds, getKeyCommands()...)
	cmds = append(cmds, getEnvelopeCommands()...)
	cmds = append(cmds, getAuditCommands()...)
	cmds = append(cmds, getSettingsCommands()...)
	return cmds
}

// withContainer builds a container from the environment, runs fn and shuts the
// container down afterwards.
func withContainer(ctx context.Context, fn func(container *app.Container) error) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	container := app.NewContainer(cfg)
	defer func() { _ = container.Shutdown(ctx) }()

	return fn(container)
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Value:   "text",
		Usage:   "Output format: 'text' or 'json'",
	}
}
