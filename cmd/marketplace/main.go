package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	commands "github.com/agentskills/marketplace/internal/cli"
	"github.com/agentskills/marketplace/pkg/logger"
)

func main() {
	app := &cli.App{
		Name:    "marketplace",
		Usage:   "Agent skills marketplace service and tooling",
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "config-file",
				Value:   "",
				Usage:   "Path to configuration file",
				EnvVars: []string{"CONFIG_FILE"},
			},
		},
		Before: func(ctx *cli.Context) error {
			log := logger.NewLogger(logger.Config{
				Level:   logger.ParseLevel(ctx.String("log-level")),
				Format:  "json",
				Service: "skills-marketplace",
			})

			ctx.App.Metadata = map[string]interface{}{
				"logger": log,
			}
			return nil
		},
		Commands: []*cli.Command{
			commands.ServerCommand(),
			commands.MigrateCommand(),
			commands.ConfigCommand(),
			commands.SkillCommand(),
		},
	}

	if err := app.RunContext(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
