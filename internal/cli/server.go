package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/agentskills/marketplace/internal/config"
	"github.com/agentskills/marketplace/internal/server"
	"github.com/agentskills/marketplace/pkg/logger"
)

// ServerCommand returns the server operations command.
func ServerCommand() *cli.Command {
	return &cli.Command{
		Name:    "server",
		Aliases: []string{"s"},
		Usage:   "Server operations",
		Subcommands: []*cli.Command{
			{
				Name:   "start",
				Usage:  "Start the marketplace API server",
				Action: serverStartAction,
			},
		},
	}
}

func serverStartAction(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	// Rebuild the logger from the validated config so level and format
	// follow the configuration rather than the bootstrap flags.
	log := logger.NewLogger(cfg.LoggerConfig())
	cfg.LogConfig(log)

	srv, err := server.New(ctx.Context, cfg, log)
	if err != nil {
		log.Error("Failed to create server", logger.ErrorField(err))
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Run(ctx.Context)
}

func loadConfig(ctx *cli.Context) (*config.AppConfig, error) {
	cfg, err := config.Load(ctx.String("config-file"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
