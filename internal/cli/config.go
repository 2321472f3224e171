package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/agentskills/marketplace/pkg/logger"
)

// ConfigCommand returns the configuration operations command.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Configuration operations",
		Subcommands: []*cli.Command{
			{
				Name:   "validate",
				Usage:  "Load and validate the configuration",
				Action: configValidateAction,
			},
		},
	}
}

func configValidateAction(ctx *cli.Context) error {
	log := getLogger(ctx)

	if _, err := loadConfig(ctx); err != nil {
		log.Error("Configuration validation failed", logger.ErrorField(err))
		return err
	}

	log.Info("Configuration validation passed")
	fmt.Println("Configuration is valid")
	return nil
}
