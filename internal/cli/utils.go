// Package cli implements the marketplace command tree: server lifecycle,
// migrations, config validation, and the skill installer.
package cli

import (
	"github.com/urfave/cli/v2"

	"github.com/agentskills/marketplace/pkg/logger"
)

// getLogger retrieves the logger from the CLI context metadata.
func getLogger(ctx *cli.Context) logger.Logger {
	if ctx.App.Metadata != nil {
		if log, ok := ctx.App.Metadata["logger"].(logger.Logger); ok {
			return log
		}
	}

	return logger.NewLogger(logger.Config{
		Level:   logger.InfoLevel,
		Format:  "json",
		Service: "skills-marketplace",
	})
}
