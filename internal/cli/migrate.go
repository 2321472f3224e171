package cli

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/urfave/cli/v2"

	"github.com/agentskills/marketplace/internal/store"
	"github.com/agentskills/marketplace/pkg/logger"
)

// MigrateCommand returns the database migration command.
func MigrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Database migration operations",
		Subcommands: []*cli.Command{
			{
				Name:   "up",
				Usage:  "Apply all pending migrations",
				Action: migrateUpAction,
			},
		},
	}
}

func migrateUpAction(ctx *cli.Context) error {
	log := getLogger(ctx)

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	pool, err := pgxpool.New(ctx.Context, cfg.Database.GetConnectionConfig())
	if err != nil {
		return fmt.Errorf("failed to create database pool: %w", err)
	}
	defer pool.Close()

	manager := store.NewMigrationManager(pool, log)
	defer func() {
		if err := manager.Close(); err != nil {
			log.Warn("Failed to close migrator", logger.ErrorField(err))
		}
	}()

	if err := manager.RunMigrations(); err != nil {
		log.Error("Migrations failed", logger.ErrorField(err))
		return fmt.Errorf("migrations failed: %w", err)
	}

	log.Info("Migrations applied")
	return nil
}
