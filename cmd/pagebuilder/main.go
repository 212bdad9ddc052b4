package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pagebuilder/internal/config"
	"pagebuilder/internal/logging"
	"pagebuilder/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "pagebuilder",
	Short: "Bilingual proposal, progress and Meta-Ads page builder",
	Long: `pagebuilder serves the operator dashboard API and the public
proposal, progress and Meta-Ads pages.

Running it without a subcommand is the same as "pagebuilder serve".`,
	SilenceUsage: true,
	RunE:         runServe,
}

func main() {
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd, hashPasswordCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads configuration, builds the logger and opens the database with
// migrations applied.
func setup(ctx context.Context, migrate bool) (config.Config, *zap.Logger, *sql.DB, store.Dialect, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, nil, "", err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.Production())
	if err != nil {
		return config.Config{}, nil, nil, "", err
	}
	db, dialect, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return config.Config{}, nil, nil, "", fmt.Errorf("database connection failed: %w", err)
	}
	if migrate {
		if err := store.ApplyMigrations(ctx, db, dialect); err != nil {
			_ = db.Close()
			return config.Config{}, nil, nil, "", fmt.Errorf("migrations failed: %w", err)
		}
	}
	return cfg, logger, db, dialect, nil
}
