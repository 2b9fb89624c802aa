package main

import (
	"fmt"
	"os"

	"github.com/GmS-001/Law-Verdict/internal/config"
	"github.com/GmS-001/Law-Verdict/internal/database"
	"github.com/GmS-001/Law-Verdict/pkg/logger"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lawverdict",
		Short: "Incremental scraper for court judgment PDFs",
		Long: `lawverdict searches the judgment portal for a date window, asks you to solve
its CAPTCHA, then downloads every judgment PDF it has not stored before.

Settings come from the environment or a .env file (PDF_DIR, CSV_DIR,
DATABASE_PATH, HEADLESS_MODE, ...).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(NewScrapeCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads configuration, the logger and an initialized store
func bootstrap() (*config.Config, *logger.Logger, *database.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := database.Initialize(cfg.DatabasePath)
	if err != nil {
		return nil, nil, nil, err
	}

	return cfg, log, database.NewStore(db, log), nil
}
