package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewMigrateCmd creates the migrate command
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the judgment store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, store, err := bootstrap()
			if err != nil {
				return err
			}
			defer log.Sync()
			defer store.Close()

			if err := store.Initialize(); err != nil {
				return err
			}

			log.Info("Database migrations completed successfully", "path", cfg.DatabasePath)
			fmt.Fprintf(cmd.OutOrStdout(), "store ready at %s\n", cfg.DatabasePath)
			return nil
		},
	}
}
