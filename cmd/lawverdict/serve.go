package main

import (
	"github.com/GmS-001/Law-Verdict/internal/server"
	"github.com/spf13/cobra"
)

// NewServeCmd creates the serve command
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the operator HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, log, store, err := bootstrap()
			if err != nil {
				return err
			}
			defer log.Sync()
			defer store.Close()

			log.Info("Starting Law Verdict scraper",
				"host", cfg.Host,
				"port", cfg.Port,
				"portal", cfg.PortalURL,
			)

			return server.New(cfg, store, log).Run()
		},
	}
}
