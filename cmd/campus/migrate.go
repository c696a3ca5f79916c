package main

import (
	"github.com/spf13/cobra"

	"campus/companion/internal/config"
	"campus/companion/internal/logging"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending SQLite migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logging.SetGlobal(logging.NewLogger(logging.ParseLevel(cfg.LogLevel)))

			database, err := openMigrated(cfg)
			if err != nil {
				return err
			}
			defer database.Close()

			logging.Info("migrations applied successfully", map[string]any{"db": cfg.DBPath})
			return nil
		},
	}
}
