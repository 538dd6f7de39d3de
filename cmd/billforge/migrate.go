package main

import (
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/billforge/internal/app"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the postgres ledger schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return app.Migrate(cmd.Context(), cfg, app.NewLogger(cfg))
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
