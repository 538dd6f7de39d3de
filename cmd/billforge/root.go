package main

import (
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/billforge/core/config"
	"github.com/dmitrymomot/billforge/internal/app"
)

var rootCmd = &cobra.Command{
	Use:   "billforge",
	Short: "Bill generation API with weekly credit quotas",
	Long: `billforge renders fuel and rent bills and stores them per account.

Anonymous visitors get a small weekly allowance tracked in a signed cookie.
Signed-in accounts are tracked in the configured ledger backend
(memory, mongo, redis or postgres).

Configuration is read from the environment and an optional .env file.`,
	SilenceUsage: true,
}

func loadConfig() (app.Config, error) {
	var cfg app.Config
	if err := config.Load(&cfg); err != nil {
		return app.Config{}, err
	}
	return cfg, nil
}
