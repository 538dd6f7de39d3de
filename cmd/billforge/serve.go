package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/billforge/core/logger"
	"github.com/dmitrymomot/billforge/core/server"
	"github.com/dmitrymomot/billforge/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := app.NewLogger(cfg)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		rt, err := app.Bootstrap(ctx, cfg, log)
		if err != nil {
			log.Error("bootstrap failed", logger.Error(err))
			return err
		}
		defer func() {
			cctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := rt.Close(cctx); err != nil {
				log.Error("failed to close connections", logger.Error(err))
			}
		}()

		srv, err := server.NewFromConfig(cfg.Server, server.WithLogger(log))
		if err != nil {
			return err
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(srv.Run(gctx, rt.App.Handler()))
		return g.Wait()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
