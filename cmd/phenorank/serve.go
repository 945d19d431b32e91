package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/phenorank/internal/api"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	runner, _, err := a.runner(ctx)
	if err != nil {
		return err
	}

	api.Version = version
	server := api.NewServer(a.config, runner, a.logger)
	if err := server.Start(ctx); err != nil {
		return err
	}
	a.logger.Info("Server stopped")
	return nil
}
