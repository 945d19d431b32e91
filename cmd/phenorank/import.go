package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/phenorank/internal/store"
)

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <dir>",
		Short: "Import phenotype mappings and disease models from flat files",
		Long: `Import reads the tab-separated phenotype term, mapping and model files in
<dir> and replaces the content of the configured store with them. Each file has a
header row; files for an organism may be left out, but a missing directory or one
holding none of the files is an error and leaves the store untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if err := store.ImportDir(ctx, s, args[0], a.logger); err != nil {
		return err
	}
	a.logger.WithField("dir", args[0]).Info("Import complete")
	return nil
}
