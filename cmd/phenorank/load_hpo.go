package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/phenorank/internal/database"
	"github.com/phenorank/internal/store"
)

func loadHPOCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load-hpo <hpo-dump>",
		Short: "Load HPO term labels into the PostgreSQL store",
		Args:  cobra.ExactArgs(1),
		RunE:  runLoadHPO,
	}
}

func runLoadHPO(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if a.cfg().Store.Driver != store.DriverPostgres {
		return fmt.Errorf("load-hpo requires the %s store driver, got %q", store.DriverPostgres, a.cfg().Store.Driver)
	}

	db, err := database.NewConnection(ctx, a.cfg().Database, a.logger)
	if err != nil {
		return err
	}
	defer db.Close()

	n, err := store.NewHPOLoader(db.Pool, a.logger).LoadFile(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d HPO terms\n", n)
	return nil
}
