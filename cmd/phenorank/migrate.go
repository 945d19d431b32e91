package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/phenorank/internal/database"
)

var (
	migrateSteps int
	migrateAll   bool
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL store schema",
	}

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back the last migration, or --steps of them",
		Args:  cobra.NoArgs,
		RunE: withMigrations(func(ctx context.Context, cmd *cobra.Command, mr *database.MigrationRunner) error {
			steps := migrateSteps
			if migrateAll {
				steps = 0
			} else if steps < 1 {
				return fmt.Errorf("--steps must be at least 1")
			}
			return mr.Down(ctx, steps)
		}),
	}
	downCmd.Flags().IntVar(&migrateSteps, "steps", 1, "number of migrations to roll back")
	downCmd.Flags().BoolVar(&migrateAll, "all", false, "roll back every migration")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: withMigrations(func(ctx context.Context, cmd *cobra.Command, mr *database.MigrationRunner) error {
				return mr.Up(ctx)
			}),
		},
		downCmd,
		&cobra.Command{
			Use:   "status",
			Short: "Print the applied schema version",
			Args:  cobra.NoArgs,
			RunE: withMigrations(func(ctx context.Context, cmd *cobra.Command, mr *database.MigrationRunner) error {
				status, err := mr.Status()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), status)
				return nil
			}),
		},
	)
	return cmd
}

func withMigrations(fn func(context.Context, *cobra.Command, *database.MigrationRunner) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := loadApp()
		if err != nil {
			return err
		}
		defer a.Close()

		cfg := a.cfg().Database
		mr, err := database.NewMigrationRunner(cfg.URL(), cfg.MigrationsPath, a.logger)
		if err != nil {
			return err
		}
		defer mr.Close()
		return fn(ctx, cmd, mr)
	}
}
