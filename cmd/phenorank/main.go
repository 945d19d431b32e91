package main

import (
	"os"

	"github.com/spf13/cobra"
)

var configFile string

func main() {
	root := &cobra.Command{
		Use:          "phenorank",
		Short:        "Phenotype-driven gene and variant prioritisation",
		SilenceUsage: true,
	}
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file (default: ./config.yaml, ./config/config.yaml or /etc/phenorank/config.yaml)")

	root.AddCommand(runCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(mcpCmd())
	root.AddCommand(importCmd())
	root.AddCommand(loadHPOCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(versionCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
