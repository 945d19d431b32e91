package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/phenorank/internal/mcp"
	"github.com/phenorank/internal/setup"
)

var (
	mcpTransport    string
	mcpClientConfig string
	mcpBinary       string
)

func mcpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server",
		Args:  cobra.NoArgs,
		RunE:  runMCP,
	}
	cmd.Flags().StringVar(&mcpTransport, "transport", "", "Override the configured transport: stdio or http")
	cmd.PersistentFlags().StringVar(&mcpClientConfig, "client-config", "", "MCP client configuration file (default: the desktop client's)")

	install := &cobra.Command{
		Use:   "install",
		Short: "Register phenorank with the desktop MCP client",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := setup.Register(setup.Options{
				ClientConfigPath: mcpClientConfig,
				BinaryPath:       mcpBinary,
				ConfigFile:       configFile,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s in %s\n", setup.ServerName, path)
			return nil
		},
	}
	install.Flags().StringVar(&mcpBinary, "binary", "", "phenorank binary to launch (default: this executable)")

	uninstall := &cobra.Command{
		Use:   "uninstall",
		Short: "Remove phenorank from the desktop MCP client",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			removed, err := setup.Unregister(mcpClientConfig)
			if err != nil {
				return err
			}
			if !removed {
				fmt.Fprintln(cmd.OutOrStdout(), "phenorank was not registered")
			}
			return nil
		},
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show the desktop MCP client registration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := setup.GetStatus(mcpClientConfig)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Client config: %s\n", st.ClientConfigPath)
			fmt.Fprintf(out, "Registered:    %t\n", st.Registered)
			if st.Registered {
				fmt.Fprintf(out, "Command:       %s %s\n", st.Entry.Command, strings.Join(st.Entry.Args, " "))
			}
			for _, issue := range st.Issues {
				fmt.Fprintf(out, "  ! %s\n", issue)
			}
			return nil
		},
	}

	cmd.AddCommand(install, uninstall, status)
	return cmd
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	runner, resolver, err := a.runner(ctx)
	if err != nil {
		return err
	}

	cfg := a.cfg().MCP
	if mcpTransport != "" {
		cfg.TransportType = mcpTransport
	}
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = version
	}

	var opts []mcp.Option
	if resolver != nil {
		opts = append(opts, mcp.WithResolver(resolver))
	}
	return mcp.NewServer(cfg, runner, a.logger, opts...).Start(ctx)
}
