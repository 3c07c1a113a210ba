package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/medimaging-diagnosis-hub/internal/app"
	"github.com/medimaging-diagnosis-hub/internal/config"
	"github.com/medimaging-diagnosis-hub/internal/mcp"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:          "diagnosis-hub-mcp",
		Short:        "Serve the diagnosis hub tools over MCP stdio",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configFile)
		},
	}
	root.Flags().StringVarP(&configFile, "config", "c", "", "path to config file")
	// stdout carries the protocol.
	root.SetOut(os.Stderr)

	return root
}

func run(ctx context.Context, configFile string) error {
	configManager, err := config.NewManager(config.WithConfigFile(configFile))
	if err != nil {
		return err
	}
	if err := configManager.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	logger := config.NewLogger(configManager.GetConfig().Logging)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub, err := app.New(ctx, configManager, logger)
	if err != nil {
		return err
	}
	defer hub.Close()

	server := mcp.NewServer(configManager, hub.Service, hub.Metrics, logger)
	if err := server.Run(ctx); err != nil {
		return err
	}
	logger.Info("MCP server stopped")
	return nil
}
