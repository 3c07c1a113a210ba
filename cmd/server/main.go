package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/medimaging-diagnosis-hub/internal/api"
	"github.com/medimaging-diagnosis-hub/internal/app"
	"github.com/medimaging-diagnosis-hub/internal/config"
	"github.com/medimaging-diagnosis-hub/internal/database"
	"github.com/medimaging-diagnosis-hub/internal/health"
	"github.com/medimaging-diagnosis-hub/internal/preferences"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:          "diagnosis-hub",
		Short:        "Medical imaging diagnosis dashboard API",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configFile)
		},
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "path to config file")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configFile)
		},
	})
	root.AddCommand(newMigrateCmd(&configFile))
	root.AddCommand(newPreferencesCmd(&configFile))

	return root
}

func loadConfig(configFile string) (*config.Manager, *logrus.Logger, error) {
	configManager, err := config.NewManager(config.WithConfigFile(configFile))
	if err != nil {
		return nil, nil, err
	}
	if err := configManager.Validate(); err != nil {
		return nil, nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return configManager, config.NewLogger(configManager.GetConfig().Logging), nil
}

func runServe(configFile string) error {
	configManager, logger, err := loadConfig(configFile)
	if err != nil {
		return err
	}
	cfg := configManager.GetConfig()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub, err := app.New(ctx, configManager, logger)
	if err != nil {
		return err
	}
	defer hub.Close()

	prefs, err := preferences.Open(ctx, cfg.Preferences, logger)
	if err != nil {
		return fmt.Errorf("failed to open preferences store: %w", err)
	}
	defer prefs.Close()

	checker := health.NewChecker(cfg.MCP.ServerVersion, 2*time.Second, logger,
		health.NewBreakerCheck(hub.Sources),
		health.NewPingCheck("redis", false, hub.StatsCache.Ping),
		health.NewPingCheck("preferences", true, prefs.Ping),
	)

	server := api.NewServer(configManager, api.Dependencies{
		Service:     hub.Service,
		Preferences: prefs,
		Health:      checker,
		Metrics:     hub.Metrics,
	}, logger)

	logger.WithFields(logrus.Fields{
		"host":        cfg.Server.Host,
		"port":        cfg.Server.Port,
		"environment": cfg.Environment,
	}).Info("Starting diagnosis hub")

	if err := server.Start(ctx); err != nil {
		return err
	}
	logger.Info("Server stopped")
	return nil
}

func newMigrateCmd(configFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL preferences schema",
	}

	run := func(apply func(*database.MigrationRunner) error) error {
		configManager, logger, err := loadConfig(*configFile)
		if err != nil {
			return err
		}
		prefsCfg := configManager.GetConfig().Preferences
		if prefsCfg.Driver != "postgres" {
			return fmt.Errorf("migrations apply to the postgres preferences driver, configured driver is %q", prefsCfg.Driver)
		}

		runner, err := database.NewMigrationRunner(prefsCfg.PostgresDSN, prefsCfg.MigrationsPath, logger)
		if err != nil {
			return err
		}
		defer runner.Close()
		return apply(runner)
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run((*database.MigrationRunner).Up)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the last migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run((*database.MigrationRunner).Down)
		},
	})

	return cmd
}

func newPreferencesCmd(configFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preferences",
		Short: "Export or import stored user preferences",
	}

	withStore := func(ctx context.Context, fn func(preferences.Store, *logrus.Logger) error) error {
		configManager, logger, err := loadConfig(*configFile)
		if err != nil {
			return err
		}
		store, err := preferences.Open(ctx, configManager.GetConfig().Preferences, logger)
		if err != nil {
			return fmt.Errorf("failed to open preferences store: %w", err)
		}
		defer store.Close()
		return fn(store, logger)
	}

	var output string
	export := &cobra.Command{
		Use:   "export",
		Short: "Write every stored preference document as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withStore(ctx, func(store preferences.Store, logger *logrus.Logger) error {
				out := cmd.OutOrStdout()
				if output != "" {
					f, err := os.Create(output)
					if err != nil {
						return fmt.Errorf("failed to create export file: %w", err)
					}
					defer f.Close()
					out = f
				}
				if err := store.ExportJSON(ctx, out); err != nil {
					return err
				}
				count, err := store.Count(ctx)
				if err != nil {
					return err
				}
				logger.WithField("count", count).Info("Preferences exported")
				return nil
			})
		},
	}
	export.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")

	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Load preference documents written by export, skipping existing users",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open import file: %w", err)
			}
			defer f.Close()

			return withStore(ctx, func(store preferences.Store, logger *logrus.Logger) error {
				imported, skipped, err := store.ImportJSON(ctx, f)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d, skipped %d\n", imported, skipped)
				return nil
			})
		},
	}

	cmd.AddCommand(export, importCmd)
	return cmd
}
