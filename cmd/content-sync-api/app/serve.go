package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stacklok/content-sync-server/internal/app"
	"github.com/stacklok/content-sync-server/internal/config"
	"github.com/stacklok/content-sync-server/internal/telemetry"
)

const defaultGracefulTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the content sync server",
		Long: `Start the HTTP API, the task runner and the periodic sweeps.

The configuration file selects the publishing strategy (disabled, git,
syndication or dual), the targets' credentials, and the queue, storage and
telemetry backends. Run "content-sync-api check" to validate it first.`,
		RunE: runServe,
	}

	cmd.Flags().String("address", ":8080", "Address to listen on")
	cmd.Flags().String("config", "", "Path to configuration file (YAML format, required)")
	for _, name := range []string{"address", "config"} {
		if err := viper.BindPFlag(name, cmd.Flags().Lookup(name)); err != nil {
			panic(fmt.Sprintf("failed to bind %s flag: %v", name, err))
		}
	}
	if err := cmd.MarkFlagRequired("config"); err != nil {
		panic(fmt.Sprintf("failed to mark config flag as required: %v", err))
	}
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	configPath := viper.GetString("config")
	cfg, err := config.LoadConfig(config.WithConfigPath(configPath))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	slog.Info("Loaded configuration",
		"path", configPath,
		"strategy", cfg.GetStrategy(),
		"storage", cfg.GetStorageType())

	tel, err := telemetry.New(ctx, telemetry.WithTelemetryConfig(cfg.Telemetry))
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer shutdownTelemetry(tel)

	syncApp, err := app.NewContentSyncApp(ctx,
		app.WithConfig(cfg),
		app.WithAddress(viper.GetString("address")),
		app.WithMeterProvider(tel.MeterProvider()),
		app.WithTracerProvider(tel.TracerProvider()),
		app.WithMetricsHandler(tel.MetricsHandler()),
	)
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- syncApp.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serveErr:
		// Start only returns early when the listener could not be served
		stopErr := syncApp.Stop(defaultGracefulTimeout)
		return errors.Join(err, stopErr)
	case sig := <-quit:
		slog.Info("Received signal", "signal", sig.String())
	}

	return syncApp.Stop(defaultGracefulTimeout)
}

func shutdownTelemetry(tel *telemetry.Telemetry) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := tel.Shutdown(ctx); err != nil {
		slog.Error("Failed to shutdown telemetry", "error", err)
	}
}
