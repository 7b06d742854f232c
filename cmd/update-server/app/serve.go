package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	v1 "github.com/sfr-mod/update-server/internal/api/v1"
	"github.com/sfr-mod/update-server/internal/cache"
	"github.com/sfr-mod/update-server/internal/config"
	"github.com/sfr-mod/update-server/internal/coordinator"
	"github.com/sfr-mod/update-server/internal/httpclient"
	"github.com/sfr-mod/update-server/internal/logger"
	"github.com/sfr-mod/update-server/internal/sources"
	"github.com/sfr-mod/update-server/internal/telemetry"
	"github.com/sfr-mod/update-server/internal/versions"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the update API server",
	Long: `Start the update API server to serve the latest mod release metadata.

The server requires a configuration file (--config) that specifies:
- The tracked mod's identifier and package extension
- The upstream sources with their priorities
- Source timeout and cache TTL

See examples/ directory for a sample configuration.`,
	RunE: runServe,
}

const (
	defaultGracefulTimeout = 30 * time.Second // Enough for in-flight upstream fetches to finish
	serverReadTimeout      = 10 * time.Second
	serverWriteTimeout     = 15 * time.Second // Must exceed the per-source timeout so a slow refresh can answer
	serverIdleTimeout      = 60 * time.Second
)

func init() {
	serveCmd.Flags().String("address", ":8080", "Address to listen on")
	serveCmd.Flags().String("config", "", "Path to configuration file (YAML format, required)")

	if err := viper.BindPFlag("address", serveCmd.Flags().Lookup("address")); err != nil {
		logger.Fatalf("Failed to bind address flag: %v", err)
	}
	if err := viper.BindPFlag("config", serveCmd.Flags().Lookup("config")); err != nil {
		logger.Fatalf("Failed to bind config flag: %v", err)
	}

	if err := serveCmd.MarkFlagRequired("config"); err != nil {
		logger.Fatalf("Failed to mark config flag as required: %v", err)
	}
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	address := viper.GetString("address")

	logger.Infof("Starting update API server on %s", address)

	configPath := viper.GetString("config")
	cfg, err := config.LoadConfig(config.WithConfigPath(configPath))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Infof("Loaded configuration from %s (mod: %s, sources: %d, ttl: %s)",
		configPath, cfg.Mod.Identifier, len(cfg.Sources), cfg.CacheTTL())

	// Bearer credential for the release-API source, environment only.
	authToken := viper.GetString("github_token")
	if authToken != "" {
		logger.Info("Using bearer credential for release-API requests")
	}

	// Metrics plumbing
	promRegistry := prometheus.NewRegistry()
	meterProvider, err := telemetry.NewMeterProvider(ctx, promRegistry, versions.Version)
	if err != nil {
		return fmt.Errorf("failed to create meter provider: %w", err)
	}
	defer func() {
		if err := meterProvider.Shutdown(context.Background()); err != nil {
			logger.Warnf("Failed to shut down meter provider: %v", err)
		}
	}()

	fetchMetrics, err := telemetry.NewFetchMetrics(meterProvider)
	if err != nil {
		return fmt.Errorf("failed to create fetch metrics: %w", err)
	}

	// Core wiring: registry, adapters, cache, coordinator.
	// The bearer credential goes on a dedicated client so only the
	// release-API source ever sees it.
	registry := sources.NewRegistry(cfg.Sources)
	client := httpclient.NewDefaultClient(cfg.SourceTimeout())
	releaseClient := httpclient.NewDefaultClient(cfg.SourceTimeout(), httpclient.WithAuthToken(authToken))
	factory := sources.NewHandlerFactory(client, config.ModConfig{
		Identifier:       cfg.Mod.Identifier,
		PackageExtension: cfg.PackageExtension(),
	}, sources.WithReleaseAPIClient(releaseClient))
	ttlCache := cache.New(cfg.CacheTTL())

	coord := coordinator.New(registry, factory, ttlCache, cfg.SourceTimeout(),
		coordinator.WithMetrics(fetchMetrics),
	)

	router := v1.NewServer(coord,
		v1.WithMiddlewares(
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			v1.LoggingMiddleware,
		),
		v1.WithMetricsHandler(promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{})),
	)

	server := &http.Server{
		Addr:         address,
		Handler:      router,
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeout,
		IdleTimeout:  serverIdleTimeout,
	}

	go func() {
		logger.Infof("Server listening on %s", address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultGracefulTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
		return err
	}

	logger.Info("Server shutdown complete")
	return nil
}
