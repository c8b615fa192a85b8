package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"bronson/config"
	"bronson/logger"
	"bronson/metrics"
	"bronson/server"
	"bronson/telemetry"
	"bronson/version"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// Initialize configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(cfg.LogLevel)

	if cfg.CleanupDirectory == "" {
		logger.Warn("No cleanup directory configured. Set CLEANUP_DIRECTORY or --cleanup-directory.")
	}
	if cfg.TargetDirectory == "" {
		logger.Warn("No target directory configured. Comparison and move operations will fail.")
	}

	exporter, err := telemetry.New(cfg)
	if err != nil {
		logger.Warnf("Telemetry export disabled: %v", err)
	} else if exporter != nil {
		logger.Infof("Telemetry export enabled: %s", exporter.Endpoint())
		defer exporter.Close()
	}

	var recorder *metrics.Recorder
	var registry *prometheus.Registry
	if cfg.EnableMetrics {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		recorder = metrics.NewRecorder(registry)
	}

	srv := &http.Server{
		Addr:    cfg.ListenAddress(),
		Handler: server.New(cfg, recorder, registry, exporter).Handler(),
	}

	go handleSignals(srv, cfg)

	logger.Infof("Bronson %s listening on %s", version.Version, cfg.ListenAddress())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("Server failed: %v", err)
	}
	logger.Info("Server stopped.")
}

func handleSignals(srv *http.Server, cfg *config.Config) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	logger.Info("Interrupt signal received. Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warnf("Graceful shutdown failed: %v", err)
	}
}
