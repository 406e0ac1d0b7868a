// ABOUTME: Entry point for the AI capacity analyzer backend service
// ABOUTME: Serves model fit, throughput, and cost projections over HTTP

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/keir-whitehead/setup-lab-3d/backend/catalog"
	"github.com/keir-whitehead/setup-lab-3d/backend/config"
	"github.com/keir-whitehead/setup-lab-3d/backend/handlers"
	"github.com/keir-whitehead/setup-lab-3d/backend/logger"
	"github.com/keir-whitehead/setup-lab-3d/backend/metrics"
	"github.com/keir-whitehead/setup-lab-3d/backend/middleware"
	"github.com/keir-whitehead/setup-lab-3d/backend/store"
)

func main() {
	// Initialize structured logging
	logger.Init()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting AI Capacity Analyzer Backend")

	// Reference data
	c, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		slog.Error("Failed to load catalog", "path", cfg.CatalogPath, "error", err)
		os.Exit(1)
	}
	if cfg.CatalogPath != "" {
		slog.Info("Catalog loaded", "path", cfg.CatalogPath, "models", len(c.Models()))
	} else {
		slog.Info("Using embedded catalog", "models", len(c.Models()))
	}

	h := handlers.NewHandler(cfg, c)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Fleet persistence
	var st *store.Store
	if cfg.FleetDBPath != "" {
		st, err = store.Open(cfg.FleetDBPath)
		if err != nil {
			slog.Error("Failed to open fleet store", "path", cfg.FleetDBPath, "error", err)
			os.Exit(1)
		}
		defer st.Close()
		h.SetFleetStore(st)
		slog.Info("Fleet store opened", "path", cfg.FleetDBPath)
	} else {
		slog.Info("FLEET_DB_PATH not set, fleets are kept in memory only")
	}

	// Metrics
	var recorder middleware.RequestRecorder
	var metricsHandler http.Handler
	if cfg.MetricsEnabled {
		registry := prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		emitter, err := metrics.InitMetricsAndEmitter(registry)
		if err != nil {
			slog.Error("Failed to initialize metrics", "error", err)
			os.Exit(1)
		}
		h.SetMetrics(emitter)
		recorder = emitter
		metricsHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	}

	// The store is nil-checked by interface, so pass it only when open.
	var saver fleetSaver
	if st != nil {
		saver = st
	}
	if err := loadInitialFleet(ctx, cfg, h, saver); err != nil {
		slog.Error("Failed to load initial fleet", "error", err)
		os.Exit(1)
	}

	if len(cfg.CORSAllowedOrigins) > 0 {
		slog.Info("CORS restricted", "origins", cfg.CORSAllowedOrigins)
	}
	if !cfg.RateLimitEnabled {
		slog.Warn("Rate limiting disabled")
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newMux(cfg, h, recorder, metricsHandler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server listening", "addr", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		slog.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Graceful shutdown failed", "error", err)
		}
	}
}
