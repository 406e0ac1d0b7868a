// ABOUTME: Server assembly: route registration, middleware stacks, fleet bootstrap
// ABOUTME: Kept apart from main so the wiring can be exercised with httptest

package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/keir-whitehead/setup-lab-3d/backend/config"
	"github.com/keir-whitehead/setup-lab-3d/backend/handlers"
	"github.com/keir-whitehead/setup-lab-3d/backend/middleware"
	"github.com/keir-whitehead/setup-lab-3d/backend/services"
	"github.com/keir-whitehead/setup-lab-3d/backend/store"
)

// newMux registers every API route behind logging, CORS, metrics and rate
// limiting. metricsHandler is mounted at /metrics when non-nil.
func newMux(cfg *config.Config, h *handlers.Handler, recorder middleware.RequestRecorder, metricsHandler http.Handler) *http.ServeMux {
	var writeLimiter, defaultLimiter *middleware.RateLimiter
	if cfg.RateLimitEnabled {
		writeLimiter = middleware.NewRateLimiter(cfg.RateLimitWrite, time.Minute)
		defaultLimiter = middleware.NewRateLimiter(cfg.RateLimitDefault, time.Minute)
	}

	cors := middleware.CORSFor(cfg.CORSAllowedOrigins)
	base := middleware.Stack{middleware.LogRequest, cors}
	mux := http.NewServeMux()

	for _, route := range h.Routes() {
		limiter := defaultLimiter
		if route.Write {
			limiter = writeLimiter
		}
		stack := base.With(
			middleware.Instrument(recorder, route.Pattern()),
			middleware.RateLimit(limiter, middleware.RouteClientKey(route.Pattern())),
		)
		mux.HandleFunc(route.Pattern(), stack.Then(route.Handler))
	}

	// Preflight for every API path; CORS answers it before the handler runs.
	mux.HandleFunc("OPTIONS /api/v1/", cors(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	if metricsHandler != nil {
		mux.Handle("GET /metrics", metricsHandler)
	}

	return mux
}

// fleetSaver is the part of the store the bootstrap needs
type fleetSaver interface {
	SaveFleet(ctx context.Context, name string, spec services.FleetSpec) error
	LoadFleet(ctx context.Context, name string) (services.FleetSpec, error)
}

// loadInitialFleet installs the default fleet at startup. A fleet already
// in the store wins; otherwise FLEET_FILE seeds memory and the store.
func loadInitialFleet(ctx context.Context, cfg *config.Config, h *handlers.Handler, st fleetSaver) error {
	if st != nil {
		spec, err := st.LoadFleet(ctx, store.DefaultFleet)
		switch {
		case err == nil:
			if err := h.SetFleet(spec); err != nil {
				return fmt.Errorf("stored default fleet is invalid: %w", err)
			}
			slog.Info("Loaded default fleet from store", "machines", len(spec.Machines))
			return nil
		case !errors.Is(err, store.ErrNotFound):
			return fmt.Errorf("loading default fleet: %w", err)
		}
	}

	if cfg.FleetFile == "" {
		return nil
	}

	spec, err := services.LoadFleetFile(cfg.FleetFile)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Warn("Fleet file not found, starting with an empty fleet", "path", cfg.FleetFile)
		return nil
	}
	if err != nil {
		return err
	}

	if err := h.SetFleet(spec); err != nil {
		return fmt.Errorf("fleet file %s: %w", cfg.FleetFile, err)
	}
	if st != nil {
		if err := st.SaveFleet(ctx, store.DefaultFleet, spec); err != nil {
			return fmt.Errorf("seeding fleet store: %w", err)
		}
	}

	slog.Info("Loaded default fleet from file", "path", cfg.FleetFile, "machines", len(spec.Machines))
	return nil
}
