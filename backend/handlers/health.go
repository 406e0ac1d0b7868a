// ABOUTME: HTTP handler for the health endpoint
// ABOUTME: Reports catalog sizes and fleet store reachability

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/keir-whitehead/setup-lab-3d/backend/models"
)

// Fleet store states reported by Health
const (
	storeNotConfigured = "not_configured"
	storeOK            = "ok"
	storeUnavailable   = "unavailable"
)

// Health returns API status, reference data sizes, and fleet store status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := models.HealthResponse{
		Status:        "ok",
		ModelCount:    len(h.catalog.Models()),
		CloudCount:    len(h.catalog.CloudServices()),
		HardwareCount: len(h.catalog.Hardware()),
		FleetStore:    storeNotConfigured,
		FleetMachines: len(h.currentFleet().Machines),
	}

	if h.fleetStore != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.fleetStore.Ping(ctx); err != nil {
			slog.Warn("Fleet store ping failed", "error", err)
			resp.Status = "degraded"
			resp.FleetStore = storeUnavailable
		} else {
			resp.FleetStore = storeOK
		}
	}

	h.writeJSON(w, http.StatusOK, resp)
}
