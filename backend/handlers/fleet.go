// ABOUTME: HTTP handlers for the stored machine fleet
// ABOUTME: Default fleet lives in memory; named fleets require the SQLite store

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/keir-whitehead/setup-lab-3d/backend/metrics"
	"github.com/keir-whitehead/setup-lab-3d/backend/models"
	"github.com/keir-whitehead/setup-lab-3d/backend/services"
	"github.com/keir-whitehead/setup-lab-3d/backend/store"
)

// fleetRequest is the body of PUT /api/v1/fleet
type fleetRequest struct {
	Economics *services.Economics `json:"economics,omitempty"`
	Machines  []models.Machine    `json:"machines"`
}

// fleetName returns the ?name= parameter, defaulting to the default fleet
func fleetName(r *http.Request) string {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		return store.DefaultFleet
	}
	return name
}

// loadFleet resolves a fleet by name, writing an error response when it cannot
// fleetSource labels metrics for the fleet a request reads. Only the default
// fleet drives the per-model status gauge.
func fleetSource(r *http.Request) string {
	if fleetName(r) == store.DefaultFleet {
		return metrics.SourceFleet
	}
	return metrics.SourceNamedFleet
}

func (h *Handler) loadFleet(w http.ResponseWriter, r *http.Request) (services.FleetSpec, bool) {
	name := fleetName(r)
	if name == store.DefaultFleet {
		return h.currentFleet(), true
	}

	if h.fleetStore == nil {
		h.writeError(w, "Named fleets require FLEET_DB_PATH to be configured", http.StatusServiceUnavailable)
		return services.FleetSpec{}, false
	}

	spec, err := h.fleetStore.LoadFleet(r.Context(), name)
	if errors.Is(err, store.ErrNotFound) {
		h.writeError(w, "Fleet not found: "+name, http.StatusNotFound)
		return services.FleetSpec{}, false
	}
	if err != nil {
		slog.Error("Failed to load fleet", "name", name, "error", err)
		h.writeError(w, "Failed to load fleet", http.StatusInternalServerError)
		return services.FleetSpec{}, false
	}
	return spec, true
}

// GetFleet returns the machines and economics of a fleet.
func (h *Handler) GetFleet(w http.ResponseWriter, r *http.Request) {
	spec, ok := h.loadFleet(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, spec)
}

// PutFleet replaces a fleet. Machines without an ID get a generated one and
// missing economics keep the server defaults.
func (h *Handler) PutFleet(w http.ResponseWriter, r *http.Request) {
	var req fleetRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	spec := services.FleetSpec{
		Economics: h.planner.Economics(),
		Machines:  services.AssignMachineIDs(req.Machines),
	}
	if req.Economics != nil {
		spec.Economics = *req.Economics
	}
	spec.Economics = spec.Economics.Normalize()
	spec.Machines = services.ResolveBandwidth(h.catalog, spec.Machines)

	if err := models.ValidateMachines(spec.Machines); err != nil {
		h.writeErrorDetails(w, "Invalid machines", err.Error(), http.StatusBadRequest)
		return
	}
	if err := services.CheckHardwareClasses(h.catalog, spec.Machines); err != nil {
		slog.Warn("Fleet has machines without hardware pricing", "error", err)
	}

	name := fleetName(r)
	if name != store.DefaultFleet && h.fleetStore == nil {
		h.writeError(w, "Named fleets require FLEET_DB_PATH to be configured", http.StatusServiceUnavailable)
		return
	}

	if h.fleetStore != nil {
		if err := h.fleetStore.SaveFleet(r.Context(), name, spec); err != nil {
			slog.Error("Failed to save fleet", "name", name, "error", err)
			h.writeError(w, "Failed to save fleet", http.StatusInternalServerError)
			return
		}
	}

	if name == store.DefaultFleet {
		if err := h.SetFleet(spec); err != nil {
			h.writeErrorDetails(w, "Invalid machines", err.Error(), http.StatusBadRequest)
			return
		}
	}

	slog.Info("Fleet updated", "name", name, "machines", len(spec.Machines),
		"active", len(models.ActiveMachines(spec.Machines)))
	h.writeJSON(w, http.StatusOK, spec)
}

// PlanFleet classifies every catalog model against a stored fleet.
func (h *Handler) PlanFleet(w http.ResponseWriter, r *http.Request) {
	view, err := parsePlanView(r)
	if err != nil {
		h.writeErrorDetails(w, "Invalid query parameters", err.Error(), http.StatusBadRequest)
		return
	}

	spec, ok := h.loadFleet(w, r)
	if !ok {
		return
	}

	results := h.plan(fleetSource(r), spec.Machines)
	h.writeJSON(w, http.StatusOK, view.apply(spec.Machines, results))
}

// FleetCosts projects the economics of a stored fleet using its own rate and hours.
func (h *Handler) FleetCosts(w http.ResponseWriter, r *http.Request) {
	spec, ok := h.loadFleet(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, h.project(fleetSource(r), spec.Machines, spec.Economics))
}

// DeleteFleet removes a named fleet from the store. Deleting the default
// fleet empties it in memory and drops any persisted copy.
func (h *Handler) DeleteFleet(w http.ResponseWriter, r *http.Request) {
	name := fleetName(r)
	if name != store.DefaultFleet && h.fleetStore == nil {
		h.writeError(w, "Named fleets require FLEET_DB_PATH to be configured", http.StatusServiceUnavailable)
		return
	}

	if h.fleetStore != nil {
		err := h.fleetStore.DeleteFleet(r.Context(), name)
		switch {
		case errors.Is(err, store.ErrNotFound) && name != store.DefaultFleet:
			h.writeError(w, "Fleet not found: "+name, http.StatusNotFound)
			return
		case err != nil && !errors.Is(err, store.ErrNotFound):
			slog.Error("Failed to delete fleet", "name", name, "error", err)
			h.writeError(w, "Failed to delete fleet", http.StatusInternalServerError)
			return
		}
	}

	if name == store.DefaultFleet {
		if err := h.SetFleet(services.FleetSpec{Economics: h.planner.Economics(), Machines: []models.Machine{}}); err != nil {
			h.writeError(w, "Failed to reset fleet", http.StatusInternalServerError)
			return
		}
	}

	slog.Info("Fleet deleted", "name", name)
	w.WriteHeader(http.StatusNoContent)
}

// ListFleets returns a summary of every persisted fleet.
func (h *Handler) ListFleets(w http.ResponseWriter, r *http.Request) {
	if h.fleetStore == nil {
		h.writeError(w, "Fleet store not configured", http.StatusServiceUnavailable)
		return
	}

	summaries, err := h.fleetStore.ListFleets(r.Context())
	if err != nil {
		slog.Error("Failed to list fleets", "error", err)
		h.writeError(w, "Failed to list fleets", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, summaries)
}
