// ABOUTME: HTTP handlers for the capacity and economics API
// ABOUTME: Holds the engine, the stored fleet, and shared JSON helpers

package handlers

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/keir-whitehead/setup-lab-3d/backend/catalog"
	"github.com/keir-whitehead/setup-lab-3d/backend/config"
	"github.com/keir-whitehead/setup-lab-3d/backend/metrics"
	"github.com/keir-whitehead/setup-lab-3d/backend/models"
	"github.com/keir-whitehead/setup-lab-3d/backend/services"
	"github.com/keir-whitehead/setup-lab-3d/backend/store"
)

const defaultMaxBodyBytes = 1 << 20

// FleetStore persists named fleets
type FleetStore interface {
	SaveFleet(ctx context.Context, name string, spec services.FleetSpec) error
	LoadFleet(ctx context.Context, name string) (services.FleetSpec, error)
	ListFleets(ctx context.Context) ([]store.FleetSummary, error)
	DeleteFleet(ctx context.Context, name string) error
	Ping(ctx context.Context) error
}

type Handler struct {
	cfg        *config.Config
	catalog    *catalog.Catalog
	planner    *services.CapacityPlanner
	projector  *services.CostProjector
	fleetStore FleetStore
	emitter    *metrics.MetricsEmitter

	fleet      services.FleetSpec // default fleet, mirrored to the store when configured
	fleetMutex sync.RWMutex

	// coalesces identical concurrent plan/cost computations
	inflight singleflight.Group
}

// NewHandler creates a handler. A nil cfg uses the default economics and
// body limit; a nil catalog uses the embedded one.
func NewHandler(cfg *config.Config, c *catalog.Catalog) *Handler {
	if c == nil {
		c = catalog.MustDefault()
	}

	econ := services.DefaultEconomics()
	if cfg != nil {
		econ = services.Economics{ElectricityRate: cfg.ElectricityRate, HoursPerDay: cfg.HoursPerDay}
	}

	return &Handler{
		cfg:       cfg,
		catalog:   c,
		planner:   services.NewCapacityPlanner(c, econ),
		projector: services.NewCostProjector(c),
		fleet:     services.FleetSpec{Economics: econ.Normalize(), Machines: []models.Machine{}},
	}
}

// SetFleetStore enables persistence of fleets
func (h *Handler) SetFleetStore(s FleetStore) {
	h.fleetStore = s
}

// SetMetrics enables metric emission
func (h *Handler) SetMetrics(e *metrics.MetricsEmitter) {
	h.emitter = e
}

// SetFleet replaces the default fleet in memory without persisting it
func (h *Handler) SetFleet(spec services.FleetSpec) error {
	if err := models.ValidateMachines(spec.Machines); err != nil {
		return err
	}
	spec.Economics = spec.Economics.Normalize()
	spec.Machines = services.ResolveBandwidth(h.catalog, spec.Machines)

	h.fleetMutex.Lock()
	h.fleet = spec
	h.fleetMutex.Unlock()

	h.plan(metrics.SourceFleet, spec.Machines)
	return nil
}

// currentFleet returns a copy of the default fleet
func (h *Handler) currentFleet() services.FleetSpec {
	h.fleetMutex.RLock()
	defer h.fleetMutex.RUnlock()
	spec := h.fleet
	spec.Machines = append([]models.Machine{}, h.fleet.Machines...)
	return spec
}

func (h *Handler) maxBodyBytes() int64 {
	if h.cfg != nil && h.cfg.MaxBodyBytes > 0 {
		return h.cfg.MaxBodyBytes
	}
	return defaultMaxBodyBytes
}

// decodeJSON reads a size-limited JSON body into v, writing a 400 or 413 on failure
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes())
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return false
		}
		h.writeErrorDetails(w, "Invalid JSON", err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// coalesce runs fn once for all concurrent callers sharing the same key input
func (h *Handler) coalesce(kind string, keyInput any, fn func() (any, error)) (any, error) {
	raw, err := json.Marshal(keyInput)
	if err != nil {
		return fn()
	}
	sum := sha256.Sum256(raw)
	v, err, shared := h.inflight.Do(kind+":"+hex.EncodeToString(sum[:]), fn)
	if shared {
		slog.Debug("Coalesced identical request", "kind", kind)
	}
	return v, err
}

// plan runs one planning pass and records it
func (h *Handler) plan(source string, machines []models.Machine) []models.ModelResult {
	start := time.Now()
	results := h.planner.Plan(machines)
	if h.emitter != nil {
		if err := h.emitter.EmitPlan(source, results, time.Since(start)); err != nil {
			slog.Debug("Failed to emit plan metrics", "error", err)
		}
	}
	return results
}

func (h *Handler) emitProjection(source string, p models.CostProjection) {
	if h.emitter == nil {
		return
	}
	if err := h.emitter.EmitProjection(source, p); err != nil {
		slog.Debug("Failed to emit projection metrics", "error", err)
	}
}

// writeJSON writes a JSON response with the given status code. Data that
// cannot be encoded becomes a 500 instead of a truncated body.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintf(w, `{"error":"Failed to encode response","code":%d}`+"\n", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// writeError writes an error response as JSON.
func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	h.writeErrorDetails(w, message, "", code)
}

func (h *Handler) writeErrorDetails(w http.ResponseWriter, message, details string, code int) {
	h.writeJSON(w, code, models.ErrorResponse{
		Error:   message,
		Details: details,
		Code:    code,
	})
}
