// ABOUTME: HTTP handlers for ad-hoc capacity planning and cost projection
// ABOUTME: Identical concurrent requests share one computation

package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/keir-whitehead/setup-lab-3d/backend/metrics"
	"github.com/keir-whitehead/setup-lab-3d/backend/models"
	"github.com/keir-whitehead/setup-lab-3d/backend/services"
)

// planView is the presentation requested through query parameters
type planView struct {
	category string
	query    string
	sorted   bool
}

func parsePlanView(r *http.Request) (planView, error) {
	q := r.URL.Query()
	view := planView{category: q.Get("category"), query: q.Get("q")}
	if !services.ValidCategoryFilter(view.category) {
		return planView{}, fmt.Errorf("unknown category %q", view.category)
	}
	if raw := q.Get("sort"); raw != "" {
		sorted, err := strconv.ParseBool(raw)
		if err != nil {
			return planView{}, fmt.Errorf("invalid sort value %q", raw)
		}
		view.sorted = sorted
	}
	return view, nil
}

// apply filters and orders results without modifying them
func (v planView) apply(machines []models.Machine, results []models.ModelResult) models.PlanResponse {
	shown := services.FilterResults(results, v.category, v.query)
	if v.sorted {
		shown = services.SortResults(shown)
	}
	return services.NewPlanResponse(machines, shown)
}

// requestMachines names unnamed machines by position so results are
// reproducible for identical requests.
func requestMachines(machines []models.Machine) ([]models.Machine, error) {
	named := make([]models.Machine, len(machines))
	for i, m := range machines {
		if strings.TrimSpace(m.ID) == "" {
			m.ID = fmt.Sprintf("machine-%d", i+1)
		}
		named[i] = m
	}
	if err := models.ValidateMachines(named); err != nil {
		return nil, err
	}
	return named, nil
}

// Plan classifies every catalog model against the posted machines.
func (h *Handler) Plan(w http.ResponseWriter, r *http.Request) {
	view, err := parsePlanView(r)
	if err != nil {
		h.writeErrorDetails(w, "Invalid query parameters", err.Error(), http.StatusBadRequest)
		return
	}

	var req models.PlanRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	machines, err := requestMachines(req.Machines)
	if err != nil {
		h.writeErrorDetails(w, "Invalid machines", err.Error(), http.StatusBadRequest)
		return
	}

	v, err := h.coalesce("plan", machines, func() (any, error) {
		return h.plan(metrics.SourceRequest, machines), nil
	})
	if err != nil {
		h.writeError(w, "Planning failed", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, view.apply(machines, v.([]models.ModelResult)))
}

// costKey identifies a cost computation for coalescing
type costKey struct {
	Machines []models.Machine `json:"machines"`
	Rate     float64          `json:"rate"`
	Hours    float64          `json:"hours"`
}

// Costs plans the posted machines and projects their economics. Missing
// electricity rate or hours fall back to the server's economics.
func (h *Handler) Costs(w http.ResponseWriter, r *http.Request) {
	var req models.CostRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	machines, err := requestMachines(req.Machines)
	if err != nil {
		h.writeErrorDetails(w, "Invalid machines", err.Error(), http.StatusBadRequest)
		return
	}

	econ := h.planner.Economics()
	if req.ElectricityRate != nil {
		econ.ElectricityRate = *req.ElectricityRate
	}
	if req.HoursPerDay != nil {
		econ.HoursPerDay = *req.HoursPerDay
	}
	econ = econ.Normalize()

	projection := h.project(metrics.SourceRequest, machines, econ)
	h.writeJSON(w, http.StatusOK, projection)
}

// project plans and costs machines, sharing work with identical concurrent calls
func (h *Handler) project(source string, machines []models.Machine, econ services.Economics) models.CostProjection {
	key := costKey{Machines: machines, Rate: econ.ElectricityRate, Hours: econ.HoursPerDay}
	v, _ := h.coalesce("costs:"+source, key, func() (any, error) {
		results := h.plan(source, machines)
		return h.projector.Project(machines, results, econ.ElectricityRate, econ.HoursPerDay), nil
	})
	projection := v.(models.CostProjection)
	h.emitProjection(source, projection)
	return projection
}
