// ABOUTME: HTTP handlers for read-only catalog reference data
// ABOUTME: Lists model definitions, cloud services, and hardware classes

package handlers

import (
	"net/http"

	"github.com/keir-whitehead/setup-lab-3d/backend/services"
)

// ListModels returns model definitions in catalog order, filtered by
// the optional category and q query parameters.
func (h *Handler) ListModels(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if !services.ValidCategoryFilter(category) {
		h.writeError(w, "Unknown category: "+category, http.StatusBadRequest)
		return
	}

	h.writeJSON(w, http.StatusOK, services.FilterModels(h.catalog.Models(), category, r.URL.Query().Get("q")))
}

// ListCloudServices returns the cloud service reference table.
func (h *Handler) ListCloudServices(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.catalog.CloudServices())
}

// ListHardware returns hardware classes with price ranges and bandwidth tables.
func (h *Handler) ListHardware(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.catalog.Hardware())
}
