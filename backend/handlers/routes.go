// ABOUTME: Declarative route table for API endpoints
// ABOUTME: Defines all routes with their HTTP methods and handlers

package handlers

import "net/http"

// Route defines an API endpoint with its HTTP method and handler.
type Route struct {
	Method  string           // HTTP method (GET, POST, etc.)
	Path    string           // URL path (e.g., "/api/v1/health")
	Handler http.HandlerFunc // Handler function
	Write   bool             // mutates server state; gets the stricter rate limit
}

// Pattern returns the Go 1.22 ServeMux pattern for the route.
func (r Route) Pattern() string {
	return r.Method + " " + r.Path
}

// Routes returns all API routes for registration.
func (h *Handler) Routes() []Route {
	return []Route{
		// Health
		{Method: http.MethodGet, Path: "/api/v1/health", Handler: h.Health},

		// Catalog
		{Method: http.MethodGet, Path: "/api/v1/catalog/models", Handler: h.ListModels},
		{Method: http.MethodGet, Path: "/api/v1/catalog/cloud", Handler: h.ListCloudServices},
		{Method: http.MethodGet, Path: "/api/v1/catalog/hardware", Handler: h.ListHardware},

		// Planning
		{Method: http.MethodPost, Path: "/api/v1/plan", Handler: h.Plan},
		{Method: http.MethodPost, Path: "/api/v1/costs", Handler: h.Costs},

		// Fleet
		{Method: http.MethodGet, Path: "/api/v1/fleet", Handler: h.GetFleet},
		{Method: http.MethodPut, Path: "/api/v1/fleet", Handler: h.PutFleet, Write: true},
		{Method: http.MethodDelete, Path: "/api/v1/fleet", Handler: h.DeleteFleet, Write: true},
		{Method: http.MethodGet, Path: "/api/v1/fleet/plan", Handler: h.PlanFleet},
		{Method: http.MethodGet, Path: "/api/v1/fleet/costs", Handler: h.FleetCosts},
		{Method: http.MethodGet, Path: "/api/v1/fleets", Handler: h.ListFleets},

		// Documentation
		{Method: http.MethodGet, Path: "/api/v1/openapi.yaml", Handler: h.OpenAPISpec},
		{Method: http.MethodGet, Path: "/api/v1/openapi.json", Handler: h.OpenAPISpecJSON},
	}
}
