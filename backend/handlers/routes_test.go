// ABOUTME: Tests for route table definitions
// ABOUTME: Verifies all routes have required fields and no duplicates

package handlers

import (
	"net/http"
	"strings"
	"testing"
)

func TestRoutes_AllRoutesHaveRequiredFields(t *testing.T) {
	h := NewHandler(nil, nil)
	routes := h.Routes()

	if len(routes) == 0 {
		t.Fatal("Routes() returned empty slice")
	}

	for i, route := range routes {
		if route.Method == "" {
			t.Errorf("Route %d: Method is empty", i)
		}
		if route.Path == "" {
			t.Errorf("Route %d: Path is empty", i)
		}
		if route.Handler == nil {
			t.Errorf("Route %d: Handler is nil", i)
		}
		if !strings.HasPrefix(route.Path, "/api/v1/") {
			t.Errorf("Route %d: Path %q must start with /api/v1/", i, route.Path)
		}
	}
}

func TestRoutes_NoDuplicatePaths(t *testing.T) {
	h := NewHandler(nil, nil)
	routes := h.Routes()

	seen := make(map[string]bool)
	for _, route := range routes {
		key := route.Pattern()
		if seen[key] {
			t.Errorf("Duplicate route: %s", key)
		}
		seen[key] = true
	}
}

func TestRoutes_ExpectedEndpoints(t *testing.T) {
	h := NewHandler(nil, nil)
	routes := h.Routes()

	expected := map[string]bool{
		"GET /api/v1/health":           false,
		"GET /api/v1/catalog/models":   false,
		"GET /api/v1/catalog/cloud":    false,
		"GET /api/v1/catalog/hardware": false,
		"POST /api/v1/plan":            false,
		"POST /api/v1/costs":           false,
		"GET /api/v1/fleet":            false,
		"PUT /api/v1/fleet":            false,
		"DELETE /api/v1/fleet":         false,
		"GET /api/v1/fleet/plan":       false,
		"GET /api/v1/fleet/costs":      false,
		"GET /api/v1/fleets":           false,
		"GET /api/v1/openapi.yaml":     false,
		"GET /api/v1/openapi.json":     false,
	}

	for _, route := range routes {
		key := route.Pattern()
		if _, ok := expected[key]; ok {
			expected[key] = true
		}
	}

	for key, found := range expected {
		if !found {
			t.Errorf("Missing expected route: %s", key)
		}
	}
}

func TestRoutes_OnlyFleetMutationsAreWrite(t *testing.T) {
	h := NewHandler(nil, nil)

	for _, route := range h.Routes() {
		wantWrite := route.Method == http.MethodPut || route.Method == http.MethodDelete
		if route.Write != wantWrite {
			t.Errorf("Route %s: expected Write=%v, got %v", route.Pattern(), wantWrite, route.Write)
		}
	}
}
