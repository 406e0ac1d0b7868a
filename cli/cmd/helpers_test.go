// ABOUTME: Shared helpers for command tests
// ABOUTME: Resets global flags, writes fleet files and serves the real backend

package cmd

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/keir-whitehead/setup-lab-3d/backend/handlers"
)

const miniFleet = `
[[machines]]
id = "mini"
name = "Mini"
memory_gb = 48.0
hardware_class = "M4 Pro"
`

// resetGlobals puts every package-level flag back to its default for the
// duration of the test, with no backend configured
func resetGlobals(t *testing.T) {
	t.Helper()
	t.Setenv(apiURLEnv, "")

	reset := func() {
		apiURL = ""
		jsonOutput = false
		fleetPath = defaultFleetPath
		catalogPath = ""
		machineFlags = nil
		catalogCategory, catalogSearch = "", ""
		planCategory, planSearch, planSort = "", "", false
		costsRate, costsHours, costsRateSet, costsHoursSet = 0, 0, false, false
		requiredModels, minRunnable, maxBreakEven = nil, 0, 0
		fleetInitForce, fleetPushName, fleetRmName = false, "", ""
	}
	reset()
	t.Cleanup(reset)
}

// useFleet writes content to a temp fleet file and points --fleet at it
func useFleet(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fleet.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write fleet: %v", err)
	}
	fleetPath = path
	return path
}

// useBackend serves the real API routes and points --api-url at them
func useBackend(t *testing.T) *httptest.Server {
	t.Helper()
	h := handlers.NewHandler(nil, nil)
	mux := http.NewServeMux()
	for _, route := range h.Routes() {
		mux.HandleFunc(route.Pattern(), route.Handler)
	}
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	apiURL = server.URL
	return server
}

func decodeOutput[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, data)
	}
	return v
}
