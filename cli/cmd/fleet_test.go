// ABOUTME: Tests for the fleet subcommands
// ABOUTME: Covers init with a stubbed form, show, push, list, rm and sample listing

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/keir-whitehead/setup-lab-3d/backend/catalog"
	"github.com/keir-whitehead/setup-lab-3d/backend/models"
	"github.com/keir-whitehead/setup-lab-3d/backend/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubFleetForm(t *testing.T, spec services.FleetSpec, err error) {
	t.Helper()
	orig := runFleetForm
	runFleetForm = func(*catalog.Catalog) (services.FleetSpec, error) {
		return spec, err
	}
	t.Cleanup(func() { runFleetForm = orig })
}

func formSpec() services.FleetSpec {
	return services.FleetSpec{
		Economics: services.DefaultEconomics(),
		Machines: []models.Machine{
			{ID: "machine-1", Name: "Studio", MemoryGB: 128, HardwareClass: "M4 Max", GPU: "40-core GPU", Active: true},
		},
	}
}

func TestFleetInit_WritesFile(t *testing.T) {
	resetGlobals(t)
	fleetPath = filepath.Join(t.TempDir(), "fleet.toml")
	stubFleetForm(t, formSpec(), nil)

	var buf bytes.Buffer
	require.Equal(t, 0, runFleetInit(&buf), buf.String())
	assert.Contains(t, buf.String(), "Wrote 1 machine(s)")

	spec, err := services.LoadFleetFile(fleetPath)
	require.NoError(t, err)
	require.Len(t, spec.Machines, 1)
	assert.Equal(t, "Studio", spec.Machines[0].Name)
}

func TestFleetInit_RefusesToOverwrite(t *testing.T) {
	resetGlobals(t)
	path := useFleet(t, miniFleet)
	stubFleetForm(t, formSpec(), nil)

	var buf bytes.Buffer
	assert.Equal(t, 2, runFleetInit(&buf))
	assert.Contains(t, buf.String(), "already exists")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, miniFleet, string(data))
}

func TestFleetInit_ForceOverwrites(t *testing.T) {
	resetGlobals(t)
	path := useFleet(t, miniFleet)
	fleetInitForce = true
	stubFleetForm(t, formSpec(), nil)

	var buf bytes.Buffer
	require.Equal(t, 0, runFleetInit(&buf), buf.String())

	spec, err := services.LoadFleetFile(path)
	require.NoError(t, err)
	assert.Equal(t, "M4 Max", spec.Machines[0].HardwareClass)
}

func TestFleetInit_Aborted(t *testing.T) {
	resetGlobals(t)
	fleetPath = filepath.Join(t.TempDir(), "fleet.toml")
	stubFleetForm(t, services.FleetSpec{}, huh.ErrUserAborted)

	var buf bytes.Buffer
	assert.Equal(t, 1, runFleetInit(&buf))
	assert.Contains(t, buf.String(), "Cancelled.")
	assert.NoFileExists(t, fleetPath)
}

func TestFleetInit_FormError(t *testing.T) {
	resetGlobals(t)
	fleetPath = filepath.Join(t.TempDir(), "fleet.toml")
	stubFleetForm(t, services.FleetSpec{}, errors.New("no terminal"))

	var buf bytes.Buffer
	assert.Equal(t, 2, runFleetInit(&buf))
	assert.Contains(t, buf.String(), "no terminal")
}

func TestFleetShow_ResolvesBandwidth(t *testing.T) {
	resetGlobals(t)
	useFleet(t, miniFleet)
	jsonOutput = true

	var buf bytes.Buffer
	require.Equal(t, 0, runFleetShow(&buf))

	spec := decodeOutput[services.FleetSpec](t, buf.Bytes())
	require.Len(t, spec.Machines, 1)
	assert.Equal(t, 273.0, spec.Machines[0].BandwidthGBs)
}

func TestFleetShow_HumanOutput(t *testing.T) {
	resetGlobals(t)
	useFleet(t, miniFleet)

	var buf bytes.Buffer
	require.Equal(t, 0, runFleetShow(&buf))

	out := buf.String()
	assert.Contains(t, out, "273 GB/s")
	assert.Contains(t, out, "$1999.00")
	assert.Contains(t, out, "Economics: $0.3/kWh, 12h/day")
}

func TestFleetPush_DefaultFleet(t *testing.T) {
	resetGlobals(t)
	useFleet(t, miniFleet)
	server := useBackend(t)

	var buf bytes.Buffer
	require.Equal(t, 0, runFleetPush(context.Background(), &buf), buf.String())
	assert.Contains(t, buf.String(), "Pushed 1 machine(s) to "+server.URL+` as fleet "default"`)
}

func TestFleetPush_NamedFleetWithoutStore(t *testing.T) {
	resetGlobals(t)
	useFleet(t, miniFleet)
	useBackend(t)
	fleetPushName = "lab"

	var buf bytes.Buffer
	assert.Equal(t, 2, runFleetPush(context.Background(), &buf))
	assert.Contains(t, buf.String(), "Error:")
}

func TestFleetRm_EmptiesDefaultFleet(t *testing.T) {
	resetGlobals(t)
	useFleet(t, miniFleet)
	server := useBackend(t)

	var buf bytes.Buffer
	require.Equal(t, 0, runFleetPush(context.Background(), &buf), buf.String())

	buf.Reset()
	require.Equal(t, 0, runFleetRm(context.Background(), &buf), buf.String())
	assert.Contains(t, buf.String(), "Emptied the default fleet on "+server.URL)

	resp, err := http.Get(server.URL + "/api/v1/fleet")
	require.NoError(t, err)
	defer resp.Body.Close()
	var spec services.FleetSpec
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&spec))
	assert.Empty(t, spec.Machines)
}

func TestFleetRm_NamedFleetWithoutStore(t *testing.T) {
	resetGlobals(t)
	useBackend(t)
	fleetRmName = "lab"

	var buf bytes.Buffer
	assert.Equal(t, 2, runFleetRm(context.Background(), &buf))
	assert.Contains(t, buf.String(), "Error:")
}

func TestFleetList(t *testing.T) {
	resetGlobals(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]models.FleetSummary{
			{Name: "lab", MachineCount: 2, UpdatedAt: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)},
		})
	}))
	t.Cleanup(server.Close)
	apiURL = server.URL

	var buf bytes.Buffer
	require.Equal(t, 0, runFleetList(context.Background(), &buf), buf.String())
	assert.Contains(t, buf.String(), "lab")
	assert.Contains(t, buf.String(), "2026-03-01 09:30:00")

	jsonOutput = true
	buf.Reset()
	require.Equal(t, 0, runFleetList(context.Background(), &buf))
	fleets := decodeOutput[[]models.FleetSummary](t, buf.Bytes())
	require.Len(t, fleets, 1)
	assert.Equal(t, 2, fleets[0].MachineCount)
}

func TestFleetList_Empty(t *testing.T) {
	resetGlobals(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("[]"))
	}))
	t.Cleanup(server.Close)
	apiURL = server.URL

	var buf bytes.Buffer
	require.Equal(t, 0, runFleetList(context.Background(), &buf))
	assert.Contains(t, buf.String(), "No stored fleets.")
}

func TestFleetList_WithoutStore(t *testing.T) {
	resetGlobals(t)
	useBackend(t)

	var buf bytes.Buffer
	assert.Equal(t, 2, runFleetList(context.Background(), &buf))
	assert.Contains(t, buf.String(), "Fleet store not configured")
}

func TestFleetSamples(t *testing.T) {
	resetGlobals(t)
	t.Setenv("AI_CAPACITY_SAMPLES_PATH", "")

	var buf bytes.Buffer
	require.Equal(t, 0, runFleetSamples(&buf, filepath.Join("..", "..")), buf.String())
	assert.Contains(t, buf.String(), "studio-and-mini.toml")
	assert.Contains(t, buf.String(), "2 machine(s)")
}

func TestFleetSamples_JSON(t *testing.T) {
	resetGlobals(t)
	t.Setenv("AI_CAPACITY_SAMPLES_PATH", "")
	jsonOutput = true

	var buf bytes.Buffer
	require.Equal(t, 0, runFleetSamples(&buf, filepath.Join("..", "..")), buf.String())

	type entry struct {
		Name          string  `json:"name"`
		Machines      int     `json:"machines"`
		TotalMemoryGB float64 `json:"total_memory_gb"`
		Valid         bool    `json:"valid"`
	}
	for _, e := range decodeOutput[[]entry](t, buf.Bytes()) {
		assert.True(t, e.Valid, e.Name)
		if e.Name == "studio-and-mini.toml" {
			assert.Equal(t, 2, e.Machines)
			assert.Equal(t, 176.0, e.TotalMemoryGB)
		}
	}
}

func TestFleetSamples_NotFound(t *testing.T) {
	resetGlobals(t)
	t.Setenv("AI_CAPACITY_SAMPLES_PATH", "")

	var buf bytes.Buffer
	assert.Equal(t, 2, runFleetSamples(&buf, t.TempDir()))
}
