// ABOUTME: Tests for the TOML fleet codec and bandwidth resolution
// ABOUTME: Covers defaults, ID generation, validation, and save/load round trips

package services

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keir-whitehead/setup-lab-3d/backend/catalog"
	"github.com/keir-whitehead/setup-lab-3d/backend/models"
)

const homeLabFleet = `
[economics]
electricity_rate = 0.22

[[machines]]
id = "mini"
name = "Mac Mini"
memory_gb = 48
hardware_class = "M4 Pro"
gpu = "20-core GPU"

[[machines]]
name = "Studio"
memory_gb = 128
hardware_class = "M4 Max"
active = false
`

func TestParseFleet_Defaults(t *testing.T) {
	spec, err := ParseFleet([]byte(homeLabFleet))
	require.NoError(t, err)

	assert.Equal(t, 0.22, spec.Economics.ElectricityRate)
	assert.Equal(t, float64(DefaultHoursPerDay), spec.Economics.HoursPerDay, "unset hours take the default")

	require.Len(t, spec.Machines, 2)
	assert.Equal(t, "mini", spec.Machines[0].ID)
	assert.True(t, spec.Machines[0].Active, "omitted active defaults to true")
	assert.False(t, spec.Machines[1].Active)

	_, err = uuid.Parse(spec.Machines[1].ID)
	assert.NoError(t, err, "missing id is generated")
}

func TestParseFleet_NoEconomicsTable(t *testing.T) {
	spec, err := ParseFleet([]byte("[[machines]]\nid = \"a\"\nmemory_gb = 16\nhardware_class = \"M4\"\n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultEconomics(), spec.Economics)
}

func TestParseFleet_EmptyDocument(t *testing.T) {
	spec, err := ParseFleet(nil)
	require.NoError(t, err)
	assert.Empty(t, spec.Machines)
}

func TestParseFleet_ClampsEconomics(t *testing.T) {
	spec, err := ParseFleet([]byte("[economics]\nelectricity_rate = -1.0\nhours_per_day = 30.0\n"))
	require.NoError(t, err)
	assert.Equal(t, 0.0, spec.Economics.ElectricityRate)
	assert.Equal(t, 24.0, spec.Economics.HoursPerDay)
}

func TestParseFleet_NonFiniteEconomicsBecomeZero(t *testing.T) {
	spec, err := ParseFleet([]byte("[economics]\nelectricity_rate = nan\nhours_per_day = nan\n\n[[machines]]\nid = \"mini\"\nmemory_gb = 48.0\nhardware_class = \"M4 Pro\"\n"))
	require.NoError(t, err)
	assert.Equal(t, 0.0, spec.Economics.ElectricityRate)
	assert.Equal(t, 0.0, spec.Economics.HoursPerDay)

	spec, err = ParseFleet([]byte("[economics]\nelectricity_rate = inf\nhours_per_day = inf\n"))
	require.NoError(t, err)
	assert.Equal(t, 0.0, spec.Economics.ElectricityRate)
	assert.Equal(t, 24.0, spec.Economics.HoursPerDay)
}

func TestParseFleet_Errors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{"malformed", "[[machines]\n", "decoding fleet"},
		{"unknown key", "[[machines]]\nid = \"a\"\nmemory_gb = 16\nram = 16\n", "unknown key"},
		{"zero memory", "[[machines]]\nid = \"a\"\nmemory_gb = 0\n", "memory_gb must be positive"},
		{"nan memory", "[[machines]]\nid = \"a\"\nmemory_gb = nan\n", "memory_gb must be positive"},
		{"infinite memory", "[[machines]]\nid = \"a\"\nmemory_gb = inf\n", "memory_gb must be positive"},
		{"duplicate id", "[[machines]]\nid = \"a\"\nmemory_gb = 8\n[[machines]]\nid = \"a\"\nmemory_gb = 8\n", "duplicate machine id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFleet([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSaveFleetFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "fleet.toml")
	spec := FleetSpec{
		Economics: Economics{ElectricityRate: 0.15, HoursPerDay: 8},
		Machines: []models.Machine{
			{ID: "a", Name: "Mini A", MemoryGB: 48, HardwareClass: "M4 Pro", BandwidthGBs: 273, Active: true},
			{ID: "b", Name: "Mini B", MemoryGB: 24, HardwareClass: "M4 Pro", Active: false},
		},
	}

	require.NoError(t, SaveFleetFile(path, spec))

	loaded, err := LoadFleetFile(path)
	require.NoError(t, err)
	assert.Equal(t, spec, loaded)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestSaveFleetFile_RejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fleet.toml")
	err := SaveFleetFile(path, FleetSpec{Machines: []models.Machine{{ID: "x", MemoryGB: -4}}})
	require.Error(t, err)

	_, statErr := os.Stat(path)
	assert.True(t, errors.Is(statErr, fs.ErrNotExist))
}

func TestLoadFleetFile_Missing(t *testing.T) {
	_, err := LoadFleetFile(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestEncodeFleet_WritesActiveFlag(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, EncodeFleet(&sb, FleetSpec{
		Economics: DefaultEconomics(),
		Machines:  []models.Machine{{ID: "a", MemoryGB: 16, HardwareClass: "M4", Active: false}},
	}))
	assert.Contains(t, sb.String(), "active = false")
	assert.Contains(t, sb.String(), "[economics]")
}

func TestResolveBandwidth(t *testing.T) {
	c, err := catalog.Default()
	require.NoError(t, err)

	machines := []models.Machine{
		{ID: "pro", MemoryGB: 48, HardwareClass: "M4 Pro"},
		{ID: "max-gpu", MemoryGB: 36, HardwareClass: "M4 Max", GPU: "40-core GPU"},
		{ID: "explicit", MemoryGB: 48, HardwareClass: "M4 Pro", BandwidthGBs: 300},
		{ID: "odd-ram", MemoryGB: 40, HardwareClass: "M4 Pro"},
		{ID: "unknown", MemoryGB: 64, HardwareClass: "Threadripper"},
	}

	got := ResolveBandwidth(c, machines)

	assert.Equal(t, 273.0, got[0].BandwidthGBs)
	assert.Equal(t, 546.0, got[1].BandwidthGBs, "GPU entry wins over RAM entry")
	assert.Equal(t, 300.0, got[2].BandwidthGBs)
	assert.Equal(t, 0.0, got[3].BandwidthGBs)
	assert.Equal(t, 0.0, got[4].BandwidthGBs)
	assert.Equal(t, 0.0, machines[0].BandwidthGBs, "input is not modified")
}

func TestCheckHardwareClasses(t *testing.T) {
	c, err := catalog.Default()
	require.NoError(t, err)

	assert.NoError(t, CheckHardwareClasses(c, []models.Machine{{ID: "a", HardwareClass: "M4"}}))

	err = CheckHardwareClasses(c, []models.Machine{
		{ID: "a", HardwareClass: "M4"},
		{ID: "b", HardwareClass: "Threadripper"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownHardwareClass)
	assert.Contains(t, err.Error(), `"b"`)
}

func TestAssignMachineIDs(t *testing.T) {
	in := []models.Machine{{ID: "keep", MemoryGB: 8}, {ID: "  ", MemoryGB: 16}}
	out := AssignMachineIDs(in)

	assert.Equal(t, "keep", out[0].ID)
	_, err := uuid.Parse(out[1].ID)
	assert.NoError(t, err)
	assert.Equal(t, "  ", in[1].ID, "input is not modified")
}
