// ABOUTME: Tests for the cost aggregator and ROI projector
// ABOUTME: Validates hardware pricing, savings aggregation, break-even, and ROI guards

package services

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keir-whitehead/setup-lab-3d/backend/catalog"
	"github.com/keir-whitehead/setup-lab-3d/backend/models"
)

func newTestProjector(t *testing.T) *CostProjector {
	t.Helper()
	c, err := catalog.Default()
	require.NoError(t, err)
	return NewCostProjector(c)
}

func TestProject_ZeroMachines(t *testing.T) {
	planner := newTestPlanner(t)
	projector := newTestProjector(t)

	results := planner.Plan(nil)
	proj := projector.Project(nil, results, DefaultElectricityRate, DefaultHoursPerDay)

	assert.Equal(t, 0.0, proj.HardwareCost)
	assert.Equal(t, 0.0, proj.MonthlyCloud)
	assert.Equal(t, 0.0, proj.MonthlyLocal)
	assert.Equal(t, 0.0, proj.MonthlySavings)
	assert.False(t, proj.BreakEven.Reached)

	require.Len(t, proj.ROI, len(ROIHorizons))
	for _, entry := range proj.ROI {
		assert.Equal(t, 0, entry.ROIPercent, "horizon %d", entry.Months)
	}
}

func TestProject_SingleMiniFleet(t *testing.T) {
	planner := newTestPlanner(t)
	projector := newTestProjector(t)

	machines := []models.Machine{{ID: "mini", MemoryGB: 48, HardwareClass: "M4 Pro", Active: true}}
	results := planner.Plan(machines)
	proj := projector.Project(machines, results, 0.30, 12)

	// Runnable: R1, Llama, Phi-4, Gemma, Whisper, SD 3.5, FLUX
	assert.Equal(t, 1999.0, proj.HardwareCost)
	assert.InDelta(t, 365.0, proj.MonthlyCloud, 1e-9)
	assert.InDelta(t, 60.48, proj.MonthlyLocal, 1e-9)
	assert.InDelta(t, 304.52, proj.MonthlySavings, 1e-9)

	assert.True(t, proj.BreakEven.Reached)
	assert.Equal(t, 7, proj.BreakEven.Months)

	wantPercents := []int{-54, -9, 83, 266, 448}
	require.Len(t, proj.ROI, len(wantPercents))
	for i, want := range wantPercents {
		assert.Equal(t, ROIHorizons[i], proj.ROI[i].Months)
		assert.Equal(t, want, proj.ROI[i].ROIPercent, "horizon %d", ROIHorizons[i])
	}
	assert.InDelta(t, -1085.44, proj.ROI[0].NetROI, 1e-9)
}

func TestHardwareCost_UnknownClassContributesZero(t *testing.T) {
	projector := newTestProjector(t)

	machines := []models.Machine{
		{ID: "a", MemoryGB: 16, HardwareClass: "M4", Active: true},
		{ID: "b", MemoryGB: 64, HardwareClass: "Threadripper", Active: true},
		{ID: "c", MemoryGB: 128, HardwareClass: "M4 Max", Active: false},
	}
	total, lines := projector.HardwareCost(machines)

	assert.Equal(t, 699.0, total)
	require.Len(t, lines, 2)
	assert.True(t, lines[0].Priced)
	assert.False(t, lines[1].Priced)
	assert.Equal(t, 0.0, lines[1].Cost)
}

func TestMonthlyCosts_SkipsNonRunnableAndUnpriced(t *testing.T) {
	results := []models.ModelResult{
		{Params: "8B", Type: models.WorkloadLLM, Status: models.StatusFast,
			Pricing: models.Pricing{CostPerMTokenInput: models.Float(0.1), CostPerMTokenOutput: models.Float(0.1)}},
		{Params: "8B", Type: models.WorkloadLLM, Status: models.StatusNo,
			Pricing: models.Pricing{CostPerMTokenInput: models.Float(5), CostPerMTokenOutput: models.Float(5)}},
		{Params: "809M", Type: models.WorkloadAudio, Status: models.StatusFast},
	}

	cloud, local := MonthlyCosts(results, 0.30, 12)
	assert.InDelta(t, 40.0, cloud, 1e-9)
	assert.InDelta(t, 12.96, local, 1e-9)
}

func TestProject_NegativeSavingsIsReportedNotClamped(t *testing.T) {
	projector := newTestProjector(t)
	results := []models.ModelResult{
		{Params: "809M", Type: models.WorkloadAudio, Status: models.StatusFast},
	}

	proj := projector.Project(nil, results, 0.30, 12)
	assert.InDelta(t, -6.48, proj.MonthlySavings, 1e-9)
	assert.False(t, proj.BreakEven.Reached)
}

func TestBreakEvenMonths(t *testing.T) {
	tests := []struct {
		name     string
		hardware float64
		savings  float64
		want     models.BreakEven
	}{
		{"rounds up", 1000, 300, models.BreakEven{Months: 4, Reached: true}},
		{"exact", 900, 300, models.BreakEven{Months: 3, Reached: true}},
		{"no hardware", 0, 50, models.BreakEven{Months: 0, Reached: true}},
		{"zero savings", 1000, 0, models.BreakEven{}},
		{"negative savings", 1000, -20, models.BreakEven{}},
		{"nan savings", 1000, math.NaN(), models.BreakEven{}},
		{"infinite savings", 1000, math.Inf(1), models.BreakEven{}},
		{"nan hardware", math.NaN(), 50, models.BreakEven{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BreakEvenMonths(tt.hardware, tt.savings))
		})
	}
}

func TestROITable_ZeroHardwareReportsZeroPercent(t *testing.T) {
	for _, entry := range ROITable(0, 100) {
		assert.Equal(t, 0, entry.ROIPercent)
		assert.Equal(t, 100*float64(entry.Months), entry.NetROI)
	}
}

func TestProject_ClampsEconomics(t *testing.T) {
	projector := newTestProjector(t)
	proj := projector.Project(nil, nil, -0.5, 48)

	assert.Equal(t, 0.0, proj.ElectricityRate)
	assert.Equal(t, 24.0, proj.HoursPerDay)
}

func TestProject_NonFiniteEconomicsStayEncodable(t *testing.T) {
	c, err := catalog.Default()
	require.NoError(t, err)
	nan := Economics{ElectricityRate: math.NaN(), HoursPerDay: math.NaN()}
	planner := NewCapacityPlanner(c, nan)
	projector := NewCostProjector(c)

	machines := []models.Machine{{ID: "mini", MemoryGB: 48, HardwareClass: "M4 Pro", Active: true}}
	results := planner.Plan(machines)
	proj := projector.Project(machines, results, nan.ElectricityRate, nan.HoursPerDay)

	assert.Equal(t, 0.0, proj.ElectricityRate)
	assert.Equal(t, 0.0, proj.HoursPerDay)
	assert.InDelta(t, 365.0, proj.MonthlySavings, 1e-9)
	assert.Equal(t, models.BreakEven{Months: 6, Reached: true}, proj.BreakEven)

	_, err = json.Marshal(proj)
	assert.NoError(t, err)
	_, err = json.Marshal(results)
	assert.NoError(t, err)
}
