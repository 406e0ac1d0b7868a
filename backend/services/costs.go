// ABOUTME: Cost aggregator and ROI projector across a planning result set
// ABOUTME: Combines hardware price midpoints with local vs cloud monthly costs

package services

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/keir-whitehead/setup-lab-3d/backend/catalog"
	"github.com/keir-whitehead/setup-lab-3d/backend/models"
)

// ROIHorizons are the month checkpoints of the ROI table
var ROIHorizons = []int{3, 6, 12, 24, 36}

// CostProjector computes fleet-level economics
type CostProjector struct {
	catalog *catalog.Catalog
}

// NewCostProjector creates a projector that prices hardware from c
func NewCostProjector(c *catalog.Catalog) *CostProjector {
	return &CostProjector{catalog: c}
}

// HardwareCost prices each active machine at the midpoint of its class range.
// Machines with an unknown class cost 0.
func (p *CostProjector) HardwareCost(machines []models.Machine) (float64, []models.HardwareLine) {
	active := models.ActiveMachines(machines)
	lines := make([]models.HardwareLine, 0, len(active))
	costs := make([]float64, 0, len(active))
	for _, m := range active {
		cost, ok := p.catalog.PriceMidpoint(m.HardwareClass)
		lines = append(lines, models.HardwareLine{
			MachineID:     m.ID,
			HardwareClass: m.HardwareClass,
			Cost:          cost,
			Priced:        ok,
		})
		costs = append(costs, cost)
	}
	return floats.Sum(costs), lines
}

// MonthlyCosts sums cloud-equivalent and local running cost over runnable results.
// Results without a cloud price add nothing to the cloud side.
func MonthlyCosts(results []models.ModelResult, electricityRate, hoursPerDay float64) (cloud, local float64) {
	var cloudCosts, localCosts []float64
	for _, r := range results {
		if !r.Status.Runnable() {
			continue
		}
		if c, ok := CloudMonthlyCost(r.Type, r.Params, r.Pricing); ok {
			cloudCosts = append(cloudCosts, c)
		}
		localCosts = append(localCosts, LocalCostPerMonth(r.Params, electricityRate, hoursPerDay))
	}
	return floats.Sum(cloudCosts), floats.Sum(localCosts)
}

// BreakEvenMonths is ceil(hardware/savings) when savings are positive and finite
func BreakEvenMonths(hardwareCost, monthlySavings float64) models.BreakEven {
	if !(monthlySavings > 0) || math.IsInf(monthlySavings, 0) || math.IsNaN(hardwareCost) {
		return models.BreakEven{}
	}
	return models.BreakEven{Months: int(math.Ceil(hardwareCost / monthlySavings)), Reached: true}
}

// ROITable computes net return and percent return at each horizon.
// Percent is 0 when there is no hardware cost.
func ROITable(hardwareCost, monthlySavings float64) []models.ROIEntry {
	table := make([]models.ROIEntry, len(ROIHorizons))
	for i, months := range ROIHorizons {
		net := monthlySavings*float64(months) - hardwareCost
		pct := 0
		if hardwareCost > 0 {
			pct = int(math.Floor(net/hardwareCost*100 + 0.5))
		}
		table[i] = models.ROIEntry{Months: months, NetROI: net, ROIPercent: pct}
	}
	return table
}

// Project computes the full cost projection. Negative rates and hours are
// clamped to zero and hours are capped at 24.
func (p *CostProjector) Project(machines []models.Machine, results []models.ModelResult, electricityRate, hoursPerDay float64) models.CostProjection {
	econ := Economics{ElectricityRate: electricityRate, HoursPerDay: hoursPerDay}.Normalize()

	hardware, lines := p.HardwareCost(machines)
	cloud, local := MonthlyCosts(results, econ.ElectricityRate, econ.HoursPerDay)
	savings := cloud - local

	return models.CostProjection{
		HardwareCost:    hardware,
		Hardware:        lines,
		MonthlyLocal:    local,
		MonthlyCloud:    cloud,
		MonthlySavings:  savings,
		BreakEven:       BreakEvenMonths(hardware, savings),
		ROI:             ROITable(hardware, savings),
		ElectricityRate: econ.ElectricityRate,
		HoursPerDay:     econ.HoursPerDay,
	}
}
