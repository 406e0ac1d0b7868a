// ABOUTME: Capacity planner classifying catalog models against the active machine set
// ABOUTME: Ordered rule table picks status, run mode, throughput, and placement per model

package services

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/keir-whitehead/setup-lab-3d/backend/catalog"
	"github.com/keir-whitehead/setup-lab-3d/backend/models"
)

// Fit margins: usable fraction of machine memory
const (
	SingleMachineMargin = 0.85
	DistributedMargin   = 0.9
	LotsOfRoomMargin    = 0.5
)

// Distributed throughput policy
const (
	DefaultExoSpeed          = 8.0
	extraMachineSpeedup      = 0.25
	distributedOnlyMarker    = "distributed only"
	defaultRealtimeMultiple  = 50.0
	distributedBaselineNodes = 2
)

// FitsOnSingle reports whether def fits on machine with the single-machine margin
func FitsOnSingle(def models.ModelDefinition, machine models.Machine) bool {
	return def.MemoryGB <= machine.MemoryGB*SingleMachineMargin
}

// FittingMachines returns every machine in the fleet that can hold def alone
func FittingMachines(def models.ModelDefinition, fleet models.Fleet) []models.Machine {
	var fitting []models.Machine
	for _, m := range fleet.Machines {
		if FitsOnSingle(def, m) {
			fitting = append(fitting, m)
		}
	}
	return fitting
}

// FitsOnAnyMachine reports whether at least one active machine can hold def
func FitsOnAnyMachine(def models.ModelDefinition, fleet models.Fleet) bool {
	return len(FittingMachines(def, fleet)) > 0
}

// FitsDistributed reports whether def fits across the combined memory of two or more machines
func FitsDistributed(def models.ModelDefinition, fleet models.Fleet) bool {
	if fleet.MachineCount < 2 {
		return false
	}
	return def.MemoryGB <= fleet.TotalMemoryGB*DistributedMargin
}

// HasLotsOfRoom reports whether def leaves at least half of the largest machine free
func HasLotsOfRoom(def models.ModelDefinition, fleet models.Fleet) bool {
	if fleet.Empty() {
		return false
	}
	return def.MemoryGB <= fleet.MaxSingleMachine*LotsOfRoomMargin
}

// placement is the input every classification rule sees
type placement struct {
	def     models.ModelDefinition
	fleet   models.Fleet
	fitting []models.Machine
}

func (p placement) fitsAny() bool {
	return len(p.fitting) > 0
}

// outcome is what a rule decides for one model
type outcome struct {
	status  models.Status
	speed   float64
	runMode string
	runsOn  string
	notes   string
}

// classificationRule is one row of the decision table
type classificationRule struct {
	name    string
	matches func(p placement) bool
	decide  func(p placement) outcome
}

// classificationRules are evaluated in order; the first match wins.
// The last rule always matches.
var classificationRules = []classificationRule{
	{
		name:    "audio",
		matches: func(p placement) bool { return p.def.Type == models.WorkloadAudio },
		decide: func(p placement) outcome {
			return singleMachineOrNothing(p, audioRealtimeMultiple(p.def))
		},
	},
	{
		name:    "image",
		matches: func(p placement) bool { return p.def.Type == models.WorkloadImage },
		decide: func(p placement) outcome {
			return singleMachineOrNothing(p, models.FloatOr(p.def.ImageSeconds, 0))
		},
	},
	{
		name:    "lots-of-room",
		matches: func(p placement) bool { return HasLotsOfRoom(p.def, p.fleet) },
		decide: func(p placement) outcome {
			return outcome{
				status:  models.StatusFast,
				speed:   SingleMachineThroughput(p.def),
				runMode: models.RunModeSingle,
				runsOn:  machineNames(p.fitting),
				notes:   fmt.Sprintf("%d%% RAM headroom. No need for distributed.", headroomPercent(p.def.MemoryGB, p.fleet.SafeMax())),
			}
		},
	},
	{
		name:    "fits-on-one",
		matches: func(p placement) bool { return p.fitsAny() },
		decide: func(p placement) outcome {
			return outcome{
				status:  models.StatusRuns,
				speed:   SingleMachineThroughput(p.def),
				runMode: models.RunModeSingle,
				runsOn:  machineNames(p.fitting),
				notes:   fmt.Sprintf("%d%% headroom on largest machine.", headroomPercent(p.def.MemoryGB, p.fleet.SafeMax())),
			}
		},
	},
	{
		name:    "distributed",
		matches: func(p placement) bool { return FitsDistributed(p.def, p.fleet) },
		decide: func(p placement) outcome {
			return outcome{
				status:  models.StatusDistributed,
				speed:   DistributedThroughput(p.def, p.fleet.MachineCount),
				runMode: fmt.Sprintf("exo across %d machines", p.fleet.MachineCount),
				runsOn:  models.RunsOnCluster,
				notes: fmt.Sprintf("Requires distributed inference. %d%% headroom across %sGB.",
					headroomPercent(p.def.MemoryGB, p.fleet.SafeTotal()), formatGB(p.fleet.TotalMemoryGB)),
			}
		},
	},
	{
		name:    "does-not-fit",
		matches: func(p placement) bool { return true },
		decide:  notRunnable,
	},
}

func singleMachineOrNothing(p placement, speed float64) outcome {
	if !p.fitsAny() {
		o := notRunnable(p)
		o.speed = speed
		return o
	}
	return outcome{
		status:  models.StatusFast,
		speed:   speed,
		runMode: models.RunModeSingle,
		runsOn:  machineNames(p.fitting),
		notes:   p.def.Description,
	}
}

func notRunnable(p placement) outcome {
	return outcome{
		status:  models.StatusNo,
		runMode: fmt.Sprintf("Need %sGB+", formatGB(p.def.MemoryGB)),
		notes:   p.def.Description,
	}
}

// SingleMachineThroughput returns the first available single-machine
// coefficient in priority order, or 0 when none is set.
func SingleMachineThroughput(def models.ModelDefinition) float64 {
	for _, coefficient := range def.SingleMachineCoefficients() {
		if coefficient != nil {
			return *coefficient
		}
	}
	return 0
}

// DistributedThroughput scales the cluster coefficient by 25% per machine
// beyond two, unless the model is marked as distributed-only.
func DistributedThroughput(def models.ModelDefinition, machineCount int) float64 {
	base := models.FloatOr(def.ExoSpeed, DefaultExoSpeed)
	if strings.Contains(strings.ToLower(def.ExoNote), distributedOnlyMarker) {
		return base
	}
	extra := math.Max(float64(machineCount-distributedBaselineNodes), 0)
	return base * (1 + extra*extraMachineSpeedup)
}

func audioRealtimeMultiple(def models.ModelDefinition) float64 {
	rt := models.FloatOr(def.RTFactor, 0)
	if rt <= 0 {
		return defaultRealtimeMultiple
	}
	return 1 / rt
}

// FormatSpeed renders a throughput as "<non-negative integer> <unit>"
func FormatSpeed(value float64, unit string) string {
	if math.IsNaN(value) || value < 0 {
		value = 0
	}
	return fmt.Sprintf("%d %s", int64(math.Floor(value+0.5)), unit)
}

func headroomPercent(required, capacity float64) int {
	return int(math.Floor((1-required/capacity)*100 + 0.5))
}

func machineNames(machines []models.Machine) string {
	names := make([]string, len(machines))
	for i, m := range machines {
		names[i] = m.DisplayName()
	}
	return strings.Join(names, ", ")
}

func formatGB(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// CapacityPlanner classifies every catalog model against a machine set
type CapacityPlanner struct {
	catalog   *catalog.Catalog
	economics Economics
}

// NewCapacityPlanner creates a planner. Monthly savings use econ.
func NewCapacityPlanner(c *catalog.Catalog, econ Economics) *CapacityPlanner {
	return &CapacityPlanner{catalog: c, economics: econ.Normalize()}
}

// Economics returns the parameters used for per-model monthly savings
func (p *CapacityPlanner) Economics() Economics {
	return p.economics
}

// Catalog returns the catalog the planner reads from
func (p *CapacityPlanner) Catalog() *catalog.Catalog {
	return p.catalog
}

// Plan filters machines to the active set and classifies every catalog
// model in declaration order. The result is freshly built on every call.
func (p *CapacityPlanner) Plan(machines []models.Machine) []models.ModelResult {
	fleet := models.NewFleet(models.ActiveMachines(machines))
	defs := p.catalog.Models()

	results := make([]models.ModelResult, 0, len(defs))
	for _, def := range defs {
		results = append(results, p.Classify(def, fleet))
	}

	slog.Debug("Planning pass complete",
		"models", len(results),
		"machines", fleet.MachineCount,
		"total_memory_gb", fleet.TotalMemoryGB,
		"runnable", CountRunnable(results),
	)
	return results
}

// Classify evaluates the rule table for one model against a fleet
func (p *CapacityPlanner) Classify(def models.ModelDefinition, fleet models.Fleet) models.ModelResult {
	pl := placement{def: def, fleet: fleet, fitting: FittingMachines(def, fleet)}

	var o outcome
	for _, rule := range classificationRules {
		if rule.matches(pl) {
			o = rule.decide(pl)
			break
		}
	}

	result := models.ModelResult{
		Name:                 def.Name,
		Params:               def.Params,
		Quant:                def.Quant,
		MemoryGB:             def.MemoryGB,
		Category:             def.Category,
		Type:                 def.Type,
		Description:          def.Description,
		Pricing:              def.Pricing,
		Status:               o.status,
		Speed:                FormatSpeed(o.speed, def.Unit),
		RunMode:              o.runMode,
		RunsOn:               o.runsOn,
		RunnableMachineCount: len(pl.fitting),
		RunsOnAllMachines:    fleet.MachineCount > 0 && len(pl.fitting) == fleet.MachineCount,
		Notes:                o.notes,
	}

	if o.status.Runnable() {
		if cloud, ok := CloudMonthlyCost(def.Type, def.Params, def.Pricing); ok {
			savings := cloud - LocalCostPerMonth(def.Params, p.economics.ElectricityRate, p.economics.HoursPerDay)
			result.MonthlySavings = &savings
		}
	}

	return result
}
