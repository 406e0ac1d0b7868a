// ABOUTME: Capacity planning request and result models
// ABOUTME: ModelResult is recomputed wholesale on every planning pass

package models

// Status is the runnability classification of a model on a fleet
type Status string

const (
	StatusFast        Status = "fast"
	StatusRuns        Status = "runs"
	StatusDistributed Status = "distributed"
	// StatusTight is part of the result vocabulary but no rule produces it.
	StatusTight Status = "tight"
	StatusNo    Status = "no"
)

// Runnable reports whether the status represents a model that can run
func (s Status) Runnable() bool {
	return s != StatusNo
}

// Run mode and placement labels
const (
	RunModeSingle = "single machine"
	RunsOnCluster = "exo cluster"
)

// ModelResult is the derived classification of one model against a fleet
type ModelResult struct {
	Name                 string       `json:"name"`
	Params               string       `json:"params"`
	Quant                string       `json:"quant"`
	MemoryGB             float64      `json:"memory_gb"`
	Category             Category     `json:"category"`
	Type                 WorkloadType `json:"type"`
	Description          string       `json:"description"`
	Pricing              Pricing      `json:"pricing"`
	Status               Status       `json:"status"`
	Speed                string       `json:"speed"`
	RunMode              string       `json:"run_mode"`
	RunsOn               string       `json:"runs_on"`
	RunnableMachineCount int          `json:"runnable_machine_count"`
	RunsOnAllMachines    bool         `json:"runs_on_all_machines"`
	Notes                string       `json:"notes"`
	MonthlySavings       *float64     `json:"monthly_savings,omitempty"`
}

// PlanRequest is the body of a planning request
type PlanRequest struct {
	Machines []Machine `json:"machines"`
}

// PlanResponse wraps results with the fleet aggregates they were computed for
type PlanResponse struct {
	Results            []ModelResult `json:"results"`
	TotalMemoryGB      float64       `json:"total_memory_gb"`
	MaxSingleMachineGB float64       `json:"max_single_machine_gb"`
	MachineCount       int           `json:"machine_count"`
	RunnableCount      int           `json:"runnable_count"`
}
