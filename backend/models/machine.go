// ABOUTME: Machine and fleet models for capacity planning input
// ABOUTME: Includes validation and derived fleet aggregates

package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// Machine is one user-declared compute machine
type Machine struct {
	ID            string  `json:"id" toml:"id"`
	Name          string  `json:"name" toml:"name"`
	MemoryGB      float64 `json:"memory_gb" toml:"memory_gb"`
	HardwareClass string  `json:"hardware_class" toml:"hardware_class"`
	GPU           string  `json:"gpu,omitempty" toml:"gpu,omitempty"`
	BandwidthGBs  float64 `json:"bandwidth_gbs,omitempty" toml:"bandwidth_gbs,omitempty"`
	Active        bool    `json:"active" toml:"active"`
}

// UnmarshalJSON treats a machine without an "active" field as active
func (m *Machine) UnmarshalJSON(data []byte) error {
	type plain Machine
	decoded := plain{Active: true}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*m = Machine(decoded)
	return nil
}

// DisplayName returns the machine name, falling back to its ID
func (m Machine) DisplayName() string {
	if m.Name != "" {
		return m.Name
	}
	return m.ID
}

// Validate checks a single machine
func (m Machine) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return errors.New("machine id is required")
	}
	if !(m.MemoryGB > 0) || math.IsInf(m.MemoryGB, 0) {
		return fmt.Errorf("machine %q: memory_gb must be positive and finite, got %g", m.ID, m.MemoryGB)
	}
	if !(m.BandwidthGBs >= 0) || math.IsInf(m.BandwidthGBs, 0) {
		return fmt.Errorf("machine %q: bandwidth_gbs must be a finite non-negative number, got %g", m.ID, m.BandwidthGBs)
	}
	return nil
}

// ValidateMachines checks every machine and that IDs are unique
func ValidateMachines(machines []Machine) error {
	seen := make(map[string]bool, len(machines))
	for i, m := range machines {
		if err := m.Validate(); err != nil {
			return fmt.Errorf("machines[%d]: %w", i, err)
		}
		if seen[m.ID] {
			return fmt.Errorf("machines[%d]: duplicate machine id %q", i, m.ID)
		}
		seen[m.ID] = true
	}
	return nil
}

// ActiveMachines returns the machines with Active set, preserving order
func ActiveMachines(machines []Machine) []Machine {
	active := make([]Machine, 0, len(machines))
	for _, m := range machines {
		if m.Active {
			active = append(active, m)
		}
	}
	return active
}

// Fleet holds aggregates over the active machine set
type Fleet struct {
	Machines         []Machine `json:"-"`
	TotalMemoryGB    float64   `json:"total_memory_gb"`
	MaxSingleMachine float64   `json:"max_single_machine_gb"`
	MachineCount     int       `json:"machine_count"`
}

// NewFleet derives aggregates from already-filtered active machines
func NewFleet(active []Machine) Fleet {
	f := Fleet{Machines: active, MachineCount: len(active)}
	for _, m := range active {
		f.TotalMemoryGB += m.MemoryGB
		if m.MemoryGB > f.MaxSingleMachine {
			f.MaxSingleMachine = m.MemoryGB
		}
	}
	return f
}

// Empty reports whether the fleet has no active machines
func (f Fleet) Empty() bool {
	return f.MachineCount == 0
}

// SafeTotal returns the total memory, or 1 for an empty fleet
func (f Fleet) SafeTotal() float64 {
	if f.TotalMemoryGB <= 0 {
		return 1
	}
	return f.TotalMemoryGB
}

// SafeMax returns the largest machine's memory, or 1 for an empty fleet
func (f Fleet) SafeMax() float64 {
	if f.MaxSingleMachine <= 0 {
		return 1
	}
	return f.MaxSingleMachine
}

// FleetSummary describes a stored fleet without its machines
type FleetSummary struct {
	Name         string    `json:"name"`
	MachineCount int       `json:"machine_count"`
	UpdatedAt    time.Time `json:"updated_at"`
}
