// ABOUTME: Cost projection models: hardware spend, monthly savings, break-even, ROI
// ABOUTME: BreakEven encodes the unreached case as a distinct JSON sentinel

package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// BreakEvenUnreached is the JSON value of a break-even that never happens
const BreakEvenUnreached = "unreached"

// BreakEven is the number of months of savings needed to pay off hardware.
// When Reached is false, Months is meaningless.
type BreakEven struct {
	Months  int
	Reached bool
}

// String renders the break-even for display
func (b BreakEven) String() string {
	if !b.Reached {
		return BreakEvenUnreached
	}
	return fmt.Sprintf("%d months", b.Months)
}

// MarshalJSON encodes a reached break-even as an integer and an unreached one as "unreached"
func (b BreakEven) MarshalJSON() ([]byte, error) {
	if !b.Reached {
		return json.Marshal(BreakEvenUnreached)
	}
	return []byte(strconv.Itoa(b.Months)), nil
}

// UnmarshalJSON accepts either an integer month count or "unreached"
func (b *BreakEven) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s != BreakEvenUnreached {
			return fmt.Errorf("invalid break-even value %q", s)
		}
		*b = BreakEven{}
		return nil
	}
	var months int
	if err := json.Unmarshal(data, &months); err != nil {
		return fmt.Errorf("invalid break-even value: %w", err)
	}
	*b = BreakEven{Months: months, Reached: true}
	return nil
}

// ROIEntry is one horizon of the ROI table
type ROIEntry struct {
	Months     int     `json:"months"`
	NetROI     float64 `json:"net_roi"`
	ROIPercent int     `json:"roi_percent"`
}

// HardwareLine is the acquisition cost attributed to one active machine
type HardwareLine struct {
	MachineID     string  `json:"machine_id"`
	HardwareClass string  `json:"hardware_class"`
	Cost          float64 `json:"cost"`
	Priced        bool    `json:"priced"`
}

// CostProjection is the aggregate economics of a fleet
type CostProjection struct {
	HardwareCost    float64        `json:"hardware_cost"`
	Hardware        []HardwareLine `json:"hardware"`
	MonthlyLocal    float64        `json:"monthly_local"`
	MonthlyCloud    float64        `json:"monthly_cloud"`
	MonthlySavings  float64        `json:"monthly_savings"`
	BreakEven       BreakEven      `json:"break_even_months"`
	ROI             []ROIEntry     `json:"roi"`
	ElectricityRate float64        `json:"electricity_rate"`
	HoursPerDay     float64        `json:"hours_per_day"`
}

// CostRequest is the body of a cost projection request.
// Nil economics fields fall back to the server defaults.
type CostRequest struct {
	Machines        []Machine `json:"machines"`
	ElectricityRate *float64  `json:"electricity_rate,omitempty"`
	HoursPerDay     *float64  `json:"hours_per_day,omitempty"`
}
