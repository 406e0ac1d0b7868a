// ABOUTME: Economics calculator for local running cost and cloud-equivalent cost
// ABOUTME: Pure functions keyed on a model's parameter-count descriptor

package services

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/keir-whitehead/setup-lab-3d/backend/models"
)

// Economics defaults
const (
	DefaultElectricityRate = 0.30 // per kWh
	DefaultHoursPerDay     = 12
	DaysPerMonth           = 30
)

// Assumed monthly cloud usage for per-unit priced workloads
const (
	monthlyImages     = 5000
	monthlyAudioHours = 200
)

var sizePattern = regexp.MustCompile(`(?i)([\d.]+)\s*([BM])`)

// ParseSizeBillions extracts the parameter count in billions from a
// descriptor such as "72B", "809M" or "671B MoE". ok is false when the
// descriptor does not match.
func ParseSizeBillions(params string) (billions float64, ok bool) {
	match := sizePattern.FindStringSubmatch(params)
	if match == nil {
		return 0, false
	}
	value, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, false
	}
	if strings.EqualFold(match[2], "M") {
		return value / 1000, true
	}
	return value, true
}

// PowerDrawWatts maps model size to an assumed average power draw.
// This is a coarse tiered model of a desktop-class machine under inference
// load, not a measurement.
func PowerDrawWatts(params string) float64 {
	size, ok := ParseSizeBillions(params)
	switch {
	case !ok:
		return 80
	case size < 10:
		return 60
	case size < 40:
		return 80
	case size < 100:
		return 100
	default:
		return 120
	}
}

// LocalCostPerHour is the electricity cost of running the model for one hour
func LocalCostPerHour(params string, electricityRate float64) float64 {
	return PowerDrawWatts(params) / 1000 * electricityRate
}

// LocalCostPerMonth is the electricity cost for hoursPerDay of use over a 30 day month
func LocalCostPerMonth(params string, electricityRate, hoursPerDay float64) float64 {
	return LocalCostPerHour(params, electricityRate) * hoursPerDay * DaysPerMonth
}

// MonthlyTokenVolumeMillions is the assumed monthly token volume used to
// normalize cloud comparisons. Smaller models are assumed to serve
// higher-volume work; frontier-sized models lower volume.
func MonthlyTokenVolumeMillions(params string) float64 {
	size, ok := ParseSizeBillions(params)
	switch {
	case !ok:
		return 100
	case size < 10:
		return 200
	case size <= 70:
		return 100
	case size > 100:
		return 30
	default:
		return 100
	}
}

// CloudMonthlyCost estimates what equivalent usage would cost on a priced API.
// ok is false when the prices for the workload type are absent, meaning no
// comparison is available.
func CloudMonthlyCost(workload models.WorkloadType, params string, pricing models.Pricing) (cost float64, ok bool) {
	switch workload {
	case models.WorkloadLLM:
		if pricing.CostPerMTokenInput == nil || pricing.CostPerMTokenOutput == nil {
			return 0, false
		}
		return (*pricing.CostPerMTokenInput + *pricing.CostPerMTokenOutput) * MonthlyTokenVolumeMillions(params), true
	case models.WorkloadImage:
		if pricing.CostPerImage == nil {
			return 0, false
		}
		return *pricing.CostPerImage * monthlyImages, true
	case models.WorkloadAudio:
		if pricing.CostPerAudioHour == nil {
			return 0, false
		}
		return *pricing.CostPerAudioHour * monthlyAudioHours, true
	}
	return 0, false
}

// Economics carries the user-adjustable cost parameters
type Economics struct {
	ElectricityRate float64 `json:"electricity_rate" toml:"electricity_rate"`
	HoursPerDay     float64 `json:"hours_per_day" toml:"hours_per_day"`
}

// DefaultEconomics returns the default electricity rate and daily runtime
func DefaultEconomics() Economics {
	return Economics{ElectricityRate: DefaultElectricityRate, HoursPerDay: DefaultHoursPerDay}
}

// Normalize clamps the rate at zero and hours into [0, 24]. A NaN or
// infinite rate and NaN hours become 0.
func (e Economics) Normalize() Economics {
	if !(e.ElectricityRate >= 0) || math.IsInf(e.ElectricityRate, 0) {
		e.ElectricityRate = 0
	}
	if !(e.HoursPerDay >= 0) {
		e.HoursPerDay = 0
	}
	if e.HoursPerDay > 24 {
		e.HoursPerDay = 24
	}
	return e
}
