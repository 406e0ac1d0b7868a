// ABOUTME: Shared API data models and small nullable-number helpers
// ABOUTME: JSON-serializable structures used by handlers, services, and the CLI

package models

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Code    int    `json:"code"`
}

// HealthResponse reports service status and reference data sizes
type HealthResponse struct {
	Status        string `json:"status"`
	ModelCount    int    `json:"model_count"`
	CloudCount    int    `json:"cloud_service_count"`
	HardwareCount int    `json:"hardware_class_count"`
	FleetStore    string `json:"fleet_store"`
	FleetMachines int    `json:"fleet_machines"`
}

// Float returns a pointer to v. Used to build nullable catalog values.
func Float(v float64) *float64 {
	return &v
}

// FloatOr dereferences p, returning fallback when p is nil.
func FloatOr(p *float64, fallback float64) float64 {
	if p == nil {
		return fallback
	}
	return *p
}
