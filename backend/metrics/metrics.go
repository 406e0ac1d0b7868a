// ABOUTME: Prometheus collectors for planning passes, cost projections, and HTTP traffic
// ABOUTME: Registered once per process via InitMetrics; emitted through MetricsEmitter

package metrics

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/keir-whitehead/setup-lab-3d/backend/models"
)

// Metric names
const (
	PlanPassesTotal         = "aicap_plan_passes_total"
	PlanDurationSeconds     = "aicap_plan_duration_seconds"
	ModelStatus             = "aicap_model_status"
	ProjectedMonthlySavings = "aicap_projected_monthly_savings"
	HTTPRequestsTotal       = "aicap_http_requests_total"
)

// Label names
const (
	LabelSource = "source"
	LabelModel  = "model"
	LabelStatus = "status"
	LabelRoute  = "route"
	LabelMethod = "method"
	LabelCode   = "code"
)

// Plan sources
const (
	SourceRequest    = "request"
	SourceFleet      = "fleet"
	SourceNamedFleet = "named_fleet"
)

var (
	planPasses     *prometheus.CounterVec
	planDuration   *prometheus.HistogramVec
	modelStatus    *prometheus.GaugeVec
	monthlySavings *prometheus.GaugeVec
	httpRequests   *prometheus.CounterVec

	initOnce sync.Once
	initErr  error
)

const (
	// maxLabelLength bounds label values so user-supplied names cannot blow up cardinality
	maxLabelLength = 128
	unknownLabel   = "unknown"
)

// sanitizeLabel trims whitespace, drops invalid UTF-8, replaces empty values
// with "unknown" and truncates to at most maxLabelLength bytes on a rune
// boundary.
func sanitizeLabel(value string) string {
	value = strings.TrimSpace(strings.ToValidUTF8(value, ""))
	if len(value) > maxLabelLength {
		value = strings.ToValidUTF8(value[:maxLabelLength], "")
	}
	if value == "" {
		return unknownLabel
	}
	return value
}

// InitMetrics registers all collectors with the provided registry.
// Only the first call registers; later calls return the first call's result.
func InitMetrics(registry prometheus.Registerer) error {
	initOnce.Do(func() {
		planPasses = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: PlanPassesTotal,
				Help: "Total number of capacity planning passes",
			},
			[]string{LabelSource},
		)
		planDuration = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    PlanDurationSeconds,
				Help:    "Duration of capacity planning passes in seconds",
				Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
			[]string{LabelSource},
		)
		modelStatus = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: ModelStatus,
				Help: "Fit status of each model for the stored fleet: 1 for the current status",
			},
			[]string{LabelModel, LabelStatus},
		)
		monthlySavings = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: ProjectedMonthlySavings,
				Help: "Projected monthly savings of local inference versus cloud APIs",
			},
			[]string{LabelSource},
		)
		httpRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: HTTPRequestsTotal,
				Help: "Total HTTP requests by route, method and status code",
			},
			[]string{LabelRoute, LabelMethod, LabelCode},
		)

		for name, c := range map[string]prometheus.Collector{
			PlanPassesTotal:         planPasses,
			PlanDurationSeconds:     planDuration,
			ModelStatus:             modelStatus,
			ProjectedMonthlySavings: monthlySavings,
			HTTPRequestsTotal:       httpRequests,
		} {
			if err := registry.Register(c); err != nil {
				initErr = fmt.Errorf("failed to register %s metric: %w", name, err)
				return
			}
		}
	})

	return initErr
}

// MetricsEmitter records domain events into the registered collectors
type MetricsEmitter struct{}

// NewMetricsEmitter creates a new metrics emitter
func NewMetricsEmitter() *MetricsEmitter {
	return &MetricsEmitter{}
}

// InitMetricsAndEmitter registers collectors and returns an emitter
func InitMetricsAndEmitter(registry prometheus.Registerer) (*MetricsEmitter, error) {
	if err := InitMetrics(registry); err != nil {
		return nil, err
	}
	return NewMetricsEmitter(), nil
}

// EmitPlan records one planning pass. For the stored fleet the per-model
// status gauge is replaced with the latest results.
func (m *MetricsEmitter) EmitPlan(source string, results []models.ModelResult, elapsed time.Duration) error {
	if planPasses == nil || planDuration == nil || modelStatus == nil {
		return fmt.Errorf("planning metrics not initialized")
	}

	source = sanitizeLabel(source)
	planPasses.WithLabelValues(source).Inc()
	planDuration.WithLabelValues(source).Observe(elapsed.Seconds())

	if source == SourceFleet {
		modelStatus.Reset()
		for _, r := range results {
			modelStatus.WithLabelValues(sanitizeLabel(r.Name), sanitizeLabel(string(r.Status))).Set(1)
		}
	}
	return nil
}

// EmitProjection records the monthly savings of a cost projection
func (m *MetricsEmitter) EmitProjection(source string, projection models.CostProjection) error {
	if monthlySavings == nil {
		return fmt.Errorf("projection metrics not initialized")
	}
	monthlySavings.WithLabelValues(sanitizeLabel(source)).Set(projection.MonthlySavings)
	return nil
}

// EmitRequest counts one served HTTP request
func (m *MetricsEmitter) EmitRequest(route, method string, code int) error {
	if httpRequests == nil {
		return fmt.Errorf("http metrics not initialized")
	}
	httpRequests.WithLabelValues(sanitizeLabel(route), sanitizeLabel(method), strconv.Itoa(code)).Inc()
	return nil
}
