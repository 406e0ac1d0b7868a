// ABOUTME: Tests for Prometheus metric registration and emission
// ABOUTME: Uses a private registry shared across the package's tests

package metrics

import (
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keir-whitehead/setup-lab-3d/backend/models"
)

var (
	testRegistry     *prometheus.Registry
	testRegistryOnce sync.Once
)

func initTestMetrics(t *testing.T) *MetricsEmitter {
	t.Helper()
	testRegistryOnce.Do(func() {
		testRegistry = prometheus.NewRegistry()
	})
	emitter, err := InitMetricsAndEmitter(testRegistry)
	require.NoError(t, err)
	return emitter
}

func TestSanitizeLabel(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "Llama 3.1 8B", "Llama 3.1 8B"},
		{"trimmed", "  fast  ", "fast"},
		{"empty", "", unknownLabel},
		{"whitespace only", "   ", unknownLabel},
		{"truncated", strings.Repeat("x", 200), strings.Repeat("x", maxLabelLength)},
		{"multibyte on boundary", strings.Repeat("é", 100), strings.Repeat("é", maxLabelLength/2)},
		{"multibyte split", "x" + strings.Repeat("é", 100), "x" + strings.Repeat("é", (maxLabelLength-1)/2)},
		{"invalid utf8", "Qwen\xff 72B", "Qwen 72B"},
		{"only invalid", "\xff\xfe", unknownLabel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeLabel(tt.input))
		})
	}
}

func TestEmitPlan_LongMultibyteModelName(t *testing.T) {
	emitter := initTestMetrics(t)
	name := strings.Repeat("模型", 40)

	require.NotPanics(t, func() {
		require.NoError(t, emitter.EmitPlan(SourceFleet, []models.ModelResult{{Name: name, Status: models.StatusRuns}}, time.Millisecond))
	})
	assert.True(t, utf8.ValidString(sanitizeLabel(name)))
	assert.LessOrEqual(t, len(sanitizeLabel(name)), maxLabelLength)
}

func TestInitMetrics_Idempotent(t *testing.T) {
	initTestMetrics(t)
	assert.NoError(t, InitMetrics(testRegistry))
	assert.NoError(t, InitMetrics(prometheus.NewRegistry()), "second registry is ignored after the first init")
}

func TestEmitPlan_CountsPassesAndReplacesFleetStatus(t *testing.T) {
	emitter := initTestMetrics(t)

	before := testutil.ToFloat64(planPasses.WithLabelValues(SourceFleet))

	first := []models.ModelResult{
		{Name: "Llama 3.1 8B", Status: models.StatusFast},
		{Name: "Kimi K2", Status: models.StatusNo},
	}
	require.NoError(t, emitter.EmitPlan(SourceFleet, first, time.Millisecond))
	assert.Equal(t, 1.0, testutil.ToFloat64(modelStatus.WithLabelValues("Kimi K2", "no")))

	second := []models.ModelResult{{Name: "Kimi K2", Status: models.StatusDistributed}}
	require.NoError(t, emitter.EmitPlan(SourceFleet, second, time.Millisecond))

	assert.Equal(t, before+2, testutil.ToFloat64(planPasses.WithLabelValues(SourceFleet)))
	assert.Equal(t, 1, testutil.CollectAndCount(modelStatus), "stale statuses are dropped")
	assert.Equal(t, 1.0, testutil.ToFloat64(modelStatus.WithLabelValues("Kimi K2", "distributed")))
}

func TestEmitPlan_OtherSourcesLeaveFleetStatus(t *testing.T) {
	emitter := initTestMetrics(t)

	require.NoError(t, emitter.EmitPlan(SourceFleet, []models.ModelResult{{Name: "Phi-4 14B", Status: models.StatusRuns}}, time.Millisecond))
	require.NoError(t, emitter.EmitPlan(SourceRequest, []models.ModelResult{{Name: "Phi-4 14B", Status: models.StatusNo}}, time.Millisecond))
	require.NoError(t, emitter.EmitPlan(SourceNamedFleet, []models.ModelResult{{Name: "Phi-4 14B", Status: models.StatusFast}}, time.Millisecond))

	assert.Equal(t, 1.0, testutil.ToFloat64(modelStatus.WithLabelValues("Phi-4 14B", "runs")))
}

func TestEmitProjection(t *testing.T) {
	emitter := initTestMetrics(t)

	require.NoError(t, emitter.EmitProjection(SourceRequest, models.CostProjection{MonthlySavings: 304.52}))
	assert.InDelta(t, 304.52, testutil.ToFloat64(monthlySavings.WithLabelValues(SourceRequest)), 1e-9)
}

func TestEmitRequest(t *testing.T) {
	emitter := initTestMetrics(t)

	before := testutil.ToFloat64(httpRequests.WithLabelValues("/api/v1/plan", "POST", "200"))
	require.NoError(t, emitter.EmitRequest("/api/v1/plan", "POST", 200))
	assert.Equal(t, before+1, testutil.ToFloat64(httpRequests.WithLabelValues("/api/v1/plan", "POST", "200")))
}
