package telemetry

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorders(t *testing.T) {
	m := NewMetrics("test", prometheus.NewRegistry())

	m.SetFactRows("region", 12)
	m.RecordInsight("warning")
	m.RecordInsight("warning")
	m.RecordIngested("Facebook", 5)
	m.RecordIngestError("Google")
	m.RecordExport(false)
	m.RecordHTTP("/api/summary", 200)
	m.ObserveStage("combine", time.Now())

	assert.Equal(t, 12.0, testutil.ToFloat64(m.FactRows.WithLabelValues("region")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Insights.WithLabelValues("warning")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.IngestedRecords.WithLabelValues("Facebook")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IngestErrors.WithLabelValues("Google")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Exports.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/api/summary", "200")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.StageDuration))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.SetFactRows("date", 1)
		m.RecordInsight("info")
		m.RecordIngested("x", 1)
		m.RecordIngestError("x")
		m.RecordExport(true)
		m.RecordHTTP("/", 200)
		m.ObserveStage("combine", time.Now())
	})
}

func TestHandlerServesRegistry(t *testing.T) {
	m := NewMetrics("test", prometheus.NewRegistry())
	m.SetFactRows("date", 3)

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `test_fact_rows{grain="date"} 3`)
}
