package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of the dashboard service. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	StageDuration   *prometheus.HistogramVec
	FactRows        *prometheus.GaugeVec
	Insights        *prometheus.CounterVec
	IngestedRecords *prometheus.CounterVec
	IngestErrors    *prometheus.CounterVec
	Exports         *prometheus.CounterVec
	HTTPRequests    *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// NewMetrics registers all collectors on reg. Passing a fresh registry keeps
// tests independent of the global one.
func NewMetrics(namespace string, reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		StageDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "pipeline_stage_duration_seconds",
				Help:      "Duration of each pipeline stage",
				Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
			[]string{"stage"},
		),
		FactRows: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "fact_rows",
				Help:      "Fact rows produced by the last run, per grain",
			},
			[]string{"grain"},
		),
		Insights: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "insights_generated_total",
				Help:      "Insights generated, by category",
			},
			[]string{"category"},
		),
		IngestedRecords: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ingested_records_total",
				Help:      "Records accepted into the store, by source",
			},
			[]string{"source"},
		),
		IngestErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ingest_errors_total",
				Help:      "Failed source fetches, by source",
			},
			[]string{"source"},
		),
		Exports: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "exports_total",
				Help:      "Sink exports, by result",
			},
			[]string{"result"},
		),
		HTTPRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests, by route and status",
			},
			[]string{"route", "status"},
		),
		gatherer: reg,
	}
}

// Handler serves the registry the metrics were registered on.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveStage records how long a pipeline stage took since start.
func (m *Metrics) ObserveStage(stage string, start time.Time) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

func (m *Metrics) SetFactRows(grain string, n int) {
	if m == nil {
		return
	}
	m.FactRows.WithLabelValues(grain).Set(float64(n))
}

func (m *Metrics) RecordInsight(category string) {
	if m == nil {
		return
	}
	m.Insights.WithLabelValues(category).Inc()
}

func (m *Metrics) RecordIngested(source string, n int) {
	if m == nil {
		return
	}
	m.IngestedRecords.WithLabelValues(source).Add(float64(n))
}

func (m *Metrics) RecordIngestError(source string) {
	if m == nil {
		return
	}
	m.IngestErrors.WithLabelValues(source).Inc()
}

func (m *Metrics) RecordExport(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.Exports.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordHTTP(route string, status int) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}
