// Package metrics exposes Prometheus instruments for the lookup orchestrator.
// Every method is safe on a nil *Metrics so callers can run without them.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Lookup outcomes.
const (
	OutcomeCacheHit        = "cache_hit"
	OutcomeSaved           = "saved"
	OutcomeSavedPartial    = "saved_partial"
	OutcomePartialNotSaved = "partial_not_saved"
	OutcomeGatewayError    = "gateway_error"
	OutcomeError           = "error"
)

type Metrics struct {
	Lookups          *prometheus.CounterVec
	LookupDuration   prometheus.Histogram
	Cache            *prometheus.CounterVec
	UpstreamAttempts *prometheus.CounterVec
	UpstreamFailures *prometheus.CounterVec
	RetentionDeleted prometheus.Counter
	Repairs          *prometheus.CounterVec
	BatchItems       *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Lookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "radar_lookups_total",
			Help: "Lookups by origin and outcome",
		}, []string{"origin", "outcome"}),
		LookupDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "radar_lookup_duration_seconds",
			Help:    "End-to-end lookup latency",
			Buckets: []float64{0.01, 0.05, 0.25, 1, 5, 15, 60, 300},
		}),
		Cache: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "radar_lookup_cache_total",
			Help: "Cache decisions: hit, miss, empty (stored row without habilitation data) or forced",
		}, []string{"result"}),
		UpstreamAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "radar_upstream_attempts_total",
			Help: "Individual upstream calls by source and result",
		}, []string{"source", "result"}),
		UpstreamFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "radar_upstream_failures_total",
			Help: "Upstream sources that exhausted their retries, by error category",
		}, []string{"source", "category"}),
		RetentionDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "radar_retention_deleted_total",
			Help: "Lookup records removed by the retention sweep",
		}),
		Repairs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "radar_repairs_total",
			Help: "Incomplete records processed by the repair sweep",
		}, []string{"result"}),
		BatchItems: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "radar_batch_items_total",
			Help: "Batch lookup items by result",
		}, []string{"result"}),
	}
}

func (m *Metrics) ObserveLookup(origin, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Lookups.WithLabelValues(origin, outcome).Inc()
	m.LookupDuration.Observe(d.Seconds())
}

func (m *Metrics) IncCache(result string) {
	if m == nil {
		return
	}
	m.Cache.WithLabelValues(result).Inc()
}

func (m *Metrics) IncUpstreamAttempt(source string, ok bool) {
	if m == nil {
		return
	}
	result := "error"
	if ok {
		result = "ok"
	}
	m.UpstreamAttempts.WithLabelValues(source, result).Inc()
}

func (m *Metrics) IncUpstreamFailure(source, category string) {
	if m == nil {
		return
	}
	m.UpstreamFailures.WithLabelValues(source, category).Inc()
}

func (m *Metrics) AddRetentionDeleted(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.RetentionDeleted.Add(float64(n))
}

func (m *Metrics) IncRepair(result string) {
	if m == nil {
		return
	}
	m.Repairs.WithLabelValues(result).Inc()
}

func (m *Metrics) IncBatchItem(result string) {
	if m == nil {
		return
	}
	m.BatchItems.WithLabelValues(result).Inc()
}
