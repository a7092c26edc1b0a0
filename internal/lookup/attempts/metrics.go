package attempts

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts audit writes per sink. A nil *Metrics is a no-op.
type Metrics struct {
	Written      *prometheus.CounterVec
	Dropped      *prometheus.CounterVec
	BreakerState *prometheus.GaugeVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Written: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "radar_lookup_attempts_written_total",
			Help: "Lookup attempt entries accepted by a sink",
		}, []string{"sink"}),
		Dropped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "radar_lookup_attempts_dropped_total",
			Help: "Lookup attempt entries a sink failed to accept",
		}, []string{"sink"}),
		BreakerState: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "radar_lookup_attempts_breaker_open",
			Help: "Sink circuit breaker state (0=closed, 1=open)",
		}, []string{"sink"}),
	}
}

func (m *Metrics) incWritten(sink string) {
	if m == nil {
		return
	}
	m.Written.WithLabelValues(sink).Inc()
}

func (m *Metrics) incDropped(sink string) {
	if m == nil {
		return
	}
	m.Dropped.WithLabelValues(sink).Inc()
}

func (m *Metrics) setBreakerOpen(sink string, open bool) {
	if m == nil {
		return
	}
	v := 0.0
	if open {
		v = 1
	}
	m.BreakerState.WithLabelValues(sink).Set(v)
}
