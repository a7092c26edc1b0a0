package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveLookup("unitaria", OutcomeSaved, time.Second)
		m.IncCache("hit")
		m.IncUpstreamAttempt("radar", true)
		m.IncUpstreamFailure("radar", "timeout")
		m.AddRetentionDeleted(3)
		m.IncRepair("repaired")
		m.IncBatchItem("ok")
	})
}

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveLookup("lote", OutcomeCacheHit, 10*time.Millisecond)
	m.IncUpstreamAttempt("receitaws", false)
	m.IncUpstreamAttempt("receitaws", false)
	m.AddRetentionDeleted(4)
	m.AddRetentionDeleted(0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Lookups.WithLabelValues("lote", OutcomeCacheHit)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.UpstreamAttempts.WithLabelValues("receitaws", "error")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.RetentionDeleted))
}
