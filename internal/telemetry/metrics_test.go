package telemetry

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	m.Registered("Copy")
	m.Registered("Copy")
	m.InvocationStarted()
	m.InvocationStarted()
	assert.Equal(t, 2.0, testutil.ToFloat64(m.inflight))

	m.InvocationFinished("backup", "Copy", OutcomeOK, 20*time.Millisecond)
	m.InvocationFinished("backup", "Copy", OutcomeOutput, time.Millisecond)

	assert.Equal(t, 0.0, testutil.ToFloat64(m.inflight))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.registrations.WithLabelValues("Copy")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.invocations.WithLabelValues("backup", "Copy", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.invocations.WithLabelValues("backup", "Copy", OutcomeOutput)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))

	_, err = NewMetrics(reg)
	assert.Error(t, err, "duplicate registration")
}
