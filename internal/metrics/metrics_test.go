package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersOnGivenRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.AuditsTriggered.Inc()
	m.AuditsFinished.WithLabelValues("COMPLETED").Inc()
	m.StageFailures.WithLabelValues(StageBrowser).Add(2)
	m.AuditDuration.Observe(3)
	m.AuditsRunning.Set(1)

	assert.InDelta(t, 1, testutil.ToFloat64(m.AuditsTriggered), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.AuditsFinished.WithLabelValues("COMPLETED")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.StageFailures.WithLabelValues(StageBrowser)), 0)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 5)
}

func TestNew_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)

	assert.Panics(t, func() { New(reg) })
}
