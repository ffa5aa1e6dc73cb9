package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestEnforcementDecisions_Increments(t *testing.T) {
	EnforcementDecisions.WithLabelValues("promql", "allowed").Inc()
	assert.Equal(t, float64(1), testutil.ToFloat64(EnforcementDecisions.WithLabelValues("promql", "allowed")))
}

func TestConstraintStoreRequestDuration_Observes(t *testing.T) {
	ConstraintStoreRequestDuration.WithLabelValues("get").Observe(0.01)
	assert.Equal(t, 1, testutil.CollectAndCount(ConstraintStoreRequestDuration))
}

func TestActiveWebSocketConnections_HasTwoLabels(t *testing.T) {
	ActiveWebSocketConnections.WithLabelValues("invalidations", "acme").Inc()
	assert.Equal(t, float64(1), testutil.ToFloat64(ActiveWebSocketConnections.WithLabelValues("invalidations", "acme")))
}
