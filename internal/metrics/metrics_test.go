package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NotPanics(t, func() { Register(reg) })

	ChallengeJoins.WithLabelValues("BEGINNER").Inc()
	assert.GreaterOrEqual(t, testutil.ToFloat64(ChallengeJoins.WithLabelValues("BEGINNER")), 1.0)

	assert.Panics(t, func() { Register(reg) }, "registering twice must fail")
}
