package metrics_config

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestConstructorsRespectKillSwitch(t *testing.T) {
	DisableMetrics()
	require.False(t, MetricsEnabled())
	require.Nil(t, NewGaugeVec("test_disabled_gauge", "disabled"))
	require.Nil(t, NewCounterVec("test_disabled_counter", "disabled"))

	EnableMetrics()
	require.True(t, MetricsEnabled())
	counter := NewCounterVec("test_enabled_counter", "enabled")
	require.NotNil(t, counter)
	counter.WithLabelValues("hits").Inc()
	require.Equal(t, float64(1), testutil.ToFloat64(counter.WithLabelValues("hits")))
}
