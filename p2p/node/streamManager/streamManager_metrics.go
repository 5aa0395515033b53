package streamManager

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dominant-strategies/go-gossip/metrics_config"
)

var streamMetrics *prometheus.GaugeVec

func init() {
	registerMetrics()
}

func registerMetrics() {
	streamMetrics = metrics_config.NewGaugeVec("OutboundStreamGauges", "Track the number of cached outbound streams")
}

func addStreams(delta float64) {
	if streamMetrics != nil {
		streamMetrics.WithLabelValues("NumStreams").Add(delta)
	}
}
