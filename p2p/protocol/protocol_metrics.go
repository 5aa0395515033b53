package protocol

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dominant-strategies/go-gossip/metrics_config"
)

var (
	streamMetrics *prometheus.GaugeVec
	frameMetrics  *prometheus.CounterVec
)

func init() {
	registerMetrics()
}

func registerMetrics() {
	streamMetrics = metrics_config.NewGaugeVec("NeighborStreamGauges", "Track the number of inbound neighbor streams")
	frameMetrics = metrics_config.NewCounterVec("NeighborFrames", "Neighbor frames read from inbound streams, by outcome")
}

func addStreams(delta float64) {
	if streamMetrics != nil {
		streamMetrics.WithLabelValues("NumStreams").Add(delta)
	}
}

func countFrame(label string) {
	if frameMetrics != nil {
		frameMetrics.WithLabelValues(label).Inc()
	}
}
