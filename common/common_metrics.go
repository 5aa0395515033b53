package common

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dominant-strategies/go-gossip/metrics_config"
)

var messageMetrics *prometheus.CounterVec

func init() {
	registerMetrics()
}

func registerMetrics() {
	messageMetrics = metrics_config.NewCounterVec("StreamMessages", "Length prefixed messages moved over libp2p streams")
}

func countMessage(label string) {
	if messageMetrics != nil {
		messageMetrics.WithLabelValues(label).Inc()
	}
}
