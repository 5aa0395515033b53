package node

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dominant-strategies/go-gossip/metrics_config"
)

var (
	peerMetrics      *prometheus.GaugeVec
	peerEventMetrics *prometheus.CounterVec
)

func init() {
	registerMetrics()
}

func registerMetrics() {
	peerMetrics = metrics_config.NewGaugeVec("PeerGauges", "Peers known to the node")
	peerEventMetrics = metrics_config.NewCounterVec("PeerEvents", "Peer connectedness changes")
}

func setPeerGauge(label string, n int) {
	if peerMetrics != nil {
		peerMetrics.WithLabelValues(label).Set(float64(n))
	}
}

func countPeerEvent(label string) {
	if peerEventMetrics != nil {
		peerEventMetrics.WithLabelValues(label).Inc()
	}
}
