package gossip

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dominant-strategies/go-gossip/metrics_config"
)

var (
	subscriptionMetrics *prometheus.GaugeVec
	deliveryMetrics     *prometheus.CounterVec
)

func init() {
	registerMetrics()
}

func registerMetrics() {
	subscriptionMetrics = metrics_config.NewGaugeVec("GossipSubscriptions", "Number of running subscription pumps")
	deliveryMetrics = metrics_config.NewCounterVec("GossipDeliveries", "Messages handed to subscription callbacks, by outcome")
}

func incDelivery(label string) {
	if deliveryMetrics != nil {
		deliveryMetrics.WithLabelValues(label).Inc()
	}
}

func addSubscriptions(delta float64) {
	if subscriptionMetrics != nil {
		subscriptionMetrics.WithLabelValues("running").Add(delta)
	}
}
