package pubsubManager

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dominant-strategies/go-gossip/metrics_config"
)

var (
	topicMetrics *prometheus.GaugeVec
	eventMetrics *prometheus.CounterVec
)

func init() {
	registerMetrics()
}

func registerMetrics() {
	topicMetrics = metrics_config.NewGaugeVec("TopicSubscriptionGauges", "Open engine subscriptions")
	eventMetrics = metrics_config.NewCounterVec("GossipEngineEvents", "Events handled by the gossip engine, by kind")
}

func addTopicSubscriptions(delta float64) {
	if topicMetrics != nil {
		topicMetrics.WithLabelValues("subscriptions").Add(delta)
	}
}

func countEvent(label string) {
	if eventMetrics != nil {
		eventMetrics.WithLabelValues(label).Inc()
	}
}
