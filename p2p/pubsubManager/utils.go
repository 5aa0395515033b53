package pubsubManager

import (
	"github.com/dominant-strategies/go-gossip/p2p"
)

// gets the name of the libp2p topic for the given topic id
func TopicName(topicID p2p.TopicID) string {
	return topicID.String()
}
