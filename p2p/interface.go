package p2p

import (
	"context"
	"errors"
)

var ErrSinkClosed = errors.New("outbound sink is closed")

// GossipEngine defines the narrow interface of the gossip dissemination
// engine. Subscribe hands out the outbound half and the inbound half of a
// topic subscription. The inbound channel is closed by the engine once the
// subscription is over.
type GossipEngine interface {
	Subscribe(ctx context.Context, topic TopicID, bootstrap []PeerID) (UpdateSink, <-chan SubscribeResponse, error)
}

// UpdateSink is the outbound half of a subscription. Implementations are not
// required to be safe for concurrent use.
type UpdateSink interface {
	// Send delivers an update to the engine, blocking under backpressure
	Send(ctx context.Context, update SubscribeUpdate) error

	// Close flushes and terminates the sink. Sends after Close fail with
	// ErrSinkClosed.
	Close() error
}
