// Package gossip subscribes to topics of a gossip swarm and delivers the
// events of each subscription, one at a time and in order, to a callback.
package gossip

import (
	"context"

	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/pkg/errors"

	"github.com/dominant-strategies/go-gossip/log"
	"github.com/dominant-strategies/go-gossip/p2p"
)

var errNilCallback = errors.New("callback must not be nil")

// Client opens topic subscriptions on a gossip engine
type Client struct {
	engine p2p.GossipEngine

	// runtime context. Cancelling it stops every subscription pump.
	ctx context.Context
}

func NewClient(ctx context.Context, engine p2p.GossipEngine) *Client {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Client{engine: engine, ctx: ctx}
}

// Subscribe joins the topic and starts delivering its messages to cb in the
// background. It returns as soon as the engine has handed out the
// subscription. topic must be exactly 32 bytes and every bootstrap entry a
// peer id; otherwise the engine is not contacted.
func (c *Client) Subscribe(ctx context.Context, topic []byte, bootstrap []string, cb Callback) (*Sender, error) {
	topicID, err := p2p.NewTopicID(topic)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidTopic, "%s", err)
	}

	peers := make([]p2p.PeerID, 0, len(bootstrap))
	for _, entry := range bootstrap {
		id, err := peer.Decode(entry)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidPeerAddress, "%q: %s", entry, err)
		}
		peers = append(peers, id)
	}

	if cb == nil {
		return nil, errNilCallback
	}

	sink, stream, err := c.engine.Subscribe(ctx, topicID, peers)
	if err != nil {
		return nil, errors.Wrapf(err, "subscribing to topic %s", topicID)
	}

	subCtx, cancel := context.WithCancel(c.ctx)
	p := newPump(subCtx, topicID, stream, cb)
	go p.run()

	log.Global.WithFields(log.Fields{
		"topic":     topicID.String(),
		"bootstrap": len(peers),
	}).Info("Subscribed to topic")

	return newSender(topicID, sink, subCtx, cancel, p.done), nil
}
