package pubsubManager

import (
	"context"
	"sync"
	"time"

	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/host"
	libp2pmetrics "github.com/libp2p/go-libp2p/core/metrics"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/dominant-strategies/go-gossip/log"
	"github.com/dominant-strategies/go-gossip/p2p"
	"github.com/dominant-strategies/go-gossip/p2p/node/streamManager"
	"github.com/dominant-strategies/go-gossip/p2p/protocol"
)

const (
	msgChanSize = 500 // 500 events per subscription

	// how long a bootstrap dial may take before it is abandoned
	c_bootstrapDialTimeout = 30 * time.Second
)

var ErrUnsupportedUpdate = errors.New("update kind not supported")

// PubsubManager is a GossipEngine backed by libp2p GossipSub. Topics are
// joined once per process and shared by every local subscription to them.
type PubsubManager struct {
	*pubsub.PubSub
	ctx     context.Context
	host    host.Host
	streams streamManager.StreamManager

	mu     sync.Mutex
	topics map[p2p.TopicID]*topicEntry
}

type topicEntry struct {
	topic *pubsub.Topic
	subs  map[*subscription]struct{}
}

// creates a new gossipsub instance and registers the neighbor protocol on h.
// reporter may be nil.
func NewGossipSubManager(ctx context.Context, h host.Host, reporter libp2pmetrics.Reporter, opts ...pubsub.Option) (*PubsubManager, error) {
	cfg := pubsub.DefaultGossipSubParams()
	cfg.D = 8
	cfg.Dlo = 6
	cfg.Dhi = 12
	cfg.Dout = 2
	opts = append([]pubsub.Option{pubsub.WithGossipSubParams(cfg)}, opts...)

	ps, err := pubsub.NewGossipSub(ctx, h, opts...)
	if err != nil {
		return nil, err
	}
	g := &PubsubManager{
		PubSub:  ps,
		ctx:     ctx,
		host:    h,
		streams: streamManager.NewStreamManager(h, protocol.ProtocolVersion, reporter),
		topics:  make(map[p2p.TopicID]*topicEntry),
	}
	h.SetStreamHandler(protocol.ProtocolVersion, func(s network.Stream) {
		protocol.NeighborProtocolHandler(s, g)
	})
	return g, nil
}

// Subscribe implements p2p.GossipEngine
func (g *PubsubManager) Subscribe(ctx context.Context, topicID p2p.TopicID, bootstrap []p2p.PeerID) (p2p.UpdateSink, <-chan p2p.SubscribeResponse, error) {
	if err := g.ctx.Err(); err != nil {
		return nil, nil, errors.Wrap(err, "gossip engine stopped")
	}

	g.mu.Lock()
	entry, err := g.joinLocked(topicID)
	if err != nil {
		g.mu.Unlock()
		return nil, nil, err
	}

	sub, err := entry.topic.Subscribe()
	if err != nil {
		g.leaveLocked(topicID, entry)
		g.mu.Unlock()
		return nil, nil, errors.Wrapf(err, "subscribing to topic %s", topicID)
	}
	evts, err := entry.topic.EventHandler()
	if err != nil {
		sub.Cancel()
		g.leaveLocked(topicID, entry)
		g.mu.Unlock()
		return nil, nil, errors.Wrapf(err, "watching peers of topic %s", topicID)
	}

	s := newSubscription(g, topicID, entry.topic, sub, evts)
	entry.subs[s] = struct{}{}
	g.mu.Unlock()

	s.start()
	g.dialBootstrap(topicID, bootstrap)
	addTopicSubscriptions(1)

	log.Global.WithFields(log.Fields{
		"topic":     topicID.String(),
		"bootstrap": len(bootstrap),
	}).Debug("Joined gossip topic")
	return s, s.out, nil
}

// PeersForTopic returns the direct neighbors known for a joined topic
func (g *PubsubManager) PeersForTopic(topicID p2p.TopicID) []p2p.PeerID {
	g.mu.Lock()
	defer g.mu.Unlock()
	if entry, ok := g.topics[topicID]; ok {
		return entry.topic.ListPeers()
	}
	return nil
}

// HandleNeighborMessage delivers a neighbor-only frame to every local
// subscription of its topic. Frames for topics we are not subscribed to are
// dropped.
func (g *PubsubManager) HandleNeighborMessage(from peer.ID, frame protocol.NeighborFrame) {
	g.mu.Lock()
	entry, ok := g.topics[frame.Topic]
	var subs []*subscription
	if ok {
		subs = make([]*subscription, 0, len(entry.subs))
		for s := range entry.subs {
			subs = append(subs, s)
		}
	}
	g.mu.Unlock()

	if len(subs) == 0 {
		log.Global.WithFields(log.Fields{
			"topic": frame.Topic.String(),
			"peer":  from,
		}).Debug("Dropping neighbor frame for unknown topic")
		countEvent("neighbor_dropped")
		return
	}
	for _, s := range subs {
		s.deliver(p2p.SubscribeResponse{Event: p2p.EventReceived{
			Content:       frame.Payload,
			DeliveredFrom: from,
		}})
	}
	countEvent("neighbor_received")
}

// Stop closes every open subscription and the cached neighbor streams
func (g *PubsubManager) Stop() error {
	g.mu.Lock()
	var subs []*subscription
	for _, entry := range g.topics {
		for s := range entry.subs {
			subs = append(subs, s)
		}
	}
	g.mu.Unlock()

	var errs error
	for _, s := range subs {
		errs = multierr.Append(errs, s.Close())
	}
	g.host.RemoveStreamHandler(protocol.ProtocolVersion)
	g.streams.Stop()
	return errs
}

func (g *PubsubManager) joinLocked(topicID p2p.TopicID) (*topicEntry, error) {
	if entry, ok := g.topics[topicID]; ok {
		return entry, nil
	}
	topic, err := g.Join(TopicName(topicID))
	if err != nil {
		return nil, errors.Wrapf(err, "joining topic %s", topicID)
	}
	entry := &topicEntry{topic: topic, subs: make(map[*subscription]struct{})}
	g.topics[topicID] = entry
	return entry, nil
}

// leaveLocked closes the topic once no local subscription uses it
func (g *PubsubManager) leaveLocked(topicID p2p.TopicID, entry *topicEntry) {
	if len(entry.subs) > 0 {
		return
	}
	if g.topics[topicID] == entry {
		delete(g.topics, topicID)
	}
	if err := entry.topic.Close(); err != nil {
		log.Global.WithFields(log.Fields{
			"topic": topicID.String(),
			"err":   err,
		}).Warn("Failed to close topic")
	}
}

func (g *PubsubManager) release(s *subscription) {
	g.mu.Lock()
	defer g.mu.Unlock()
	entry, ok := g.topics[s.topicID]
	if !ok {
		return
	}
	delete(entry.subs, s)
	g.leaveLocked(s.topicID, entry)
}

// dialBootstrap connects to the bootstrap peers in the background. Peers must
// already have addresses in the peerstore or be reachable through routing.
func (g *PubsubManager) dialBootstrap(topicID p2p.TopicID, bootstrap []p2p.PeerID) {
	for _, peerID := range bootstrap {
		if peerID == g.host.ID() || g.host.Network().Connectedness(peerID) == network.Connected {
			continue
		}
		go func(peerID p2p.PeerID) {
			ctx, cancel := context.WithTimeout(g.ctx, c_bootstrapDialTimeout)
			defer cancel()
			if err := g.host.Connect(ctx, peer.AddrInfo{ID: peerID}); err != nil {
				log.Global.WithFields(log.Fields{
					"topic": topicID.String(),
					"peer":  peerID,
					"err":   err,
				}).Warn("Failed to dial bootstrap peer")
				return
			}
			log.Global.WithFields(log.Fields{
				"topic": topicID.String(),
				"peer":  peerID,
			}).Debug("Connected to bootstrap peer")
		}(peerID)
	}
}

// broadcastNeighbors writes the frame to every peer. It fails only when there
// were peers and none of them could be reached; partial failures are logged.
func (g *PubsubManager) broadcastNeighbors(ctx context.Context, topicID p2p.TopicID, peers []p2p.PeerID, payload []byte) error {
	data := protocol.EncodeNeighborFrame(protocol.NeighborFrame{Topic: topicID, Payload: payload})

	var (
		errs error
		sent int
	)
	for _, peerID := range peers {
		if err := g.sendToPeer(ctx, peerID, data); err != nil {
			log.Global.WithFields(log.Fields{
				"topic": topicID.String(),
				"peer":  peerID,
				"err":   err,
			}).Warn("Failed to send neighbor broadcast")
			errs = multierr.Append(errs, errors.Wrapf(err, "peer %s", peerID))
			continue
		}
		sent++
	}
	if sent == 0 && errs != nil {
		return errs
	}
	countEvent("neighbor_published")
	return nil
}

// sendToPeer retries once on a fresh stream, a cached stream may have been
// reset by the remote since it was last used.
func (g *PubsubManager) sendToPeer(ctx context.Context, peerID p2p.PeerID, data []byte) error {
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		var stream network.Stream
		stream, err = g.streams.GetStream(ctx, peerID)
		if err != nil {
			return err
		}
		if err = g.streams.WriteMessageToStream(peerID, stream, data); err == nil {
			return nil
		}
		g.streams.CloseStream(peerID)
	}
	return err
}
