package pubsubManager

import (
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/pkg/errors"

	"github.com/dominant-strategies/go-gossip/log"
	"github.com/dominant-strategies/go-gossip/p2p"
)

// how long the first message may wait for the Joined event
const c_joinGrace = time.Second

// subscription is one local consumer of a topic. It feeds its bounded output
// channel from the libp2p subscription, the topic's peer events and inbound
// neighbor frames, and doubles as the UpdateSink for the same topic.
type subscription struct {
	manager *PubsubManager
	topicID p2p.TopicID
	topic   *pubsub.Topic
	sub     *pubsub.Subscription
	evts    *pubsub.TopicEventHandler

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// closed once Joined went out, messages wait for it briefly
	joined chan struct{}
	// neighbors already announced, owned by the peer event feeder
	neighbors map[p2p.PeerID]struct{}

	deliverMu sync.Mutex
	out       chan p2p.SubscribeResponse
	lagged    int  // events dropped since the last successful delivery
	finished  bool // out is closed

	sinkClosed atomic.Bool
	closeOnce  sync.Once
}

func newSubscription(g *PubsubManager, topicID p2p.TopicID, topic *pubsub.Topic, sub *pubsub.Subscription, evts *pubsub.TopicEventHandler) *subscription {
	ctx, cancel := context.WithCancel(g.ctx)
	return &subscription{
		manager:   g,
		topicID:   topicID,
		topic:     topic,
		sub:       sub,
		evts:      evts,
		ctx:       ctx,
		cancel:    cancel,
		joined:    make(chan struct{}),
		neighbors: make(map[p2p.PeerID]struct{}),
		out:       make(chan p2p.SubscribeResponse, msgChanSize),
	}
}

func (s *subscription) start() {
	s.wg.Add(2)
	go s.readMessages()
	go s.readPeerEvents()
	// once both feeders are gone nothing can be produced anymore
	go func() {
		s.wg.Wait()
		s.finish()
	}()
}

// Send implements p2p.UpdateSink
func (s *subscription) Send(ctx context.Context, update p2p.SubscribeUpdate) error {
	if s.sinkClosed.Load() {
		return p2p.ErrSinkClosed
	}
	switch update.Kind {
	case p2p.UpdateBroadcast:
		if err := s.topic.Publish(ctx, update.Payload); err != nil {
			return err
		}
		countEvent("published")
		return nil
	case p2p.UpdateBroadcastNeighbors:
		return s.manager.broadcastNeighbors(ctx, s.topicID, s.topic.ListPeers(), update.Payload)
	default:
		return errors.Wrapf(ErrUnsupportedUpdate, "%d", update.Kind)
	}
}

// Close implements p2p.UpdateSink. It stops both feeders, closes the output
// channel and leaves the topic if this was its last local subscription.
func (s *subscription) Close() error {
	s.closeOnce.Do(func() {
		s.sinkClosed.Store(true)
		s.cancel()
		s.sub.Cancel()
		s.evts.Cancel()
		s.wg.Wait()
		s.finish()
		s.manager.release(s)
		addTopicSubscriptions(-1)
		log.Global.WithField("topic", s.topicID.String()).Debug("Left gossip topic")
	})
	return nil
}

// deliver hands resp to the consumer without ever blocking. When the channel
// is full the event is dropped and the next delivery is preceded by a single
// Lagged marker.
func (s *subscription) deliver(resp p2p.SubscribeResponse) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()
	if s.finished {
		return
	}

	if s.lagged > 0 {
		select {
		case s.out <- p2p.SubscribeResponse{Lagged: true}:
			countEvent("lagged")
			s.lagged = 0
		default:
			s.drop()
			return
		}
	}

	select {
	case s.out <- resp:
	default:
		s.drop()
	}
}

func (s *subscription) drop() {
	if s.lagged%1000 == 0 {
		log.Global.WithFields(log.Fields{
			"topic":  s.topicID.String(),
			"lagged": s.lagged,
		}).Warn("Subscription channel full, dropping events")
	}
	s.lagged++
	countEvent("dropped")
}

func (s *subscription) finish() {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()
	if !s.finished {
		s.finished = true
		close(s.out)
	}
}

func (s *subscription) readMessages() {
	defer s.wg.Done()
	defer s.recoverFeeder()

	self := s.manager.host.ID()
	waited := false
	for {
		msg, err := s.sub.Next(s.ctx)
		if err != nil || msg == nil {
			// if context was cancelled, then we are shutting down
			if s.ctx.Err() != nil || errors.Is(err, pubsub.ErrSubscriptionCancelled) || err == nil {
				return
			}
			s.deliver(p2p.SubscribeResponse{Err: errors.Wrap(err, "reading gossip subscription")})
			continue
		}
		// our own publishes loop back through the subscription
		if msg.ReceivedFrom == self {
			continue
		}

		if !waited {
			waited = true
			if !s.awaitJoined() {
				return
			}
		}
		s.deliver(p2p.SubscribeResponse{Event: p2p.EventReceived{
			Content:       msg.Data,
			DeliveredFrom: msg.ReceivedFrom,
		}})
		countEvent("received")
	}
}

func (s *subscription) awaitJoined() bool {
	timer := time.NewTimer(c_joinGrace)
	defer timer.Stop()
	select {
	case <-s.joined:
	case <-timer.C:
	case <-s.ctx.Done():
		return false
	}
	return true
}

func (s *subscription) readPeerEvents() {
	defer s.wg.Done()
	defer s.recoverFeeder()

	for {
		evt, err := s.evts.NextPeerEvent(s.ctx)
		if err != nil {
			if s.ctx.Err() == nil {
				s.deliver(p2p.SubscribeResponse{Err: errors.Wrap(err, "reading topic peer events")})
			}
			return
		}

		switch evt.Type {
		case pubsub.PeerJoin:
			s.neighborJoined(evt.Peer)
		case pubsub.PeerLeave:
			if _, ok := s.neighbors[evt.Peer]; !ok {
				continue
			}
			delete(s.neighbors, evt.Peer)
			s.deliver(p2p.SubscribeResponse{Event: p2p.EventNeighborDown{Peer: evt.Peer}})
		}
	}
}

// neighborJoined announces the first neighbor together with every other peer
// already known for the topic as Joined; later ones become NeighborUp.
func (s *subscription) neighborJoined(peerID p2p.PeerID) {
	if _, ok := s.neighbors[peerID]; ok {
		return
	}

	select {
	case <-s.joined:
		s.neighbors[peerID] = struct{}{}
		s.deliver(p2p.SubscribeResponse{Event: p2p.EventNeighborUp{Peer: peerID}})
		return
	default:
	}

	peers := []p2p.PeerID{peerID}
	s.neighbors[peerID] = struct{}{}
	for _, p := range s.topic.ListPeers() {
		if _, ok := s.neighbors[p]; !ok {
			s.neighbors[p] = struct{}{}
			peers = append(peers, p)
		}
	}
	s.deliver(p2p.SubscribeResponse{Event: p2p.EventJoined{Peers: peers}})
	close(s.joined)
}

func (s *subscription) recoverFeeder() {
	if r := recover(); r != nil {
		log.Global.WithFields(log.Fields{
			"error":      r,
			"stacktrace": string(debug.Stack()),
			"topic":      s.topicID.String(),
		}).Error("Go-Gossip Panicked")
	}
}
