package gossip

import (
	"context"

	"github.com/pkg/errors"

	"github.com/dominant-strategies/go-gossip/p2p"
)

// Sender is the caller side of a subscription. It owns the outbound sink and
// the cancellation signal shared with the subscription pump. All methods are
// safe for concurrent use; writes to the sink never interleave.
type Sender struct {
	topic p2p.TopicID
	sink  p2p.UpdateSink

	// single slot semaphore guarding sink and closed, acquired with a context
	sem    chan struct{}
	closed bool

	ctx    context.Context
	cancel context.CancelFunc
	done   <-chan struct{}
}

func newSender(topic p2p.TopicID, sink p2p.UpdateSink, ctx context.Context, cancel context.CancelFunc, done <-chan struct{}) *Sender {
	return &Sender{
		topic:  topic,
		sink:   sink,
		sem:    make(chan struct{}, 1),
		ctx:    ctx,
		cancel: cancel,
		done:   done,
	}
}

// Topic returns the topic this sender is bound to
func (s *Sender) Topic() p2p.TopicID {
	return s.topic
}

// Broadcast a message to all nodes in the swarm
func (s *Sender) Broadcast(ctx context.Context, payload []byte) error {
	return s.send(ctx, p2p.UpdateBroadcast, payload)
}

// Broadcast a message to all direct neighbors
func (s *Sender) BroadcastNeighbors(ctx context.Context, payload []byte) error {
	return s.send(ctx, p2p.UpdateBroadcastNeighbors, payload)
}

// Cancel closes the outbound sink and signals the pump to stop. It does not
// wait for the pump; use Done for that. The sink is closed on the first
// successful Cancel even if the client context already stopped the pump.
// Calling Cancel again returns ErrAlreadyClosed. If closing the sink fails the
// sink stays open and the error is returned.
func (s *Sender) Cancel(ctx context.Context) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	if s.closed {
		return ErrAlreadyClosed
	}
	if err := s.sink.Close(); err != nil {
		return errors.Wrapf(err, "closing subscription to topic %s", s.topic)
	}
	s.closed = true
	s.cancel()
	return nil
}

// Done is closed once the pump has stopped and the callback will not be
// invoked again.
func (s *Sender) Done() <-chan struct{} {
	return s.done
}

func (s *Sender) send(ctx context.Context, kind p2p.UpdateKind, payload []byte) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	if s.closed || s.ctx.Err() != nil {
		return errors.Wrapf(ErrAlreadyClosed, "%s on topic %s", kind, s.topic)
	}
	update := p2p.SubscribeUpdate{Kind: kind, Payload: payload}
	if err := s.sink.Send(ctx, update); err != nil {
		return errors.Wrapf(err, "%s on topic %s", kind, s.topic)
	}
	return nil
}

func (s *Sender) acquire(ctx context.Context) error {
	select {
	case s.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Sender) release() {
	<-s.sem
}
