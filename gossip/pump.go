package gossip

import (
	"context"
	"runtime/debug"

	"github.com/sirupsen/logrus"

	"github.com/dominant-strategies/go-gossip/log"
	"github.com/dominant-strategies/go-gossip/p2p"
)

// pump owns the inbound stream of one subscription and feeds the callback.
// It stops when ctx is cancelled or the stream is closed by the engine,
// whichever it observes first, and closes done once no further callback
// invocation can happen.
type pump struct {
	ctx    context.Context
	stream <-chan p2p.SubscribeResponse
	cb     Callback
	logger *logrus.Entry
	done   chan struct{}
}

func newPump(ctx context.Context, topic p2p.TopicID, stream <-chan p2p.SubscribeResponse, cb Callback) *pump {
	return &pump{
		ctx:    ctx,
		stream: stream,
		cb:     cb,
		logger: log.Global.WithField("topic", topic.String()),
		done:   make(chan struct{}),
	}
}

func (p *pump) run() {
	defer close(p.done)
	addSubscriptions(1)
	defer addSubscriptions(-1)

	p.logger.Debug("Subscription pump started")
	for {
		// A cancel request wins over any backlog already sitting in the stream
		select {
		case <-p.ctx.Done():
			p.logger.Debug("Subscription cancelled, stopping pump")
			return
		default:
		}

		select {
		case <-p.ctx.Done():
			p.logger.Debug("Subscription cancelled, stopping pump")
			return
		case resp, ok := <-p.stream:
			if !ok {
				p.logger.Debug("Inbound stream closed, stopping pump")
				return
			}
			p.deliver(messageFromResponse(resp))
		}
	}
}

// deliver hands a single message to the callback and absorbs its failures
func (p *pump) deliver(msg Message) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.WithFields(log.Fields{
				"error":      r,
				"stacktrace": string(debug.Stack()),
				"type":       msg.Type().String(),
			}).Error("Gossip callback panicked")
			incDelivery("panicked")
		}
	}()

	if err := p.cb.OnMessage(p.ctx, msg); err != nil {
		p.logger.WithFields(log.Fields{
			"err":  err,
			"type": msg.Type().String(),
		}).Warn("Gossip callback returned an error")
		incDelivery("failed")
		return
	}
	incDelivery("delivered")
}
