package gossip

import "context"

// Callback receives the messages of one subscription. OnMessage is never
// invoked concurrently for the same subscription and messages arrive in the
// order the engine produced them. A returned error is logged and otherwise
// ignored; it does not end the subscription.
//
// Delivery of the next message waits for OnMessage to return, so a slow
// callback stalls its subscription.
type Callback interface {
	OnMessage(ctx context.Context, msg Message) error
}

// CallbackFunc adapts an ordinary function to the Callback interface
type CallbackFunc func(ctx context.Context, msg Message) error

func (f CallbackFunc) OnMessage(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}
