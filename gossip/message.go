package gossip

import (
	"github.com/pkg/errors"

	"github.com/dominant-strategies/go-gossip/p2p"
)

// MessageType is the tag of a Message variant
type MessageType int

const (
	NeighborUpType MessageType = iota
	NeighborDownType
	ReceivedType
	JoinedType
	LaggedType
	ErrorType
)

func (t MessageType) String() string {
	switch t {
	case NeighborUpType:
		return "NeighborUp"
	case NeighborDownType:
		return "NeighborDown"
	case ReceivedType:
		return "Received"
	case JoinedType:
		return "Joined"
	case LaggedType:
		return "Lagged"
	case ErrorType:
		return "Error"
	default:
		return "Unknown"
	}
}

// Message is a gossip event delivered to a subscription callback. The set of
// implementations is closed: NeighborUp, NeighborDown, Received, Joined,
// Lagged and Error. Prefer a type switch over the As* accessors.
type Message interface {
	Type() MessageType
	isMessage()
}

// We have a new, direct neighbor in the swarm membership layer for this topic
type NeighborUp struct {
	Peer string
}

// We dropped a direct neighbor in the swarm membership layer for this topic
type NeighborDown struct {
	Peer string
}

// A gossip message was received for this topic
type Received struct {
	// The content of the message
	Content []byte
	// The node that delivered the message. This is not the same as the original author.
	DeliveredFrom string
}

// The initial set of neighbors after the topic was joined
type Joined struct {
	Peers []string
}

// We missed some messages
type Lagged struct{}

// The inbound stream reported an error for one event. The subscription stays alive.
type Error struct {
	Description string
}

func (NeighborUp) Type() MessageType   { return NeighborUpType }
func (NeighborDown) Type() MessageType { return NeighborDownType }
func (Received) Type() MessageType     { return ReceivedType }
func (Joined) Type() MessageType       { return JoinedType }
func (Lagged) Type() MessageType       { return LaggedType }
func (Error) Type() MessageType        { return ErrorType }

func (NeighborUp) isMessage()   {}
func (NeighborDown) isMessage() {}
func (Received) isMessage()     {}
func (Joined) isMessage()       {}
func (Lagged) isMessage()       {}
func (Error) isMessage()        {}

func invalidAccess(want MessageType, msg Message) error {
	got := "nil"
	if msg != nil {
		got = msg.Type().String()
	}
	return errors.Wrapf(ErrInvalidVariantAccess, "want %s, got %s", want, got)
}

func AsNeighborUp(msg Message) (string, error) {
	if m, ok := msg.(NeighborUp); ok {
		return m.Peer, nil
	}
	return "", invalidAccess(NeighborUpType, msg)
}

func AsNeighborDown(msg Message) (string, error) {
	if m, ok := msg.(NeighborDown); ok {
		return m.Peer, nil
	}
	return "", invalidAccess(NeighborDownType, msg)
}

func AsReceived(msg Message) (Received, error) {
	if m, ok := msg.(Received); ok {
		return m, nil
	}
	return Received{}, invalidAccess(ReceivedType, msg)
}

func AsJoined(msg Message) ([]string, error) {
	if m, ok := msg.(Joined); ok {
		return m.Peers, nil
	}
	return nil, invalidAccess(JoinedType, msg)
}

func AsError(msg Message) (string, error) {
	if m, ok := msg.(Error); ok {
		return m.Description, nil
	}
	return "", invalidAccess(ErrorType, msg)
}

// messageFromResponse translates one inbound stream item into exactly one Message
func messageFromResponse(resp p2p.SubscribeResponse) Message {
	if resp.Err != nil {
		return Error{Description: resp.Err.Error()}
	}
	if resp.Lagged {
		return Lagged{}
	}
	switch e := resp.Event.(type) {
	case p2p.EventNeighborUp:
		return NeighborUp{Peer: e.Peer.String()}
	case p2p.EventNeighborDown:
		return NeighborDown{Peer: e.Peer.String()}
	case p2p.EventReceived:
		return Received{Content: e.Content, DeliveredFrom: e.DeliveredFrom.String()}
	case p2p.EventJoined:
		peers := make([]string, 0, len(e.Peers))
		for _, p := range e.Peers {
			peers = append(peers, p.String())
		}
		return Joined{Peers: peers}
	default:
		return Error{Description: errors.Errorf("unknown gossip event %T", e).Error()}
	}
}
