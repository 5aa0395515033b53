package p2p

import (
	"encoding/hex"

	"github.com/libp2p/go-libp2p/core"
	"github.com/pkg/errors"
	"lukechampine.com/blake3"
)

// Multiaddr aliases the Multiaddr type from github.com/libp2p/core
//
// Refer to the docs on that type for more info.
type Multiaddr = core.Multiaddr

// PeerID aliases the PeerID type from github.com/libp2p/core
//
// Refer to the docs on that type for more info.
type PeerID = core.PeerID

// TopicIDLength is the exact size of a topic identifier in bytes
const TopicIDLength = 32

var ErrTopicLength = errors.New("topic must be exactly 32 bytes")

// TopicID scopes a gossip subscription to one logical channel
type TopicID [TopicIDLength]byte

// NewTopicID validates and copies the given bytes into a TopicID
func NewTopicID(b []byte) (TopicID, error) {
	var id TopicID
	if len(b) != TopicIDLength {
		return id, errors.Wrapf(ErrTopicLength, "got %d bytes", len(b))
	}
	copy(id[:], b)
	return id, nil
}

// TopicIDFromString derives a topic identifier from a human readable name
func TopicIDFromString(name string) TopicID {
	return TopicID(blake3.Sum256([]byte(name)))
}

// String returns the lowercase hex encoding, which is also the name
// of the underlying pubsub topic.
func (t TopicID) String() string {
	return hex.EncodeToString(t[:])
}

// Bytes returns a copy of the identifier
func (t TopicID) Bytes() []byte {
	b := make([]byte, TopicIDLength)
	copy(b, t[:])
	return b
}

// GossipEvent is one of the protocol level events produced by the engine:
// EventNeighborUp, EventNeighborDown, EventReceived or EventJoined.
type GossipEvent interface {
	isGossipEvent()
}

// A new direct neighbor joined the membership layer for the topic
type EventNeighborUp struct {
	Peer PeerID
}

// A direct neighbor was dropped
type EventNeighborDown struct {
	Peer PeerID
}

// A gossip payload. DeliveredFrom is the peer that relayed the message to us,
// not necessarily its author.
type EventReceived struct {
	Content       []byte
	DeliveredFrom PeerID
}

// The initial set of neighbors once the topic has been joined
type EventJoined struct {
	Peers []PeerID
}

func (EventNeighborUp) isGossipEvent()   {}
func (EventNeighborDown) isGossipEvent() {}
func (EventReceived) isGossipEvent()     {}
func (EventJoined) isGossipEvent()       {}

// SubscribeResponse is a single item of the inbound stream. Exactly one of
// Err, Lagged or Event is set.
type SubscribeResponse struct {
	Event  GossipEvent
	Lagged bool
	Err    error
}

// UpdateKind selects how an outbound payload is disseminated
type UpdateKind int

const (
	// UpdateBroadcast sends the payload to the whole swarm for the topic
	UpdateBroadcast UpdateKind = iota
	// UpdateBroadcastNeighbors sends the payload to direct neighbors only
	UpdateBroadcastNeighbors
)

func (k UpdateKind) String() string {
	switch k {
	case UpdateBroadcast:
		return "broadcast"
	case UpdateBroadcastNeighbors:
		return "broadcast-neighbors"
	default:
		return "unknown"
	}
}

// SubscribeUpdate is a single item written to the outbound sink
type SubscribeUpdate struct {
	Kind    UpdateKind
	Payload []byte
}
