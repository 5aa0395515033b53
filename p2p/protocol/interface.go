package protocol

import (
	"github.com/libp2p/go-libp2p/core/peer"
)

// NeighborMessageHandler receives every frame read from an inbound neighbor
// stream. It is called from the stream's read loop and should return quickly.
type NeighborMessageHandler interface {
	HandleNeighborMessage(from peer.ID, frame NeighborFrame)
}
