package protocol

import (
	"github.com/libp2p/go-libp2p/core/protocol"
)

const (
	// ProtocolVersion is the stream protocol carrying neighbor-only broadcasts
	ProtocolVersion protocol.ID = "/go-gossip/neighbors/1.0.0"
)
