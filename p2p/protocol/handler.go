package protocol

import (
	"io"
	"runtime/debug"

	"github.com/libp2p/go-libp2p/core/network"
	"github.com/pkg/errors"

	"github.com/dominant-strategies/go-gossip/common"
	"github.com/dominant-strategies/go-gossip/log"
)

// NeighborProtocolHandler reads frames from an inbound neighbor stream until
// the remote side closes it. A malformed frame resets the stream.
func NeighborProtocolHandler(stream network.Stream, handler NeighborMessageHandler) {
	defer func() {
		if r := recover(); r != nil {
			log.Global.WithFields(log.Fields{
				"error":      r,
				"stacktrace": string(debug.Stack()),
			}).Error("Go-Gossip Panicked")
		}
	}()
	defer stream.Close()

	remote := stream.Conn().RemotePeer()
	log.Global.WithField("peer", remote).Debug("Received a new neighbor stream")

	// if there is a protocol mismatch, close the stream
	if stream.Protocol() != ProtocolVersion {
		log.Global.WithField("protocol", stream.Protocol()).Warn("Invalid protocol")
		return
	}

	addStreams(1)
	defer addStreams(-1)

	// Enter the read loop for the stream and handle messages
	for {
		data, err := common.ReadMessageFromStream(stream, 0)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, network.ErrReset) {
				log.Global.WithField("peer", remote).Debug("Neighbor stream closed")
				return
			}
			log.Global.WithFields(log.Fields{
				"peer": remote,
				"err":  err,
			}).Error("Error reading message from neighbor stream")
			stream.Reset()
			return
		}

		frame, err := DecodeNeighborFrame(data)
		if err != nil {
			log.Global.WithFields(log.Fields{
				"peer": remote,
				"err":  err,
			}).Warn("Dropping neighbor stream after malformed frame")
			countFrame("malformed")
			stream.Reset()
			return
		}

		countFrame("received")
		handler.HandleNeighborMessage(remote, frame)
	}
}
