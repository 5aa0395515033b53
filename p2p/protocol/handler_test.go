package protocol_test

import (
	"context"
	"testing"
	"time"

	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	mocknet "github.com/libp2p/go-libp2p/p2p/net/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dominant-strategies/go-gossip/common"
	"github.com/dominant-strategies/go-gossip/p2p"
	"github.com/dominant-strategies/go-gossip/p2p/protocol"
)

type received struct {
	from  peer.ID
	frame protocol.NeighborFrame
}

type handlerFunc func(from peer.ID, frame protocol.NeighborFrame)

func (f handlerFunc) HandleNeighborMessage(from peer.ID, frame protocol.NeighborFrame) {
	f(from, frame)
}

func TestNeighborProtocolHandler(t *testing.T) {
	// Create a mock network and two hosts
	mockedNetwork := mocknet.New()
	defer mockedNetwork.Close()

	host1, err := mockedNetwork.GenPeer()
	require.NoError(t, err)
	host2, err := mockedNetwork.GenPeer()
	require.NoError(t, err)

	// Connect the two hosts on the mock network
	require.NoError(t, mockedNetwork.LinkAll())
	require.NoError(t, mockedNetwork.ConnectAllButSelf())

	got := make(chan received, 8)
	handler := handlerFunc(func(from peer.ID, frame protocol.NeighborFrame) {
		got <- received{from, frame}
	})
	host2.SetStreamHandler(protocol.ProtocolVersion, func(s network.Stream) {
		protocol.NeighborProtocolHandler(s, handler)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := host1.NewStream(ctx, host2.ID(), protocol.ProtocolVersion)
	require.NoError(t, err)
	defer stream.Close()

	topic := p2p.TopicIDFromString("chat")
	for _, payload := range []string{"one", "two"} {
		data := protocol.EncodeNeighborFrame(protocol.NeighborFrame{Topic: topic, Payload: []byte(payload)})
		require.NoError(t, common.WriteMessageToStream(stream, data))
	}

	for _, want := range []string{"one", "two"} {
		select {
		case r := <-got:
			assert.Equal(t, host1.ID(), r.from)
			assert.Equal(t, topic, r.frame.Topic)
			assert.Equal(t, want, string(r.frame.Payload))
		case <-ctx.Done():
			t.Fatalf("timed out waiting for frame %q", want)
		}
	}
}

func TestNeighborProtocolHandlerResetsOnMalformedFrame(t *testing.T) {
	mockedNetwork := mocknet.New()
	defer mockedNetwork.Close()

	host1, err := mockedNetwork.GenPeer()
	require.NoError(t, err)
	host2, err := mockedNetwork.GenPeer()
	require.NoError(t, err)
	require.NoError(t, mockedNetwork.LinkAll())
	require.NoError(t, mockedNetwork.ConnectAllButSelf())

	handled := make(chan struct{}, 1)
	finished := make(chan struct{})
	host2.SetStreamHandler(protocol.ProtocolVersion, func(s network.Stream) {
		defer close(finished)
		protocol.NeighborProtocolHandler(s, handlerFunc(func(peer.ID, protocol.NeighborFrame) {
			handled <- struct{}{}
		}))
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := host1.NewStream(ctx, host2.ID(), protocol.ProtocolVersion)
	require.NoError(t, err)
	defer stream.Close()

	require.NoError(t, common.WriteMessageToStream(stream, []byte{0xff, 0xff}))

	select {
	case <-finished:
	case <-ctx.Done():
		t.Fatal("handler kept reading after a malformed frame")
	}
	assert.Len(t, handled, 0)
}
