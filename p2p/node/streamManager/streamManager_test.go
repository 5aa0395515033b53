package streamManager

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/protocol"
	mocknet "github.com/libp2p/go-libp2p/p2p/net/mock"
	"github.com/stretchr/testify/require"

	"github.com/dominant-strategies/go-gossip/common"
	"github.com/dominant-strategies/go-gossip/log"
)

const testProtocol protocol.ID = "/go-gossip/test/1.0.0"

func TestMain(m *testing.M) {
	log.ConfigureLogger(log.WithNullLogger())
	os.Exit(m.Run())
}

// setup links two hosts and makes the second one echo every frame it reads
// into the returned channel.
func setup(t *testing.T) (mocknet.Mocknet, host.Host, host.Host, <-chan string) {
	mockedNetwork := mocknet.New()
	t.Cleanup(func() { mockedNetwork.Close() })

	local, err := mockedNetwork.GenPeer()
	require.NoError(t, err)
	remote, err := mockedNetwork.GenPeer()
	require.NoError(t, err)
	require.NoError(t, mockedNetwork.LinkAll())

	frames := make(chan string, 16)
	remote.SetStreamHandler(testProtocol, func(s network.Stream) {
		defer s.Close()
		for {
			data, err := common.ReadMessageFromStream(s, 0)
			if err != nil {
				return
			}
			frames <- string(data)
		}
	})
	return mockedNetwork, local, remote, frames
}

func receive(t *testing.T, frames <-chan string) string {
	t.Helper()
	select {
	case f := <-frames:
		return f
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for frame")
		return ""
	}
}

func TestStreamManager(t *testing.T) {
	_, local, remote, frames := setup(t)
	sm := NewStreamManager(local, testProtocol, nil)
	defer sm.Stop()
	ctx := context.Background()

	t.Run("GetStream opens once and caches", func(t *testing.T) {
		first, err := sm.GetStream(ctx, remote.ID())
		require.NoError(t, err)
		second, err := sm.GetStream(ctx, remote.ID())
		require.NoError(t, err)
		require.Equal(t, first, second)
		require.Equal(t, sm.GetHost(), local)
	})

	t.Run("WriteMessageToStream delivers frames in order", func(t *testing.T) {
		stream, err := sm.GetStream(ctx, remote.ID())
		require.NoError(t, err)
		require.NoError(t, sm.WriteMessageToStream(remote.ID(), stream, []byte("one")))
		require.NoError(t, sm.WriteMessageToStream(remote.ID(), stream, []byte("two")))

		require.Equal(t, "one", receive(t, frames))
		require.Equal(t, "two", receive(t, frames))
	})

	t.Run("CloseStream removes the cached stream", func(t *testing.T) {
		stream, err := sm.GetStream(ctx, remote.ID())
		require.NoError(t, err)

		require.NoError(t, sm.CloseStream(remote.ID()))
		require.ErrorIs(t, sm.CloseStream(remote.ID()), ErrStreamNotFound)
		require.ErrorIs(t, sm.WriteMessageToStream(remote.ID(), stream, []byte("late")), ErrStreamNotFound)

		fresh, err := sm.GetStream(ctx, remote.ID())
		require.NoError(t, err)
		require.NotEqual(t, stream, fresh)
		require.ErrorIs(t, sm.WriteMessageToStream(remote.ID(), stream, []byte("stale")), ErrStreamMismatch)

		require.NoError(t, sm.WriteMessageToStream(remote.ID(), fresh, []byte("three")))
		require.Equal(t, "three", receive(t, frames))
	})
}

func TestGetStreamUnreachablePeer(t *testing.T) {
	mockedNetwork, local, _, _ := setup(t)
	stranger, err := mockedNetwork.GenPeer()
	require.NoError(t, err)

	sm := NewStreamManager(local, testProtocol, nil)
	defer sm.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err = sm.GetStream(ctx, stranger.ID())
	require.Error(t, err)
}

func TestStreamManagerStop(t *testing.T) {
	_, local, remote, _ := setup(t)
	sm := NewStreamManager(local, testProtocol, nil)

	_, err := sm.GetStream(context.Background(), remote.ID())
	require.NoError(t, err)

	sm.Stop()
	require.ErrorIs(t, sm.CloseStream(remote.ID()), ErrStreamNotFound)
	_, err = sm.GetStream(context.Background(), remote.ID())
	require.ErrorIs(t, err, context.Canceled)
}
