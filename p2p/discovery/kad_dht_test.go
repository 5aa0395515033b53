package discovery

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/libp2p/go-libp2p/core/peer"
	mocknet "github.com/libp2p/go-libp2p/p2p/net/mock"
	"github.com/stretchr/testify/require"

	"github.com/dominant-strategies/go-gossip/log"
)

func TestMain(m *testing.M) {
	log.ConfigureLogger(log.WithNullLogger())
	os.Exit(m.Run())
}

func TestKadDHTBootstrap(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mockedNetwork := mocknet.New()
	defer mockedNetwork.Close()

	hostA, err := mockedNetwork.GenPeer()
	require.NoError(t, err)
	hostB, err := mockedNetwork.GenPeer()
	require.NoError(t, err)
	require.NoError(t, mockedNetwork.LinkAll())

	dhtA, dhtB := &KadDHT{}, &KadDHT{}
	require.NoError(t, dhtA.Initialize(ctx, hostA))
	require.NoError(t, dhtB.Initialize(ctx, hostB))
	defer dhtA.Stop()
	defer dhtB.Stop()
	require.NotNil(t, dhtA.Routing())
	require.NotNil(t, dhtA.RoutingDiscovery())

	t.Run("no peers", func(t *testing.T) {
		require.ErrorIs(t, dhtA.Bootstrap(ctx, hostA), ErrNoBootstrapPeers)
	})

	t.Run("unreachable peers", func(t *testing.T) {
		stranger, err := mockedNetwork.GenPeer()
		require.NoError(t, err)
		dialCtx, dialCancel := context.WithTimeout(ctx, 2*time.Second)
		defer dialCancel()
		require.Error(t, dhtA.Bootstrap(dialCtx, hostA, peer.AddrInfo{ID: stranger.ID()}))
	})

	t.Run("fills the routing table", func(t *testing.T) {
		info := peer.AddrInfo{ID: hostB.ID(), Addrs: hostB.Addrs()}
		require.NoError(t, dhtA.Bootstrap(ctx, hostA, info))
		require.Eventually(t, func() bool {
			for _, p := range dhtA.GetPeers() {
				if p == hostB.ID() {
					return true
				}
			}
			return false
		}, 10*time.Second, 50*time.Millisecond)
	})
}

func TestStopUninitialized(t *testing.T) {
	require.NoError(t, (&KadDHT{}).Stop())
}
