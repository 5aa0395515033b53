package node

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/libp2p/go-libp2p/core/network"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dominant-strategies/go-gossip/cmd/utils"
)

func configureTestNode(t *testing.T, solo bool, bootpeers ...string) {
	t.Helper()
	dir := t.TempDir()
	viper.Set(utils.IPAddrFlag.Name, "127.0.0.1")
	viper.Set(utils.P2PPortFlag.Name, "0")
	viper.Set(utils.ConfigDirFlag.Name, dir)
	viper.Set(utils.DataDirFlag.Name, filepath.Join(dir, "data"))
	viper.Set(utils.KeyFileFlag.Name, "")
	viper.Set(utils.MinPeersFlag.Name, 5)
	viper.Set(utils.MaxPeersFlag.Name, 50)
	viper.Set(utils.PortMapFlag.Name, false)
	viper.Set(utils.SoloFlag.Name, solo)
	viper.Set(utils.BootPeersFlag.Name, bootpeers)
}

func TestNodeLifecycle(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	configureTestNode(t, true)
	boot, err := NewNode(ctx)
	require.NoError(t, err)
	require.NoError(t, boot.Start())
	require.NotNil(t, boot.Client())
	require.NotNil(t, boot.Engine())

	bootAddr, err := boot.p2pAddress()
	require.NoError(t, err)
	require.NotEmpty(t, boot.Addrs())

	configureTestNode(t, false, boot.Addrs()[0].Encapsulate(bootAddr).String())
	joiner, err := NewNode(ctx)
	require.NoError(t, err)
	require.Len(t, joiner.GetBootPeers(), 1)
	require.NoError(t, joiner.Start())

	assert.Eventually(t, func() bool {
		return joiner.Network().Connectedness(boot.ID()) == network.Connected
	}, 10*time.Second, 50*time.Millisecond)

	require.NoError(t, joiner.BlockPeer(boot.ID()))
	assert.Error(t, joiner.Connect(boot.Peerstore().PeerInfo(boot.ID())))

	assert.NoError(t, joiner.Stop())
	assert.NoError(t, boot.Stop())
}

func TestStartWithoutBootPeers(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	configureTestNode(t, false)
	n, err := NewNode(ctx)
	require.NoError(t, err)
	defer n.Stop()

	assert.ErrorIs(t, n.Start(), ErrNoBootPeers)
}
