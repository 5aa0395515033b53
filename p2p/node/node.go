package node

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p"
	"github.com/libp2p/go-libp2p/core/host"
	libp2pmetrics "github.com/libp2p/go-libp2p/core/metrics"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/routing"
	"github.com/libp2p/go-libp2p/p2p/net/connmgr"
	"github.com/libp2p/go-libp2p/p2p/security/noise"
	"github.com/multiformats/go-multiaddr"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/dominant-strategies/go-gossip/cmd/utils"
	"github.com/dominant-strategies/go-gossip/common/constants"
	"github.com/dominant-strategies/go-gossip/gossip"
	"github.com/dominant-strategies/go-gossip/log"
	"github.com/dominant-strategies/go-gossip/p2p/discovery"
	"github.com/dominant-strategies/go-gossip/p2p/pubsubManager"
)

const c_connGracePeriod = time.Minute

// P2PNode represents a libp2p node taking part in the gossip swarm
type P2PNode struct {
	// Host interface
	host.Host

	// List of peers to introduce us to the network
	bootpeers []peer.AddrInfo

	// DHT instance, also the host's peer routing
	dht *discovery.KadDHT

	// local network discovery, nil unless enabled
	mdns discovery.Discovery

	// peers refused at connection time
	gater *pubsubManager.ConnGater

	// totals of every stream the host opens
	bandwidth *libp2pmetrics.BandwidthCounter

	// gossip engine and the client handed to applications
	pubsub *pubsubManager.PubsubManager
	client *gossip.Client

	// runtime context
	ctx context.Context
}

// Returns a new libp2p node.
// The node is created with the given context and options passed as arguments.
func NewNode(ctx context.Context) (*P2PNode, error) {
	ipAddr := viper.GetString(utils.IPAddrFlag.Name)
	port := viper.GetString(utils.P2PPortFlag.Name)

	bootpeers, err := loadBootPeers()
	if err != nil {
		log.Global.Errorf("error loading bootpeers: %s", err)
		return nil, err
	}

	blocked, err := loadBlockedPeers()
	if err != nil {
		log.Global.Errorf("error loading blocked peers: %s", err)
		return nil, err
	}

	keyFile := viper.GetString(utils.KeyFileFlag.Name)
	if keyFile == "" {
		keyFile = filepath.Join(viper.GetString(utils.ConfigDirFlag.Name), constants.PRIVATE_KEY_FILENAME)
	}
	privKey, err := GetNodeKey(keyFile)
	if err != nil {
		log.Global.Errorf("error loading node key: %s", err)
		return nil, err
	}

	// Define a connection manager
	connectionManager, err := connmgr.NewConnManager(
		viper.GetInt(utils.MinPeersFlag.Name), // LowWater
		viper.GetInt(utils.MaxPeersFlag.Name), // HighWater
		connmgr.WithGracePeriod(c_connGracePeriod),
	)
	if err != nil {
		log.Global.Errorf("error creating libp2p connection manager: %s", err)
		return nil, err
	}

	gater := pubsubManager.NewConnGater(blocked...)
	bandwidth := libp2pmetrics.NewBandwidthCounter()
	dht := &discovery.KadDHT{}

	opts := []libp2p.Option{
		// use a private key for persistent identity
		libp2p.Identity(privKey),

		// pass the ip address and port to listen on
		libp2p.ListenAddrStrings(
			fmt.Sprintf("/ip4/%s/tcp/%s", ipAddr, port),
		),

		// support all transports
		libp2p.DefaultTransports,

		// support Noise connections
		libp2p.Security(noise.ID, noise.New),

		// Let's prevent our peer from having too many
		// connections by attaching a connection manager.
		libp2p.ConnectionManager(connectionManager),

		// refuse blocked peers in both directions
		libp2p.ConnectionGater(gater),

		libp2p.BandwidthReporter(bandwidth),

		// Let this host use the DHT to find other hosts. Topic bootstrap
		// entries are bare peer ids, so dialing them needs peer routing.
		libp2p.Routing(func(h host.Host) (routing.PeerRouting, error) {
			if err := dht.Initialize(ctx, h); err != nil {
				return nil, err
			}
			return dht.Routing(), nil
		}),
	}
	opts = append(opts, getNATOptions(bootpeers)...)

	if externalIP := viper.GetString(utils.ExternalIPFlag.Name); externalIP != "" {
		opts = append(opts, libp2p.AddrsFactory(makeAddrsFactory(externalIP)))
	}

	h, err := libp2p.New(opts...)
	if err != nil {
		log.Global.Errorf("error creating libp2p host: %s", err)
		return nil, err
	}

	var engineOpts []pubsub.Option
	if !viper.GetBool(utils.SoloFlag.Name) {
		// advertise and look up topic peers through the DHT
		engineOpts = append(engineOpts, pubsub.WithDiscovery(dht.RoutingDiscovery()))
	}
	engine, err := pubsubManager.NewGossipSubManager(ctx, h, bandwidth, engineOpts...)
	if err != nil {
		h.Close()
		return nil, errors.Wrap(err, "error creating gossip engine")
	}

	log.Global.WithField("id", h.ID().String()).Info("Node created")

	return &P2PNode{
		ctx:       ctx,
		Host:      h,
		bootpeers: bootpeers,
		dht:       dht,
		gater:     gater,
		bandwidth: bandwidth,
		pubsub:    engine,
		client:    gossip.NewClient(ctx, engine),
	}, nil
}

// Get the full multi-address to reach our node
func (p *P2PNode) p2pAddress() (multiaddr.Multiaddr, error) {
	return multiaddr.NewMultiaddr(fmt.Sprintf("/p2p/%s", p.ID()))
}
