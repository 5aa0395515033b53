package discovery

import (
	"context"

	ds "github.com/ipfs/go-datastore"
	dssync "github.com/ipfs/go-datastore/sync"
	kadht "github.com/libp2p/go-libp2p-kad-dht"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	drouting "github.com/libp2p/go-libp2p/p2p/discovery/routing"
	"github.com/pkg/errors"

	"github.com/dominant-strategies/go-gossip/log"
)

var ErrNoBootstrapPeers = errors.New("no bootstrap peers given")

var _ DHT = (*KadDHT)(nil)

// represents the DHT for the libp2p node
type KadDHT struct {
	dht *kadht.IpfsDHT
}

// Initialize creates a server mode DHT keeping its records in memory. It is
// normally called from libp2p.Routing so the host resolves peers through it.
func (k *KadDHT) Initialize(ctx context.Context, node host.Host, opts ...kadht.Option) error {
	opts = append([]kadht.Option{
		kadht.Mode(kadht.ModeServer),
		kadht.Datastore(dssync.MutexWrap(ds.NewMapDatastore())),
	}, opts...)
	dht, err := kadht.New(ctx, node, opts...)
	if err != nil {
		return errors.Wrap(err, "error creating DHT")
	}
	k.dht = dht
	return nil
}

// Routing returns the underlying DHT, nil before Initialize
func (k *KadDHT) Routing() *kadht.IpfsDHT {
	return k.dht
}

// RoutingDiscovery advertises and finds topic peers through the DHT
func (k *KadDHT) RoutingDiscovery() *drouting.RoutingDiscovery {
	return drouting.NewRoutingDiscovery(k.dht)
}

// Bootstrap connects to the bootstrap peers and refreshes the routing table.
// It succeeds as long as one peer could be reached.
func (k *KadDHT) Bootstrap(ctx context.Context, node host.Host, bootstrapPeers ...peer.AddrInfo) error {
	if len(bootstrapPeers) == 0 {
		return ErrNoBootstrapPeers
	}

	connected := 0
	for _, peerInfo := range bootstrapPeers {
		log.Global.WithField("peer", peerInfo.ID).Debug("Adding bootstrapping node")
		if err := node.Connect(ctx, peerInfo); err != nil {
			log.Global.WithFields(log.Fields{
				"peer": peerInfo.ID,
				"err":  err,
			}).Warn("Error connecting to bootstrap node")
			continue
		}
		connected++
		log.Global.WithField("peer", peerInfo.ID).Debug("Connected to bootstrap node")
	}
	if connected == 0 {
		return errors.Errorf("could not reach any of %d bootstrap peers", len(bootstrapPeers))
	}
	// Bootstrap the DHT
	return k.dht.Bootstrap(ctx)
}

func (k *KadDHT) FindPeer(ctx context.Context, peerID peer.ID) (peer.AddrInfo, error) {
	return k.dht.FindPeer(ctx, peerID)
}

func (k *KadDHT) GetPeers() []peer.ID {
	return k.dht.RoutingTable().ListPeers()
}

func (k *KadDHT) Stop() error {
	if k.dht == nil {
		return nil
	}
	return k.dht.Close()
}
