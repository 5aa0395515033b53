package node

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"go.uber.org/multierr"

	"github.com/dominant-strategies/go-gossip/cmd/utils"
	"github.com/dominant-strategies/go-gossip/gossip"
	"github.com/dominant-strategies/go-gossip/log"
	"github.com/dominant-strategies/go-gossip/p2p"
	"github.com/dominant-strategies/go-gossip/p2p/discovery"
)

const c_stopTimeout = 5 * time.Second

var ErrNoBootPeers = errors.New("no bootpeers provided. Unable to join network")

// Starts the node and all of its services
func (p *P2PNode) Start() error {
	log.Global.Infof("starting P2P node...")

	// Start any async processes belonging to this node
	log.Global.Debugf("starting node processes...")
	go p.eventLoop()
	go p.statsLoop()

	if err := deleteNodeInfoFile(); err != nil {
		log.Global.Warnf("error removing stale node info file: %s", err)
	}
	p2pAddr, err := p.p2pAddress()
	if err != nil {
		return err
	}
	for _, addr := range p.Addrs() {
		saveNodeInfo(addr.Encapsulate(p2pAddr).String())
	}

	if viper.GetBool(utils.MdnsFlag.Name) {
		p.mdns = discovery.NewmDNSDiscovery(p.ctx, p.Host)
		if err := p.mdns.Start(); err != nil {
			return errors.Wrap(err, "error starting mDNS discovery")
		}
	}

	switch {
	case viper.GetBool(utils.SoloFlag.Name):
		log.Global.Infof("starting node in solo mode...")
		return nil
	case viper.GetBool(utils.BootNodeFlag.Name):
		// If the node is a bootnode, it only serves the routing table
		log.Global.Infof("starting node as a bootnode...")
		return p.dht.Routing().Bootstrap(p.ctx)
	case len(p.bootpeers) == 0:
		log.Global.Errorf("%s", ErrNoBootPeers)
		return ErrNoBootPeers
	}

	if err := p.dht.Bootstrap(p.ctx, p.Host, p.bootpeers...); err != nil {
		log.Global.Warnf("error bootstrapping DHT: %s", err)
		return err
	}
	return nil
}

// Client returns the gossip client bound to this node's engine
func (p *P2PNode) Client() *gossip.Client {
	return p.client
}

// Engine returns the gossip engine of this node
func (p *P2PNode) Engine() p2p.GossipEngine {
	return p.pubsub
}

// Returns the list of bootpeers
func (p *P2PNode) GetBootPeers() []peer.AddrInfo {
	return p.bootpeers
}

// PeersForTopic returns the current topic neighbors
func (p *P2PNode) PeersForTopic(topic p2p.TopicID) []p2p.PeerID {
	return p.pubsub.PeersForTopic(topic)
}

// BlockPeer refuses future connections from the peer and drops the current ones
func (p *P2PNode) BlockPeer(peerID p2p.PeerID) error {
	log.Global.WithFields(log.Fields{
		"peer": peerID,
	}).Warn("Blocking peer")

	p.gater.ReportBadPeer(peerID)
	return p.Network().ClosePeer(peerID)
}

// Connects to the given peer
func (p *P2PNode) Connect(pi peer.AddrInfo) error {
	return p.Host.Connect(p.ctx, pi)
}

type stopFunc func() error

// Function to gracefully shutdown all running services
func (p *P2PNode) Stop() error {
	// the engine goes first so every subscription sees a clean close
	// before its transport disappears
	allErrors := p.pubsub.Stop()

	stopFuncs := []stopFunc{
		p.dht.Stop,
		p.Host.Close,
	}
	if p.mdns != nil {
		stopFuncs = append(stopFuncs, p.mdns.Stop)
	}

	// create a channel to collect errors
	errs := make(chan error, len(stopFuncs))
	// run each stop function in a goroutine
	for _, fn := range stopFuncs {
		go func(fn stopFunc) {
			defer func() {
				if r := recover(); r != nil {
					log.Global.WithFields(log.Fields{
						"error":      r,
						"stacktrace": string(debug.Stack()),
					}).Error("Go-Gossip Panicked")
					errs <- errors.Errorf("panic during shutdown: %v", r)
				}
			}()
			errs <- fn()
		}(fn)
	}

	ctx, cancel := context.WithTimeout(context.Background(), c_stopTimeout)
	defer cancel()
collect:
	for i := 0; i < len(stopFuncs); i++ {
		select {
		case err := <-errs:
			if err != nil {
				log.Global.Errorf("error during shutdown: %s", err)
				allErrors = multierr.Append(allErrors, err)
			}
		case <-ctx.Done():
			err := errors.New("timeout during shutdown")
			log.Global.Warnf("error: %s", err)
			allErrors = multierr.Append(allErrors, err)
			break collect
		}
	}

	totals := p.bandwidth.GetBandwidthTotals()
	log.Global.WithFields(log.Fields{
		"in":  totals.TotalIn,
		"out": totals.TotalOut,
	}).Info("Node stopped")

	return allErrors
}
