package node

import (
	"github.com/libp2p/go-libp2p"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/spf13/viper"

	"github.com/dominant-strategies/go-gossip/cmd/utils"
	"github.com/dominant-strategies/go-gossip/log"
)

// Returns the enabled NAT related options for the libp2p node. Boot peers
// double as static relays.
func getNATOptions(staticRelays []peer.AddrInfo) []libp2p.Option {
	nodeOptions := []libp2p.Option{}

	// open a port in the network's firewall using UPnP
	if viper.GetBool(utils.PortMapFlag.Name) {
		log.Global.Debugf("Enabling NAT port mapping...")
		nodeOptions = append(nodeOptions, libp2p.NATPortMap())
	}

	if !viper.GetBool(utils.NATFlag.Name) {
		log.Global.Debugf("No NAT traversal options used to create node")
		return nodeOptions
	}

	// include option to provide NAT service to peers for determining their reachability status
	log.Global.Debugf("Enabling NAT service...")
	nodeOptions = append(nodeOptions, libp2p.EnableNATService())

	// If publicly reachable, provide a relay service for other peers
	nodeOptions = append(nodeOptions, libp2p.EnableRelayService())

	if len(staticRelays) > 0 {
		log.Global.Debugf("Enabling auto relay with %d static relays addresses...", len(staticRelays))
		nodeOptions = append(nodeOptions, libp2p.EnableAutoRelayWithStaticRelays(staticRelays))
	} else {
		log.Global.Debugf("Bypassing auto relay with static relays. No static relays provided")
	}

	// include option to enable hole punching: this option enables NAT traversal
	// by enabling NATT'd peers to both initiate and respond to hole punching attempts
	// to create direct/NAT-traversed connections with other peers.
	log.Global.Debugf("Enabling hole punching with default options...")
	nodeOptions = append(nodeOptions, libp2p.EnableHolePunching())

	return nodeOptions
}
