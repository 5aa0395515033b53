package node

import (
	"github.com/multiformats/go-multiaddr"
	manet "github.com/multiformats/go-multiaddr/net"

	"github.com/dominant-strategies/go-gossip/log"
)

// returns a function that advertises the external IP next to the first
// non-loopback tcp listen address (i.e. the Docker IP), on the same port
func makeAddrsFactory(externalIP string) func([]multiaddr.Multiaddr) []multiaddr.Multiaddr {
	return func(addrs []multiaddr.Multiaddr) []multiaddr.Multiaddr {
		for _, addr := range addrs {
			if manet.IsIPLoopback(addr) {
				continue
			}
			ip, err := addr.ValueForProtocol(multiaddr.P_IP4)
			if err != nil || ip == externalIP {
				continue
			}
			port, err := addr.ValueForProtocol(multiaddr.P_TCP)
			if err != nil {
				continue
			}
			external, err := multiaddr.NewMultiaddr("/ip4/" + externalIP + "/tcp/" + port)
			if err != nil {
				log.Global.Errorf("error creating external multiaddr for %s: %s", externalIP, err)
				return addrs
			}
			for _, existing := range addrs {
				if existing.Equal(external) {
					return addrs
				}
			}
			return append(addrs, external)
		}
		return addrs
	}
}
