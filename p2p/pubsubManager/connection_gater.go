package pubsubManager

import (
	"sync"

	"github.com/libp2p/go-libp2p/core/control"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"

	"github.com/dominant-strategies/go-gossip/log"
)

// ConnGater refuses connections to and from blocked peers
type ConnGater struct {
	mu      sync.RWMutex
	blocked map[peer.ID]struct{}
}

func NewConnGater(blocked ...peer.ID) *ConnGater {
	cg := &ConnGater{blocked: make(map[peer.ID]struct{}, len(blocked))}
	for _, p := range blocked {
		cg.blocked[p] = struct{}{}
	}
	return cg
}

// InterceptPeerDial tests whether we're permitted to Dial the specified peer.
func (cg *ConnGater) InterceptPeerDial(p peer.ID) (allow bool) {
	return cg.testPeer(p)
}

// InterceptAddrDial tests whether we're permitted to dial the specified
// multiaddr for the given peer.
func (cg *ConnGater) InterceptAddrDial(p peer.ID, addr ma.Multiaddr) (allow bool) {
	return cg.testPeer(p)
}

// InterceptAccept allows every inbound connection; the remote peer is not
// known until the security handshake completes.
func (cg *ConnGater) InterceptAccept(network.ConnMultiaddrs) (allow bool) {
	return true
}

// InterceptSecured tests whether a given connection, now authenticated,
// is allowed.
func (cg *ConnGater) InterceptSecured(direction network.Direction, pid peer.ID, multiAddrs network.ConnMultiaddrs) (allow bool) {
	return cg.testPeer(pid)
}

// NOTE: the go-libp2p implementation currently IGNORES the disconnect reason.
func (cg *ConnGater) InterceptUpgraded(network.Conn) (allow bool, reason control.DisconnectReason) {
	return true, 0
}

func (cg *ConnGater) testPeer(p peer.ID) (ok bool) {
	cg.mu.RLock()
	defer cg.mu.RUnlock()
	_, ok = cg.blocked[p]
	return !ok
}

// ReportBadPeer blocks the peer for all future connections. Existing
// connections are left to the caller to close.
func (cg *ConnGater) ReportBadPeer(p peer.ID) {
	cg.mu.Lock()
	defer cg.mu.Unlock()
	if _, ok := cg.blocked[p]; !ok {
		log.Global.WithField("peer", p.String()).Warn("Blocking peer")
	}
	cg.blocked[p] = struct{}{}
}

// Unblock lets the peer connect again
func (cg *ConnGater) Unblock(p peer.ID) {
	cg.mu.Lock()
	defer cg.mu.Unlock()
	delete(cg.blocked, p)
}

// BlockedPeers returns the currently blocked peers in no particular order
func (cg *ConnGater) BlockedPeers() []peer.ID {
	cg.mu.RLock()
	defer cg.mu.RUnlock()
	peers := make([]peer.ID, 0, len(cg.blocked))
	for p := range cg.blocked {
		peers = append(peers, p)
	}
	return peers
}
