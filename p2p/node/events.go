package node

import (
	"runtime/debug"

	"github.com/libp2p/go-libp2p/core/event"
	"github.com/libp2p/go-libp2p/core/network"

	"github.com/dominant-strategies/go-gossip/log"
)

// subscribes to the event bus and handles libp2p events as they're received
func (p *P2PNode) eventLoop() {
	defer func() {
		if r := recover(); r != nil {
			log.Global.WithFields(log.Fields{
				"error":      r,
				"stacktrace": string(debug.Stack()),
			}).Error("Go-Gossip Panicked")
		}
	}()

	// Subscribe to any events of interest
	sub, err := p.EventBus().Subscribe([]interface{}{
		new(event.EvtLocalProtocolsUpdated),
		new(event.EvtLocalAddressesUpdated),
		new(event.EvtLocalReachabilityChanged),
		new(event.EvtNATDeviceTypeChanged),
		new(event.EvtPeerProtocolsUpdated),
		new(event.EvtPeerIdentificationCompleted),
		new(event.EvtPeerIdentificationFailed),
		new(event.EvtPeerConnectednessChanged),
	})
	if err != nil {
		log.Global.Errorf("failed to subscribe to host events: %s", err)
		return
	}
	defer sub.Close()

	log.Global.Debugf("Event listener started")

	for {
		select {
		case evt, ok := <-sub.Out():
			if !ok {
				return
			}
			switch e := evt.(type) {
			case event.EvtLocalProtocolsUpdated:
				log.Global.Debugf("Event: 'Local protocols updated' - added: %+v, removed: %+v", e.Added, e.Removed)
			case event.EvtLocalAddressesUpdated:
				p2pAddr, err := p.p2pAddress()
				if err != nil {
					log.Global.Errorf("error computing p2p address: %s", err)
				} else {
					for _, addr := range e.Current {
						addr := addr.Address.Encapsulate(p2pAddr)
						log.Global.Infof("Event: 'Local address updated': %s", addr)
					}
					for _, addr := range e.Removed {
						addr := addr.Address.Encapsulate(p2pAddr)
						log.Global.Infof("Event: 'Local address removed': %s", addr)
					}
				}
			case event.EvtLocalReachabilityChanged:
				log.Global.Debugf("Event: 'Local reachability changed': %+v", e.Reachability)
			case event.EvtNATDeviceTypeChanged:
				log.Global.Debugf("Event: 'NAT device type changed' - DeviceType %v, transport: %v", e.NatDeviceType.String(), e.TransportProtocol.String())
			case event.EvtPeerProtocolsUpdated:
				log.Global.Debugf("Event: 'Peer protocols updated' - added: %+v, removed: %+v, peer: %+v", e.Added, e.Removed, e.Peer)
			case event.EvtPeerIdentificationCompleted:
				log.Global.Debugf("Event: 'Peer identification completed' - %v", e.Peer)
			case event.EvtPeerIdentificationFailed:
				log.Global.Debugf("Event 'Peer identification failed' - peer: %v, reason: %v", e.Peer, e.Reason.Error())
			case event.EvtPeerConnectednessChanged:
				log.Global.WithFields(log.Fields{
					"peer":          e.Peer.String(),
					"connectedness": e.Connectedness.String(),
					"addresses":     p.Peerstore().Addrs(e.Peer),
				}).Debug("Event: 'Peer connectedness change'")
				switch e.Connectedness {
				case network.Connected:
					countPeerEvent("connected")
				case network.NotConnected:
					countPeerEvent("disconnected")
				}
			default:
				log.Global.Debugf("Received unknown event (type: %T): %+v", e, e)
			}
		case <-p.ctx.Done():
			log.Global.Warnf("Context cancel received. Stopping event listener")
			return
		}
	}
}
