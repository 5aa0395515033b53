package discovery

import (
	"context"
	"time"

	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/p2p/discovery/mdns"

	"github.com/dominant-strategies/go-gossip/log"
)

const (
	// DiscoveryServiceTag is used in our mDNS advertisements to discover other peers.
	DiscoveryServiceTag = "go-gossip"

	c_mdnsConnectTimeout = 10 * time.Second
)

type mDNSNotifee struct {
	h   host.Host
	ctx context.Context
}

func (d *mDNSNotifee) HandlePeerFound(pi peer.AddrInfo) {
	if pi.ID == d.h.ID() {
		return
	}
	log.Global.WithField("peer", pi.ID).Debug("Discovered new peer")
	ctx, cancel := context.WithTimeout(d.ctx, c_mdnsConnectTimeout)
	defer cancel()
	if err := d.h.Connect(ctx, pi); err != nil {
		log.Global.WithFields(log.Fields{
			"peer": pi.ID,
			"err":  err,
		}).Warn("Error connecting to discovered peer")
	}
}

type MdnsService struct {
	service mdns.Service
}

func (s *MdnsService) Start() error {
	return s.service.Start()
}

func (s *MdnsService) Stop() error {
	return s.service.Close()
}

func NewmDNSDiscovery(ctx context.Context, h host.Host) Discovery {
	log.Global.WithField("host", h.ID()).Debug("Creating mDNS discovery service")
	notifee := &mDNSNotifee{
		h:   h,
		ctx: ctx,
	}

	mDNS := &MdnsService{}
	mDNS.service = mdns.NewMdnsService(h, DiscoveryServiceTag, notifee)

	return mDNS
}
