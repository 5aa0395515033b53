package node

import (
	"runtime/debug"
	"time"

	"github.com/dominant-strategies/go-gossip/log"
)

const c_statsInterval = 10 * time.Second

// Returns the number of peers in the routing table, as well as how many active
// connections we currently have.
func (p *P2PNode) connectionStats() (int, int) {
	routingTableSize := len(p.dht.GetPeers())
	numConnected := len(p.Host.Network().Peers())
	return routingTableSize, numConnected
}

func (p *P2PNode) statsLoop() {
	defer func() {
		if r := recover(); r != nil {
			log.Global.WithFields(log.Fields{
				"error":      r,
				"stacktrace": string(debug.Stack()),
			}).Error("Go-Gossip Panicked")
		}
	}()

	ticker := time.NewTicker(c_statsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			routingTableSize, numConnected := p.connectionStats()
			setPeerGauge("routing_table", routingTableSize)
			setPeerGauge("connected", numConnected)

			totals := p.bandwidth.GetBandwidthTotals()
			log.Global.WithFields(log.Fields{
				"routingTable": routingTableSize,
				"connected":    numConnected,
				"rateIn":       int64(totals.RateIn),
				"rateOut":      int64(totals.RateOut),
			}).Info("Node stats")
		case <-p.ctx.Done():
			log.Global.Warnf("Context cancelled. Stopping stats loop...")
			return
		}
	}
}
