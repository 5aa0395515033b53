package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dominant-strategies/go-gossip/cmd/utils"
	"github.com/dominant-strategies/go-gossip/gossip"
	"github.com/dominant-strategies/go-gossip/log"
	"github.com/dominant-strategies/go-gossip/metrics_config"
	"github.com/dominant-strategies/go-gossip/p2p"
	"github.com/dominant-strategies/go-gossip/p2p/node"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "starts a go-gossip p2p node",
	Long: `starts the go-gossip daemon. The daemon will start a libp2p node, join the
topic given by --topic and log every event of the subscription.
To bootstrap to a private node, use the --bootpeers flag.`,
	RunE:                       runStart,
	SilenceUsage:               true,
	SuggestionsMinimumDistance: 2,
	Example:                    `go-gossip start --log-level=debug --topic=lobby`,
}

func init() {
	rootCmd.AddCommand(startCmd)

	// Create and bind all node flags to the start command
	for _, flag := range utils.NodeFlags {
		utils.CreateAndBindFlag(flag, startCmd)
	}

	for _, flag := range utils.TopicFlags {
		utils.CreateAndBindFlag(flag, startCmd)
	}

	// Create and bind all metrics flags to the start command
	for _, flag := range utils.MetricsFlags {
		utils.CreateAndBindFlag(flag, startCmd)
	}
}

// startNode creates and starts the p2p node, along with the metrics
// endpoint when enabled
func startNode(ctx context.Context) (*node.P2PNode, error) {
	n, err := node.NewNode(ctx)
	if err != nil {
		return nil, err
	}
	if err := n.Start(); err != nil {
		n.Stop()
		return nil, err
	}

	if viper.GetBool(utils.MetricsEnabledFlag.Name) {
		log.Global.Info("Starting metrics")
		metrics_config.EnableMetrics()
		metrics_config.StartProcessMetrics(viper.GetInt(utils.MetricsPortFlag.Name))
	}
	return n, nil
}

// logEvents is the callback of the start command's subscription
func logEvents(ctx context.Context, msg gossip.Message) error {
	entry := log.Global.WithField("type", msg.Type().String())
	switch m := msg.(type) {
	case gossip.Received:
		entry.WithFields(log.Fields{
			"from": m.DeliveredFrom,
			"size": len(m.Content),
		}).Info(string(m.Content))
	case gossip.Joined:
		entry.WithField("peers", m.Peers).Info("Joined topic")
	case gossip.NeighborUp:
		entry.WithField("peer", m.Peer).Info("Neighbor up")
	case gossip.NeighborDown:
		entry.WithField("peer", m.Peer).Info("Neighbor down")
	case gossip.Lagged:
		entry.Warn("Subscription lagged")
	case gossip.Error:
		entry.Error(m.Description)
	}
	return nil
}

func runStart(cmd *cobra.Command, args []string) error {
	log.Global.Info("Starting go-gossip")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	n, err := startNode(ctx)
	if err != nil {
		log.Global.WithField("error", err).Error("error starting node")
		return err
	}

	topic := p2p.TopicIDFromString(viper.GetString(utils.TopicFlag.Name))
	sender, err := n.Client().Subscribe(ctx, topic[:], viper.GetStringSlice(utils.TopicPeersFlag.Name), gossip.CallbackFunc(logEvents))
	if err != nil {
		n.Stop()
		return err
	}

	// wait for a SIGINT or SIGTERM signal
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch
	log.Global.Warn("Received 'stop' signal, shutting down gracefully...")
	if err := sender.Cancel(ctx); err != nil {
		log.Global.WithField("error", err).Warn("error cancelling subscription")
	}
	<-sender.Done()
	cancel()
	if err := n.Stop(); err != nil {
		return err
	}
	log.Global.Warn("Node is offline")
	return nil
}
