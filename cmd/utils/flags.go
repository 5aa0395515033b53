package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dominant-strategies/go-gossip/common/constants"
	"github.com/dominant-strategies/go-gossip/log"
)

var GlobalFlags = []Flag{
	ConfigDirFlag,
	DataDirFlag,
	LogLevelFlag,
	SaveConfigFlag,
}

var NodeFlags = []Flag{
	IPAddrFlag,
	P2PPortFlag,
	BootNodeFlag,
	BootPeersFlag,
	PortMapFlag,
	NATFlag,
	KeyFileFlag,
	MinPeersFlag,
	MaxPeersFlag,
	SoloFlag,
	MdnsFlag,
	BlockedPeersFlag,
	ExternalIPFlag,
}

var TopicFlags = []Flag{
	TopicFlag,
	TopicPeersFlag,
}

var MetricsFlags = []Flag{
	MetricsEnabledFlag,
	MetricsPortFlag,
}

var (
	// ****************************************
	// **                                    **
	// **         LOCAL FLAGS                **
	// **                                    **
	// ****************************************
	IPAddrFlag = Flag{
		Name:         "ipaddr",
		Abbreviation: "i",
		Value:        "0.0.0.0",
		Usage:        "ip address to listen on" + generateEnvDoc("ipaddr"),
	}

	P2PPortFlag = Flag{
		Name:         "port",
		Abbreviation: "p",
		Value:        "4001",
		Usage:        "p2p port to listen on" + generateEnvDoc("port"),
	}

	BootNodeFlag = Flag{
		Name:         "bootnode",
		Abbreviation: "b",
		Value:        false,
		Usage:        "start the node as a boot node (no static peers required)" + generateEnvDoc("bootnode"),
	}

	BootPeersFlag = Flag{
		Name:  "bootpeers",
		Value: []string{},
		Usage: "list of bootstrap peers. Syntax: <multiaddress1>,<multiaddress2>,..." + generateEnvDoc("bootpeers"),
	}

	PortMapFlag = Flag{
		Name:  "portmap",
		Value: true,
		Usage: "enable NAT portmap" + generateEnvDoc("portmap"),
	}

	NATFlag = Flag{
		Name:  "nat",
		Value: false,
		Usage: "enable NAT service, circuit relay and hole punching" + generateEnvDoc("nat"),
	}

	KeyFileFlag = Flag{
		Name:         "keyfile",
		Abbreviation: "k",
		Value:        "",
		Usage:        "file containing node private key (default <config-dir>/" + constants.PRIVATE_KEY_FILENAME + ")" + generateEnvDoc("keyfile"),
	}

	MinPeersFlag = Flag{
		Name:  "min-peers",
		Value: "5",
		Usage: "minimum number of peers to maintain connectivity with" + generateEnvDoc("min-peers"),
	}

	MaxPeersFlag = Flag{
		Name:  "max-peers",
		Value: "50",
		Usage: "maximum number of peers to maintain connectivity with" + generateEnvDoc("max-peers"),
	}

	SoloFlag = Flag{
		Name:         "solo",
		Abbreviation: "s",
		Value:        false,
		Usage:        "start the node as a solo node (will not reach out to bootstrap peers)" + generateEnvDoc("solo"),
	}

	MdnsFlag = Flag{
		Name:  "mdns",
		Value: false,
		Usage: "discover peers on the local network with mDNS" + generateEnvDoc("mdns"),
	}

	BlockedPeersFlag = Flag{
		Name:  "blocked-peers",
		Value: []string{},
		Usage: "peer ids this node refuses to connect to" + generateEnvDoc("blocked-peers"),
	}

	ExternalIPFlag = Flag{
		Name:  "external-ip",
		Value: "",
		Usage: "public ip to advertise in addition to the listen address (e.g. behind docker)" + generateEnvDoc("external-ip"),
	}

	// ****************************************
	// **                                    **
	// **         TOPIC FLAGS                **
	// **                                    **
	// ****************************************
	TopicFlag = Flag{
		Name:         "topic",
		Abbreviation: "t",
		Value:        constants.APP_NAME,
		Usage:        "topic name, hashed into the 32 byte topic id" + generateEnvDoc("topic"),
	}

	TopicPeersFlag = Flag{
		Name:  "topic-peers",
		Value: []string{},
		Usage: "peer ids to bootstrap the topic subscription with" + generateEnvDoc("topic-peers"),
	}

	// ****************************************
	// **                                    **
	// **         METRICS FLAGS              **
	// **                                    **
	// ****************************************
	MetricsEnabledFlag = Flag{
		Name:  "metrics",
		Value: false,
		Usage: "enable the prometheus metrics endpoint" + generateEnvDoc("metrics"),
	}

	MetricsPortFlag = Flag{
		Name:  "metrics.port",
		Value: 2112,
		Usage: "port of the prometheus metrics endpoint" + generateEnvDoc("metrics.port"),
	}

	// ****************************************
	// **                                    **
	// **         GLOBAL FLAGS               **
	// **                                    **
	// ****************************************
	ConfigDirFlag = Flag{
		Name:         "config-dir",
		Abbreviation: "c",
		Value:        xdg.ConfigHome + "/" + constants.APP_NAME + "/",
		Usage:        "config directory" + generateEnvDoc("config-dir"),
	}

	DataDirFlag = Flag{
		Name:         "data-dir",
		Abbreviation: "d",
		Value:        xdg.DataHome + "/" + constants.APP_NAME + "/",
		Usage:        "data directory" + generateEnvDoc("data-dir"),
	}

	LogLevelFlag = Flag{
		Name:         "log-level",
		Abbreviation: "l",
		Value:        "info",
		Usage:        "log level (trace, debug, info, warn, error, fatal, panic)" + generateEnvDoc("log-level"),
	}

	SaveConfigFlag = Flag{
		Name:         "save-config",
		Abbreviation: "S",
		Value:        false,
		Usage:        "save/update config file with current config parameters" + generateEnvDoc("save-config"),
	}
)

func CreateAndBindFlag(flag Flag, cmd *cobra.Command) {
	switch val := flag.Value.(type) {
	case string:
		cmd.PersistentFlags().StringP(flag.GetName(), flag.GetAbbreviation(), val, flag.GetUsage())
	case bool:
		cmd.PersistentFlags().BoolP(flag.GetName(), flag.GetAbbreviation(), val, flag.GetUsage())
	case []string:
		cmd.PersistentFlags().StringSliceP(flag.GetName(), flag.GetAbbreviation(), val, flag.GetUsage())
	case time.Duration:
		cmd.PersistentFlags().DurationP(flag.GetName(), flag.GetAbbreviation(), val, flag.GetUsage())
	case int:
		cmd.PersistentFlags().IntP(flag.GetName(), flag.GetAbbreviation(), val, flag.GetUsage())
	case int64:
		cmd.PersistentFlags().Int64P(flag.GetName(), flag.GetAbbreviation(), val, flag.GetUsage())
	case uint64:
		cmd.PersistentFlags().Uint64P(flag.GetName(), flag.GetAbbreviation(), val, flag.GetUsage())
	default:
		log.Global.Error("Flag type not supported: " + flag.GetName() + ", " + fmt.Sprintf("%T", val))
	}
	viper.BindPFlag(flag.GetName(), cmd.PersistentFlags().Lookup(flag.GetName()))
}

// helper function that given a cobra flag name, returns the corresponding
// help legend for the equivalent environment variable
func generateEnvDoc(flag string) string {
	envVar := constants.ENV_PREFIX + "_" + strings.NewReplacer("-", "_", ".", "_").Replace(strings.ToUpper(flag))
	return fmt.Sprintf(" [%s]", envVar)
}
