package node

import (
	"bufio"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/multiformats/go-multiaddr"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/dominant-strategies/go-gossip/cmd/utils"
	"github.com/dominant-strategies/go-gossip/common/constants"
	"github.com/dominant-strategies/go-gossip/log"
)

func nodeInfoPath() string {
	return filepath.Join(viper.GetString(utils.DataDirFlag.Name), constants.NODEINFO_FILE_NAME)
}

// Utility function that asynchronously writes the provided "info" string to the node.info file.
// If the file doesn't exist, it creates it. Otherwise, it appends the new "info" as a new line.
func saveNodeInfo(info string) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Global.WithFields(log.Fields{
					"error":      r,
					"stacktrace": string(debug.Stack()),
				}).Error("Go-Gossip Panicked")
			}
		}()
		if err := appendNodeInfo(info); err != nil {
			log.Global.Errorf("error writing node info: %s", err)
		}
	}()
}

func appendNodeInfo(info string) error {
	nodeFile := nodeInfoPath()
	if err := os.MkdirAll(filepath.Dir(nodeFile), 0755); err != nil {
		return errors.Wrap(err, "error creating data directory")
	}
	f, err := os.OpenFile(nodeFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return errors.Wrap(err, "error opening node info file")
	}
	defer f.Close()

	writer := bufio.NewWriter(f)
	log.Global.Tracef("writing node info to file: %s", nodeFile)
	if _, err := writer.WriteString(info + "\n"); err != nil {
		return err
	}
	return writer.Flush()
}

// utility function used to delete any existing node info file
func deleteNodeInfoFile() error {
	nodeFile := nodeInfoPath()
	if _, err := os.Stat(nodeFile); !os.IsNotExist(err) {
		return os.Remove(nodeFile)
	}
	return nil
}

// Loads bootpeers addresses from the config and returns a list of peer.AddrInfo
func loadBootPeers() ([]peer.AddrInfo, error) {
	if viper.GetBool(utils.SoloFlag.Name) {
		return nil, nil
	}
	var bootpeers []peer.AddrInfo
	for _, p := range viper.GetStringSlice(utils.BootPeersFlag.Name) {
		addr, err := multiaddr.NewMultiaddr(p)
		if err != nil {
			return nil, errors.Wrapf(err, "bootpeer %q", p)
		}
		info, err := peer.AddrInfoFromP2pAddr(addr)
		if err != nil {
			return nil, errors.Wrapf(err, "bootpeer %q", p)
		}
		bootpeers = append(bootpeers, *info)
	}
	return bootpeers, nil
}

// Loads the peer ids this node refuses to connect to
func loadBlockedPeers() ([]peer.ID, error) {
	var blocked []peer.ID
	for _, p := range viper.GetStringSlice(utils.BlockedPeersFlag.Name) {
		id, err := peer.Decode(p)
		if err != nil {
			return nil, errors.Wrapf(err, "blocked peer %q", p)
		}
		blocked = append(blocked, id)
	}
	return blocked, nil
}
