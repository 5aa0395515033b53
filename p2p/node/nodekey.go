package node

import (
	"crypto/rand"
	"os"
	"path/filepath"

	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/pkg/errors"

	"github.com/dominant-strategies/go-gossip/log"
)

// GetNodeKey returns the private key stored in file. If the file does not
// exist, a new Ed25519 key is generated and saved there first.
func GetNodeKey(file string) (crypto.PrivKey, error) {
	log.Global.Debugf("loading node key from file: %s", file)

	if _, err := os.Stat(file); os.IsNotExist(err) {
		log.Global.Infof("node key not found, generating a new one")
		privateKey, _, err := crypto.GenerateEd25519Key(rand.Reader)
		if err != nil {
			return nil, errors.Wrap(err, "error generating private key")
		}
		privateKeyBytes, err := crypto.MarshalPrivateKey(privateKey)
		if err != nil {
			return nil, errors.Wrap(err, "error marshalling private key")
		}
		if err := os.MkdirAll(filepath.Dir(file), 0700); err != nil {
			return nil, errors.Wrap(err, "error creating key directory")
		}
		if err := os.WriteFile(file, privateKeyBytes, 0600); err != nil {
			return nil, errors.Wrap(err, "error saving private key")
		}
		log.Global.Infof("saved new node key at %s", file)
		return privateKey, nil
	}

	privateKeyBytes, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.Wrap(err, "error reading private key")
	}
	privateKey, err := crypto.UnmarshalPrivateKey(privateKeyBytes)
	if err != nil {
		return nil, errors.Wrapf(err, "error unmarshalling private key from %s", file)
	}
	return privateKey, nil
}
