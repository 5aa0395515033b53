package constants

const (
	APP_NAME = "go-gossip"
	// prefix used to read config parameters from environment variables
	ENV_PREFIX = "GO_GOSSIP"
	// private key file name
	PRIVATE_KEY_FILENAME = "private.key"
	// config file name
	CONFIG_FILE_NAME = "config.toml"
	// config file type
	CONFIG_FILE_TYPE = "toml"
	// file to dynamically store node's ID and listening addresses
	NODEINFO_FILE_NAME = "node.info"
)
