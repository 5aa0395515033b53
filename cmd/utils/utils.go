package utils

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/dominant-strategies/go-gossip/common/constants"
	"github.com/dominant-strategies/go-gossip/log"
)

// InitConfig initializes the viper config instance ensuring that environment variables
// take precedence over config file parameters.
// Environment variables should be prefixed with the application name (e.g. GO_GOSSIP_LOG_LEVEL).
// It panics if an error occurs while reading an existing config file.
func InitConfig() {
	log.Global.Infof("Loading config from file: %s", viper.ConfigFileUsed())
	err := viper.ReadInConfig()
	if err != nil {
		// if error is type ConfigFileNotFoundError or fs.PathError, ignore error
		if _, ok := err.(*fs.PathError); ok || errors.As(err, &viper.ConfigFileNotFoundError{}) {
			log.Global.Warnf("Config file not found: %s", viper.ConfigFileUsed())
		} else {
			log.Global.Errorf("Error reading config file: %s", err)
			// config file was found but another error was produced. Cannot continue
			panic(err)
		}
	}

	log.Global.Infof("Loading config from environment variables with prefix: '%s_'", constants.ENV_PREFIX)
	viper.SetEnvPrefix(constants.ENV_PREFIX)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()
}

// SaveConfig writes the current config parameters into the config file
// under the config directory, creating the directory if needed.
func SaveConfig() error {
	configDir := viper.GetString(ConfigDirFlag.Name)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return pkgerrors.Wrap(err, "creating config directory")
	}
	path := filepath.Join(configDir, constants.CONFIG_FILE_NAME)
	if err := viper.WriteConfigAs(path); err != nil {
		return pkgerrors.Wrapf(err, "writing config file %s", path)
	}
	log.Global.WithField("path", path).Info("Config file saved")
	return nil
}
