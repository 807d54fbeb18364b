package cmd

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spacemeshos/smutil"
	"github.com/spf13/viper"

	"github.com/spacemeshos/loquat/config"
)

const (
	defaultConfigFileName = "config.toml"
	envPrefix             = "loquat"
)

var defaultConfigFile = filepath.Join(smutil.GetUserHomeDirectory(), "loquat", defaultConfigFileName)

// loadConfig merges, from lowest to highest priority, the defaults, the config file,
// LOQUAT_* environment variables and the command line flags.
func loadConfig() (config.Config, error) {
	vip := viper.New()
	vip.SetEnvPrefix(envPrefix)
	vip.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	vip.AutomaticEnv()

	if err := vip.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return config.Config{}, errors.Wrap(err, "failed to bind flags")
	}

	if err := loadConfigFile(vip); err != nil {
		return config.Config{}, err
	}

	cfg := config.DefaultConfig()
	if err := vip.Unmarshal(&cfg); err != nil {
		return config.Config{}, errors.Wrap(err, "failed to parse config")
	}
	cfg.DataDir = smutil.GetCanonicalPath(cfg.DataDir)

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// loadConfigFile reads the file given by --config. A missing default file is not an error.
func loadConfigFile(vip *viper.Viper) error {
	fileLocation := defaultConfigFile
	if cfgFile != "" {
		fileLocation = smutil.GetCanonicalPath(cfgFile)
	}

	vip.SetConfigFile(fileLocation)
	if err := vip.ReadInConfig(); err != nil {
		if cfgFile == "" {
			return nil
		}
		return errors.Wrap(err, "failed to read config file")
	}
	return nil
}
