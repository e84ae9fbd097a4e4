package main

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/weegigs/wee-contracts-go/we"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFile     = "config.yaml"

	cfgKeyDataDir          = "data_dir"
	cfgKeyContractKey      = "contract_key"
	cfgKeyMinPersistentTTL = "min_persistent_ttl"
	cfgKeyMaxEntryTTL      = "max_entry_ttl"
	cfgKeyLogLevel         = "log_level"

	defaultConfigDir   = ".counter"
	defaultContractKey = "default"
)

const defaultConfigYAML = `# counter configuration

# Directory holding ledger.db. Relative paths resolve against the config directory.
data_dir: data

# Counter instance used when --key is not given
contract_key: default

# Ledger TTL policy
min_persistent_ttl: 4096
max_entry_ttl: 6312000

log_level: warn
`

type config struct {
	DataDir     string
	ContractKey string
	TTL         we.TTLPolicy
	LogLevel    string
}

// loadConfig reads config.yaml from configDir, writing the default file on first use.
func loadConfig(configDir string) (config, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return config{}, errors.Wrap(err, "failed to create config directory")
	}

	path := filepath.Join(configDir, configFile)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.WriteFile(path, []byte(defaultConfigYAML), 0o644); err != nil {
			return config{}, errors.Wrap(err, "failed to write default config")
		}
	}

	v := viper.New()
	v.SetDefault(cfgKeyDataDir, "data")
	v.SetDefault(cfgKeyContractKey, defaultContractKey)
	v.SetDefault(cfgKeyMinPersistentTTL, we.DefaultMinPersistentTTL)
	v.SetDefault(cfgKeyMaxEntryTTL, we.DefaultMaxEntryTTL)
	v.SetDefault(cfgKeyLogLevel, "warn")
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	v.SetEnvPrefix("COUNTER")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return config{}, errors.Wrap(err, "failed to read config")
		}
	}

	dataDir := v.GetString(cfgKeyDataDir)
	if !filepath.IsAbs(dataDir) {
		dataDir = filepath.Join(configDir, dataDir)
	}

	cfg := config{
		DataDir:     dataDir,
		ContractKey: v.GetString(cfgKeyContractKey),
		TTL: we.TTLPolicy{
			MinPersistentTTL: v.GetUint32(cfgKeyMinPersistentTTL),
			MaxEntryTTL:      v.GetUint32(cfgKeyMaxEntryTTL),
		},
		LogLevel: v.GetString(cfgKeyLogLevel),
	}

	if cfg.TTL.MaxEntryTTL < cfg.TTL.MinPersistentTTL {
		return config{}, errors.Errorf("%s (%d) is below %s (%d)", cfgKeyMaxEntryTTL, cfg.TTL.MaxEntryTTL, cfgKeyMinPersistentTTL, cfg.TTL.MinPersistentTTL)
	}

	return cfg, nil
}
