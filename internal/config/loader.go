package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// InitViper initializes Viper with the configuration file and
// environment variable support. If configFile is empty, Viper searches
// the current directory for engine.yaml/.yml.
func InitViper(configFile string) {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix("ENGINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	_ = viper.BindEnv("worker.count")
	_ = viper.BindEnv("worker.queue_size")
	_ = viper.BindEnv("worker.test_timeout")
	_ = viper.BindEnv("state.path")
	_ = viper.BindEnv("metrics.addr")
	_ = viper.BindEnv("log_level")
}

// LoadConfig reads the configuration file, applies environment
// overrides and defaults, validates, and returns the Config.
func LoadConfig() (*Config, error) {
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// ConfigFileUsed returns the path to the configuration file loaded, or
// empty if none was found (environment-variable-only configuration).
func ConfigFileUsed() string {
	return viper.ConfigFileUsed()
}
