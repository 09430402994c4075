// Package config provides configuration loading for the engine binary:
// worker pool sizing, timeouts, persisted state location, the metrics
// listener address, and the asset (policy/filter) definitions loaded
// into the CEL builder at startup.
package config

import (
	"github.com/spf13/viper"
)

// Config is the top-level engine configuration.
type Config struct {
	Worker  WorkerConfig   `yaml:"worker" mapstructure:"worker"`
	State   StateConfig    `yaml:"state" mapstructure:"state"`
	Metrics MetricsConfig  `yaml:"metrics" mapstructure:"metrics"`
	LogLevel string        `yaml:"log_level" mapstructure:"log_level" validate:"omitempty,oneof=debug info warn warning error"`
	Policies []AssetConfig `yaml:"policies" mapstructure:"policies" validate:"omitempty,dive"`
	Filters  []AssetConfig `yaml:"filters" mapstructure:"filters" validate:"omitempty,dive"`
	Router   []EntryConfig `yaml:"router" mapstructure:"router" validate:"omitempty,dive"`
	Tester   []EntryConfig `yaml:"tester" mapstructure:"tester" validate:"omitempty,dive"`
}

// WorkerConfig sizes the worker pool and bounds its queue.
type WorkerConfig struct {
	// Count is the number of interchangeable worker goroutines.
	// Defaults to 1 if unset.
	Count int `yaml:"count" mapstructure:"count" validate:"omitempty,min=1"`
	// QueueSize bounds each worker's inbox. Defaults to 256 if unset.
	QueueSize int `yaml:"queue_size" mapstructure:"queue_size" validate:"omitempty,min=1"`
	// TestTimeout bounds how long IngestTest waits for a result (e.g. "1s").
	// Defaults to "1s" if unset.
	TestTimeout string `yaml:"test_timeout" mapstructure:"test_timeout" validate:"omitempty"`
}

// StateConfig configures where the router/tester entry document persists.
type StateConfig struct {
	// Path is the state.json file location. Defaults to "./engine-state.json".
	Path string `yaml:"path" mapstructure:"path"`
}

// MetricsConfig configures the Prometheus metrics listener.
type MetricsConfig struct {
	// Addr is the listen address for /metrics (e.g. ":9090").
	// Empty disables the listener.
	Addr string `yaml:"addr" mapstructure:"addr" validate:"omitempty,hostname_port"`
}

// AssetConfig defines one named policy or filter asset's CEL source.
type AssetConfig struct {
	Name       string   `yaml:"name" mapstructure:"name" validate:"required"`
	Expression string   `yaml:"expression" mapstructure:"expression" validate:"required"`
	Assets     []string `yaml:"assets" mapstructure:"assets"`
}

// EntryConfig seeds one router or tester entry at startup.
type EntryConfig struct {
	Name       string `yaml:"name" mapstructure:"name" validate:"required"`
	PolicyName string `yaml:"policy" mapstructure:"policy" validate:"required"`
	FilterName string `yaml:"filter" mapstructure:"filter"` // router only
	Priority   int    `yaml:"priority" mapstructure:"priority" validate:"omitempty,min=1"`
	Enabled    bool   `yaml:"enabled" mapstructure:"enabled"`
}

// SetDefaults applies sensible defaults to unset fields.
func (c *Config) SetDefaults() {
	if c.Worker.Count == 0 {
		c.Worker.Count = 1
	}
	if c.Worker.QueueSize == 0 {
		c.Worker.QueueSize = 256
	}
	if c.Worker.TestTimeout == "" {
		c.Worker.TestTimeout = "1s"
	}
	if c.State.Path == "" {
		c.State.Path = "./engine-state.json"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	// Only fill in the default when the user hasn't explicitly set an
	// empty string to disable the listener.
	if c.Metrics.Addr == "" && !viper.IsSet("metrics.addr") {
		c.Metrics.Addr = ":9090"
	}
}
