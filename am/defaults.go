package am

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Defaults
const (
	DefaultReservedID = 100
	DefaultScope      = "0,1"
	DefaultStorePath  = "graph.tygra"
	DefaultLogLevel   = "warn"
	DefaultDebounceMS = 200
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("model.reserved_id", DefaultReservedID)
	v.SetDefault("model.scope", DefaultScope)

	v.SetDefault("store.path", DefaultStorePath)
	v.SetDefault("store.format", "")

	v.SetDefault("log.json", false)
	v.SetDefault("log.level", DefaultLogLevel)

	v.SetDefault("watch.debounce_ms", DefaultDebounceMS)
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Model: ModelConfig{ReservedID: DefaultReservedID, Scope: DefaultScope},
		Store: StoreConfig{Path: DefaultStorePath},
		Log:   LogConfig{Level: DefaultLogLevel},
		Watch: WatchConfig{DebounceMS: DefaultDebounceMS},
	}
}

// GetStorePath returns the configured store path
func (c *Config) GetStorePath() string {
	if c.Store.Path == "" {
		return DefaultStorePath
	}
	return c.Store.Path
}

// GetReservedID returns the reserved id, applying the default for zero.
func (c *Config) GetReservedID() int {
	if c.Model.ReservedID == 0 {
		return DefaultReservedID
	}
	return c.Model.ReservedID
}

// GetScope returns the identity scope of new graphs.
func (c *Config) GetScope() string {
	if c.Model.Scope == "" {
		return DefaultScope
	}
	return c.Model.Scope
}

// Debounce returns the watch debounce period.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Watch.DebounceMS) * time.Millisecond
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf("Config{Model: {ReservedID: %d, Scope: %s}, Store: %s, Log: %s}",
		c.GetReservedID(), c.GetScope(), c.GetStorePath(), c.Log.Level)
}
