// Package am loads the tygra configuration.
//
// Settings come from, in increasing precedence: built-in defaults, the user
// file ~/.tygra/am.toml, the nearest am.toml found walking up from the
// working directory, and TYGRA_* environment variables.
package am

// Config represents the tygra configuration
type Config struct {
	Model ModelConfig `mapstructure:"model" toml:"model" yaml:"model"`
	Store StoreConfig `mapstructure:"store" toml:"store" yaml:"store"`
	Log   LogConfig   `mapstructure:"log" toml:"log" yaml:"log"`
	Watch WatchConfig `mapstructure:"watch" toml:"watch" yaml:"watch"`
}

// ModelConfig configures new graphs
type ModelConfig struct {
	ReservedID int    `mapstructure:"reserved_id" toml:"reserved_id" yaml:"reserved_id"` // First id handed to user entities (default: 100)
	Scope      string `mapstructure:"scope" toml:"scope" yaml:"scope"`                   // Identity scope of new graphs (default: "0,1")
}

// StoreConfig configures where graphs are kept
type StoreConfig struct {
	Path   string `mapstructure:"path" toml:"path" yaml:"path"`
	Format string `mapstructure:"format" toml:"format" yaml:"format"` // xml, yaml or sqlite; empty = from extension
}

// LogConfig configures diagnostics output
type LogConfig struct {
	JSON  bool   `mapstructure:"json" toml:"json" yaml:"json"`
	Level string `mapstructure:"level" toml:"level" yaml:"level"` // debug, info, warn, error
}

// WatchConfig configures `validate --watch`
type WatchConfig struct {
	DebounceMS int `mapstructure:"debounce_ms" toml:"debounce_ms" yaml:"debounce_ms"`
}

// Store formats
const (
	FormatXML    = "xml"
	FormatYAML   = "yaml"
	FormatSQLite = "sqlite"
)

// File system constants
const (
	DefaultDirPermissions  = 0755 // Standard directory permissions (rwxr-xr-x)
	DefaultFilePermissions = 0644 // Standard file permissions (rw-r--r--)
)

// ConfigFileName is the name of project and user configuration files.
const ConfigFileName = "am.toml"

// EnvPrefix prefixes environment overrides, e.g. TYGRA_STORE_PATH.
const EnvPrefix = "TYGRA"
