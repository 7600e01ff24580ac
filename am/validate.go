package am

import (
	"slices"

	"github.com/teranos/tygra/errors"
)

var logLevels = []string{"debug", "info", "warn", "error"}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	// Reserved id: 0 = default, negative = invalid
	if c.Model.ReservedID < 0 {
		return errors.Newf("model.reserved_id must be >= 0, got %d", c.Model.ReservedID)
	}

	switch c.Store.Format {
	case "", FormatXML, FormatYAML, FormatSQLite:
	default:
		return errors.WithHint(
			errors.Newf("store.format %q is not supported", c.Store.Format),
			"use xml, yaml or sqlite, or leave it empty to pick by extension")
	}

	if c.Log.Level != "" && !slices.Contains(logLevels, c.Log.Level) {
		return errors.Newf("log.level must be one of %v, got %q", logLevels, c.Log.Level)
	}

	// Debounce: 0 = react to every event, negative = invalid
	if c.Watch.DebounceMS < 0 {
		return errors.Newf("watch.debounce_ms must be >= 0, got %d", c.Watch.DebounceMS)
	}

	return nil
}
