// Package commands implements the tygra command line.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/teranos/tygra/am"
	"github.com/teranos/tygra/errors"
	"github.com/teranos/tygra/logger"
	"github.com/teranos/tygra/model"
)

// Options are the global flags.
type Options struct {
	Verbosity  int
	JSONLogs   bool
	ConfigPath string
}

var current *am.Config

// Setup loads the configuration and initializes logging. An explicit -v
// overrides the configured level.
func Setup(opts Options) error {
	var (
		cfg *am.Config
		err error
	)
	if opts.ConfigPath != "" {
		cfg, err = am.LoadFromFile(opts.ConfigPath)
	} else {
		cfg, err = am.Load()
	}
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}
	current = cfg

	if err := logger.Initialize(opts.JSONLogs || cfg.Log.JSON); err != nil {
		return errors.Wrap(err, "failed to initialize logger")
	}
	level := logger.ParseLevel(cfg.Log.Level)
	if opts.Verbosity > 0 {
		level = logger.VerbosityToLevel(opts.Verbosity)
	}
	logger.SetLevel(level)
	logger.ComponentLogger("cli").Debugw("configured",
		"verbosity", logger.LevelName(opts.Verbosity),
		"config", cfg.String())
	return nil
}

// Register adds every tygra command to root.
func Register(root *cobra.Command) {
	root.AddCommand(AmCmd)
	root.AddCommand(NewCmd)
	root.AddCommand(ScriptCmd)
	root.AddCommand(ShowCmd)
	root.AddCommand(ValidateCmd)
	root.AddCommand(ConvertCmd)
	root.AddCommand(StoreCmd)
	root.AddCommand(VersionCmd)
}

func config() *am.Config {
	if current == nil {
		return am.Default()
	}
	return current
}

// modelOptions returns the options for graphs created from scratch.
func modelOptions() []model.Option {
	cfg := config()
	return []model.Option{
		model.WithReservedID(cfg.GetReservedID()),
		model.WithScope(cfg.GetScope()),
		model.WithLogger(logger.ComponentLogger("model")),
	}
}
