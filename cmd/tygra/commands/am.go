package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/teranos/tygra/am"
	"github.com/teranos/tygra/display"
	"github.com/teranos/tygra/errors"
)

// AmCmd represents the am (configuration) command
var AmCmd = &cobra.Command{
	Use:   "am",
	Short: "Manage tygra configuration",
	Long: `am: manage tygra configuration ("I am")

Configuration sources (in order of precedence):
1. Environment variables (TYGRA_* prefix, e.g. TYGRA_STORE_PATH)
2. Project config (./am.toml, searched up the directory tree)
3. User config (~/.tygra/am.toml)
4. Default values

Examples:
  tygra am show                   # Show current configuration
  tygra am show --format yaml     # Show configuration as YAML
  tygra am where                  # Show where each setting comes from
  tygra am check                  # Check the project config for mistakes
  tygra am init                   # Write a default ./am.toml`,
}

var amShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runAmShow,
}

var amWhereCmd = &cobra.Command{
	Use:   "where",
	Short: "Show where configuration is loaded from",
	RunE:  runAmWhere,
}

var amCheckCmd = &cobra.Command{
	Use:   "check [file]",
	Short: "Check a configuration file",
	Long: `Decode a configuration file strictly, reporting keys tygra does not know
and invalid values. Without an argument the project am.toml is checked.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAmCheck,
}

var amInitCmd = &cobra.Command{
	Use:   "init [file]",
	Short: "Write a default configuration file",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAmInit,
}

var configFormat string

func init() {
	amShowCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format: toml, json, yaml")

	amWhereCmd.Flags().Bool("json", false, "Output settings as JSON")

	AmCmd.AddCommand(amShowCmd)
	AmCmd.AddCommand(amWhereCmd)
	AmCmd.AddCommand(amCheckCmd)
	AmCmd.AddCommand(amInitCmd)
}

func runAmShow(cmd *cobra.Command, args []string) error {
	cfg := config()
	out := cmd.OutOrStdout()

	switch configFormat {
	case "json":
		return display.OutputJSON(out, cfg)
	case "yaml":
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to YAML")
		}
		fmt.Fprintf(out, "# tygra configuration\n%s", data)
	case "toml":
		data, err := am.Marshal(cfg)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "# tygra configuration\n%s", data)
	default:
		return errors.WithHint(
			errors.Wrapf(errors.ErrUnsupportedFormat, "config format %q", configFormat),
			"supported formats are toml, json and yaml",
		)
	}
	return nil
}

func runAmWhere(cmd *cobra.Command, args []string) error {
	settings := am.Introspect(am.GetViper())
	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(cmd.OutOrStdout(), settings)
	}
	var rows [][]string
	for _, s := range settings {
		rows = append(rows, []string{s.Key, fmt.Sprint(s.Value), string(s.Source), s.SourcePath})
	}
	return display.Table(cmd, []string{"Key", "Value", "Source", "From"}, rows)
}

func projectConfigPath(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", errors.Wrap(err, "working directory")
	}
	if p := am.FindProjectConfig(wd); p != "" {
		return p, nil
	}
	return filepath.Join(wd, am.ConfigFileName), nil
}

func runAmCheck(cmd *cobra.Command, args []string) error {
	path, err := projectConfigPath(args)
	if err != nil {
		return err
	}
	unknown, err := am.CheckFile(path)
	for _, key := range unknown {
		pterm.Warning.Printfln("%s: unknown key %q", path, key)
	}
	if err != nil {
		return err
	}
	if len(unknown) > 0 {
		return errors.Wrapf(errors.ErrInvalidRequest, "%s has %d unknown keys", path, len(unknown))
	}
	pterm.Success.Printfln("%s is valid", path)
	return nil
}

func runAmInit(cmd *cobra.Command, args []string) error {
	path := am.ConfigFileName
	if len(args) > 0 {
		path = args[0]
	}
	if err := am.Init(path); err != nil {
		return err
	}
	pterm.Success.Printfln("Wrote %s", path)
	return nil
}
