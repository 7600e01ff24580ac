package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/tygra/cmd/tygra/commands"
	"github.com/teranos/tygra/logger"
)

var rootCmd = &cobra.Command{
	Use:   "tygra",
	Short: "tygra - typed semantic graphs",
	Long: `tygra - build, check and convert typed semantic graphs.

A graph is made of nodes and relations that inherit attributes from the
types they are declared to be ("isa"). Graphs are stored as XML (.tygra,
.xml), YAML (.yaml, .yml) or in a SQLite database (.db, .sqlite).

Available commands:
  am       - Show and manage configuration ("I am")
  new      - Create an empty graph
  script   - Build a graph from a script
  show     - List the entities of a graph
  validate - Check graph invariants
  convert  - Convert a graph between storage formats
  store    - Manage graphs kept in a database

Examples:
  tygra new people.tygra
  tygra script people.txt people.tygra
  tygra show people.tygra
  tygra validate --watch people.tygra
  tygra convert people.tygra people.db`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonLogs, _ := cmd.Flags().GetBool("json-logs")
		configPath, _ := cmd.Flags().GetString("config")
		return commands.Setup(commands.Options{
			Verbosity:  verbosity,
			JSONLogs:   jsonLogs,
			ConfigPath: configPath,
		})
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	rootCmd.PersistentFlags().Bool("json-logs", false, "Write diagnostics as JSON")
	rootCmd.PersistentFlags().String("config", "", "Read configuration from this file only")

	commands.Register(rootCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
