package commands

import (
	"github.com/google/uuid"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/tygra/db"
	"github.com/teranos/tygra/display"
	"github.com/teranos/tygra/errors"
)

// StoreCmd manages graphs kept in a database
var StoreCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage graphs kept in a database",
	Long: `A database holds any number of graph documents, one per document id.
Commands that read a database path use the most recently saved graph.

Examples:
  tygra store ls graphs.db
  tygra store rm graphs.db 4f2c...`,
}

var storeLsCmd = &cobra.Command{
	Use:   "ls [db]",
	Short: "List stored graphs, newest first",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStoreLs,
}

var storeRmCmd = &cobra.Command{
	Use:   "rm <db> <id>",
	Short: "Delete a stored graph",
	Args:  cobra.ExactArgs(2),
	RunE:  runStoreRm,
}

func init() {
	StoreCmd.AddCommand(storeLsCmd)
	StoreCmd.AddCommand(storeRmCmd)
	storeLsCmd.Flags().Bool("json", false, "Output as JSON")
}

func runStoreLs(cmd *cobra.Command, args []string) error {
	path := graphPath(args)
	list, err := withStore(path, func(s *db.GraphStore) ([]db.GraphInfo, error) {
		return s.List(cmd.Context())
	})
	if err != nil {
		return err
	}
	var rows [][]string
	for _, gi := range list {
		rows = append(rows, []string{
			gi.ID.String(), gi.Version, gi.Scope,
			gi.SavedAt.Local().Format("2006-01-02 15:04:05"),
			pterm.Sprint(gi.Entities),
		})
	}
	return display.Table(cmd, []string{"ID", "Version", "Scope", "Saved", "Entities"}, rows)
}

func runStoreRm(cmd *cobra.Command, args []string) error {
	id, err := uuid.Parse(args[1])
	if err != nil {
		return errors.Wrapf(errors.ErrInvalidRequest, "graph id %q", args[1])
	}
	if _, err := withStore(args[0], func(s *db.GraphStore) (struct{}, error) {
		return struct{}{}, s.Delete(cmd.Context(), id)
	}); err != nil {
		return err
	}
	pterm.Success.Printfln("Deleted %s", id)
	return nil
}
