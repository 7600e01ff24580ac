package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/tygra/display"
	"github.com/teranos/tygra/errors"
	"github.com/teranos/tygra/internal/script"
	"github.com/teranos/tygra/logger"
	"github.com/teranos/tygra/model"
	"github.com/teranos/tygra/persist"
)

// NewCmd creates an empty graph
var NewCmd = &cobra.Command{
	Use:   "new [file]",
	Short: "Create an empty graph",
	Long: `Create a graph holding only the system entities (T, REL, REFLEXIVE,
SYMMETRIC, TRANSITIVE, ISA) and write it to file, or to the configured
store path.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runNew,
}

// ScriptCmd builds a graph from a script
var ScriptCmd = &cobra.Command{
	Use:   "script <script> [out]",
	Short: "Build a graph from a script",
	Long: `Run a graph script and write the result.

Use - to read the script from stdin. Each line is one command:

  node NAME [SUPERTYPE...]        create a node (default supertype T)
  relation NAME SUPERTYPE FROM TO declare a relation type
  rel NAME FROM TO [SUPERTYPE...] create a relation (default supertype REL)
  type NAME...                    mark entities as types
  set NAME ATTR VALUE             set an attribute
  prop NAME PROPERTY...           set relation properties
  isa NAME SUPERTYPE...           add supertypes
  delete NAME...                  delete entities`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runScript,
}

// ShowCmd lists the entities of a graph
var ShowCmd = &cobra.Command{
	Use:   "show [file]",
	Short: "List the entities of a graph",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runShow,
}

// ConvertCmd converts a graph between storage formats
var ConvertCmd = &cobra.Command{
	Use:   "convert <in> <out>",
	Short: "Convert a graph between storage formats",
	Long: `Read a graph and write it in the format named by the extension of out.
The document keeps its identity, so converting into a database replaces an
earlier copy of the same graph.`,
	Args: cobra.ExactArgs(2),
	RunE: runConvert,
}

var (
	newForce   bool
	showSystem bool
)

func init() {
	NewCmd.Flags().BoolVarP(&newForce, "force", "f", false, "Overwrite an existing file")
	ShowCmd.Flags().BoolVar(&showSystem, "system", false, "Include system entities")
	ShowCmd.Flags().Bool("json", false, "Output entities as JSON")
}

func runNew(cmd *cobra.Command, args []string) error {
	path := graphPath(args)
	if !isDatabase(path) && !newForce {
		if _, err := os.Stat(path); err == nil {
			return errors.WithHint(
				errors.Newf("%s already exists", path),
				"use --force to overwrite it",
			)
		}
	}
	g := model.New(modelOptions()...)
	d := persist.NewDocument(g)
	if err := saveDocument(cmd.Context(), path, d); err != nil {
		return err
	}
	pterm.Success.Printfln("Created %s (%s)", path, d.ID)
	return nil
}

func runScript(cmd *cobra.Command, args []string) error {
	src, name := os.Stdin, "stdin"
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return errors.Wrapf(err, "open script %s", args[0])
		}
		defer f.Close()
		src, name = f, args[0]
	}
	r := script.New(model.New(modelOptions()...), logger.ComponentLogger("script"))
	if err := r.Run(src); err != nil {
		return errors.Wrapf(err, "%s", name)
	}
	g := r.Graph()
	if n := g.Validate(); n > 0 {
		pterm.Warning.Printfln("%d invariant violations", n)
	}
	path := graphPath(args[1:])
	if err := saveDocument(cmd.Context(), path, persist.NewDocument(g)); err != nil {
		return err
	}
	pterm.Success.Printfln("Wrote %d entities to %s", g.Len(), path)
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	l, err := openGraph(cmd.Context(), graphPath(args), nil)
	if err != nil {
		return err
	}
	printReport(l.report)
	return display.Table(cmd, entityHeader, entityRows(l.graph, showSystem))
}

var entityHeader = []string{"ID", "Kind", "Label", "Type", "Supertypes", "From", "To", "Properties"}

func entityRows(g *model.Graph, system bool) [][]string {
	var data [][]string
	for _, e := range g.Entities() {
		if e.IsIsa() || (e.System() && !system) {
			continue
		}
		var parents []string
		for _, p := range e.Parents() {
			parents = append(parents, p.Label())
		}
		row := []string{e.ID().String(), e.Kind().String(), e.Label(), fmt.Sprint(e.IsType()), strings.Join(parents, ", "), "", "", ""}
		if e.IsRelation() {
			row[5], row[6] = e.From().Label(), e.To().Label()
			if p := e.EffectiveProperties(); p != 0 {
				row[7] = p.String()
			}
		}
		data = append(data, row)
	}
	return data
}

func runConvert(cmd *cobra.Command, args []string) error {
	in, out := args[0], args[1]
	l, err := openGraph(cmd.Context(), in, nil)
	if err != nil {
		return err
	}
	printReport(l.report)
	l.doc.Update(l.graph)
	if err := saveDocument(cmd.Context(), out, l.doc); err != nil {
		return err
	}
	pterm.Success.Printfln("Converted %s to %s", in, out)
	return nil
}

// printReport lists what a load had to repair.
func printReport(r *model.LoadReport) {
	if r == nil || r.OK() {
		return
	}
	for _, f := range r.Failures {
		pterm.Warning.Printfln("%s: %v", f.ID, f.Err)
	}
	for _, id := range r.Rerooted {
		pterm.Info.Printfln("%s had no supertypes and was attached to its root", id)
	}
}
