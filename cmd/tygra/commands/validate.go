package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/tygra/am"
	"github.com/teranos/tygra/display"
	"github.com/teranos/tygra/errors"
	"github.com/teranos/tygra/logger"
	"github.com/teranos/tygra/metrics"
)

// ValidateCmd checks graph invariants
var ValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Check graph invariants",
	Long: `Load a graph and check that every entity satisfies the graph invariants:
supertypes of the same kind that are types, no isa cycles, relation
endpoints that are live members of the graph.

Problems are logged; the command fails if any are found. With --watch the
graph is checked again whenever the file (or the project am.toml) changes.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

var (
	validateWatch   bool
	validateMetrics bool
)

func init() {
	ValidateCmd.Flags().BoolVarP(&validateWatch, "watch", "w", false, "Validate again when the file changes")
	ValidateCmd.Flags().BoolVar(&validateMetrics, "metrics", false, "Print graph metrics after validating")
}

func runValidate(cmd *cobra.Command, args []string) error {
	path := graphPath(args)
	reg := prometheus.NewRegistry()
	c := metrics.NewCollector(reg)

	check := func() error {
		err := validateOnce(cmd.Context(), path, c)
		if validateMetrics {
			if perr := printMetrics(cmd, reg); perr != nil {
				return perr
			}
		}
		return err
	}
	if !validateWatch {
		return check()
	}
	if err := check(); err != nil {
		pterm.Error.Println(err)
	}
	return watch(cmd.Context(), path, check)
}

func validateOnce(ctx context.Context, path string, c *metrics.Collector) error {
	l, err := openGraph(ctx, path, c)
	if err != nil {
		return err
	}
	if err := c.Attach(l.graph); err != nil {
		return err
	}
	defer c.Detach(l.graph)

	printReport(l.report)
	n := l.graph.Validate()
	c.ObserveValidation(n)
	if n > 0 || !l.report.OK() {
		return errors.Wrapf(errors.ErrInvariantViolation,
			"%s: %d violations, %d records not restored", path, n, len(l.report.Failures))
	}
	pterm.Success.Printfln("%s is valid (%d entities)", path, l.graph.Len())
	return nil
}

// watch runs check after every change to path or to the project
// configuration until interrupted.
func watch(ctx context.Context, path string, check func() error) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	log := logger.ComponentLogger("watch")

	rerun := func() error {
		if err := check(); err != nil {
			pterm.Error.Println(err)
		}
		return nil
	}

	fw, err := am.NewFileWatcher(path, config().Debounce(), log)
	if err != nil {
		return err
	}
	defer fw.Stop()
	fw.OnChange(func(string) error { return rerun() })
	fw.Start()

	if cwd, err := os.Getwd(); err == nil {
		if project := am.FindProjectConfig(cwd); project != "" {
			cw, err := am.WatchConfigFile(project, config().Debounce(), func(cfg *am.Config) error {
				current = cfg
				logger.SetLevel(logger.ParseLevel(cfg.Log.Level))
				return rerun()
			})
			if err != nil {
				log.Warnw("not watching configuration", logger.FieldPath, project, logger.FieldError, err)
			} else {
				defer cw.Stop()
				cw.Start()
			}
		}
	}

	pterm.Info.Printfln("Watching %s (Ctrl-C to stop)", path)
	select {
	case <-ctx.Done():
	case <-fw.Done():
	}
	return nil
}

// printMetrics renders the gathered metric families as a table.
func printMetrics(cmd *cobra.Command, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return errors.Wrap(err, "gather metrics")
	}
	var rows [][]string
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := ""
			for _, lp := range m.GetLabel() {
				labels += fmt.Sprintf("%s=%s ", lp.GetName(), lp.GetValue())
			}
			var v float64
			switch {
			case m.GetCounter() != nil:
				v = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				v = m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				v = float64(m.GetHistogram().GetSampleCount())
			}
			rows = append(rows, []string{mf.GetName(), strings.TrimSpace(labels), fmt.Sprint(v)})
		}
	}
	return display.Table(cmd, []string{"Metric", "Labels", "Value"}, rows)
}
