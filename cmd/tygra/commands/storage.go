package commands

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/teranos/tygra/am"
	"github.com/teranos/tygra/db"
	"github.com/teranos/tygra/logger"
	"github.com/teranos/tygra/metrics"
	"github.com/teranos/tygra/model"
	"github.com/teranos/tygra/persist"
)

// isDatabase reports whether path names a SQLite graph store. Unknown
// extensions follow the configured store format.
func isDatabase(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	}
	if _, err := persist.FormatFor(path); err == nil {
		return false
	}
	return config().Store.Format == am.FormatSQLite
}

// graphPath returns args[0], or the configured store path.
func graphPath(args []string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	return config().GetStorePath()
}

// loaded is a graph read from storage together with the document it came
// from.
type loaded struct {
	graph  *model.Graph
	doc    *persist.Document
	report *model.LoadReport
}

// openGraph reads the graph at path. From a database it is the most
// recently saved one. When c is not nil the load is recorded on it.
func openGraph(ctx context.Context, path string, c *metrics.Collector) (*loaded, error) {
	log := logger.ComponentLogger("cli")
	start := time.Now()
	var (
		doc *persist.Document
		err error
	)
	if isDatabase(path) {
		doc, err = withStore(path, func(s *db.GraphStore) (*persist.Document, error) {
			return s.Latest(ctx)
		})
	} else {
		doc, err = persist.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	g, report := doc.Graph(
		model.WithReservedID(config().GetReservedID()),
		model.WithLogger(logger.ComponentLogger("model")),
	)
	if c != nil {
		c.ObserveLoad(report, time.Since(start))
	}
	log.Infow("opened graph",
		logger.FieldPath, path,
		logger.FieldDocument, doc.ID.String(),
		logger.FieldCount, g.Len(),
		logger.FieldDurationMS, time.Since(start).Milliseconds())
	return &loaded{graph: g, doc: doc, report: report}, nil
}

// saveDocument writes d to path, replacing any earlier copy of the same
// document.
func saveDocument(ctx context.Context, path string, d *persist.Document) error {
	if isDatabase(path) {
		_, err := withStore(path, func(s *db.GraphStore) (struct{}, error) {
			return struct{}{}, s.Save(ctx, d)
		})
		return err
	}
	return persist.WriteFile(path, d)
}

func withStore[T any](path string, fn func(*db.GraphStore) (T, error)) (T, error) {
	var zero T
	log := logger.ComponentLogger("db")
	conn, err := db.OpenWithMigrations(path, log)
	if err != nil {
		return zero, err
	}
	defer conn.Close()
	return fn(db.NewGraphStore(conn, log))
}
