// Package persist reads and writes graph documents.
//
// A Document is the storage form of one graph: a format version, a
// document id, the identity scope the graph allocated from, and the records
// of every user entity. Documents are written as XML (.tygra, .xml) or YAML
// (.yaml, .yml); the db package stores them in SQLite.
package persist

import (
	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/tygra/errors"
	"github.com/teranos/tygra/logger"
	"github.com/teranos/tygra/model"
)

// FormatVersion is the version written into new documents.
const FormatVersion = "1.0.0"

// versionConstraint accepts every document this package can read.
const versionConstraint = "^1"

// Document is a persisted graph.
type Document struct {
	Version string
	ID      uuid.UUID
	Scope   string
	Records []model.Record
}

// NewDocument captures the current state of g under a fresh document id.
func NewDocument(g *model.Graph) *Document {
	return &Document{
		Version: FormatVersion,
		ID:      uuid.New(),
		Scope:   g.Scope(),
		Records: g.Snapshot(),
	}
}

// Update replaces the records with the current state of g, keeping the
// document id.
func (d *Document) Update(g *model.Graph) {
	d.Version = FormatVersion
	d.Scope = g.Scope()
	d.Records = g.Snapshot()
}

// Graph rebuilds the graph held by d. The document scope is applied after
// opts.
func (d *Document) Graph(opts ...model.Option) (*model.Graph, *model.LoadReport) {
	if d.Scope != "" {
		opts = append(opts, model.WithScope(d.Scope))
	}
	return model.Load(d.Records, opts...)
}

// CheckVersion rejects documents written by an incompatible format version.
func CheckVersion(version string) error {
	if version == "" {
		return errors.Wrap(errors.ErrUnsupportedFormat, "document has no version")
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return errors.Wrapf(errors.ErrUnsupportedFormat, "invalid document version %q", version)
	}
	c, err := semver.NewConstraint(versionConstraint)
	if err != nil {
		return errors.Wrapf(err, "invalid version constraint %s", versionConstraint)
	}
	if !c.Check(v) {
		return errors.WithHintf(
			errors.Wrapf(errors.ErrUnsupportedFormat, "document version %s", version),
			"this build reads documents matching %s", versionConstraint)
	}
	return nil
}

func log() *zap.SugaredLogger {
	return logger.ComponentLogger("persist")
}
