package model

import (
	"github.com/teranos/tygra/errors"
	"github.com/teranos/tygra/ident"
	"github.com/teranos/tygra/logger"
)

// LoadFailure is a record that could not be restored.
type LoadFailure struct {
	ID  ident.ID
	Err error
}

// LoadReport summarizes a Load.
type LoadReport struct {
	Nodes     int
	Relations int
	Failures  []LoadFailure
	// Rerooted lists entities that ended up without supertypes and were
	// attached to their root.
	Rerooted []ident.ID
}

// OK reports whether every record was restored as stored.
func (r *LoadReport) OK() bool {
	return len(r.Failures) == 0 && len(r.Rerooted) == 0
}

// Err combines the failures into one error, or returns nil.
func (r *LoadReport) Err() error {
	var err error
	for _, f := range r.Failures {
		err = errors.CombineErrors(err, errors.Wrapf(f.Err, "record %s", f.ID))
	}
	return err
}

func (r *LoadReport) fail(id ident.ID, err error) {
	r.Failures = append(r.Failures, LoadFailure{ID: id, Err: err})
}

// Load rebuilds a graph from records. Records that cannot be restored are
// logged and reported; a bad record never aborts the load.
//
// Nodes are constructed first, then relations with their endpoints left
// unresolved. The fix-up pass then resolves endpoints and validates, Isa
// edges first so that plain relations are checked against their final
// supertypes. A relation that fails fix-up is deleted. Re-rooting is held
// back until everything is in place, then any entity left without a
// supertype is attached to its root.
func Load(records []Record, opts ...Option) (*Graph, *LoadReport) {
	g := New(opts...)
	report := &LoadReport{}
	g.loading = true

	var rels []*Entity
	for _, pass := range []func(Record) bool{
		func(r Record) bool { return r.Kind == RecordNode },
		Record.IsRelation,
	} {
		for _, rec := range records {
			if !pass(rec) {
				continue
			}
			e, err := g.construct(rec)
			if err != nil {
				g.log.Warnw("record skipped",
					logger.FieldEntity, rec.ID,
					logger.FieldError, err)
				report.fail(rec.ID, err)
				continue
			}
			if e.rel != nil {
				rels = append(rels, e)
				report.Relations++
			} else {
				report.Nodes++
			}
		}
	}
	if n := countUnknown(records); n > 0 {
		g.log.Warnw("records of unknown kind ignored", logger.FieldCount, n)
	}

	for _, isaPhase := range []bool{true, false} {
		for _, r := range rels {
			if r.IsIsa() != isaPhase || r.deleted {
				continue
			}
			if err := g.fixup(r); err != nil {
				g.log.Warnw("fix-up failed; relation deleted",
					logger.FieldRelation, r.id,
					logger.FieldError, err)
				report.fail(r.id, err)
				if derr := r.Delete(); derr != nil && !errors.Is(derr, errors.ErrAlreadyDeleted) {
					g.log.Errorw("could not delete relation after failed fix-up",
						logger.FieldRelation, r.id,
						logger.FieldError, derr)
				}
			}
		}
	}

	g.loading = false
	for _, e := range g.Entities() {
		e.attrs.InvalidateAll()
		if e.needsRoot() {
			g.reroot(e)
			report.Rerooted = append(report.Rerooted, e.id)
		}
	}

	g.log.Infow("loaded graph",
		logger.FieldCount, len(records),
		"nodes", report.Nodes,
		"relations", report.Relations,
		"failures", len(report.Failures),
		"rerooted", len(report.Rerooted))
	return g, report
}

func countUnknown(records []Record) int {
	n := 0
	for _, r := range records {
		if r.Kind != RecordNode && !r.IsRelation() {
			n++
		}
	}
	return n
}

// construct builds an entity from its record without resolving anything
// it points at.
func (g *Graph) construct(rec Record) (*Entity, error) {
	if rec.ID.IsZero() {
		return nil, errors.Wrap(errors.ErrInvalidRequest, "record without id")
	}
	if rec.ID.Scope == g.ids.Scope() && rec.ID.Local < g.reservedID {
		return nil, errors.Wrapf(errors.ErrSystemEntity, "record id %s is reserved", rec.ID)
	}
	kind := KindNode
	if rec.IsRelation() {
		kind = KindRelation
	}
	e := newEntity(g, kind, rec.ID)
	e.system = false
	if e.rel != nil {
		if rec.Kind == RecordIsa {
			e.rel.kind = RelIsa
		}
		e.rel.fromID, e.rel.toID = rec.From, rec.To
		e.rel.props = rec.Properties
	}
	e.attrs.Restore(rec.Attrs)
	if err := g.register(e); err != nil {
		return nil, err
	}
	if rec.ID.Scope == g.ids.Scope() {
		g.ids.Claim(rec.ID.Local)
	}
	return e, nil
}

// fixup resolves the endpoints of a loaded relation, validates it and
// links it.
func (g *Graph) fixup(r *Entity) error {
	from, err := g.dir.Resolve(r.rel.fromID)
	if err != nil {
		return errors.Wrap(err, "from endpoint")
	}
	to, err := g.dir.Resolve(r.rel.toID)
	if err != nil {
		return errors.Wrap(err, "to endpoint")
	}
	if r.IsIsa() {
		if err := g.checkIsa(from, to); err != nil {
			return err
		}
		for _, p := range from.Parents() {
			if p == to {
				return errors.Wrapf(errors.ErrInvalidRequest, "duplicate isa edge %s -> %s", from.id, to.id)
			}
		}
	} else if err := checkEndpoints(from, to, r.Parents()); err != nil {
		return err
	}
	r.rel.from, r.rel.to = from, to
	g.link(r)
	return nil
}
