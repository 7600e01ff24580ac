package model

import (
	"fmt"

	"github.com/teranos/tygra/attrs"
	"github.com/teranos/tygra/errors"
	"github.com/teranos/tygra/ident"
	"github.com/teranos/tygra/logger"
	"github.com/teranos/tygra/weaklist"
)

// Entity is a node or a relation of a Graph.
type Entity struct {
	id     ident.ID
	kind   Kind
	system bool
	graph  *Graph
	attrs  *attrs.Attributes

	observers weaklist.List[Observer]
	relations weaklist.List[*Entity]

	deleted bool

	// rel is non-nil exactly when kind is KindRelation.
	rel *relationPart
}

type relationPart struct {
	from, to *Entity
	kind     RelKind
	props    PropertySet

	// Endpoint ids read from storage, resolved by the fix-up pass.
	fromID, toID ident.ID
}

func newEntity(g *Graph, kind Kind, id ident.ID) *Entity {
	e := &Entity{
		id:     id,
		kind:   kind,
		system: id.Local < g.reservedID,
		graph:  g,
	}
	e.attrs = attrs.New(e, e.AttrParents)
	if kind == KindRelation {
		e.rel = &relationPart{}
	}
	return e
}

// ID returns the immutable identifier.
func (e *Entity) ID() ident.ID { return e.id }

// Kind reports whether e is a node or a relation.
func (e *Entity) Kind() Kind { return e.kind }

// IsRelation reports whether e is a relation, Isa edges included.
func (e *Entity) IsRelation() bool { return e.kind == KindRelation }

// IsIsa reports whether e is an Isa edge.
func (e *Entity) IsIsa() bool { return e.rel != nil && e.rel.kind == RelIsa }

// RelKind returns the relation kind. It is RelPlain for nodes.
func (e *Entity) RelKind() RelKind {
	if e.rel == nil {
		return RelPlain
	}
	return e.rel.kind
}

// System reports whether e was created by the graph bootstrap.
func (e *Entity) System() bool { return e.system }

// Graph returns the owning graph, or nil once e is deleted.
func (e *Entity) Graph() *Graph { return e.graph }

// Attrs returns the attribute store.
func (e *Entity) Attrs() *attrs.Attributes { return e.attrs }

// Deleted reports whether e has been deleted.
func (e *Entity) Deleted() bool { return e.deleted }

// From returns the source endpoint of a relation, nil for nodes.
func (e *Entity) From() *Entity {
	if e.rel == nil {
		return nil
	}
	return e.rel.from
}

// To returns the target endpoint of a relation, nil for nodes.
func (e *Entity) To() *Entity {
	if e.rel == nil {
		return nil
	}
	return e.rel.to
}

// Properties returns the relation properties declared on e itself.
func (e *Entity) Properties() PropertySet {
	if e.rel == nil {
		return 0
	}
	return e.rel.props
}

// Label returns the effective "label" attribute.
func (e *Entity) Label() string { return e.attrs.String("label") }

// IsType reports whether e may be named as a supertype.
func (e *Entity) IsType() bool { return e.attrs.Bool("type") }

// SetAttr sets a local attribute value.
func (e *Entity) SetAttr(name string, value any) error {
	if e.deleted {
		return errors.Wrapf(errors.ErrAlreadyDeleted, "set %q on %s", name, e.id)
	}
	return e.attrs.Set(name, value)
}

// Relations returns a snapshot of the incident relations in the order they
// were attached.
func (e *Entity) Relations() []*Entity {
	return e.relations.Snapshot()
}

// Observers returns a snapshot of the live observers.
func (e *Entity) Observers() []Observer {
	return e.observers.Snapshot()
}

func (e *Entity) String() string {
	typ := "Node"
	switch {
	case e.IsIsa():
		typ = "Isa"
	case e.IsRelation():
		typ = "Relation"
	}
	deleted := ""
	if e.deleted {
		deleted = " *DELETED*"
	}
	return fmt.Sprintf("(%s [%s, %q]%s)", typ, e.id, e.Label(), deleted)
}

// isRoot reports whether e is T or REL.
func (e *Entity) isRoot() bool {
	g := e.graph
	return g != nil && (e == g.top || e == g.topRel)
}

// Delete removes e from its graph. Observers receive "del" and are expected
// to detach; every incident relation is deleted in turn; a deleted relation
// detaches from both endpoints, which re-root themselves if it was their
// last supertype edge. Failures inside the cascade are logged and do not
// stop it.
func (e *Entity) Delete() error {
	if e.deleted {
		return errors.Wrapf(errors.ErrAlreadyDeleted, "delete %s", e.id)
	}
	if e.system {
		return errors.WithHint(
			errors.Wrapf(errors.ErrSystemEntity, "delete %s", e),
			"bootstrap entities are part of every graph and cannot be removed",
		)
	}
	g := e.graph
	log := g.log
	e.deleted = true

	e.broadcast(Change{Kind: EventDel})
	if n := e.observers.Len(); n > 0 {
		log.Warnw("observers still attached after del",
			logger.FieldEntity, e.id,
			logger.FieldCount, n)
	}
	e.observers.Clear()

	for _, r := range e.relations.Snapshot() {
		if err := r.endpointDeleted(e); err != nil && !errors.Is(err, errors.ErrAlreadyDeleted) {
			log.Warnw("incident relation failed to handle endpoint deletion",
				logger.FieldEntity, e.id,
				logger.FieldRelation, r.id,
				logger.FieldError, err)
		}
	}

	if e.rel != nil {
		for _, end := range e.endpoints() {
			if err := safely(func() error { end.notifyRelationDeletion(e); return nil }); err != nil {
				log.Warnw("endpoint failed to handle relation deletion",
					logger.FieldRelation, e.id,
					logger.FieldEntity, end.id,
					logger.FieldError, err)
			}
		}
	}

	if n := e.relations.Len(); n > 0 {
		log.Warnw("incident relations remain after deletion",
			logger.FieldEntity, e.id,
			logger.FieldCount, n)
	}
	e.relations.Clear()

	g.unregister(e)
	e.graph = nil
	log.Debugw("deleted", logger.FieldEntity, e.id)
	return nil
}

// endpoints returns the distinct live endpoints of a relation.
func (e *Entity) endpoints() []*Entity {
	if e.rel == nil {
		return nil
	}
	var out []*Entity
	if e.rel.from != nil {
		out = append(out, e.rel.from)
	}
	if e.rel.to != nil && e.rel.to != e.rel.from {
		out = append(out, e.rel.to)
	}
	return out
}

// endpointDeleted is how a relation learns that one of its endpoints is
// going away: it deletes itself.
func (e *Entity) endpointDeleted(endpoint *Entity) error {
	return safely(func() error {
		if e.deleted {
			return errors.Wrapf(errors.ErrAlreadyDeleted, "relation %s", e.id)
		}
		if e.system {
			// Only reachable if a system endpoint is removed, which Delete forbids.
			return errors.AssertionFailedf("system relation %s lost endpoint %s", e.id, endpoint.id)
		}
		return e.Delete()
	})
}

// addRelation attaches an incident relation.
func (e *Entity) addRelation(r *Entity) {
	weaklist.Append(&e.relations, r)
	e.broadcast(Change{Kind: EventAddRel, Relation: r})
	if r.IsIsa() && r.rel.from == e {
		e.invalidateSubtree()
	}
}

// notifyRelationDeletion detaches a deleted incident relation. If it was
// e's last supertype edge and e is live, e is re-rooted immediately.
func (e *Entity) notifyRelationDeletion(r *Entity) {
	g := e.graph
	if !e.relations.Remove(r) && g != nil {
		g.log.Warnw("relation was not registered on its endpoint",
			logger.FieldEntity, e.id,
			logger.FieldRelation, r.id,
			logger.FieldError, errors.ErrUnregistered)
	}
	e.broadcast(Change{Kind: EventDelRel, Relation: r})
	if !r.IsIsa() || r.rel.from != e || e.deleted || g == nil {
		return
	}
	e.invalidateSubtree()
	if e.needsRoot() && !g.loading {
		g.reroot(e)
	}
}

// needsRoot reports whether e is a live non-root entity without supertypes.
func (e *Entity) needsRoot() bool {
	return !e.deleted && !e.isRoot() && !e.IsIsa() && len(e.Parents()) == 0
}

// safely runs fn, turning a panic into an error.
func safely(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf("panic: %v", r)
		}
	}()
	return fn()
}
