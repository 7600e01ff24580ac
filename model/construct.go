package model

import (
	"github.com/teranos/tygra/errors"
	"github.com/teranos/tygra/logger"
)

// rooted reports whether T and REL exist, after which every new entity
// needs a supertype.
func (g *Graph) rooted() bool {
	return g.top != nil && g.topRel != nil
}

// checkMember rejects nil, deleted and foreign entities.
func (g *Graph) checkMember(role string, e *Entity) error {
	switch {
	case e == nil:
		return errors.Wrapf(errors.ErrInvalidRequest, "%s is nil", role)
	case e.deleted:
		return errors.Wrapf(errors.ErrAlreadyDeleted, "%s %s", role, e.id)
	case e.graph != g:
		return errors.Wrapf(errors.ErrInvalidRequest, "%s %s belongs to another graph", role, e.id)
	}
	return nil
}

// checkSupertypes validates proposed supertypes for an entity of kind k.
// It returns them with duplicates removed.
func (g *Graph) checkSupertypes(k Kind, supertypes []*Entity) ([]*Entity, error) {
	if len(supertypes) == 0 && g.rooted() {
		return nil, errors.WithHint(
			errors.Wrapf(errors.ErrMissingSupertype, "new %s", k),
			"pass the root of the kind if nothing more specific applies",
		)
	}
	seen := make(map[*Entity]bool, len(supertypes))
	out := make([]*Entity, 0, len(supertypes))
	for _, s := range supertypes {
		if err := g.checkMember("supertype", s); err != nil {
			return nil, err
		}
		if s.kind != k {
			return nil, errors.Wrapf(errors.ErrTypeMismatch,
				"supertype %s is a %s, which does not match the %s being created", s, s.kind, k)
		}
		if s.IsIsa() {
			return nil, errors.Wrapf(errors.ErrTypeMismatch, "supertype %s is an isa edge", s)
		}
		if !s.IsType() {
			return nil, errors.WithHint(
				errors.Wrapf(errors.ErrNotAType, "supertype %s", s),
				"nothing can inherit from an individual; set type=true on the parent first",
			)
		}
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out, nil
}

// checkEndpoints enforces that the endpoints of a plain relation have the
// kinds of the corresponding endpoints of each user-defined supertype.
// System relation types accept endpoints of either kind.
func checkEndpoints(from, to *Entity, supertypes []*Entity) error {
	for _, s := range supertypes {
		if s.system || s.rel == nil || s.rel.from == nil || s.rel.to == nil {
			continue
		}
		if from.kind != s.rel.from.kind {
			return errors.Wrapf(errors.ErrTypeMismatch,
				"from endpoint %s is a %s but %s relates a %s", from, from.kind, s, s.rel.from.kind)
		}
		if to.kind != s.rel.to.kind {
			return errors.Wrapf(errors.ErrTypeMismatch,
				"to endpoint %s is a %s but %s relates a %s", to, to.kind, s, s.rel.to.kind)
		}
	}
	return nil
}

// NewNode creates a node that isa every supertype. Supertypes must be
// node types of this graph. Nothing is created if validation fails.
func (g *Graph) NewNode(supertypes ...*Entity) (*Entity, error) {
	types, err := g.checkSupertypes(KindNode, supertypes)
	if err != nil {
		return nil, err
	}
	e := newEntity(g, KindNode, g.ids.Allocate())
	if err := g.register(e); err != nil {
		return nil, err
	}
	for _, t := range types {
		g.addIsa(e, t)
	}
	return e, nil
}

// NewRelation creates a plain relation from -> to that isa every
// supertype. Endpoints may be nodes or relations; see checkEndpoints for
// the kind rule.
func (g *Graph) NewRelation(from, to *Entity, supertypes ...*Entity) (*Entity, error) {
	if err := g.checkMember("from endpoint", from); err != nil {
		return nil, err
	}
	if err := g.checkMember("to endpoint", to); err != nil {
		return nil, err
	}
	types, err := g.checkSupertypes(KindRelation, supertypes)
	if err != nil {
		return nil, err
	}
	if err := checkEndpoints(from, to, types); err != nil {
		return nil, err
	}
	r := newEntity(g, KindRelation, g.ids.Allocate())
	r.rel.from, r.rel.to = from, to
	if err := g.register(r); err != nil {
		return nil, err
	}
	g.link(r)
	for _, t := range types {
		g.addIsa(r, t)
	}
	return r, nil
}

// NewIsa declares to as a supertype of from. Both must be of the same kind,
// to must be a type, and the edge may not close a cycle. An existing edge
// between the two is returned as is.
func (g *Graph) NewIsa(from, to *Entity) (*Entity, error) {
	if err := g.checkIsa(from, to); err != nil {
		return nil, err
	}
	for r := range from.relations.All() {
		if r.IsIsa() && r.rel.from == from && r.rel.to == to && !r.deleted {
			return r, nil
		}
	}
	return g.addIsa(from, to), nil
}

func (g *Graph) checkIsa(from, to *Entity) error {
	if err := g.checkMember("subtype", from); err != nil {
		return err
	}
	if err := g.checkMember("supertype", to); err != nil {
		return err
	}
	if from.kind != to.kind {
		return errors.Wrapf(errors.ErrTypeMismatch, "isa edge from %s %s to %s %s", from.kind, from, to.kind, to)
	}
	if from.IsIsa() || to.IsIsa() {
		return errors.Wrapf(errors.ErrTypeMismatch, "isa edges cannot be subtypes or supertypes: %s -> %s", from, to)
	}
	if from.system {
		return errors.Wrapf(errors.ErrSystemEntity, "add supertype to %s", from)
	}
	if !to.IsType() {
		return errors.Wrapf(errors.ErrNotAType, "supertype %s", to)
	}
	if to.Isa(from) {
		return errors.Wrapf(errors.ErrIsaCycle, "%s already isa %s", to, from)
	}
	return nil
}

// addIsa creates and links an Isa edge without validation.
func (g *Graph) addIsa(from, to *Entity) *Entity {
	r := newEntity(g, KindRelation, g.ids.Allocate())
	r.rel.kind = RelIsa
	r.rel.from, r.rel.to = from, to
	if err := g.register(r); err != nil {
		g.log.Errorw("isa edge registration failed",
			logger.FieldFrom, from.id,
			logger.FieldTo, to.id,
			logger.FieldError, err)
		return r
	}
	g.link(r)
	return r
}

// MakeRelation returns a plain relation from -> to that already isa every
// supertype, creating one if there is none.
func (g *Graph) MakeRelation(from, to *Entity, supertypes ...*Entity) (*Entity, error) {
	if err := g.checkMember("from endpoint", from); err != nil {
		return nil, err
	}
	for r := range from.relations.All() {
		if r.deleted || r.IsIsa() || r.rel.from != from || r.rel.to != to {
			continue
		}
		if len(supertypes) == 0 || r.IsaAll(supertypes...) {
			return r, nil
		}
	}
	return g.NewRelation(from, to, supertypes...)
}

// AddSupertype declares parent as an additional supertype of e.
func (e *Entity) AddSupertype(parent *Entity) (*Entity, error) {
	if e.deleted {
		return nil, errors.Wrapf(errors.ErrAlreadyDeleted, "add supertype to %s", e.id)
	}
	return e.graph.NewIsa(e, parent)
}

// RemoveSupertype deletes the Isa edge e -> parent. Removing the last one
// re-roots e.
func (e *Entity) RemoveSupertype(parent *Entity) error {
	if e.deleted {
		return errors.Wrapf(errors.ErrAlreadyDeleted, "remove supertype from %s", e.id)
	}
	for r := range e.relations.All() {
		if r.IsIsa() && r.rel.from == e && r.rel.to == parent {
			return r.Delete()
		}
	}
	return errors.Wrapf(errors.ErrNotFound, "%s is not a parent of %s", parent, e)
}

// SetProperties replaces the declared relation properties of a plain
// relation. Observers see it as a change of "relationProperties".
func (e *Entity) SetProperties(p PropertySet) error {
	switch {
	case e.deleted:
		return errors.Wrapf(errors.ErrAlreadyDeleted, "set properties on %s", e.id)
	case e.rel == nil || e.IsIsa():
		return errors.Wrapf(errors.ErrTypeMismatch, "%s cannot carry relation properties", e)
	case e.system:
		return errors.Wrapf(errors.ErrSystemEntity, "set properties on %s", e)
	}
	if e.rel.props == p {
		return nil
	}
	e.rel.props = p
	e.broadcast(Change{Kind: EventModAttr, Name: PropertiesAttr, Value: p.Names()})
	return nil
}

// PropertiesAttr is the change name reported when relation properties change.
const PropertiesAttr = "relationProperties"
