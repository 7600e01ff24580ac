package model

// Parents returns the immediate supertypes in declaration order. An Isa
// edge has the single implicit parent ISA.
func (e *Entity) Parents() []*Entity {
	if e.IsIsa() {
		if g := e.graph; g != nil && g.isa != nil {
			return []*Entity{g.isa}
		}
		return nil
	}
	var out []*Entity
	for r := range e.relations.All() {
		if r.IsIsa() && r.rel.from == e && !r.deleted {
			out = append(out, r.rel.to)
		}
	}
	return out
}

// Children returns the entities that declare e as an immediate supertype.
func (e *Entity) Children() []*Entity {
	var out []*Entity
	for r := range e.relations.All() {
		if r.IsIsa() && r.rel.to == e && !r.deleted {
			out = append(out, r.rel.from)
		}
	}
	return out
}

// Ancestors returns e and every transitive supertype, each once, in
// depth-first declaration order.
func (e *Entity) Ancestors() []*Entity {
	var out []*Entity
	e.walkAncestors(func(a *Entity) bool {
		out = append(out, a)
		return true
	})
	return out
}

// walkAncestors visits e and its supertypes until visit returns false.
// The visited set makes it safe on any DAG.
func (e *Entity) walkAncestors(visit func(*Entity) bool) {
	seen := make(map[*Entity]bool)
	var walk func(*Entity) bool
	walk = func(x *Entity) bool {
		if seen[x] {
			return true
		}
		seen[x] = true
		if !visit(x) {
			return false
		}
		for _, p := range x.Parents() {
			if !walk(p) {
				return false
			}
		}
		return true
	}
	walk(e)
}

// compatible reports whether an entity of e's kind can be a subtype of
// target at all: kinds must agree, and only Isa edges subsume under an Isa
// edge.
func compatible(e, target *Entity) bool {
	if e.kind != target.kind {
		return false
	}
	return !target.IsIsa() || e.IsIsa()
}

// Isa reports whether target is e or one of its transitive supertypes.
func (e *Entity) Isa(target *Entity) bool {
	if target == nil {
		return false
	}
	if target == e {
		return true
	}
	if !compatible(e, target) {
		return false
	}
	found := false
	e.walkAncestors(func(a *Entity) bool {
		if a == target {
			found = true
			return false
		}
		return true
	})
	return found
}

// IsaAll reports whether e isa every target.
func (e *Entity) IsaAll(targets ...*Entity) bool {
	for _, t := range targets {
		if !e.Isa(t) {
			return false
		}
	}
	return true
}

// IsParent reports whether target is an immediate supertype of e. Unlike
// Isa it is not reflexive.
func (e *Entity) IsParent(target *Entity) bool {
	if target == nil {
		return false
	}
	if !compatible(e, target) {
		return false
	}
	for _, p := range e.Parents() {
		if p == target {
			return true
		}
	}
	return false
}

// IsParentAll reports whether e isparent every target.
func (e *Entity) IsParentAll(targets ...*Entity) bool {
	for _, t := range targets {
		if !e.IsParent(t) {
			return false
		}
	}
	return true
}

// EffectiveProperties returns the union of the relation properties
// declared on e and on all its ancestors.
func (e *Entity) EffectiveProperties() PropertySet {
	var p PropertySet
	e.walkAncestors(func(a *Entity) bool {
		p |= a.Properties()
		return true
	})
	return p
}
