package model

import (
	"slices"

	"github.com/teranos/tygra/ident"
)

// IsRelatedTo reports whether target is reachable from e through
// relations that isa relType, under the relation properties of each
// relation used:
//
//	every matching relation e -> x relates e to x
//	Symmetric also relates the to endpoint back to the from endpoint
//	Reflexive relates an endpoint to itself
//	Transitive lets the search continue from the entity it reached
//
// The search never expands an entity twice, so it terminates on cyclic
// relation graphs.
func (e *Entity) IsRelatedTo(relType, target *Entity) bool {
	if target == nil {
		return false
	}
	found := false
	e.closure(relType, func(x *Entity) bool {
		if x == target {
			found = true
			return false
		}
		return true
	})
	return found
}

// RelatedTo returns every entity IsRelatedTo would accept, each once, in
// id order.
func (e *Entity) RelatedTo(relType *Entity) []*Entity {
	var out []*Entity
	e.closure(relType, func(x *Entity) bool {
		out = append(out, x)
		return true
	})
	slices.SortFunc(out, func(a, b *Entity) int { return ident.Compare(a.id, b.id) })
	return out
}

// closure reports each related entity once to yield until it returns false.
func (e *Entity) closure(relType *Entity, yield func(*Entity) bool) {
	if relType == nil || relType.kind != KindRelation || e.deleted {
		return
	}
	reached := make(map[*Entity]bool)
	expanded := map[*Entity]bool{e: true}
	queue := []*Entity{e}

	reach := func(x *Entity, expand bool) bool {
		if !reached[x] {
			reached[x] = true
			if !yield(x) {
				return false
			}
		}
		if expand && !expanded[x] {
			expanded[x] = true
			queue = append(queue, x)
		}
		return true
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, r := range cur.relations.Snapshot() {
			if r.deleted || !r.Isa(relType) {
				continue
			}
			props := r.EffectiveProperties()
			expand := props.Has(Transitive)
			if r.rel.from == cur {
				if !reach(r.rel.to, expand) {
					return
				}
			}
			if r.rel.to == cur && props.Has(Symmetric) {
				if !reach(r.rel.from, expand) {
					return
				}
			}
			if props.Has(Reflexive) {
				if !reach(cur, false) {
					return
				}
			}
		}
	}
}
