package model

import (
	"github.com/teranos/tygra/attrs"
)

// AttrParents returns the attribute stores e falls back to, one per
// immediate supertype in declaration order. The roots have none. A
// non-root entity left without supertypes falls back to the root of its
// kind.
func (e *Entity) AttrParents() []*attrs.Attributes {
	g := e.graph
	if g == nil || e.isRoot() {
		return nil
	}
	parents := e.Parents()
	if len(parents) == 0 {
		if root := g.RootOf(e); root != nil && root != e {
			return []*attrs.Attributes{root.attrs}
		}
		return nil
	}
	out := make([]*attrs.Attributes, len(parents))
	for i, p := range parents {
		out[i] = p.attrs
	}
	return out
}

// NotifyAttrChanged is called by e's own attribute store when a local
// value changes. The change is broadcast to e's observers and then to
// every subtype that sees it through inheritance.
func (e *Entity) NotifyAttrChanged(src *attrs.Attributes, name string, value any) {
	if e.deleted {
		return
	}
	e.propagateAttr(name, value, true, make(map[*Entity]bool))
}

// propagateAttr visits each entity of one propagation wave once. A subtype
// with its own local value of name is unaffected and stops the wave.
func (e *Entity) propagateAttr(name string, value any, origin bool, seen map[*Entity]bool) {
	if seen[e] {
		return
	}
	seen[e] = true
	if !origin {
		if _, local := e.attrs.Local(name); local {
			return
		}
		value = e.attrs.Ping(name)
	}
	e.broadcast(Change{Kind: EventModAttr, Name: name, Value: value})
	for _, c := range e.attrChildren() {
		c.propagateAttr(name, value, false, seen)
	}
}

// attrChildren returns the entities whose attribute parents include e.
func (e *Entity) attrChildren() []*Entity {
	children := e.Children()
	if g := e.graph; g != nil && e == g.isa {
		for _, r := range g.Relations() {
			if r.IsIsa() {
				children = append(children, r)
			}
		}
	}
	return children
}

// invalidateSubtree drops cached attribute resolutions of e and of every
// entity inheriting from it.
func (e *Entity) invalidateSubtree() {
	seen := make(map[*Entity]bool)
	var walk func(*Entity)
	walk = func(x *Entity) {
		if seen[x] {
			return
		}
		seen[x] = true
		x.attrs.InvalidateAll()
		for _, c := range x.attrChildren() {
			walk(c)
		}
	}
	walk(e)
}
