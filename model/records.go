package model

import (
	"github.com/teranos/tygra/attrs"
	"github.com/teranos/tygra/ident"
)

// RecordKind tags a persisted entity.
type RecordKind string

const (
	RecordNode     RecordKind = "node"
	RecordRelation RecordKind = "relation"
	RecordIsa      RecordKind = "isa"
)

// Record is the storage form of one entity. From, To and Properties are
// only meaningful for relations; Attrs holds the local attribute
// definitions and is empty when the entity has none.
type Record struct {
	Kind       RecordKind
	ID         ident.ID
	From       ident.ID
	To         ident.ID
	Properties PropertySet
	Attrs      []attrs.Entry
}

// IsRelation reports whether the record describes a relation.
func (r Record) IsRelation() bool {
	return r.Kind == RecordRelation || r.Kind == RecordIsa
}

// Record returns the storage form of e.
func (e *Entity) Record() Record {
	rec := Record{Kind: RecordNode, ID: e.id, Attrs: e.attrs.Entries()}
	if e.rel != nil {
		rec.Kind = RecordRelation
		if e.rel.kind == RelIsa {
			rec.Kind = RecordIsa
		}
		if e.rel.from != nil {
			rec.From = e.rel.from.id
		}
		if e.rel.to != nil {
			rec.To = e.rel.to.id
		}
		rec.Properties = e.rel.props
	}
	if len(rec.Attrs) == 0 {
		rec.Attrs = nil
	}
	return rec
}

// Snapshot returns the records of every user entity, nodes first, then
// relations, each in id order. System entities are rebuilt by New and are
// never stored.
func (g *Graph) Snapshot() []Record {
	var out []Record
	for _, e := range g.Entities() {
		if e.system {
			continue
		}
		out = append(out, e.Record())
	}
	return out
}
