// Package model implements the typed semantic graph.
//
// A Graph holds entities. Every entity is either a node or a relation, and
// relations may relate other relations. Subsumption is expressed by Isa
// edges, a distinguished relation kind: an entity's supertypes are the
// targets of its outgoing Isa edges. Multiple inheritance is allowed; the
// Isa sub-graph is kept acyclic and every user entity keeps at least one
// path to the universal root of its kind.
//
// A fresh graph is bootstrapped with six system entities:
//
//	T           the root of all nodes
//	REL         the root of all relations (T -> T)
//	REFLEXIVE   a relation type declaring the reflexive property
//	SYMMETRIC   a relation type declaring the symmetric property
//	TRANSITIVE  a relation type declaring the transitive property
//	ISA         the implicit type of every Isa edge (transitive, reflexive)
//
// Attributes are inherited along Isa edges. Changes are broadcast
// synchronously to weakly held observers: "mod attr" when an attribute
// visible on the entity changes, "add rel" and "del rel" when an incident
// relation comes or goes, and "del" when the entity itself is deleted.
//
// Graphs loaded from storage are rebuilt in two passes. Entities are
// constructed first with their relation endpoints left as ids, then a
// fix-up pass resolves the ids, Isa edges first, and deletes any relation
// that cannot be resolved or validated.
//
// A Graph is not safe for concurrent use.
package model
