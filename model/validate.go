package model

import (
	"github.com/teranos/tygra/errors"
	"github.com/teranos/tygra/logger"
)

// Validate checks e against the graph invariants and logs one diagnostic
// per violation. It returns the number of violations and never changes
// anything.
//
// Checked: every non-root entity other than an Isa edge has a supertype;
// every supertype is a type of e's kind; an Isa edge joins entities of one
// kind; a plain relation's endpoints have the kinds its user-defined
// supertypes relate.
func (e *Entity) Validate() int {
	g := e.graph
	if g == nil {
		return 0
	}
	violations := 0
	report := func(cause string, kv ...any) {
		violations++
		g.log.Errorw(cause, append([]any{
			logger.FieldEntity, e.String(),
			logger.FieldError, errors.ErrInvariantViolation,
		}, kv...)...)
	}

	if !e.isRoot() && !e.IsIsa() && len(e.Parents()) == 0 {
		report("no ISA parent")
	}
	if e.IsIsa() {
		from, to := e.rel.from, e.rel.to
		if from == nil || to == nil {
			report("isa edge with a missing endpoint")
		} else if from.kind != to.kind {
			report("isa edge joins different kinds",
				logger.FieldFrom, from.kind.String(),
				logger.FieldTo, to.kind.String())
		}
		return violations
	}

	parents := e.Parents()
	for _, p := range parents {
		if !p.IsType() {
			report("parent is not a type; nothing can inherit from an individual",
				logger.FieldParent, p.String())
		}
		if p.kind != e.kind {
			report("parent is of a different kind",
				logger.FieldParent, p.String())
		}
	}
	if e.rel != nil && e.rel.from != nil && e.rel.to != nil {
		if err := checkEndpoints(e.rel.from, e.rel.to, parents); err != nil {
			report("endpoint kinds do not match supertype: " + err.Error())
		}
	}
	return violations
}

// Validate checks every entity and returns the total number of violations.
func (g *Graph) Validate() int {
	total := 0
	for _, e := range g.Entities() {
		total += e.Validate()
	}
	if total > 0 {
		g.log.Warnw("graph has invariant violations", logger.FieldCount, total)
	} else {
		g.log.Debugw("graph is valid", logger.FieldTotalCount, g.Len())
	}
	return total
}
