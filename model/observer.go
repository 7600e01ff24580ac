package model

import (
	"fmt"

	"github.com/teranos/tygra/errors"
	"github.com/teranos/tygra/logger"
	"github.com/teranos/tygra/weaklist"
)

// EventKind names a change to a single entity.
type EventKind string

const (
	EventModAttr EventKind = "mod attr"
	EventAddRel  EventKind = "add rel"
	EventDelRel  EventKind = "del rel"
	EventDel     EventKind = "del"
)

// Change describes one event. Name and Value are set for EventModAttr;
// Relation is set for EventAddRel and EventDelRel.
type Change struct {
	Kind     EventKind
	Name     string
	Value    any
	Relation *Entity
}

// Observer receives the changes of the entities it observes. Delivery is
// synchronous and in registration order. A returned error is logged.
type Observer interface {
	OnModelChanged(e *Entity, c Change) error
}

// deletable observers are purged when they fail after being deleted.
type deletable interface {
	Deleted() bool
}

// Observe registers o with e. The registration does not keep o alive: once
// the caller drops it, it stops receiving changes.
func Observe[O any, PO interface {
	*O
	Observer
}](e *Entity, o PO) error {
	if o == nil {
		return errors.Wrap(errors.ErrInvalidRequest, "nil observer")
	}
	if e.deleted {
		return errors.Wrapf(errors.ErrAlreadyDeleted, "observe %s", e.id)
	}
	weaklist.AppendAs(&e.observers, (*O)(o), func(p *O) Observer { return PO(p) })
	return nil
}

// RemoveObserver detaches o from e. Removing an observer that is not
// registered is logged and reported as false.
func (e *Entity) RemoveObserver(o Observer) bool {
	if e.observers.Remove(o) {
		return true
	}
	if g := e.graph; g != nil {
		g.log.Warnw("called with an unregistered observer",
			logger.FieldEntity, e.id,
			logger.FieldObserver, fmt.Sprintf("%T", o),
			logger.FieldError, errors.ErrUnregistered)
	}
	return false
}

// broadcast delivers c to a snapshot of the observers.
func (e *Entity) broadcast(c Change) {
	for _, o := range e.observers.Snapshot() {
		err := safely(func() error { return o.OnModelChanged(e, c) })
		if err == nil {
			continue
		}
		if g := e.graph; g != nil {
			g.log.Warnw("observer failed",
				logger.FieldEntity, e.id,
				logger.FieldEvent, string(c.Kind),
				logger.FieldObserver, fmt.Sprintf("%T", o),
				logger.FieldError, err)
		}
		if d, ok := o.(deletable); ok && d.Deleted() {
			e.observers.Remove(o)
		}
	}
}

// GraphOp names a change to the membership of a graph.
type GraphOp string

const (
	OpAddNode     GraphOp = "add node"
	OpAddRelation GraphOp = "add rel"
	OpDelNode     GraphOp = "del node"
	OpDelRelation GraphOp = "del rel"
)

// GraphObserver is told whenever an entity joins or leaves a graph.
type GraphObserver interface {
	OnGraphChanged(g *Graph, e *Entity, op GraphOp) error
}

// ObserveGraph registers o with g. Like Observe, it holds o weakly.
func ObserveGraph[O any, PO interface {
	*O
	GraphObserver
}](g *Graph, o PO) error {
	if o == nil {
		return errors.Wrap(errors.ErrInvalidRequest, "nil graph observer")
	}
	weaklist.AppendAs(&g.observers, (*O)(o), func(p *O) GraphObserver { return PO(p) })
	return nil
}

// RemoveGraphObserver detaches o from g.
func (g *Graph) RemoveGraphObserver(o GraphObserver) bool {
	return g.observers.Remove(o)
}

func (g *Graph) broadcast(e *Entity, op GraphOp) {
	for _, o := range g.observers.Snapshot() {
		if err := safely(func() error { return o.OnGraphChanged(g, e, op) }); err != nil {
			g.log.Warnw("graph observer failed",
				logger.FieldEntity, e.id,
				logger.FieldOperation, string(op),
				logger.FieldError, err)
		}
	}
}
