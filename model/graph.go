package model

import (
	"maps"
	"slices"

	"go.uber.org/zap"

	"github.com/teranos/tygra/errors"
	"github.com/teranos/tygra/ident"
	"github.com/teranos/tygra/logger"
	"github.com/teranos/tygra/weaklist"
)

// DefaultReservedID is the first local id available to user entities.
// Everything below it belongs to the bootstrap.
const DefaultReservedID = 100

// DefaultScope is the id scope of a graph created without WithScope.
const DefaultScope = "0,1"

// Graph owns a set of entities and the system entities they descend from.
type Graph struct {
	ids        *ident.Server
	dir        *ident.Directory[*Entity]
	reservedID int
	log        *zap.SugaredLogger

	nodes     map[ident.ID]*Entity
	relations map[ident.ID]*Entity

	// System entities
	top, topRel *Entity
	reflexive   *Entity
	symmetric   *Entity
	transitive  *Entity
	isa         *Entity

	observers weaklist.List[GraphObserver]

	// loading suspends re-rooting until Load rescans every entity.
	loading bool
}

// Option configures a Graph.
type Option func(*Graph)

// WithLogger sets the diagnostic channel. The default is the global logger
// named "model".
func WithLogger(l *zap.SugaredLogger) Option {
	return func(g *Graph) { g.log = logger.OrNop(l) }
}

// WithReservedID changes the reserved id threshold. Values too small to
// hold the bootstrap are raised to fit it.
func WithReservedID(n int) Option {
	return func(g *Graph) { g.reservedID = n }
}

// WithScope sets the scope of the ids the graph allocates.
func WithScope(scope string) Option {
	return func(g *Graph) { g.ids = ident.NewServer(scope) }
}

// New returns a bootstrapped graph.
func New(opts ...Option) *Graph {
	g := &Graph{
		ids:        ident.NewServer(DefaultScope),
		dir:        ident.NewDirectory[*Entity](),
		reservedID: DefaultReservedID,
		nodes:      make(map[ident.ID]*Entity),
		relations:  make(map[ident.ID]*Entity),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.log == nil {
		g.log = logger.ComponentLogger("model")
	}
	g.reservedID = max(g.reservedID, bootstrapSize)
	g.bootstrap()
	return g
}

// Scope returns the scope of ids allocated by g.
func (g *Graph) Scope() string { return g.ids.Scope() }

// ReservedID returns the first local id available to user entities.
func (g *Graph) ReservedID() int { return g.reservedID }

// Logger returns the diagnostic channel.
func (g *Graph) Logger() *zap.SugaredLogger { return g.log }

// TopNode returns T, the root of all nodes.
func (g *Graph) TopNode() *Entity { return g.top }

// TopRelation returns REL, the root of all relations.
func (g *Graph) TopRelation() *Entity { return g.topRel }

// ReflexiveType returns the REFLEXIVE relation type.
func (g *Graph) ReflexiveType() *Entity { return g.reflexive }

// SymmetricType returns the SYMMETRIC relation type.
func (g *Graph) SymmetricType() *Entity { return g.symmetric }

// TransitiveType returns the TRANSITIVE relation type.
func (g *Graph) TransitiveType() *Entity { return g.transitive }

// IsaType returns ISA, the implicit type of Isa edges.
func (g *Graph) IsaType() *Entity { return g.isa }

// RootOf returns the universal root of e's kind.
func (g *Graph) RootOf(e *Entity) *Entity {
	if e.kind == KindRelation {
		return g.topRel
	}
	return g.top
}

// Lookup resolves an id to a live entity.
func (g *Graph) Lookup(id ident.ID) (*Entity, error) {
	e, err := g.dir.Resolve(id)
	if err != nil {
		return nil, errors.Wrap(errors.ErrNotFound, err.Error())
	}
	return e, nil
}

// Nodes returns the live nodes in id order.
func (g *Graph) Nodes() []*Entity {
	return sortedByID(g.nodes)
}

// Relations returns the live relations, Isa edges included, in id order.
func (g *Graph) Relations() []*Entity {
	return sortedByID(g.relations)
}

// Entities returns every live entity: nodes first, then relations.
func (g *Graph) Entities() []*Entity {
	return append(g.Nodes(), g.Relations()...)
}

// Len returns the number of live entities.
func (g *Graph) Len() int {
	return len(g.nodes) + len(g.relations)
}

// FindByLabel returns the live entities whose local label is label, in id
// order. Inherited labels do not match.
func (g *Graph) FindByLabel(label string) []*Entity {
	var out []*Entity
	for _, e := range g.Entities() {
		if d, ok := e.attrs.Local("label"); ok && d.Value == label {
			out = append(out, e)
		}
	}
	return out
}

func sortedByID(m map[ident.ID]*Entity) []*Entity {
	return slices.SortedFunc(maps.Values(m), func(a, b *Entity) int {
		return ident.Compare(a.id, b.id)
	})
}

// register adds e to the collections. Construction is the only caller.
func (g *Graph) register(e *Entity) error {
	if err := g.dir.Register(e.id, e); err != nil {
		return err
	}
	op := OpAddNode
	if e.kind == KindRelation {
		g.relations[e.id] = e
		op = OpAddRelation
	} else {
		g.nodes[e.id] = e
	}
	g.log.Debugw("registered",
		logger.FieldEntity, e.id,
		logger.FieldOperation, string(op))
	g.broadcast(e, op)
	return nil
}

// unregister drops e from the collections. Deletion is the only caller.
func (g *Graph) unregister(e *Entity) {
	g.dir.Unregister(e.id)
	coll, op := g.nodes, OpDelNode
	if e.kind == KindRelation {
		coll, op = g.relations, OpDelRelation
	}
	if _, ok := coll[e.id]; !ok {
		g.log.Warnw("attempt to remove unknown entity",
			logger.FieldEntity, e.id,
			logger.FieldError, errors.ErrUnregistered)
		return
	}
	delete(coll, e.id)
	g.broadcast(e, op)
}

// reroot attaches e to the root of its kind.
func (g *Graph) reroot(e *Entity) {
	root := g.RootOf(e)
	edge := newEntity(g, KindRelation, g.ids.Allocate())
	edge.rel.kind = RelIsa
	edge.rel.from, edge.rel.to = e, root
	if err := g.register(edge); err != nil {
		g.log.Errorw("re-rooting failed",
			logger.FieldEntity, e.id,
			logger.FieldError, err)
		return
	}
	g.link(edge)
	g.log.Infow("re-rooted entity without supertypes",
		logger.FieldEntity, e.id,
		logger.FieldParent, root.id)
}

// link attaches a registered relation to its endpoints.
func (g *Graph) link(r *Entity) {
	r.rel.from.addRelation(r)
	if r.rel.to != r.rel.from {
		r.rel.to.addRelation(r)
	}
}
