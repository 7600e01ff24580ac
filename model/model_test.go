package model

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestGraph(t *testing.T, opts ...Option) (*Graph, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	g := New(append([]Option{WithLogger(zap.New(core).Sugar())}, opts...)...)
	return g, logs
}

// newType creates a node or relation type under parent.
func newType(t *testing.T, g *Graph, label string, parents ...*Entity) *Entity {
	t.Helper()
	var e *Entity
	var err error
	if len(parents) > 0 && parents[0].IsRelation() {
		e, err = g.NewRelation(g.TopNode(), g.TopNode(), parents...)
	} else {
		e, err = g.NewNode(parents...)
	}
	require.NoError(t, err)
	require.NoError(t, e.SetAttr("label", label))
	require.NoError(t, e.SetAttr("type", true))
	return e
}

func newIndividual(t *testing.T, g *Graph, label string, parents ...*Entity) *Entity {
	t.Helper()
	e, err := g.NewNode(parents...)
	require.NoError(t, err)
	require.NoError(t, e.SetAttr("label", label))
	return e
}

// recorder is an Observer that keeps every change it sees.
type recorder struct {
	changes []Change
	onDel   func(e *Entity)
	detach  bool
}

func (r *recorder) OnModelChanged(e *Entity, c Change) error {
	r.changes = append(r.changes, c)
	if c.Kind == EventDel {
		if r.onDel != nil {
			r.onDel(e)
		}
		if r.detach {
			e.RemoveObserver(r)
		}
	}
	return nil
}

func (r *recorder) kinds() []EventKind {
	var out []EventKind
	for _, c := range r.changes {
		out = append(out, c.Kind)
	}
	return out
}

func (r *recorder) attrChanges(name string) []any {
	var out []any
	for _, c := range r.changes {
		if c.Kind == EventModAttr && c.Name == name {
			out = append(out, c.Value)
		}
	}
	return out
}

// assertNoDangling checks that no live entity references a deleted one.
func assertNoDangling(t *testing.T, g *Graph) {
	t.Helper()
	for _, e := range g.Entities() {
		require.False(t, e.Deleted(), "%s is registered but deleted", e)
		for _, r := range e.Relations() {
			require.False(t, r.Deleted(), "%s still lists deleted relation %s", e, r)
		}
		if e.IsRelation() {
			require.False(t, e.From().Deleted(), "%s has deleted from endpoint", e)
			require.False(t, e.To().Deleted(), "%s has deleted to endpoint", e)
		}
	}
}
