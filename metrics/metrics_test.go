package metrics

import (
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/tygra/model"
)

func TestCollectorCountsGraphChanges(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	g := model.New()
	require.NoError(t, c.Attach(g))

	// Bootstrap: T is a node; REL, the three property types and ISA are
	// relations; their five Isa edges.
	assert.Equal(t, 1.0, testutil.ToFloat64(c.live.WithLabelValues(KindNode)))
	assert.Equal(t, 5.0, testutil.ToFloat64(c.live.WithLabelValues(KindRelation)))
	assert.Equal(t, 5.0, testutil.ToFloat64(c.live.WithLabelValues(KindIsa)))

	n, err := g.NewNode(g.TopNode())
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.registered.WithLabelValues(KindNode)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.registered.WithLabelValues(KindIsa)))

	require.NoError(t, n.Delete())
	assert.Equal(t, 1.0, testutil.ToFloat64(c.unregistered.WithLabelValues(KindNode)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.unregistered.WithLabelValues(KindIsa)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.live.WithLabelValues(KindNode)))

	c.Detach(g)
	assert.Zero(t, testutil.ToFloat64(c.live.WithLabelValues(KindNode)))
	_, err = g.NewNode(g.TopNode())
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.registered.WithLabelValues(KindNode)), "detached graphs are not counted")
	runtime.KeepAlive(c)
}

func TestCollectorCountsUnknownOps(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())
	g := model.New()

	require.NoError(t, c.OnGraphChanged(g, g.TopNode(), model.GraphOp("rename node")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.unclassified))
	assert.Zero(t, testutil.ToFloat64(c.live.WithLabelValues(KindNode)))
}

func TestCollectorLoadAndValidation(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.ObserveLoad(&model.LoadReport{}, 3*time.Millisecond)
	c.ObserveLoad(&model.LoadReport{
		Failures: []model.LoadFailure{{}, {}},
		Rerooted: nil,
	}, time.Millisecond)
	c.ObserveValidation(4)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.loads.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.loads.WithLabelValues("repaired")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.loadFailures))
	assert.Equal(t, 4.0, testutil.ToFloat64(c.validationErr))

	expected := `
# HELP tygra_invariant_violations Violations found by the most recent validation
# TYPE tygra_invariant_violations gauge
tygra_invariant_violations 4
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "tygra_invariant_violations"))
	count, err := testutil.GatherAndCount(reg, "tygra_load_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNewCollectorRegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewCollector(reg)
	assert.Panics(t, func() { NewCollector(reg) }, "metric names are unique per registry")
}
