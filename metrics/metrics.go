// Package metrics exports graph activity as Prometheus metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/teranos/tygra/model"
)

// Entity kinds as reported in the "kind" label.
const (
	KindNode     = "node"
	KindRelation = "relation"
	KindIsa      = "isa"
)

// Collector counts entities joining and leaving the graphs it observes.
// Graphs hold their observers weakly, so the owner of a Collector keeps it
// referenced for as long as it should count.
type Collector struct {
	registered   *prometheus.CounterVec
	unregistered *prometheus.CounterVec
	live         *prometheus.GaugeVec
	unclassified prometheus.Counter

	loads         *prometheus.CounterVec
	loadFailures  prometheus.Counter
	loadRerooted  prometheus.Counter
	loadDuration  prometheus.Histogram
	validationErr prometheus.Gauge
}

// NewCollector registers the tygra metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	f := promauto.With(reg)
	return &Collector{
		registered: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tygra_entities_registered_total",
			Help: "Entities added to a graph, by kind",
		}, []string{"kind"}),
		unregistered: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tygra_entities_unregistered_total",
			Help: "Entities removed from a graph, by kind",
		}, []string{"kind"}),
		live: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tygra_entities_live",
			Help: "Entities currently registered in observed graphs, by kind",
		}, []string{"kind"}),
		unclassified: f.NewCounter(prometheus.CounterOpts{
			Name: "tygra_graph_events_unclassified_total",
			Help: "Graph events with an unknown operation",
		}),
		loads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tygra_loads_total",
			Help: "Graph loads by result",
		}, []string{"result"}), // "ok" or "repaired"
		loadFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "tygra_load_failed_records_total",
			Help: "Records that could not be restored on load",
		}),
		loadRerooted: f.NewCounter(prometheus.CounterOpts{
			Name: "tygra_load_rerooted_total",
			Help: "Entities attached to their root on load",
		}),
		loadDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "tygra_load_duration_seconds",
			Help:    "Graph load duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14), // 0.1ms to ~1.6s
		}),
		validationErr: f.NewGauge(prometheus.GaugeOpts{
			Name: "tygra_invariant_violations",
			Help: "Violations found by the most recent validation",
		}),
	}
}

// Attach starts counting g. The entities already in g are added to the
// live gauges.
func (c *Collector) Attach(g *model.Graph) error {
	for _, e := range g.Entities() {
		c.live.WithLabelValues(kindOf(e)).Inc()
	}
	return model.ObserveGraph(g, c)
}

// Detach stops counting g and removes its entities from the live gauges.
func (c *Collector) Detach(g *model.Graph) {
	if !g.RemoveGraphObserver(c) {
		return
	}
	for _, e := range g.Entities() {
		c.live.WithLabelValues(kindOf(e)).Dec()
	}
}

// OnGraphChanged implements model.GraphObserver.
func (c *Collector) OnGraphChanged(_ *model.Graph, e *model.Entity, op model.GraphOp) error {
	kind := kindOf(e)
	switch op {
	case model.OpAddNode, model.OpAddRelation:
		c.registered.WithLabelValues(kind).Inc()
		c.live.WithLabelValues(kind).Inc()
	case model.OpDelNode, model.OpDelRelation:
		c.unregistered.WithLabelValues(kind).Inc()
		c.live.WithLabelValues(kind).Dec()
	default:
		c.unclassified.Inc()
	}
	return nil
}

// ObserveLoad records the outcome of a load that took d.
func (c *Collector) ObserveLoad(report *model.LoadReport, d time.Duration) {
	c.loadDuration.Observe(d.Seconds())
	c.loadFailures.Add(float64(len(report.Failures)))
	c.loadRerooted.Add(float64(len(report.Rerooted)))
	if report.OK() {
		c.loads.WithLabelValues("ok").Inc()
	} else {
		c.loads.WithLabelValues("repaired").Inc()
	}
}

// ObserveValidation records the violation count of a validation run.
func (c *Collector) ObserveValidation(violations int) {
	c.validationErr.Set(float64(violations))
}

func kindOf(e *model.Entity) string {
	switch {
	case e.IsIsa():
		return KindIsa
	case e.IsRelation():
		return KindRelation
	default:
		return KindNode
	}
}
