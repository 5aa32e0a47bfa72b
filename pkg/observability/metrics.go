// Package observability provides workflow observers that feed structured
// logs and prometheus metrics from tree lifecycle events.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/groundswell-ai/groundswell/pkg/domain"
)

// MetricsObserver exports tree activity as prometheus metrics. It
// implements workflow.Observer; register it on a root entity.
type MetricsObserver struct {
	events       *prometheus.CounterVec
	attaches     prometheus.Counter
	detaches     prometheus.Counter
	taskFailures prometheus.Counter
	treeNodes    prometheus.Gauge
}

// NewMetricsObserver creates the collectors and registers them with reg.
func NewMetricsObserver(reg prometheus.Registerer) (*MetricsObserver, error) {
	m := &MetricsObserver{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "groundswell_events_total",
			Help: "Total workflow events by type",
		}, []string{"type"}),
		attaches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "groundswell_attach_total",
			Help: "Total child attachments",
		}),
		detaches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "groundswell_detach_total",
			Help: "Total child detachments",
		}),
		taskFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "groundswell_task_failures_total",
			Help: "Total individual task failures",
		}),
		treeNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "groundswell_tree_nodes",
			Help: "Nodes currently reachable from the observed root",
		}),
	}
	for _, c := range []prometheus.Collector{m.events, m.attaches, m.detaches, m.taskFailures, m.treeNodes} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// OnEvent counts every event by type.
func (m *MetricsObserver) OnEvent(evt domain.Event) {
	m.events.WithLabelValues(string(evt.Type)).Inc()
	switch evt.Type {
	case domain.EventChildAttached:
		m.attaches.Inc()
	case domain.EventChildDetached:
		m.detaches.Inc()
	case domain.EventTaskFailed:
		m.taskFailures.Inc()
	}
}

// OnTreeChanged recounts the nodes reachable from the current root. The
// walk is breadth-first and costs O(n); structural changes are rare next to
// lifecycle events, so the recount stays cheap in practice.
func (m *MetricsObserver) OnTreeChanged(root *domain.NodeRecord) {
	if root == nil {
		m.treeNodes.Set(0)
		return
	}
	count := 0
	queue := []*domain.NodeRecord{root}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		count++
		queue = append(queue, node.Children()...)
	}
	m.treeNodes.Set(float64(count))
}
