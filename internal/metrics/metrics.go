/**
 * Pipeline Metrics.
 *
 * Prometheus counters and gauges for the capture-to-response pipeline,
 * registered via promauto the same way
 * Generativebots-ocx-backend-go-svc/internal/escrow/metrics.go wires
 * its own domain metrics: one struct field per series, plain Record*
 * methods hiding the label plumbing from callers.
 *
 * Author: KleaSCM
 * Email: KleaSCM@gmail.com
 */

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every Prometheus series exported by Shadow Hunter.
type Metrics struct {
	PacketsProcessed prometheus.Counter
	PacketsDropped   *prometheus.CounterVec // reason: kernel, queue

	BusPublished prometheus.Counter
	BusDelivered prometheus.Counter
	BusDropped   prometheus.Counter

	AlertsTotal *prometheus.CounterVec // severity

	ProbesAttempted prometheus.Counter
	ProbesConfirmed prometheus.Counter
	ProbesSkipped   *prometheus.CounterVec // reason

	BlocksCreated *prometheus.CounterVec // auto, manual
	BlocksExpired prometheus.Counter
	BlocksActive  prometheus.Gauge

	GraphNodes     prometheus.Gauge
	GraphEdges     prometheus.Gauge
	BridgeAlerts   prometheus.Counter
	AnalysisRuns   prometheus.Counter

	DashboardClients prometheus.Gauge
}

// New constructs and registers every metric against the default
// Prometheus registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers every metric against reg instead of the
// default registry — tests use a fresh prometheus.NewRegistry() to
// avoid colliding across table-driven runs.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		PacketsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "shadowhunter_packets_processed_total",
			Help: "Total packets pulled off the wire by the capture engine.",
		}),
		PacketsDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "shadowhunter_packets_dropped_total",
			Help: "Packets dropped before reaching DPI.",
		}, []string{"reason"}),

		BusPublished: factory.NewCounter(prometheus.CounterOpts{
			Name: "shadowhunter_bus_published_total",
			Help: "Events published to the in-process event bus.",
		}),
		BusDelivered: factory.NewCounter(prometheus.CounterOpts{
			Name: "shadowhunter_bus_delivered_total",
			Help: "Events successfully delivered to a bus subscriber.",
		}),
		BusDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "shadowhunter_bus_dropped_total",
			Help: "Events dropped because a subscriber's buffer was full.",
		}),

		AlertsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "shadowhunter_alerts_total",
			Help: "Alerts emitted by the analysis pipeline, by severity.",
		}, []string{"severity"}),

		ProbesAttempted: factory.NewCounter(prometheus.CounterOpts{
			Name: "shadowhunter_probes_attempted_total",
			Help: "Active interrogations attempted.",
		}),
		ProbesConfirmed: factory.NewCounter(prometheus.CounterOpts{
			Name: "shadowhunter_probes_confirmed_total",
			Help: "Active interrogations that confirmed an AI service.",
		}),
		ProbesSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "shadowhunter_probes_skipped_total",
			Help: "Active interrogations skipped, by reason.",
		}, []string{"reason"}),

		BlocksCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "shadowhunter_blocks_created_total",
			Help: "IP quarantine actions taken, by trigger type.",
		}, []string{"trigger"}),
		BlocksExpired: factory.NewCounter(prometheus.CounterOpts{
			Name: "shadowhunter_blocks_expired_total",
			Help: "IP quarantine entries removed by TTL expiry.",
		}),
		BlocksActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "shadowhunter_blocks_active",
			Help: "Currently quarantined IP count.",
		}),

		GraphNodes: factory.NewGauge(prometheus.GaugeOpts{
			Name: "shadowhunter_graph_nodes",
			Help: "Current node count in the relationship graph.",
		}),
		GraphEdges: factory.NewGauge(prometheus.GaugeOpts{
			Name: "shadowhunter_graph_edges",
			Help: "Current edge count in the relationship graph.",
		}),
		BridgeAlerts: factory.NewCounter(prometheus.CounterOpts{
			Name: "shadowhunter_bridge_alerts_total",
			Help: "Suspicious bridge nodes flagged by centrality analysis.",
		}),
		AnalysisRuns: factory.NewCounter(prometheus.CounterOpts{
			Name: "shadowhunter_graph_analysis_runs_total",
			Help: "Periodic centrality analysis passes completed.",
		}),

		DashboardClients: factory.NewGauge(prometheus.GaugeOpts{
			Name: "shadowhunter_dashboard_clients",
			Help: "Currently connected dashboard WebSocket clients.",
		}),
	}
}

// RecordAlert increments the alert counter for severity.
func (m *Metrics) RecordAlert(severity string) {
	m.AlertsTotal.WithLabelValues(severity).Inc()
}

// RecordBlock increments the block-created counter for trigger
// ("auto" or "manual").
func (m *Metrics) RecordBlock(trigger string) {
	m.BlocksCreated.WithLabelValues(trigger).Inc()
}

// RecordProbeSkipped increments the probe-skipped counter for reason.
func (m *Metrics) RecordProbeSkipped(reason string) {
	m.ProbesSkipped.WithLabelValues(reason).Inc()
}

// RecordPacketDropped increments the packet-dropped counter for
// reason ("kernel" or "queue").
func (m *Metrics) RecordPacketDropped(reason string) {
	m.PacketsDropped.WithLabelValues(reason).Inc()
}
