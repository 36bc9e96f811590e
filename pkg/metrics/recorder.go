// Package metrics provides Prometheus recording and querying for the
// assistant's turn pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"concierge/pkg/proto"
)

// Recorder exposes the turn pipeline's counters and histograms.
type Recorder struct {
	turnsTotal     *prometheus.CounterVec
	turnDuration   *prometheus.HistogramVec
	nodeDuration   *prometheus.HistogramVec
	toolsTotal     *prometheus.CounterVec
	confirmations  *prometheus.CounterVec
	retrievalTotal *prometheus.CounterVec
}

// NewRecorder registers the assistant metrics on the default registry.
// Call it once per process.
func NewRecorder() *Recorder {
	return &Recorder{
		turnsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assistant_turns_total",
				Help: "Completed turns by final intent and degradation status",
			},
			[]string{"intent", "status"},
		),
		turnDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "assistant_turn_duration_seconds",
				Help:    "End-to-end turn latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"intent"},
		),
		nodeDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "assistant_node_duration_seconds",
				Help:    "Per-node latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"node"},
		),
		toolsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assistant_tool_executions_total",
				Help: "Tool executions by tool name and outcome",
			},
			[]string{"tool", "status"},
		),
		confirmations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assistant_confirmations_total",
				Help: "Confirmation outcomes by resolution",
			},
			[]string{"resolution"},
		),
		retrievalTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assistant_retrievals_total",
				Help: "Knowledge retrievals by outcome",
			},
			[]string{"status"},
		),
	}
}

// ObserveNode records one node's latency.
func (r *Recorder) ObserveNode(node proto.NodeName, d time.Duration) {
	r.nodeDuration.WithLabelValues(string(node)).Observe(d.Seconds())
}

// ObserveTurn records a completed turn. A turn that accumulated errors is
// labelled degraded even though it still produced a reply.
func (r *Recorder) ObserveTurn(in proto.Intent, d time.Duration, errs int) {
	status := "ok"
	if errs > 0 {
		status = "degraded"
	}
	r.turnsTotal.WithLabelValues(string(in), status).Inc()
	r.turnDuration.WithLabelValues(string(in)).Observe(d.Seconds())
}

// ObserveTool records one tool execution outcome.
func (r *Recorder) ObserveTool(tool string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	r.toolsTotal.WithLabelValues(tool, status).Inc()
}

// ObserveConfirmation records how a confirmation round resolved.
func (r *Recorder) ObserveConfirmation(resolution proto.ConfirmationStatus) {
	r.confirmations.WithLabelValues(string(resolution)).Inc()
}

// ObserveRetrieval records a knowledge base lookup outcome.
func (r *Recorder) ObserveRetrieval(success bool) {
	status := "hit"
	if !success {
		status = "miss"
	}
	r.retrievalTotal.WithLabelValues(status).Inc()
}

// Handler returns the scrape endpoint for the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
