package metric

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "meshterm"

// Line kinds.
const (
	LineCommand  = "command"
	LineText     = "text"
	LineEmpty    = "empty"
	LineOverflow = "overflow"
)

// Command results.
const (
	ResultOK      = "ok"
	ResultError   = "error"
	ResultUnknown = "unknown"
	ResultBusy    = "busy"
)

// Registry holds all application metrics.
type Registry struct {
	registry *prometheus.Registry

	LinesTotal     *prometheus.CounterVec
	CommandsTotal  *prometheus.CounterVec
	CustomCommands prometheus.Gauge

	MeshSendsTotal    *prometheus.CounterVec
	MeshReceivedTotal *prometheus.CounterVec
	MeshNeighbors     prometheus.Gauge
	PingRTT           prometheus.Histogram
}

// NewRegistry creates a new metrics registry with Go runtime and process collectors.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
		LinesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "terminal",
			Name:      "lines_total",
			Help:      "Completed input lines by kind.",
		}, []string{"kind"}),
		CommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "terminal",
			Name:      "commands_total",
			Help:      "Dispatched commands by name and result.",
		}, []string{"command", "result"}),
		CustomCommands: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "terminal",
			Name:      "custom_commands",
			Help:      "Number of registered custom commands.",
		}),
		MeshSendsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mesh",
			Name:      "sends_total",
			Help:      "Outgoing mesh messages by kind and result.",
		}, []string{"kind", "result"}),
		MeshReceivedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mesh",
			Name:      "received_total",
			Help:      "Incoming mesh messages by disposition.",
		}, []string{"disposition"}),
		MeshNeighbors: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "mesh",
			Name:      "neighbors",
			Help:      "Number of directly reachable neighbors.",
		}),
		PingRTT: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "mesh",
			Name:      "ping_rtt_seconds",
			Help:      "Round-trip time of mesh pings.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.LinesTotal,
		r.CommandsTotal,
		r.CustomCommands,
		r.MeshSendsTotal,
		r.MeshReceivedTotal,
		r.MeshNeighbors,
		r.PingRTT,
	)

	return r
}

// Handler returns an HTTP handler serving this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// RecordLine counts a completed input line of the given kind.
func (r *Registry) RecordLine(kind string) {
	if r == nil {
		return
	}
	r.LinesTotal.WithLabelValues(kind).Inc()
}

// RecordCommand counts a dispatched command.
// Unknown commands are recorded under a fixed label to bound cardinality.
func (r *Registry) RecordCommand(command, result string) {
	if r == nil {
		return
	}
	if result == ResultUnknown {
		command = "_unknown"
	}
	r.CommandsTotal.WithLabelValues(command, result).Inc()
}

// SetCustomCommands sets the registered custom command count.
func (r *Registry) SetCustomCommands(n int) {
	if r == nil {
		return
	}
	r.CustomCommands.Set(float64(n))
}

// RecordSend counts an outgoing mesh message.
func (r *Registry) RecordSend(kind string, err error) {
	if r == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	r.MeshSendsTotal.WithLabelValues(kind, result).Inc()
}

// RecordReceive counts an incoming mesh message by disposition
// (delivered, relayed, duplicate, expired, malformed).
func (r *Registry) RecordReceive(disposition string) {
	if r == nil {
		return
	}
	r.MeshReceivedTotal.WithLabelValues(disposition).Inc()
}

// SetNeighbors sets the current neighbor count.
func (r *Registry) SetNeighbors(n int) {
	if r == nil {
		return
	}
	r.MeshNeighbors.Set(float64(n))
}

// ObservePing records a ping round trip.
func (r *Registry) ObservePing(rtt time.Duration) {
	if r == nil {
		return
	}
	r.PingRTT.Observe(rtt.Seconds())
}
