// Package observability holds the metrics, tracing and AWS instrumentation
// used by the API and the Lambda handlers.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the application
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Command metrics
	Commands        *prometheus.CounterVec
	CommandDuration *prometheus.HistogramVec

	// Propagation metrics
	NodesWritten   *prometheus.HistogramVec
	LockContention prometheus.Counter
}

// NewCollector creates a collector with its own registry, so tests can build
// as many as they like.
func NewCollector(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		Commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commands_total",
				Help:      "Total number of commands handled",
			},
			[]string{"command", "status"},
		),
		CommandDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "command_duration_seconds",
				Help:      "Command handling duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"command"},
		),
		NodesWritten: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "propagation_nodes_written",
				Help:      "Nodes written per mutating operation",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
			},
			[]string{"operation"},
		),
		LockContention: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "propagation_lock_timeouts_total",
				Help:      "Operations that gave up waiting for the propagation lock",
			},
		),
	}

	c.registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.Commands,
		c.CommandDuration,
		c.NodesWritten,
		c.LockContention,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveHTTP records one served request.
func (c *Collector) ObserveHTTP(method, route string, status int, duration time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveCommand records one handled command.
func (c *Collector) ObserveCommand(commandType string, duration time.Duration, err error) {
	c.Commands.WithLabelValues(commandType, status(err)).Inc()
	c.CommandDuration.WithLabelValues(commandType).Observe(duration.Seconds())
}

// ObservePropagation records how many nodes an operation wrote.
func (c *Collector) ObservePropagation(operation string, nodesWritten int) {
	c.NodesWritten.WithLabelValues(operation).Observe(float64(nodesWritten))
}

// IncLockContention counts a lock timeout.
func (c *Collector) IncLockContention() {
	c.LockContention.Inc()
}

func status(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

// Sink receives every application measurement.
type Sink interface {
	ObserveCommand(commandType string, duration time.Duration, err error)
	ObservePropagation(operation string, nodesWritten int)
	IncLockContention()
}

// Sinks fans measurements out to several sinks. Nil members are skipped.
type Sinks []Sink

// ObserveCommand implements Sink.
func (ss Sinks) ObserveCommand(commandType string, duration time.Duration, err error) {
	for _, s := range ss {
		if s != nil {
			s.ObserveCommand(commandType, duration, err)
		}
	}
}

// ObservePropagation implements Sink.
func (ss Sinks) ObservePropagation(operation string, nodesWritten int) {
	for _, s := range ss {
		if s != nil {
			s.ObservePropagation(operation, nodesWritten)
		}
	}
}

// IncLockContention implements Sink.
func (ss Sinks) IncLockContention() {
	for _, s := range ss {
		if s != nil {
			s.IncLockContention()
		}
	}
}
