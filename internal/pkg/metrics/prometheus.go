package metrics

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records client-side request, collection and task metrics.
type Collector struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	storeItems      *prometheus.GaugeVec
	staleState      *prometheus.CounterVec
	mutationsTotal  *prometheus.CounterVec
	taskPolls       *prometheus.CounterVec
	tasksFinished   *prometheus.CounterVec
}

// New creates a collector backed by its own registry
func New() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "darkwatch",
				Subsystem: "api",
				Name:      "requests_total",
				Help:      "Total number of API requests issued",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "darkwatch",
				Subsystem: "api",
				Name:      "request_duration_seconds",
				Help:      "API request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "route"},
		),
		storeItems: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "darkwatch",
				Subsystem: "collection",
				Name:      "items",
				Help:      "Number of entities held in a collection store",
			},
			[]string{"resource"},
		),
		staleState: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "darkwatch",
				Subsystem: "collection",
				Name:      "stale_state_total",
				Help:      "Reconciliations that referenced an id missing from the store",
			},
			[]string{"resource", "op"},
		),
		mutationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "darkwatch",
				Subsystem: "collection",
				Name:      "mutations_total",
				Help:      "Remote mutations by outcome",
			},
			[]string{"resource", "op", "outcome"},
		),
		taskPolls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "darkwatch",
				Subsystem: "task",
				Name:      "polls_total",
				Help:      "Task status polls by reported state",
			},
			[]string{"state"},
		),
		tasksFinished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "darkwatch",
				Subsystem: "task",
				Name:      "finished_total",
				Help:      "Tasks observed to completion by outcome",
			},
			[]string{"outcome"},
		),
	}
}

var idSegment = regexp.MustCompile(`^[0-9]+$|^[0-9a-fA-F-]{16,}$`)

// route strips query strings and replaces id segments so label cardinality stays bounded
func route(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if idSegment.MatchString(p) {
			parts[i] = ":id"
		}
	}
	return strings.Join(parts, "/")
}

// ObserveRequest implements client.RequestObserver
func (c *Collector) ObserveRequest(method, path string, status int, elapsed time.Duration) {
	r := route(path)
	statusLabel := "error"
	if status > 0 {
		statusLabel = strconv.Itoa(status)
	}
	c.requestsTotal.WithLabelValues(method, r, statusLabel).Inc()
	c.requestDuration.WithLabelValues(method, r).Observe(elapsed.Seconds())
}

// SetStoreItems records the size of a collection store
func (c *Collector) SetStoreItems(resource string, n int) {
	c.storeItems.WithLabelValues(resource).Set(float64(n))
}

// StaleState counts a reconciliation that found no matching id
func (c *Collector) StaleState(resource, op string) {
	c.staleState.WithLabelValues(resource, op).Inc()
}

// Mutation counts a remote mutation
func (c *Collector) Mutation(resource, op string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	c.mutationsTotal.WithLabelValues(resource, op, outcome).Inc()
}

// TaskPolled counts one status poll
func (c *Collector) TaskPolled(state string) {
	c.taskPolls.WithLabelValues(state).Inc()
}

// TaskFinished counts a task observed to a terminal state, cancellation or error
func (c *Collector) TaskFinished(outcome string) {
	c.tasksFinished.WithLabelValues(outcome).Inc()
}

// Registry exposes the underlying registry, mainly for tests
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler returns the HTTP handler serving the metrics
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
