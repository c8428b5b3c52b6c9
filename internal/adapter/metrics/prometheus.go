// Package metrics exposes fetch and cache activity to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	portmetrics "github.com/ons3/Pfe-Project-Final/internal/port/metrics"
)

const namespace = "projects_cache"

var _ portmetrics.Recorder = (*Recorder)(nil)

// Recorder owns its registry so tests and multiple servers never collide on
// the global one.
type Recorder struct {
	registry *prometheus.Registry

	fetchRequests *prometheus.CounterVec
	fetchResults  *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	cacheLookups  *prometheus.CounterVec
	coalesced     prometheus.Counter
}

func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,

		fetchRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "fetch",
				Name:      "requests_total",
				Help:      "Total project fetch requests by cache policy",
			},
			[]string{"policy"},
		),
		fetchResults: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "fetch",
				Name:      "results_total",
				Help:      "Total GraphQL round trips by outcome",
			},
			[]string{"outcome"},
		),
		fetchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "fetch",
				Name:      "duration_seconds",
				Help:      "GraphQL round trip latency in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"outcome"},
		),
		cacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "lookups_total",
				Help:      "Total cache lookups by result",
			},
			[]string{"result"},
		),
		coalesced: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "fetch",
				Name:      "coalesced_total",
				Help:      "Total callers that shared an in-flight fetch",
			},
		),
	}
}

func (r *Recorder) FetchRequested(policy string) {
	r.fetchRequests.WithLabelValues(policy).Inc()
}

func (r *Recorder) FetchCompleted(outcome string, d time.Duration) {
	r.fetchResults.WithLabelValues(outcome).Inc()
	r.fetchDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

func (r *Recorder) CacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(result).Inc()
}

func (r *Recorder) Coalesced() {
	r.coalesced.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
