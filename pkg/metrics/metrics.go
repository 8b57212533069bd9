// Package metrics exposes the Prometheus collectors used across the service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "penca"

var registry = prometheus.NewRegistry() //nolint:gochecknoglobals // process-wide registry

var factory = promauto.With(registry) //nolint:gochecknoglobals

var (
	BetsPlaced = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "bets",
		Name:      "placed_total",
		Help:      "Bets accepted by the ledger.",
	})
	BetsRejected = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "bets",
		Name:      "rejected_total",
		Help:      "Bet requests rejected, by reason.",
	}, []string{"reason"})
	BetsSettled = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "bets",
		Name:      "settled_total",
		Help:      "Bet transitions out of pending, by outcome.",
	}, []string{"outcome"})

	ResultsInserted = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "rows_inserted_total",
		Help:      "Result rows inserted by the synchronizer, by category.",
	}, []string{"category"})
	ResultsUnmatched = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "entries_unmatched_total",
		Help:      "Provider entries skipped because no local driver or race matched.",
	}, []string{"category", "kind"})
	SyncRuns = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "runs_total",
		Help:      "Synchronization runs, by status.",
	}, []string{"status"})
	SyncDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "duration_seconds",
		Help:      "Wall time of a full synchronization run.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
	})

	HTTPRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route and status.",
	}, []string{"method", "route", "status"})
)

func init() { //nolint:gochecknoinits
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Handler serves the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
