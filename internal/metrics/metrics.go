// Package metrics exposes Prometheus collectors for the ingestion pipeline.
package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchAttemptsTotal *prometheus.CounterVec
	fetchRetriesTotal  prometheus.Counter
	documentsTotal     *prometheus.CounterVec
	provisionsTotal    prometheus.Counter
	definitionsTotal   prometheus.Counter

	once sync.Once
)

// Init initializes the Prometheus collectors. Safe to call repeatedly.
func Init() {
	once.Do(func() {
		fetchAttemptsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lexcrawl_fetch_attempts_total",
				Help: "Total fetch attempts, labeled by HTTP status code (or 'error').",
			},
			[]string{"status"},
		)

		fetchRetriesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "lexcrawl_fetch_retries_total",
				Help: "Total fetch attempts that were retries of an earlier attempt.",
			},
		)

		documentsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lexcrawl_documents_total",
				Help: "Total documents processed, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		provisionsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "lexcrawl_provisions_total",
				Help: "Total provisions extracted across the run.",
			},
		)

		definitionsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "lexcrawl_definitions_total",
				Help: "Total term definitions extracted across the run.",
			},
		)
	})
}

// ObserveFetchAttempt records one fetch attempt with its HTTP status.
func ObserveFetchAttempt(statusCode int) {
	Init()
	fetchAttemptsTotal.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// ObserveFetchError records a fetch attempt that failed at the network level.
func ObserveFetchError() {
	Init()
	fetchAttemptsTotal.WithLabelValues("error").Inc()
}

// ObserveRetry records a retry attempt.
func ObserveRetry() {
	Init()
	fetchRetriesTotal.Inc()
}

// ObserveDocument records a finished document with its outcome label.
func ObserveDocument(outcome string) {
	Init()
	documentsTotal.WithLabelValues(outcome).Inc()
}

// AddProvisions adds newly extracted provisions to the running total.
func AddProvisions(n int) {
	Init()
	provisionsTotal.Add(float64(n))
}

// AddDefinitions adds newly extracted definitions to the running total.
func AddDefinitions(n int) {
	Init()
	definitionsTotal.Add(float64(n))
}
