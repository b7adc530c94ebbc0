package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shipledger",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "shipledger",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	refreshCycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shipledger",
			Subsystem: "sync",
			Name:      "refresh_cycles_total",
			Help:      "Fetch cycles by outcome.",
		},
		[]string{"outcome"},
	)
	refreshDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "shipledger",
			Subsystem: "sync",
			Name:      "refresh_duration_seconds",
			Help:      "Full fetch cycle duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
	)
	ledgerQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shipledger",
			Subsystem: "ledger",
			Name:      "queries_total",
			Help:      "Collection queries by entity type and outcome.",
		},
		[]string{"collection", "outcome"},
	)
	ledgerUpserts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shipledger",
			Subsystem: "ledger",
			Name:      "upserts_total",
			Help:      "Transactional upserts by outcome.",
		},
		[]string{"outcome"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests, httpDuration,
			refreshCycles, refreshDuration,
			ledgerQueries, ledgerUpserts,
		)
	})
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}

func RecordRefreshCycle(outcome string, duration time.Duration) {
	RegisterMetrics()
	refreshCycles.WithLabelValues(outcome).Inc()
	refreshDuration.Observe(duration.Seconds())
}

func RecordLedgerQuery(collection string, err error) {
	RegisterMetrics()
	ledgerQueries.WithLabelValues(collection, outcomeLabel(err)).Inc()
}

func RecordLedgerUpsert(err error) {
	RegisterMetrics()
	ledgerUpserts.WithLabelValues(outcomeLabel(err)).Inc()
}

func outcomeLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
