// Package metrics exposes warehouse query counters for node-exporter textfile collection.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds every tenure collector. It is private so a CLI run only
// reports its own series.
var Registry = prometheus.NewRegistry()

var (
	queriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tenure",
		Subsystem: "warehouse",
		Name:      "queries_total",
		Help:      "Number of warehouse queries executed, labeled by backend and outcome.",
	}, []string{"backend", "outcome"})

	queryDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tenure",
		Subsystem: "warehouse",
		Name:      "query_duration_seconds",
		Help:      "Time spent executing warehouse queries.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
	}, []string{"backend"})

	rowsReturned = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tenure",
		Subsystem: "warehouse",
		Name:      "rows_returned_total",
		Help:      "Number of rows read from the warehouse.",
	}, []string{"backend"})

	cacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tenure",
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Query cache lookups, labeled by result (hit, miss, expired).",
	}, []string{"result"})

	lastReport = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "tenure",
		Subsystem: "report",
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix timestamp of the last successful report, labeled by report.",
	}, []string{"report"})
)

// Cache lookup results.
const (
	CacheHit     = "hit"
	CacheMiss    = "miss"
	CacheExpired = "expired"
)

func init() {
	Registry.MustRegister(queriesTotal, queryDuration, rowsReturned, cacheLookups, lastReport)
}

// ObserveQuery records one warehouse execution.
func ObserveQuery(backend string, elapsed time.Duration, rows int, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	queriesTotal.WithLabelValues(backend, outcome).Inc()
	queryDuration.WithLabelValues(backend).Observe(elapsed.Seconds())
	if err == nil {
		rowsReturned.WithLabelValues(backend).Add(float64(rows))
	}
}

// ObserveCache records a query cache lookup.
func ObserveCache(result string) {
	cacheLookups.WithLabelValues(result).Inc()
}

// RecordReport marks a report as completed at ts.
func RecordReport(report string, ts time.Time) {
	if ts.IsZero() {
		return
	}
	lastReport.WithLabelValues(report).Set(float64(ts.Unix()))
}

// WriteTextfile writes the registry in the text exposition format. An empty
// path is a no-op.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, Registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
