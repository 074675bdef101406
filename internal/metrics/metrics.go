// Package metrics exposes Prometheus instrumentation for the SDK's fetch
// path. Registration is lazy and opt-in; a client that never calls Init
// pays nothing and registers nothing.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchTotal    *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	downloadTotal *prometheus.CounterVec

	once       sync.Once
	registered bool
)

// Init registers all metrics with the default registry. Safe to call more
// than once.
func Init() {
	once.Do(func() {
		fetchTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vaultpath_fetch_total",
				Help: "Total number of record fetch requests",
			},
			[]string{"status"},
		)

		fetchDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vaultpath_fetch_duration_seconds",
				Help:    "Duration of record fetch requests in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"status"},
		)

		downloadTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vaultpath_file_download_total",
				Help: "Total number of file attachment downloads",
			},
			[]string{"status"},
		)

		registered = true
	})
}

// RecordFetch records one fetch request outcome.
func RecordFetch(status string, durationSeconds float64) {
	if !registered {
		return
	}
	fetchTotal.WithLabelValues(status).Inc()
	fetchDuration.WithLabelValues(status).Observe(durationSeconds)
}

// RecordDownload records one file download outcome.
func RecordDownload(status string) {
	if !registered || downloadTotal == nil {
		return
	}
	downloadTotal.WithLabelValues(status).Inc()
}

// Registered reports whether Init has run.
func Registered() bool {
	return registered
}
