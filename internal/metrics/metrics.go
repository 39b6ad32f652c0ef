package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Query outcomes used as the status label.
const (
	QueryStatusSuccess = "success"
	QueryStatusFailed  = "failed"
)

var (
	// QueryTotal tracks the total number of queries with status label (success or failed)
	QueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chweb_query_total",
			Help: "Total number of queries by status (success or failed)",
		},
		[]string{"status"},
	)

	// QueryDurationSeconds tracks how long queries take, from sending to the last decoded row
	QueryDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chweb_query_duration_seconds",
			Help:    "Duration of queries by status (success or failed)",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 14),
		},
		[]string{"status"},
	)

	// QueryRows tracks the number of rows returned per successful query
	QueryRows = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chweb_query_rows",
			Help:    "Number of rows returned per successful query",
			Buckets: []float64{0, 1, 10, 50, 100, 250, 500, 1000, 2000},
		},
	)

	// QueryRowCapReachedTotal tracks queries cut at the row cap
	QueryRowCapReachedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chweb_query_row_cap_reached_total",
			Help: "Total number of queries whose result was cut at the row cap",
		},
	)
)

// RecordQuery records a finished query with the given status
func RecordQuery(status string, duration time.Duration) {
	QueryTotal.WithLabelValues(status).Inc()
	QueryDurationSeconds.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordRows records the number of rows returned by a successful query
func RecordRows(rows int) {
	QueryRows.Observe(float64(rows))
}

// RecordRowCapReached records a query cut at the row cap
func RecordRowCapReached() {
	QueryRowCapReachedTotal.Inc()
}
