package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// metricsOnce ensures metrics are registered only once
	metricsOnce sync.Once

	// mirrorEventsIngestedTotal tracks events pulled per source
	mirrorEventsIngestedTotal *prometheus.CounterVec

	// mirrorFetchErrorsTotal tracks source failures by reason
	mirrorFetchErrorsTotal *prometheus.CounterVec

	// mirrorBatchDuration tracks latency of repository batch writes
	mirrorBatchDuration prometheus.Histogram

	// feedRequestsTotal tracks feed endpoint hits by endpoint and status
	feedRequestsTotal *prometheus.CounterVec

	// exportRequestsTotal tracks SIEM export requests by format
	exportRequestsTotal *prometheus.CounterVec
)

// InitMetrics registers all Prometheus metrics for the mirror and the feed
// daemon. This should be called once at application startup.
func InitMetrics() {
	metricsOnce.Do(func() {
		mirrorEventsIngestedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mirror_events_ingested_total",
				Help: "Total number of events ingested per source",
			},
			[]string{"source"},
		)

		mirrorFetchErrorsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mirror_fetch_errors_total",
				Help: "Total number of source fetch failures by source and reason",
			},
			[]string{"source", "reason"},
		)

		mirrorBatchDuration = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "mirror_batch_duration_seconds",
				Help:    "Duration of repository batch writes in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0},
			},
		)

		feedRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "feed_requests_total",
				Help: "Total number of feed endpoint requests by endpoint and status",
			},
			[]string{"endpoint", "status"},
		)

		exportRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "export_requests_total",
				Help: "Total number of SIEM export requests by format",
			},
			[]string{"format"},
		)
	})
}

// RecordEventsIngested records events pulled from a source
func RecordEventsIngested(source string, count int) {
	if mirrorEventsIngestedTotal != nil {
		mirrorEventsIngestedTotal.WithLabelValues(source).Add(float64(count))
	}
}

// RecordFetchError records a source failure
// reason: "http", "status", "manifest", "event", "dir", "scan"
func RecordFetchError(source, reason string) {
	if mirrorFetchErrorsTotal != nil {
		mirrorFetchErrorsTotal.WithLabelValues(source, reason).Inc()
	}
}

// RecordFeedRequest records a feed endpoint hit
func RecordFeedRequest(endpoint string, status int) {
	if feedRequestsTotal != nil {
		feedRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	}
}

// RecordExport records a SIEM export request by format
func RecordExport(format string) {
	if exportRequestsTotal != nil {
		exportRequestsTotal.WithLabelValues(format).Inc()
	}
}

// BatchTimer is a helper for timing repository batch writes
type BatchTimer struct {
	start time.Time
}

// StartBatchTimer creates a new timer for measuring a batch write
func StartBatchTimer() *BatchTimer {
	return &BatchTimer{start: time.Now()}
}

// ObserveDuration records the elapsed time since the timer started
func (t *BatchTimer) ObserveDuration() {
	if t != nil && mirrorBatchDuration != nil {
		mirrorBatchDuration.Observe(time.Since(t.start).Seconds())
	}
}
