package metrics

import (
	"regexp"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestDuration tracks HTTP request duration in seconds by method, path, status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts HTTP requests by method, path, status.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// RevisionsTotal counts timesheet revision saves by outcome (saved, rejected, error).
	RevisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timesheet_revisions_total",
			Help: "Total number of timesheet revision attempts by outcome",
		},
		[]string{"outcome"},
	)

	// ChangeLogEntriesTotal counts audit entries written for timesheet revisions.
	ChangeLogEntriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "timesheet_change_log_entries_total",
			Help: "Total number of change log entries written",
		},
	)

	// NotificationsTotal counts best-effort revision notifications by outcome (sent, failed, skipped).
	NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "revision_notifications_total",
			Help: "Total number of revision notifications by outcome",
		},
		[]string{"outcome"},
	)

	// OpenTimesheetsStale is the number of stale open timesheets found by the last sweep.
	OpenTimesheetsStale = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "open_timesheets_stale",
			Help: "Number of timesheets still open past the configured cutoff at the last sweep",
		},
	)
)

var (
	numericPathSegment = regexp.MustCompile(`/[0-9]+(/|$)`)
	initOnce           sync.Once
)

func init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			RequestDuration,
			RequestTotal,
			RevisionsTotal,
			ChangeLogEntriesTotal,
			NotificationsTotal,
			OpenTimesheetsStale,
		)
	})
}

// NormalizePath reduces cardinality by replacing numeric path segments with {id}.
// E.g. /v1/timesheets/123/details -> /v1/timesheets/{id}/details.
func NormalizePath(path string) string {
	return numericPathSegment.ReplaceAllString(path, "/{id}$1")
}

// RecordRequest records duration and count for an HTTP request. Call from middleware with method, path, statusCode, duration.
func RecordRequest(method, path string, statusCode int, durationSeconds float64) {
	path = NormalizePath(path)
	status := strconv.Itoa(statusCode)
	RequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
	RequestTotal.WithLabelValues(method, path, status).Inc()
}

// RecordRevision counts one revision attempt. outcome is saved, rejected, or error.
func RecordRevision(outcome string) {
	RevisionsTotal.WithLabelValues(outcome).Inc()
}

// RecordNotification counts one notification attempt. outcome is sent, failed, or skipped.
func RecordNotification(outcome string) {
	NotificationsTotal.WithLabelValues(outcome).Inc()
}
