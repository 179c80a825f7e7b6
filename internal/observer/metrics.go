package observer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricsEnabled = true // Flag to control metric collection

	// Labels for outbound message metrics
	messageLabels = []string{"channel", "status"}
	// Labels for job run metrics
	jobLabels = []string{"job_type", "status"}
)

// Outreach counters and gauges
var (
	MessagesSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_outreach_messages_total",
			Help: "Total number of outbound messages attempted, labeled by channel and delivery status.",
		},
		messageLabels,
	)
	RepliesReceivedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_outreach_replies_received_total",
			Help: "Total number of inbound replies recorded, labeled by channel.",
		},
		[]string{"channel"},
	)
	JobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_outreach_jobs_total",
			Help: "Total number of background jobs finished, labeled by job type and final status.",
		},
		jobLabels,
	)
	JobDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lead_outreach_job_duration_seconds",
			Help:    "Histogram of background job durations.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12), // 100ms to ~3.5min
		},
		[]string{"job_type"},
	)
	QuotaRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lead_outreach_quota_remaining",
		Help: "Number of outbound messages still available for the current UTC day.",
	})
	LeadsDiscoveredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_outreach_leads_discovered_total",
			Help: "Total number of leads discovered by scrape runs, labeled by outcome.",
		},
		[]string{"outcome"}, // created, duplicate, invalid
	)
)

// Composer metrics
var (
	CompositionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_outreach_compositions_total",
			Help: "Total number of AI composition calls, labeled by kind and outcome.",
		},
		[]string{"kind", "outcome"}, // kind: message|summary|key_points, outcome: ok|fallback
	)
)

// Labels for database operations
var (
	dbOperationLabels = []string{"operation", "entity", "status"}

	// Histogram for Database Operation Duration
	DatabaseOperationDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lead_outreach_db_operation_duration_seconds",
			Help:    "Histogram of database operation durations.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~16s
		},
		dbOperationLabels,
	)
)

// InitMetrics initializes the Prometheus metrics if enabled.
// Call this function during application startup.
func InitMetrics(enabled bool) {
	metricsEnabled = enabled
}

// ObserveDbOperationDuration records the duration for a database operation.
func ObserveDbOperationDuration(operation, entity string, duration time.Duration, err error) {
	if !metricsEnabled {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	DatabaseOperationDurationSeconds.WithLabelValues(operation, entity, status).Observe(duration.Seconds())
}

// IncMessageSent increments the outbound message counter.
func IncMessageSent(channel string, err error) {
	if !metricsEnabled {
		return
	}
	status := "sent"
	if err != nil {
		status = "failed"
	}
	MessagesSentTotal.WithLabelValues(channel, status).Inc()
}

// IncReplyReceived increments the inbound reply counter.
func IncReplyReceived(channel string) {
	if !metricsEnabled {
		return
	}
	RepliesReceivedTotal.WithLabelValues(channel).Inc()
}

// IncJobFinished increments the finished job counter.
func IncJobFinished(jobType, status string) {
	if !metricsEnabled {
		return
	}
	JobsTotal.WithLabelValues(jobType, status).Inc()
}

// ObserveJobDuration records the duration of a background job run.
func ObserveJobDuration(jobType string, duration time.Duration) {
	if !metricsEnabled {
		return
	}
	JobDurationSeconds.WithLabelValues(jobType).Observe(duration.Seconds())
}

// SetQuotaRemaining sets the remaining daily quota gauge.
func SetQuotaRemaining(remaining int) {
	if !metricsEnabled {
		return
	}
	QuotaRemaining.Set(float64(remaining))
}

// IncLeadDiscovered increments the lead discovery counter.
func IncLeadDiscovered(outcome string) {
	if !metricsEnabled {
		return
	}
	LeadsDiscoveredTotal.WithLabelValues(outcome).Inc()
}

// IncComposition increments the AI composition counter.
func IncComposition(kind, outcome string) {
	if !metricsEnabled {
		return
	}
	CompositionsTotal.WithLabelValues(kind, outcome).Inc()
}
