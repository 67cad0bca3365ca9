package observer

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricsEnabled = true // Flag to control metric collection

	// Labels for webhook deliveries
	webhookLabels = []string{"kind", "outcome"}
	// Labels for tool invocations
	toolLabels = []string{"tool", "outcome"}

	WebhookEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voice_webhook_events_total",
			Help: "Total number of webhook deliveries, labeled by event kind and outcome.",
		},
		webhookLabels,
	)

	WebhookProcessingDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "voice_webhook_processing_duration_seconds",
			Help:    "Histogram of webhook pipeline durations.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 14), // 5ms to ~40s
		},
		[]string{"kind"},
	)

	SignatureRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voice_webhook_signature_rejections_total",
			Help: "Total number of deliveries rejected by the signature gate.",
		},
		[]string{"reason"},
	)

	CallStatusTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voice_call_status_transitions_total",
			Help: "Status updates applied or dropped by the rank guard.",
		},
		[]string{"status", "result"},
	)

	ToolInvocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voice_tool_invocations_total",
			Help: "Total number of tool invocations, labeled by tool and outcome.",
		},
		toolLabels,
	)

	ToolInvocationDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "voice_tool_invocation_duration_seconds",
			Help:    "Histogram of tool handler durations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"tool"},
	)

	SideEffectFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voice_side_effect_failures_total",
			Help: "Best-effort side effects that failed without failing the webhook.",
		},
		[]string{"effect", "error_type"},
	)

	// Metrics store, set once InitMetrics runs with metrics enabled
	Metrics *metricsStore
)

// Domain event worker metrics
var (
	eventWorkerLabels = []string{"organization_id"}

	eventTasksSubmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voice_event_tasks_submitted_total",
			Help: "Total number of domain events submitted to the event worker pool.",
		},
		eventWorkerLabels,
	)
	eventTasksProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voice_event_tasks_processed_total",
			Help: "Total number of domain events processed by the worker pool, labeled by final status.",
		},
		[]string{"organization_id", "status"},
	)
	eventPublishDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "voice_event_publish_duration_seconds",
			Help:    "Histogram of domain event publish durations, retries included.",
			Buckets: prometheus.DefBuckets,
		},
		eventWorkerLabels,
	)
	eventQueueLength = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "voice_event_queue_length",
		Help: "Approximate number of domain events waiting for a worker.",
	})
)

// Labels for database operations
var (
	dbOperationLabels = []string{"operation", "entity", "organization_id", "status"}

	DatabaseOperationDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "voice_db_operation_duration_seconds",
			Help:    "Histogram of database operation durations.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~16s
		},
		dbOperationLabels,
	)
)

// Load generator metrics, exported by cmd/tester
var (
	loadgenLabels = []string{"kind"}

	loadgenRequestsAttemptedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voice_loadgen_requests_attempted_total",
			Help: "Total number of webhook deliveries the load generator attempted.",
		},
		loadgenLabels,
	)
	loadgenRequestErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voice_loadgen_request_errors_total",
			Help: "Total number of load generator deliveries that failed or returned a non-2xx status.",
		},
		loadgenLabels,
	)
)

type metricsStore struct{}

// InitMetrics enables or disables metric collection.
// Collectors are registered by promauto regardless; disabling only stops updates.
func InitMetrics(enabled bool) {
	metricsEnabled = enabled
	if !enabled {
		Metrics = nil
		return
	}
	Metrics = &metricsStore{}
}

// Enabled reports whether metrics are being collected.
func Enabled() bool {
	return metricsEnabled
}

func sanitizeOrganization(organizationID string) string {
	if organizationID == "" {
		return "unknown"
	}
	return organizationID
}

func sanitizeLabel(value string) string {
	if value == "" {
		return "none"
	}
	return value
}

// IncWebhookEvent counts one webhook delivery.
func IncWebhookEvent(kind, outcome string) {
	if !metricsEnabled {
		return
	}
	WebhookEventsTotal.WithLabelValues(sanitizeLabel(kind), outcome).Inc()
}

// ObserveWebhookDuration records the time spent processing a delivery.
func ObserveWebhookDuration(kind string, duration time.Duration) {
	if !metricsEnabled {
		return
	}
	WebhookProcessingDurationSeconds.WithLabelValues(sanitizeLabel(kind)).Observe(duration.Seconds())
}

// IncSignatureRejection counts a delivery refused by the signature gate.
func IncSignatureRejection(reason string) {
	if !metricsEnabled {
		return
	}
	SignatureRejectionsTotal.WithLabelValues(reason).Inc()
}

// IncCallStatusTransition counts a status update. result is "applied", "dropped" or "missing".
func IncCallStatusTransition(status, result string) {
	if !metricsEnabled {
		return
	}
	CallStatusTransitionsTotal.WithLabelValues(sanitizeLabel(status), result).Inc()
}

// ObserveToolInvocation counts a tool invocation and records its duration.
func ObserveToolInvocation(tool, outcome string, duration time.Duration) {
	if !metricsEnabled {
		return
	}
	tool = sanitizeLabel(tool)
	ToolInvocationsTotal.WithLabelValues(tool, outcome).Inc()
	ToolInvocationDurationSeconds.WithLabelValues(tool).Observe(duration.Seconds())
}

// IncSideEffectFailure counts a best-effort side effect that failed.
func IncSideEffectFailure(effect string, err error) {
	if !metricsEnabled {
		return
	}
	errStr := ""
	if err != nil {
		errStr = err.Error()
	}
	SideEffectFailuresTotal.WithLabelValues(effect, SanitizeErrorType(errStr)).Inc()
}

// ObserveDbOperationDuration records the duration for a database operation.
func ObserveDbOperationDuration(operation, entity, organizationID string, duration time.Duration, err error) {
	if !metricsEnabled {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	DatabaseOperationDurationSeconds.WithLabelValues(operation, entity, sanitizeOrganization(organizationID), status).Observe(duration.Seconds())
}

// SanitizeErrorType maps specific errors or provides a default category.
// Keep this simple to avoid high cardinality.
func SanitizeErrorType(errStr string) string {
	if errStr == "" || errStr == "none" {
		return "none"
	}

	errStr = strings.ToLower(errStr)
	switch {
	case strings.Contains(errStr, "database"), strings.Contains(errStr, "sql"), strings.Contains(errStr, "duplicate key"), strings.Contains(errStr, "constraint"), strings.Contains(errStr, "connection"):
		return "database"
	case strings.Contains(errStr, "validation failed"), strings.Contains(errStr, "bad request"), strings.Contains(errStr, "invalid"), strings.Contains(errStr, "missing field"):
		return "validation"
	case strings.Contains(errStr, "not found"), strings.Contains(errStr, "no rows"):
		return "not_found"
	case strings.Contains(errStr, "nats"), strings.Contains(errStr, "jetstream"):
		return "nats"
	case strings.Contains(errStr, "timeout"), strings.Contains(errStr, "deadline exceeded"):
		return "timeout"
	case strings.Contains(errStr, "unmarshal"), strings.Contains(errStr, "json"):
		return "unmarshal"
	case strings.Contains(errStr, "panic"):
		return "panic"
	default:
		return "unknown"
	}
}

// --- Event Worker Metric Helpers ---

// IncEventTasksSubmitted increments the counter for submitted domain events.
func IncEventTasksSubmitted(organizationID string) {
	if Metrics != nil {
		eventTasksSubmittedTotal.WithLabelValues(sanitizeOrganization(organizationID)).Inc()
	}
}

// IncEventTasksProcessed increments the counter for processed domain events by status.
func IncEventTasksProcessed(organizationID, status string) {
	if Metrics != nil {
		eventTasksProcessedTotal.WithLabelValues(sanitizeOrganization(organizationID), status).Inc()
	}
}

// ObserveEventPublishDuration records the time spent publishing one domain event.
func ObserveEventPublishDuration(organizationID string, duration time.Duration) {
	if Metrics != nil {
		eventPublishDurationSeconds.WithLabelValues(sanitizeOrganization(organizationID)).Observe(duration.Seconds())
	}
}

// SetEventQueueLength sets the current event queue length.
func SetEventQueueLength(length int) {
	if Metrics != nil {
		eventQueueLength.Set(float64(length))
	}
}

// --- Load Generator Metric Helpers ---

// IncLoadgenRequestsAttempted increments the counter for attempted deliveries.
func IncLoadgenRequestsAttempted(kind string) {
	if Metrics != nil {
		loadgenRequestsAttemptedTotal.WithLabelValues(sanitizeLabel(kind)).Inc()
	}
}

// IncLoadgenRequestErrors increments the counter for failed deliveries.
func IncLoadgenRequestErrors(kind string) {
	if Metrics != nil {
		loadgenRequestErrorsTotal.WithLabelValues(sanitizeLabel(kind)).Inc()
	}
}
