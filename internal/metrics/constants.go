package metrics

// ============================================================================
// Metric Names
// ============================================================================

// HTTP metric names
const (
	MetricNameHTTPRequestsTotal    = "http_requests_total"
	MetricNameHTTPRequestDuration  = "http_request_duration_seconds"
	MetricNameHTTPRequestsInFlight = "http_requests_in_flight"
)

// Event metric names
const (
	MetricNameEventsPublished    = "events_published_total"
	MetricNameEventHandlerErrors = "event_handler_errors_total"
)

// Store metric names
const (
	MetricNameStoreWrites           = "store_writes_total"
	MetricNameStoreConflicts        = "store_conflicts_total"
	MetricNameStoreRetriesExhausted = "store_retries_exhausted_total"
)

// Business metric names
const (
	MetricNameMarketplaceOperations = "marketplace_operations_total"
	MetricNameCurrencyTransferred   = "marketplace_currency_transferred_total"
	MetricNameListingsExpired       = "marketplace_listings_expired_total"
	MetricNameCompensations         = "compensations_total"
	MetricNameInconsistencies       = "inconsistencies_total"
	MetricNameGuildOperations       = "guild_operations_total"
)

// Analytics metric names
const (
	MetricNameAnalyticsRecorded     = "analytics_events_recorded_total"
	MetricNameAnalyticsDropped      = "analytics_events_dropped_total"
	MetricNameAnalyticsDeadLettered = "analytics_events_dead_lettered_total"
	MetricNameAnalyticsQueueDepth   = "analytics_queue_depth"
)

// ============================================================================
// Metric Help Text
// ============================================================================

// HTTP metric help text
const (
	HelpTextHTTPRequestsTotal    = "Total number of HTTP requests"
	HelpTextHTTPRequestDuration  = "HTTP request latency in seconds"
	HelpTextHTTPRequestsInFlight = "Current number of HTTP requests being served"
)

// Event metric help text
const (
	HelpTextEventsPublished    = "Total number of events published"
	HelpTextEventHandlerErrors = "Total number of event handler errors"
)

// Store metric help text
const (
	HelpTextStoreWrites           = "Total number of committed document writes"
	HelpTextStoreConflicts        = "Total number of optimistic concurrency conflicts"
	HelpTextStoreRetriesExhausted = "Total number of updates that gave up after the retry bound"
)

// Business metric help text
const (
	HelpTextMarketplaceOperations = "Total number of marketplace operations by outcome"
	HelpTextCurrencyTransferred   = "Total currency moved from buyers to sellers"
	HelpTextListingsExpired       = "Total number of listings expired by the sweep"
	HelpTextCompensations         = "Total number of compensating actions applied"
	HelpTextInconsistencies       = "Total number of failed compensations needing reconciliation"
	HelpTextGuildOperations       = "Total number of guild operations by outcome"
)

// Analytics metric help text
const (
	HelpTextAnalyticsRecorded     = "Total number of analytics events persisted"
	HelpTextAnalyticsDropped      = "Total number of analytics events dropped"
	HelpTextAnalyticsDeadLettered = "Total number of analytics events written to the dead letter file"
	HelpTextAnalyticsQueueDepth   = "Current number of analytics events waiting to be written"
)

// ============================================================================
// Metric Label Names
// ============================================================================

// Common label names used across metrics
const (
	LabelMethod     = "method"
	LabelPath       = "path"
	LabelStatus     = "status"
	LabelType       = "type"
	LabelCollection = "collection"
	LabelOperation  = "operation"
	LabelOutcome    = "outcome"
	LabelReason     = "reason"
)

// Outcome label values
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Drop reasons
const (
	ReasonQueueFull = "queue_full"
	ReasonInvalid   = "invalid"
	ReasonShutdown  = "shutdown"
)

// ============================================================================
// Histogram Buckets
// ============================================================================

// HTTPLatencyBuckets defines the histogram buckets for HTTP request duration
// in seconds, from 1ms to 10s.
var HTTPLatencyBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

// ============================================================================
// Log Messages
// ============================================================================

// Debug log messages
const (
	LogMsgEventPayloadNotMap = "Event payload could not be decoded"
	LogMsgMetricsRecorded    = "Metrics recorded for event"
)
