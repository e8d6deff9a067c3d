package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameHTTPRequestsTotal,
			Help: HelpTextHTTPRequestsTotal,
		},
		[]string{LabelMethod, LabelPath, LabelStatus},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNameHTTPRequestDuration,
			Help:    HelpTextHTTPRequestDuration,
			Buckets: HTTPLatencyBuckets,
		},
		[]string{LabelMethod, LabelPath},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricNameHTTPRequestsInFlight,
			Help: HelpTextHTTPRequestsInFlight,
		},
	)
)

// Event Metrics
var (
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameEventsPublished,
			Help: HelpTextEventsPublished,
		},
		[]string{LabelType},
	)

	EventHandlerErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameEventHandlerErrors,
			Help: HelpTextEventHandlerErrors,
		},
		[]string{LabelType},
	)
)

// Store Metrics
var (
	StoreWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameStoreWrites,
			Help: HelpTextStoreWrites,
		},
		[]string{LabelCollection, LabelOperation},
	)

	StoreConflicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameStoreConflicts,
			Help: HelpTextStoreConflicts,
		},
		[]string{LabelCollection},
	)

	StoreRetriesExhausted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameStoreRetriesExhausted,
			Help: HelpTextStoreRetriesExhausted,
		},
		[]string{LabelCollection},
	)
)

// Business Metrics
var (
	MarketplaceOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameMarketplaceOperations,
			Help: HelpTextMarketplaceOperations,
		},
		[]string{LabelOperation, LabelOutcome},
	)

	CurrencyTransferred = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameCurrencyTransferred,
			Help: HelpTextCurrencyTransferred,
		},
	)

	ListingsExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameListingsExpired,
			Help: HelpTextListingsExpired,
		},
	)

	Compensations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameCompensations,
			Help: HelpTextCompensations,
		},
		[]string{LabelOperation},
	)

	Inconsistencies = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameInconsistencies,
			Help: HelpTextInconsistencies,
		},
		[]string{LabelOperation},
	)

	GuildOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameGuildOperations,
			Help: HelpTextGuildOperations,
		},
		[]string{LabelOperation, LabelOutcome},
	)
)

// Analytics Metrics
var (
	AnalyticsRecorded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameAnalyticsRecorded,
			Help: HelpTextAnalyticsRecorded,
		},
	)

	AnalyticsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameAnalyticsDropped,
			Help: HelpTextAnalyticsDropped,
		},
		[]string{LabelReason},
	)

	AnalyticsDeadLettered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameAnalyticsDeadLettered,
			Help: HelpTextAnalyticsDeadLettered,
		},
	)

	AnalyticsQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricNameAnalyticsQueueDepth,
			Help: HelpTextAnalyticsQueueDepth,
		},
	)
)

// Outcome maps an operation error to an outcome label value
func Outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}
