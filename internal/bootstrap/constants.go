package bootstrap

import "time"

// =============================================================================
// Startup
// =============================================================================

const (
	// ConnectTimeout bounds the database and redis handshakes at startup
	ConnectTimeout = 30 * time.Second

	// SweepJobName names the listing expiry job in scheduler logs
	SweepJobName = "listing_expiry"

	// ReadinessStore and ReadinessRedis name the /readyz probes
	ReadinessStore = "store"
	ReadinessRedis = "redis"
)

// Log messages for logger initialization
const (
	LogMsgLoggingInitialized  = "Logging initialized"
	LogMsgStartingService     = "Starting nexumi core"
	LogMsgConfigurationLoaded = "Configuration loaded"
	LogMsgConfigWarning       = "Configuration warning"
)

// Log and error messages for the persistence substrate
const (
	LogMsgSubstrateReady      = "Document store ready"
	LogMsgAnalyticsBackend    = "Analytics backend ready"
	LogMsgTracingInitialized  = "Tracing initialized"
	ErrMsgUnknownStoreDriver  = "unknown store driver"
	ErrMsgFailedOpenDatabase  = "failed to open database"
	ErrMsgFailedEnsureIndexes = "failed to ensure indexes"
	ErrMsgFailedOpenRedis     = "failed to open redis analytics backend"
	ErrMsgFailedCreateSink    = "failed to create analytics sink"
	ErrMsgFailedSetupTracing  = "failed to set up tracing"
)

// =============================================================================
// Event System Configuration
// =============================================================================

const (
	// EventDefaultMaxRetries is the default number of retry attempts for failed event publishing
	EventDefaultMaxRetries = 5

	// EventDefaultRetryDelay is the default base delay between retry attempts (exponential backoff)
	EventDefaultRetryDelay = 2 * time.Second

	// EventDefaultDeadLetterPath is the default file path for dead-letter event logging
	EventDefaultDeadLetterPath = "logs/event_deadletter.jsonl"

	// DirPermission is the standard permission for creating directories
	DirPermission = 0755
)

// Log messages for event system initialization
const (
	LogMsgEventSystemInitialized         = "Event system initialized"
	LogMsgFailedCreateDeadLetterDir      = "failed to create dead-letter directory"
	LogMsgFailedCreateResilientPublisher = "failed to create resilient publisher"
	LogMsgMetricsCollectorRegistered     = "Metrics collector registered"
	LogMsgAnalyticsSubscribed            = "Analytics sink subscribed to domain events"
)

// =============================================================================
// Shutdown Messages
// =============================================================================

const (
	LogMsgShuttingDownServer         = "Shutting down server..."
	LogMsgShuttingDownEventPublisher = "Shutting down event publisher..."
	LogMsgServerStopped              = "Server stopped"
	LogMsgServerForcedShutdown       = "Server forced to shutdown"
	LogMsgResilientPublisherFailed   = "Resilient publisher shutdown failed"
	LogMsgAnalyticsShutdownFailed    = "Analytics sink shutdown failed"
	LogMsgTracingShutdownFailed      = "Tracing shutdown failed"
	LogMsgRedisCloseFailed           = "Redis close failed"
)
