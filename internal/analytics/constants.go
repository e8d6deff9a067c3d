package analytics

import (
	"time"

	"github.com/nexumi/nexumi-core/internal/domain"
	"github.com/nexumi/nexumi-core/internal/event"
)

// Sink defaults
const (
	DefaultQueueSize       = 1024
	DefaultWorkers         = 2
	DefaultMaxAttempts     = 5
	DefaultInitialInterval = 100 * time.Millisecond
	DefaultMaxInterval     = 2 * time.Second
	DefaultFindLimit       = 100
	MaxFindLimit           = 1000
)

// DeadLetterType tags analytics events in the dead-letter file
const DeadLetterType event.Type = "analytics.record"

// Log messages
const (
	LogMsgEventInvalid     = "Analytics event rejected by schema"
	LogMsgQueueFull        = "Analytics queue full, event dropped"
	LogMsgSinkClosed       = "Analytics sink closed, event dropped"
	LogMsgWriteFailed      = "Analytics write failed after retries"
	LogMsgDeadLetterFailed = "Failed to dead-letter analytics event"
	LogMsgConvertFailed    = "Failed to convert domain event for analytics"
	LogMsgShutdownTimeout  = "Analytics sink shutdown timed out"
	LogMsgSinkDrained      = "Analytics sink drained"
)

// eventNames maps domain events to analytics event names
var eventNames = map[event.Type]string{
	event.PlayerCreated:          domain.EventNamePlayerCreated,
	event.PlayerLogin:            domain.EventNamePlayerLogin,
	event.ListingCreated:         domain.EventNameListingCreated,
	event.ListingSold:            domain.EventNameListingSold,
	event.ListingCancelled:       domain.EventNameListingCanceled,
	event.ListingExpired:         domain.EventNameListingExpired,
	event.GuildCreated:           domain.EventNameGuildCreated,
	event.GuildMemberJoined:      domain.EventNameGuildJoined,
	event.GuildMemberLeft:        domain.EventNameGuildLeft,
	event.GuildDisbanded:         domain.EventNameGuildDisbanded,
	event.GuildLeadershipChanged: domain.EventNameGuildLeader,
	event.GuildTreasuryChanged:   domain.EventNameGuildTreasury,
	event.ConsistencyViolation:   domain.EventNameInconsistency,
}
