package player

// Defaults applied to new players
const (
	DefaultStartingCurrency = 100
	DefaultWorldID          = "main_world"
	DefaultLeaderboardSize  = 10
	MaxLeaderboardSize      = 100
	MaxGuildRoster          = 500
)

// Log messages
const (
	LogMsgPlayerCreated  = "Player created"
	LogMsgPlayerLogin    = "Player login recorded"
	LogMsgPlayerArchived = "Player archived"
	LogMsgPublishFailed  = "Failed to publish player event"
)
