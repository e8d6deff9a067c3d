package event

import (
	"time"

	"github.com/nexumi/nexumi-core/internal/domain"
)

// Domain event types
const (
	PlayerCreated Type = "player.created"
	PlayerLogin   Type = "player.login"

	ListingCreated   Type = "listing.created"
	ListingSold      Type = "listing.sold"
	ListingCancelled Type = "listing.cancelled"
	ListingExpired   Type = "listing.expired"

	GuildCreated           Type = "guild.created"
	GuildMemberJoined      Type = "guild.member_joined"
	GuildMemberLeft        Type = "guild.member_left"
	GuildDisbanded         Type = "guild.disbanded"
	GuildLeadershipChanged Type = "guild.leadership_transferred"
	GuildTreasuryChanged   Type = "guild.treasury_changed"
	ConsistencyViolation   Type = "consistency.violation"
)

// AllTypes lists every domain event type
var AllTypes = []Type{
	PlayerCreated, PlayerLogin,
	ListingCreated, ListingSold, ListingCancelled, ListingExpired,
	GuildCreated, GuildMemberJoined, GuildMemberLeft, GuildDisbanded,
	GuildLeadershipChanged, GuildTreasuryChanged,
	ConsistencyViolation,
}

// MetadataSessionID is the metadata key carrying the caller's session
const MetadataSessionID = "session_id"

// PlayerPayloadV1 is the typed payload for player events
type PlayerPayloadV1 struct {
	PlayerID  string    `json:"player_id"`
	Username  string    `json:"username"`
	Timestamp time.Time `json:"timestamp"`
}

// ListingPayloadV1 is the typed payload for listing events
type ListingPayloadV1 struct {
	ListingID string               `json:"listing_id"`
	SellerID  string               `json:"seller_id"`
	BuyerID   string               `json:"buyer_id,omitempty"`
	ItemID    string               `json:"item_id"`
	Quantity  int                  `json:"quantity"`
	Price     int                  `json:"price"`
	Status    domain.ListingStatus `json:"status"`
	Timestamp time.Time            `json:"timestamp"`
}

// GuildPayloadV1 is the typed payload for guild events
type GuildPayloadV1 struct {
	GuildID   string    `json:"guild_id"`
	PlayerID  string    `json:"player_id,omitempty"`
	TargetID  string    `json:"target_id,omitempty"`
	Amount    int       `json:"amount,omitempty"`
	Treasury  int       `json:"treasury,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ConsistencyViolationPayloadV1 describes a compensation that could not be applied.
// These require external reconciliation.
type ConsistencyViolationPayloadV1 struct {
	Operation string            `json:"operation"`
	Step      string            `json:"step"`
	Entities  map[string]string `json:"entities"`
	Cause     string            `json:"cause"`
	Error     string            `json:"error"`
	Timestamp time.Time         `json:"timestamp"`
}

func newEvent(t Type, payload interface{}, sessionID string) Event {
	evt := Event{Version: EventSchemaVersion, Type: t, Payload: payload}
	if sessionID != "" {
		evt.Metadata = Metadata{MetadataSessionID: sessionID}
	}
	return evt
}

// NewPlayerEvent creates a player event
func NewPlayerEvent(t Type, p *domain.Player, at time.Time, sessionID string) Event {
	return newEvent(t, PlayerPayloadV1{PlayerID: p.PlayerID, Username: p.Username, Timestamp: at}, sessionID)
}

// NewListingEvent creates a listing event from the listing's committed state
func NewListingEvent(t Type, l *domain.Listing, at time.Time, sessionID string) Event {
	return newEvent(t, ListingPayloadV1{
		ListingID: l.ListingID,
		SellerID:  l.SellerID,
		BuyerID:   l.BuyerID,
		ItemID:    l.ItemID,
		Quantity:  l.Quantity,
		Price:     l.Price,
		Status:    l.Status,
		Timestamp: at,
	}, sessionID)
}

// NewGuildEvent creates a guild event
func NewGuildEvent(t Type, payload GuildPayloadV1, sessionID string) Event {
	return newEvent(t, payload, sessionID)
}

// NewConsistencyViolationEvent creates an event for a failed compensation
func NewConsistencyViolationEvent(payload ConsistencyViolationPayloadV1) Event {
	return newEvent(ConsistencyViolation, payload, "")
}
