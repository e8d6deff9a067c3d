package domain

import "time"

// Player defaults applied on first login
const (
	DefaultPlayerLevel     = 1
	DefaultPlayerMaxHealth = 100
	MinPlayerLevel         = 1
	MaxPlayerLevel         = 100
	MinUsernameLength      = 3
	MaxUsernameLength      = 20
)

// Equipment slots
const (
	SlotWeapon    = "weapon"
	SlotArmor     = "armor"
	SlotAccessory = "accessory"
)

// DefaultEquipmentSlots are created empty for every new player
var DefaultEquipmentSlots = []string{SlotWeapon, SlotArmor, SlotAccessory}

// Marketplace limits
const (
	// DefaultListingTTL matches the seven day expiry of marketplace listings
	DefaultListingTTL = 7 * 24 * time.Hour

	// MaxTransactionQuantity caps a single listing
	MaxTransactionQuantity = 10000
)

// Guild limits
const (
	DefaultGuildMaxMembers = 50
	MaxGuildMembers        = 500
	MinGuildNameLength     = 3
	MaxGuildNameLength     = 32
	MaxGuildTagLength      = 5
)

// Analytics event names emitted by the core
const (
	EventNamePlayerLogin     = "player_login"
	EventNamePlayerCreated   = "player_created"
	EventNameListingCreated  = "listing_created"
	EventNameListingSold     = "listing_sold"
	EventNameListingCanceled = "listing_cancelled"
	EventNameListingExpired  = "listing_expired"
	EventNameGuildCreated    = "guild_created"
	EventNameGuildJoined     = "guild_member_joined"
	EventNameGuildLeft       = "guild_member_left"
	EventNameGuildDisbanded  = "guild_disbanded"
	EventNameGuildLeader     = "guild_leadership_transferred"
	EventNameGuildTreasury   = "guild_treasury_changed"
	EventNameInconsistency   = "consistency_violation"
)
