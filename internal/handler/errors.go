package handler

// Generic HTTP error messages for client responses.
// These messages intentionally do not expose internal error details.
const (
	ErrMsgInvalidRequest        = "Invalid request body"
	ErrMsgInvalidRequestSummary = "Invalid request"
	ErrMsgMissingQueryParam     = "Missing %s query parameter"
	ErrMsgInvalidQueryParam     = "Invalid %s query parameter"
	ErrMsgMissingIdentity       = "Player identity required"
)

// User-facing messages for service errors
const (
	ErrMsgGenericServerError = "Something went wrong"
	ErrMsgUnknownError       = "Unknown error"
	ErrMsgValidationFailed   = "Request failed validation"
	ErrMsgAlreadyExists      = "Resource already exists"
	ErrMsgConcurrentUpdate   = "The resource was modified concurrently. Please retry."
	ErrMsgPreconditionFailed = "The request cannot be applied in the current state"
	ErrMsgInvalidStateError  = "The resource is not in a state that allows this action"
	ErrMsgResourceNotFound   = "Resource not found"

	// Player messages
	ErrMsgPlayerNotFound = "Player not found"
	ErrMsgPlayerArchived = "Player account is archived"

	// Marketplace messages
	ErrMsgListingNotFound    = "Listing not found"
	ErrMsgListingNotActive   = "Listing is no longer active"
	ErrMsgNotEnoughMoney     = "Not enough currency"
	ErrMsgNotEnoughItems     = "Not enough items"
	ErrMsgSelfPurchase       = "You cannot buy your own listing"
	ErrMsgNotListingOwner    = "Only the seller can cancel this listing"
	ErrMsgGuildNotFound      = "Guild not found"
	ErrMsgGuildFull          = "Guild is full"
	ErrMsgAlreadyInGuild     = "You already belong to a guild"
	ErrMsgAlreadyGuildMember = "You are already a member of this guild"
	ErrMsgNotGuildMember     = "Not a member of this guild"
	ErrMsgLeaderMustTransfer = "Transfer leadership before leaving the guild"
	ErrMsgNotGuildLeader     = "Only the guild leader can do that"
	ErrMsgNotTreasurer       = "Only the leader or an officer can withdraw"
	ErrMsgApplicationNeeded  = "This guild requires an approved application"
	ErrMsgLevelTooLow        = "Your level is below the guild requirement"
	ErrMsgTreasuryTooLow     = "Not enough in the guild treasury"
	ErrMsgWorldNotFound      = "World not found"
)

// Success messages for API responses
const (
	MsgEventAccepted   = "Event accepted"
	MsgGuildLeft       = "Left guild"
	MsgGuildDisbanded  = "Guild disbanded"
	MsgPlayerArchived  = "Player archived"
	MsgListingCanceled = "Listing cancelled"
)
