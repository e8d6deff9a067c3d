package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error message string constants - single source of truth for error messages
// Use these in assert.Contains() checks when testing error messages
const (
	// Error kinds
	ErrMsgValidation         = "validation failed"
	ErrMsgDuplicateKey       = "duplicate key"
	ErrMsgConflict           = "concurrent modification"
	ErrMsgPreconditionFailed = "precondition failed"
	ErrMsgInvalidState       = "invalid state"
	ErrMsgNotFound           = "not found"

	// Player errors
	ErrMsgPlayerNotFound = "player not found"
	ErrMsgPlayerArchived = "player is archived"

	// Inventory errors
	ErrMsgInsufficientQuantity = "insufficient quantity"
	ErrMsgInsufficientFunds    = "insufficient funds"

	// Marketplace errors
	ErrMsgListingNotFound  = "listing not found"
	ErrMsgListingNotActive = "listing is not active"
	ErrMsgSelfPurchase     = "cannot purchase own listing"
	ErrMsgNotListingOwner  = "only the seller may cancel a listing"
	ErrMsgListingTooLarge  = "listing quantity exceeds maximum"

	// Guild errors
	ErrMsgGuildNotFound        = "guild not found"
	ErrMsgGuildFull            = "guild has reached maximum member limit"
	ErrMsgAlreadyGuildMember   = "already a member of this guild"
	ErrMsgAlreadyInGuild       = "player already belongs to a guild"
	ErrMsgNotGuildMember       = "not a member of this guild"
	ErrMsgLeaderMustTransfer   = "leader must transfer leadership before leaving"
	ErrMsgNotGuildLeader       = "only the guild leader may perform this action"
	ErrMsgNotTreasurer         = "only the leader or an officer may withdraw"
	ErrMsgApplicationRequired  = "guild requires an approved application"
	ErrMsgLevelTooLow          = "player level below guild requirement"
	ErrMsgInsufficientTreasury = "insufficient treasury balance"
	ErrMsgInvalidRole          = "invalid guild role"

	// World errors
	ErrMsgWorldNotFound = "world not found"

	// Input errors
	ErrMsgInvalidInput = "invalid input"
)

// Error kinds. Every error returned across an operation boundary wraps
// exactly one of these so callers can branch with errors.Is.
var (
	ErrValidation         = errors.New(ErrMsgValidation)
	ErrDuplicateKey       = errors.New(ErrMsgDuplicateKey)
	ErrConflict           = errors.New(ErrMsgConflict)
	ErrPreconditionFailed = errors.New(ErrMsgPreconditionFailed)
	ErrInvalidState       = errors.New(ErrMsgInvalidState)
	ErrNotFound           = errors.New(ErrMsgNotFound)
)

// Specific domain errors
var (
	// Player errors
	ErrPlayerNotFound = fmt.Errorf("%w: %s", ErrNotFound, ErrMsgPlayerNotFound)
	ErrPlayerArchived = fmt.Errorf("%w: %s", ErrInvalidState, ErrMsgPlayerArchived)

	// Inventory errors
	ErrInsufficientQuantity = fmt.Errorf("%w: %s", ErrPreconditionFailed, ErrMsgInsufficientQuantity)
	ErrInsufficientFunds    = fmt.Errorf("%w: %s", ErrPreconditionFailed, ErrMsgInsufficientFunds)

	// Marketplace errors
	ErrListingNotFound  = fmt.Errorf("%w: %s", ErrNotFound, ErrMsgListingNotFound)
	ErrListingNotActive = fmt.Errorf("%w: %s", ErrInvalidState, ErrMsgListingNotActive)
	ErrSelfPurchase     = fmt.Errorf("%w: %s", ErrPreconditionFailed, ErrMsgSelfPurchase)
	ErrNotListingOwner  = fmt.Errorf("%w: %s", ErrPreconditionFailed, ErrMsgNotListingOwner)

	// Guild errors
	ErrGuildNotFound        = fmt.Errorf("%w: %s", ErrNotFound, ErrMsgGuildNotFound)
	ErrGuildFull            = fmt.Errorf("%w: %s", ErrPreconditionFailed, ErrMsgGuildFull)
	ErrAlreadyGuildMember   = fmt.Errorf("%w: %s", ErrPreconditionFailed, ErrMsgAlreadyGuildMember)
	ErrAlreadyInGuild       = fmt.Errorf("%w: %s", ErrPreconditionFailed, ErrMsgAlreadyInGuild)
	ErrNotGuildMember       = fmt.Errorf("%w: %s", ErrPreconditionFailed, ErrMsgNotGuildMember)
	ErrLeaderMustTransfer   = fmt.Errorf("%w: %s", ErrInvalidState, ErrMsgLeaderMustTransfer)
	ErrNotGuildLeader       = fmt.Errorf("%w: %s", ErrPreconditionFailed, ErrMsgNotGuildLeader)
	ErrNotTreasurer         = fmt.Errorf("%w: %s", ErrPreconditionFailed, ErrMsgNotTreasurer)
	ErrApplicationRequired  = fmt.Errorf("%w: %s", ErrPreconditionFailed, ErrMsgApplicationRequired)
	ErrLevelTooLow          = fmt.Errorf("%w: %s", ErrPreconditionFailed, ErrMsgLevelTooLow)
	ErrInsufficientTreasury = fmt.Errorf("%w: %s", ErrPreconditionFailed, ErrMsgInsufficientTreasury)

	// World errors
	ErrWorldNotFound = fmt.Errorf("%w: %s", ErrNotFound, ErrMsgWorldNotFound)

	// Input errors
	ErrInvalidInput = fmt.Errorf("%w: %s", ErrValidation, ErrMsgInvalidInput)
	ErrInvalidRole  = fmt.Errorf("%w: %s", ErrValidation, ErrMsgInvalidRole)
)

// ValidationError reports a document that does not satisfy its collection schema.
// Nothing is committed when it is returned.
type ValidationError struct {
	Collection Collection
	Fields     map[string]string
}

// NewValidationError creates a ValidationError with a single field message
func NewValidationError(collection Collection, field, message string) *ValidationError {
	return &ValidationError{
		Collection: collection,
		Fields:     map[string]string{field: message},
	}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return fmt.Sprintf("%s: %s: %s", ErrMsgValidation, e.Collection, strings.Join(parts, "; "))
}

// Is makes errors.Is(err, ErrValidation) match
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
