package domain

import "time"

// ListingStatus is the marketplace listing state.
// active is the only non-terminal state.
type ListingStatus string

// Listing statuses
const (
	ListingActive    ListingStatus = "active"
	ListingSold      ListingStatus = "sold"
	ListingCancelled ListingStatus = "cancelled"
	ListingExpired   ListingStatus = "expired"
)

// Valid reports whether s is a known status
func (s ListingStatus) Valid() bool {
	switch s {
	case ListingActive, ListingSold, ListingCancelled, ListingExpired:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed
func (s ListingStatus) Terminal() bool {
	return s != ListingActive
}

// CanTransition reports whether from -> to is a legal listing transition
func CanTransition(from, to ListingStatus) bool {
	if from != ListingActive {
		return false
	}
	switch to {
	case ListingSold, ListingCancelled, ListingExpired:
		return true
	default:
		return false
	}
}

// Listing is a marketplace listing. ReservedItems are the exact inventory
// stacks removed from the seller when the listing was created.
type Listing struct {
	ListingID     string          `json:"listing_id"`
	SellerID      string          `json:"seller_id"`
	ItemID        string          `json:"item_id"`
	Quantity      int             `json:"quantity"`
	Price         int             `json:"price"`
	Category      string          `json:"category,omitempty"`
	Description   string          `json:"description,omitempty"`
	Condition     string          `json:"condition,omitempty"`
	ReservedItems []InventoryItem `json:"reserved_items"`
	Status        ListingStatus   `json:"status"`
	BuyerID       string          `json:"buyer_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	ExpiresAt     time.Time       `json:"expires_at"`
	ClosedAt      *time.Time      `json:"closed_at,omitempty"`
}

// ListingIDOf returns the document id
func ListingIDOf(l *Listing) string {
	return l.ListingID
}

// Expired reports whether an active listing is past its expiry at now
func (l *Listing) Expired(now time.Time) bool {
	return l.Status == ListingActive && l.ExpiresAt.Before(now)
}

// Close moves the listing into a terminal state
func (l *Listing) Close(to ListingStatus, at time.Time) error {
	if !CanTransition(l.Status, to) {
		return ErrListingNotActive
	}
	l.Status = to
	l.ClosedAt = &at
	return nil
}
