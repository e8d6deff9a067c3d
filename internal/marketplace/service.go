// Package marketplace implements player-to-player trading. A trade touches
// three documents (buyer, seller and listing); each is written with an
// optimistic update in a fixed order and earlier writes are compensated if a
// later one fails.
package marketplace

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nexumi/nexumi-core/internal/domain"
	"github.com/nexumi/nexumi-core/internal/event"
	"github.com/nexumi/nexumi-core/internal/index"
	"github.com/nexumi/nexumi-core/internal/logger"
	"github.com/nexumi/nexumi-core/internal/metrics"
	"github.com/nexumi/nexumi-core/internal/repository"
	"github.com/nexumi/nexumi-core/internal/store"
)

// ListRequest describes items a seller puts up for sale
type ListRequest struct {
	ItemID      string
	Quantity    int
	Price       int
	Category    string
	Description string
	Condition   string
	// TTL overrides the configured listing lifetime when positive
	TTL time.Duration
}

// ListingFilter narrows a listing search. Zero fields match everything.
type ListingFilter struct {
	Status   domain.ListingStatus
	Category string
	SellerID string
	ItemID   string
	MaxPrice int
	SortBy   string
	Desc     bool
	Limit    int
	Offset   int
}

// PurchaseResult is the committed outcome of a purchase
type PurchaseResult struct {
	Listing *domain.Listing
	Buyer   *domain.Player
}

// SweepResult summarises one expiry sweep
type SweepResult struct {
	Scanned int
	Expired int
	Skipped int
	Failed  int
}

// Service defines marketplace operations
type Service interface {
	List(ctx context.Context, sellerID string, req ListRequest) (*domain.Listing, error)
	Purchase(ctx context.Context, buyerID, listingID string) (*PurchaseResult, error)
	Cancel(ctx context.Context, sellerID, listingID string) (*domain.Listing, error)
	ExpireSweep(ctx context.Context, now time.Time, batch int) (*SweepResult, error)
	Get(ctx context.Context, listingID string) (*domain.Listing, error)
	Search(ctx context.Context, filter ListingFilter) ([]domain.Listing, error)
}

// Config holds marketplace settings
type Config struct {
	ListingTTL     time.Duration
	SweepBatchSize int
}

// DefaultConfig returns the default marketplace settings
func DefaultConfig() Config {
	return Config{ListingTTL: domain.DefaultListingTTL, SweepBatchSize: DefaultSweepBatchSize}
}

type service struct {
	players  *store.Repository[domain.Player]
	listings *store.Repository[domain.Listing]
	bus      event.Bus
	cfg      Config
	now      func() time.Time
	newID    func() string
}

// NewService creates a new marketplace service. bus may be nil.
func NewService(players *store.Repository[domain.Player], listings *store.Repository[domain.Listing], bus event.Bus, cfg Config) Service {
	if cfg.ListingTTL <= 0 {
		cfg.ListingTTL = domain.DefaultListingTTL
	}
	if cfg.SweepBatchSize <= 0 {
		cfg.SweepBatchSize = DefaultSweepBatchSize
	}
	return &service{
		players:  players,
		listings: listings,
		bus:      bus,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    newListingID,
	}
}

func (s *service) Get(ctx context.Context, listingID string) (*domain.Listing, error) {
	snap, err := s.listings.Get(ctx, listingID)
	if err != nil {
		return nil, listingNotFound(err)
	}
	return snap.Value, nil
}

func (s *service) Search(ctx context.Context, f ListingFilter) ([]domain.Listing, error) {
	q := repository.Query{Limit: f.Limit, Offset: f.Offset}
	if q.Limit <= 0 {
		q.Limit = DefaultSearchLimit
	}
	q.Limit = min(q.Limit, MaxSearchLimit)

	if f.Status != "" {
		q.Filters = append(q.Filters, repository.Eq("status", string(f.Status)))
	}
	if f.Category != "" {
		q.Filters = append(q.Filters, repository.Eq("category", f.Category))
	}
	if f.SellerID != "" {
		q.Filters = append(q.Filters, repository.Eq("seller_id", f.SellerID))
	}
	if f.ItemID != "" {
		q.Filters = append(q.Filters, repository.Eq("item_id", f.ItemID))
	}
	if f.MaxPrice > 0 {
		q.Filters = append(q.Filters, repository.Filter{Field: "price", Op: repository.OpLte, Value: f.MaxPrice})
	}

	switch strings.ToLower(f.SortBy) {
	case SortByPrice:
		q.Sort = []repository.Sort{{Field: "price", Desc: f.Desc, Kind: index.KindNumber}}
	case "", SortByCreatedAt:
		// newest first unless asked otherwise
		q.Sort = []repository.Sort{{Field: "created_at", Desc: f.SortBy == "" || f.Desc, Kind: index.KindTime}}
	default:
		return nil, fmt.Errorf("%w: unknown sort %q", domain.ErrInvalidInput, f.SortBy)
	}

	snaps, err := s.listings.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Listing, 0, len(snaps))
	for _, snap := range snaps {
		out = append(out, *snap.Value)
	}
	return out, nil
}

func (s *service) publish(ctx context.Context, t event.Type, l *domain.Listing, at time.Time) {
	if s.bus == nil {
		return
	}
	evt := event.NewListingEvent(t, l, at, logger.SessionIDFromContext(ctx))
	if err := s.bus.Publish(ctx, evt); err != nil {
		logger.FromContext(ctx).Warn(LogMsgPublishFailed, "type", t, "error", err)
	}
}

func record(op string, err error) {
	metrics.MarketplaceOperations.WithLabelValues(op, metrics.Outcome(err)).Inc()
}

// activePlayer loads a player and rejects archived ones
func (s *service) activePlayer(ctx context.Context, playerID string) (*domain.Player, error) {
	snap, err := s.players.Get(ctx, playerID)
	if err != nil {
		return nil, playerNotFound(err)
	}
	if snap.Value.Archived {
		return nil, domain.ErrPlayerArchived
	}
	return snap.Value, nil
}

func listingNotFound(err error) error {
	if errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrListingNotFound) {
		return domain.ErrListingNotFound
	}
	return err
}

func playerNotFound(err error) error {
	if errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrPlayerNotFound) {
		return domain.ErrPlayerNotFound
	}
	return err
}
