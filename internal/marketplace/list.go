package marketplace

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/nexumi/nexumi-core/internal/compensation"
	"github.com/nexumi/nexumi-core/internal/domain"
	"github.com/nexumi/nexumi-core/internal/event"
	"github.com/nexumi/nexumi-core/internal/logger"
	"github.com/nexumi/nexumi-core/internal/telemetry"
)

func newListingID() string {
	return "listing_" + uuid.NewString()
}

func validateListRequest(req ListRequest) error {
	switch {
	case strings.TrimSpace(req.ItemID) == "":
		return fmt.Errorf("%w: item id is required", domain.ErrInvalidInput)
	case req.Quantity <= 0:
		return fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidInput)
	case req.Quantity > domain.MaxTransactionQuantity:
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, domain.ErrMsgListingTooLarge)
	case req.Price < 1:
		return fmt.Errorf("%w: price must be at least 1", domain.ErrInvalidInput)
	case req.TTL < 0:
		return fmt.Errorf("%w: ttl must not be negative", domain.ErrInvalidInput)
	}
	return nil
}

// List reserves the items by removing them from the seller's inventory, then
// creates the listing. A failed insert hands the reserved stacks back.
func (s *service) List(ctx context.Context, sellerID string, req ListRequest) (listing *domain.Listing, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "marketplace.List")
	defer span.End()
	defer func() { record(OpList, err) }()
	span.SetAttributes(attribute.String("seller_id", sellerID), attribute.String("item_id", req.ItemID))

	if err := validateListRequest(req); err != nil {
		return nil, err
	}
	ttl := req.TTL
	if ttl == 0 {
		ttl = s.cfg.ListingTTL
	}

	listingID := s.newID()
	plan := compensation.New(OpList, map[string]string{"listing_id": listingID, "seller_id": sellerID}, s.bus)

	var reserved []domain.InventoryItem
	if _, err := s.players.Update(ctx, sellerID, func(p *domain.Player) error {
		if p.Archived {
			return domain.ErrPlayerArchived
		}
		taken, err := p.TakeItems(req.ItemID, req.Quantity)
		if err != nil {
			return err
		}
		reserved = taken
		return nil
	}); err != nil {
		return nil, playerNotFound(err)
	}
	plan.Committed(StepReserveItems, func(ctx context.Context) error {
		return s.giveItems(ctx, sellerID, reserved)
	})

	now := s.now()
	snap, err := s.listings.Create(ctx, &domain.Listing{
		ListingID:     listingID,
		SellerID:      sellerID,
		ItemID:        req.ItemID,
		Quantity:      req.Quantity,
		Price:         req.Price,
		Category:      req.Category,
		Description:   req.Description,
		Condition:     req.Condition,
		ReservedItems: reserved,
		Status:        domain.ListingActive,
		CreatedAt:     now,
		ExpiresAt:     now.Add(ttl),
	})
	if err != nil {
		_ = plan.Rollback(ctx, err)
		return nil, err
	}

	logger.FromContext(ctx).Info(LogMsgListingCreated, "listing_id", listingID, "seller_id", sellerID, "item_id", req.ItemID, "quantity", req.Quantity, "price", req.Price)
	s.publish(ctx, event.ListingCreated, snap.Value, now)
	return snap.Value, nil
}

// giveItems returns stacks to a player, archived or not
func (s *service) giveItems(ctx context.Context, playerID string, items []domain.InventoryItem) error {
	if len(items) == 0 {
		return nil
	}
	_, err := s.players.Update(ctx, playerID, func(p *domain.Player) error {
		p.GiveItems(items...)
		return nil
	})
	return err
}
