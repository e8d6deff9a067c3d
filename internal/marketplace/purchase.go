package marketplace

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/nexumi/nexumi-core/internal/compensation"
	"github.com/nexumi/nexumi-core/internal/domain"
	"github.com/nexumi/nexumi-core/internal/event"
	"github.com/nexumi/nexumi-core/internal/logger"
	"github.com/nexumi/nexumi-core/internal/telemetry"
)

// Purchase commits in a fixed order: buyer (debit and receive items), seller
// (credit), then the listing flip to sold. The flip is the commit point; if
// it fails the buyer and seller writes are compensated in reverse order.
func (s *service) Purchase(ctx context.Context, buyerID, listingID string) (result *PurchaseResult, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "marketplace.Purchase")
	defer span.End()
	defer func() { record(OpPurchase, err) }()
	span.SetAttributes(attribute.String("buyer_id", buyerID), attribute.String("listing_id", listingID))

	log := logger.FromContext(ctx)
	now := s.now()

	listing, err := s.Get(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.Status != domain.ListingActive || listing.Expired(now) {
		return nil, domain.ErrListingNotActive
	}
	if listing.SellerID == buyerID {
		return nil, domain.ErrSelfPurchase
	}
	if _, err := s.activePlayer(ctx, listing.SellerID); err != nil {
		return nil, err
	}

	plan := compensation.New(OpPurchase, map[string]string{
		"listing_id": listingID,
		"buyer_id":   buyerID,
		"seller_id":  listing.SellerID,
	}, s.bus)

	buyer, err := s.players.Update(ctx, buyerID, func(p *domain.Player) error {
		if p.Archived {
			return domain.ErrPlayerArchived
		}
		if err := p.Debit(listing.Price); err != nil {
			return err
		}
		p.GiveItems(listing.ReservedItems...)
		return nil
	})
	if err != nil {
		return nil, playerNotFound(err)
	}
	plan.Committed(StepDebitBuyer, func(ctx context.Context) error {
		_, err := s.players.Update(ctx, buyerID, func(p *domain.Player) error {
			if err := p.RemoveExact(listing.ReservedItems...); err != nil {
				return err
			}
			p.Credit(listing.Price)
			return nil
		})
		return err
	})

	if _, err := s.players.Update(ctx, listing.SellerID, func(p *domain.Player) error {
		p.Credit(listing.Price)
		return nil
	}); err != nil {
		_ = plan.Rollback(ctx, err)
		return nil, err
	}
	plan.Committed(StepCreditSeller, func(ctx context.Context) error {
		_, err := s.players.Update(ctx, listing.SellerID, func(p *domain.Player) error {
			return p.Debit(listing.Price)
		})
		return err
	})

	sold, err := s.listings.Update(ctx, listingID, func(l *domain.Listing) error {
		if l.Expired(now) {
			return domain.ErrListingNotActive
		}
		if err := l.Close(domain.ListingSold, now); err != nil {
			return err
		}
		l.BuyerID = buyerID
		return nil
	})
	if err != nil {
		_ = plan.Rollback(ctx, err)
		return nil, listingNotFound(err)
	}

	log.Info(LogMsgListingSold, "listing_id", listingID, "buyer_id", buyerID, "seller_id", listing.SellerID, "price", listing.Price)
	s.publish(ctx, event.ListingSold, sold.Value, now)
	return &PurchaseResult{Listing: sold.Value, Buyer: buyer.Value}, nil
}
