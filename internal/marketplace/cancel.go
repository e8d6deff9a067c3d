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

// Cancel closes an active listing and returns the reserved stacks to the
// seller. The listing is flipped first so a concurrent purchase cannot also
// receive the items.
func (s *service) Cancel(ctx context.Context, sellerID, listingID string) (listing *domain.Listing, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "marketplace.Cancel")
	defer span.End()
	defer func() { record(OpCancel, err) }()
	span.SetAttributes(attribute.String("seller_id", sellerID), attribute.String("listing_id", listingID))

	now := s.now()
	snap, err := s.listings.Update(ctx, listingID, func(l *domain.Listing) error {
		if l.SellerID != sellerID {
			return domain.ErrNotListingOwner
		}
		return l.Close(domain.ListingCancelled, now)
	})
	if err != nil {
		return nil, listingNotFound(err)
	}

	if err := s.returnReserved(ctx, OpCancel, snap.Value); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info(LogMsgListingCancelled, "listing_id", listingID, "seller_id", sellerID)
	s.publish(ctx, event.ListingCancelled, snap.Value, now)
	return snap.Value, nil
}

// returnReserved gives a closed listing's stacks back to its seller. The
// listing is terminal by now, so a failure can only be reported.
func (s *service) returnReserved(ctx context.Context, op string, l *domain.Listing) error {
	err := s.giveItems(ctx, l.SellerID, l.ReservedItems)
	if err != nil {
		plan := compensation.New(op, map[string]string{"listing_id": l.ListingID, "seller_id": l.SellerID}, s.bus)
		plan.Report(ctx, StepReturnItems, nil, err)
	}
	return err
}
