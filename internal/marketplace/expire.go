package marketplace

import (
	"context"
	"errors"
	"time"

	"github.com/nexumi/nexumi-core/internal/domain"
	"github.com/nexumi/nexumi-core/internal/event"
	"github.com/nexumi/nexumi-core/internal/index"
	"github.com/nexumi/nexumi-core/internal/logger"
	"github.com/nexumi/nexumi-core/internal/repository"
	"github.com/nexumi/nexumi-core/internal/store"
	"github.com/nexumi/nexumi-core/internal/telemetry"
)

// ExpireSweep expires up to batch active listings whose expires_at is before
// now and returns their reserved stacks. Listings that are no longer active
// when reached are skipped, so concurrent or repeated sweeps are safe.
func (s *service) ExpireSweep(ctx context.Context, now time.Time, batch int) (result *SweepResult, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "marketplace.ExpireSweep")
	defer span.End()
	defer func() { record(OpExpire, err) }()

	if batch <= 0 {
		batch = s.cfg.SweepBatchSize
	}
	log := logger.FromContext(ctx)

	due, err := s.listings.Find(ctx, repository.Query{
		Filters: []repository.Filter{
			repository.Eq("status", string(domain.ListingActive)),
			{Field: "expires_at", Op: repository.OpLt, Value: now},
		},
		Sort:  []repository.Sort{{Field: "expires_at", Kind: index.KindTime}},
		Limit: batch,
	})
	if err != nil {
		return nil, err
	}

	result = &SweepResult{Scanned: len(due)}
	for _, snap := range due {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		expired, err := s.expireOne(ctx, snap.Value.ListingID, now)
		switch {
		case err != nil:
			result.Failed++
			log.Error(LogMsgSweepItemFailed, "listing_id", snap.Value.ListingID, "error", err)
		case expired:
			result.Expired++
		default:
			result.Skipped++
		}
	}

	if result.Scanned > 0 {
		log.Info(LogMsgSweepCompleted, "scanned", result.Scanned, "expired", result.Expired, "skipped", result.Skipped, "failed", result.Failed)
	}
	return result, nil
}

func (s *service) expireOne(ctx context.Context, listingID string, now time.Time) (bool, error) {
	flipped := false
	snap, err := s.listings.Update(ctx, listingID, func(l *domain.Listing) error {
		flipped = false
		if !l.Expired(now) {
			return store.ErrUnchanged
		}
		if err := l.Close(domain.ListingExpired, now); err != nil {
			return err
		}
		flipped = true
		return nil
	})
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !flipped {
		return false, nil
	}

	if err := s.returnReserved(ctx, OpExpire, snap.Value); err != nil {
		return true, err
	}

	logger.FromContext(ctx).Debug(LogMsgListingExpired, "listing_id", listingID)
	s.publish(ctx, event.ListingExpired, snap.Value, now)
	return true, nil
}

// ExpireJob runs one expiry sweep; it is scheduled on the worker pool
type ExpireJob struct {
	Service Service
	Batch   int
	Now     func() time.Time
}

// Process implements worker.Job
func (j *ExpireJob) Process(ctx context.Context) error {
	now := time.Now().UTC()
	if j.Now != nil {
		now = j.Now()
	}
	_, err := j.Service.ExpireSweep(ctx, now, j.Batch)
	return err
}
