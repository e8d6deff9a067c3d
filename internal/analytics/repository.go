package analytics

import (
	"context"

	"github.com/nexumi/nexumi-core/internal/domain"
	"github.com/nexumi/nexumi-core/internal/index"
	"github.com/nexumi/nexumi-core/internal/repository"
	"github.com/nexumi/nexumi-core/internal/store"
)

// StoreRepository keeps analytics events in the document store's analytics
// collection
type StoreRepository struct {
	events *store.Repository[domain.AnalyticsEvent]
}

var _ repository.Analytics = (*StoreRepository)(nil)

// NewStoreRepository creates a document-store backed analytics repository
func NewStoreRepository(events *store.Repository[domain.AnalyticsEvent]) *StoreRepository {
	return &StoreRepository{events: events}
}

// Append inserts the event; a repeated event id fails with domain.ErrDuplicateKey
func (r *StoreRepository) Append(ctx context.Context, e *domain.AnalyticsEvent) error {
	_, err := r.events.Create(ctx, e)
	return err
}

// Find returns matching events newest first
func (r *StoreRepository) Find(ctx context.Context, f repository.AnalyticsFilter) ([]domain.AnalyticsEvent, error) {
	q := repository.Query{
		Sort:  []repository.Sort{{Field: "timestamp", Desc: true, Kind: index.KindTime}},
		Limit: f.Limit,
	}
	if f.EventName != "" {
		q.Filters = append(q.Filters, repository.Eq("event_name", f.EventName))
	}
	if f.SessionID != "" {
		q.Filters = append(q.Filters, repository.Eq("session_id", f.SessionID))
	}
	if !f.Since.IsZero() {
		q.Filters = append(q.Filters, repository.Filter{Field: "timestamp", Op: repository.OpGte, Value: f.Since})
	}

	snaps, err := r.events.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]domain.AnalyticsEvent, 0, len(snaps))
	for _, snap := range snaps {
		out = append(out, *snap.Value)
	}
	return out, nil
}
