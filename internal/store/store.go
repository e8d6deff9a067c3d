// Package store is the typed entity store: validated creates, reads and
// optimistic read-modify-write updates over a document substrate.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/nexumi/nexumi-core/internal/domain"
	"github.com/nexumi/nexumi-core/internal/logger"
	"github.com/nexumi/nexumi-core/internal/metrics"
	"github.com/nexumi/nexumi-core/internal/repository"
	"github.com/nexumi/nexumi-core/internal/telemetry"
	"github.com/nexumi/nexumi-core/internal/validation"
)

// ErrUnchanged may be returned by a Mutation to report that the entity is
// already in the desired state. Update then returns the current snapshot
// without writing.
var ErrUnchanged = errors.New("entity unchanged")

// Mutation edits a private copy of the current entity. It must be pure: it may
// run several times when concurrent writers force a retry.
type Mutation[T any] func(v *T) error

// Snapshot is an entity as read or written at a specific version
type Snapshot[T any] struct {
	Value     *T
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Repository stores entities of one collection
type Repository[T any] struct {
	coll      domain.Collection
	docs      repository.Documents
	validator validation.Validator
	idOf      func(*T) string
	cfg       Config
}

// New creates a Repository for coll. idOf returns the entity's primary key.
func New[T any](coll domain.Collection, docs repository.Documents, validator validation.Validator, idOf func(*T) string, cfg Config) *Repository[T] {
	return &Repository[T]{
		coll:      coll,
		docs:      docs,
		validator: validator,
		idOf:      idOf,
		cfg:       cfg.withDefaults(),
	}
}

// Collection returns the collection this repository writes to
func (r *Repository[T]) Collection() domain.Collection {
	return r.coll
}

// Create validates and inserts a new entity.
// Any unique index violation fails with domain.ErrDuplicateKey.
func (r *Repository[T]) Create(ctx context.Context, v *T) (*Snapshot[T], error) {
	id := r.idOf(v)
	if id == "" {
		return nil, domain.NewValidationError(r.coll, r.coll.IDField(), "is required")
	}

	body, err := r.encode(v)
	if err != nil {
		return nil, err
	}

	rec, err := r.docs.Insert(ctx, r.coll, id, body)
	if err != nil {
		return nil, err
	}
	metrics.StoreWrites.WithLabelValues(string(r.coll), "create").Inc()
	return r.decode(rec)
}

// Get reads the current snapshot of an entity
func (r *Repository[T]) Get(ctx context.Context, id string) (*Snapshot[T], error) {
	rec, err := r.docs.Get(ctx, r.coll, id)
	if err != nil {
		return nil, err
	}
	return r.decode(rec)
}

// Find returns the entities matching q
func (r *Repository[T]) Find(ctx context.Context, q repository.Query) ([]*Snapshot[T], error) {
	recs, err := r.docs.Find(ctx, r.coll, q)
	if err != nil {
		return nil, err
	}
	out := make([]*Snapshot[T], 0, len(recs))
	for _, rec := range recs {
		snap, err := r.decode(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, nil
}

// FindOne returns the first entity matching the filters or domain.ErrNotFound
func (r *Repository[T]) FindOne(ctx context.Context, filters ...repository.Filter) (*Snapshot[T], error) {
	found, err := r.Find(ctx, repository.Query{Filters: filters, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, r.coll)
	}
	return found[0], nil
}

// Count returns the number of entities matching the filters
func (r *Repository[T]) Count(ctx context.Context, filters ...repository.Filter) (int, error) {
	return r.docs.Count(ctx, r.coll, filters...)
}

// Update applies mutate to the latest snapshot and commits it with
// compare-and-swap on the version counter. A concurrent write causes a fresh
// read and another attempt, with exponential backoff, up to MaxAttempts.
// Exhaustion returns domain.ErrConflict. Errors from mutate, validation and
// the substrate (other than conflicts) are returned immediately.
func (r *Repository[T]) Update(ctx context.Context, id string, mutate Mutation[T]) (*Snapshot[T], error) {
	ctx, span := telemetry.Tracer().Start(ctx, "store.Update")
	defer span.End()
	span.SetAttributes(attribute.String("collection", string(r.coll)), attribute.String("id", id))

	attempts := 0
	op := func() (*Snapshot[T], error) {
		attempts++

		current, err := r.Get(ctx, id)
		if err != nil {
			return nil, backoff.Permanent(err)
		}

		if err := mutate(current.Value); err != nil {
			if errors.Is(err, ErrUnchanged) {
				return current, nil
			}
			return nil, backoff.Permanent(err)
		}

		if got := r.idOf(current.Value); got != id {
			return nil, backoff.Permanent(domain.NewValidationError(r.coll, r.coll.IDField(), "is immutable"))
		}

		body, err := r.encode(current.Value)
		if err != nil {
			return nil, backoff.Permanent(err)
		}

		rec, err := r.docs.Replace(ctx, r.coll, id, current.Version, body)
		if err != nil {
			if errors.Is(err, domain.ErrConflict) {
				metrics.StoreConflicts.WithLabelValues(string(r.coll)).Inc()
				return nil, err
			}
			return nil, backoff.Permanent(err)
		}

		metrics.StoreWrites.WithLabelValues(string(r.coll), "update").Inc()
		snap, err := r.decode(rec)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		return snap, nil
	}

	snap, err := backoff.RetryWithData(op, r.backoff(ctx))
	span.SetAttributes(attribute.Int("attempts", attempts))
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			metrics.StoreRetriesExhausted.WithLabelValues(string(r.coll)).Inc()
			logger.FromContext(ctx).Warn("Optimistic update gave up", "collection", r.coll, "id", id, "attempts", attempts)
			err = fmt.Errorf("%w: %s %s after %d attempts", domain.ErrConflict, r.coll, id, attempts)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return snap, nil
}

// Delete removes an entity. guard, when set, inspects the latest snapshot and
// may veto the delete; the delete is retried like Update on conflict.
func (r *Repository[T]) Delete(ctx context.Context, id string, guard func(*T) error) error {
	op := func() (struct{}, error) {
		current, err := r.Get(ctx, id)
		if err != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		if guard != nil {
			if err := guard(current.Value); err != nil {
				return struct{}{}, backoff.Permanent(err)
			}
		}
		err = r.docs.Delete(ctx, r.coll, id, current.Version)
		if err != nil && !errors.Is(err, domain.ErrConflict) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}

	_, err := backoff.RetryWithData(op, r.backoff(ctx))
	if err != nil {
		return err
	}
	metrics.StoreWrites.WithLabelValues(string(r.coll), "delete").Inc()
	return nil
}

func (r *Repository[T]) backoff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.cfg.InitialInterval
	b.MaxInterval = r.cfg.MaxInterval
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(r.cfg.MaxAttempts-1)), ctx)
}

func (r *Repository[T]) encode(v *T) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s document: %w", r.coll, err)
	}
	if err := r.validator.Validate(r.coll, body); err != nil {
		return nil, err
	}
	return body, nil
}

func (r *Repository[T]) decode(rec repository.Record) (*Snapshot[T], error) {
	v := new(T)
	if err := json.Unmarshal(rec.Body, v); err != nil {
		return nil, fmt.Errorf("failed to decode %s %s: %w", r.coll, rec.ID, err)
	}
	return &Snapshot[T]{Value: v, Version: rec.Version, CreatedAt: rec.CreatedAt, UpdatedAt: rec.UpdatedAt}, nil
}
