package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nexumi/nexumi-core/internal/domain"
	"github.com/nexumi/nexumi-core/internal/index"
	"github.com/nexumi/nexumi-core/internal/logger"
	"github.com/nexumi/nexumi-core/internal/repository"
)

// Documents implements repository.Documents over one JSONB table per collection.
// Optimistic concurrency uses the version column; unique indexes are expression
// indexes derived from the index plan.
type Documents struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

var _ repository.Documents = (*Documents)(nil)

// NewDocuments creates a Documents store on pool
func NewDocuments(pool *pgxpool.Pool) *Documents {
	return &Documents{
		pool: pool,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func table(c domain.Collection) (string, error) {
	if !c.Valid() {
		return "", fmt.Errorf("%w: unknown collection %q", domain.ErrInvalidInput, c)
	}
	return pgx.Identifier{string(c)}.Sanitize(), nil
}

// EnsureIndexes creates every planned index that does not exist yet
func (d *Documents) EnsureIndexes(ctx context.Context) error {
	log := logger.FromContext(ctx)
	for _, c := range domain.Collections {
		stmts, err := index.DDL(c)
		if err != nil {
			return err
		}
		for _, stmt := range stmts {
			if _, err := d.pool.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("failed to create index on %s: %w", c, err)
			}
		}
		log.Debug("Indexes ensured", "collection", c, "count", len(stmts))
	}
	return nil
}

// Insert stores a new document at version 1
func (d *Documents) Insert(ctx context.Context, c domain.Collection, id string, body []byte) (repository.Record, error) {
	tbl, err := table(c)
	if err != nil {
		return repository.Record{}, err
	}

	now := d.now()
	query := fmt.Sprintf(`INSERT INTO %s (id, version, doc, created_at, updated_at)
		VALUES ($1, 1, $2, $3, $3)`, tbl)
	if _, err := d.pool.Exec(ctx, query, id, body, now); err != nil {
		return repository.Record{}, mapError(c, id, err)
	}
	return repository.Record{ID: id, Version: 1, Body: body, CreatedAt: now, UpdatedAt: now}, nil
}

// Get returns the current version of a document
func (d *Documents) Get(ctx context.Context, c domain.Collection, id string) (repository.Record, error) {
	tbl, err := table(c)
	if err != nil {
		return repository.Record{}, err
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, documentColumns, tbl)
	rec, err := scanRecord(d.pool.QueryRow(ctx, query, id))
	if err != nil {
		return repository.Record{}, mapError(c, id, err)
	}
	return rec, nil
}

// Replace writes body only if the stored version still equals version
func (d *Documents) Replace(ctx context.Context, c domain.Collection, id string, version int64, body []byte) (repository.Record, error) {
	tbl, err := table(c)
	if err != nil {
		return repository.Record{}, err
	}

	query := fmt.Sprintf(`UPDATE %s SET doc = $3, version = version + 1, updated_at = $4
		WHERE id = $1 AND version = $2
		RETURNING %s`, tbl, documentColumns)
	rec, err := scanRecord(d.pool.QueryRow(ctx, query, id, version, body, d.now()))
	if err == nil {
		return rec, nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.Record{}, d.missOrConflict(ctx, c, tbl, id, version)
	}
	return repository.Record{}, mapError(c, id, err)
}

// Delete removes the document only if the stored version still equals version
func (d *Documents) Delete(ctx context.Context, c domain.Collection, id string, version int64) error {
	tbl, err := table(c)
	if err != nil {
		return err
	}

	tag, err := d.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND version = $2`, tbl), id, version)
	if err != nil {
		return mapError(c, id, err)
	}
	if tag.RowsAffected() == 0 {
		return d.missOrConflict(ctx, c, tbl, id, version)
	}
	return nil
}

// Find returns documents matching q
func (d *Documents) Find(ctx context.Context, c domain.Collection, q repository.Query) ([]repository.Record, error) {
	tbl, err := table(c)
	if err != nil {
		return nil, err
	}

	b := &queryBuilder{}
	where, err := b.where(q.Filters)
	if err != nil {
		return nil, err
	}
	order, err := b.orderBy(q.Sort)
	if err != nil {
		return nil, err
	}

	sql := fmt.Sprintf(`SELECT %s FROM %s%s%s`, documentColumns, tbl, where, order)
	if q.Limit > 0 {
		sql += " LIMIT " + b.arg(q.Limit)
	}
	if q.Offset > 0 {
		sql += " OFFSET " + b.arg(q.Offset)
	}

	rows, err := d.pool.Query(ctx, sql, b.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", c, err)
	}
	defer rows.Close()

	records := []repository.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", c, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", c, err)
	}
	return records, nil
}

// Count returns the number of documents matching every filter
func (d *Documents) Count(ctx context.Context, c domain.Collection, filters ...repository.Filter) (int, error) {
	tbl, err := table(c)
	if err != nil {
		return 0, err
	}

	b := &queryBuilder{}
	where, err := b.where(filters)
	if err != nil {
		return 0, err
	}

	var n int
	if err := d.pool.QueryRow(ctx, fmt.Sprintf(`SELECT count(*) FROM %s%s`, tbl, where), b.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", c, err)
	}
	return n, nil
}

// Ping checks the database connection
func (d *Documents) Ping(ctx context.Context) error {
	return d.pool.Ping(ctx)
}

// missOrConflict tells a missing row from a stale version after a guarded write matched nothing
func (d *Documents) missOrConflict(ctx context.Context, c domain.Collection, tbl, id string, version int64) error {
	var current int64
	err := d.pool.QueryRow(ctx, fmt.Sprintf(`SELECT version FROM %s WHERE id = $1`, tbl), id).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s %s", domain.ErrNotFound, c, id)
	}
	if err != nil {
		return fmt.Errorf("failed to read version of %s %s: %w", c, id, err)
	}
	return fmt.Errorf("%w: %s %s at version %d, expected %d", domain.ErrConflict, c, id, current, version)
}

func scanRecord(row pgx.Row) (repository.Record, error) {
	var rec repository.Record
	err := row.Scan(&rec.ID, &rec.Version, &rec.Body, &rec.CreatedAt, &rec.UpdatedAt)
	return rec, err
}

func mapError(c domain.Collection, id string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s %s", domain.ErrNotFound, c, id)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case PgErrorCodeUniqueViolation:
			return fmt.Errorf("%w: %s violates %s", domain.ErrDuplicateKey, c, pgErr.ConstraintName)
		case PgErrorCodeCheckViolation:
			return fmt.Errorf("%w: %s", domain.ErrInvalidState, pgErr.Message)
		}
	}
	return fmt.Errorf("%s %s: %w", c, id, err)
}
