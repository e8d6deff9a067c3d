package repository

import (
	"context"
	"time"

	"github.com/nexumi/nexumi-core/internal/domain"
	"github.com/nexumi/nexumi-core/internal/index"
)

// Record is a stored document with its concurrency version
type Record struct {
	ID        string
	Version   int64
	Body      []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Op is a filter comparison
type Op string

// Filter comparisons
const (
	OpEq  Op = "eq"
	OpNe  Op = "ne"
	OpLt  Op = "lt"
	OpLte Op = "lte"
	OpGt  Op = "gt"
	OpGte Op = "gte"
)

// Filter restricts a query to documents whose field compares to Value.
// The Go type of Value selects the comparison: string, numeric, bool or time.Time.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Eq is shorthand for an equality filter
func Eq(field string, value any) Filter {
	return Filter{Field: field, Op: OpEq, Value: value}
}

// Sort orders query results by one field
type Sort struct {
	Field string
	Desc  bool
	Kind  index.Kind
}

// Query selects documents from one collection. All filters must match.
type Query struct {
	Filters []Filter
	Sort    []Sort
	Limit   int
	Offset  int
}

// Documents is the persistence substrate: per-document compare-and-swap on a
// version counter, unique index enforcement and filtered queries.
//
// Errors wrap domain.ErrNotFound, domain.ErrDuplicateKey or domain.ErrConflict.
type Documents interface {
	// Insert stores a new document at version 1
	Insert(ctx context.Context, coll domain.Collection, id string, body []byte) (Record, error)
	Get(ctx context.Context, coll domain.Collection, id string) (Record, error)
	// Replace writes body only if the stored version still equals version
	Replace(ctx context.Context, coll domain.Collection, id string, version int64, body []byte) (Record, error)
	// Delete removes the document only if the stored version still equals version
	Delete(ctx context.Context, coll domain.Collection, id string, version int64) error
	Find(ctx context.Context, coll domain.Collection, q Query) ([]Record, error)
	Count(ctx context.Context, coll domain.Collection, filters ...Filter) (int, error)
	Ping(ctx context.Context) error
}
