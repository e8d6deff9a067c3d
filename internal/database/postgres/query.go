package postgres

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nexumi/nexumi-core/internal/domain"
	"github.com/nexumi/nexumi-core/internal/index"
	"github.com/nexumi/nexumi-core/internal/repository"
)

// queryBuilder renders filters and sorts into SQL with positional arguments.
// Field paths are checked against index.ValidPath before being rendered.
type queryBuilder struct {
	args []any
}

func (b *queryBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return "$" + strconv.Itoa(len(b.args))
}

func (b *queryBuilder) where(filters []repository.Filter) (string, error) {
	if len(filters) == 0 {
		return "", nil
	}
	clauses := make([]string, 0, len(filters))
	for _, f := range filters {
		clause, err := b.filter(f)
		if err != nil {
			return "", err
		}
		clauses = append(clauses, clause)
	}
	return " WHERE " + strings.Join(clauses, " AND "), nil
}

func (b *queryBuilder) filter(f repository.Filter) (string, error) {
	if !index.ValidPath(f.Field) {
		return "", fmt.Errorf("%w: invalid filter field %q", domain.ErrInvalidInput, f.Field)
	}
	op, ok := sqlOps[string(f.Op)]
	if !ok {
		return "", fmt.Errorf("%w: unknown operator %q", domain.ErrInvalidInput, f.Op)
	}

	text := index.TextExpr(f.Field)
	var expr string
	switch v := f.Value.(type) {
	case time.Time:
		expr = "(" + text + ")::timestamptz"
		return fmt.Sprintf("%s %s %s", expr, op, b.arg(v.UTC())), nil
	case string:
		expr = text
	case bool:
		if f.Op != repository.OpEq && f.Op != repository.OpNe {
			return "", fmt.Errorf("%w: operator %s not supported for bool field %s", domain.ErrInvalidInput, f.Op, f.Field)
		}
		expr = "(" + text + ")::boolean"
	case int, int32, int64, float32, float64:
		expr = "(" + text + ")::numeric"
	default:
		return "", fmt.Errorf("%w: unsupported filter value %T for %s", domain.ErrInvalidInput, f.Value, f.Field)
	}
	return fmt.Sprintf("%s %s %s", expr, op, b.arg(f.Value)), nil
}

func (b *queryBuilder) orderBy(sorts []repository.Sort) (string, error) {
	parts := make([]string, 0, len(sorts)+1)
	for _, s := range sorts {
		if !index.ValidPath(s.Field) {
			return "", fmt.Errorf("%w: invalid sort field %q", domain.ErrInvalidInput, s.Field)
		}
		var expr string
		switch s.Kind {
		case index.KindNumber:
			expr = "(" + index.TextExpr(s.Field) + ")::numeric"
		case index.KindTime:
			expr = "(" + index.TextExpr(s.Field) + ")::timestamptz"
		default:
			expr = index.TextExpr(s.Field)
		}
		if s.Desc {
			expr += " DESC"
		}
		parts = append(parts, expr+" NULLS LAST")
	}
	parts = append(parts, "id")
	return " ORDER BY " + strings.Join(parts, ", "), nil
}
