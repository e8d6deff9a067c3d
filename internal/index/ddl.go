package index

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/nexumi/nexumi-core/internal/domain"
)

var safePath = regexp.MustCompile(`^[a-z_][a-z0-9_.]*$`)

// ValidPath reports whether a field path is safe to render into SQL
func ValidPath(path string) bool {
	return safePath.MatchString(path)
}

// TextExpr renders the jsonb text accessor for a dotted path, e.g. doc #>> '{position,world_id}'
func TextExpr(path string) string {
	if !strings.Contains(path, ".") {
		return fmt.Sprintf("doc->>'%s'", path)
	}
	return fmt.Sprintf("doc#>>'{%s}'", strings.ReplaceAll(path, ".", ","))
}

// Expr renders the SQL expression indexed for a field. Time fields stay as
// text: RFC 3339 UTC strings sort chronologically and a timestamptz cast is
// not immutable, so it cannot appear in an index.
func Expr(f Field) string {
	switch f.Kind {
	case KindNumber:
		return "((" + TextExpr(f.Path) + ")::numeric)"
	default:
		return "(" + TextExpr(f.Path) + ")"
	}
}

// DDL renders CREATE INDEX statements for a collection's table
func DDL(coll domain.Collection) ([]string, error) {
	specs := RequiredIndexes(coll)
	stmts := make([]string, 0, len(specs))
	for _, s := range specs {
		cols := make([]string, 0, len(s.Fields))
		var notNull []string
		for _, f := range s.Fields {
			if !ValidPath(f.Path) {
				return nil, fmt.Errorf("%w: unsafe index path %q", domain.ErrInvalidInput, f.Path)
			}
			col := Expr(f)
			if f.Order == Desc {
				col += " DESC"
			}
			cols = append(cols, col)
			notNull = append(notNull, TextExpr(f.Path)+" IS NOT NULL")
		}

		kind := "INDEX"
		if s.Unique {
			kind = "UNIQUE INDEX"
		}
		stmt := fmt.Sprintf("CREATE %s IF NOT EXISTS %s ON %s (%s)", kind, s.Name, coll, strings.Join(cols, ", "))
		if s.Sparse {
			stmt += " WHERE " + strings.Join(notNull, " AND ")
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}
