package memory

import (
	"fmt"
	"strings"
	"time"

	"github.com/nexumi/nexumi-core/internal/domain"
	"github.com/nexumi/nexumi-core/internal/index"
	"github.com/nexumi/nexumi-core/internal/repository"
)

func matchFilter(doc map[string]any, f repository.Filter) (bool, error) {
	v, present := index.Extract(doc, f.Field)
	if !present || v == nil {
		return f.Op == repository.OpNe, nil
	}

	var cmp int
	switch want := f.Value.(type) {
	case time.Time:
		s, ok := v.(string)
		if !ok {
			return false, nil
		}
		got, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return false, nil
		}
		cmp = got.Compare(want)
	case string:
		s, ok := v.(string)
		if !ok {
			return false, nil
		}
		cmp = strings.Compare(s, want)
	case bool:
		b, ok := v.(bool)
		if !ok {
			return false, nil
		}
		if f.Op != repository.OpEq && f.Op != repository.OpNe {
			return false, fmt.Errorf("%w: operator %s not supported for bool field %s", domain.ErrInvalidInput, f.Op, f.Field)
		}
		if b != want {
			cmp = 1
		}
	default:
		want64, ok := toFloat(f.Value)
		if !ok {
			return false, fmt.Errorf("%w: unsupported filter value %T for %s", domain.ErrInvalidInput, f.Value, f.Field)
		}
		got, ok := v.(float64)
		if !ok {
			return false, nil
		}
		cmp = compareFloat(got, want64)
	}

	switch f.Op {
	case repository.OpEq:
		return cmp == 0, nil
	case repository.OpNe:
		return cmp != 0, nil
	case repository.OpLt:
		return cmp < 0, nil
	case repository.OpLte:
		return cmp <= 0, nil
	case repository.OpGt:
		return cmp > 0, nil
	case repository.OpGte:
		return cmp >= 0, nil
	default:
		return false, fmt.Errorf("%w: unknown operator %q", domain.ErrInvalidInput, f.Op)
	}
}

// compareSort orders two documents by one sort key. Missing values sort last.
func compareSort(a, b map[string]any, o repository.Sort) int {
	av, aok := index.Extract(a, o.Field)
	bv, bok := index.Extract(b, o.Field)
	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return 1
	case !bok:
		return -1
	}

	var cmp int
	switch o.Kind {
	case index.KindNumber:
		x, _ := toFloat(av)
		y, _ := toFloat(bv)
		cmp = compareFloat(x, y)
	case index.KindTime:
		x, _ := time.Parse(time.RFC3339Nano, fmt.Sprint(av))
		y, _ := time.Parse(time.RFC3339Nano, fmt.Sprint(bv))
		cmp = x.Compare(y)
	default:
		cmp = strings.Compare(fmt.Sprint(av), fmt.Sprint(bv))
	}
	if o.Desc {
		return -cmp
	}
	return cmp
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
