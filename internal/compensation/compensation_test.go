package compensation

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexumi/nexumi-core/internal/event"
	"github.com/nexumi/nexumi-core/internal/metrics"
)

func TestRollback_ReverseOrder(t *testing.T) {
	var order []string
	p := New("test_reverse", nil, nil)
	p.Committed("first", func(context.Context) error { order = append(order, "first"); return nil })
	p.Committed("second", func(context.Context) error { order = append(order, "second"); return nil })

	require.NoError(t, p.Rollback(context.Background(), errors.New("step three failed")))
	assert.Equal(t, []string{"second", "first"}, order)

	require.NoError(t, p.Rollback(context.Background(), nil), "a plan rolls back once")
	assert.Len(t, order, 2)
}

func TestRollback_ReportsFailedUndo(t *testing.T) {
	bus := event.NewMemoryBus()
	var got []event.ConsistencyViolationPayloadV1
	bus.Subscribe(event.ConsistencyViolation, func(_ context.Context, evt event.Event) error {
		got = append(got, evt.Payload.(event.ConsistencyViolationPayloadV1))
		return nil
	})

	before := testutil.ToFloat64(metrics.Inconsistencies.WithLabelValues("test_failed"))

	ran := false
	undoErr := errors.New("store unavailable")
	p := New("test_failed", map[string]string{"listing_id": "l1"}, bus)
	p.Committed("debit_buyer", func(context.Context) error { ran = true; return nil })
	p.Committed("credit_seller", func(context.Context) error { return undoErr })

	err := p.Rollback(context.Background(), errors.New("listing no longer active"))
	assert.ErrorIs(t, err, undoErr)
	assert.True(t, ran, "earlier steps still run after a failed undo")

	require.Len(t, got, 1)
	assert.Equal(t, "test_failed", got[0].Operation)
	assert.Equal(t, "credit_seller", got[0].Step)
	assert.Equal(t, "l1", got[0].Entities["listing_id"])
	assert.Equal(t, "listing no longer active", got[0].Cause)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.Inconsistencies.WithLabelValues("test_failed")))
}

func TestRollback_IgnoresCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New("test_cancel", nil, nil)
	var sawErr error
	p.Committed("undo", func(ctx context.Context) error { sawErr = ctx.Err(); return nil })

	require.NoError(t, p.Rollback(ctx, nil))
	assert.NoError(t, sawErr)
}
