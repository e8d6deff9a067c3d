// Package redis stores analytics events in a Redis stream.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nexumi/nexumi-core/internal/domain"
	"github.com/nexumi/nexumi-core/internal/repository"
)

// Analytics appends events to a capped Redis stream
type Analytics struct {
	client *redis.Client
	cfg    Config
}

var _ repository.Analytics = (*Analytics)(nil)

// New connects to Redis at cfg.URL and verifies the connection
func New(ctx context.Context, cfg Config) (*Analytics, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdle

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to reach redis: %w", err)
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient wraps an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Analytics {
	def := DefaultConfig()
	if cfg.Stream == "" {
		cfg.Stream = def.Stream
	}
	if cfg.ScanLimit <= 0 {
		cfg.ScanLimit = def.ScanLimit
	}
	if cfg.DedupTTL <= 0 {
		cfg.DedupTTL = def.DedupTTL
	}
	return &Analytics{client: client, cfg: cfg}
}

// Close closes the Redis connection
func (a *Analytics) Close() error {
	return a.client.Close()
}

// Ping checks connectivity
func (a *Analytics) Ping(ctx context.Context) error {
	return a.client.Ping(ctx).Err()
}

// Append adds e to the stream. An event id seen within DedupTTL fails with
// domain.ErrDuplicateKey so retried writes do not double count.
func (a *Analytics) Append(ctx context.Context, e *domain.AnalyticsEvent) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode analytics event: %w", err)
	}

	fresh, err := a.client.SetNX(ctx, dedupPrefix+e.EventID, 1, a.cfg.DedupTTL).Result()
	if err != nil {
		return err
	}
	if !fresh {
		return fmt.Errorf("%w: analytics event %s", domain.ErrDuplicateKey, e.EventID)
	}

	args := &redis.XAddArgs{
		Stream: a.cfg.Stream,
		Values: map[string]any{fieldEventID: e.EventID, fieldData: data},
	}
	if a.cfg.MaxLen > 0 {
		args.MaxLen = a.cfg.MaxLen
		args.Approx = true
	}
	if err := a.client.XAdd(ctx, args).Err(); err != nil {
		// let a retry of the same event through
		_ = a.client.Del(ctx, dedupPrefix+e.EventID).Err()
		return err
	}
	return nil
}

// Find scans the newest ScanLimit entries and returns matches newest first
func (a *Analytics) Find(ctx context.Context, f repository.AnalyticsFilter) ([]domain.AnalyticsEvent, error) {
	msgs, err := a.client.XRevRangeN(ctx, a.cfg.Stream, "+", "-", a.cfg.ScanLimit).Result()
	if err != nil {
		return nil, err
	}

	out := make([]domain.AnalyticsEvent, 0)
	for _, msg := range msgs {
		raw, ok := msg.Values[fieldData].(string)
		if !ok {
			continue
		}
		var e domain.AnalyticsEvent
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, fmt.Errorf("failed to decode stream entry %s: %w", msg.ID, err)
		}
		if !f.Matches(&e) {
			continue
		}
		out = append(out, e)
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out, nil
}

// Len returns the current stream length
func (a *Analytics) Len(ctx context.Context) (int64, error) {
	return a.client.XLen(ctx, a.cfg.Stream).Result()
}
