package repository

import (
	"context"
	"time"

	"github.com/nexumi/nexumi-core/internal/domain"
)

// AnalyticsFilter narrows an analytics read. Zero fields match everything.
type AnalyticsFilter struct {
	EventName string
	SessionID string
	Since     time.Time
	Limit     int
}

// Matches reports whether e passes the filter
func (f AnalyticsFilter) Matches(e *domain.AnalyticsEvent) bool {
	if f.EventName != "" && e.EventName != f.EventName {
		return false
	}
	if f.SessionID != "" && e.SessionID != f.SessionID {
		return false
	}
	if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
		return false
	}
	return true
}

// Analytics is an append-only event log. Find returns newest first.
type Analytics interface {
	Append(ctx context.Context, e *domain.AnalyticsEvent) error
	Find(ctx context.Context, f AnalyticsFilter) ([]domain.AnalyticsEvent, error)
}
