package domain

import "time"

// AnalyticsEvent is append-only: the core never mutates or deletes one.
type AnalyticsEvent struct {
	EventID   string         `json:"event_id"`
	EventName string         `json:"event_name"`
	EventData map[string]any `json:"event_data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	SessionID string         `json:"session_id,omitempty"`
}

// AnalyticsEventIDOf returns the document id
func AnalyticsEventIDOf(e *AnalyticsEvent) string {
	return e.EventID
}
