package metrics

import (
	"context"

	"github.com/nexumi/nexumi-core/internal/event"
	"github.com/nexumi/nexumi-core/internal/logger"
)

// EventMetricsCollector subscribes to domain events and records metrics
type EventMetricsCollector struct{}

// NewEventMetricsCollector creates a new event metrics collector
func NewEventMetricsCollector() *EventMetricsCollector {
	return &EventMetricsCollector{}
}

// Register subscribes to all domain event types
func (e *EventMetricsCollector) Register(bus event.Bus) {
	for _, eventType := range event.AllTypes {
		bus.Subscribe(eventType, e.HandleEvent)
	}
}

// HandleEvent processes events and updates metrics
func (e *EventMetricsCollector) HandleEvent(ctx context.Context, evt event.Event) error {
	log := logger.FromContext(ctx)

	EventsPublished.WithLabelValues(string(evt.Type)).Inc()

	switch evt.Type {
	case event.ListingSold:
		payload, err := event.DecodePayload[event.ListingPayloadV1](evt.Payload)
		if err != nil {
			log.Debug(LogMsgEventPayloadNotMap, "type", evt.Type, "error", err)
			return nil
		}
		CurrencyTransferred.Add(float64(payload.Price))

	case event.ListingExpired:
		ListingsExpired.Inc()
	}

	log.Debug(LogMsgMetricsRecorded, "type", evt.Type)
	return nil
}
