package bootstrap

import (
	"log/slog"

	"github.com/nexumi/nexumi-core/internal/analytics"
	"github.com/nexumi/nexumi-core/internal/event"
	"github.com/nexumi/nexumi-core/internal/metrics"
)

// RegisterEventHandlers subscribes the metrics collector and the analytics
// sink to the domain events published by the services.
func RegisterEventHandlers(bus event.Bus, sink *analytics.Sink) {
	metrics.NewEventMetricsCollector().Register(bus)
	slog.Info(LogMsgMetricsCollectorRegistered)

	sink.Subscribe(bus)
	slog.Info(LogMsgAnalyticsSubscribed)
}
