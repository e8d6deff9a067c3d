package bootstrap

import (
	"context"
	"log/slog"
)

// Shutdown stops every component in dependency order:
// 1. HTTP server (stop accepting new requests)
// 2. Scheduler and worker pool (no new sweeps; a running sweep is cancelled)
// 3. Event publisher (flush pending events to the subscribers)
// 4. Analytics sink (drain queued events to the backend)
// 5. Backends and tracing
//
// Errors are logged but do not stop the sequence.
func (a *App) Shutdown(ctx context.Context) {
	slog.Info(LogMsgShuttingDownServer)
	if a.Server != nil {
		if err := a.Server.Stop(ctx); err != nil {
			slog.Error(LogMsgServerForcedShutdown, "error", err)
		}
	}

	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	if a.Pool != nil {
		a.Pool.Stop()
	}

	if a.Publisher != nil {
		slog.Info(LogMsgShuttingDownEventPublisher)
		if err := a.Publisher.Shutdown(ctx); err != nil {
			slog.Error(LogMsgResilientPublisherFailed, "error", err)
		}
	}

	if a.Analytics != nil {
		if err := a.Analytics.Shutdown(ctx); err != nil {
			slog.Error(LogMsgAnalyticsShutdownFailed, "error", err)
		}
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			slog.Error(LogMsgRedisCloseFailed, "error", err)
		}
	}
	if a.Substrate != nil {
		a.Substrate.Close()
	}
	if err := a.shutdownTrace(ctx); err != nil {
		slog.Error(LogMsgTracingShutdownFailed, "error", err)
	}

	slog.Info(LogMsgServerStopped)
}
