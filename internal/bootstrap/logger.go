package bootstrap

import (
	"log/slog"

	"github.com/nexumi/nexumi-core/internal/config"
	"github.com/nexumi/nexumi-core/internal/logger"
)

// SetupLogger initializes the process logger from the configuration and
// reports any configuration warnings through it.
func SetupLogger(cfg *config.Config) {
	// Source locations only help during development
	addSource := cfg.Environment == "dev" || cfg.Environment == "development"

	logger.InitLogger(logger.NewConfig(
		cfg.LogLevel,
		cfg.LogFormat,
		cfg.ServiceName,
		cfg.Version,
		cfg.Environment,
		addSource,
	))

	slog.Info(LogMsgLoggingInitialized, "level", cfg.LogLevel, "format", cfg.LogFormat)
	slog.Info(LogMsgStartingService,
		"environment", cfg.Environment,
		"version", cfg.Version)

	slog.Debug(LogMsgConfigurationLoaded,
		"store_driver", cfg.StoreDriver,
		"db_host", cfg.DBHost,
		"db_port", cfg.DBPort,
		"db_name", cfg.DBName,
		"analytics_backend", cfg.AnalyticsBackend,
		"port", cfg.Port)

	for _, w := range cfg.Warnings() {
		slog.Warn(LogMsgConfigWarning, "warning", w)
	}
}
