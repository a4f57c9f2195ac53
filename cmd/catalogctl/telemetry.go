package main

import (
	"context"

	"github.com/storefront/catalog/internal/infrastructure/config"
	"github.com/storefront/catalog/internal/infrastructure/logger"
	"github.com/storefront/catalog/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// setupTelemetry starts the configured exporters and returns a logger bridged
// into the OpenTelemetry log pipeline
func setupTelemetry(ctx context.Context, cfg *config.Config, log *zap.Logger) (*telemetry.Providers, *zap.Logger, error) {
	t := cfg.Telemetry
	return telemetry.Setup(ctx, telemetry.SetupConfig{
		Tracing: telemetry.Config{
			Enabled:           t.Enabled,
			CollectorEndpoint: t.CollectorEndpoint,
			SamplingRatio:     t.SamplingRatio,
			ServiceName:       t.ServiceName,
			Insecure:          t.Insecure,
		},
		ExportInterval: t.MetricsInterval,
		ExportLogs:     t.ExportLogs,
		LogLevel:       logger.ParseLevel(cfg.Log.Level),
		Profiler: telemetry.ProfilerConfig{
			Enabled:           cfg.Profiling.Enabled,
			ServerAddress:     cfg.Profiling.ServerAddress,
			ApplicationName:   t.ServiceName,
			BasicAuthUser:     cfg.Profiling.BasicAuthUser,
			BasicAuthPassword: cfg.Profiling.BasicAuthPassword,
			ProfileMemory:     cfg.Profiling.ProfileMemory,
			ProfileGoroutines: cfg.Profiling.ProfileGoroutines,
		},
	}, log)
}

// dbTracing maps the telemetry settings to the database tracing plugin
func dbTracing(cfg *config.Config) telemetry.DBTracingConfig {
	system := "postgresql"
	if cfg.Database.Driver == config.DriverSQLite {
		system = "sqlite"
	}
	return telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        system,
	}
}
