package telemetry

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// SetupConfig gathers the settings for every signal a process exports.
type SetupConfig struct {
	Tracing        Config
	ExportInterval time.Duration
	ExportLogs     bool
	LogLevel       zapcore.Level
	Profiler       ProfilerConfig
}

// Providers owns the telemetry providers of one process.
type Providers struct {
	Tracer   *TracerProvider
	Meter    *MeterProvider
	Logs     *LoggerProvider
	Profiler *Profiler
	Metrics  *CatalogMetrics
}

// Setup starts tracing, metrics, the log bridge and profiling as configured and
// returns a logger teed into the OpenTelemetry log pipeline. Providers that are
// disabled are no-ops.
func Setup(ctx context.Context, cfg SetupConfig, logger *zap.Logger) (*Providers, *zap.Logger, error) {
	p := &Providers{}
	var err error

	if p.Profiler, err = NewProfiler(cfg.Profiler, logger); err != nil {
		return nil, nil, err
	}

	if p.Tracer, err = NewTracerProvider(ctx, cfg.Tracing, logger); err != nil {
		p.shutdown(ctx)
		return nil, nil, err
	}
	if p.Profiler.IsEnabled() {
		if err := p.Tracer.EnableSpanProfiles(); err != nil {
			p.shutdown(ctx)
			return nil, nil, err
		}
	}

	p.Meter, err = NewMeterProvider(ctx, MetricsConfig{
		Enabled:           cfg.Tracing.Enabled,
		CollectorEndpoint: cfg.Tracing.CollectorEndpoint,
		ExportInterval:    cfg.ExportInterval,
		ServiceName:       cfg.Tracing.ServiceName,
		Insecure:          cfg.Tracing.Insecure,
	}, logger)
	if err != nil {
		p.shutdown(ctx)
		return nil, nil, err
	}
	if p.Metrics, err = NewCatalogMetrics(p.Meter.Meter(TracerName)); err != nil {
		p.shutdown(ctx)
		return nil, nil, err
	}

	p.Logs, err = NewLoggerProvider(ctx, LogsConfig{
		Enabled:           cfg.Tracing.Enabled && cfg.ExportLogs,
		CollectorEndpoint: cfg.Tracing.CollectorEndpoint,
		ServiceName:       cfg.Tracing.ServiceName,
		Insecure:          cfg.Tracing.Insecure,
	}, logger)
	if err != nil {
		p.shutdown(ctx)
		return nil, nil, err
	}

	bridged := logger
	if p.Logs.IsEnabled() {
		bridged = Bridge(logger, NewZapOTELCore(ZapBridgeConfig{
			ServiceName:    cfg.Tracing.ServiceName,
			LoggerProvider: p.Logs,
			Level:          cfg.LogLevel,
		}))
	}
	return p, bridged, nil
}

// Shutdown flushes and stops every provider, returning the joined errors.
func (p *Providers) Shutdown(ctx context.Context) error {
	return p.shutdown(ctx)
}

func (p *Providers) shutdown(ctx context.Context) error {
	var errs []error
	if p.Logs != nil {
		errs = append(errs, p.Logs.Shutdown(ctx))
	}
	if p.Meter != nil {
		errs = append(errs, p.Meter.Shutdown(ctx))
	}
	if p.Tracer != nil {
		errs = append(errs, p.Tracer.Shutdown(ctx))
	}
	if p.Profiler != nil {
		errs = append(errs, p.Profiler.Stop())
	}
	return errors.Join(errs...)
}
