package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/storefront/catalog/internal/domain/shared"
	"github.com/storefront/catalog/internal/infrastructure/config"
	"go.uber.org/zap"
)

// IdempotencyStoreFactory creates the job replay store named by configuration
type IdempotencyStoreFactory struct {
	jobs                  config.JobsConfig
	redis                 config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// IdempotencyStoreFactoryOption is a functional option for configuring the factory
type IdempotencyStoreFactoryOption func(*IdempotencyStoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) IdempotencyStoreFactoryOption {
	return func(f *IdempotencyStoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback uses an in-memory store when Redis is configured but unreachable
func WithInMemoryFallback(allow bool) IdempotencyStoreFactoryOption {
	return func(f *IdempotencyStoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewIdempotencyStoreFactory creates a new factory
func NewIdempotencyStoreFactory(jobs config.JobsConfig, redis config.RedisConfig, opts ...IdempotencyStoreFactoryOption) *IdempotencyStoreFactory {
	f := &IdempotencyStoreFactory{
		jobs:   jobs,
		redis:  redis,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateStore returns the configured store, or nil when replay protection is off
func (f *IdempotencyStoreFactory) CreateStore(ctx context.Context) (shared.IdempotencyStore, error) {
	switch f.jobs.ReplayStore {
	case config.ReplayStoreNone:
		f.logger.Debug("Job replay protection disabled")
		return nil, nil
	case config.ReplayStoreMemory:
		return NewInMemoryIdempotencyStore(5 * time.Minute), nil
	case config.ReplayStoreRedis:
		store, err := NewRedisIdempotencyStore(ctx, f.redis, f.jobs.ReplayKeyPrefix)
		if err == nil {
			f.logger.Info("Using Redis job replay store", zap.String("addr", f.redis.Addr()))
			return store, nil
		}
		if !f.allowInMemoryFallback {
			return nil, fmt.Errorf("redis replay store unavailable: %w", err)
		}
		f.logger.Warn("Redis unavailable, falling back to in-memory job replay store. "+
			"Replays are only detected within this run.",
			zap.Error(err),
		)
		return NewInMemoryIdempotencyStore(5 * time.Minute), nil
	default:
		return nil, fmt.Errorf("unknown replay store %q", f.jobs.ReplayStore)
	}
}
