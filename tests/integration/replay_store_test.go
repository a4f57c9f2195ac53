//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/storefront/catalog/internal/infrastructure/cache"
	"github.com/storefront/catalog/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) config.RedisConfig {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor: wait.ForLog("Ready to accept connections").
				WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "Failed to start Redis container")
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	return config.RedisConfig{Host: host, Port: port.Int()}
}

func TestRedisIdempotencyStore(t *testing.T) {
	ctx := context.Background()
	redisCfg := startRedis(t)

	store, err := cache.NewRedisIdempotencyStore(ctx, redisCfg, "test:job:")
	require.NoError(t, err)
	defer store.Close()

	claimed, err := store.MarkProcessed(ctx, "job-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = store.MarkProcessed(ctx, "job-1", time.Minute)
	require.NoError(t, err)
	assert.False(t, claimed, "a held key is not claimed twice")

	held, err := store.IsProcessed(ctx, "job-1")
	require.NoError(t, err)
	assert.True(t, held)

	require.NoError(t, store.Forget(ctx, "job-1"))
	held, err = store.IsProcessed(ctx, "job-1")
	require.NoError(t, err)
	assert.False(t, held)

	t.Run("factory selects redis", func(t *testing.T) {
		replay, err := cache.NewIdempotencyStoreFactory(
			config.JobsConfig{ReplayStore: config.ReplayStoreRedis, ReplayKeyPrefix: "factory:"},
			redisCfg,
		).CreateStore(ctx)
		require.NoError(t, err)
		defer replay.Close()
		assert.IsType(t, &cache.RedisIdempotencyStore{}, replay)
	})

	t.Run("keys expire", func(t *testing.T) {
		_, err := store.MarkProcessed(ctx, "short", time.Second)
		require.NoError(t, err)
		assert.Eventually(t, func() bool {
			held, err := store.IsProcessed(ctx, "short")
			return err == nil && !held
		}, 5*time.Second, 100*time.Millisecond)
	})
}
