package integration

import (
	"context"
	"testing"
	"time"

	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/infrastructure/cache"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// newRedisConfig starts a Redis container and returns its connection settings
func newRedisConfig(t *testing.T) config.RedisConfig {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor: wait.ForLog("Ready to accept connections").
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "Failed to start Redis container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: Failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	return config.RedisConfig{Enabled: true, Host: host, Port: port.Int()}
}

func TestRedisStores_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	stores, err := cache.NewStoreFactory(newRedisConfig(t), cache.WithInMemoryFallback(false)).CreateStores()
	require.NoError(t, err)
	defer stores.Close()

	ctx := context.Background()

	t.Run("pause switch round trip", func(t *testing.T) {
		paused, err := stores.Pause.IsPaused(ctx)
		require.NoError(t, err)
		assert.False(t, paused)

		require.NoError(t, stores.Pause.SetPaused(ctx, true))
		paused, err = stores.Pause.IsPaused(ctx)
		require.NoError(t, err)
		assert.True(t, paused)

		since, err := stores.Pause.PausedSince(ctx)
		require.NoError(t, err)
		require.NotNil(t, since)
		assert.WithinDuration(t, time.Now(), *since, time.Minute)

		raw, err := stores.Client().Get(ctx, cache.PausedKey).Result()
		require.NoError(t, err)
		assert.Equal(t, "true", raw)

		require.NoError(t, stores.Pause.SetPaused(ctx, false))
		since, err = stores.Pause.PausedSince(ctx)
		require.NoError(t, err)
		assert.Nil(t, since)
	})

	t.Run("idempotency keys are claimed once", func(t *testing.T) {
		isNew, err := stores.Idempotency.MarkProcessed(ctx, "req-1", time.Minute)
		require.NoError(t, err)
		assert.True(t, isNew)

		isNew, err = stores.Idempotency.MarkProcessed(ctx, "req-1", time.Minute)
		require.NoError(t, err)
		assert.False(t, isNew)

		require.NoError(t, stores.Idempotency.Release(ctx, "req-1"))
		processed, err := stores.Idempotency.IsProcessed(ctx, "req-1")
		require.NoError(t, err)
		assert.False(t, processed)
	})
}
