package cache

import (
	"context"
	"testing"
	"time"

	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryPauseController(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2026, 7, 1, 9, 30, 0, 0, time.UTC)

	c := NewInMemoryPauseController()
	c.now = func() time.Time { return fixed }

	t.Run("starts running", func(t *testing.T) {
		paused, err := c.IsPaused(ctx)
		require.NoError(t, err)
		assert.False(t, paused)

		since, err := c.PausedSince(ctx)
		require.NoError(t, err)
		assert.Nil(t, since)
	})

	t.Run("pause records the time", func(t *testing.T) {
		require.NoError(t, c.SetPaused(ctx, true))

		paused, err := c.IsPaused(ctx)
		require.NoError(t, err)
		assert.True(t, paused)

		since, err := c.PausedSince(ctx)
		require.NoError(t, err)
		require.NotNil(t, since)
		assert.Equal(t, fixed, *since)
	})

	t.Run("pausing again keeps the original time", func(t *testing.T) {
		c.now = func() time.Time { return fixed.Add(time.Hour) }
		require.NoError(t, c.SetPaused(ctx, true))

		since, err := c.PausedSince(ctx)
		require.NoError(t, err)
		assert.Equal(t, fixed, *since)
	})

	t.Run("unpause clears the time", func(t *testing.T) {
		require.NoError(t, c.SetPaused(ctx, false))

		paused, err := c.IsPaused(ctx)
		require.NoError(t, err)
		assert.False(t, paused)

		since, err := c.PausedSince(ctx)
		require.NoError(t, err)
		assert.Nil(t, since)
	})
}

func TestStoreFactory_RedisDisabled(t *testing.T) {
	f := NewStoreFactory(config.RedisConfig{Enabled: false})

	stores, err := f.CreateStores()
	require.NoError(t, err)
	defer stores.Close()

	assert.Nil(t, stores.Client())
	assert.IsType(t, &InMemoryIdempotencyStore{}, stores.Idempotency)
	assert.IsType(t, &InMemoryPauseController{}, stores.Pause)
}

func TestStoreFactory_UnreachableRedis(t *testing.T) {
	cfg := config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}

	t.Run("falls back to memory by default", func(t *testing.T) {
		stores, err := NewStoreFactory(cfg).CreateStores()
		require.NoError(t, err)
		defer stores.Close()
		assert.IsType(t, &InMemoryPauseController{}, stores.Pause)
	})

	t.Run("fails when fallback is disabled", func(t *testing.T) {
		_, err := NewStoreFactory(cfg, WithInMemoryFallback(false)).CreateStores()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Redis required")
	})
}
