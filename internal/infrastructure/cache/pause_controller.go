package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

// Redis keys holding the process-wide pause switch
const (
	PausedKey          = "system:paused"
	PausedTimestampKey = "system:paused:timestamp"
)

// RedisPauseController implements shared.PauseController on Redis so every
// instance sees the same switch
type RedisPauseController struct {
	client *redis.Client
}

// NewRedisPauseController creates a pause controller on a shared client
func NewRedisPauseController(client *redis.Client) *RedisPauseController {
	return &RedisPauseController{client: client}
}

// IsPaused reports whether the switch is on. A missing key means running.
func (c *RedisPauseController) IsPaused(ctx context.Context) (bool, error) {
	val, err := c.client.Get(ctx, PausedKey).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read pause switch: %w", err)
	}
	return val == "true", nil
}

// SetPaused flips the switch. Turning it on also records when.
func (c *RedisPauseController) SetPaused(ctx context.Context, paused bool) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if paused {
			pipe.Set(ctx, PausedKey, "true", 0)
			pipe.Set(ctx, PausedTimestampKey, time.Now().UTC().Format(time.RFC3339), 0)
			return nil
		}
		pipe.Set(ctx, PausedKey, "false", 0)
		pipe.Del(ctx, PausedTimestampKey)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to set pause switch: %w", err)
	}
	return nil
}

// PausedSince returns when the switch was turned on, nil when running
func (c *RedisPauseController) PausedSince(ctx context.Context) (*time.Time, error) {
	paused, err := c.IsPaused(ctx)
	if err != nil || !paused {
		return nil, err
	}

	raw, err := c.client.Get(ctx, PausedTimestampKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read pause timestamp: %w", err)
	}

	since, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid pause timestamp %q: %w", raw, err)
	}
	return &since, nil
}

// InMemoryPauseController keeps the switch in process memory. It is used
// when Redis is not configured and in tests.
type InMemoryPauseController struct {
	mu     sync.RWMutex
	paused bool
	since  time.Time
	now    func() time.Time
}

// NewInMemoryPauseController creates a running (not paused) controller
func NewInMemoryPauseController() *InMemoryPauseController {
	return &InMemoryPauseController{now: time.Now}
}

// IsPaused reports whether the switch is on
func (c *InMemoryPauseController) IsPaused(ctx context.Context) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.paused, nil
}

// SetPaused flips the switch
func (c *InMemoryPauseController) SetPaused(ctx context.Context, paused bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if paused && !c.paused {
		c.since = c.now().UTC().Truncate(time.Second)
	}
	c.paused = paused
	return nil
}

// PausedSince returns when the switch was turned on, nil when running
func (c *InMemoryPauseController) PausedSince(ctx context.Context) (*time.Time, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.paused {
		return nil, nil
	}
	since := c.since
	return &since, nil
}

var (
	_ shared.PauseController = (*RedisPauseController)(nil)
	_ shared.PauseController = (*InMemoryPauseController)(nil)
)
