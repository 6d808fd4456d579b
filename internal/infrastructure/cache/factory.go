package cache

import (
	"fmt"

	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/shared"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Stores groups the Redis-backed collaborators the HTTP layer and the
// coordinators share
type Stores struct {
	Idempotency shared.IdempotencyStore
	Pause       shared.PauseController
	client      *redis.Client
}

// Client returns the shared Redis client, nil when running in memory
func (s *Stores) Client() *redis.Client {
	return s.client
}

// Close releases the idempotency store and the Redis client
func (s *Stores) Close() error {
	var firstErr error
	if s.Idempotency != nil {
		firstErr = s.Idempotency.Close()
	}
	if s.client != nil {
		if err := s.client.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// StoreFactory creates the idempotency store and pause controller based on
// configuration
type StoreFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// StoreFactoryOption is a functional option for configuring the factory
type StoreFactoryOption func(*StoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to in-memory stores
// when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewStoreFactory creates a new factory
func NewStoreFactory(cfg config.RedisConfig, opts ...StoreFactoryOption) *StoreFactory {
	f := &StoreFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateInMemoryStores creates process-local stores.
// The pause switch and request keys are then not shared between instances.
func (f *StoreFactory) CreateInMemoryStores() *Stores {
	return &Stores{
		Idempotency: NewInMemoryIdempotencyStore(),
		Pause:       NewInMemoryPauseController(),
	}
}

// CreateStores connects to Redis when it is enabled and falls back to
// in-memory stores when allowed
func (f *StoreFactory) CreateStores() (*Stores, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-memory pause switch and idempotency store")
		return f.CreateInMemoryStores(), nil
	}

	client, err := NewRedisClient(f.redisConfig)
	if err == nil {
		f.logger.Info("using Redis pause switch and idempotency store",
			zap.String("addr", f.redisConfig.Addr()))
		return &Stores{
			Idempotency: NewRedisIdempotencyStoreWithClient(client, DefaultIdempotencyKeyPrefix),
			Pause:       NewRedisPauseController(client),
			client:      client,
		}, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory stores. "+
		"The pause switch will not be shared between instances.",
		zap.Error(err),
	)
	return f.CreateInMemoryStores(), nil
}
