package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers request keys so a retried client call does not
// submit a second ledger transaction
type IdempotencyStore interface {
	// MarkProcessed marks a key as seen with a TTL.
	// Returns true if the key was newly marked, false if it was already present.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed checks if a key has already been seen
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Release forgets a key, used when the guarded request failed before
	// anything reached the ledger
	Release(ctx context.Context, key string) error

	Close() error
}

// IdempotencyConfig holds configuration for idempotency handling
type IdempotencyConfig struct {
	// TTL is how long a key blocks duplicates. Default: 24 hours
	TTL time.Duration

	Enabled bool
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
