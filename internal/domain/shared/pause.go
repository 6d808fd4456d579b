package shared

import (
	"context"
	"time"
)

// PauseController owns the process-wide "system paused" switch that gates
// ledger-mutating operations
type PauseController interface {
	IsPaused(ctx context.Context) (bool, error)
	SetPaused(ctx context.Context, paused bool) error
	// PausedSince returns when the switch was last turned on, nil when running
	PausedSince(ctx context.Context) (*time.Time, error)
}
