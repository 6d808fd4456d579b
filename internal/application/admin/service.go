// Package admin exposes the operator controls: the pause switch, retention
// cleanup and on-demand reconciliation runs.
package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/application/reconciliation"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/marketplace"
	reconciliationdomain "github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/reconciliation"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/shared"
	"go.uber.org/zap"
)

// Reconciler runs the reconciliation passes on demand
type Reconciler interface {
	RepollPending(ctx context.Context) (*reconciliation.Report, error)
	ReconcileReceipts(ctx context.Context) (*reconciliation.Report, error)
	Counts(ctx context.Context) (map[reconciliationdomain.Status]int64, error)
}

// DefaultRetentionDays is the cleanup window used when none is configured
const DefaultRetentionDays = 365

// StatusResponse reports the pause switch and the pending ledger queue
type StatusResponse struct {
	Paused      bool       `json:"paused"`
	PausedSince *time.Time `json:"paused_since,omitempty"`
	// Pending counts pending ledger transactions by status
	Pending map[string]int64 `json:"pending,omitempty"`
}

// CleanupRequest asks for removal of purchase records older than DaysOld
// days. Zero means the configured retention window.
type CleanupRequest struct {
	DaysOld int `json:"days_old" binding:"omitempty,min=1"`
}

// CleanupResult reports how many records were removed
type CleanupResult struct {
	DaysOld int       `json:"days_old"`
	Cutoff  time.Time `json:"cutoff"`
	Deleted int64     `json:"deleted"`
}

// Service handles admin operations
type Service struct {
	pause        shared.PauseController
	transactions marketplace.TransactionRepository
	reconciler   Reconciler
	retention    int
	logger       *zap.Logger
	now          func() time.Time
}

// NewService creates a new admin Service
func NewService(pause shared.PauseController, transactions marketplace.TransactionRepository, reconciler Reconciler, logger *zap.Logger) *Service {
	return &Service{
		pause:        pause,
		transactions: transactions,
		reconciler:   reconciler,
		retention:    DefaultRetentionDays,
		logger:       logger.Named("admin"),
		now:          time.Now,
	}
}

// SetRetentionDays sets the cleanup window used when a request names none
func (s *Service) SetRetentionDays(days int) {
	if days > 0 {
		s.retention = days
	}
}

// Pause stops every ledger-mutating endpoint
func (s *Service) Pause(ctx context.Context) (*StatusResponse, error) {
	if err := s.pause.SetPaused(ctx, true); err != nil {
		return nil, fmt.Errorf("pause system: %w", err)
	}
	s.logger.Warn("System paused")
	return s.Status(ctx)
}

// Unpause resumes ledger-mutating endpoints
func (s *Service) Unpause(ctx context.Context) (*StatusResponse, error) {
	if err := s.pause.SetPaused(ctx, false); err != nil {
		return nil, fmt.Errorf("unpause system: %w", err)
	}
	s.logger.Info("System unpaused")
	return s.Status(ctx)
}

// Status reports whether the system is paused and since when
func (s *Service) Status(ctx context.Context) (*StatusResponse, error) {
	paused, err := s.pause.IsPaused(ctx)
	if err != nil {
		return nil, fmt.Errorf("read pause switch: %w", err)
	}
	resp := &StatusResponse{Paused: paused}
	if paused {
		since, err := s.pause.PausedSince(ctx)
		if err != nil {
			return nil, fmt.Errorf("read pause timestamp: %w", err)
		}
		resp.PausedSince = since
	}

	counts, err := s.reconciler.Counts(ctx)
	if err != nil {
		s.logger.Warn("Could not count pending ledger transactions", zap.Error(err))
	}
	if len(counts) > 0 {
		resp.Pending = make(map[string]int64, len(counts))
		for st, n := range counts {
			resp.Pending[string(st)] = n
		}
	}
	return resp, nil
}

// Cleanup deletes purchase records created more than daysOld days ago. A
// zero daysOld uses the retention window.
func (s *Service) Cleanup(ctx context.Context, daysOld int) (*CleanupResult, error) {
	if daysOld < 0 {
		return nil, shared.ErrInvalidInput.WithMessage("days_old must be positive")
	}
	if daysOld == 0 {
		daysOld = s.retention
	}
	cutoff := s.now().AddDate(0, 0, -daysOld)
	deleted, err := s.transactions.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("delete transactions older than %s: %w", cutoff.Format(time.RFC3339), err)
	}
	s.logger.Info("Transaction retention cleanup finished",
		zap.Int("days_old", daysOld),
		zap.Time("cutoff", cutoff),
		zap.Int64("deleted", deleted),
	)
	return &CleanupResult{DaysOld: daysOld, Cutoff: cutoff, Deleted: deleted}, nil
}

// ReconcilePending re-polls pending hashes now
func (s *Service) ReconcilePending(ctx context.Context) (*reconciliation.Report, error) {
	return s.reconciler.RepollPending(ctx)
}

// ReconcileReceipts replays confirmed hashes whose mirror write is missing
func (s *Service) ReconcileReceipts(ctx context.Context) (*reconciliation.Report, error) {
	return s.reconciler.ReconcileReceipts(ctx)
}
