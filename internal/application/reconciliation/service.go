// Package reconciliation closes the gap between what the ledger confirmed
// and what the mirror recorded. Coordinators register every hash whose
// outcome they could not absorb; background jobs poll and replay them.
package reconciliation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/ledger"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/reconciliation"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Applier writes the mirror side effect of a confirmed pending hash. It must
// be idempotent: receipt reconciliation can replay the same row.
type Applier interface {
	Apply(ctx context.Context, p *reconciliation.PendingTransaction) error
}

// ApplierFunc adapts a function to Applier
type ApplierFunc func(ctx context.Context, p *reconciliation.PendingTransaction) error

// Apply implements Applier
func (f ApplierFunc) Apply(ctx context.Context, p *reconciliation.PendingTransaction) error {
	return f(ctx, p)
}

// PendingGauge reports the size of the pending queue per status
type PendingGauge interface {
	RecordPending(ctx context.Context, status string, count int64)
}

// Config holds reconciliation limits
type Config struct {
	// BatchSize caps rows loaded per run
	BatchSize int
	// MaxAttempts is how many NOT_FOUND polls (or failed replays) a row
	// gets before it is abandoned
	MaxAttempts int
}

// DefaultConfig returns the default reconciliation limits
func DefaultConfig() Config {
	return Config{BatchSize: 50, MaxAttempts: 120}
}

// Report summarizes one reconciliation run
type Report struct {
	Checked      int `json:"checked"`
	Applied      int `json:"applied"`
	Confirmed    int `json:"confirmed"`
	Failed       int `json:"failed"`
	Abandoned    int `json:"abandoned"`
	StillPending int `json:"still_pending"`
	Errors       int `json:"errors"`
}

// Service tracks pending hashes and reconciles them
type Service struct {
	repo     reconciliation.Repository
	status   ledger.StatusChecker
	appliers map[reconciliation.Kind]Applier
	gauge    PendingGauge
	cfg      Config
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates a new reconciliation Service
func NewService(repo reconciliation.Repository, status ledger.StatusChecker, cfg Config, logger *zap.Logger) *Service {
	def := DefaultConfig()
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	return &Service{
		repo:     repo,
		status:   status,
		appliers: make(map[reconciliation.Kind]Applier),
		cfg:      cfg,
		logger:   logger.Named("reconciliation"),
		now:      time.Now,
	}
}

// RegisterApplier sets the mirror writer for kind. Kinds without an applier
// have no mirror side effect and are marked APPLIED once the ledger confirms.
func (s *Service) RegisterApplier(kind reconciliation.Kind, a Applier) {
	s.appliers[kind] = a
}

// SetGauge sets where queue sizes are reported after each run
func (s *Service) SetGauge(g PendingGauge) {
	s.gauge = g
}

// Track records a submitted hash whose outcome is not known yet
func (s *Service) Track(ctx context.Context, txHash string, kind reconciliation.Kind, payload any) error {
	p, err := reconciliation.NewPendingTransaction(txHash, kind, payload)
	if err != nil {
		return err
	}
	if err := s.repo.Save(ctx, p); err != nil {
		return fmt.Errorf("track pending %s %s: %w", kind, txHash, err)
	}
	s.logger.Warn("Ledger transaction left pending",
		zap.String("tx_hash", txHash),
		zap.String("kind", string(kind)),
	)
	return nil
}

// TrackConfirmed records a hash the ledger confirmed but whose mirror write
// failed with cause. resultID is the ledger-issued id when the call returned one.
func (s *Service) TrackConfirmed(ctx context.Context, txHash string, kind reconciliation.Kind, payload any, resultID *uint64, cause error) error {
	p, err := reconciliation.NewPendingTransaction(txHash, kind, payload)
	if err != nil {
		return err
	}
	if resultID != nil {
		if err := p.AttachResultID(*resultID); err != nil {
			return err
		}
	}
	now := s.now()
	p.MarkConfirmed(now)
	if cause != nil {
		p.RecordApplyError(now, cause)
	}
	if err := s.repo.Save(ctx, p); err != nil {
		return fmt.Errorf("track confirmed %s %s: %w", kind, txHash, err)
	}
	s.logger.Error("Confirmed ledger transaction missing from mirror",
		zap.String("tx_hash", txHash),
		zap.String("kind", string(kind)),
		zap.Error(cause),
	)
	return nil
}

// RepollPending checks every PENDING row once. SUCCESS applies the mirror
// write, FAILED closes the row and NOT_FOUND counts an attempt.
func (s *Service) RepollPending(ctx context.Context) (*Report, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "reconciliation", "repoll_pending")
	defer span.End()

	rows, err := s.repo.FindByStatus(ctx, reconciliation.StatusPending, s.cfg.BatchSize)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("load pending rows: %w", err)
	}

	report := &Report{}
	for i := range rows {
		if ctx.Err() != nil {
			break
		}
		s.repollOne(ctx, &rows[i], report)
	}

	s.recordGauge(ctx)
	telemetry.SetAttributes(span, "checked", report.Checked, "applied", report.Applied, "abandoned", report.Abandoned)
	s.logRun("Pending re-poll finished", report)
	return report, ctx.Err()
}

func (s *Service) repollOne(ctx context.Context, p *reconciliation.PendingTransaction, report *Report) {
	report.Checked++
	log := s.logger.With(zap.String("tx_hash", p.TxHash), zap.String("kind", string(p.Kind)))

	outcome, err := s.status.TransactionStatus(ctx, p.TxHash)
	if err != nil {
		report.Errors++
		log.Warn("Status check failed", zap.Error(err))
		return
	}

	now := s.now()
	switch outcome.Status {
	case ledger.TxStatusSuccess:
		p.MarkConfirmed(now)
		if outcome.ResultID != nil {
			if err := p.AttachResultID(*outcome.ResultID); err != nil {
				log.Warn("Could not store result id", zap.Error(err))
			}
		}
		s.apply(ctx, p, report)
		return
	case ledger.TxStatusFailed:
		p.MarkFailed(now, "ledger reported FAILED")
		report.Failed++
		log.Info("Pending transaction failed on ledger")
	default:
		p.MarkChecked(now, s.cfg.MaxAttempts)
		if p.Status == reconciliation.StatusAbandoned {
			report.Abandoned++
			log.Error("Pending transaction abandoned, needs manual reconciliation", zap.Int("attempts", p.Attempts))
		} else {
			report.StillPending++
		}
	}
	s.save(ctx, p, report)
}

// ReconcileReceipts replays CONFIRMED rows so that every confirmed hash
// ends up with its mirror record
func (s *Service) ReconcileReceipts(ctx context.Context) (*Report, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "reconciliation", "reconcile_receipts")
	defer span.End()

	rows, err := s.repo.FindByStatus(ctx, reconciliation.StatusConfirmed, s.cfg.BatchSize)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("load confirmed rows: %w", err)
	}

	report := &Report{}
	for i := range rows {
		if ctx.Err() != nil {
			break
		}
		report.Checked++
		s.apply(ctx, &rows[i], report)
	}

	s.recordGauge(ctx)
	telemetry.SetAttributes(span, "checked", report.Checked, "applied", report.Applied)
	s.logRun("Receipt reconciliation finished", report)
	return report, ctx.Err()
}

// apply runs the kind's mirror write for a confirmed row and saves the result
func (s *Service) apply(ctx context.Context, p *reconciliation.PendingTransaction, report *Report) {
	now := s.now()
	var err error
	if a, ok := s.appliers[p.Kind]; ok {
		err = a.Apply(ctx, p)
	}

	switch {
	case err == nil:
		p.MarkApplied(now)
		report.Applied++
	default:
		p.RecordApplyError(now, err)
		if p.Attempts >= s.cfg.MaxAttempts {
			p.Abandon(now, "")
			report.Abandoned++
			s.logger.Error("Confirmed transaction could not be applied, giving up",
				zap.String("tx_hash", p.TxHash),
				zap.String("kind", string(p.Kind)),
				zap.Error(err),
			)
		} else {
			report.Confirmed++
			s.logger.Warn("Mirror write for confirmed transaction failed",
				zap.String("tx_hash", p.TxHash),
				zap.String("kind", string(p.Kind)),
				zap.Error(err),
			)
		}
	}
	s.save(ctx, p, report)
}

func (s *Service) save(ctx context.Context, p *reconciliation.PendingTransaction, report *Report) {
	if err := s.repo.Save(ctx, p); err != nil {
		report.Errors++
		s.logger.Error("Failed to persist pending row", zap.String("tx_hash", p.TxHash), zap.Error(err))
	}
}

// Counts returns the number of rows in every non-terminal and terminal status
func (s *Service) Counts(ctx context.Context) (map[reconciliation.Status]int64, error) {
	statuses := []reconciliation.Status{
		reconciliation.StatusPending,
		reconciliation.StatusConfirmed,
		reconciliation.StatusApplied,
		reconciliation.StatusFailed,
		reconciliation.StatusAbandoned,
	}
	counts := make(map[reconciliation.Status]int64, len(statuses))
	var errs []error
	for _, st := range statuses {
		n, err := s.repo.CountByStatus(ctx, st)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		counts[st] = n
	}
	return counts, errors.Join(errs...)
}

func (s *Service) recordGauge(ctx context.Context) {
	if s.gauge == nil {
		return
	}
	for _, st := range []reconciliation.Status{reconciliation.StatusPending, reconciliation.StatusConfirmed, reconciliation.StatusAbandoned} {
		n, err := s.repo.CountByStatus(ctx, st)
		if err != nil {
			s.logger.Debug("Count pending rows failed", zap.String("status", string(st)), zap.Error(err))
			continue
		}
		s.gauge.RecordPending(ctx, string(st), n)
	}
}

func (s *Service) logRun(msg string, r *Report) {
	if r.Checked == 0 {
		return
	}
	s.logger.Info(msg,
		zap.Int("checked", r.Checked),
		zap.Int("applied", r.Applied),
		zap.Int("confirmed", r.Confirmed),
		zap.Int("failed", r.Failed),
		zap.Int("abandoned", r.Abandoned),
		zap.Int("still_pending", r.StillPending),
		zap.Int("errors", r.Errors),
	)
}
