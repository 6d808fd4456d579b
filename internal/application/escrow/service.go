// Package escrow coordinates time-locked payments held by the escrow
// contract. Escrows live only on the ledger; nothing here writes the mirror.
package escrow

import (
	"context"
	"fmt"
	"time"

	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/escrow"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/ledger"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/reconciliation"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/shared"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/infrastructure/logger"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PendingTracker records ledger hashes whose outcome is unknown
type PendingTracker interface {
	Track(ctx context.Context, txHash string, kind reconciliation.Kind, payload any) error
}

// Service handles escrow operations
type Service struct {
	contract ledger.EscrowGateway
	keys     ledger.KeyResolver
	tracker  PendingTracker
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates a new escrow Service
func NewService(contract ledger.EscrowGateway, keys ledger.KeyResolver, logger *zap.Logger) *Service {
	return &Service{
		contract: contract,
		keys:     keys,
		logger:   logger.Named("escrow"),
		now:      time.Now,
	}
}

// SetPendingTracker sets where timed-out hashes are recorded
func (s *Service) SetPendingTracker(tracker PendingTracker) {
	s.tracker = tracker
}

// LockFunds locks amount from the buyer for the seller until
// now + LockDurationDays*86400
func (s *Service) LockFunds(ctx context.Context, req LockFundsRequest) (*LockResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "escrow", "lock_funds")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrAmount, req.Amount.String())

	if !req.Amount.IsPositive() {
		return nil, shared.ErrInvalidInput.WithMessage("Escrow amount must be positive")
	}
	if req.LockDurationDays <= 0 {
		return nil, shared.ErrInvalidInput.WithMessage("Lock duration must be at least one day")
	}
	buyer, err := s.addressOf(req.BuyerSecret)
	if err != nil {
		return nil, err
	}
	if buyer == req.SellerAddress {
		return nil, shared.ErrInvalidInput.WithMessage("Buyer and seller must differ")
	}

	unlock := escrow.UnlockTimeAfter(s.now(), req.LockDurationDays)
	id, receipt, err := s.contract.LockFunds(ctx, req.BuyerSecret, req.SellerAddress, req.Amount, unlock)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, s.ledgerFailure(ctx, err, reconciliation.KindLock, LockPayload{
			Buyer: buyer, Seller: req.SellerAddress, Amount: req.Amount, UnlockTime: unlock,
		})
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrTxHash, receipt.TxHash, telemetry.SpanAttrEscrowID, id)

	s.logger.Info("Funds locked",
		zap.String("tx_hash", receipt.TxHash),
		zap.Uint64("escrow_id", id),
		logger.Address("buyer", buyer),
		logger.Address("seller", req.SellerAddress),
		logger.Amount("amount", req.Amount),
		zap.Time("unlock_time", unlock),
	)
	telemetry.SetOK(span)
	return &LockResult{TxHash: receipt.TxHash, EscrowID: id, UnlockTime: unlock}, nil
}

// ReleaseToSeller releases an escrow to the seller. Only the buyer can
// release; the contract enforces it.
func (s *Service) ReleaseToSeller(ctx context.Context, buyerSecret string, escrowID uint64) (*ActionResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "escrow", "release_funds")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrEscrowID, escrowID)

	if _, err := s.addressOf(buyerSecret); err != nil {
		return nil, err
	}

	receipt, err := s.contract.ReleaseFunds(ctx, buyerSecret, escrowID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, s.ledgerFailure(ctx, err, reconciliation.KindRelease, ActionPayload{EscrowID: escrowID})
	}

	s.logger.Info("Escrow released", zap.String("tx_hash", receipt.TxHash), zap.Uint64("escrow_id", escrowID))
	telemetry.SetOK(span)
	return &ActionResult{TxHash: receipt.TxHash, EscrowID: escrowID, Status: string(escrow.StatusReleased)}, nil
}

// RefundToBuyer returns an escrow to the buyer. The escrow must have reached
// its unlock time; earlier requests are rejected without a submission.
func (s *Service) RefundToBuyer(ctx context.Context, sellerSecret string, escrowID uint64) (*ActionResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "escrow", "refund")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrEscrowID, escrowID)

	caller, err := s.addressOf(sellerSecret)
	if err != nil {
		return nil, err
	}
	record, err := s.getRecord(ctx, escrowID)
	if err != nil {
		return nil, err
	}
	if err := record.EnsureRefundable(caller, s.now()); err != nil {
		return nil, err
	}

	receipt, err := s.contract.Refund(ctx, sellerSecret, escrowID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, s.ledgerFailure(ctx, err, reconciliation.KindRefund, ActionPayload{EscrowID: escrowID})
	}

	s.logger.Info("Escrow refunded", zap.String("tx_hash", receipt.TxHash), zap.Uint64("escrow_id", escrowID))
	telemetry.SetOK(span)
	return &ActionResult{TxHash: receipt.TxHash, EscrowID: escrowID, Status: string(escrow.StatusRefunded)}, nil
}

// GetEscrow reads an escrow from the ledger. An escrow the contract cannot
// produce is reported as not found.
func (s *Service) GetEscrow(ctx context.Context, escrowID uint64) (*EscrowResponse, error) {
	record, err := s.getRecord(ctx, escrowID)
	if err != nil {
		return nil, err
	}
	resp := ToEscrowResponse(record)
	return &resp, nil
}

// IsTimedOut reports whether the escrow reached its unlock time
func (s *Service) IsTimedOut(ctx context.Context, escrowID uint64) (bool, error) {
	record, err := s.getRecord(ctx, escrowID)
	if err != nil {
		return false, err
	}
	return record.IsTimedOut(s.now()), nil
}

// Status returns the escrow status together with its timeout flag
func (s *Service) Status(ctx context.Context, escrowID uint64) (*StatusResponse, error) {
	record, err := s.getRecord(ctx, escrowID)
	if err != nil {
		return nil, err
	}
	return &StatusResponse{
		EscrowID:   record.EscrowID,
		Status:     string(record.Status),
		TimedOut:   record.IsTimedOut(s.now()),
		UnlockTime: record.UnlockTime,
	}, nil
}

func (s *Service) getRecord(ctx context.Context, escrowID uint64) (*escrow.Record, error) {
	record, err := s.contract.GetEscrow(ctx, escrowID)
	if err != nil {
		return nil, ledger.NotFoundOnSimulation(err, fmt.Sprintf("Escrow %d not found", escrowID))
	}
	return record, nil
}

func (s *Service) addressOf(secret string) (string, error) {
	addr, err := s.keys.AddressOf(secret)
	if err != nil {
		return "", shared.ErrInvalidInput.WithMessage("Invalid secret key")
	}
	return addr, nil
}

func (s *Service) ledgerFailure(ctx context.Context, err error, kind reconciliation.Kind, payload any) error {
	if hash, ok := ledger.TimeoutHash(err); ok && s.tracker != nil {
		if trackErr := s.tracker.Track(ctx, hash, kind, payload); trackErr != nil {
			s.logger.Error("Failed to record pending transaction",
				zap.String("tx_hash", hash),
				zap.String("kind", string(kind)),
				zap.Error(trackErr),
			)
		}
	}
	return ledger.ToDomainError(err)
}

// LockPayload describes a lock_funds submission
type LockPayload struct {
	Buyer      string          `json:"buyer"`
	Seller     string          `json:"seller"`
	Amount     decimal.Decimal `json:"amount"`
	UnlockTime time.Time       `json:"unlock_time"`
}

// ActionPayload describes a release or refund submission
type ActionPayload struct {
	EscrowID uint64 `json:"escrow_id"`
}
