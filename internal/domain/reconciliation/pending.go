package reconciliation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/shared"
	"github.com/google/uuid"
)

// Kind identifies which coordinator operation produced a pending hash
type Kind string

const (
	KindList    Kind = "LIST"
	KindBuy     Kind = "BUY"
	KindCancel  Kind = "CANCEL"
	KindApprove Kind = "APPROVE"
	KindLock    Kind = "LOCK"
	KindRelease Kind = "RELEASE"
	KindRefund  Kind = "REFUND"
)

// Status tracks how far a pending hash got
type Status string

const (
	// StatusPending means the ledger has not reported a terminal status yet
	StatusPending Status = "PENDING"
	// StatusConfirmed means the ledger reported SUCCESS but the mirror write
	// for it has not been applied
	StatusConfirmed Status = "CONFIRMED"
	// StatusApplied means the ledger reported SUCCESS and the mirror reflects it
	StatusApplied Status = "APPLIED"
	StatusFailed  Status = "FAILED"
	// StatusAbandoned means polling gave up; an operator has to look at it
	StatusAbandoned Status = "ABANDONED"
)

// IsTerminal reports whether the row needs no further work
func (s Status) IsTerminal() bool {
	return s == StatusApplied || s == StatusFailed || s == StatusAbandoned
}

// PendingTransaction is a submitted ledger hash whose outcome the mirror has
// not absorbed yet
type PendingTransaction struct {
	shared.BaseEntity
	TxHash        string
	Kind          Kind
	Payload       json.RawMessage
	Status        Status
	Attempts      int
	LastError     string
	LastCheckedAt *time.Time
	ResolvedAt    *time.Time
}

// NewPendingTransaction records a hash produced by kind with its replay payload
func NewPendingTransaction(txHash string, kind Kind, payload any) (*PendingTransaction, error) {
	if txHash == "" {
		return nil, shared.NewDomainError("INVALID_TX_HASH", "Ledger transaction hash cannot be empty")
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal pending payload: %w", err)
	}
	return &PendingTransaction{
		BaseEntity: shared.NewBaseEntity(),
		TxHash:     txHash,
		Kind:       kind,
		Payload:    raw,
		Status:     StatusPending,
	}, nil
}

// DecodePayload unmarshals the replay payload into v
func (p *PendingTransaction) DecodePayload(v any) error {
	if len(p.Payload) == 0 {
		return shared.NewDomainError("INVALID_PAYLOAD", "Pending transaction has no payload")
	}
	return json.Unmarshal(p.Payload, v)
}

// MarkChecked records one more poll that still saw no terminal status
func (p *PendingTransaction) MarkChecked(now time.Time, maxAttempts int) {
	p.Attempts++
	p.LastCheckedAt = &now
	if maxAttempts > 0 && p.Attempts >= maxAttempts {
		p.Status = StatusAbandoned
		p.ResolvedAt = &now
	}
	p.UpdatedAt = now
}

// MarkConfirmed records that the ledger reported SUCCESS
func (p *PendingTransaction) MarkConfirmed(now time.Time) {
	p.Status = StatusConfirmed
	p.LastCheckedAt = &now
	p.UpdatedAt = now
}

// MarkApplied records that the mirror now reflects the hash
func (p *PendingTransaction) MarkApplied(now time.Time) {
	p.Status = StatusApplied
	p.LastError = ""
	p.ResolvedAt = &now
	p.UpdatedAt = now
}

// MarkFailed records an explicit ledger failure
func (p *PendingTransaction) MarkFailed(now time.Time, reason string) {
	p.Status = StatusFailed
	p.LastError = reason
	p.ResolvedAt = &now
	p.UpdatedAt = now
}

// RecordApplyError keeps the row CONFIRMED and remembers why the mirror
// write did not go through
func (p *PendingTransaction) RecordApplyError(now time.Time, err error) {
	p.Attempts++
	p.LastError = err.Error()
	p.LastCheckedAt = &now
	p.UpdatedAt = now
}

// Repository defines the interface for pending ledger transaction persistence
type Repository interface {
	// Save inserts or updates a row; inserting an existing hash is a no-op
	Save(ctx context.Context, p *PendingTransaction) error

	// FindByHash finds a row by transaction hash
	FindByHash(ctx context.Context, txHash string) (*PendingTransaction, error)

	// FindByStatus returns up to limit rows in status, oldest first
	FindByStatus(ctx context.Context, status Status, limit int) ([]PendingTransaction, error)

	// CountByStatus counts rows in status
	CountByStatus(ctx context.Context, status Status) (int64, error)

	// FindByID finds a row by id
	FindByID(ctx context.Context, id uuid.UUID) (*PendingTransaction, error)
}

const resultIDKey = "result_id"

// AttachResultID stores the ledger-issued id (listing or escrow id) in the
// payload so a later replay does not need the ledger response again
func (p *PendingTransaction) AttachResultID(id uint64) error {
	fields := map[string]json.RawMessage{}
	if len(p.Payload) > 0 {
		if err := json.Unmarshal(p.Payload, &fields); err != nil {
			return fmt.Errorf("pending payload is not an object: %w", err)
		}
	}
	raw, err := json.Marshal(id)
	if err != nil {
		return err
	}
	fields[resultIDKey] = raw
	payload, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	p.Payload = payload
	return nil
}

// ResultID returns the id stored by AttachResultID
func (p *PendingTransaction) ResultID() (uint64, bool) {
	var fields struct {
		ResultID *uint64 `json:"result_id"`
	}
	if len(p.Payload) == 0 || json.Unmarshal(p.Payload, &fields) != nil || fields.ResultID == nil {
		return 0, false
	}
	return *fields.ResultID, true
}

// Abandon gives up on a row that keeps failing to apply
func (p *PendingTransaction) Abandon(now time.Time, reason string) {
	p.Status = StatusAbandoned
	if reason != "" {
		p.LastError = reason
	}
	p.ResolvedAt = &now
	p.UpdatedAt = now
}
