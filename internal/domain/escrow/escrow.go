package escrow

import (
	"fmt"
	"strings"
	"time"

	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// SecondsPerDay is used to turn a lock duration in days into an unlock time
const SecondsPerDay = 86400

// Status represents the ledger-side state of an escrow
type Status string

const (
	StatusLocked   Status = "LOCKED"
	StatusReleased Status = "RELEASED"
	StatusRefunded Status = "REFUNDED"
)

// IsValid checks if the status is a valid Status
func (s Status) IsValid() bool {
	switch s {
	case StatusLocked, StatusReleased, StatusRefunded:
		return true
	}
	return false
}

// IsTerminal reports whether the escrow can no longer move
func (s Status) IsTerminal() bool {
	return s == StatusReleased || s == StatusRefunded
}

// CanTransitionTo checks if the status can transition to the target status
func (s Status) CanTransitionTo(target Status) bool {
	return s == StatusLocked && target.IsTerminal()
}

// ParseStatus maps the contract's status symbol (any case) to a Status
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Unknown escrow status %q", raw))
	}
	return s, nil
}

// Record is an escrow as reported by the escrow contract. It lives on the
// ledger and is never persisted in the mirror.
type Record struct {
	EscrowID   uint64
	Buyer      string
	Seller     string
	Amount     decimal.Decimal
	UnlockTime time.Time
	Status     Status
}

// UnlockTimeAfter computes now + days*86400 truncated to whole seconds
func UnlockTimeAfter(now time.Time, days int) time.Time {
	return time.Unix(now.Unix()+int64(days)*SecondsPerDay, 0).UTC()
}

// IsTimedOut reports whether now is at or after the unlock time
func (r *Record) IsTimedOut(now time.Time) bool {
	return !now.Before(r.UnlockTime)
}

// EnsureRefundable checks the refund preconditions the coordinator can see
// locally. The contract still has the final word.
func (r *Record) EnsureRefundable(callerAddress string, now time.Time) error {
	if r.Status != StatusLocked {
		return shared.ErrInvalidState.WithMessage(fmt.Sprintf("Escrow is %s, not LOCKED", r.Status))
	}
	if r.Seller != "" && r.Seller != callerAddress {
		return shared.ErrUnauthorized.WithMessage("Only the seller can refund this escrow")
	}
	if !r.IsTimedOut(now) {
		return shared.ErrInvalidState.WithMessage(
			fmt.Sprintf("Escrow unlocks at %s", r.UnlockTime.UTC().Format(time.RFC3339)))
	}
	return nil
}
