package escrow

import (
	"time"

	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/escrow"
	"github.com/shopspring/decimal"
)

// LockFundsRequest represents a request to lock a buyer's payment in escrow
type LockFundsRequest struct {
	BuyerSecret      string          `json:"buyer_secret" binding:"required,stellar_secret"`
	SellerAddress    string          `json:"seller_address" binding:"required,stellar_address"`
	Amount           decimal.Decimal `json:"amount" binding:"required"`
	LockDurationDays int             `json:"lock_duration_days" binding:"required,min=1,max=3650"`
}

// ReleaseRequest carries the buyer's key for a release
type ReleaseRequest struct {
	EscrowID    uint64 `json:"escrow_id" binding:"required"`
	BuyerSecret string `json:"buyer_secret" binding:"required,stellar_secret"`
}

// RefundRequest carries the seller's key for a refund
type RefundRequest struct {
	EscrowID     uint64 `json:"escrow_id" binding:"required"`
	SellerSecret string `json:"seller_secret" binding:"required,stellar_secret"`
}

// LockResult is returned once lock_funds confirmed
type LockResult struct {
	TxHash     string    `json:"tx_hash"`
	EscrowID   uint64    `json:"escrow_id"`
	UnlockTime time.Time `json:"unlock_time"`
}

// ActionResult is returned once release or refund confirmed
type ActionResult struct {
	TxHash   string `json:"tx_hash"`
	EscrowID uint64 `json:"escrow_id"`
	Status   string `json:"status"`
}

// EscrowResponse represents a ledger escrow in API responses
type EscrowResponse struct {
	EscrowID   uint64          `json:"escrow_id"`
	Buyer      string          `json:"buyer"`
	Seller     string          `json:"seller"`
	Amount     decimal.Decimal `json:"amount"`
	UnlockTime time.Time       `json:"unlock_time"`
	Status     string          `json:"status"`
}

// StatusResponse reports an escrow's status and whether it is refundable by time
type StatusResponse struct {
	EscrowID   uint64    `json:"escrow_id"`
	Status     string    `json:"status"`
	TimedOut   bool      `json:"timed_out"`
	UnlockTime time.Time `json:"unlock_time"`
}

// ToEscrowResponse converts a ledger escrow record to EscrowResponse
func ToEscrowResponse(r *escrow.Record) EscrowResponse {
	return EscrowResponse{
		EscrowID:   r.EscrowID,
		Buyer:      r.Buyer,
		Seller:     r.Seller,
		Amount:     r.Amount,
		UnlockTime: r.UnlockTime,
		Status:     string(r.Status),
	}
}
