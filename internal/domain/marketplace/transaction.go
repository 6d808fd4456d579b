package marketplace

import (
	"time"

	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction is the immutable mirror record of a confirmed purchase.
// LedgerTxHash is unique and is the idempotency key for replays.
type Transaction struct {
	ID            uuid.UUID
	LedgerTxHash  string
	ListingID     uuid.UUID
	BuyerAddress  string
	SellerAddress string
	Amount        decimal.Decimal
	PricePerToken decimal.Decimal
	TotalPrice    decimal.Decimal
	EscrowID      *uint64
	Metadata      string
	CreatedAt     time.Time
}

// NewTransaction builds the purchase record for a confirmed buy of amount
// tokens from listing
func NewTransaction(txHash string, listing *Listing, buyerAddress string, amount decimal.Decimal) (*Transaction, error) {
	if txHash == "" {
		return nil, shared.NewDomainError("INVALID_TX_HASH", "Ledger transaction hash cannot be empty")
	}
	if listing == nil {
		return nil, shared.NewDomainError("INVALID_LISTING", "Listing is required")
	}
	if buyerAddress == "" {
		return nil, shared.NewDomainError("INVALID_BUYER", "Buyer address cannot be empty")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Purchase amount must be positive")
	}

	return &Transaction{
		ID:            uuid.New(),
		LedgerTxHash:  txHash,
		ListingID:     listing.ID,
		BuyerAddress:  buyerAddress,
		SellerAddress: listing.SellerAddress,
		Amount:        amount,
		PricePerToken: listing.PricePerToken,
		TotalPrice:    listing.PurchaseTotal(amount),
		CreatedAt:     time.Now(),
	}, nil
}
