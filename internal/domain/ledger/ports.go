package ledger

import (
	"context"
	"time"

	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/escrow"
	"github.com/shopspring/decimal"
)

// TxStatus is the status reported by the network for a submitted hash
type TxStatus string

const (
	TxStatusNotFound TxStatus = "NOT_FOUND"
	TxStatusSuccess  TxStatus = "SUCCESS"
	TxStatusFailed   TxStatus = "FAILED"
)

// IsTerminal reports whether the status will not change any more
func (s TxStatus) IsTerminal() bool {
	return s == TxStatusSuccess || s == TxStatusFailed
}

// Receipt identifies a confirmed ledger transaction
type Receipt struct {
	TxHash string
	Ledger uint32
}

// Outcome is the result of a single status check for a hash
type Outcome struct {
	TxHash string
	Status TxStatus
	Ledger uint32
	// ResultID is the decoded return value when the call returned a u64 id
	ResultID *uint64
}

// ListingInfo is the marketplace contract's view of a listing
type ListingInfo struct {
	ListingID     uint64
	Seller        string
	TokenContract string
	Amount        decimal.Decimal
	PricePerToken decimal.Decimal
	ExpiresAt     time.Time
	Status        string
}

// TokenInfo is what a property token contract reports about itself
type TokenInfo struct {
	Name        string
	Symbol      string
	TotalSupply decimal.Decimal
	Decimals    uint32
}

// KeyResolver derives public addresses from caller-supplied secrets
type KeyResolver interface {
	AddressOf(secret string) (string, error)
}

// MarketplaceGateway invokes the marketplace contract
type MarketplaceGateway interface {
	ListProperty(ctx context.Context, sellerSecret, tokenContract string, amount, pricePerToken decimal.Decimal) (uint64, Receipt, error)
	BuyTokens(ctx context.Context, buyerSecret string, listingID uint64, amount decimal.Decimal) (Receipt, error)
	CancelListing(ctx context.Context, sellerSecret string, listingID uint64) (Receipt, error)
	GetListing(ctx context.Context, listingID uint64) (*ListingInfo, error)
}

// PaymentGateway manages the buyer's payment-token allowance
type PaymentGateway interface {
	// ApproveMarketplace lets the marketplace contract move up to amount of
	// the owner's payment token
	ApproveMarketplace(ctx context.Context, ownerSecret string, amount decimal.Decimal) (Receipt, error)
}

// TokenGateway reads property token contracts
type TokenGateway interface {
	Balance(ctx context.Context, tokenContract, owner string) (decimal.Decimal, error)
	Info(ctx context.Context, tokenContract string) (*TokenInfo, error)
}

// EscrowGateway invokes the escrow contract
type EscrowGateway interface {
	LockFunds(ctx context.Context, buyerSecret, seller string, amount decimal.Decimal, unlockTime time.Time) (uint64, Receipt, error)
	ReleaseFunds(ctx context.Context, buyerSecret string, escrowID uint64) (Receipt, error)
	Refund(ctx context.Context, sellerSecret string, escrowID uint64) (Receipt, error)
	GetEscrow(ctx context.Context, escrowID uint64) (*escrow.Record, error)
}

// StatusChecker performs a single status check for a submitted hash
type StatusChecker interface {
	TransactionStatus(ctx context.Context, txHash string) (*Outcome, error)
}
