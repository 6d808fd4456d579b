package marketplace

import (
	"fmt"
	"strings"
	"time"

	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DefaultExpirationDays is applied when a listing request leaves expiration unset
const DefaultExpirationDays = 30

// LedgerDecimals is the number of fractional digits the ledger stores for
// token amounts and prices
const LedgerDecimals = 7

// HasLedgerPrecision reports whether d fits in LedgerDecimals fractional digits
func HasLedgerPrecision(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(LedgerDecimals))
}

// ListingStatus represents the status of a listing
type ListingStatus string

const (
	ListingStatusActive    ListingStatus = "ACTIVE"
	ListingStatusSold      ListingStatus = "SOLD"
	ListingStatusCancelled ListingStatus = "CANCELLED"
	ListingStatusExpired   ListingStatus = "EXPIRED"
)

// IsValid checks if the status is a valid ListingStatus
func (s ListingStatus) IsValid() bool {
	switch s {
	case ListingStatusActive, ListingStatusSold, ListingStatusCancelled, ListingStatusExpired:
		return true
	}
	return false
}

// String returns the string representation of ListingStatus
func (s ListingStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no further transition is possible
func (s ListingStatus) IsTerminal() bool {
	return s == ListingStatusSold || s == ListingStatusCancelled || s == ListingStatusExpired
}

// CanTransitionTo checks if the status can transition to the target status
func (s ListingStatus) CanTransitionTo(target ListingStatus) bool {
	if s != ListingStatusActive {
		return false
	}
	return target.IsTerminal()
}

// ParseListingStatus parses a case-insensitive status string
func ParseListingStatus(raw string) (ListingStatus, error) {
	s := ListingStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Unknown listing status %q", raw))
	}
	return s, nil
}

// Listing is the mirror of an on-ledger sale offer for fractional asset tokens.
// Amounts are human units; the ledger stores them scaled by 10^7.
type Listing struct {
	shared.BaseEntity
	LedgerListingID uint64
	AssetID         int64
	SellerAddress   string
	Amount          decimal.Decimal
	InitialAmount   decimal.Decimal
	PricePerToken   decimal.Decimal
	TotalPrice      decimal.Decimal
	Status          ListingStatus
	LedgerTxHash    string
	ExpiresAt       time.Time
}

// NewListing creates the mirror row for a listing the ledger already confirmed
func NewListing(ledgerListingID uint64, assetID int64, sellerAddress string, amount, pricePerToken decimal.Decimal, txHash string, expiresAt time.Time) (*Listing, error) {
	if assetID <= 0 {
		return nil, shared.NewDomainError("INVALID_ASSET", "Asset ID must be positive")
	}
	if sellerAddress == "" {
		return nil, shared.NewDomainError("INVALID_SELLER", "Seller address cannot be empty")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Listing amount must be positive")
	}
	if !pricePerToken.IsPositive() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Price per token must be positive")
	}
	if txHash == "" {
		return nil, shared.NewDomainError("INVALID_TX_HASH", "Ledger transaction hash cannot be empty")
	}

	return &Listing{
		BaseEntity:      shared.NewBaseEntity(),
		LedgerListingID: ledgerListingID,
		AssetID:         assetID,
		SellerAddress:   sellerAddress,
		Amount:          amount,
		InitialAmount:   amount,
		PricePerToken:   pricePerToken,
		TotalPrice:      amount.Mul(pricePerToken).RoundCeil(LedgerDecimals),
		Status:          ListingStatusActive,
		LedgerTxHash:    txHash,
		ExpiresAt:       expiresAt,
	}, nil
}

// ExpiresAfter returns now + days, using DefaultExpirationDays when days <= 0
func ExpiresAfter(now time.Time, days int) time.Time {
	if days <= 0 {
		days = DefaultExpirationDays
	}
	return now.AddDate(0, 0, days)
}

// IsExpired reports whether the listing's expiry has passed
func (l *Listing) IsExpired(now time.Time) bool {
	return !l.ExpiresAt.IsZero() && !now.Before(l.ExpiresAt)
}

// IsOwnedBy reports whether address is the seller recorded at creation
func (l *Listing) IsOwnedBy(address string) bool {
	return l.SellerAddress == address
}

// EnsurePurchasable validates a purchase against the mirror before any
// ledger round trip is spent
func (l *Listing) EnsurePurchasable(amount decimal.Decimal, now time.Time) error {
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Purchase amount must be positive")
	}
	if !HasLedgerPrecision(amount) {
		return shared.ErrInvalidInput.WithMessage(
			fmt.Sprintf("Purchase amount %s has more than %d decimal places", amount.String(), LedgerDecimals))
	}
	if l.Status != ListingStatusActive {
		return shared.ErrInvalidState.WithMessage(fmt.Sprintf("Listing is %s, not ACTIVE", l.Status))
	}
	if l.IsExpired(now) {
		return shared.ErrInvalidState.WithMessage("Listing has expired")
	}
	if amount.GreaterThan(l.Amount) {
		return shared.ErrInsufficientAmount.WithMessage(
			fmt.Sprintf("Requested %s tokens but only %s remain", amount.String(), l.Amount.String()))
	}
	return nil
}

// PurchaseTotal returns amount * pricePerToken rounded up to the ledger's
// precision, so the approval never falls short of what the contract charges
func (l *Listing) PurchaseTotal(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(l.PricePerToken).RoundCeil(LedgerDecimals)
}

// EnsureCancellable checks that callerAddress is the seller and that the
// listing is still active
func (l *Listing) EnsureCancellable(callerAddress string) error {
	if !l.IsOwnedBy(callerAddress) {
		return shared.ErrUnauthorized.WithMessage("Only the seller can cancel this listing")
	}
	if !l.Status.CanTransitionTo(ListingStatusCancelled) {
		return shared.ErrInvalidState.WithMessage(fmt.Sprintf("Cannot cancel listing in %s status", l.Status))
	}
	return nil
}
