package marketplace

import (
	"time"

	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/marketplace"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateListingRequest represents a request to list asset tokens for sale
type CreateListingRequest struct {
	AssetID        int64           `json:"asset_id" binding:"required,min=1"`
	Amount         decimal.Decimal `json:"amount" binding:"required"`
	PricePerToken  decimal.Decimal `json:"price_per_token" binding:"required"`
	SellerSecret   string          `json:"seller_secret" binding:"required,stellar_secret"`
	ExpirationDays int             `json:"expiration_days" binding:"omitempty,min=1,max=365"`
}

// BuyTokensRequest represents a request to buy tokens from a listing
type BuyTokensRequest struct {
	ListingID   uuid.UUID       `json:"listing_id" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	BuyerSecret string          `json:"buyer_secret" binding:"required,stellar_secret"`
}

// CancelListingRequest carries the seller's signing key for a cancellation
type CancelListingRequest struct {
	SellerSecret string `json:"seller_secret" binding:"required,stellar_secret"`
}

// ListingListFilter represents filter options for listing reads
type ListingListFilter struct {
	Status        string `form:"status" binding:"omitempty,oneof=ACTIVE SOLD CANCELLED EXPIRED active sold cancelled expired"`
	AssetID       *int64 `form:"asset_id" binding:"omitempty,min=1"`
	SellerAddress string `form:"seller" binding:"omitempty,stellar_address"`
	Page          int    `form:"page" binding:"omitempty,min=1"`
	PageSize      int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy       string `form:"order_by" binding:"omitempty,oneof=created_at updated_at price_per_token amount expires_at"`
	OrderDir      string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ListingResponse represents a mirrored listing in API responses
type ListingResponse struct {
	ID              uuid.UUID       `json:"id"`
	LedgerListingID uint64          `json:"ledger_listing_id"`
	AssetID         int64           `json:"asset_id"`
	SellerAddress   string          `json:"seller_address"`
	Amount          decimal.Decimal `json:"amount"`
	InitialAmount   decimal.Decimal `json:"initial_amount"`
	PricePerToken   decimal.Decimal `json:"price_per_token"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	Status          string          `json:"status"`
	LedgerTxHash    string          `json:"ledger_tx_hash"`
	ExpiresAt       time.Time       `json:"expires_at"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// TransactionResponse represents a purchase record in API responses
type TransactionResponse struct {
	ID            uuid.UUID       `json:"id"`
	LedgerTxHash  string          `json:"ledger_tx_hash"`
	ListingID     uuid.UUID       `json:"listing_id"`
	BuyerAddress  string          `json:"buyer_address"`
	SellerAddress string          `json:"seller_address"`
	Amount        decimal.Decimal `json:"amount"`
	PricePerToken decimal.Decimal `json:"price_per_token"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	EscrowID      *uint64         `json:"escrow_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// StatsResponse represents marketplace counters
type StatsResponse struct {
	TotalListings     int64           `json:"total_listings"`
	ActiveListings    int64           `json:"active_listings"`
	SoldListings      int64           `json:"sold_listings"`
	CancelledListings int64           `json:"cancelled_listings"`
	ExpiredListings   int64           `json:"expired_listings"`
	TotalTransactions int64           `json:"total_transactions"`
	TotalVolume       decimal.Decimal `json:"total_volume"`
	AssetsListed      int64           `json:"assets_listed"`
}

// CreateListingResult is returned once list_property confirmed
type CreateListingResult struct {
	TxHash          string          `json:"tx_hash"`
	LedgerListingID uint64          `json:"ledger_listing_id"`
	Listing         ListingResponse `json:"listing"`
}

// PurchaseResult is returned once buy_tokens confirmed
type PurchaseResult struct {
	TxHash          string          `json:"tx_hash"`
	ApprovalTxHash  string          `json:"approval_tx_hash"`
	ListingID       uuid.UUID       `json:"listing_id"`
	Amount          decimal.Decimal `json:"amount"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	ListingStatus   string          `json:"listing_status"`
	// Recorded is false when the hash had already been mirrored
	Recorded bool `json:"recorded"`
}

// CancelResult is returned once cancel_listing confirmed
type CancelResult struct {
	TxHash    string    `json:"tx_hash"`
	ListingID uuid.UUID `json:"listing_id"`
	Status    string    `json:"status"`
}

// ToListingResponse converts a domain Listing to ListingResponse
func ToListingResponse(l *marketplace.Listing) ListingResponse {
	return ListingResponse{
		ID:              l.ID,
		LedgerListingID: l.LedgerListingID,
		AssetID:         l.AssetID,
		SellerAddress:   l.SellerAddress,
		Amount:          l.Amount,
		InitialAmount:   l.InitialAmount,
		PricePerToken:   l.PricePerToken,
		TotalPrice:      l.TotalPrice,
		Status:          l.Status.String(),
		LedgerTxHash:    l.LedgerTxHash,
		ExpiresAt:       l.ExpiresAt,
		CreatedAt:       l.CreatedAt,
		UpdatedAt:       l.UpdatedAt,
	}
}

// ToListingResponses converts a slice of listings
func ToListingResponses(listings []marketplace.Listing) []ListingResponse {
	out := make([]ListingResponse, len(listings))
	for i := range listings {
		out[i] = ToListingResponse(&listings[i])
	}
	return out
}

// ToTransactionResponse converts a domain Transaction to TransactionResponse
func ToTransactionResponse(tx *marketplace.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:            tx.ID,
		LedgerTxHash:  tx.LedgerTxHash,
		ListingID:     tx.ListingID,
		BuyerAddress:  tx.BuyerAddress,
		SellerAddress: tx.SellerAddress,
		Amount:        tx.Amount,
		PricePerToken: tx.PricePerToken,
		TotalPrice:    tx.TotalPrice,
		EscrowID:      tx.EscrowID,
		CreatedAt:     tx.CreatedAt,
	}
}

// ToTransactionResponses converts a slice of purchase records
func ToTransactionResponses(txs []marketplace.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, len(txs))
	for i := range txs {
		out[i] = ToTransactionResponse(&txs[i])
	}
	return out
}

// ToStatsResponse converts domain Stats to StatsResponse
func ToStatsResponse(s *marketplace.Stats) StatsResponse {
	return StatsResponse{
		TotalListings:     s.TotalListings,
		ActiveListings:    s.ActiveListings,
		SoldListings:      s.SoldListings,
		CancelledListings: s.CancelledListings,
		ExpiredListings:   s.ExpiredListings,
		TotalTransactions: s.TotalTransactions,
		TotalVolume:       s.TotalVolume,
		AssetsListed:      s.AssetsListed,
	}
}
