package marketplace

import (
	"context"
	"time"

	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ListingFilter narrows listing reads
type ListingFilter struct {
	shared.Filter
	Status        *ListingStatus
	AssetID       *int64
	SellerAddress string
}

// ListingRepository defines the interface for listing persistence
type ListingRepository interface {
	// FindByID finds a listing by mirror ID
	FindByID(ctx context.Context, id uuid.UUID) (*Listing, error)

	// FindByLedgerListingID finds a listing by the ledger-issued id
	FindByLedgerListingID(ctx context.Context, ledgerListingID uint64) (*Listing, error)

	// FindAll returns one page of listings plus the total match count
	FindAll(ctx context.Context, filter ListingFilter) ([]Listing, int64, error)

	// Save creates or updates a listing
	Save(ctx context.Context, listing *Listing) error

	// TransitionStatus moves a listing from one status to another only if it
	// is still in the expected status. Returns shared.ErrInvalidState when not.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to ListingStatus) error

	// ExpireDue marks ACTIVE listings with expires_at <= now as EXPIRED
	ExpireDue(ctx context.Context, now time.Time) (int64, error)

	// Stats aggregates listing and transaction counters
	Stats(ctx context.Context) (*Stats, error)
}

// TransactionRepository defines the interface for purchase record persistence
type TransactionRepository interface {
	// FindByHash finds a purchase record by its ledger transaction hash
	FindByHash(ctx context.Context, txHash string) (*Transaction, error)

	// ExistsByHash reports whether a record for the hash exists
	ExistsByHash(ctx context.Context, txHash string) (bool, error)

	// FindRecent returns the newest records, limit capped at shared.MaxPageSize
	FindRecent(ctx context.Context, limit int) ([]Transaction, error)

	// FindByListing returns records for a listing with limit/offset paging
	FindByListing(ctx context.Context, listingID uuid.UUID, limit, offset int) ([]Transaction, int64, error)

	// DeleteOlderThan removes records created before cutoff
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// PurchaseRecorder writes a confirmed purchase to the mirror
type PurchaseRecorder interface {
	// RecordPurchase inserts tx and decrements the listing by tx.Amount in one
	// database transaction. The decrement only applies while the listing is
	// ACTIVE with enough remaining amount. When a record for tx.LedgerTxHash
	// already exists nothing changes and recorded is false.
	RecordPurchase(ctx context.Context, tx *Transaction) (listing *Listing, recorded bool, err error)
}

// AssetRepository reads the asset mirror
type AssetRepository interface {
	FindByID(ctx context.Context, id int64) (*Asset, error)
	UpdateTotalSupply(ctx context.Context, id int64, totalSupply decimal.Decimal) error
}
