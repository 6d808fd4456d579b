package marketplace

import (
	"testing"
	"time"

	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	sellerAddr = "GBSELLERAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"
	buyerAddr  = "GBBUYERAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"
	txHash     = "a1b2c3d4e5f60718293a4b5c6d7e8f90a1b2c3d4e5f60718293a4b5c6d7e8f90"
)

func newTestListing(t *testing.T, amount, price string, expiresAt time.Time) *Listing {
	t.Helper()
	l, err := NewListing(7, 1, sellerAddr, decimal.RequireFromString(amount), decimal.RequireFromString(price), txHash, expiresAt)
	require.NoError(t, err)
	return l
}

func TestNewListing(t *testing.T) {
	expires := time.Now().Add(time.Hour)

	t.Run("computes total price and starts active", func(t *testing.T) {
		l := newTestListing(t, "10", "50", expires)
		assert.Equal(t, uint64(7), l.LedgerListingID)
		assert.True(t, l.Amount.Equal(l.InitialAmount))
		assert.Equal(t, "500", l.TotalPrice.String())
		assert.Equal(t, ListingStatusActive, l.Status)
		assert.NotEmpty(t, l.ID)
	})

	tests := []struct {
		name    string
		assetID int64
		seller  string
		amount  string
		price   string
		hash    string
		code    string
	}{
		{"zero asset", 0, sellerAddr, "1", "1", txHash, "INVALID_ASSET"},
		{"empty seller", 1, "", "1", "1", txHash, "INVALID_SELLER"},
		{"zero amount", 1, sellerAddr, "0", "1", txHash, "INVALID_AMOUNT"},
		{"negative price", 1, sellerAddr, "1", "-2", txHash, "INVALID_PRICE"},
		{"missing hash", 1, sellerAddr, "1", "1", "", "INVALID_TX_HASH"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewListing(1, tt.assetID, tt.seller, decimal.RequireFromString(tt.amount), decimal.RequireFromString(tt.price), tt.hash, expires)
			var de *shared.DomainError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.code, de.Code)
		})
	}
}

func TestListingStatus(t *testing.T) {
	assert.True(t, ListingStatusActive.CanTransitionTo(ListingStatusSold))
	assert.True(t, ListingStatusActive.CanTransitionTo(ListingStatusExpired))
	assert.False(t, ListingStatusActive.CanTransitionTo(ListingStatusActive))
	for _, terminal := range []ListingStatus{ListingStatusSold, ListingStatusCancelled, ListingStatusExpired} {
		assert.True(t, terminal.IsTerminal())
		assert.False(t, terminal.CanTransitionTo(ListingStatusActive), "terminal %s must never reactivate", terminal)
		assert.False(t, terminal.CanTransitionTo(ListingStatusCancelled))
	}

	s, err := ParseListingStatus(" sold ")
	require.NoError(t, err)
	assert.Equal(t, ListingStatusSold, s)
	_, err = ParseListingStatus("pending")
	assert.Error(t, err)
}

func TestExpiresAfter(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, now.AddDate(0, 0, 30), ExpiresAfter(now, 0))
	assert.Equal(t, now.AddDate(0, 0, 7), ExpiresAfter(now, 7))
}

func TestListing_EnsurePurchasable(t *testing.T) {
	now := time.Now()

	t.Run("accepts amount up to remaining", func(t *testing.T) {
		l := newTestListing(t, "10", "50", now.Add(time.Hour))
		assert.NoError(t, l.EnsurePurchasable(decimal.NewFromInt(10), now))
	})

	t.Run("rejects more than remaining", func(t *testing.T) {
		l := newTestListing(t, "10", "50", now.Add(time.Hour))
		err := l.EnsurePurchasable(decimal.NewFromInt(11), now)
		assert.ErrorIs(t, err, shared.ErrInsufficientAmount)
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		l := newTestListing(t, "10", "50", now.Add(time.Hour))
		assert.Error(t, l.EnsurePurchasable(decimal.Zero, now))
	})

	t.Run("rejects expired listing", func(t *testing.T) {
		l := newTestListing(t, "10", "50", now.Add(-time.Minute))
		assert.ErrorIs(t, l.EnsurePurchasable(decimal.NewFromInt(1), now), shared.ErrInvalidState)
	})

	t.Run("rejects inactive listing", func(t *testing.T) {
		l := newTestListing(t, "10", "50", now.Add(time.Hour))
		l.Status = ListingStatusCancelled
		assert.ErrorIs(t, l.EnsurePurchasable(decimal.NewFromInt(1), now), shared.ErrInvalidState)
	})
}

func TestListing_EnsurePurchasableLedgerPrecision(t *testing.T) {
	now := time.Now()
	l := newTestListing(t, "10", "50", now.Add(time.Hour))

	assert.NoError(t, l.EnsurePurchasable(decimal.RequireFromString("0.0000001"), now))
	err := l.EnsurePurchasable(decimal.RequireFromString("0.00000001"), now)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestListing_PurchaseTotalRoundsUp(t *testing.T) {
	l := newTestListing(t, "10", "0.3333333", time.Now().Add(time.Hour))

	total := l.PurchaseTotal(decimal.RequireFromString("0.5"))
	assert.Equal(t, "0.1666667", total.String())
	assert.True(t, HasLedgerPrecision(total))
	assert.Equal(t, "3.333333", l.TotalPrice.String())
}

func TestHasLedgerPrecision(t *testing.T) {
	assert.True(t, HasLedgerPrecision(decimal.NewFromInt(5)))
	assert.True(t, HasLedgerPrecision(decimal.RequireFromString("1.2345678")))
	assert.False(t, HasLedgerPrecision(decimal.RequireFromString("1.23456789")))
}

func TestListing_EnsureCancellable(t *testing.T) {
	t.Run("only the seller may cancel", func(t *testing.T) {
		l := newTestListing(t, "10", "50", time.Now().Add(time.Hour))
		assert.ErrorIs(t, l.EnsureCancellable(buyerAddr), shared.ErrUnauthorized)
		assert.Equal(t, ListingStatusActive, l.Status)
	})

	t.Run("seller may cancel an active listing", func(t *testing.T) {
		l := newTestListing(t, "10", "50", time.Now().Add(time.Hour))
		assert.NoError(t, l.EnsureCancellable(sellerAddr))
		assert.Equal(t, ListingStatusActive, l.Status)
	})

	t.Run("terminal listing cannot be cancelled", func(t *testing.T) {
		l := newTestListing(t, "10", "50", time.Now().Add(time.Hour))
		l.Status = ListingStatusSold
		assert.ErrorIs(t, l.EnsureCancellable(sellerAddr), shared.ErrInvalidState)
	})
}

func TestNewTransaction(t *testing.T) {
	l := newTestListing(t, "10", "50", time.Now().Add(time.Hour))

	tx, err := NewTransaction(txHash, l, buyerAddr, decimal.NewFromInt(10))
	require.NoError(t, err)
	assert.Equal(t, l.ID, tx.ListingID)
	assert.Equal(t, sellerAddr, tx.SellerAddress)
	assert.Equal(t, "500", tx.TotalPrice.String())

	_, err = NewTransaction("", l, buyerAddr, decimal.NewFromInt(1))
	assert.Error(t, err)
	_, err = NewTransaction(txHash, nil, buyerAddr, decimal.NewFromInt(1))
	assert.Error(t, err)
	_, err = NewTransaction(txHash, l, "", decimal.NewFromInt(1))
	assert.Error(t, err)
	_, err = NewTransaction(txHash, l, buyerAddr, decimal.Zero)
	assert.Error(t, err)
}
