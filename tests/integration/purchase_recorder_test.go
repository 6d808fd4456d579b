package integration

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/marketplace"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/shared"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/infrastructure/persistence"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	sellerAddress = "GSELLERXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXX"
	buyerAddress  = "GBUYERXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXX"
)

func seedActiveListing(t *testing.T, testDB *TestDB, ledgerID uint64, amount int64) *marketplace.Listing {
	t.Helper()

	testDB.SeedAsset(1, "CTOKEN")
	listing, err := marketplace.NewListing(ledgerID, 1, sellerAddress,
		decimal.NewFromInt(amount), decimal.NewFromInt(50),
		fmt.Sprintf("list-hash-%d", ledgerID), time.Now().Add(24*time.Hour))
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormListingRepository(testDB.DB).Save(context.Background(), listing))
	return listing
}

// TestPurchaseRecorder_ConcurrentBuys_Integration races two 6-token purchases
// against a 10-token listing. Exactly one may win.
func TestPurchaseRecorder_ConcurrentBuys_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := NewTestDB(t)
	recorder := persistence.NewGormPurchaseRecorder(testDB.DB)
	listings := persistence.NewGormListingRepository(testDB.DB)
	ctx := context.Background()

	listing := seedActiveListing(t, testDB, 1, 10)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		recorded int
		refused  int
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tx, err := marketplace.NewTransaction(fmt.Sprintf("race-%d", i), listing, buyerAddress, decimal.NewFromInt(6))
			require.NoError(t, err)

			_, ok, err := recorder.RecordPurchase(ctx, tx)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil && ok:
				recorded++
			case err != nil:
				assert.ErrorIs(t, err, shared.ErrInsufficientAmount)
				refused++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, recorded)
	assert.Equal(t, 1, refused)

	final, err := listings.FindByID(ctx, listing.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(4).Equal(final.Amount), "remaining %s", final.Amount)
	assert.Equal(t, marketplace.ListingStatusActive, final.Status)
}

// TestPurchaseRecorder_ManyBuyersSellOut_Integration lets ten single-token
// buyers race for a 10-token listing and checks it ends SOLD at zero.
func TestPurchaseRecorder_ManyBuyersSellOut_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := NewTestDB(t)
	recorder := persistence.NewGormPurchaseRecorder(testDB.DB)
	listings := persistence.NewGormListingRepository(testDB.DB)
	transactions := persistence.NewGormTransactionRepository(testDB.DB)
	ctx := context.Background()

	listing := seedActiveListing(t, testDB, 2, 10)

	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tx, err := marketplace.NewTransaction(fmt.Sprintf("crowd-%d", i), listing, buyerAddress, decimal.NewFromInt(1))
			require.NoError(t, err)
			_, _, _ = recorder.RecordPurchase(ctx, tx)
		}(i)
	}
	wg.Wait()

	final, err := listings.FindByID(ctx, listing.ID)
	require.NoError(t, err)
	assert.True(t, final.Amount.IsZero())
	assert.Equal(t, marketplace.ListingStatusSold, final.Status)

	_, total, err := transactions.FindByListing(ctx, listing.ID, 100, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(10), total)
}

// TestPurchaseRecorder_ReplayIsIdempotent_Integration records the same hash
// twice through the unique constraint path
func TestPurchaseRecorder_ReplayIsIdempotent_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := NewTestDB(t)
	recorder := persistence.NewGormPurchaseRecorder(testDB.DB)
	ctx := context.Background()

	listing := seedActiveListing(t, testDB, 3, 10)

	var wg sync.WaitGroup
	results := make([]bool, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tx, err := marketplace.NewTransaction("same-hash", listing, buyerAddress, decimal.NewFromInt(2))
			require.NoError(t, err)
			_, ok, err := recorder.RecordPurchase(ctx, tx)
			assert.NoError(t, err)
			results[i] = ok
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, ok := range results {
		if ok {
			wins++
		}
	}
	assert.Equal(t, 1, wins)

	final, err := persistence.NewGormListingRepository(testDB.DB).FindByID(ctx, listing.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(8).Equal(final.Amount))
}

// TestListingRepository_FullRangeLedgerID_Integration stores a contract
// listing id above the signed 64-bit range.
func TestListingRepository_FullRangeLedgerID_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := NewTestDB(t)
	ctx := context.Background()
	repo := persistence.NewGormListingRepository(testDB.DB)

	listing := seedActiveListing(t, testDB, math.MaxUint64, 10)

	found, err := repo.FindByLedgerListingID(ctx, math.MaxUint64)
	require.NoError(t, err)
	assert.Equal(t, listing.ID, found.ID)
	assert.Equal(t, uint64(math.MaxUint64), found.LedgerListingID)
}
