package persistence

import (
	"context"
	"testing"

	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/marketplace"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPurchaseRecorder_RecordPurchase(t *testing.T) {
	ctx := context.Background()

	t.Run("partial then full purchase sells the listing out", func(t *testing.T) {
		db := setupTestDB(t)
		recorder := NewGormPurchaseRecorder(db)
		listing := seedListing(t, db, 1, "10", "50")

		first, err := marketplace.NewTransaction("hash-a", listing, testBuyer, dec("6"))
		require.NoError(t, err)
		updated, recorded, err := recorder.RecordPurchase(ctx, first)
		require.NoError(t, err)
		assert.True(t, recorded)
		assert.True(t, dec("4").Equal(updated.Amount))
		assert.Equal(t, marketplace.ListingStatusActive, updated.Status)

		second, err := marketplace.NewTransaction("hash-b", listing, testBuyer, dec("4"))
		require.NoError(t, err)
		updated, recorded, err = recorder.RecordPurchase(ctx, second)
		require.NoError(t, err)
		assert.True(t, recorded)
		assert.True(t, updated.Amount.IsZero())
		assert.Equal(t, marketplace.ListingStatusSold, updated.Status)

		stored, err := NewGormTransactionRepository(db).FindByHash(ctx, "hash-b")
		require.NoError(t, err)
		assert.True(t, dec("200").Equal(stored.TotalPrice))
	})

	t.Run("replaying a recorded hash changes nothing", func(t *testing.T) {
		db := setupTestDB(t)
		recorder := NewGormPurchaseRecorder(db)
		listing := seedListing(t, db, 1, "10", "50")

		tx, err := marketplace.NewTransaction("hash-replay", listing, testBuyer, dec("3"))
		require.NoError(t, err)
		_, recorded, err := recorder.RecordPurchase(ctx, tx)
		require.NoError(t, err)
		require.True(t, recorded)

		replay, err := marketplace.NewTransaction("hash-replay", listing, testBuyer, dec("3"))
		require.NoError(t, err)
		updated, recorded, err := recorder.RecordPurchase(ctx, replay)
		require.NoError(t, err)
		assert.False(t, recorded)
		assert.True(t, dec("7").Equal(updated.Amount))

		var count int64
		require.NoError(t, db.Table("transactions").Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("more than remains is refused", func(t *testing.T) {
		db := setupTestDB(t)
		recorder := NewGormPurchaseRecorder(db)
		listing := seedListing(t, db, 1, "10", "50")

		tx, err := marketplace.NewTransaction("hash-big", listing, testBuyer, dec("11"))
		require.NoError(t, err)
		_, recorded, err := recorder.RecordPurchase(ctx, tx)
		assert.ErrorIs(t, err, shared.ErrInsufficientAmount)
		assert.False(t, recorded)

		exists, err := NewGormTransactionRepository(db).ExistsByHash(ctx, "hash-big")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("cancelled listing is refused", func(t *testing.T) {
		db := setupTestDB(t)
		recorder := NewGormPurchaseRecorder(db)
		listing := seedListing(t, db, 1, "10", "50")
		require.NoError(t, NewGormListingRepository(db).TransitionStatus(ctx, listing.ID,
			marketplace.ListingStatusActive, marketplace.ListingStatusCancelled))

		tx, err := marketplace.NewTransaction("hash-late", listing, testBuyer, dec("1"))
		require.NoError(t, err)
		_, _, err = recorder.RecordPurchase(ctx, tx)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})

	t.Run("unknown listing is not found", func(t *testing.T) {
		db := setupTestDB(t)
		recorder := NewGormPurchaseRecorder(db)
		listing := seedListing(t, db, 1, "10", "50")

		tx, err := marketplace.NewTransaction("hash-ghost", listing, testBuyer, dec("1"))
		require.NoError(t, err)
		tx.ListingID = uuid.New()

		_, _, err = recorder.RecordPurchase(ctx, tx)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("missing hash is invalid input", func(t *testing.T) {
		db := setupTestDB(t)
		_, _, err := NewGormPurchaseRecorder(db).RecordPurchase(ctx, &marketplace.Transaction{Amount: dec("1")})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}
