package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/marketplace"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	testSeller = "GSELLERXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXX"
	testBuyer  = "GBUYERXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXXX"
)

// setupTestDB opens an in-memory sqlite database with the mirror schema.
// A single connection keeps every statement on the same in-memory database.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	err = db.AutoMigrate(
		&models.AssetModel{},
		&models.ListingModel{},
		&models.TransactionModel{},
		&models.OwnershipModel{},
		&models.PendingLedgerTransactionModel{},
	)
	require.NoError(t, err)

	return db
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// seedListing stores an ACTIVE listing of amount tokens at price each
func seedListing(t *testing.T, db *gorm.DB, ledgerID uint64, amount, price string) *marketplace.Listing {
	t.Helper()

	listing, err := marketplace.NewListing(ledgerID, 1, testSeller, dec(amount), dec(price),
		"list-"+uuid.NewString()[:8], time.Now().UTC().Add(24*time.Hour))
	require.NoError(t, err)
	listing.CreatedAt = listing.CreatedAt.UTC()
	listing.UpdatedAt = listing.UpdatedAt.UTC()

	require.NoError(t, NewGormListingRepository(db).Save(context.Background(), listing))
	return listing
}
