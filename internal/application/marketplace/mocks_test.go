package marketplace

import (
	"context"
	"time"

	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/ledger"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/marketplace"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/reconciliation"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockListingRepository is a mock implementation of marketplace.ListingRepository
type MockListingRepository struct {
	mock.Mock
}

func (m *MockListingRepository) FindByID(ctx context.Context, id uuid.UUID) (*marketplace.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*marketplace.Listing), args.Error(1)
}

func (m *MockListingRepository) FindByLedgerListingID(ctx context.Context, ledgerListingID uint64) (*marketplace.Listing, error) {
	args := m.Called(ctx, ledgerListingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*marketplace.Listing), args.Error(1)
}

func (m *MockListingRepository) FindAll(ctx context.Context, filter marketplace.ListingFilter) ([]marketplace.Listing, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]marketplace.Listing), args.Get(1).(int64), args.Error(2)
}

func (m *MockListingRepository) Save(ctx context.Context, listing *marketplace.Listing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}

func (m *MockListingRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to marketplace.ListingStatus) error {
	args := m.Called(ctx, id, from, to)
	return args.Error(0)
}

func (m *MockListingRepository) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockListingRepository) Stats(ctx context.Context) (*marketplace.Stats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*marketplace.Stats), args.Error(1)
}

// MockTransactionRepository is a mock implementation of marketplace.TransactionRepository
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) FindByHash(ctx context.Context, txHash string) (*marketplace.Transaction, error) {
	args := m.Called(ctx, txHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*marketplace.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) ExistsByHash(ctx context.Context, txHash string) (bool, error) {
	args := m.Called(ctx, txHash)
	return args.Bool(0), args.Error(1)
}

func (m *MockTransactionRepository) FindRecent(ctx context.Context, limit int) ([]marketplace.Transaction, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]marketplace.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) FindByListing(ctx context.Context, listingID uuid.UUID, limit, offset int) ([]marketplace.Transaction, int64, error) {
	args := m.Called(ctx, listingID, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]marketplace.Transaction), args.Get(1).(int64), args.Error(2)
}

func (m *MockTransactionRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// MockAssetRepository is a mock implementation of marketplace.AssetRepository
type MockAssetRepository struct {
	mock.Mock
}

func (m *MockAssetRepository) FindByID(ctx context.Context, id int64) (*marketplace.Asset, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*marketplace.Asset), args.Error(1)
}

func (m *MockAssetRepository) UpdateTotalSupply(ctx context.Context, id int64, totalSupply decimal.Decimal) error {
	args := m.Called(ctx, id, totalSupply)
	return args.Error(0)
}

// MockPurchaseRecorder is a mock implementation of marketplace.PurchaseRecorder
type MockPurchaseRecorder struct {
	mock.Mock
}

func (m *MockPurchaseRecorder) RecordPurchase(ctx context.Context, tx *marketplace.Transaction) (*marketplace.Listing, bool, error) {
	args := m.Called(ctx, tx)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*marketplace.Listing), args.Bool(1), args.Error(2)
}

// MockMarketplaceGateway is a mock implementation of ledger.MarketplaceGateway
type MockMarketplaceGateway struct {
	mock.Mock
}

func (m *MockMarketplaceGateway) ListProperty(ctx context.Context, sellerSecret, tokenContract string, amount, pricePerToken decimal.Decimal) (uint64, ledger.Receipt, error) {
	args := m.Called(ctx, sellerSecret, tokenContract, amount, pricePerToken)
	return args.Get(0).(uint64), args.Get(1).(ledger.Receipt), args.Error(2)
}

func (m *MockMarketplaceGateway) BuyTokens(ctx context.Context, buyerSecret string, listingID uint64, amount decimal.Decimal) (ledger.Receipt, error) {
	args := m.Called(ctx, buyerSecret, listingID, amount)
	return args.Get(0).(ledger.Receipt), args.Error(1)
}

func (m *MockMarketplaceGateway) CancelListing(ctx context.Context, sellerSecret string, listingID uint64) (ledger.Receipt, error) {
	args := m.Called(ctx, sellerSecret, listingID)
	return args.Get(0).(ledger.Receipt), args.Error(1)
}

func (m *MockMarketplaceGateway) GetListing(ctx context.Context, listingID uint64) (*ledger.ListingInfo, error) {
	args := m.Called(ctx, listingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.ListingInfo), args.Error(1)
}

// MockPaymentGateway is a mock implementation of ledger.PaymentGateway
type MockPaymentGateway struct {
	mock.Mock
}

func (m *MockPaymentGateway) ApproveMarketplace(ctx context.Context, ownerSecret string, amount decimal.Decimal) (ledger.Receipt, error) {
	args := m.Called(ctx, ownerSecret, amount)
	return args.Get(0).(ledger.Receipt), args.Error(1)
}

// MockPendingTracker is a mock implementation of PendingTracker
type MockPendingTracker struct {
	mock.Mock
}

func (m *MockPendingTracker) Track(ctx context.Context, txHash string, kind reconciliation.Kind, payload any) error {
	args := m.Called(ctx, txHash, kind, payload)
	return args.Error(0)
}

func (m *MockPendingTracker) TrackConfirmed(ctx context.Context, txHash string, kind reconciliation.Kind, payload any, resultID *uint64, cause error) error {
	args := m.Called(ctx, txHash, kind, payload, resultID, cause)
	return args.Error(0)
}

// staticKeys resolves secrets from a fixed table
type staticKeys map[string]string

func (k staticKeys) AddressOf(secret string) (string, error) {
	if addr, ok := k[secret]; ok {
		return addr, nil
	}
	return "", shared.ErrInvalidInput
}
