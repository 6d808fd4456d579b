package escrow

import (
	"context"
	"testing"
	"time"

	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/escrow"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/ledger"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/reconciliation"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	buyerSecret  = "SBUYER"
	sellerSecret = "SSELLER"
	buyerAddr    = "GBUYERADDRESS"
	sellerAddr   = "GSELLERADDRESS"
	hashLock     = "5555555555555555555555555555555555555555555555555555555555555555"
	hashRelease  = "6666666666666666666666666666666666666666666666666666666666666666"
	hashRefund   = "7777777777777777777777777777777777777777777777777777777777777777"
)

var fixedNow = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

// MockEscrowGateway is a mock implementation of ledger.EscrowGateway
type MockEscrowGateway struct {
	mock.Mock
}

func (m *MockEscrowGateway) LockFunds(ctx context.Context, buyerSecret, seller string, amount decimal.Decimal, unlockTime time.Time) (uint64, ledger.Receipt, error) {
	args := m.Called(ctx, buyerSecret, seller, amount, unlockTime)
	return args.Get(0).(uint64), args.Get(1).(ledger.Receipt), args.Error(2)
}

func (m *MockEscrowGateway) ReleaseFunds(ctx context.Context, buyerSecret string, escrowID uint64) (ledger.Receipt, error) {
	args := m.Called(ctx, buyerSecret, escrowID)
	return args.Get(0).(ledger.Receipt), args.Error(1)
}

func (m *MockEscrowGateway) Refund(ctx context.Context, sellerSecret string, escrowID uint64) (ledger.Receipt, error) {
	args := m.Called(ctx, sellerSecret, escrowID)
	return args.Get(0).(ledger.Receipt), args.Error(1)
}

func (m *MockEscrowGateway) GetEscrow(ctx context.Context, escrowID uint64) (*escrow.Record, error) {
	args := m.Called(ctx, escrowID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*escrow.Record), args.Error(1)
}

// MockPendingTracker is a mock implementation of PendingTracker
type MockPendingTracker struct {
	mock.Mock
}

func (m *MockPendingTracker) Track(ctx context.Context, txHash string, kind reconciliation.Kind, payload any) error {
	args := m.Called(ctx, txHash, kind, payload)
	return args.Error(0)
}

type staticKeys map[string]string

func (k staticKeys) AddressOf(secret string) (string, error) {
	if addr, ok := k[secret]; ok {
		return addr, nil
	}
	return "", shared.ErrInvalidInput
}

func newTestService() (*Service, *MockEscrowGateway, *MockPendingTracker) {
	gw := new(MockEscrowGateway)
	tracker := new(MockPendingTracker)
	svc := NewService(gw, staticKeys{buyerSecret: buyerAddr, sellerSecret: sellerAddr}, zap.NewNop())
	svc.SetPendingTracker(tracker)
	svc.now = func() time.Time { return fixedNow }
	return svc, gw, tracker
}

func lockedRecord(unlock time.Time) *escrow.Record {
	return &escrow.Record{
		EscrowID:   9,
		Buyer:      buyerAddr,
		Seller:     sellerAddr,
		Amount:     decimal.NewFromInt(250),
		UnlockTime: unlock,
		Status:     escrow.StatusLocked,
	}
}

func codeOf(t *testing.T, err error) string {
	t.Helper()
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	return de.Code
}

func TestService_LockFunds(t *testing.T) {
	ctx := context.Background()
	amount := decimal.NewFromInt(250)
	expectedUnlock := fixedNow.Add(30 * 24 * time.Hour)

	t.Run("locks funds with unlock time from duration", func(t *testing.T) {
		svc, gw, _ := newTestService()
		gw.On("LockFunds", mock.Anything, buyerSecret, sellerAddr, amount, expectedUnlock).
			Return(uint64(9), ledger.Receipt{TxHash: hashLock, Ledger: 100}, nil).Once()

		result, err := svc.LockFunds(ctx, LockFundsRequest{
			BuyerSecret: buyerSecret, SellerAddress: sellerAddr, Amount: amount, LockDurationDays: 30,
		})
		require.NoError(t, err)
		assert.Equal(t, hashLock, result.TxHash)
		assert.Equal(t, uint64(9), result.EscrowID)
		assert.Equal(t, expectedUnlock, result.UnlockTime)
		gw.AssertExpectations(t)
	})

	t.Run("rejects non-positive amount without submitting", func(t *testing.T) {
		svc, gw, _ := newTestService()
		_, err := svc.LockFunds(ctx, LockFundsRequest{
			BuyerSecret: buyerSecret, SellerAddress: sellerAddr, Amount: decimal.Zero, LockDurationDays: 30,
		})
		assert.Equal(t, shared.CodeInvalidInput, codeOf(t, err))
		gw.AssertNotCalled(t, "LockFunds", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects zero duration", func(t *testing.T) {
		svc, _, _ := newTestService()
		_, err := svc.LockFunds(ctx, LockFundsRequest{
			BuyerSecret: buyerSecret, SellerAddress: sellerAddr, Amount: amount, LockDurationDays: 0,
		})
		assert.Equal(t, shared.CodeInvalidInput, codeOf(t, err))
	})

	t.Run("rejects unknown key", func(t *testing.T) {
		svc, _, _ := newTestService()
		_, err := svc.LockFunds(ctx, LockFundsRequest{
			BuyerSecret: "SUNKNOWN", SellerAddress: sellerAddr, Amount: amount, LockDurationDays: 1,
		})
		assert.Equal(t, shared.CodeInvalidInput, codeOf(t, err))
	})

	t.Run("tracks timed out lock", func(t *testing.T) {
		svc, gw, tracker := newTestService()
		gw.On("LockFunds", mock.Anything, buyerSecret, sellerAddr, amount, expectedUnlock).
			Return(uint64(0), ledger.Receipt{}, &ledger.TxTimeoutError{Method: "lock_funds", Hash: hashLock, Attempts: 30}).Once()
		tracker.On("Track", mock.Anything, hashLock, reconciliation.KindLock, mock.AnythingOfType("escrow.LockPayload")).
			Return(nil).Once()

		_, err := svc.LockFunds(ctx, LockFundsRequest{
			BuyerSecret: buyerSecret, SellerAddress: sellerAddr, Amount: amount, LockDurationDays: 30,
		})
		assert.Equal(t, shared.CodeLedgerTimeout, codeOf(t, err))
		tracker.AssertExpectations(t)
	})
}

func TestService_ReleaseToSeller(t *testing.T) {
	ctx := context.Background()

	t.Run("releases", func(t *testing.T) {
		svc, gw, _ := newTestService()
		gw.On("ReleaseFunds", mock.Anything, buyerSecret, uint64(9)).
			Return(ledger.Receipt{TxHash: hashRelease}, nil).Once()

		result, err := svc.ReleaseToSeller(ctx, buyerSecret, 9)
		require.NoError(t, err)
		assert.Equal(t, hashRelease, result.TxHash)
		assert.Equal(t, "RELEASED", result.Status)
	})

	t.Run("rejected submission surfaces as submission failure", func(t *testing.T) {
		svc, gw, tracker := newTestService()
		gw.On("ReleaseFunds", mock.Anything, sellerSecret, uint64(9)).
			Return(ledger.Receipt{}, &ledger.TxSubmissionError{Stage: ledger.StageExecution, Method: "release_funds", Status: "FAILED"}).Once()

		_, err := svc.ReleaseToSeller(ctx, sellerSecret, 9)
		assert.Equal(t, shared.CodeSubmissionFailed, codeOf(t, err))
		tracker.AssertNotCalled(t, "Track", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestService_RefundToBuyer(t *testing.T) {
	ctx := context.Background()

	t.Run("refunds after unlock time", func(t *testing.T) {
		svc, gw, _ := newTestService()
		gw.On("GetEscrow", mock.Anything, uint64(9)).Return(lockedRecord(fixedNow.Add(-time.Second)), nil).Once()
		gw.On("Refund", mock.Anything, sellerSecret, uint64(9)).Return(ledger.Receipt{TxHash: hashRefund}, nil).Once()

		result, err := svc.RefundToBuyer(ctx, sellerSecret, 9)
		require.NoError(t, err)
		assert.Equal(t, "REFUNDED", result.Status)
		gw.AssertExpectations(t)
	})

	t.Run("refunds exactly at unlock time", func(t *testing.T) {
		svc, gw, _ := newTestService()
		gw.On("GetEscrow", mock.Anything, uint64(9)).Return(lockedRecord(fixedNow), nil).Once()
		gw.On("Refund", mock.Anything, sellerSecret, uint64(9)).Return(ledger.Receipt{TxHash: hashRefund}, nil).Once()

		_, err := svc.RefundToBuyer(ctx, sellerSecret, 9)
		require.NoError(t, err)
	})

	t.Run("rejects refund before unlock time", func(t *testing.T) {
		svc, gw, _ := newTestService()
		gw.On("GetEscrow", mock.Anything, uint64(9)).Return(lockedRecord(fixedNow.Add(time.Hour)), nil).Once()

		_, err := svc.RefundToBuyer(ctx, sellerSecret, 9)
		assert.Equal(t, shared.CodeInvalidState, codeOf(t, err))
		gw.AssertNotCalled(t, "Refund", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects refund by buyer", func(t *testing.T) {
		svc, gw, _ := newTestService()
		gw.On("GetEscrow", mock.Anything, uint64(9)).Return(lockedRecord(fixedNow.Add(-time.Hour)), nil).Once()

		_, err := svc.RefundToBuyer(ctx, buyerSecret, 9)
		assert.Equal(t, shared.CodeUnauthorized, codeOf(t, err))
		gw.AssertNotCalled(t, "Refund", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing escrow is not found", func(t *testing.T) {
		svc, gw, _ := newTestService()
		gw.On("GetEscrow", mock.Anything, uint64(404)).
			Return(nil, &ledger.SimulationError{Method: "get_escrow", ContractID: "CESCROW"}).Once()

		_, err := svc.RefundToBuyer(ctx, sellerSecret, 404)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("tracks timed out refund", func(t *testing.T) {
		svc, gw, tracker := newTestService()
		gw.On("GetEscrow", mock.Anything, uint64(9)).Return(lockedRecord(fixedNow.Add(-time.Hour)), nil).Once()
		gw.On("Refund", mock.Anything, sellerSecret, uint64(9)).
			Return(ledger.Receipt{}, &ledger.TxTimeoutError{Method: "refund", Hash: hashRefund, Attempts: 30}).Once()
		tracker.On("Track", mock.Anything, hashRefund, reconciliation.KindRefund, ActionPayload{EscrowID: 9}).
			Return(nil).Once()

		_, err := svc.RefundToBuyer(ctx, sellerSecret, 9)
		assert.Equal(t, shared.CodeLedgerTimeout, codeOf(t, err))
		tracker.AssertExpectations(t)
	})
}

func TestService_Reads(t *testing.T) {
	ctx := context.Background()

	t.Run("get escrow", func(t *testing.T) {
		svc, gw, _ := newTestService()
		gw.On("GetEscrow", mock.Anything, uint64(9)).Return(lockedRecord(fixedNow.Add(time.Hour)), nil).Once()

		resp, err := svc.GetEscrow(ctx, 9)
		require.NoError(t, err)
		assert.Equal(t, "LOCKED", resp.Status)
		assert.Equal(t, buyerAddr, resp.Buyer)
	})

	t.Run("timed out flag", func(t *testing.T) {
		svc, gw, _ := newTestService()
		gw.On("GetEscrow", mock.Anything, uint64(9)).Return(lockedRecord(fixedNow.Add(time.Hour)), nil).Once()
		gw.On("GetEscrow", mock.Anything, uint64(10)).Return(lockedRecord(fixedNow.Add(-time.Hour)), nil).Once()

		timedOut, err := svc.IsTimedOut(ctx, 9)
		require.NoError(t, err)
		assert.False(t, timedOut)

		timedOut, err = svc.IsTimedOut(ctx, 10)
		require.NoError(t, err)
		assert.True(t, timedOut)
	})

	t.Run("status", func(t *testing.T) {
		svc, gw, _ := newTestService()
		rec := lockedRecord(fixedNow.Add(-time.Minute))
		rec.Status = escrow.StatusReleased
		gw.On("GetEscrow", mock.Anything, uint64(9)).Return(rec, nil).Once()

		status, err := svc.Status(ctx, 9)
		require.NoError(t, err)
		assert.Equal(t, "RELEASED", status.Status)
		assert.True(t, status.TimedOut)
	})

	t.Run("simulation failure maps to not found", func(t *testing.T) {
		svc, gw, _ := newTestService()
		gw.On("GetEscrow", mock.Anything, uint64(77)).
			Return(nil, &ledger.SimulationError{Method: "get_escrow"}).Once()

		_, err := svc.Status(ctx, 77)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
