package handler

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	escrowapp "github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/application/escrow"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/shared"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stellar/go/keypair"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockEscrowService struct {
	mock.Mock
}

func (m *mockEscrowService) LockFunds(ctx context.Context, req escrowapp.LockFundsRequest) (*escrowapp.LockResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*escrowapp.LockResult), args.Error(1)
}

func (m *mockEscrowService) ReleaseToSeller(ctx context.Context, buyerSecret string, escrowID uint64) (*escrowapp.ActionResult, error) {
	args := m.Called(ctx, buyerSecret, escrowID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*escrowapp.ActionResult), args.Error(1)
}

func (m *mockEscrowService) RefundToBuyer(ctx context.Context, sellerSecret string, escrowID uint64) (*escrowapp.ActionResult, error) {
	args := m.Called(ctx, sellerSecret, escrowID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*escrowapp.ActionResult), args.Error(1)
}

func (m *mockEscrowService) GetEscrow(ctx context.Context, escrowID uint64) (*escrowapp.EscrowResponse, error) {
	args := m.Called(ctx, escrowID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*escrowapp.EscrowResponse), args.Error(1)
}

func (m *mockEscrowService) IsTimedOut(ctx context.Context, escrowID uint64) (bool, error) {
	args := m.Called(ctx, escrowID)
	return args.Bool(0), args.Error(1)
}

func (m *mockEscrowService) Status(ctx context.Context, escrowID uint64) (*escrowapp.StatusResponse, error) {
	args := m.Called(ctx, escrowID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*escrowapp.StatusResponse), args.Error(1)
}

func setupEscrowRouter(svc EscrowService) *gin.Engine {
	h := NewEscrowHandler(svc)
	r := gin.New()
	r.POST("/escrow/lock", h.Lock)
	r.POST("/escrow/release", h.Release)
	r.POST("/escrow/refund", h.Refund)
	r.GET("/escrow/:id", h.Get)
	r.GET("/escrow/:id/status", h.Status)
	r.GET("/escrow/:id/timed-out", h.TimedOut)
	return r
}

func TestEscrowHandler_Lock(t *testing.T) {
	buyer := keypair.MustRandom()
	seller := keypair.MustRandom()

	t.Run("created", func(t *testing.T) {
		svc := new(mockEscrowService)
		r := setupEscrowRouter(svc)

		svc.On("LockFunds", mock.Anything, mock.MatchedBy(func(req escrowapp.LockFundsRequest) bool {
			return req.SellerAddress == seller.Address() && req.LockDurationDays == 7 &&
				req.Amount.Equal(decimal.NewFromInt(500))
		})).Return(&escrowapp.LockResult{TxHash: "lockhash", EscrowID: 9}, nil)

		body := fmt.Sprintf(`{"buyer_secret":%q,"seller_address":%q,"amount":"500","lock_duration_days":7}`,
			buyer.Seed(), seller.Address())
		w := doRequest(r, http.MethodPost, "/escrow/lock", body)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"escrow_id":9`)
		svc.AssertExpectations(t)
	})

	t.Run("seller must be a public key", func(t *testing.T) {
		svc := new(mockEscrowService)
		r := setupEscrowRouter(svc)

		body := fmt.Sprintf(`{"buyer_secret":%q,"seller_address":%q,"amount":"500","lock_duration_days":7}`,
			buyer.Seed(), seller.Seed())
		w := doRequest(r, http.MethodPost, "/escrow/lock", body)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, errorCode(t, w))
		svc.AssertNotCalled(t, "LockFunds", mock.Anything, mock.Anything)
	})

	t.Run("lock duration is bounded", func(t *testing.T) {
		svc := new(mockEscrowService)
		r := setupEscrowRouter(svc)

		body := fmt.Sprintf(`{"buyer_secret":%q,"seller_address":%q,"amount":"500","lock_duration_days":0}`,
			buyer.Seed(), seller.Address())
		w := doRequest(r, http.MethodPost, "/escrow/lock", body)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestEscrowHandler_ReleaseAndRefund(t *testing.T) {
	key := keypair.MustRandom()

	t.Run("release", func(t *testing.T) {
		svc := new(mockEscrowService)
		r := setupEscrowRouter(svc)

		svc.On("ReleaseToSeller", mock.Anything, key.Seed(), uint64(4)).
			Return(&escrowapp.ActionResult{TxHash: "rel", EscrowID: 4, Status: "RELEASED"}, nil)

		w := doRequest(r, http.MethodPost, "/escrow/release", fmt.Sprintf(`{"escrow_id":4,"buyer_secret":%q}`, key.Seed()))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"RELEASED"`)
		svc.AssertExpectations(t)
	})

	t.Run("refund before unlock time", func(t *testing.T) {
		svc := new(mockEscrowService)
		r := setupEscrowRouter(svc)

		svc.On("RefundToBuyer", mock.Anything, key.Seed(), uint64(4)).
			Return(nil, shared.ErrInvalidState.WithMessage("Escrow has not timed out"))

		w := doRequest(r, http.MethodPost, "/escrow/refund", fmt.Sprintf(`{"escrow_id":4,"seller_secret":%q}`, key.Seed()))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidState, errorCode(t, w))
	})

	t.Run("missing escrow id", func(t *testing.T) {
		svc := new(mockEscrowService)
		r := setupEscrowRouter(svc)

		w := doRequest(r, http.MethodPost, "/escrow/refund", fmt.Sprintf(`{"seller_secret":%q}`, key.Seed()))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "RefundToBuyer", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestEscrowHandler_Reads(t *testing.T) {
	t.Run("get", func(t *testing.T) {
		svc := new(mockEscrowService)
		r := setupEscrowRouter(svc)

		svc.On("GetEscrow", mock.Anything, uint64(12)).
			Return(&escrowapp.EscrowResponse{EscrowID: 12, Status: "LOCKED", Amount: decimal.NewFromInt(5)}, nil)

		w := doRequest(r, http.MethodGet, "/escrow/12", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"LOCKED"`)
	})

	t.Run("get unknown", func(t *testing.T) {
		svc := new(mockEscrowService)
		r := setupEscrowRouter(svc)

		svc.On("GetEscrow", mock.Anything, uint64(12)).Return(nil, shared.ErrNotFound)

		w := doRequest(r, http.MethodGet, "/escrow/12", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("status", func(t *testing.T) {
		svc := new(mockEscrowService)
		r := setupEscrowRouter(svc)

		svc.On("Status", mock.Anything, uint64(3)).Return(&escrowapp.StatusResponse{
			EscrowID:   3,
			Status:     "LOCKED",
			TimedOut:   true,
			UnlockTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		}, nil)

		w := doRequest(r, http.MethodGet, "/escrow/3/status", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"timed_out":true`)
	})

	t.Run("timed out", func(t *testing.T) {
		svc := new(mockEscrowService)
		r := setupEscrowRouter(svc)

		svc.On("IsTimedOut", mock.Anything, uint64(3)).Return(false, nil)

		w := doRequest(r, http.MethodGet, "/escrow/3/timed-out", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"escrow_id":3`)
		assert.Contains(t, w.Body.String(), `"timed_out":false`)
	})

	t.Run("zero id is rejected", func(t *testing.T) {
		svc := new(mockEscrowService)
		r := setupEscrowRouter(svc)

		w := doRequest(r, http.MethodGet, "/escrow/0", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "GetEscrow", mock.Anything, mock.Anything)
	})

	t.Run("simulation failure", func(t *testing.T) {
		svc := new(mockEscrowService)
		r := setupEscrowRouter(svc)

		svc.On("Status", mock.Anything, uint64(3)).
			Return(nil, shared.NewDomainError(shared.CodeSimulationFailed, "get_escrow failed"))

		w := doRequest(r, http.MethodGet, "/escrow/3/status", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeLedgerSimulation, errorCode(t, w))
	})
}
