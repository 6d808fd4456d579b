package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/shared"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/interfaces/http/dto"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestContext(method, target, body string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	c.Request = req
	return c, w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestBaseHandlerSuccess(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(http.MethodGet, "/", "")

	h.Success(c, map[string]string{"key": "value"})

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	assert.Nil(t, resp.Error)
	assert.Nil(t, resp.Meta)
}

func TestBaseHandlerSuccessWithMeta(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(http.MethodGet, "/", "")

	h.SuccessWithMeta(c, []int{1, 2}, 45, 2, 20)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(45), resp.Meta.Total)
	assert.Equal(t, 2, resp.Meta.Page)
	assert.Equal(t, 20, resp.Meta.PageSize)
	assert.Equal(t, 3, resp.Meta.TotalPages)
}

func TestBaseHandlerCreated(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(http.MethodPost, "/", "")

	h.Created(c, map[string]string{"tx_hash": "abc"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, decodeResponse(t, w).Success)
}

func TestBaseHandlerErrorMethods(t *testing.T) {
	tests := []struct {
		name         string
		method       func(*BaseHandler, *gin.Context)
		expectedCode int
		expectedErr  string
	}{
		{
			name:         "BadRequest",
			method:       func(h *BaseHandler, c *gin.Context) { h.BadRequest(c, "Invalid request") },
			expectedCode: http.StatusBadRequest,
			expectedErr:  dto.ErrCodeBadRequest,
		},
		{
			name:         "NotFound",
			method:       func(h *BaseHandler, c *gin.Context) { h.NotFound(c, "Listing not found") },
			expectedCode: http.StatusNotFound,
			expectedErr:  dto.ErrCodeNotFound,
		},
		{
			name:         "InternalError",
			method:       func(h *BaseHandler, c *gin.Context) { h.InternalError(c, "Server error") },
			expectedCode: http.StatusInternalServerError,
			expectedErr:  dto.ErrCodeInternal,
		},
		{
			name:         "ErrorWithCode derives the status",
			method:       func(h *BaseHandler, c *gin.Context) { h.ErrorWithCode(c, dto.ErrCodeSystemPaused, "Paused") },
			expectedCode: http.StatusServiceUnavailable,
			expectedErr:  dto.ErrCodeSystemPaused,
		},
		{
			name:         "ErrorWithCode unknown code",
			method:       func(h *BaseHandler, c *gin.Context) { h.ErrorWithCode(c, "ERR_SOMETHING", "?") },
			expectedCode: http.StatusInternalServerError,
			expectedErr:  "ERR_SOMETHING",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			c, w := newTestContext(http.MethodGet, "/", "")

			tt.method(h, c)

			assert.Equal(t, tt.expectedCode, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.expectedErr, resp.Error.Code)
			assert.Equal(t, tt.expectedErr, c.GetString(middleware.ErrorCodeKey))
		})
	}
}

func TestBaseHandlerErrorWithRequestID(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(http.MethodGet, "/", "")
	c.Set(middleware.RequestIDContextKey, "req-42")

	h.BadRequest(c, "nope")

	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "req-42", resp.Error.RequestID)
}

type bindTarget struct {
	Seller string `json:"seller" binding:"required"`
	Amount int64  `json:"amount" binding:"required,min=1"`
}

func TestBaseHandlerBindJSON(t *testing.T) {
	t.Run("valid body", func(t *testing.T) {
		h := &BaseHandler{}
		c, w := newTestContext(http.MethodPost, "/", `{"seller":"G","amount":5}`)

		var req bindTarget
		assert.True(t, h.BindJSON(c, &req))
		assert.Equal(t, int64(5), req.Amount)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("failed validation lists the fields", func(t *testing.T) {
		h := &BaseHandler{}
		c, w := newTestContext(http.MethodPost, "/", `{"amount":0}`)

		var req bindTarget
		assert.False(t, h.BindJSON(c, &req))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeResponse(t, w)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		assert.NotEmpty(t, resp.Error.Details)
	})

	t.Run("malformed json", func(t *testing.T) {
		h := &BaseHandler{}
		c, w := newTestContext(http.MethodPost, "/", `{"seller":`)

		var req bindTarget
		assert.False(t, h.BindJSON(c, &req))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.NotEqual(t, dto.ErrCodeValidation, decodeResponse(t, w).Error.Code)
	})
}

func TestBaseHandlerBindQuery(t *testing.T) {
	type query struct {
		Page int `form:"page" binding:"omitempty,min=1"`
	}
	h := &BaseHandler{}

	c, _ := newTestContext(http.MethodGet, "/?page=3", "")
	var ok query
	assert.True(t, h.BindQuery(c, &ok))
	assert.Equal(t, 3, ok.Page)

	c, w := newTestContext(http.MethodGet, "/?page=-1", "")
	var bad query
	assert.False(t, h.BindQuery(c, &bad))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBaseHandlerHandleError(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		expectedCode int
		expectedErr  string
	}{
		{"not found", shared.ErrNotFound, http.StatusNotFound, dto.ErrCodeNotFound},
		{"invalid input", shared.ErrInvalidInput.WithMessage("bad amount"), http.StatusBadRequest, dto.ErrCodeInvalidInput},
		{"wrong signer is a bad request", shared.ErrUnauthorized, http.StatusBadRequest, dto.ErrCodeUnauthorized},
		{"paused", shared.ErrSystemPaused, http.StatusServiceUnavailable, dto.ErrCodeSystemPaused},
		{"ledger timeout", shared.NewDomainError(shared.CodeLedgerTimeout, "not confirmed"), http.StatusBadRequest, dto.ErrCodeLedgerTimeout},
		{"submission failed", shared.NewDomainError(shared.CodeSubmissionFailed, "rejected"), http.StatusBadRequest, dto.ErrCodeLedgerSubmission},
		{"wrapped domain error", fmt.Errorf("buy: %w", shared.ErrInsufficientAmount), http.StatusBadRequest, dto.ErrCodeInsufficientAmount},
		{"plain error", errors.New("connection reset"), http.StatusInternalServerError, dto.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			c, w := newTestContext(http.MethodGet, "/", "")

			h.HandleError(c, tt.err)

			assert.Equal(t, tt.expectedCode, w.Code)
			resp := decodeResponse(t, w)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.expectedErr, resp.Error.Code)
		})
	}

	t.Run("plain errors do not leak their message", func(t *testing.T) {
		h := &BaseHandler{}
		c, w := newTestContext(http.MethodGet, "/", "")

		h.HandleError(c, errors.New("password=hunter2"))

		assert.NotContains(t, w.Body.String(), "hunter2")
	})

	t.Run("nil error writes nothing", func(t *testing.T) {
		h := &BaseHandler{}
		c, w := newTestContext(http.MethodGet, "/", "")

		h.HandleError(c, nil)

		assert.Equal(t, 0, w.Body.Len())
	})
}
