package middleware

import (
	"net/http"
	"time"

	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/shared"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// IdempotencyKeyHeader carries the client's request key
	IdempotencyKeyHeader = "Idempotency-Key"
	// ErrorCodeKey is where handlers record the API error code they answered with
	ErrorCodeKey = "error_code"

	maxIdempotencyKeyLength = 128
)

// Idempotency rejects a second request carrying an Idempotency-Key already
// seen for the same route. Requests without the header pass through. The
// key is released again when the request failed with anything other than a
// ledger timeout, because only a timed-out submission may still land.
func Idempotency(store shared.IdempotencyStore, ttl time.Duration, log *zap.Logger) gin.HandlerFunc {
	if ttl <= 0 {
		ttl = shared.DefaultIdempotencyConfig().TTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		clientKey := c.GetHeader(IdempotencyKeyHeader)
		if clientKey == "" {
			c.Next()
			return
		}
		if len(clientKey) > maxIdempotencyKeyLength {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeBadRequest, "Idempotency-Key is too long", GetRequestID(c)))
			return
		}

		ctx := c.Request.Context()
		key := c.Request.Method + ":" + c.FullPath() + ":" + clientKey
		fresh, err := store.MarkProcessed(ctx, key, ttl)
		if err != nil {
			// Without the store the request still runs; duplicates are then
			// caught by the ledger hash uniqueness in the mirror
			log.Error("Idempotency store unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !fresh {
			c.AbortWithStatusJSON(http.StatusConflict, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeDuplicateRequest, "A request with this Idempotency-Key was already received", GetRequestID(c)))
			return
		}

		c.Next()

		if c.Writer.Status() < http.StatusBadRequest || c.GetString(ErrorCodeKey) == dto.ErrCodeLedgerTimeout {
			return
		}
		if err := store.Release(ctx, key); err != nil {
			log.Warn("Failed to release idempotency key", zap.Error(err))
		}
	}
}
