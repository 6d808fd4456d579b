package middleware

import (
	"net/http"

	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/shared"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pausable rejects the request with 503 while the pause switch is on. When
// the switch cannot be read the request is rejected too.
func Pausable(pause shared.PauseController, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		paused, err := pause.IsPaused(c.Request.Context())
		if err != nil {
			log.Error("Failed to read pause switch", zap.Error(err), zap.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeSystemPaused, "Pause state unavailable, try again later", GetRequestID(c)))
			return
		}
		if paused {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeSystemPaused, "System is paused", GetRequestID(c)))
			return
		}
		c.Next()
	}
}
