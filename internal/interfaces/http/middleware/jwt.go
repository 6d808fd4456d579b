package middleware

import (
	"errors"
	"net/http"

	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/infrastructure/auth"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/infrastructure/logger"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// JWT context keys
const (
	AdminClaimsKey  = "admin_claims"
	AdminSubjectKey = "admin_subject"
	AuthHeaderKey   = "Authorization"
)

// AdminAuth requires a valid bearer token carrying the admin role
func AdminAuth(jwtService *auth.JWTService, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		token, err := auth.ExtractBearer(c.GetHeader(AuthHeaderKey))
		if err != nil {
			abortAuth(c, log, err)
			return
		}
		claims, err := jwtService.ValidateAdmin(token)
		if err != nil {
			abortAuth(c, log, err)
			return
		}

		c.Set(AdminClaimsKey, claims)
		c.Set(AdminSubjectKey, claims.Subject)

		ctx, _ := logger.WithActor(c.Request.Context(), logger.FromContext(c.Request.Context()), claims.Subject)
		c.Request = c.Request.WithContext(ctx)

		log.Debug("Admin authenticated", zap.String("subject", claims.Subject))
		c.Next()
	}
}

func abortAuth(c *gin.Context, log *zap.Logger, err error) {
	log.Warn("Admin authentication failed",
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
	)

	status, code, message := http.StatusUnauthorized, dto.ErrCodeAuthRequired, "Authentication required"
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		code, message = dto.ErrCodeTokenExpired, "Token has expired"
	case errors.Is(err, auth.ErrNotAdmin):
		status, code, message = http.StatusForbidden, dto.ErrCodeForbidden, "Admin role required"
	case errors.Is(err, auth.ErrMissingToken):
		message = "Missing bearer token"
	}
	c.AbortWithStatusJSON(status, dto.NewErrorResponseWithRequestID(code, message, GetRequestID(c)))
}

// GetAdminClaims retrieves the verified admin claims from gin.Context
func GetAdminClaims(c *gin.Context) *auth.Claims {
	if claims, exists := c.Get(AdminClaimsKey); exists {
		if adminClaims, ok := claims.(*auth.Claims); ok {
			return adminClaims
		}
	}
	return nil
}

// GetAdminSubject retrieves the admin subject from gin.Context
func GetAdminSubject(c *gin.Context) string {
	return c.GetString(AdminSubjectKey)
}
