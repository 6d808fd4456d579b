package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
)

// Common errors
var (
	ErrMissingToken     = errors.New("missing bearer token")
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrNotAdmin         = errors.New("admin role required")
)

// Claims are the bearer token claims accepted by the admin routes.
// Tokens are issued elsewhere; this service only verifies them.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// JWTService verifies HS256 bearer tokens
type JWTService struct {
	secret    []byte
	issuer    string
	adminRole string
	leeway    time.Duration
}

// NewJWTService creates a new JWT verifier
func NewJWTService(cfg config.JWTConfig) *JWTService {
	adminRole := cfg.AdminRole
	if adminRole == "" {
		adminRole = "admin"
	}
	return &JWTService{
		secret:    []byte(cfg.Secret),
		issuer:    cfg.Issuer,
		adminRole: adminRole,
		leeway:    30 * time.Second,
	}
}

// ExtractBearer returns the token from an Authorization header value
func ExtractBearer(header string) (string, error) {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", ErrMissingToken
	}
	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}

// Validate parses and verifies a token and returns its claims
func (s *JWTService) Validate(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(s.leeway),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotYetValid
		default:
			return nil, ErrInvalidToken
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if claims.Subject == "" {
		return nil, ErrInvalidClaims
	}
	return claims, nil
}

// ValidateAdmin verifies a token and requires the configured admin role
func (s *JWTService) ValidateAdmin(tokenString string) (*Claims, error) {
	claims, err := s.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	if !claims.IsAdmin(s.adminRole) {
		return nil, ErrNotAdmin
	}
	return claims, nil
}

// IsAdmin reports whether the claims carry the given admin role
func (c *Claims) IsAdmin(adminRole string) bool {
	return c.Role != "" && c.Role == adminRole
}

// GetRemainingTTL returns the remaining time until the token expires
func (c *Claims) GetRemainingTTL() time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	remaining := time.Until(c.ExpiresAt.Time)
	if remaining < 0 {
		return 0
	}
	return remaining
}
