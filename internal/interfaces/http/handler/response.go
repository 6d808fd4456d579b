package handler

import "github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/interfaces/http/dto"

// APIResponse represents a generic API response for OpenAPI documentation
// @Description Standard API response wrapper with typed data field
type APIResponse[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data,omitempty"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
	Meta    *dto.Meta      `json:"meta,omitempty"`
}

// ErrorResponse represents an error API response for OpenAPI documentation
// @Description Standard error response
type ErrorResponse struct {
	Success bool           `json:"success" example:"false"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
}

// TimedOutData reports whether an escrow passed its unlock time
// @Description Escrow time-out flag
type TimedOutData struct {
	EscrowID uint64 `json:"escrow_id" example:"12"`
	TimedOut bool   `json:"timed_out" example:"false"`
}
