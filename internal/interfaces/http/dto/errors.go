package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	ErrCodeValidation = "ERR_VALIDATION"
)

// Authentication error codes
const (
	// ErrCodeUnauthorized is used when a caller's key does not own the resource
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	// ErrCodeForbidden is used when the bearer token lacks the admin role
	ErrCodeForbidden = "ERR_FORBIDDEN"
	// ErrCodeAuthRequired is used when the bearer token is missing or invalid
	ErrCodeAuthRequired = "ERR_AUTH_REQUIRED"
	// ErrCodeTokenExpired is used when the bearer token has expired
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
)

// Resource error codes
const (
	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	// ErrCodeDuplicateRequest is used when an Idempotency-Key was already used
	ErrCodeDuplicateRequest = "ERR_DUPLICATE_REQUEST"
)

// Business rule error codes
const (
	ErrCodeInvalidState       = "ERR_INVALID_STATE"
	ErrCodeInsufficientAmount = "ERR_INSUFFICIENT_AMOUNT"
)

// Ledger error codes
const (
	// ErrCodeLedgerSimulation is used when a read-only contract call failed
	ErrCodeLedgerSimulation = "ERR_LEDGER_SIMULATION_FAILED"
	// ErrCodeLedgerSubmission is used when the network rejected a transaction
	ErrCodeLedgerSubmission = "ERR_LEDGER_SUBMISSION_FAILED"
	// ErrCodeLedgerTimeout is used when a transaction was not confirmed in time
	ErrCodeLedgerTimeout = "ERR_LEDGER_TIMEOUT"
	// ErrCodeSystemPaused is used when mutating routes are switched off
	ErrCodeSystemPaused = "ERR_SYSTEM_PAUSED"
)

// Input error codes
const (
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON  = "ERR_INVALID_JSON"
	ErrCodeTooLarge     = "ERR_REQUEST_TOO_LARGE"
)

// Rate limiting error codes
const (
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation: http.StatusBadRequest,

	// A caller whose key does not own the resource is a bad request, not an
	// authentication failure
	ErrCodeUnauthorized: http.StatusBadRequest,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeAuthRequired: http.StatusUnauthorized,
	ErrCodeTokenExpired: http.StatusUnauthorized,

	// Resource errors
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeDuplicateRequest:    http.StatusConflict,

	// Business rule and ledger errors -> 400 Bad Request
	ErrCodeInvalidState:       http.StatusBadRequest,
	ErrCodeInsufficientAmount: http.StatusBadRequest,
	ErrCodeLedgerSimulation:   http.StatusBadRequest,
	ErrCodeLedgerSubmission:   http.StatusBadRequest,
	ErrCodeLedgerTimeout:      http.StatusBadRequest,
	ErrCodeSystemPaused:       http.StatusServiceUnavailable,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,
	ErrCodeTooLarge:     http.StatusRequestEntityTooLarge,

	ErrCodeRateLimited: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps shared.DomainError codes to API error codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":                ErrCodeNotFound,
	"ALREADY_EXISTS":           ErrCodeAlreadyExists,
	"INVALID_INPUT":            ErrCodeInvalidInput,
	"INVALID_STATE":            ErrCodeInvalidState,
	"UNAUTHORIZED":             ErrCodeUnauthorized,
	"FORBIDDEN":                ErrCodeForbidden,
	"CONCURRENCY_CONFLICT":     ErrCodeConcurrencyConflict,
	"INSUFFICIENT_AMOUNT":      ErrCodeInsufficientAmount,
	"LEDGER_SIMULATION_FAILED": ErrCodeLedgerSimulation,
	"LEDGER_SUBMISSION_FAILED": ErrCodeLedgerSubmission,
	"LEDGER_TIMEOUT":           ErrCodeLedgerTimeout,
	"SYSTEM_PAUSED":            ErrCodeSystemPaused,
	"VALIDATION_ERROR":         ErrCodeValidation,
	"BAD_REQUEST":              ErrCodeBadRequest,
	"INTERNAL_ERROR":           ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to the API format.
// Codes that are not domain codes are returned as-is; other domain-level
// codes (e.g. INVALID_AMOUNT) fall back to ERR_INVALID_INPUT.
func NormalizeErrorCode(code string) string {
	if newCode, ok := DomainErrorCodeMapping[code]; ok {
		return newCode
	}
	if _, ok := ErrorCodeHTTPStatus[code]; ok {
		return code
	}
	if len(code) > 4 && code[:4] == "ERR_" {
		return code
	}
	return ErrCodeInvalidInput
}
