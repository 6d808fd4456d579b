package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/infrastructure/soroban"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Custom validation tags
const (
	TagStellarAddress = "stellar_address"
	TagStellarSecret  = "stellar_secret"
	TagContractID     = "contract_id"
)

// SetupValidator configures gin's validator: JSON field names in errors and
// the Stellar key validators
func SetupValidator() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("uri"), ",", 2)[0]
		}
		return name
	})
	RegisterStellarValidators(v)
}

// RegisterStellarValidators adds stellar_address, stellar_secret and
// contract_id to v
func RegisterStellarValidators(v *validator.Validate) {
	_ = v.RegisterValidation(TagStellarAddress, func(fl validator.FieldLevel) bool {
		return soroban.IsValidAccountAddress(fl.Field().String())
	})
	_ = v.RegisterValidation(TagStellarSecret, func(fl validator.FieldLevel) bool {
		return soroban.IsValidSecret(fl.Field().String())
	})
	_ = v.RegisterValidation(TagContractID, func(fl validator.FieldLevel) bool {
		return soroban.IsValidContractAddress(fl.Field().String())
	})
}

// FormatValidationErrors formats binding errors into a standard response
func FormatValidationErrors(err error, requestID string) dto.Response {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		details := make([]dto.ValidationDetail, 0, len(validationErrors))
		for _, e := range validationErrors {
			details = append(details, dto.ValidationDetail{
				Field:   e.Field(),
				Message: getValidationMessage(e),
			})
		}
		return dto.NewValidationErrorResponse("Request validation failed", requestID, details)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return dto.NewErrorResponseWithRequestID(dto.ErrCodeInvalidJSON, "Malformed JSON body", requestID)
	}
	return dto.NewErrorResponseWithRequestID(dto.ErrCodeBadRequest, err.Error(), requestID)
}

// HandleValidationError returns a validation error response
func HandleValidationError(c *gin.Context, err error) {
	// A streamed body cut off by BodyLimit surfaces here while decoding.
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.Set(ErrorCodeKey, dto.ErrCodeTooLarge)
		c.JSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeTooLarge, "Request body exceeds maximum allowed size", GetRequestID(c)))
		return
	}
	resp := FormatValidationErrors(err, GetRequestID(c))
	c.Set(ErrorCodeKey, resp.Error.Code)
	c.JSON(http.StatusBadRequest, resp)
}

// getValidationMessage returns a human-readable validation message
func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case TagStellarAddress:
		return "Invalid Stellar account address"
	case TagStellarSecret:
		return "Invalid Stellar secret key"
	case TagContractID:
		return "Invalid contract address"
	case "min":
		if e.Type().Kind() == reflect.String {
			return "Must be at least " + e.Param() + " characters"
		}
		return "Must be at least " + e.Param()
	case "max":
		if e.Type().Kind() == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		return "Must be at most " + e.Param()
	case "uuid":
		return "Invalid UUID format"
	case "oneof":
		return "Must be one of: " + e.Param()
	case "gte":
		return "Must be greater than or equal to " + e.Param()
	case "lte":
		return "Must be less than or equal to " + e.Param()
	case "gt":
		return "Must be greater than " + e.Param()
	default:
		return "Invalid value"
	}
}
