package dto

import "net/http"

// Error codes returned by the API. Domain codes pass through unchanged; the
// ones below are produced by the HTTP layer itself.
const (
	ErrCodeInternal     = "INTERNAL_ERROR"
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeValidation   = "VALIDATION_FAILED"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeTooLarge     = "REQUEST_TOO_LARGE"
	ErrCodeRateLimited  = "RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:     http.StatusInternalServerError,
	"PERSISTENCE_ERROR": http.StatusInternalServerError,

	// Validation errors -> 400 Bad Request
	ErrCodeBadRequest:     http.StatusBadRequest,
	ErrCodeValidation:     http.StatusBadRequest,
	"INVALID_INPUT":       http.StatusBadRequest,
	"EMPTY_CART":          http.StatusBadRequest,
	"INVALID_NAME":        http.StatusBadRequest,
	"INVALID_EMAIL":       http.StatusBadRequest,
	"INVALID_PASSWORD":    http.StatusBadRequest,
	"INVALID_ROLE":        http.StatusBadRequest,
	"INVALID_PRICE":       http.StatusBadRequest,
	"INVALID_AMOUNT":      http.StatusBadRequest,
	"INVALID_QUANTITY":    http.StatusBadRequest,
	"INVALID_DESCRIPTION": http.StatusBadRequest,
	"INVALID_STATUS":      http.StatusBadRequest,
	"INVALID_VARIANT":     http.StatusBadRequest,
	"INVALID_PRODUCT":     http.StatusBadRequest,

	// Auth errors
	ErrCodeUnauthorized:   http.StatusUnauthorized,
	"INVALID_TOKEN":       http.StatusUnauthorized,
	"TOKEN_EXPIRED":       http.StatusUnauthorized,
	"TOKEN_REVOKED":       http.StatusUnauthorized,
	"INVALID_CREDENTIALS": http.StatusUnauthorized,
	ErrCodeForbidden:      http.StatusForbidden,
	"NOT_AUTHORIZED":      http.StatusForbidden,

	// Resource errors
	ErrCodeNotFound:          http.StatusNotFound,
	"ORDER_NOT_FOUND":        http.StatusNotFound,
	"ORDER_LINE_NOT_FOUND":   http.StatusNotFound,
	"CART_NOT_FOUND":         http.StatusNotFound,
	"CART_LINE_NOT_FOUND":    http.StatusNotFound,
	"PRODUCT_NOT_FOUND":      http.StatusNotFound,
	"VARIANT_NOT_FOUND":      http.StatusNotFound,
	"USER_NOT_FOUND":         http.StatusNotFound,
	"OUTBOX_ENTRY_NOT_FOUND": http.StatusNotFound,

	// Conflicts
	"ALREADY_EXISTS":          http.StatusConflict,
	"EMAIL_TAKEN":             http.StatusConflict,
	"CONCURRENT_MODIFICATION": http.StatusConflict,
	"DUPLICATE_REQUEST":       http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	"INVALID_STATE":       http.StatusUnprocessableEntity,
	"ORDER_NOT_PAID":      http.StatusUnprocessableEntity,
	"PRODUCT_UNAVAILABLE": http.StatusUnprocessableEntity,

	ErrCodeTooLarge:    http.StatusRequestEntityTooLarge,
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
