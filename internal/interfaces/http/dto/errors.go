package dto

import "net/http"

// General error codes
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "INTERNAL_ERROR"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "NOT_FOUND"
)

// ErrorCodeHTTPStatus maps ledger error codes to HTTP status codes.
// LOCK_TIMEOUT maps to 409 because it is retryable contention, not a
// server fault.
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:   http.StatusInternalServerError,
	ErrCodeBadRequest: http.StatusBadRequest,

	// Missing resources
	ErrCodeNotFound:      http.StatusNotFound,
	"CUSTOMER_NOT_FOUND": http.StatusNotFound,
	"PAYMENT_NOT_FOUND":  http.StatusNotFound,
	"INVOICE_NOT_FOUND":  http.StatusNotFound,
	"SALE_NOT_FOUND":     http.StatusNotFound,

	// Input problems
	"INVALID_INPUT":     http.StatusBadRequest,
	"INVALID_AMOUNT":    http.StatusBadRequest,
	"INVALID_PERIOD":    http.StatusBadRequest,
	"VALIDATION_FAILED": http.StatusBadRequest,

	// Business rules
	"INVALID_STATE":          http.StatusUnprocessableEntity,
	"INVALID_INVOICE_STATUS": http.StatusUnprocessableEntity,
	"INVALID_TARGET_TYPE":    http.StatusUnprocessableEntity,
	"NO_OPENING_BALANCE":     http.StatusUnprocessableEntity,
	"NO_BILLABLE_SALES":      http.StatusUnprocessableEntity,
	"INVOICE_HAS_PAYMENTS":   http.StatusUnprocessableEntity,

	// Conflicts and contention
	"DUPLICATE_INVOICE": http.StatusConflict,
	"LOCK_TIMEOUT":      http.StatusConflict,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Returns 500 Internal Server Error if the error code is not found.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
