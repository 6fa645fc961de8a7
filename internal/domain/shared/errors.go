package shared

import (
	"fmt"
	"strings"
)

// DomainError represents a domain-level error with a machine-readable code.
// Callers dispatch on Code, never on message content.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  any    `json:"detail,omitempty"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewDomainErrorf creates a new domain error with a formatted message
func NewDomainErrorf(code, format string, args ...any) *DomainError {
	return &DomainError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// WithDetail attaches structured detail (e.g. an excess amount or id list) to the error
func (e *DomainError) WithDetail(detail any) *DomainError {
	return &DomainError{Code: e.Code, Message: e.Message, Detail: detail}
}

// IsCode reports whether err is a DomainError carrying the given code
func IsCode(err error, code string) bool {
	de, ok := err.(*DomainError)
	return ok && de.Code == code
}

// IsNotFound reports whether err is a not-found DomainError, either the
// generic ErrNotFound or an entity-specific one such as CUSTOMER_NOT_FOUND.
// Repositories return the entity-specific errors; callers that only care
// about the category dispatch through this.
func IsNotFound(err error) bool {
	de, ok := err.(*DomainError)
	return ok && (de.Code == CodeNotFound || strings.HasSuffix(de.Code, "_NOT_FOUND"))
}

// Common error codes shared across the ledger engine
const (
	CodeNotFound         = "NOT_FOUND"
	CodeInvalidAmount    = "INVALID_AMOUNT"
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeLockTimeout      = "LOCK_TIMEOUT"
	CodeInternal         = "INTERNAL_ERROR"
)

// Common domain errors
var (
	ErrNotFound         = NewDomainError(CodeNotFound, "Resource not found")
	ErrInvalidInput     = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrInvalidState     = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrLockTimeout      = NewDomainError(CodeLockTimeout, "Timed out waiting for a row lock; retry with backoff")
	ErrCustomerNotFound = NewDomainError("CUSTOMER_NOT_FOUND", "Customer not found")
	ErrPaymentNotFound  = NewDomainError("PAYMENT_NOT_FOUND", "Payment not found")
	ErrInvoiceNotFound  = NewDomainError("INVOICE_NOT_FOUND", "Invoice not found")
	ErrSaleNotFound     = NewDomainError("SALE_NOT_FOUND", "Sale not found")
)
