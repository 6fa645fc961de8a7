package dto

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code   string
		status int
	}{
		{"CUSTOMER_NOT_FOUND", http.StatusNotFound},
		{"PAYMENT_NOT_FOUND", http.StatusNotFound},
		{"INVOICE_NOT_FOUND", http.StatusNotFound},
		{"INVALID_AMOUNT", http.StatusBadRequest},
		{"VALIDATION_FAILED", http.StatusBadRequest},
		{"NO_OPENING_BALANCE", http.StatusUnprocessableEntity},
		{"INVOICE_HAS_PAYMENTS", http.StatusUnprocessableEntity},
		{"DUPLICATE_INVOICE", http.StatusConflict},
		{"LOCK_TIMEOUT", http.StatusConflict},
		{ErrCodeInternal, http.StatusInternalServerError},
		{"SOMETHING_UNMAPPED", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.status, GetHTTPStatus(tt.code))
		})
	}
}

func TestNewErrorResponseWithDetail(t *testing.T) {
	resp := NewErrorResponseWithDetail("VALIDATION_FAILED", "Allocations exceed payment amount", map[string]string{"excess": "25.00"}, "req-1")

	assert.False(t, resp.Success)
	assert.Equal(t, "VALIDATION_FAILED", resp.Error.Code)
	assert.Equal(t, "req-1", resp.Error.RequestID)
	assert.NotNil(t, resp.Error.Detail)
}
