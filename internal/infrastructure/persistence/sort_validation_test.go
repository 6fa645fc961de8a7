package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSortOrder(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"accepts ASC", "ASC", "ASC"},
		{"accepts lowercase asc", "asc", "ASC"},
		{"accepts padded asc", "  asc  ", "ASC"},
		{"defaults DESC for desc", "desc", "DESC"},
		{"defaults DESC for empty", "", "DESC"},
		{"defaults DESC for garbage", "ASC; DROP TABLE customers", "DESC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateSortOrder(tt.input))
		})
	}
}

func TestValidateSortField(t *testing.T) {
	t.Run("accepts whitelisted fields", func(t *testing.T) {
		assert.Equal(t, "invoice_number", ValidateSortField("invoice_number", InvoiceSortFields, "period_start"))
		assert.Equal(t, "route", ValidateSortField("route", CustomerSortFields, "created_at"))
	})

	t.Run("falls back to the default for unknown fields", func(t *testing.T) {
		assert.Equal(t, "period_start", ValidateSortField("total_amount; --", InvoiceSortFields, "period_start"))
		assert.Equal(t, "received_at", ValidateSortField("", PaymentSortFields, "received_at"))
	})

	t.Run("rejects fields from other tables", func(t *testing.T) {
		assert.Equal(t, "sale_date", ValidateSortField("invoice_number", SaleSortFields, "sale_date"))
	})
}
