package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// CustomerSortFields contains allowed sort fields for customers
var CustomerSortFields = map[string]bool{
	"id":                 true,
	"created_at":         true,
	"updated_at":         true,
	"code":               true,
	"name":               true,
	"route":              true,
	"status":             true,
	"outstanding_amount": true,
}

// SaleSortFields contains allowed sort fields for sales
var SaleSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"updated_at":     true,
	"sale_date":      true,
	"sale_type":      true,
	"payment_status": true,
	"total_amount":   true,
}

// InvoiceSortFields contains allowed sort fields for invoices
var InvoiceSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"updated_at":     true,
	"invoice_number": true,
	"period_start":   true,
	"period_end":     true,
	"total_amount":   true,
	"amount_paid":    true,
	"status":         true,
	"due_date":       true,
}

// PaymentSortFields contains allowed sort fields for payments
var PaymentSortFields = map[string]bool{
	"id":                true,
	"created_at":        true,
	"updated_at":        true,
	"amount":            true,
	"allocation_status": true,
	"method":            true,
	"received_at":       true,
}

// OperationLogSortFields contains allowed sort fields for operation logs
var OperationLogSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"updated_at":     true,
	"operation_type": true,
	"status":         true,
	"started_at":     true,
	"completed_at":   true,
}
