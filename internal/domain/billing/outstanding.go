package billing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OutstandingPriority buckets customers for collection reporting.
type OutstandingPriority string

const (
	OutstandingPriorityHigh   OutstandingPriority = "high"
	OutstandingPriorityMedium OutstandingPriority = "medium"
	OutstandingPriorityLow    OutstandingPriority = "low"
	OutstandingPriorityNone   OutstandingPriority = "none"
)

var (
	priorityHighFloor   = decimal.NewFromInt(5000)
	priorityMediumFloor = decimal.NewFromInt(1000)
)

// ClassifyOutstanding maps a total outstanding amount to a priority bucket:
// high >= 5000, medium >= 1000, low > 0, none otherwise. The comparison uses
// the 2-digit-rounded total, matching what reports display.
func ClassifyOutstanding(total decimal.Decimal) OutstandingPriority {
	total = total.Round(2)
	switch {
	case total.GreaterThanOrEqual(priorityHighFloor):
		return OutstandingPriorityHigh
	case total.GreaterThanOrEqual(priorityMediumFloor):
		return OutstandingPriorityMedium
	case total.IsPositive():
		return OutstandingPriorityLow
	default:
		return OutstandingPriorityNone
	}
}

// CustomerOutstanding is the read-side view of what a customer owes.
type CustomerOutstanding struct {
	CustomerID              uuid.UUID           `json:"customer_id"`
	OpeningBalanceRemaining decimal.Decimal     `json:"opening_balance_remaining"`
	InvoiceOutstanding      decimal.Decimal     `json:"invoice_outstanding"`
	TotalOutstanding        decimal.Decimal     `json:"total_outstanding"`
	Priority                OutstandingPriority `json:"priority"`
}

// ComputeOutstanding derives the outstanding view from an opening balance, the
// sum of opening-balance allocations, and the customer's live invoices. Pure
// function; callers pass whatever snapshot they read.
//
//   - opening balance remaining = max(0, opening - allocated)
//   - invoice outstanding = sum of (total - paid) over non-deleted invoices in
//     a status that counts toward outstanding
//   - total = the two added, never negative
func ComputeOutstanding(customerID uuid.UUID, openingBalance, openingAllocated decimal.Decimal, invoices []*Invoice) CustomerOutstanding {
	openingRemaining := openingBalance.Sub(openingAllocated)
	if openingRemaining.IsNegative() {
		openingRemaining = decimal.Zero
	}

	invoiceOutstanding := decimal.Zero
	for _, inv := range invoices {
		if inv.IsDeleted() || !inv.Status.CountsTowardOutstanding() {
			continue
		}
		remainder := inv.Outstanding()
		if remainder.IsPositive() {
			invoiceOutstanding = invoiceOutstanding.Add(remainder)
		}
	}

	total := openingRemaining.Add(invoiceOutstanding)
	return CustomerOutstanding{
		CustomerID:              customerID,
		OpeningBalanceRemaining: openingRemaining,
		InvoiceOutstanding:      invoiceOutstanding,
		TotalOutstanding:        total,
		Priority:                ClassifyOutstanding(total),
	}
}
