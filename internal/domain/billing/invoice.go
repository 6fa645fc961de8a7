package billing

import (
	"time"

	"github.com/dairybooks/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents where an invoice sits in its collection lifecycle.
type InvoiceStatus string

const (
	InvoiceStatusDraft         InvoiceStatus = "draft"
	InvoiceStatusSent          InvoiceStatus = "sent"
	InvoiceStatusPending       InvoiceStatus = "pending"
	InvoiceStatusPartiallyPaid InvoiceStatus = "partially_paid"
	InvoiceStatusPaid          InvoiceStatus = "paid"
	InvoiceStatusOverdue       InvoiceStatus = "overdue"
)

// IsValid returns true if the status is valid
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPending,
		InvoiceStatusPartiallyPaid, InvoiceStatusPaid, InvoiceStatusOverdue:
		return true
	}
	return false
}

// CountsTowardOutstanding reports whether invoices in this status contribute
// their unpaid remainder to the customer's outstanding amount.
func (s InvoiceStatus) CountsTowardOutstanding() bool {
	switch s {
	case InvoiceStatusSent, InvoiceStatusPending, InvoiceStatusPartiallyPaid, InvoiceStatusOverdue:
		return true
	}
	return false
}

// Invoice is the aggregate root for a billing-period invoice. AmountPaid must
// always equal the sum of non-rolled-back allocations targeting the invoice.
// DeletedAt marks a soft delete; soft-deleted invoices are invisible to the
// ledger but recoverable.
type Invoice struct {
	shared.BaseEntity
	InvoiceNumber string
	CustomerID    uuid.UUID
	PeriodStart   time.Time
	PeriodEnd     time.Time
	TotalAmount   decimal.Decimal
	AmountPaid    decimal.Decimal
	Status        InvoiceStatus
	DueDate       time.Time
	DeletedAt     *time.Time
}

// NewInvoice creates a pending invoice for a billing period.
func NewInvoice(invoiceNumber string, customerID uuid.UUID, periodStart, periodEnd time.Time, total decimal.Decimal) (*Invoice, error) {
	if err := ValidateInvoiceNumber(invoiceNumber); err != nil {
		return nil, err
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Invoice requires a customer")
	}
	if periodEnd.Before(periodStart) {
		return nil, shared.NewDomainError("INVALID_PERIOD", "Billing period end cannot precede start")
	}
	if total.IsNegative() || total.IsZero() {
		return nil, shared.NewDomainError(shared.CodeInvalidAmount, "Invoice total must be positive")
	}
	return &Invoice{
		BaseEntity:    shared.NewBaseEntity(),
		InvoiceNumber: invoiceNumber,
		CustomerID:    customerID,
		PeriodStart:   periodStart,
		PeriodEnd:     periodEnd,
		TotalAmount:   total,
		AmountPaid:    decimal.Zero,
		Status:        InvoiceStatusPending,
		DueDate:       periodEnd.AddDate(0, 0, 15),
	}, nil
}

// IsDeleted reports whether the invoice is soft-deleted.
func (i *Invoice) IsDeleted() bool {
	return i.DeletedAt != nil
}

// Outstanding returns the unpaid remainder of the invoice.
func (i *Invoice) Outstanding() decimal.Decimal {
	return i.TotalAmount.Sub(i.AmountPaid)
}

// ApplyPayment records an allocation against the invoice and moves the status.
// The amount must not overshoot the remainder; allocation sizing happens in
// the allocation engine, this is the invariant check of last resort.
func (i *Invoice) ApplyPayment(amount decimal.Decimal) error {
	if i.IsDeleted() {
		return shared.ErrInvoiceNotFound
	}
	if amount.IsNegative() || amount.IsZero() {
		return shared.NewDomainError(shared.CodeInvalidAmount, "Allocation amount must be positive")
	}
	newPaid := i.AmountPaid.Add(amount)
	if newPaid.GreaterThan(i.TotalAmount) {
		return shared.NewDomainErrorf("OVER_ALLOCATION",
			"Allocating %s would exceed invoice total %s (already paid %s)",
			amount.StringFixed(2), i.TotalAmount.StringFixed(2), i.AmountPaid.StringFixed(2))
	}
	i.AmountPaid = newPaid
	if i.AmountPaid.Equal(i.TotalAmount) {
		i.Status = InvoiceStatusPaid
	} else {
		i.Status = InvoiceStatusPartiallyPaid
	}
	return nil
}

// RevertPayment backs an allocation out of the invoice, used by payment rollback.
func (i *Invoice) RevertPayment(amount decimal.Decimal) error {
	if amount.IsNegative() || amount.IsZero() {
		return shared.NewDomainError(shared.CodeInvalidAmount, "Reverted amount must be positive")
	}
	newPaid := i.AmountPaid.Sub(amount)
	if newPaid.IsNegative() {
		return shared.NewDomainErrorf("OVER_ROLLBACK",
			"Reverting %s would drive amount_paid below zero (currently %s)",
			amount.StringFixed(2), i.AmountPaid.StringFixed(2))
	}
	i.AmountPaid = newPaid
	if i.AmountPaid.IsZero() {
		i.Status = InvoiceStatusPending
	} else {
		i.Status = InvoiceStatusPartiallyPaid
	}
	return nil
}

// SoftDelete marks the invoice deleted while keeping the row recoverable.
func (i *Invoice) SoftDelete(now time.Time) error {
	if i.IsDeleted() {
		return shared.ErrInvoiceNotFound
	}
	i.DeletedAt = &now
	return nil
}

// Recover clears the soft-delete marker.
func (i *Invoice) Recover() error {
	if !i.IsDeleted() {
		return shared.NewDomainError("INVALID_INVOICE_STATUS", "Only soft-deleted invoices can be recovered")
	}
	i.DeletedAt = nil
	return nil
}

// MarkOverdue flips an unpaid invoice past its due date to overdue.
func (i *Invoice) MarkOverdue(now time.Time) {
	if i.IsDeleted() || i.Status == InvoiceStatusPaid || i.Status == InvoiceStatusDraft {
		return
	}
	if now.After(i.DueDate) {
		i.Status = InvoiceStatusOverdue
	}
}
