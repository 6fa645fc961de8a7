package billing

import (
	"github.com/dairybooks/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AllocationTargetType tags what kind of debt an allocation pays down.
type AllocationTargetType string

const (
	AllocationTargetInvoice        AllocationTargetType = "invoice"
	AllocationTargetSale           AllocationTargetType = "sale"
	AllocationTargetOpeningBalance AllocationTargetType = "opening_balance"
)

// IsValid returns true if the target type is valid
func (t AllocationTargetType) IsValid() bool {
	switch t {
	case AllocationTargetInvoice, AllocationTargetSale, AllocationTargetOpeningBalance:
		return true
	}
	return false
}

// AllocationTarget is the tagged debt target of an allocation. TargetID is set
// for invoice and sale targets and nil for opening balance, which is keyed by
// the payment's customer.
type AllocationTarget struct {
	Type     AllocationTargetType
	TargetID *uuid.UUID
}

// InvoiceTarget builds an allocation target for an invoice.
func InvoiceTarget(invoiceID uuid.UUID) AllocationTarget {
	return AllocationTarget{Type: AllocationTargetInvoice, TargetID: &invoiceID}
}

// SaleTarget builds an allocation target for an ad-hoc sale.
func SaleTarget(saleID uuid.UUID) AllocationTarget {
	return AllocationTarget{Type: AllocationTargetSale, TargetID: &saleID}
}

// OpeningBalanceTarget builds an allocation target for the customer's opening balance.
func OpeningBalanceTarget() AllocationTarget {
	return AllocationTarget{Type: AllocationTargetOpeningBalance}
}

// Validate checks the tag/id pairing.
func (t AllocationTarget) Validate() error {
	if !t.Type.IsValid() {
		return shared.NewDomainErrorf("INVALID_TARGET_TYPE", "Unknown allocation target type %q", t.Type)
	}
	if t.Type == AllocationTargetOpeningBalance {
		if t.TargetID != nil {
			return shared.NewDomainError("INVALID_TARGET", "Opening-balance allocations carry no target id")
		}
		return nil
	}
	if t.TargetID == nil || *t.TargetID == uuid.Nil {
		return shared.NewDomainErrorf("INVALID_TARGET", "%s allocation requires a target id", t.Type)
	}
	return nil
}

// PaymentAllocation records the application of part of a payment to one debt
// target. Rows are immutable once written; the only way to undo one is to
// delete it via payment rollback.
type PaymentAllocation struct {
	shared.BaseEntity
	PaymentID uuid.UUID
	Target    AllocationTarget
	Amount    decimal.Decimal
}

// NewPaymentAllocation creates an allocation row.
func NewPaymentAllocation(paymentID uuid.UUID, target AllocationTarget, amount decimal.Decimal) (*PaymentAllocation, error) {
	if paymentID == uuid.Nil {
		return nil, shared.ErrPaymentNotFound
	}
	if err := target.Validate(); err != nil {
		return nil, err
	}
	if amount.IsNegative() || amount.IsZero() {
		return nil, shared.NewDomainError(shared.CodeInvalidAmount, "Allocation amount must be positive")
	}
	return &PaymentAllocation{
		BaseEntity: shared.NewBaseEntity(),
		PaymentID:  paymentID,
		Target:     target,
		Amount:     amount,
	}, nil
}

// SumAllocations totals a set of allocation rows.
func SumAllocations(allocations []*PaymentAllocation) decimal.Decimal {
	total := decimal.Zero
	for _, a := range allocations {
		total = total.Add(a.Amount)
	}
	return total
}
