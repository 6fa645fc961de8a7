package billing

import (
	"time"

	"github.com/dairybooks/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod is how the money arrived.
type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodUPI    PaymentMethod = "upi"
	PaymentMethodBank   PaymentMethod = "bank_transfer"
	PaymentMethodCheque PaymentMethod = "cheque"
)

// AllocationStatus summarizes how much of a payment has been applied.
type AllocationStatus string

const (
	AllocationStatusUnapplied        AllocationStatus = "unapplied"
	AllocationStatusPartiallyApplied AllocationStatus = "partially_applied"
	AllocationStatusFullyApplied     AllocationStatus = "fully_applied"
)

// Payment is money received from a customer, applied against debt targets via
// allocation rows. AmountApplied/AmountUnapplied are derived from the
// allocation rows; the reconciler repairs any drift.
//
// Invariant: sum of the payment's allocation amounts never exceeds Amount.
type Payment struct {
	shared.BaseEntity
	CustomerID       uuid.UUID
	Amount           decimal.Decimal
	AmountApplied    decimal.Decimal
	AmountUnapplied  decimal.Decimal
	AllocationStatus AllocationStatus
	Method           PaymentMethod
	Reference        string
	ReceivedAt       time.Time
}

// NewPayment creates an unapplied payment.
func NewPayment(customerID uuid.UUID, amount decimal.Decimal, method PaymentMethod, receivedAt time.Time) (*Payment, error) {
	if customerID == uuid.Nil {
		return nil, shared.ErrCustomerNotFound
	}
	if amount.IsNegative() || amount.IsZero() {
		return nil, shared.NewDomainError(shared.CodeInvalidAmount, "Payment amount must be positive")
	}
	return &Payment{
		BaseEntity:       shared.NewBaseEntity(),
		CustomerID:       customerID,
		Amount:           amount,
		AmountApplied:    decimal.Zero,
		AmountUnapplied:  amount,
		AllocationStatus: AllocationStatusUnapplied,
		Method:           method,
		ReceivedAt:       receivedAt,
	}, nil
}

// Unapplied returns the budget still available for allocation.
func (p *Payment) Unapplied() decimal.Decimal {
	return p.Amount.Sub(p.AmountApplied)
}

// Apply consumes part of the payment's budget. Fails if the allocation would
// spend more than remains.
func (p *Payment) Apply(amount decimal.Decimal) error {
	if amount.IsNegative() || amount.IsZero() {
		return shared.NewDomainError(shared.CodeInvalidAmount, "Allocation amount must be positive")
	}
	newApplied := p.AmountApplied.Add(amount)
	if newApplied.GreaterThan(p.Amount) {
		excess := newApplied.Sub(p.Amount)
		return shared.NewDomainErrorf(shared.CodeValidationFailed,
			"Allocation exceeds payment amount by %s", excess.StringFixed(2)).
			WithDetail(map[string]string{"excess_amount": excess.StringFixed(2)})
	}
	p.SetApplied(newApplied)
	return nil
}

// SetApplied overwrites the applied amount and recomputes the derived fields.
// Used by Apply, rollback, and the reconciler.
func (p *Payment) SetApplied(applied decimal.Decimal) {
	if applied.IsNegative() {
		applied = decimal.Zero
	}
	p.AmountApplied = applied
	p.AmountUnapplied = p.Amount.Sub(applied)
	switch {
	case applied.IsZero():
		p.AllocationStatus = AllocationStatusUnapplied
	case applied.Equal(p.Amount):
		p.AllocationStatus = AllocationStatusFullyApplied
	default:
		p.AllocationStatus = AllocationStatusPartiallyApplied
	}
}

// Reset returns the payment to its unapplied state; used by rollback.
func (p *Payment) Reset() {
	p.SetApplied(decimal.Zero)
}
