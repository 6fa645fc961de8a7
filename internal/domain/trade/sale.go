package trade

import (
	"time"

	"github.com/dairybooks/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleType represents how a sale was settled at the counter or doorstep.
type SaleType string

const (
	SaleTypeCash   SaleType = "Cash"
	SaleTypeCredit SaleType = "Credit"
	SaleTypeQR     SaleType = "QR"
)

// IsValid returns true if the sale type is valid
func (t SaleType) IsValid() bool {
	switch t {
	case SaleTypeCash, SaleTypeCredit, SaleTypeQR:
		return true
	}
	return false
}

// SalePaymentStatus tracks a sale through the billing cycle.
type SalePaymentStatus string

const (
	SalePaymentStatusPending   SalePaymentStatus = "Pending"
	SalePaymentStatusBilled    SalePaymentStatus = "Billed"
	SalePaymentStatusCompleted SalePaymentStatus = "Completed"
)

// IsValid returns true if the payment status is valid
func (s SalePaymentStatus) IsValid() bool {
	switch s {
	case SalePaymentStatusPending, SalePaymentStatusBilled, SalePaymentStatusCompleted:
		return true
	}
	return false
}

// SaleItem is one line on a sale (product, quantity, per-unit rate).
type SaleItem struct {
	ProductName string          `json:"product_name"`
	Quantity    decimal.Decimal `json:"quantity"`
	Rate        decimal.Decimal `json:"rate"`
	Amount      decimal.Decimal `json:"amount"`
}

// Sale represents a single delivery or counter sale. CustomerID is nil for
// walk-in Cash/QR sales; only Credit sales participate in invoicing.
//
// PaymentStatus may be Billed or Completed only while an invoice-sales mapping
// links the sale to a non-deleted invoice; deleting that invoice reverts the
// sale to Pending.
type Sale struct {
	shared.BaseEntity
	CustomerID    *uuid.UUID
	SaleType      SaleType
	PaymentStatus SalePaymentStatus
	SaleDate      time.Time
	TotalAmount   decimal.Decimal
	Items         []SaleItem
	Notes         string
}

// NewCreditSale creates a credit sale for a known customer. Credit sales start
// Pending and become Billed when an invoice picks them up.
func NewCreditSale(customerID uuid.UUID, saleDate time.Time, items []SaleItem) (*Sale, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Credit sale requires a customer")
	}
	if len(items) == 0 {
		return nil, shared.NewDomainError("INVALID_ITEMS", "Sale must have at least one item")
	}
	total := decimal.Zero
	for _, item := range items {
		if item.Amount.IsNegative() {
			return nil, shared.NewDomainError(shared.CodeInvalidAmount, "Sale item amount cannot be negative")
		}
		total = total.Add(item.Amount)
	}
	return &Sale{
		BaseEntity:    shared.NewBaseEntity(),
		CustomerID:    &customerID,
		SaleType:      SaleTypeCredit,
		PaymentStatus: SalePaymentStatusPending,
		SaleDate:      saleDate,
		TotalAmount:   total,
		Items:         items,
	}, nil
}

// NewCashSale creates an anonymous Cash or QR sale, settled on the spot.
func NewCashSale(saleType SaleType, saleDate time.Time, items []SaleItem) (*Sale, error) {
	if saleType != SaleTypeCash && saleType != SaleTypeQR {
		return nil, shared.NewDomainError("INVALID_SALE_TYPE", "Anonymous sales must be Cash or QR")
	}
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Amount)
	}
	return &Sale{
		BaseEntity:    shared.NewBaseEntity(),
		SaleType:      saleType,
		PaymentStatus: SalePaymentStatusCompleted,
		SaleDate:      saleDate,
		TotalAmount:   total,
		Items:         items,
	}, nil
}

// MarkBilled flips the sale to Billed when an invoice includes it.
func (s *Sale) MarkBilled() error {
	if s.PaymentStatus != SalePaymentStatusPending {
		return shared.NewDomainErrorf("INVALID_STATE", "Sale %s is %s, only Pending sales can be billed", s.ID, s.PaymentStatus)
	}
	s.PaymentStatus = SalePaymentStatusBilled
	return nil
}

// RevertToPending puts the sale back into the billable pool. Used when the
// invoice that billed it is deleted.
func (s *Sale) RevertToPending() {
	s.PaymentStatus = SalePaymentStatusPending
}

// IsBillable reports whether the sale can be picked up by invoice generation.
func (s *Sale) IsBillable() bool {
	return s.SaleType == SaleTypeCredit && s.PaymentStatus == SalePaymentStatusPending && s.CustomerID != nil
}
