package billing

import (
	"github.com/dairybooks/backend/internal/domain/shared"
	"github.com/dairybooks/backend/internal/domain/trade"
	"github.com/google/uuid"
)

// InvoiceSalesMapping is the authoritative link between an invoice and a sale
// it bills. Deletion and recovery revert exactly the mapped sales, never a
// date-range reconstruction.
//
// PreviousStatus holds the payment status the sale carried while the invoice
// was live (Billed, or Completed if it was settled later). Soft delete rewrites
// it just before reverting the sale to Pending, and recovery restores it, so a
// recover after a soft delete reproduces the exact pre-deletion statuses.
type InvoiceSalesMapping struct {
	shared.BaseEntity
	InvoiceID      uuid.UUID
	SaleID         uuid.UUID
	PreviousStatus trade.SalePaymentStatus
}

// NewInvoiceSalesMapping links a sale into an invoice.
func NewInvoiceSalesMapping(invoiceID, saleID uuid.UUID, previousStatus trade.SalePaymentStatus) (*InvoiceSalesMapping, error) {
	if invoiceID == uuid.Nil {
		return nil, shared.ErrInvoiceNotFound
	}
	if saleID == uuid.Nil {
		return nil, shared.ErrSaleNotFound
	}
	if !previousStatus.IsValid() {
		return nil, shared.NewDomainErrorf("INVALID_STATUS", "Unknown sale payment status %q", previousStatus)
	}
	return &InvoiceSalesMapping{
		BaseEntity:     shared.NewBaseEntity(),
		InvoiceID:      invoiceID,
		SaleID:         saleID,
		PreviousStatus: previousStatus,
	}, nil
}

// RecordPreDeletionStatus captures the sale's status right before the
// deletion path reverts it to Pending.
func (m *InvoiceSalesMapping) RecordPreDeletionStatus(status trade.SalePaymentStatus) {
	if status.IsValid() {
		m.PreviousStatus = status
	}
}

// SaleIDs extracts the sale ids from a set of mappings.
func SaleIDs(mappings []*InvoiceSalesMapping) []uuid.UUID {
	ids := make([]uuid.UUID, len(mappings))
	for i, m := range mappings {
		ids[i] = m.SaleID
	}
	return ids
}
