package billing

import (
	"context"
	"time"

	"github.com/dairybooks/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceRepository defines persistence operations for invoices.
//
// Finders exclude soft-deleted rows unless the method says otherwise.
// FindByIDForUpdate locks the invoice row for the duration of the enclosing
// transaction; every read-then-write of amount_paid goes through it.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *Invoice) error
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Invoice, error)
	// FindByIDIncludingDeleted also returns soft-deleted invoices, used by recovery.
	FindByIDIncludingDeleted(ctx context.Context, id uuid.UUID) (*Invoice, error)
	FindByNumber(ctx context.Context, invoiceNumber string) (*Invoice, error)
	FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]*Invoice, int64, error)
	// FindOutstandingByCustomer returns the customer's non-deleted invoices in a
	// status that counts toward outstanding.
	FindOutstandingByCustomer(ctx context.Context, customerID uuid.UUID) ([]*Invoice, error)
	// FindDueBefore returns non-deleted, unpaid invoices whose due date falls
	// before asOf; input to the overdue marking pass.
	FindDueBefore(ctx context.Context, asOf time.Time) ([]*Invoice, error)
	// ExistsForPeriod reports whether the customer already has a non-deleted
	// invoice whose billing period overlaps [periodStart, periodEnd].
	ExistsForPeriod(ctx context.Context, customerID uuid.UUID, periodStart, periodEnd time.Time) (bool, error)
	// FindMissingMappings returns non-deleted invoices that have no
	// invoice-sales mapping rows; input to the one-time backfill.
	FindMissingMappings(ctx context.Context) ([]*Invoice, error)
	Save(ctx context.Context, invoice *Invoice) error
	// HardDelete removes the invoice row outright (permanent deletion).
	HardDelete(ctx context.Context, id uuid.UUID) error
}

// PaymentRepository defines persistence operations for payments.
type PaymentRepository interface {
	Create(ctx context.Context, payment *Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Payment, error)
	FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]*Payment, int64, error)
	// FindAllIDs returns every payment id; the reconciler walks them.
	FindAllIDs(ctx context.Context) ([]uuid.UUID, error)
	Save(ctx context.Context, payment *Payment) error
}

// PaymentAllocationRepository defines persistence operations for allocation rows.
type PaymentAllocationRepository interface {
	Create(ctx context.Context, allocation *PaymentAllocation) error
	FindByPayment(ctx context.Context, paymentID uuid.UUID) ([]*PaymentAllocation, error)
	FindByTarget(ctx context.Context, target AllocationTarget) ([]*PaymentAllocation, error)
	// FindByInvoice returns allocations targeting the invoice; the payments
	// guard on invoice deletion reads it.
	FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*PaymentAllocation, error)
	// SumOpeningBalanceByCustomer totals opening-balance allocations across all
	// of the customer's payments.
	SumOpeningBalanceByCustomer(ctx context.Context, customerID uuid.UUID) (decimal.Decimal, error)
	SumByPayment(ctx context.Context, paymentID uuid.UUID) (decimal.Decimal, error)
	DeleteByPayment(ctx context.Context, paymentID uuid.UUID) (int64, error)
}

// InvoiceSalesMappingRepository defines persistence operations for the
// invoice-to-sale link rows.
type InvoiceSalesMappingRepository interface {
	Create(ctx context.Context, mapping *InvoiceSalesMapping) error
	CreateBatch(ctx context.Context, mappings []*InvoiceSalesMapping) error
	FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*InvoiceSalesMapping, error)
	FindBySale(ctx context.Context, saleID uuid.UUID) ([]*InvoiceSalesMapping, error)
	Save(ctx context.Context, mapping *InvoiceSalesMapping) error
	DeleteByInvoice(ctx context.Context, invoiceID uuid.UUID) (int64, error)
}

// InvoiceSequenceRepository issues invoice sequence numbers.
//
// Next must be a single atomic fetch-and-increment in storage (an
// UPDATE ... RETURNING against the per-FY counter row), never a
// read-modify-write in application code.
type InvoiceSequenceRepository interface {
	Next(ctx context.Context, fyCode string) (int, error)
	// Current returns the last issued sequence for a FY, 0 if none.
	Current(ctx context.Context, fyCode string) (int, error)
}
