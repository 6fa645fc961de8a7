package billing

import (
	"context"
	"time"

	"github.com/dairybooks/backend/internal/domain/billing"
	"github.com/dairybooks/backend/internal/domain/bulk"
	"github.com/dairybooks/backend/internal/domain/partner"
	"github.com/dairybooks/backend/internal/domain/shared"
	"github.com/dairybooks/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AllocationRequest is one requested application of the payment against a
// debt target. TargetID is required for invoice and sale targets and must be
// absent for opening balance.
type AllocationRequest struct {
	TargetType billing.AllocationTargetType `json:"target_type"`
	TargetID   *uuid.UUID                   `json:"target_id,omitempty"`
	Amount     decimal.Decimal              `json:"amount"`
}

// Target converts the request into the domain's tagged allocation target.
func (r AllocationRequest) Target() billing.AllocationTarget {
	return billing.AllocationTarget{Type: r.TargetType, TargetID: r.TargetID}
}

// CreatePaymentRequest creates a payment and optionally applies it across
// debt targets in the given order.
type CreatePaymentRequest struct {
	CustomerID  uuid.UUID             `json:"customer_id"`
	Amount      decimal.Decimal       `json:"amount"`
	Method      billing.PaymentMethod `json:"method"`
	Reference   string                `json:"reference,omitempty"`
	ReceivedAt  time.Time             `json:"received_at"`
	Allocations []AllocationRequest   `json:"allocations,omitempty"`
}

// OpeningBalanceAllocationResult reports an opening-balance allocation.
// AllocatedAmount can be less than requested: allocation is capped at the
// remaining opening balance and a partial allocation is not an error.
type OpeningBalanceAllocationResult struct {
	Success                 bool                     `json:"success"`
	AllocatedAmount         decimal.Decimal          `json:"allocated_amount"`
	RemainingOpeningBalance decimal.Decimal          `json:"remaining_opening_balance"`
	PaymentStatus           billing.AllocationStatus `json:"payment_status"`
}

// RollbackResult reports a payment rollback.
type RollbackResult struct {
	Success          bool            `json:"success"`
	AffectedInvoices int             `json:"affected_invoices"`
	ReleasedAmount   decimal.Decimal `json:"released_amount"`
}

// DeleteInvoiceResult reports a safe invoice deletion.
type DeleteInvoiceResult struct {
	Success         bool        `json:"success"`
	SoftDelete      bool        `json:"soft_delete"`
	RevertedSales   int         `json:"reverted_sales"`
	AffectedSaleIDs []uuid.UUID `json:"affected_sales_ids"`
}

// RecoverInvoiceResult reports an invoice recovery.
type RecoverInvoiceResult struct {
	Success       bool `json:"success"`
	RestoredSales int  `json:"restored_sales"`
}

// MappingMigrationResult reports the one-time invoice-sales mapping backfill.
type MappingMigrationResult struct {
	MigratedInvoices int `json:"migrated_invoices"`
	MappedSales      int `json:"mapped_sales"`
	SkippedInvoices  int `json:"skipped_invoices"`
}

// BulkGenerateRequest asks for one invoice per customer covering the period.
type BulkGenerateRequest struct {
	PeriodStart      time.Time   `json:"period_start"`
	PeriodEnd        time.Time   `json:"period_end"`
	CustomerIDs      []uuid.UUID `json:"customer_ids"`
	ValidateExisting bool        `json:"validate_existing"`
}

// BulkGenerateResult reports a bulk generation batch. Per-item failures land
// in Errors; a catastrophic failure zeroes SuccessfulCount and sets Error
// instead. Renderer failures are tracked separately and never imply a ledger
// failure.
type BulkGenerateResult struct {
	Success         bool                `json:"success"`
	SuccessfulCount int                 `json:"successful_count"`
	TotalRequested  int                 `json:"total_requested"`
	Errors          []bulk.ItemError    `json:"errors"`
	InvoiceNumbers  []string            `json:"invoice_numbers"`
	RenderErrors    []bulk.ItemError    `json:"render_errors,omitempty"`
	Error           *shared.DomainError `json:"error,omitempty"`
	LogID           uuid.UUID           `json:"log_id"`
}

// BulkDeleteRequest asks for safe deletion of a batch of invoices.
type BulkDeleteRequest struct {
	InvoiceIDs       []uuid.UUID `json:"invoice_ids"`
	Permanent        bool        `json:"permanent"`
	ValidatePayments bool        `json:"validate_payments"`
}

// BulkDeleteResult reports a bulk deletion batch, same shape rules as
// BulkGenerateResult.
type BulkDeleteResult struct {
	Success         bool                `json:"success"`
	SuccessfulCount int                 `json:"successful_count"`
	TotalRequested  int                 `json:"total_requested"`
	Errors          []bulk.ItemError    `json:"errors"`
	DeletedNumbers  []string            `json:"deleted_numbers"`
	Error           *shared.DomainError `json:"error,omitempty"`
	LogID           uuid.UUID           `json:"log_id"`
}

// ReconcileResult reports a reconciliation pass over the payments table.
type ReconcileResult struct {
	CheckedPayments  int `json:"checked_payments"`
	RepairedPayments int `json:"repaired_payments"`
}

// InvoiceDocument carries everything the document renderer needs to produce
// the customer-facing invoice artifact.
type InvoiceDocument struct {
	Invoice  *billing.Invoice
	Customer partner.CustomerRef
	Sales    []*trade.Sale
}

// DocumentRenderer turns an invoice into a rendered artifact (PDF). Renderer
// internals are out of the ledger's scope; the coordinator only retries the
// call and reports failures separately from ledger state.
type DocumentRenderer interface {
	RenderInvoice(ctx context.Context, doc *InvoiceDocument) ([]byte, error)
}

// OutstandingCache caches computed customer outstanding views. Misses and
// cache errors are soft: callers fall through to a fresh computation.
type OutstandingCache interface {
	Get(ctx context.Context, customerID uuid.UUID) (*billing.CustomerOutstanding, bool, error)
	Set(ctx context.Context, outstanding *billing.CustomerOutstanding) error
	Invalidate(ctx context.Context, customerID uuid.UUID) error
}
