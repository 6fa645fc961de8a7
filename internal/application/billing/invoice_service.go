package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/dairybooks/backend/internal/domain/billing"
	"github.com/dairybooks/backend/internal/domain/shared"
	"github.com/dairybooks/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const defaultInvoiceOpTimeout = 10 * time.Second

// InvoiceService manages the invoice lifecycle: FY-scoped numbering,
// generation from billable sales, safe deletion with mapping-driven sale
// reversion, and recovery of soft-deleted invoices.
type InvoiceService struct {
	scope   TransactionScope
	cache   OutstandingCache
	logger  *zap.Logger
	clock   func() time.Time
	timeout time.Duration
}

// NewInvoiceService creates a new InvoiceService. cache may be nil.
func NewInvoiceService(scope TransactionScope, cache OutstandingCache, logger *zap.Logger) *InvoiceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvoiceService{
		scope:   scope,
		cache:   cache,
		logger:  logger,
		clock:   time.Now,
		timeout: defaultInvoiceOpTimeout,
	}
}

// WithClock overrides the time source; tests pin the financial year with it.
func (s *InvoiceService) WithClock(clock func() time.Time) *InvoiceService {
	if clock != nil {
		s.clock = clock
	}
	return s
}

// WithTimeout overrides the per-operation deadline.
func (s *InvoiceService) WithTimeout(timeout time.Duration) *InvoiceService {
	if timeout > 0 {
		s.timeout = timeout
	}
	return s
}

// NextInvoiceNumber issues the next invoice number for the current financial
// year. The per-FY sequence is a single atomic fetch-and-increment in storage,
// so concurrent issuance never hands out the same number.
func (s *InvoiceService) NextInvoiceNumber(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	fyCode := billing.FinancialYearCode(s.clock())
	var number string
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		sequence, err := repos.Sequences().Next(ctx, fyCode)
		if err != nil {
			return fmt.Errorf("increment invoice sequence: %w", err)
		}
		number, err = billing.FormatInvoiceNumber(fyCode, sequence)
		return err
	})
	if err != nil {
		return "", err
	}
	return number, nil
}

// GenerateInvoice creates one invoice for the customer's Pending credit sales
// in the billing period: issues a number, creates the invoice and its
// invoice-sales mappings, and flips the sales to Billed, all in one
// transaction. validateExisting rejects a period already covered by a
// non-deleted invoice with DUPLICATE_INVOICE.
func (s *InvoiceService) GenerateInvoice(ctx context.Context, customerID uuid.UUID, periodStart, periodEnd time.Time, validateExisting bool) (*billing.Invoice, error) {
	if periodEnd.Before(periodStart) {
		return nil, shared.NewDomainError("INVALID_PERIOD", "Billing period end cannot precede start")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var invoice *billing.Invoice
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		customer, err := repos.Customers().FindByID(ctx, customerID)
		if err != nil {
			if shared.IsNotFound(err) {
				return err
			}
			return fmt.Errorf("load customer: %w", err)
		}

		if validateExisting {
			exists, err := repos.Invoices().ExistsForPeriod(ctx, customerID, periodStart, periodEnd)
			if err != nil {
				return fmt.Errorf("check existing invoices: %w", err)
			}
			if exists {
				return shared.NewDomainErrorf("DUPLICATE_INVOICE",
					"Customer %s already has an invoice covering this period", customer.Code)
			}
		}

		sales, err := repos.Sales().FindBillableByCustomer(ctx, customerID, periodStart, periodEnd)
		if err != nil {
			return fmt.Errorf("load billable sales: %w", err)
		}
		if len(sales) == 0 {
			return shared.NewDomainErrorf("NO_BILLABLE_SALES",
				"Customer %s has no billable sales in the period", customer.Code)
		}

		total := decimal.Zero
		for _, sale := range sales {
			total = total.Add(sale.TotalAmount)
		}

		fyCode := billing.FinancialYearCode(s.clock())
		sequence, err := repos.Sequences().Next(ctx, fyCode)
		if err != nil {
			return fmt.Errorf("increment invoice sequence: %w", err)
		}
		number, err := billing.FormatInvoiceNumber(fyCode, sequence)
		if err != nil {
			return err
		}

		invoice, err = billing.NewInvoice(number, customerID, periodStart, periodEnd, total)
		if err != nil {
			return err
		}
		if err := repos.Invoices().Create(ctx, invoice); err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}

		mappings := make([]*billing.InvoiceSalesMapping, 0, len(sales))
		saleIDs := make([]uuid.UUID, 0, len(sales))
		for _, sale := range sales {
			if err := sale.MarkBilled(); err != nil {
				return err
			}
			mapping, err := billing.NewInvoiceSalesMapping(invoice.ID, sale.ID, sale.PaymentStatus)
			if err != nil {
				return err
			}
			mappings = append(mappings, mapping)
			saleIDs = append(saleIDs, sale.ID)
		}
		if err := repos.Mappings().CreateBatch(ctx, mappings); err != nil {
			return fmt.Errorf("create invoice-sales mappings: %w", err)
		}
		if err := repos.Sales().UpdatePaymentStatus(ctx, saleIDs, trade.SalePaymentStatusBilled); err != nil {
			return fmt.Errorf("mark sales billed: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateOutstanding(ctx, customerID)
	s.logger.Info("invoice generated",
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.String("customer_id", customerID.String()),
		zap.String("total", invoice.TotalAmount.StringFixed(2)))
	return invoice, nil
}

// DeleteInvoiceSafe deletes an invoice only when no payment allocations
// target it; otherwise it fails with INVOICE_HAS_PAYMENTS carrying the
// payment count and ids. The invoice-sales mapping rows, not a date range,
// decide exactly which sales revert to Pending. permanent=false soft-deletes
// (recoverable); permanent=true removes the invoice and its mappings outright.
func (s *InvoiceService) DeleteInvoiceSafe(ctx context.Context, invoiceID uuid.UUID, permanent bool) (*DeleteInvoiceResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var result *DeleteInvoiceResult
	var customerID uuid.UUID
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		invoice, err := repos.Invoices().FindByIDForUpdate(ctx, invoiceID)
		if err != nil {
			if shared.IsNotFound(err) {
				return err
			}
			return fmt.Errorf("lock invoice: %w", err)
		}
		customerID = invoice.CustomerID

		allocations, err := repos.Allocations().FindByInvoice(ctx, invoiceID)
		if err != nil {
			return fmt.Errorf("load invoice allocations: %w", err)
		}
		if len(allocations) > 0 {
			paymentIDs := make([]uuid.UUID, 0, len(allocations))
			seen := make(map[uuid.UUID]struct{}, len(allocations))
			for _, alloc := range allocations {
				if _, ok := seen[alloc.PaymentID]; !ok {
					seen[alloc.PaymentID] = struct{}{}
					paymentIDs = append(paymentIDs, alloc.PaymentID)
				}
			}
			return shared.NewDomainErrorf("INVOICE_HAS_PAYMENTS",
				"Invoice %s has %d payment(s) allocated against it; roll them back first",
				invoice.InvoiceNumber, len(paymentIDs)).
				WithDetail(map[string]any{
					"payment_count": len(paymentIDs),
					"payment_ids":   paymentIDs,
				})
		}

		mappings, err := repos.Mappings().FindByInvoice(ctx, invoiceID)
		if err != nil {
			return fmt.Errorf("load invoice mappings: %w", err)
		}

		saleIDs := billing.SaleIDs(mappings)
		if len(saleIDs) > 0 {
			sales, err := repos.Sales().FindByIDs(ctx, saleIDs)
			if err != nil {
				return fmt.Errorf("load mapped sales: %w", err)
			}
			statusBySale := make(map[uuid.UUID]trade.SalePaymentStatus, len(sales))
			for _, sale := range sales {
				statusBySale[sale.ID] = sale.PaymentStatus
			}
			// remember each sale's live status so recovery can restore it
			for _, mapping := range mappings {
				if status, ok := statusBySale[mapping.SaleID]; ok {
					mapping.RecordPreDeletionStatus(status)
					if err := repos.Mappings().Save(ctx, mapping); err != nil {
						return fmt.Errorf("save mapping: %w", err)
					}
				}
			}
			if err := repos.Sales().UpdatePaymentStatus(ctx, saleIDs, trade.SalePaymentStatusPending); err != nil {
				return fmt.Errorf("revert sales: %w", err)
			}
		}

		if permanent {
			if _, err := repos.Mappings().DeleteByInvoice(ctx, invoiceID); err != nil {
				return fmt.Errorf("delete mappings: %w", err)
			}
			if err := repos.Invoices().HardDelete(ctx, invoiceID); err != nil {
				return fmt.Errorf("delete invoice: %w", err)
			}
		} else {
			if err := invoice.SoftDelete(s.clock()); err != nil {
				return err
			}
			if err := repos.Invoices().Save(ctx, invoice); err != nil {
				return fmt.Errorf("save invoice: %w", err)
			}
		}

		result = &DeleteInvoiceResult{
			Success:         true,
			SoftDelete:      !permanent,
			RevertedSales:   len(saleIDs),
			AffectedSaleIDs: saleIDs,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateOutstanding(ctx, customerID)
	s.logger.Info("invoice deleted",
		zap.String("invoice_id", invoiceID.String()),
		zap.Bool("soft_delete", result.SoftDelete),
		zap.Int("reverted_sales", result.RevertedSales))
	return result, nil
}

// RecoverInvoice clears the soft-delete marker and restores each mapped
// sale's payment status to the value it held before the deletion.
func (s *InvoiceService) RecoverInvoice(ctx context.Context, invoiceID uuid.UUID) (*RecoverInvoiceResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var result *RecoverInvoiceResult
	var customerID uuid.UUID
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		invoice, err := repos.Invoices().FindByIDIncludingDeleted(ctx, invoiceID)
		if err != nil {
			if shared.IsNotFound(err) {
				return err
			}
			return fmt.Errorf("load invoice: %w", err)
		}
		customerID = invoice.CustomerID

		if err := invoice.Recover(); err != nil {
			return err
		}
		if err := repos.Invoices().Save(ctx, invoice); err != nil {
			return fmt.Errorf("save invoice: %w", err)
		}

		mappings, err := repos.Mappings().FindByInvoice(ctx, invoiceID)
		if err != nil {
			return fmt.Errorf("load invoice mappings: %w", err)
		}
		restored := 0
		for _, mapping := range mappings {
			if err := repos.Sales().UpdatePaymentStatus(ctx, []uuid.UUID{mapping.SaleID}, mapping.PreviousStatus); err != nil {
				return fmt.Errorf("restore sale status: %w", err)
			}
			restored++
		}

		result = &RecoverInvoiceResult{Success: true, RestoredSales: restored}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateOutstanding(ctx, customerID)
	return result, nil
}

// MigrateInvoiceSalesMapping backfills mapping rows for invoices created
// before the mapping table existed, using the legacy association rule:
// the customer's Billed or Completed sales dated inside the invoice's billing
// period. Best-effort by design; invoices that already have mappings are
// skipped. Never used for new invoices, which write mappings at creation.
func (s *InvoiceService) MigrateInvoiceSalesMapping(ctx context.Context) (*MappingMigrationResult, error) {
	result := &MappingMigrationResult{}
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		invoices, err := repos.Invoices().FindMissingMappings(ctx)
		if err != nil {
			return fmt.Errorf("find unmapped invoices: %w", err)
		}

		for _, invoice := range invoices {
			sales, err := repos.Sales().FindByCustomerAndDateRange(ctx, invoice.CustomerID, invoice.PeriodStart, invoice.PeriodEnd)
			if err != nil {
				return fmt.Errorf("load period sales: %w", err)
			}
			// the legacy rule associated billed sales by date range; sales
			// still Pending were never part of the invoice
			candidates := make([]*billing.InvoiceSalesMapping, 0, len(sales))
			for _, sale := range sales {
				if sale.SaleType != trade.SaleTypeCredit || sale.PaymentStatus == trade.SalePaymentStatusPending {
					continue
				}
				mapping, err := billing.NewInvoiceSalesMapping(invoice.ID, sale.ID, sale.PaymentStatus)
				if err != nil {
					return err
				}
				candidates = append(candidates, mapping)
			}
			if len(candidates) == 0 {
				result.SkippedInvoices++
				continue
			}
			if err := repos.Mappings().CreateBatch(ctx, candidates); err != nil {
				return fmt.Errorf("create mappings: %w", err)
			}
			result.MigratedInvoices++
			result.MappedSales += len(candidates)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("invoice-sales mapping migration finished",
		zap.Int("migrated_invoices", result.MigratedInvoices),
		zap.Int("mapped_sales", result.MappedSales),
		zap.Int("skipped_invoices", result.SkippedInvoices))
	return result, nil
}

// MarkOverdueInvoices flips unpaid invoices past their due date to overdue
// and invalidates the cached outstanding of every affected customer. Run
// daily by the scheduler; safe to repeat.
func (s *InvoiceService) MarkOverdueInvoices(ctx context.Context) (int, error) {
	now := s.clock()
	marked := 0
	touched := make(map[uuid.UUID]struct{})
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		invoices, err := repos.Invoices().FindDueBefore(ctx, now)
		if err != nil {
			return fmt.Errorf("find due invoices: %w", err)
		}
		for _, invoice := range invoices {
			before := invoice.Status
			invoice.MarkOverdue(now)
			if invoice.Status == before {
				continue
			}
			if err := repos.Invoices().Save(ctx, invoice); err != nil {
				return fmt.Errorf("save invoice %s: %w", invoice.InvoiceNumber, err)
			}
			touched[invoice.CustomerID] = struct{}{}
			marked++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	for customerID := range touched {
		s.invalidateOutstanding(ctx, customerID)
	}
	if marked > 0 {
		s.logger.Info("marked overdue invoices", zap.Int("marked", marked))
	}
	return marked, nil
}

// findForReporting resolves a live invoice outside any lock, for batch
// reporting. Missing and soft-deleted invoices both surface as not found.
func (s *InvoiceService) findForReporting(ctx context.Context, invoiceID uuid.UUID) (*billing.Invoice, error) {
	var invoice *billing.Invoice
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		invoice, err = repos.Invoices().FindByID(ctx, invoiceID)
		if err != nil {
			if shared.IsNotFound(err) {
				return err
			}
			return fmt.Errorf("load invoice: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

func (s *InvoiceService) invalidateOutstanding(ctx context.Context, customerID uuid.UUID) {
	if s.cache == nil || customerID == uuid.Nil {
		return
	}
	if err := s.cache.Invalidate(context.WithoutCancel(ctx), customerID); err != nil {
		s.logger.Warn("failed to invalidate outstanding cache",
			zap.String("customer_id", customerID.String()), zap.Error(err))
	}
}
