package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dairybooks/backend/internal/domain/billing"
	"github.com/dairybooks/backend/internal/domain/bulk"
	"github.com/dairybooks/backend/internal/domain/partner"
	"github.com/dairybooks/backend/internal/domain/shared"
	"github.com/dairybooks/backend/internal/domain/trade"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	renderMaxAttempts    = 3
	renderInitialBackoff = 1 * time.Second
)

// BulkInvoiceService coordinates invoice generation and deletion over batches.
// Each item is its own unit of work: a per-item failure is recorded and the
// batch continues, while a global failure (storage down, context dead) aborts
// the batch with zero successes. Every batch is bracketed by a durable
// operation log written before the first item and finalized after the last.
type BulkInvoiceService struct {
	invoices  *InvoiceService
	logs      bulk.OperationLogRepository
	customers partner.CustomerRepository
	sales     trade.SaleRepository
	mappings  billing.InvoiceSalesMappingRepository
	renderer  DocumentRenderer
	logger    *zap.Logger
	sleep     func(time.Duration)
}

// NewBulkInvoiceService creates a new BulkInvoiceService. renderer may be nil
// when document rendering is disabled.
func NewBulkInvoiceService(
	invoices *InvoiceService,
	logs bulk.OperationLogRepository,
	customers partner.CustomerRepository,
	sales trade.SaleRepository,
	mappings billing.InvoiceSalesMappingRepository,
	renderer DocumentRenderer,
	logger *zap.Logger,
) *BulkInvoiceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BulkInvoiceService{
		invoices:  invoices,
		logs:      logs,
		customers: customers,
		sales:     sales,
		mappings:  mappings,
		renderer:  renderer,
		logger:    logger,
		sleep:     time.Sleep,
	}
}

// LogBulkOperation writes and commits the pre-execution audit entry and
// returns its id. It must land before the first item runs so the attempt is
// observable even if the process dies mid-batch.
func (s *BulkInvoiceService) LogBulkOperation(ctx context.Context, opType bulk.OperationType, subtype string, totalItems int, parameters any) (uuid.UUID, error) {
	log, err := bulk.NewOperationLog(opType, subtype, totalItems, parameters)
	if err != nil {
		return uuid.Nil, err
	}
	if err := s.logs.Create(ctx, log); err != nil {
		return uuid.Nil, fmt.Errorf("write bulk operation log: %w", err)
	}
	return log.ID, nil
}

// UpdateBulkOperationStatus finalizes the audit entry with the batch outcome.
func (s *BulkInvoiceService) UpdateBulkOperationStatus(ctx context.Context, logID uuid.UUID, status bulk.OperationStatus, successful, failed int, errorDetails []bulk.ItemError) error {
	log, err := s.logs.FindByID(ctx, logID)
	if err != nil {
		return fmt.Errorf("load bulk operation log: %w", err)
	}
	if err := log.Finalize(status, successful, failed, errorDetails); err != nil {
		return err
	}
	return s.logs.Save(ctx, log)
}

// GenerateBulkInvoices generates one invoice per customer for the billing
// period. Per-customer failures (unknown id, no billable sales, duplicate
// invoice) are recorded in Errors and do not stop the batch; a global failure
// aborts it and reports successful_count = 0 with a single top-level error.
// Rendering failures are retried with backoff and reported separately: the
// committed ledger mutation is never re-run for a failed render.
func (s *BulkInvoiceService) GenerateBulkInvoices(ctx context.Context, req BulkGenerateRequest) (*BulkGenerateResult, error) {
	result := &BulkGenerateResult{
		TotalRequested: len(req.CustomerIDs),
		Errors:         []bulk.ItemError{},
		InvoiceNumbers: []string{},
	}

	logID, err := s.LogBulkOperation(ctx, bulk.OperationTypeInvoiceGeneration, "bulk_generate", len(req.CustomerIDs), req)
	if err != nil {
		return nil, err
	}
	result.LogID = logID

	generated := make([]*billing.Invoice, 0, len(req.CustomerIDs))
	for _, customerID := range req.CustomerIDs {
		invoice, err := s.invoices.GenerateInvoice(ctx, customerID, req.PeriodStart, req.PeriodEnd, req.ValidateExisting)
		if err != nil {
			if isGlobalFailure(err) {
				return s.abortBatchGenerate(ctx, result, err)
			}
			result.Errors = append(result.Errors, itemError(customerID.String(), err))
			continue
		}
		generated = append(generated, invoice)
		result.InvoiceNumbers = append(result.InvoiceNumbers, invoice.InvoiceNumber)
		result.SuccessfulCount++
	}

	result.Success = true
	status := bulk.OutcomeStatus(result.SuccessfulCount, len(result.Errors))
	if err := s.UpdateBulkOperationStatus(ctx, logID, status, result.SuccessfulCount, len(result.Errors), result.Errors); err != nil {
		s.logger.Error("failed to finalize bulk operation log",
			zap.String("log_id", logID.String()), zap.Error(err))
	}

	// ledger work is committed; rendering is strictly downstream
	for _, invoice := range generated {
		if renderErr := s.renderInvoiceDocument(ctx, invoice); renderErr != nil {
			result.RenderErrors = append(result.RenderErrors, itemError(invoice.InvoiceNumber, renderErr))
		}
	}

	return result, nil
}

// DeleteBulkInvoices safe-deletes a batch of invoices with the same
// partial-success model. Invoices with payments (when ValidatePayments),
// missing invoices, and already-deleted invoices are per-item errors.
func (s *BulkInvoiceService) DeleteBulkInvoices(ctx context.Context, req BulkDeleteRequest) (*BulkDeleteResult, error) {
	result := &BulkDeleteResult{
		TotalRequested: len(req.InvoiceIDs),
		Errors:         []bulk.ItemError{},
		DeletedNumbers: []string{},
	}

	logID, err := s.LogBulkOperation(ctx, bulk.OperationTypeInvoiceDeletion, "bulk_delete", len(req.InvoiceIDs), req)
	if err != nil {
		return nil, err
	}
	result.LogID = logID

	for _, invoiceID := range req.InvoiceIDs {
		number, err := s.deleteOne(ctx, invoiceID, req)
		if err != nil {
			if isGlobalFailure(err) {
				return s.abortBatchDelete(ctx, result, err)
			}
			result.Errors = append(result.Errors, itemError(invoiceID.String(), err))
			continue
		}
		result.DeletedNumbers = append(result.DeletedNumbers, number)
		result.SuccessfulCount++
	}

	result.Success = true
	status := bulk.OutcomeStatus(result.SuccessfulCount, len(result.Errors))
	if err := s.UpdateBulkOperationStatus(ctx, logID, status, result.SuccessfulCount, len(result.Errors), result.Errors); err != nil {
		s.logger.Error("failed to finalize bulk operation log",
			zap.String("log_id", logID.String()), zap.Error(err))
	}
	return result, nil
}

func (s *BulkInvoiceService) deleteOne(ctx context.Context, invoiceID uuid.UUID, req BulkDeleteRequest) (string, error) {
	// resolve the number first for reporting; DeleteInvoiceSafe re-checks
	// existence under lock
	invoice, err := s.invoices.findForReporting(ctx, invoiceID)
	if err != nil {
		return "", err
	}
	if req.ValidatePayments && invoice.AmountPaid.IsPositive() {
		// cheap pre-check; the allocation guard inside DeleteInvoiceSafe is
		// the authoritative one and holds even when this flag is off
		return "", shared.NewDomainErrorf("INVOICE_HAS_PAYMENTS",
			"Invoice %s has recorded payments", invoice.InvoiceNumber)
	}
	if _, err := s.invoices.DeleteInvoiceSafe(ctx, invoiceID, req.Permanent); err != nil {
		return "", err
	}
	return invoice.InvoiceNumber, nil
}

func (s *BulkInvoiceService) abortBatchGenerate(ctx context.Context, result *BulkGenerateResult, cause error) (*BulkGenerateResult, error) {
	s.logger.Error("bulk invoice generation aborted", zap.Error(cause))
	result.Success = false
	result.SuccessfulCount = 0
	result.InvoiceNumbers = []string{}
	result.Errors = []bulk.ItemError{}
	result.Error = asDomainError(cause)
	if err := s.UpdateBulkOperationStatus(ctx, result.LogID, bulk.OperationStatusFailed, 0, result.TotalRequested,
		[]bulk.ItemError{{Code: result.Error.Code, Message: result.Error.Message}}); err != nil {
		s.logger.Error("failed to finalize bulk operation log", zap.Error(err))
	}
	return result, nil
}

func (s *BulkInvoiceService) abortBatchDelete(ctx context.Context, result *BulkDeleteResult, cause error) (*BulkDeleteResult, error) {
	s.logger.Error("bulk invoice deletion aborted", zap.Error(cause))
	result.Success = false
	result.SuccessfulCount = 0
	result.DeletedNumbers = []string{}
	result.Errors = []bulk.ItemError{}
	result.Error = asDomainError(cause)
	if err := s.UpdateBulkOperationStatus(ctx, result.LogID, bulk.OperationStatusFailed, 0, result.TotalRequested,
		[]bulk.ItemError{{Code: result.Error.Code, Message: result.Error.Message}}); err != nil {
		s.logger.Error("failed to finalize bulk operation log", zap.Error(err))
	}
	return result, nil
}

// renderInvoiceDocument renders the invoice PDF with up to three attempts and
// exponential backoff (1s, 2s, 4s).
func (s *BulkInvoiceService) renderInvoiceDocument(ctx context.Context, invoice *billing.Invoice) error {
	if s.renderer == nil {
		return nil
	}

	doc, err := s.assembleDocument(ctx, invoice)
	if err != nil {
		return err
	}

	backoff := renderInitialBackoff
	var lastErr error
	for attempt := 1; attempt <= renderMaxAttempts; attempt++ {
		if _, lastErr = s.renderer.RenderInvoice(ctx, doc); lastErr == nil {
			return nil
		}
		s.logger.Warn("invoice render attempt failed",
			zap.String("invoice_number", invoice.InvoiceNumber),
			zap.Int("attempt", attempt),
			zap.Error(lastErr))
		if attempt < renderMaxAttempts {
			s.sleep(backoff)
			backoff *= 2
		}
	}
	return fmt.Errorf("render invoice %s after %d attempts: %w", invoice.InvoiceNumber, renderMaxAttempts, lastErr)
}

func (s *BulkInvoiceService) assembleDocument(ctx context.Context, invoice *billing.Invoice) (*InvoiceDocument, error) {
	customer, err := s.customers.FindByID(ctx, invoice.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("load customer for rendering: %w", err)
	}
	mappings, err := s.mappings.FindByInvoice(ctx, invoice.ID)
	if err != nil {
		return nil, fmt.Errorf("load mappings for rendering: %w", err)
	}
	sales, err := s.sales.FindByIDs(ctx, billing.SaleIDs(mappings))
	if err != nil {
		return nil, fmt.Errorf("load sales for rendering: %w", err)
	}
	return &InvoiceDocument{Invoice: invoice, Customer: customer.Ref(), Sales: sales}, nil
}

// isGlobalFailure separates catastrophic batch-aborting failures from
// per-item business errors. Domain errors are always per-item; anything else
// (dead store, exceeded deadline) poisons the whole batch.
func isGlobalFailure(err error) bool {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == shared.CodeInternal
	}
	return true
}

func itemError(itemID string, err error) bulk.ItemError {
	de := asDomainError(err)
	return bulk.ItemError{ItemID: itemID, Code: de.Code, Message: de.Message}
}

func asDomainError(err error) *shared.DomainError {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return shared.NewDomainError(shared.CodeInternal, err.Error())
}
