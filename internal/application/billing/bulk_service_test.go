package billing

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dairybooks/backend/internal/domain/billing"
	"github.com/dairybooks/backend/internal/domain/bulk"
	"github.com/dairybooks/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyRenderer fails the first failCount calls, then succeeds.
type flakyRenderer struct {
	failCount int
	calls     int
}

func (r *flakyRenderer) RenderInvoice(ctx context.Context, doc *InvoiceDocument) ([]byte, error) {
	r.calls++
	if r.calls <= r.failCount {
		return nil, fmt.Errorf("renderer unavailable (call %d)", r.calls)
	}
	return []byte("%PDF-1.4"), nil
}

func TestGenerateBulkInvoices(t *testing.T) {
	ctx := context.Background()
	periodStart := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	periodEnd := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)

	t.Run("partial success records per-item errors and continues", func(t *testing.T) {
		f := newFixture()
		good1 := f.addCustomer("0")
		f.addCreditSale(good1.ID, periodStart.AddDate(0, 0, 1), "100")
		good2 := f.addCustomer("0")
		f.addCreditSale(good2.ID, periodStart.AddDate(0, 0, 2), "75")
		noSales := f.addCustomer("0")
		unknown := uuid.New()

		svc := f.bulkService(nil)
		result, err := svc.GenerateBulkInvoices(ctx, BulkGenerateRequest{
			PeriodStart:      periodStart,
			PeriodEnd:        periodEnd,
			CustomerIDs:      []uuid.UUID{good1.ID, unknown, good2.ID, noSales.ID},
			ValidateExisting: true,
		})
		require.NoError(t, err)

		assert.True(t, result.Success)
		assert.Equal(t, 4, result.TotalRequested)
		assert.Equal(t, 2, result.SuccessfulCount)
		assert.Len(t, result.InvoiceNumbers, 2)
		require.Len(t, result.Errors, 2)

		codes := map[string]string{}
		for _, itemErr := range result.Errors {
			codes[itemErr.ItemID] = itemErr.Code
		}
		assert.Equal(t, "CUSTOMER_NOT_FOUND", codes[unknown.String()])
		assert.Equal(t, "NO_BILLABLE_SALES", codes[noSales.ID.String()])

		log, err := f.logs.FindByID(ctx, result.LogID)
		require.NoError(t, err)
		assert.Equal(t, bulk.OperationStatusCompletedWithErrors, log.Status)
		assert.Equal(t, 2, log.SuccessfulItems)
		assert.Equal(t, 2, log.FailedItems)
		assert.Len(t, log.ErrorDetails, 2)
	})

	t.Run("clean batch finalizes as completed", func(t *testing.T) {
		f := newFixture()
		customer := f.addCustomer("0")
		f.addCreditSale(customer.ID, periodStart.AddDate(0, 0, 1), "100")

		svc := f.bulkService(nil)
		result, err := svc.GenerateBulkInvoices(ctx, BulkGenerateRequest{
			PeriodStart: periodStart,
			PeriodEnd:   periodEnd,
			CustomerIDs: []uuid.UUID{customer.ID},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, result.SuccessfulCount)
		assert.Empty(t, result.Errors)

		log, err := f.logs.FindByID(ctx, result.LogID)
		require.NoError(t, err)
		assert.Equal(t, bulk.OperationStatusCompleted, log.Status)
	})

	t.Run("storage failure aborts the batch with zero successes", func(t *testing.T) {
		f := newFixture()
		good := f.addCustomer("0")
		f.addCreditSale(good.ID, periodStart.AddDate(0, 0, 1), "100")
		svc := f.bulkService(nil)

		// the store dies before the first item
		f.scope.fail = errors.New("connection refused")

		result, err := svc.GenerateBulkInvoices(ctx, BulkGenerateRequest{
			PeriodStart: periodStart,
			PeriodEnd:   periodEnd,
			CustomerIDs: []uuid.UUID{good.ID, uuid.New()},
		})
		require.NoError(t, err)

		assert.False(t, result.Success)
		assert.Equal(t, 0, result.SuccessfulCount)
		assert.Empty(t, result.Errors)
		assert.Empty(t, result.InvoiceNumbers)
		require.NotNil(t, result.Error)
		assert.Equal(t, shared.CodeInternal, result.Error.Code)

		log, logErr := f.logs.FindByID(ctx, result.LogID)
		require.NoError(t, logErr)
		assert.Equal(t, bulk.OperationStatusFailed, log.Status)
	})

	t.Run("render failures are retried and never undo ledger work", func(t *testing.T) {
		f := newFixture()
		customer := f.addCustomer("0")
		f.addCreditSale(customer.ID, periodStart.AddDate(0, 0, 1), "100")

		renderer := &flakyRenderer{failCount: 2}
		svc := f.bulkService(renderer)
		var backoffs []time.Duration
		svc.sleep = func(d time.Duration) { backoffs = append(backoffs, d) }

		result, err := svc.GenerateBulkInvoices(ctx, BulkGenerateRequest{
			PeriodStart: periodStart,
			PeriodEnd:   periodEnd,
			CustomerIDs: []uuid.UUID{customer.ID},
		})
		require.NoError(t, err)

		assert.Equal(t, 1, result.SuccessfulCount)
		assert.Empty(t, result.RenderErrors, "third attempt succeeded")
		assert.Equal(t, 3, renderer.calls)
		assert.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second}, backoffs)
	})

	t.Run("exhausted render retries are reported separately", func(t *testing.T) {
		f := newFixture()
		customer := f.addCustomer("0")
		f.addCreditSale(customer.ID, periodStart.AddDate(0, 0, 1), "100")

		renderer := &flakyRenderer{failCount: 10}
		svc := f.bulkService(renderer)

		result, err := svc.GenerateBulkInvoices(ctx, BulkGenerateRequest{
			PeriodStart: periodStart,
			PeriodEnd:   periodEnd,
			CustomerIDs: []uuid.UUID{customer.ID},
		})
		require.NoError(t, err)

		assert.True(t, result.Success, "ledger batch succeeded regardless of rendering")
		assert.Equal(t, 1, result.SuccessfulCount)
		assert.Equal(t, 3, renderer.calls)
		require.Len(t, result.RenderErrors, 1)
		assert.Equal(t, result.InvoiceNumbers[0], result.RenderErrors[0].ItemID)

		log, logErr := f.logs.FindByID(ctx, result.LogID)
		require.NoError(t, logErr)
		assert.Equal(t, bulk.OperationStatusCompleted, log.Status,
			"render failures do not taint the ledger outcome")
	})
}

func TestDeleteBulkInvoices(t *testing.T) {
	ctx := context.Background()
	periodStart := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	periodEnd := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	clock := pinnedClock(time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC))

	setup := func(f *fixture) (deletable, paid *billing.Invoice) {
		customerA := f.addCustomer("0")
		f.addCreditSale(customerA.ID, periodStart.AddDate(0, 0, 1), "100")
		customerB := f.addCustomer("0")
		f.addCreditSale(customerB.ID, periodStart.AddDate(0, 0, 2), "80")

		svc := f.invoiceService().WithClock(clock)
		var err error
		deletable, err = svc.GenerateInvoice(ctx, customerA.ID, periodStart, periodEnd, true)
		if err != nil {
			panic(err)
		}
		paid, err = svc.GenerateInvoice(ctx, customerB.ID, periodStart, periodEnd, true)
		if err != nil {
			panic(err)
		}

		_, err = f.paymentService().CreatePayment(ctx, CreatePaymentRequest{
			CustomerID: customerB.ID,
			Amount:     decimal.NewFromInt(80),
			Method:     billing.PaymentMethodCash,
			Allocations: []AllocationRequest{
				{TargetType: billing.AllocationTargetInvoice, TargetID: &paid.ID, Amount: decimal.NewFromInt(80)},
			},
		})
		if err != nil {
			panic(err)
		}
		return deletable, paid
	}

	t.Run("partial success across deletable and paid invoices", func(t *testing.T) {
		f := newFixture()
		deletable, paid := setup(f)

		svc := f.bulkService(nil)
		result, err := svc.DeleteBulkInvoices(ctx, BulkDeleteRequest{
			InvoiceIDs:       []uuid.UUID{deletable.ID, paid.ID, uuid.New()},
			ValidatePayments: true,
		})
		require.NoError(t, err)

		assert.True(t, result.Success)
		assert.Equal(t, 1, result.SuccessfulCount)
		assert.Equal(t, []string{deletable.InvoiceNumber}, result.DeletedNumbers)
		require.Len(t, result.Errors, 2)

		codes := map[string]string{}
		for _, itemErr := range result.Errors {
			codes[itemErr.ItemID] = itemErr.Code
		}
		assert.Equal(t, "INVOICE_HAS_PAYMENTS", codes[paid.ID.String()])

		assert.True(t, deletable.IsDeleted())
		assert.False(t, paid.IsDeleted())

		log, logErr := f.logs.FindByID(ctx, result.LogID)
		require.NoError(t, logErr)
		assert.Equal(t, bulk.OperationStatusCompletedWithErrors, log.Status)
	})

	t.Run("allocation guard still holds when validation flag is off", func(t *testing.T) {
		f := newFixture()
		_, paid := setup(f)

		svc := f.bulkService(nil)
		result, err := svc.DeleteBulkInvoices(ctx, BulkDeleteRequest{
			InvoiceIDs:       []uuid.UUID{paid.ID},
			ValidatePayments: false,
		})
		require.NoError(t, err)
		assert.Equal(t, 0, result.SuccessfulCount)
		require.Len(t, result.Errors, 1)
		assert.Equal(t, "INVOICE_HAS_PAYMENTS", result.Errors[0].Code)
		assert.False(t, paid.IsDeleted())
	})

	t.Run("storage failure aborts with a single top-level error", func(t *testing.T) {
		f := newFixture()
		deletable, _ := setup(f)

		svc := f.bulkService(nil)
		f.scope.fail = errors.New("connection reset")

		result, err := svc.DeleteBulkInvoices(ctx, BulkDeleteRequest{
			InvoiceIDs: []uuid.UUID{deletable.ID},
		})
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, 0, result.SuccessfulCount)
		assert.Empty(t, result.DeletedNumbers)
		require.NotNil(t, result.Error)
		assert.Equal(t, shared.CodeInternal, result.Error.Code)
	})
}
