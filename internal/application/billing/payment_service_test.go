package billing

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dairybooks/backend/internal/domain/billing"
	"github.com/dairybooks/backend/internal/domain/shared"
	"github.com/dairybooks/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePayment(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects non-positive amount before any write", func(t *testing.T) {
		f := newFixture()
		customer := f.addCustomer("0")

		_, err := f.paymentService().CreatePayment(ctx, CreatePaymentRequest{
			CustomerID: customer.ID,
			Amount:     decimal.Zero,
			Method:     billing.PaymentMethodCash,
		})
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeInvalidAmount))
		assert.Empty(t, f.payments.items)
	})

	t.Run("rejects allocations exceeding the payment amount", func(t *testing.T) {
		f := newFixture()
		customer := f.addCustomer("0")
		invoiceID := uuid.New()

		_, err := f.paymentService().CreatePayment(ctx, CreatePaymentRequest{
			CustomerID: customer.ID,
			Amount:     decimal.NewFromInt(100),
			Method:     billing.PaymentMethodCash,
			Allocations: []AllocationRequest{
				{TargetType: billing.AllocationTargetInvoice, TargetID: &invoiceID, Amount: decimal.NewFromInt(80)},
				{TargetType: billing.AllocationTargetInvoice, TargetID: &invoiceID, Amount: decimal.NewFromInt(45)},
			},
		})
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeValidationFailed))

		de := err.(*shared.DomainError)
		detail, ok := de.Detail.(map[string]string)
		require.True(t, ok)
		assert.Equal(t, "25.00", detail["excess_amount"])
		assert.Empty(t, f.payments.items)
	})

	t.Run("unknown customer", func(t *testing.T) {
		f := newFixture()

		_, err := f.paymentService().CreatePayment(ctx, CreatePaymentRequest{
			CustomerID: uuid.New(),
			Amount:     decimal.NewFromInt(50),
			Method:     billing.PaymentMethodUPI,
		})
		assert.ErrorIs(t, err, shared.ErrCustomerNotFound)
	})

	t.Run("payment without allocations stays unapplied", func(t *testing.T) {
		f := newFixture()
		customer := f.addCustomer("0")

		payment, err := f.paymentService().CreatePayment(ctx, CreatePaymentRequest{
			CustomerID: customer.ID,
			Amount:     decimal.NewFromInt(250),
			Method:     billing.PaymentMethodCash,
			Reference:  "RCPT-001",
		})
		require.NoError(t, err)
		assert.Equal(t, billing.AllocationStatusUnapplied, payment.AllocationStatus)
		assert.True(t, payment.AmountUnapplied.Equal(decimal.NewFromInt(250)))
		assert.Equal(t, "RCPT-001", payment.Reference)
	})

	t.Run("applies mixed targets in caller order", func(t *testing.T) {
		f := newFixture()
		customer := f.addCustomer("300")
		periodStart := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
		periodEnd := time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC)
		invoice := f.addInvoice(customer.ID, "20262700001", "500", periodStart, periodEnd)

		payment, err := f.paymentService().CreatePayment(ctx, CreatePaymentRequest{
			CustomerID: customer.ID,
			Amount:     decimal.NewFromInt(700),
			Method:     billing.PaymentMethodBank,
			Allocations: []AllocationRequest{
				{TargetType: billing.AllocationTargetInvoice, TargetID: &invoice.ID, Amount: decimal.NewFromInt(500)},
				{TargetType: billing.AllocationTargetOpeningBalance, Amount: decimal.NewFromInt(200)},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, billing.AllocationStatusFullyApplied, payment.AllocationStatus)
		assert.True(t, payment.AmountApplied.Equal(decimal.NewFromInt(700)))

		assert.Equal(t, billing.InvoiceStatusPaid, invoice.Status)
		assert.True(t, invoice.AmountPaid.Equal(decimal.NewFromInt(500)))

		obSum, err := f.allocs.SumOpeningBalanceByCustomer(ctx, customer.ID)
		require.NoError(t, err)
		assert.True(t, obSum.Equal(decimal.NewFromInt(200)))
	})

	t.Run("settles a fully paid ad-hoc sale", func(t *testing.T) {
		f := newFixture()
		customer := f.addCustomer("0")
		sale := f.addCreditSale(customer.ID, time.Now(), "120")

		payment, err := f.paymentService().CreatePayment(ctx, CreatePaymentRequest{
			CustomerID: customer.ID,
			Amount:     decimal.NewFromInt(120),
			Method:     billing.PaymentMethodCash,
			Allocations: []AllocationRequest{
				{TargetType: billing.AllocationTargetSale, TargetID: &sale.ID, Amount: decimal.NewFromInt(120)},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, billing.AllocationStatusFullyApplied, payment.AllocationStatus)
		assert.Equal(t, trade.SalePaymentStatusCompleted, sale.PaymentStatus)
	})

	t.Run("rejects allocation to another customer's invoice", func(t *testing.T) {
		f := newFixture()
		payer := f.addCustomer("0")
		other := f.addCustomer("0")
		invoice := f.addInvoice(other.ID, "20262700002", "100",
			time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC))

		_, err := f.paymentService().CreatePayment(ctx, CreatePaymentRequest{
			CustomerID: payer.ID,
			Amount:     decimal.NewFromInt(100),
			Method:     billing.PaymentMethodCash,
			Allocations: []AllocationRequest{
				{TargetType: billing.AllocationTargetInvoice, TargetID: &invoice.ID, Amount: decimal.NewFromInt(100)},
			},
		})
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeValidationFailed))
	})
}

func TestAllocateOpeningBalanceAtomic(t *testing.T) {
	ctx := context.Background()

	t.Run("caps allocation at the remaining balance", func(t *testing.T) {
		f := newFixture()
		customer := f.addCustomer("1000")
		payment := f.addPayment(customer.ID, "1200")

		result, err := f.paymentService().AllocateOpeningBalanceAtomic(ctx, payment.ID, customer.ID, decimal.NewFromInt(1200))
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.True(t, result.AllocatedAmount.Equal(decimal.NewFromInt(1000)),
			"allocated %s", result.AllocatedAmount)
		assert.True(t, result.RemainingOpeningBalance.IsZero())
		assert.Equal(t, billing.AllocationStatusPartiallyApplied, result.PaymentStatus)
		assert.True(t, payment.AmountUnapplied.Equal(decimal.NewFromInt(200)))
	})

	t.Run("exact allocation fully applies the payment", func(t *testing.T) {
		f := newFixture()
		customer := f.addCustomer("500")
		payment := f.addPayment(customer.ID, "500")

		result, err := f.paymentService().AllocateOpeningBalanceAtomic(ctx, payment.ID, customer.ID, decimal.NewFromInt(500))
		require.NoError(t, err)
		assert.Equal(t, billing.AllocationStatusFullyApplied, result.PaymentStatus)
		assert.True(t, result.RemainingOpeningBalance.IsZero())
	})

	t.Run("exhausted balance is NO_OPENING_BALANCE", func(t *testing.T) {
		f := newFixture()
		customer := f.addCustomer("300")
		first := f.addPayment(customer.ID, "300")
		second := f.addPayment(customer.ID, "100")

		_, err := f.paymentService().AllocateOpeningBalanceAtomic(ctx, first.ID, customer.ID, decimal.NewFromInt(300))
		require.NoError(t, err)

		_, err = f.paymentService().AllocateOpeningBalanceAtomic(ctx, second.ID, customer.ID, decimal.NewFromInt(100))
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, "NO_OPENING_BALANCE"))
	})

	t.Run("zero opening balance is NO_OPENING_BALANCE", func(t *testing.T) {
		f := newFixture()
		customer := f.addCustomer("0")
		payment := f.addPayment(customer.ID, "100")

		_, err := f.paymentService().AllocateOpeningBalanceAtomic(ctx, payment.ID, customer.ID, decimal.NewFromInt(100))
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, "NO_OPENING_BALANCE"))
	})

	t.Run("payment of another customer is rejected", func(t *testing.T) {
		f := newFixture()
		customer := f.addCustomer("500")
		other := f.addCustomer("500")
		payment := f.addPayment(other.ID, "100")

		_, err := f.paymentService().AllocateOpeningBalanceAtomic(ctx, payment.ID, customer.ID, decimal.NewFromInt(100))
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeValidationFailed))
	})

	t.Run("unknown payment", func(t *testing.T) {
		f := newFixture()
		customer := f.addCustomer("500")

		_, err := f.paymentService().AllocateOpeningBalanceAtomic(ctx, uuid.New(), customer.ID, decimal.NewFromInt(100))
		assert.ErrorIs(t, err, shared.ErrPaymentNotFound)
		// the repository error must surface unwrapped so handlers can
		// dispatch on its code
		assert.True(t, shared.IsCode(err, "PAYMENT_NOT_FOUND"))
	})

	t.Run("concurrent allocations settle sequentially against the balance", func(t *testing.T) {
		f := newFixture()
		customer := f.addCustomer("500")
		first := f.addPayment(customer.ID, "400")
		second := f.addPayment(customer.ID, "400")
		svc := f.paymentService()

		results := make([]*OpeningBalanceAllocationResult, 2)
		errs := make([]error, 2)
		var wg sync.WaitGroup
		for i, p := range []uuid.UUID{first.ID, second.ID} {
			wg.Add(1)
			go func(i int, paymentID uuid.UUID) {
				defer wg.Done()
				results[i], errs[i] = svc.AllocateOpeningBalanceAtomic(ctx, paymentID, customer.ID, decimal.NewFromInt(400))
			}(i, p)
		}
		wg.Wait()

		require.NoError(t, errs[0])
		require.NoError(t, errs[1])
		total := results[0].AllocatedAmount.Add(results[1].AllocatedAmount)
		assert.True(t, total.Equal(decimal.NewFromInt(500)),
			"total allocated %s, want the full balance and nothing more", total)

		obSum, err := f.allocs.SumOpeningBalanceByCustomer(ctx, customer.ID)
		require.NoError(t, err)
		assert.True(t, obSum.Equal(decimal.NewFromInt(500)))
	})
}

func TestRollbackPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("reverts invoices and resets the payment", func(t *testing.T) {
		f := newFixture()
		customer := f.addCustomer("200")
		invoice := f.addInvoice(customer.ID, "20262700003", "400",
			time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC))

		payment, err := f.paymentService().CreatePayment(ctx, CreatePaymentRequest{
			CustomerID: customer.ID,
			Amount:     decimal.NewFromInt(600),
			Method:     billing.PaymentMethodCash,
			Allocations: []AllocationRequest{
				{TargetType: billing.AllocationTargetInvoice, TargetID: &invoice.ID, Amount: decimal.NewFromInt(400)},
				{TargetType: billing.AllocationTargetOpeningBalance, Amount: decimal.NewFromInt(200)},
			},
		})
		require.NoError(t, err)
		require.Equal(t, billing.InvoiceStatusPaid, invoice.Status)

		result, err := f.paymentService().RollbackPayment(ctx, payment.ID)
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, 1, result.AffectedInvoices)
		assert.True(t, result.ReleasedAmount.Equal(decimal.NewFromInt(600)))

		assert.Equal(t, billing.AllocationStatusUnapplied, payment.AllocationStatus)
		assert.True(t, payment.AmountApplied.IsZero())
		assert.True(t, invoice.AmountPaid.IsZero())
		assert.NotEqual(t, billing.InvoiceStatusPaid, invoice.Status)

		obSum, err := f.allocs.SumOpeningBalanceByCustomer(ctx, customer.ID)
		require.NoError(t, err)
		assert.True(t, obSum.IsZero(), "opening-balance allocations must be released")
	})

	t.Run("reverts a settled ad-hoc sale back to pending", func(t *testing.T) {
		f := newFixture()
		customer := f.addCustomer("0")
		sale := f.addCreditSale(customer.ID, time.Now(), "150")

		payment, err := f.paymentService().CreatePayment(ctx, CreatePaymentRequest{
			CustomerID: customer.ID,
			Amount:     decimal.NewFromInt(150),
			Method:     billing.PaymentMethodUPI,
			Allocations: []AllocationRequest{
				{TargetType: billing.AllocationTargetSale, TargetID: &sale.ID, Amount: decimal.NewFromInt(150)},
			},
		})
		require.NoError(t, err)
		require.Equal(t, trade.SalePaymentStatusCompleted, sale.PaymentStatus)

		result, err := f.paymentService().RollbackPayment(ctx, payment.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, result.AffectedInvoices)
		assert.Equal(t, trade.SalePaymentStatusPending, sale.PaymentStatus)
	})

	t.Run("keeps invoice-billed sales untouched", func(t *testing.T) {
		f := newFixture()
		customer := f.addCustomer("0")
		sale := f.addCreditSale(customer.ID, time.Now(), "90")
		sale.PaymentStatus = trade.SalePaymentStatusCompleted
		invoice := f.addInvoice(customer.ID, "20262700004", "90",
			time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC))
		mapping, err := billing.NewInvoiceSalesMapping(invoice.ID, sale.ID, trade.SalePaymentStatusBilled)
		require.NoError(t, err)
		require.NoError(t, f.mappings.Create(ctx, mapping))

		payment, err := f.paymentService().CreatePayment(ctx, CreatePaymentRequest{
			CustomerID: customer.ID,
			Amount:     decimal.NewFromInt(90),
			Method:     billing.PaymentMethodCash,
			Allocations: []AllocationRequest{
				{TargetType: billing.AllocationTargetSale, TargetID: &sale.ID, Amount: decimal.NewFromInt(90)},
			},
		})
		require.NoError(t, err)

		_, err = f.paymentService().RollbackPayment(ctx, payment.ID)
		require.NoError(t, err)
		assert.Equal(t, trade.SalePaymentStatusCompleted, sale.PaymentStatus,
			"mapped sales are governed by the invoice lifecycle, not payment rollback")
	})

	t.Run("unknown payment", func(t *testing.T) {
		f := newFixture()
		_, err := f.paymentService().RollbackPayment(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrPaymentNotFound)
	})
}
