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

const defaultAllocationTimeout = 10 * time.Second

// PaymentService is the payment allocation engine. Every mutating operation
// runs in a single transaction scope and takes row locks on the targets it
// reads-then-writes, so concurrent allocations against the same customer or
// invoice serialize instead of double-spending.
type PaymentService struct {
	scope   TransactionScope
	cache   OutstandingCache
	logger  *zap.Logger
	timeout time.Duration
}

// NewPaymentService creates a new PaymentService. cache may be nil.
func NewPaymentService(scope TransactionScope, cache OutstandingCache, logger *zap.Logger) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{
		scope:   scope,
		cache:   cache,
		logger:  logger,
		timeout: defaultAllocationTimeout,
	}
}

// WithTimeout overrides the per-operation deadline.
func (s *PaymentService) WithTimeout(timeout time.Duration) *PaymentService {
	if timeout > 0 {
		s.timeout = timeout
	}
	return s
}

// CreatePayment records a payment and applies the requested allocations in
// caller order inside one transaction. Validation happens before any write:
// a non-positive amount is INVALID_AMOUNT, and allocations summing past the
// payment amount are VALIDATION_FAILED carrying the excess. Any failure while
// applying rolls the whole payment back.
func (s *PaymentService) CreatePayment(ctx context.Context, req CreatePaymentRequest) (*billing.Payment, error) {
	if req.Amount.IsNegative() || req.Amount.IsZero() {
		return nil, shared.NewDomainError(shared.CodeInvalidAmount, "Payment amount must be positive")
	}

	requested := decimal.Zero
	for _, alloc := range req.Allocations {
		if err := alloc.Target().Validate(); err != nil {
			return nil, err
		}
		if alloc.Amount.IsNegative() || alloc.Amount.IsZero() {
			return nil, shared.NewDomainError(shared.CodeInvalidAmount, "Allocation amount must be positive")
		}
		requested = requested.Add(alloc.Amount)
	}
	if requested.GreaterThan(req.Amount) {
		excess := requested.Sub(req.Amount)
		return nil, shared.NewDomainErrorf(shared.CodeValidationFailed,
			"Allocations exceed payment amount by %s", excess.StringFixed(2)).
			WithDetail(map[string]string{"excess_amount": excess.StringFixed(2)})
	}

	receivedAt := req.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = time.Now()
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var payment *billing.Payment
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		customer, err := repos.Customers().FindByID(ctx, req.CustomerID)
		if err != nil {
			if shared.IsNotFound(err) {
				return err
			}
			return fmt.Errorf("load customer: %w", err)
		}

		payment, err = billing.NewPayment(customer.ID, req.Amount, req.Method, receivedAt)
		if err != nil {
			return err
		}
		payment.Reference = req.Reference

		if err := repos.Payments().Create(ctx, payment); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}

		for _, alloc := range req.Allocations {
			if _, err := s.applyAllocation(ctx, repos, payment, alloc.Target(), alloc.Amount); err != nil {
				return err
			}
		}

		return repos.Payments().Save(ctx, payment)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateOutstanding(ctx, req.CustomerID)
	s.logger.Info("payment created",
		zap.String("payment_id", payment.ID.String()),
		zap.String("customer_id", payment.CustomerID.String()),
		zap.String("amount", payment.Amount.StringFixed(2)),
		zap.String("allocation_status", string(payment.AllocationStatus)))
	return payment, nil
}

// AllocateOpeningBalanceAtomic applies part of a payment against the
// customer's opening balance. The customer row is locked before the remaining
// balance is computed, so two concurrent calls settle as 400 then 100 against
// a 500 balance, never 400 and 400. Allocation is capped at the remaining
// balance; the capped amount is reported, not an error.
func (s *PaymentService) AllocateOpeningBalanceAtomic(ctx context.Context, paymentID, customerID uuid.UUID, amount decimal.Decimal) (*OpeningBalanceAllocationResult, error) {
	if amount.IsNegative() || amount.IsZero() {
		return nil, shared.NewDomainError(shared.CodeInvalidAmount, "Allocation amount must be positive")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var result *OpeningBalanceAllocationResult
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		payment, err := repos.Payments().FindByIDForUpdate(ctx, paymentID)
		if err != nil {
			if shared.IsNotFound(err) {
				return err
			}
			return fmt.Errorf("lock payment: %w", err)
		}
		if payment.CustomerID != customerID {
			return shared.NewDomainError(shared.CodeValidationFailed, "Payment does not belong to this customer")
		}

		customer, err := repos.Customers().FindByIDForUpdate(ctx, customerID)
		if err != nil {
			if shared.IsNotFound(err) {
				return err
			}
			return fmt.Errorf("lock customer: %w", err)
		}

		allocated, remaining, err := s.allocateOpeningBalance(ctx, repos, payment, customer.ID, customer.OpeningBalance, amount)
		if err != nil {
			return err
		}
		if err := repos.Payments().Save(ctx, payment); err != nil {
			return fmt.Errorf("save payment: %w", err)
		}

		result = &OpeningBalanceAllocationResult{
			Success:                 true,
			AllocatedAmount:         allocated,
			RemainingOpeningBalance: remaining,
			PaymentStatus:           payment.AllocationStatus,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateOutstanding(ctx, customerID)
	return result, nil
}

// RollbackPayment removes every allocation of the payment in one transaction:
// allocation rows are deleted, affected invoices get their amount_paid and
// status reverted, ad-hoc sales return to Pending, and the payment itself is
// reset to unapplied. Returns the number of invoices touched.
func (s *PaymentService) RollbackPayment(ctx context.Context, paymentID uuid.UUID) (*RollbackResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var result *RollbackResult
	var customerID uuid.UUID
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		payment, err := repos.Payments().FindByIDForUpdate(ctx, paymentID)
		if err != nil {
			if shared.IsNotFound(err) {
				return err
			}
			return fmt.Errorf("lock payment: %w", err)
		}
		customerID = payment.CustomerID

		allocations, err := repos.Allocations().FindByPayment(ctx, paymentID)
		if err != nil {
			return fmt.Errorf("load allocations: %w", err)
		}

		affectedInvoices := 0
		for _, alloc := range allocations {
			switch alloc.Target.Type {
			case billing.AllocationTargetInvoice:
				invoice, err := repos.Invoices().FindByIDForUpdate(ctx, *alloc.Target.TargetID)
				if err != nil {
					return fmt.Errorf("lock invoice %s: %w", alloc.Target.TargetID, err)
				}
				if err := invoice.RevertPayment(alloc.Amount); err != nil {
					return err
				}
				if err := repos.Invoices().Save(ctx, invoice); err != nil {
					return fmt.Errorf("save invoice: %w", err)
				}
				affectedInvoices++
			case billing.AllocationTargetSale:
				if err := s.revertSaleAllocation(ctx, repos, *alloc.Target.TargetID); err != nil {
					return err
				}
			case billing.AllocationTargetOpeningBalance:
				// nothing to revert beyond deleting the row; remaining opening
				// balance is always derived from the surviving allocations
			}
		}

		if _, err := repos.Allocations().DeleteByPayment(ctx, paymentID); err != nil {
			return fmt.Errorf("delete allocations: %w", err)
		}

		released := payment.AmountApplied
		payment.Reset()
		if err := repos.Payments().Save(ctx, payment); err != nil {
			return fmt.Errorf("save payment: %w", err)
		}

		result = &RollbackResult{
			Success:          true,
			AffectedInvoices: affectedInvoices,
			ReleasedAmount:   released,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateOutstanding(ctx, customerID)
	s.logger.Info("payment rolled back",
		zap.String("payment_id", paymentID.String()),
		zap.Int("affected_invoices", result.AffectedInvoices))
	return result, nil
}

// applyAllocation dispatches one allocation on the target tag, locking the
// target row before sizing the write. Returns the amount actually allocated.
func (s *PaymentService) applyAllocation(ctx context.Context, repos TransactionalRepositories, payment *billing.Payment, target billing.AllocationTarget, amount decimal.Decimal) (decimal.Decimal, error) {
	switch target.Type {
	case billing.AllocationTargetInvoice:
		return amount, s.allocateToInvoice(ctx, repos, payment, *target.TargetID, amount)
	case billing.AllocationTargetSale:
		return amount, s.allocateToSale(ctx, repos, payment, *target.TargetID, amount)
	case billing.AllocationTargetOpeningBalance:
		customer, err := repos.Customers().FindByIDForUpdate(ctx, payment.CustomerID)
		if err != nil {
			if shared.IsNotFound(err) {
				return decimal.Zero, err
			}
			return decimal.Zero, fmt.Errorf("lock customer: %w", err)
		}
		allocated, _, err := s.allocateOpeningBalance(ctx, repos, payment, customer.ID, customer.OpeningBalance, amount)
		return allocated, err
	default:
		return decimal.Zero, shared.NewDomainErrorf("INVALID_TARGET_TYPE", "Unknown allocation target type %q", target.Type)
	}
}

func (s *PaymentService) allocateToInvoice(ctx context.Context, repos TransactionalRepositories, payment *billing.Payment, invoiceID uuid.UUID, amount decimal.Decimal) error {
	invoice, err := repos.Invoices().FindByIDForUpdate(ctx, invoiceID)
	if err != nil {
		if shared.IsNotFound(err) {
			return err
		}
		return fmt.Errorf("lock invoice: %w", err)
	}
	if invoice.CustomerID != payment.CustomerID {
		return shared.NewDomainError(shared.CodeValidationFailed, "Invoice belongs to a different customer")
	}
	if err := payment.Apply(amount); err != nil {
		return err
	}
	if err := invoice.ApplyPayment(amount); err != nil {
		return err
	}
	allocation, err := billing.NewPaymentAllocation(payment.ID, billing.InvoiceTarget(invoiceID), amount)
	if err != nil {
		return err
	}
	if err := repos.Allocations().Create(ctx, allocation); err != nil {
		return fmt.Errorf("create allocation: %w", err)
	}
	return repos.Invoices().Save(ctx, invoice)
}

func (s *PaymentService) allocateToSale(ctx context.Context, repos TransactionalRepositories, payment *billing.Payment, saleID uuid.UUID, amount decimal.Decimal) error {
	sale, err := repos.Sales().FindByIDForUpdate(ctx, saleID)
	if err != nil {
		if shared.IsNotFound(err) {
			return err
		}
		return fmt.Errorf("lock sale: %w", err)
	}
	if sale.CustomerID == nil || *sale.CustomerID != payment.CustomerID {
		return shared.NewDomainError(shared.CodeValidationFailed, "Sale belongs to a different customer")
	}
	if err := payment.Apply(amount); err != nil {
		return err
	}
	allocation, err := billing.NewPaymentAllocation(payment.ID, billing.SaleTarget(saleID), amount)
	if err != nil {
		return err
	}
	if err := repos.Allocations().Create(ctx, allocation); err != nil {
		return fmt.Errorf("create allocation: %w", err)
	}
	// an ad-hoc sale paid in full is settled
	if amount.Equal(sale.TotalAmount) && sale.PaymentStatus == trade.SalePaymentStatusPending {
		sale.PaymentStatus = trade.SalePaymentStatusCompleted
		return repos.Sales().Save(ctx, sale)
	}
	return nil
}

// allocateOpeningBalance computes the remaining opening balance under the
// already-held customer lock and writes the capped allocation.
func (s *PaymentService) allocateOpeningBalance(ctx context.Context, repos TransactionalRepositories, payment *billing.Payment, customerID uuid.UUID, openingBalance, amount decimal.Decimal) (allocated, remaining decimal.Decimal, err error) {
	alreadyAllocated, err := repos.Allocations().SumOpeningBalanceByCustomer(ctx, customerID)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("sum opening-balance allocations: %w", err)
	}

	available := openingBalance.Sub(alreadyAllocated)
	if available.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, decimal.Zero, shared.NewDomainError("NO_OPENING_BALANCE",
			"Customer has no remaining opening balance")
	}

	allocated = decimal.Min(amount, available)
	if err := payment.Apply(allocated); err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	allocation, err := billing.NewPaymentAllocation(payment.ID, billing.OpeningBalanceTarget(), allocated)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	if err := repos.Allocations().Create(ctx, allocation); err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("create allocation: %w", err)
	}

	return allocated, available.Sub(allocated), nil
}

// revertSaleAllocation undoes the settled flag on an ad-hoc sale when the
// paying allocation is rolled back. Sales billed through an invoice keep
// their status; the invoice mapping governs those.
func (s *PaymentService) revertSaleAllocation(ctx context.Context, repos TransactionalRepositories, saleID uuid.UUID) error {
	sale, err := repos.Sales().FindByIDForUpdate(ctx, saleID)
	if err != nil {
		if shared.IsNotFound(err) {
			return err
		}
		return fmt.Errorf("lock sale: %w", err)
	}
	mappings, err := repos.Mappings().FindBySale(ctx, saleID)
	if err != nil {
		return fmt.Errorf("load sale mappings: %w", err)
	}
	if len(mappings) == 0 && sale.PaymentStatus == trade.SalePaymentStatusCompleted {
		sale.RevertToPending()
		return repos.Sales().Save(ctx, sale)
	}
	return nil
}

func (s *PaymentService) invalidateOutstanding(ctx context.Context, customerID uuid.UUID) {
	if s.cache == nil || customerID == uuid.Nil {
		return
	}
	if err := s.cache.Invalidate(context.WithoutCancel(ctx), customerID); err != nil {
		s.logger.Warn("failed to invalidate outstanding cache",
			zap.String("customer_id", customerID.String()), zap.Error(err))
	}
}
