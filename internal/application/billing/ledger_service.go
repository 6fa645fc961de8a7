package billing

import (
	"context"
	"fmt"

	"github.com/dairybooks/backend/internal/domain/billing"
	"github.com/dairybooks/backend/internal/domain/partner"
	"github.com/dairybooks/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LedgerService is the read-side ledger aggregator. It takes no locks; a
// computation may see a slightly stale snapshot while writers commit, but
// never a torn one (reads happen inside MVCC snapshots).
type LedgerService struct {
	customers   partner.CustomerRepository
	invoices    billing.InvoiceRepository
	allocations billing.PaymentAllocationRepository
	cache       OutstandingCache
	logger      *zap.Logger
}

// NewLedgerService creates a new LedgerService. cache may be nil.
func NewLedgerService(
	customers partner.CustomerRepository,
	invoices billing.InvoiceRepository,
	allocations billing.PaymentAllocationRepository,
	cache OutstandingCache,
	logger *zap.Logger,
) *LedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerService{
		customers:   customers,
		invoices:    invoices,
		allocations: allocations,
		cache:       cache,
		logger:      logger,
	}
}

// ComputeCustomerOutstanding returns the customer's outstanding view: the
// remaining opening balance, the unpaid remainder across live invoices, their
// total, and the reporting priority bucket. Served from cache when available.
func (s *LedgerService) ComputeCustomerOutstanding(ctx context.Context, customerID uuid.UUID) (*billing.CustomerOutstanding, error) {
	if s.cache != nil {
		if cached, ok, err := s.cache.Get(ctx, customerID); err != nil {
			s.logger.Warn("outstanding cache read failed", zap.Error(err))
		} else if ok {
			return cached, nil
		}
	}

	outstanding, err := s.computeFresh(ctx, customerID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, outstanding); err != nil {
			s.logger.Warn("outstanding cache write failed", zap.Error(err))
		}
	}
	return outstanding, nil
}

// RefreshOutstandingCache recomputes the customer's outstanding amount and
// persists it onto the customer row and the cache. Called after ledger
// mutations; losing the race with another refresh is harmless because both
// write derived data.
func (s *LedgerService) RefreshOutstandingCache(ctx context.Context, customerID uuid.UUID) (*billing.CustomerOutstanding, error) {
	outstanding, err := s.computeFresh(ctx, customerID)
	if err != nil {
		return nil, err
	}

	if err := s.customers.UpdateOutstandingAmount(ctx, customerID, outstanding.TotalOutstanding); err != nil {
		return nil, fmt.Errorf("persist outstanding amount: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, outstanding); err != nil {
			s.logger.Warn("outstanding cache write failed", zap.Error(err))
		}
	}
	return outstanding, nil
}

// OutstandingReport computes the outstanding view for every customer with a
// non-zero balance, for the collection report. Buckets are keyed by priority.
func (s *LedgerService) OutstandingReport(ctx context.Context) (map[billing.OutstandingPriority][]billing.CustomerOutstanding, error) {
	filter := shared.DefaultFilter()
	filter.PageSize = 0 // unpaginated

	customers, _, err := s.customers.FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}

	report := make(map[billing.OutstandingPriority][]billing.CustomerOutstanding)
	for _, customer := range customers {
		outstanding, err := s.computeFresh(ctx, customer.ID)
		if err != nil {
			return nil, err
		}
		if outstanding.Priority == billing.OutstandingPriorityNone {
			continue
		}
		report[outstanding.Priority] = append(report[outstanding.Priority], *outstanding)
	}
	return report, nil
}

func (s *LedgerService) computeFresh(ctx context.Context, customerID uuid.UUID) (*billing.CustomerOutstanding, error) {
	customer, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, err
		}
		return nil, fmt.Errorf("load customer: %w", err)
	}

	openingAllocated, err := s.allocations.SumOpeningBalanceByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("sum opening-balance allocations: %w", err)
	}

	invoices, err := s.invoices.FindOutstandingByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("load outstanding invoices: %w", err)
	}

	outstanding := billing.ComputeOutstanding(customerID, customer.OpeningBalance, openingAllocated, invoices)
	return &outstanding, nil
}
