package billing

import (
	"context"
	"fmt"

	"github.com/dairybooks/backend/internal/domain/billing"
	"github.com/dairybooks/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReconcilerService recomputes each payment's applied/unapplied split from the
// allocation rows, the single source of truth, and repairs any drift in the
// cached figures. Both passes are idempotent: running them twice in a row
// changes nothing the second time.
type ReconcilerService struct {
	scope    TransactionScope
	payments billing.PaymentRepository
	logger   *zap.Logger
}

// NewReconcilerService creates a new ReconcilerService.
func NewReconcilerService(scope TransactionScope, payments billing.PaymentRepository, logger *zap.Logger) *ReconcilerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconcilerService{scope: scope, payments: payments, logger: logger}
}

// MaintainForPayment resyncs one payment from its allocation rows. Invoked
// after any mutation touching the payment's allocations.
func (s *ReconcilerService) MaintainForPayment(ctx context.Context, paymentID uuid.UUID) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		_, err := s.reconcileOne(ctx, repos, paymentID)
		return err
	})
}

// MaintainUnappliedPayments resyncs every payment from its allocation rows.
func (s *ReconcilerService) MaintainUnappliedPayments(ctx context.Context) (*ReconcileResult, error) {
	return s.reconcileAll(ctx)
}

// FixUnappliedPaymentsInconsistencies is the on-demand repair pass; identical
// in effect to MaintainUnappliedPayments and safe to run at any time.
func (s *ReconcilerService) FixUnappliedPaymentsInconsistencies(ctx context.Context) (*ReconcileResult, error) {
	result, err := s.reconcileAll(ctx)
	if err != nil {
		return nil, err
	}
	if result.RepairedPayments > 0 {
		s.logger.Warn("repaired drifted payments",
			zap.Int("checked", result.CheckedPayments),
			zap.Int("repaired", result.RepairedPayments))
	}
	return result, nil
}

func (s *ReconcilerService) reconcileAll(ctx context.Context) (*ReconcileResult, error) {
	ids, err := s.payments.FindAllIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}

	result := &ReconcileResult{}
	for _, id := range ids {
		// one transaction per payment keeps lock footprints small and lets a
		// partially complete pass leave every visited payment consistent
		err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			repaired, err := s.reconcileOne(ctx, repos, id)
			if err != nil {
				return err
			}
			result.CheckedPayments++
			if repaired {
				result.RepairedPayments++
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (s *ReconcilerService) reconcileOne(ctx context.Context, repos TransactionalRepositories, paymentID uuid.UUID) (bool, error) {
	payment, err := repos.Payments().FindByIDForUpdate(ctx, paymentID)
	if err != nil {
		if shared.IsNotFound(err) {
			return false, err
		}
		return false, fmt.Errorf("lock payment: %w", err)
	}

	applied, err := repos.Allocations().SumByPayment(ctx, paymentID)
	if err != nil {
		return false, fmt.Errorf("sum allocations: %w", err)
	}

	if payment.AmountApplied.Equal(applied) {
		return false, nil
	}

	s.logger.Info("payment drift detected",
		zap.String("payment_id", paymentID.String()),
		zap.String("cached_applied", payment.AmountApplied.StringFixed(2)),
		zap.String("actual_applied", applied.StringFixed(2)))

	payment.SetApplied(applied)
	if err := repos.Payments().Save(ctx, payment); err != nil {
		return false, fmt.Errorf("save payment: %w", err)
	}
	return true, nil
}
