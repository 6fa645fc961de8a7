package scheduler

import (
	"context"

	"go.uber.org/zap"

	appbilling "github.com/dairybooks/backend/internal/application/billing"
	"github.com/dairybooks/backend/internal/infrastructure/config"
)

// Job names, also accepted by DailyTrigger.RunJobNow.
const (
	JobReconcileUnapplied = "reconcile-unapplied-payments"
	JobMarkOverdue        = "mark-overdue-invoices"
)

// PaymentReconciler recomputes unapplied amounts across the payments table.
type PaymentReconciler interface {
	FixUnappliedPaymentsInconsistencies(ctx context.Context) (*appbilling.ReconcileResult, error)
}

// OverdueMarker flips unpaid invoices past their due date to overdue.
type OverdueMarker interface {
	MarkOverdueInvoices(ctx context.Context) (int, error)
}

// NewLedgerTrigger builds the daily trigger for ledger maintenance: the
// unapplied-payments reconciliation pass and the overdue invoice marking
// pass, each at its configured time. Returns nil when scheduling is
// disabled in configuration.
func NewLedgerTrigger(cfg *config.SchedulerConfig, reconciler PaymentReconciler, invoices OverdueMarker, logger *zap.Logger) (*DailyTrigger, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	triggerConfig := DefaultDailyTriggerConfig()
	if cfg.CheckInterval > 0 {
		triggerConfig.CheckInterval = cfg.CheckInterval
	}
	if cfg.JobTimeout > 0 {
		triggerConfig.JobTimeout = cfg.JobTimeout
	}

	jobs := []DailyJob{
		{
			Name:   JobReconcileUnapplied,
			Hour:   cfg.ReconcileHour,
			Minute: cfg.ReconcileMinute,
			Run: func(ctx context.Context) error {
				result, err := reconciler.FixUnappliedPaymentsInconsistencies(ctx)
				if err != nil {
					return err
				}
				logger.Info("Reconciliation pass complete",
					zap.Int("checked_payments", result.CheckedPayments),
					zap.Int("repaired_payments", result.RepairedPayments),
				)
				return nil
			},
		},
		{
			Name:   JobMarkOverdue,
			Hour:   cfg.OverdueHour,
			Minute: cfg.OverdueMinute,
			Run: func(ctx context.Context) error {
				marked, err := invoices.MarkOverdueInvoices(ctx)
				if err != nil {
					return err
				}
				if marked > 0 {
					logger.Info("Overdue marking pass complete", zap.Int("marked", marked))
				}
				return nil
			},
		},
	}

	return NewDailyTrigger(triggerConfig, jobs, logger)
}
