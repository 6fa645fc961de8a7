package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	appbilling "github.com/dairybooks/backend/internal/application/billing"
	"github.com/dairybooks/backend/internal/domain/billing"
	"github.com/dairybooks/backend/internal/domain/partner"
	"github.com/dairybooks/backend/internal/domain/shared"
	"github.com/dairybooks/backend/internal/domain/trade"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// Each Execute call runs in one database transaction with a bounded
// lock_timeout, so a row lock held by a competing allocation surfaces as
// shared.ErrLockTimeout instead of blocking the request indefinitely.
type GormTransactionScope struct {
	db          *gorm.DB
	lockTimeout time.Duration
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB, lockTimeout time.Duration) *GormTransactionScope {
	return &GormTransactionScope{db: db, lockTimeout: lockTimeout}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appbilling.TransactionalRepositories) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if s.lockTimeout > 0 {
			// SET LOCAL scopes the timeout to this transaction only.
			stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.lockTimeout.Milliseconds())
			if err := tx.Exec(stmt).Error; err != nil {
				return err
			}
		}
		return fn(&gormTransactionalRepositories{tx: tx})
	})
	return mapLockError(err)
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// Customers returns the customer repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Customers() partner.CustomerRepository {
	return NewGormCustomerRepository(r.tx)
}

// Sales returns the sale repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Sales() trade.SaleRepository {
	return NewGormSaleRepository(r.tx)
}

// Invoices returns the invoice repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Invoices() billing.InvoiceRepository {
	return NewGormInvoiceRepository(r.tx)
}

// Payments returns the payment repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Payments() billing.PaymentRepository {
	return NewGormPaymentRepository(r.tx)
}

// Allocations returns the allocation repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Allocations() billing.PaymentAllocationRepository {
	return NewGormPaymentAllocationRepository(r.tx)
}

// Mappings returns the invoice-sales mapping repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Mappings() billing.InvoiceSalesMappingRepository {
	return NewGormInvoiceSalesMappingRepository(r.tx)
}

// Sequences returns the invoice sequence repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Sequences() billing.InvoiceSequenceRepository {
	return NewGormInvoiceSequenceRepository(r.tx)
}

// lockNotAvailable is the SQLSTATE postgres raises when lock_timeout expires.
const lockNotAvailable = "55P03"

// mapLockError translates a postgres lock_not_available failure into the
// domain lock timeout error.
func mapLockError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == lockNotAvailable {
		return shared.ErrLockTimeout
	}
	return err
}

// Ensure GormTransactionScope implements TransactionScope
var _ appbilling.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appbilling.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
