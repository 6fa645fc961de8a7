package billing

import (
	"context"

	"github.com/dairybooks/backend/internal/domain/billing"
	"github.com/dairybooks/backend/internal/domain/partner"
	"github.com/dairybooks/backend/internal/domain/trade"
)

// TransactionScope provides transactional access to the ledger repositories.
// When a function is executed within a transaction scope, all repository
// operations are part of the same database transaction and commit or roll back
// atomically. Row locks taken through the ForUpdate finders are held until the
// scope commits.
//
// Implementations must bound lock waits and surface an exceeded wait as
// shared.ErrLockTimeout rather than blocking indefinitely.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the ledger repositories within
// a transaction. All repositories returned share the same underlying database
// transaction.
type TransactionalRepositories interface {
	Customers() partner.CustomerRepository
	Sales() trade.SaleRepository
	Invoices() billing.InvoiceRepository
	Payments() billing.PaymentRepository
	Allocations() billing.PaymentAllocationRepository
	Mappings() billing.InvoiceSalesMappingRepository
	Sequences() billing.InvoiceSequenceRepository
}
