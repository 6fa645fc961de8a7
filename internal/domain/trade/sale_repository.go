package trade

import (
	"context"
	"time"

	"github.com/dairybooks/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// SaleRepository defines persistence operations for sales.
//
// FindByIDForUpdate takes a row-level lock on the sale row; allocation against
// a sale and billing-status flips go through it inside a transaction scope.
type SaleRepository interface {
	Create(ctx context.Context, sale *Sale) error
	FindByID(ctx context.Context, id uuid.UUID) (*Sale, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Sale, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*Sale, error)
	// FindBillableByCustomer returns the customer's Pending credit sales whose
	// sale date falls inside [periodStart, periodEnd].
	FindBillableByCustomer(ctx context.Context, customerID uuid.UUID, periodStart, periodEnd time.Time) ([]*Sale, error)
	// FindByCustomerAndDateRange returns all of the customer's sales dated
	// inside [periodStart, periodEnd], regardless of payment status.
	FindByCustomerAndDateRange(ctx context.Context, customerID uuid.UUID, periodStart, periodEnd time.Time) ([]*Sale, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]*Sale, int64, error)
	Save(ctx context.Context, sale *Sale) error
	// UpdatePaymentStatus updates payment_status for all given sales in one statement.
	UpdatePaymentStatus(ctx context.Context, ids []uuid.UUID, status SalePaymentStatus) error
}
