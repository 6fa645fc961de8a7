package partner

import (
	"context"

	"github.com/dairybooks/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CustomerRepository defines persistence operations for customers.
//
// FindByIDForUpdate must take a row-level lock (SELECT ... FOR UPDATE) on the
// customer row and therefore only makes sense inside a transaction scope; the
// lock is what serializes concurrent opening-balance allocations against the
// same customer.
type CustomerRepository interface {
	Create(ctx context.Context, customer *Customer) error
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Customer, error)
	FindByCode(ctx context.Context, code string) (*Customer, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]*Customer, int64, error)
	Save(ctx context.Context, customer *Customer) error
	UpdateOutstandingAmount(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error
	Delete(ctx context.Context, id uuid.UUID) error
}
