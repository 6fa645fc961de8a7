package partner

import (
	"strings"

	"github.com/dairybooks/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CustomerStatus represents the status of a customer
type CustomerStatus string

const (
	CustomerStatusActive   CustomerStatus = "active"
	CustomerStatusInactive CustomerStatus = "inactive" // Stopped deliveries, ledger retained
)

// Customer is the aggregate root for a dairy customer. OpeningBalance is the
// legacy pre-system debt; it is reduced only by explicit opening-balance
// allocations. OutstandingAmount is a cached figure maintained by the ledger
// aggregator and is never authoritative on its own.
type Customer struct {
	shared.BaseEntity
	Code              string
	Name              string
	Phone             string
	Address           string
	Route             string // delivery route tag used for grouping
	Status            CustomerStatus
	OpeningBalance    decimal.Decimal
	OutstandingAmount decimal.Decimal
}

// NewCustomer creates a new customer with a validated name and code.
func NewCustomer(code, name string, openingBalance decimal.Decimal) (*Customer, error) {
	code = strings.TrimSpace(code)
	name = strings.TrimSpace(name)
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Customer code cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Customer name cannot be empty")
	}
	if openingBalance.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeInvalidAmount, "Opening balance cannot be negative")
	}
	return &Customer{
		BaseEntity:        shared.NewBaseEntity(),
		Code:              code,
		Name:              name,
		Status:            CustomerStatusActive,
		OpeningBalance:    openingBalance,
		OutstandingAmount: openingBalance,
	}, nil
}

// IsActive reports whether the customer still receives deliveries.
func (c *Customer) IsActive() bool {
	return c.Status == CustomerStatusActive
}

// Deactivate stops deliveries while keeping the ledger intact.
func (c *Customer) Deactivate() {
	c.Status = CustomerStatusInactive
}

// SetOutstandingAmount updates the cached outstanding figure. The value comes
// from the ledger aggregator; it is clamped at zero so a stale cache can never
// show the customer in credit.
func (c *Customer) SetOutstandingAmount(amount decimal.Decimal) {
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	c.OutstandingAmount = amount
}

// CustomerRef is the minimal customer projection used by invoice generation
// (name and address land on the rendered document).
type CustomerRef struct {
	ID      uuid.UUID
	Code    string
	Name    string
	Address string
}

// Ref returns the projection of the customer used by collaborators.
func (c *Customer) Ref() CustomerRef {
	return CustomerRef{ID: c.ID, Code: c.Code, Name: c.Name, Address: c.Address}
}
