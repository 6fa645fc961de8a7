package models

import (
	"time"

	"github.com/dairybooks/backend/internal/domain/billing"
	"github.com/dairybooks/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the persistence model for the Invoice domain entity.
// DeletedAt implements the soft delete; the repository filters on it
// explicitly so the recovery path can still see deleted rows.
type InvoiceModel struct {
	BaseModel
	InvoiceNumber string                `gorm:"type:varchar(20);not null;uniqueIndex"`
	CustomerID    uuid.UUID             `gorm:"type:uuid;not null;index"`
	PeriodStart   time.Time             `gorm:"type:timestamptz;not null"`
	PeriodEnd     time.Time             `gorm:"type:timestamptz;not null"`
	TotalAmount   decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	AmountPaid    decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	Status        billing.InvoiceStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	DueDate       time.Time             `gorm:"type:timestamptz;not null"`
	DeletedAt     *time.Time            `gorm:"type:timestamptz;index"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice entity.
func (m *InvoiceModel) ToDomain() *billing.Invoice {
	return &billing.Invoice{
		BaseEntity:    m.BaseModel.ToDomain(),
		InvoiceNumber: m.InvoiceNumber,
		CustomerID:    m.CustomerID,
		PeriodStart:   m.PeriodStart,
		PeriodEnd:     m.PeriodEnd,
		TotalAmount:   m.TotalAmount,
		AmountPaid:    m.AmountPaid,
		Status:        m.Status,
		DueDate:       m.DueDate,
		DeletedAt:     m.DeletedAt,
	}
}

// FromDomain populates the persistence model from a domain Invoice entity.
func (m *InvoiceModel) FromDomain(i *billing.Invoice) {
	m.FromDomainBaseEntity(i.BaseEntity)
	m.InvoiceNumber = i.InvoiceNumber
	m.CustomerID = i.CustomerID
	m.PeriodStart = i.PeriodStart
	m.PeriodEnd = i.PeriodEnd
	m.TotalAmount = i.TotalAmount
	m.AmountPaid = i.AmountPaid
	m.Status = i.Status
	m.DueDate = i.DueDate
	m.DeletedAt = i.DeletedAt
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice entity.
func InvoiceModelFromDomain(i *billing.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(i)
	return m
}

// PaymentModel is the persistence model for the Payment domain entity.
type PaymentModel struct {
	BaseModel
	CustomerID       uuid.UUID                `gorm:"type:uuid;not null;index"`
	Amount           decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	AmountApplied    decimal.Decimal          `gorm:"type:decimal(18,4);not null;default:0"`
	AmountUnapplied  decimal.Decimal          `gorm:"type:decimal(18,4);not null;default:0"`
	AllocationStatus billing.AllocationStatus `gorm:"type:varchar(20);not null;default:'unapplied';index"`
	Method           billing.PaymentMethod    `gorm:"type:varchar(20);not null"`
	Reference        string                   `gorm:"type:varchar(100)"`
	ReceivedAt       time.Time                `gorm:"type:timestamptz;not null;index"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment entity.
func (m *PaymentModel) ToDomain() *billing.Payment {
	return &billing.Payment{
		BaseEntity:       m.BaseModel.ToDomain(),
		CustomerID:       m.CustomerID,
		Amount:           m.Amount,
		AmountApplied:    m.AmountApplied,
		AmountUnapplied:  m.AmountUnapplied,
		AllocationStatus: m.AllocationStatus,
		Method:           m.Method,
		Reference:        m.Reference,
		ReceivedAt:       m.ReceivedAt,
	}
}

// FromDomain populates the persistence model from a domain Payment entity.
func (m *PaymentModel) FromDomain(p *billing.Payment) {
	m.FromDomainBaseEntity(p.BaseEntity)
	m.CustomerID = p.CustomerID
	m.Amount = p.Amount
	m.AmountApplied = p.AmountApplied
	m.AmountUnapplied = p.AmountUnapplied
	m.AllocationStatus = p.AllocationStatus
	m.Method = p.Method
	m.Reference = p.Reference
	m.ReceivedAt = p.ReceivedAt
}

// PaymentModelFromDomain creates a new persistence model from a domain Payment entity.
func PaymentModelFromDomain(p *billing.Payment) *PaymentModel {
	m := &PaymentModel{}
	m.FromDomain(p)
	return m
}

// PaymentAllocationModel is the persistence model for the PaymentAllocation
// domain entity. TargetID is null for opening-balance allocations, which are
// keyed by the owning payment's customer.
type PaymentAllocationModel struct {
	BaseModel
	PaymentID  uuid.UUID                    `gorm:"type:uuid;not null;index"`
	TargetType billing.AllocationTargetType `gorm:"type:varchar(20);not null;index:idx_payment_allocations_target"`
	TargetID   *uuid.UUID                   `gorm:"type:uuid;index:idx_payment_allocations_target"`
	Amount     decimal.Decimal              `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (PaymentAllocationModel) TableName() string {
	return "payment_allocations"
}

// ToDomain converts the persistence model to a domain PaymentAllocation entity.
func (m *PaymentAllocationModel) ToDomain() *billing.PaymentAllocation {
	return &billing.PaymentAllocation{
		BaseEntity: m.BaseModel.ToDomain(),
		PaymentID:  m.PaymentID,
		Target: billing.AllocationTarget{
			Type:     m.TargetType,
			TargetID: m.TargetID,
		},
		Amount: m.Amount,
	}
}

// FromDomain populates the persistence model from a domain PaymentAllocation entity.
func (m *PaymentAllocationModel) FromDomain(a *billing.PaymentAllocation) {
	m.FromDomainBaseEntity(a.BaseEntity)
	m.PaymentID = a.PaymentID
	m.TargetType = a.Target.Type
	m.TargetID = a.Target.TargetID
	m.Amount = a.Amount
}

// PaymentAllocationModelFromDomain creates a new persistence model from a domain PaymentAllocation entity.
func PaymentAllocationModelFromDomain(a *billing.PaymentAllocation) *PaymentAllocationModel {
	m := &PaymentAllocationModel{}
	m.FromDomain(a)
	return m
}

// InvoiceSalesMappingModel is the persistence model for the InvoiceSalesMapping
// domain entity.
type InvoiceSalesMappingModel struct {
	BaseModel
	InvoiceID      uuid.UUID               `gorm:"type:uuid;not null;index"`
	SaleID         uuid.UUID               `gorm:"type:uuid;not null;index"`
	PreviousStatus trade.SalePaymentStatus `gorm:"type:varchar(20);not null"`
}

// TableName returns the table name for GORM
func (InvoiceSalesMappingModel) TableName() string {
	return "invoice_sales_mappings"
}

// ToDomain converts the persistence model to a domain InvoiceSalesMapping entity.
func (m *InvoiceSalesMappingModel) ToDomain() *billing.InvoiceSalesMapping {
	return &billing.InvoiceSalesMapping{
		BaseEntity:     m.BaseModel.ToDomain(),
		InvoiceID:      m.InvoiceID,
		SaleID:         m.SaleID,
		PreviousStatus: m.PreviousStatus,
	}
}

// FromDomain populates the persistence model from a domain InvoiceSalesMapping entity.
func (m *InvoiceSalesMappingModel) FromDomain(link *billing.InvoiceSalesMapping) {
	m.FromDomainBaseEntity(link.BaseEntity)
	m.InvoiceID = link.InvoiceID
	m.SaleID = link.SaleID
	m.PreviousStatus = link.PreviousStatus
}

// InvoiceSalesMappingModelFromDomain creates a new persistence model from a domain InvoiceSalesMapping entity.
func InvoiceSalesMappingModelFromDomain(link *billing.InvoiceSalesMapping) *InvoiceSalesMappingModel {
	m := &InvoiceSalesMappingModel{}
	m.FromDomain(link)
	return m
}

// InvoiceSequenceModel holds the per-financial-year invoice counter. There is
// no domain entity behind it; the sequence repository deals in fy codes and
// plain integers, and the increment happens in a single SQL statement.
type InvoiceSequenceModel struct {
	FYCode       string    `gorm:"type:varchar(6);primary_key"`
	CurrentValue int       `gorm:"not null;default:0"`
	UpdatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (InvoiceSequenceModel) TableName() string {
	return "invoice_sequences"
}
