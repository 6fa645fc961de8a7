package persistence

import (
	"context"

	"github.com/dairybooks/backend/internal/domain/billing"
	"github.com/dairybooks/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormPaymentAllocationRepository implements PaymentAllocationRepository using
// GORM. Allocation rows are immutable; the repository exposes no update path,
// only creation and rollback deletion.
type GormPaymentAllocationRepository struct {
	db *gorm.DB
}

// NewGormPaymentAllocationRepository creates a new GormPaymentAllocationRepository
func NewGormPaymentAllocationRepository(db *gorm.DB) *GormPaymentAllocationRepository {
	return &GormPaymentAllocationRepository{db: db}
}

// Create persists a new allocation row
func (r *GormPaymentAllocationRepository) Create(ctx context.Context, allocation *billing.PaymentAllocation) error {
	model := models.PaymentAllocationModelFromDomain(allocation)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindByPayment returns all allocation rows of a payment
func (r *GormPaymentAllocationRepository) FindByPayment(ctx context.Context, paymentID uuid.UUID) ([]*billing.PaymentAllocation, error) {
	var allocationModels []models.PaymentAllocationModel
	if err := r.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		Order("created_at ASC").
		Find(&allocationModels).Error; err != nil {
		return nil, err
	}
	return toDomainAllocations(allocationModels), nil
}

// FindByTarget returns all allocation rows applied to a debt target
func (r *GormPaymentAllocationRepository) FindByTarget(ctx context.Context, target billing.AllocationTarget) ([]*billing.PaymentAllocation, error) {
	query := r.db.WithContext(ctx).Where("target_type = ?", target.Type)
	if target.TargetID != nil {
		query = query.Where("target_id = ?", *target.TargetID)
	} else {
		query = query.Where("target_id IS NULL")
	}

	var allocationModels []models.PaymentAllocationModel
	if err := query.Order("created_at ASC").Find(&allocationModels).Error; err != nil {
		return nil, err
	}
	return toDomainAllocations(allocationModels), nil
}

// FindByInvoice returns allocations targeting the invoice; the payments guard
// on invoice deletion reads it
func (r *GormPaymentAllocationRepository) FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*billing.PaymentAllocation, error) {
	return r.FindByTarget(ctx, billing.InvoiceTarget(invoiceID))
}

// SumOpeningBalanceByCustomer totals opening-balance allocations across all of
// the customer's payments. Opening-balance rows carry no target id, so the
// owning customer comes from a join on the payment.
func (r *GormPaymentAllocationRepository) SumOpeningBalanceByCustomer(ctx context.Context, customerID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.WithContext(ctx).
		Model(&models.PaymentAllocationModel{}).
		Select("COALESCE(SUM(payment_allocations.amount), 0)").
		Joins("JOIN payments ON payments.id = payment_allocations.payment_id").
		Where("payments.customer_id = ? AND payment_allocations.target_type = ?",
			customerID, billing.AllocationTargetOpeningBalance).
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// SumByPayment totals all allocation rows of a payment
func (r *GormPaymentAllocationRepository) SumByPayment(ctx context.Context, paymentID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.WithContext(ctx).
		Model(&models.PaymentAllocationModel{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("payment_id = ?", paymentID).
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// DeleteByPayment removes all allocation rows of a payment and returns the
// number of rows deleted
func (r *GormPaymentAllocationRepository) DeleteByPayment(ctx context.Context, paymentID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Delete(&models.PaymentAllocationModel{}, "payment_id = ?", paymentID)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func toDomainAllocations(allocationModels []models.PaymentAllocationModel) []*billing.PaymentAllocation {
	allocations := make([]*billing.PaymentAllocation, len(allocationModels))
	for i := range allocationModels {
		allocations[i] = allocationModels[i].ToDomain()
	}
	return allocations
}

// Ensure GormPaymentAllocationRepository implements PaymentAllocationRepository
var _ billing.PaymentAllocationRepository = (*GormPaymentAllocationRepository)(nil)
