package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/dairybooks/backend/internal/domain/billing"
	"github.com/dairybooks/backend/internal/domain/shared"
	"github.com/dairybooks/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInvoiceRepository implements InvoiceRepository using GORM.
// Soft deletion is modeled with an explicit deleted_at filter instead of
// gorm.DeletedAt so the recovery path can address deleted rows directly.
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// Create persists a new invoice
func (r *GormInvoiceRepository) Create(ctx context.Context, invoice *billing.Invoice) error {
	model := models.InvoiceModelFromDomain(invoice)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindByID finds a non-deleted invoice by its ID
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrInvoiceNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds a non-deleted invoice by ID with a row-level lock.
// Every read-then-write of amount_paid goes through it.
func (r *GormInvoiceRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrInvoiceNotFound
		}
		return nil, mapLockError(err)
	}
	return model.ToDomain(), nil
}

// FindByIDIncludingDeleted also returns soft-deleted invoices, used by recovery
func (r *GormInvoiceRepository) FindByIDIncludingDeleted(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrInvoiceNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByNumber finds a non-deleted invoice by its invoice number
func (r *GormInvoiceRepository) FindByNumber(ctx context.Context, invoiceNumber string) (*billing.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Where("invoice_number = ? AND deleted_at IS NULL", invoiceNumber).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrInvoiceNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCustomer finds the customer's non-deleted invoices matching the filter
func (r *GormInvoiceRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]*billing.Invoice, int64, error) {
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&models.InvoiceModel{}).
			Where("customer_id = ? AND deleted_at IS NULL", customerID),
		filter,
	)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var invoiceModels []models.InvoiceModel
	if err := r.applyPagination(query, filter).Find(&invoiceModels).Error; err != nil {
		return nil, 0, err
	}
	return toDomainInvoices(invoiceModels), total, nil
}

// FindOutstandingByCustomer returns the customer's non-deleted invoices in a
// status that counts toward outstanding.
func (r *GormInvoiceRepository) FindOutstandingByCustomer(ctx context.Context, customerID uuid.UUID) ([]*billing.Invoice, error) {
	statuses := []billing.InvoiceStatus{
		billing.InvoiceStatusSent,
		billing.InvoiceStatusPending,
		billing.InvoiceStatusPartiallyPaid,
		billing.InvoiceStatusOverdue,
	}

	var invoiceModels []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Where("customer_id = ? AND deleted_at IS NULL AND status IN ?", customerID, statuses).
		Order("period_start ASC").
		Find(&invoiceModels).Error; err != nil {
		return nil, err
	}
	return toDomainInvoices(invoiceModels), nil
}

// FindDueBefore returns non-deleted, unpaid invoices whose due date falls
// before asOf; input to the overdue marking pass.
func (r *GormInvoiceRepository) FindDueBefore(ctx context.Context, asOf time.Time) ([]*billing.Invoice, error) {
	statuses := []billing.InvoiceStatus{
		billing.InvoiceStatusSent,
		billing.InvoiceStatusPending,
		billing.InvoiceStatusPartiallyPaid,
	}

	var invoiceModels []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Where("deleted_at IS NULL AND status IN ? AND due_date < ?", statuses, asOf).
		Order("due_date ASC").
		Find(&invoiceModels).Error; err != nil {
		return nil, err
	}
	return toDomainInvoices(invoiceModels), nil
}

// ExistsForPeriod reports whether the customer already has a non-deleted
// invoice whose billing period overlaps [periodStart, periodEnd]
func (r *GormInvoiceRepository) ExistsForPeriod(ctx context.Context, customerID uuid.UUID, periodStart, periodEnd time.Time) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("customer_id = ? AND deleted_at IS NULL", customerID).
		Where("period_start <= ? AND period_end >= ?", periodEnd, periodStart).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindMissingMappings returns non-deleted invoices that have no invoice-sales
// mapping rows; input to the one-time backfill.
func (r *GormInvoiceRepository) FindMissingMappings(ctx context.Context) ([]*billing.Invoice, error) {
	var invoiceModels []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Joins("LEFT JOIN invoice_sales_mappings m ON m.invoice_id = invoices.id").
		Where("invoices.deleted_at IS NULL AND m.id IS NULL").
		Find(&invoiceModels).Error; err != nil {
		return nil, err
	}
	return toDomainInvoices(invoiceModels), nil
}

// Save updates an existing invoice
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	model := models.InvoiceModelFromDomain(invoice)
	result := r.db.WithContext(ctx).Save(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrInvoiceNotFound
	}
	return nil
}

// HardDelete removes the invoice row outright (permanent deletion)
func (r *GormInvoiceRepository) HardDelete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.InvoiceModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrInvoiceNotFound
	}
	return nil
}

func (r *GormInvoiceRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("invoice_number ILIKE ?", "%"+filter.Search+"%")
	}

	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "period_from":
			query = query.Where("period_start >= ?", value)
		case "period_to":
			query = query.Where("period_end <= ?", value)
		case "overdue_before":
			query = query.Where("due_date < ?", value)
		}
	}

	return query
}

func (r *GormInvoiceRepository) applyPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, InvoiceSortFields, "period_start")
	return query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))
}

func toDomainInvoices(invoiceModels []models.InvoiceModel) []*billing.Invoice {
	invoices := make([]*billing.Invoice, len(invoiceModels))
	for i := range invoiceModels {
		invoices[i] = invoiceModels[i].ToDomain()
	}
	return invoices
}

// Ensure GormInvoiceRepository implements InvoiceRepository
var _ billing.InvoiceRepository = (*GormInvoiceRepository)(nil)
