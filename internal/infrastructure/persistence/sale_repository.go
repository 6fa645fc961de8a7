package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/dairybooks/backend/internal/domain/shared"
	"github.com/dairybooks/backend/internal/domain/trade"
	"github.com/dairybooks/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSaleRepository implements SaleRepository using GORM
type GormSaleRepository struct {
	db *gorm.DB
}

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

// Create persists a new sale
func (r *GormSaleRepository) Create(ctx context.Context, sale *trade.Sale) error {
	model := models.SaleModelFromDomain(sale)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindByID finds a sale by its ID
func (r *GormSaleRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Sale, error) {
	var model models.SaleModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrSaleNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds a sale by ID with a row-level lock held until the
// enclosing transaction commits.
func (r *GormSaleRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*trade.Sale, error) {
	var model models.SaleModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrSaleNotFound
		}
		return nil, mapLockError(err)
	}
	return model.ToDomain(), nil
}

// FindByIDs finds multiple sales by their IDs
func (r *GormSaleRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*trade.Sale, error) {
	if len(ids) == 0 {
		return []*trade.Sale{}, nil
	}

	var saleModels []models.SaleModel
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&saleModels).Error; err != nil {
		return nil, err
	}
	return toDomainSales(saleModels), nil
}

// FindBillableByCustomer returns the customer's Pending credit sales dated
// inside the billing period.
func (r *GormSaleRepository) FindBillableByCustomer(ctx context.Context, customerID uuid.UUID, periodStart, periodEnd time.Time) ([]*trade.Sale, error) {
	var saleModels []models.SaleModel
	if err := r.db.WithContext(ctx).
		Where("customer_id = ? AND sale_type = ? AND payment_status = ?",
			customerID, trade.SaleTypeCredit, trade.SalePaymentStatusPending).
		Where("sale_date >= ? AND sale_date <= ?", periodStart, periodEnd).
		Order("sale_date ASC").
		Find(&saleModels).Error; err != nil {
		return nil, err
	}
	return toDomainSales(saleModels), nil
}

// FindByCustomerAndDateRange returns all of the customer's sales dated inside
// the range, regardless of payment status.
func (r *GormSaleRepository) FindByCustomerAndDateRange(ctx context.Context, customerID uuid.UUID, periodStart, periodEnd time.Time) ([]*trade.Sale, error) {
	var saleModels []models.SaleModel
	if err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Where("sale_date >= ? AND sale_date <= ?", periodStart, periodEnd).
		Order("sale_date ASC").
		Find(&saleModels).Error; err != nil {
		return nil, err
	}
	return toDomainSales(saleModels), nil
}

// FindAll finds all sales matching the filter along with the total count
func (r *GormSaleRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*trade.Sale, int64, error) {
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&models.SaleModel{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var saleModels []models.SaleModel
	if err := r.applyPagination(query, filter).Find(&saleModels).Error; err != nil {
		return nil, 0, err
	}
	return toDomainSales(saleModels), total, nil
}

// Save updates an existing sale
func (r *GormSaleRepository) Save(ctx context.Context, sale *trade.Sale) error {
	model := models.SaleModelFromDomain(sale)
	result := r.db.WithContext(ctx).Save(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrSaleNotFound
	}
	return nil
}

// UpdatePaymentStatus updates payment_status for all given sales in one statement
func (r *GormSaleRepository) UpdatePaymentStatus(ctx context.Context, ids []uuid.UUID, status trade.SalePaymentStatus) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.SaleModel{}).
		Where("id IN ?", ids).
		Update("payment_status", status).Error
}

func (r *GormSaleRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("notes ILIKE ?", "%"+filter.Search+"%")
	}

	for key, value := range filter.Filters {
		switch key {
		case "customer_id":
			query = query.Where("customer_id = ?", value)
		case "sale_type":
			query = query.Where("sale_type = ?", value)
		case "payment_status":
			query = query.Where("payment_status = ?", value)
		case "date_from":
			query = query.Where("sale_date >= ?", value)
		case "date_to":
			query = query.Where("sale_date <= ?", value)
		}
	}

	return query
}

func (r *GormSaleRepository) applyPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, SaleSortFields, "sale_date")
	return query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))
}

func toDomainSales(saleModels []models.SaleModel) []*trade.Sale {
	sales := make([]*trade.Sale, len(saleModels))
	for i := range saleModels {
		sales[i] = saleModels[i].ToDomain()
	}
	return sales
}

// Ensure GormSaleRepository implements SaleRepository
var _ trade.SaleRepository = (*GormSaleRepository)(nil)
