package persistence

import (
	"context"
	"errors"

	"github.com/dairybooks/backend/internal/domain/bulk"
	"github.com/dairybooks/backend/internal/domain/shared"
	"github.com/dairybooks/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormOperationLogRepository implements OperationLogRepository using GORM.
// It is wired to the root connection rather than a transaction scope, so the
// bracket records it writes survive a rollback of the batch they bracket.
type GormOperationLogRepository struct {
	db *gorm.DB
}

// NewGormOperationLogRepository creates a new GormOperationLogRepository
func NewGormOperationLogRepository(db *gorm.DB) *GormOperationLogRepository {
	return &GormOperationLogRepository{db: db}
}

// Create persists a new operation log
func (r *GormOperationLogRepository) Create(ctx context.Context, log *bulk.OperationLog) error {
	model := models.OperationLogModelFromDomain(log)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindByID finds an operation log by its ID
func (r *GormOperationLogRepository) FindByID(ctx context.Context, id uuid.UUID) (*bulk.OperationLog, error) {
	var model models.OperationLogModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds all operation logs matching the filter along with the total count
func (r *GormOperationLogRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*bulk.OperationLog, int64, error) {
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&models.OperationLogModel{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logModels []models.OperationLogModel
	if err := r.applyPagination(query, filter).Find(&logModels).Error; err != nil {
		return nil, 0, err
	}

	logs := make([]*bulk.OperationLog, len(logModels))
	for i := range logModels {
		logs[i] = logModels[i].ToDomain()
	}
	return logs, total, nil
}

// Save updates an existing operation log
func (r *GormOperationLogRepository) Save(ctx context.Context, log *bulk.OperationLog) error {
	model := models.OperationLogModelFromDomain(log)
	result := r.db.WithContext(ctx).Save(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormOperationLogRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "operation_type":
			query = query.Where("operation_type = ?", value)
		case "operation_subtype":
			query = query.Where("operation_subtype = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		case "started_from":
			query = query.Where("started_at >= ?", value)
		case "started_to":
			query = query.Where("started_at <= ?", value)
		}
	}
	return query
}

func (r *GormOperationLogRepository) applyPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, OperationLogSortFields, "started_at")
	return query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))
}

// Ensure GormOperationLogRepository implements OperationLogRepository
var _ bulk.OperationLogRepository = (*GormOperationLogRepository)(nil)
