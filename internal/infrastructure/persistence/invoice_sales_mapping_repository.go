package persistence

import (
	"context"

	"github.com/dairybooks/backend/internal/domain/billing"
	"github.com/dairybooks/backend/internal/domain/shared"
	"github.com/dairybooks/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormInvoiceSalesMappingRepository implements InvoiceSalesMappingRepository using GORM
type GormInvoiceSalesMappingRepository struct {
	db *gorm.DB
}

// NewGormInvoiceSalesMappingRepository creates a new GormInvoiceSalesMappingRepository
func NewGormInvoiceSalesMappingRepository(db *gorm.DB) *GormInvoiceSalesMappingRepository {
	return &GormInvoiceSalesMappingRepository{db: db}
}

// Create persists a new mapping row
func (r *GormInvoiceSalesMappingRepository) Create(ctx context.Context, mapping *billing.InvoiceSalesMapping) error {
	model := models.InvoiceSalesMappingModelFromDomain(mapping)
	return r.db.WithContext(ctx).Create(model).Error
}

// CreateBatch persists a set of mapping rows in one statement
func (r *GormInvoiceSalesMappingRepository) CreateBatch(ctx context.Context, mappings []*billing.InvoiceSalesMapping) error {
	if len(mappings) == 0 {
		return nil
	}
	mappingModels := make([]models.InvoiceSalesMappingModel, len(mappings))
	for i, mapping := range mappings {
		mappingModels[i].FromDomain(mapping)
	}
	return r.db.WithContext(ctx).Create(&mappingModels).Error
}

// FindByInvoice returns the mapping rows of an invoice
func (r *GormInvoiceSalesMappingRepository) FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*billing.InvoiceSalesMapping, error) {
	var mappingModels []models.InvoiceSalesMappingModel
	if err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("created_at ASC").
		Find(&mappingModels).Error; err != nil {
		return nil, err
	}
	return toDomainMappings(mappingModels), nil
}

// FindBySale returns the mapping rows referencing a sale
func (r *GormInvoiceSalesMappingRepository) FindBySale(ctx context.Context, saleID uuid.UUID) ([]*billing.InvoiceSalesMapping, error) {
	var mappingModels []models.InvoiceSalesMappingModel
	if err := r.db.WithContext(ctx).
		Where("sale_id = ?", saleID).
		Order("created_at ASC").
		Find(&mappingModels).Error; err != nil {
		return nil, err
	}
	return toDomainMappings(mappingModels), nil
}

// Save updates an existing mapping row
func (r *GormInvoiceSalesMappingRepository) Save(ctx context.Context, mapping *billing.InvoiceSalesMapping) error {
	model := models.InvoiceSalesMappingModelFromDomain(mapping)
	result := r.db.WithContext(ctx).Save(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteByInvoice removes all mapping rows of an invoice and returns the
// number of rows deleted
func (r *GormInvoiceSalesMappingRepository) DeleteByInvoice(ctx context.Context, invoiceID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Delete(&models.InvoiceSalesMappingModel{}, "invoice_id = ?", invoiceID)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func toDomainMappings(mappingModels []models.InvoiceSalesMappingModel) []*billing.InvoiceSalesMapping {
	mappings := make([]*billing.InvoiceSalesMapping, len(mappingModels))
	for i := range mappingModels {
		mappings[i] = mappingModels[i].ToDomain()
	}
	return mappings
}

// Ensure GormInvoiceSalesMappingRepository implements InvoiceSalesMappingRepository
var _ billing.InvoiceSalesMappingRepository = (*GormInvoiceSalesMappingRepository)(nil)
