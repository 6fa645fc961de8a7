package persistence

import (
	"context"
	"errors"

	"github.com/dairybooks/backend/internal/domain/billing"
	"github.com/dairybooks/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormInvoiceSequenceRepository implements InvoiceSequenceRepository using GORM.
// Next is a single atomic upsert against the per-financial-year counter row;
// two concurrent calls can never observe the same value.
type GormInvoiceSequenceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceSequenceRepository creates a new GormInvoiceSequenceRepository
func NewGormInvoiceSequenceRepository(db *gorm.DB) *GormInvoiceSequenceRepository {
	return &GormInvoiceSequenceRepository{db: db}
}

// Next issues the next sequence number for the financial year
func (r *GormInvoiceSequenceRepository) Next(ctx context.Context, fyCode string) (int, error) {
	var next int
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO invoice_sequences (fy_code, current_value, updated_at)
		VALUES (?, 1, NOW())
		ON CONFLICT (fy_code)
		DO UPDATE SET current_value = invoice_sequences.current_value + 1, updated_at = NOW()
		RETURNING current_value`, fyCode).
		Scan(&next).Error
	if err != nil {
		return 0, mapLockError(err)
	}
	return next, nil
}

// Current returns the last issued sequence for a financial year, 0 if none
func (r *GormInvoiceSequenceRepository) Current(ctx context.Context, fyCode string) (int, error) {
	var model models.InvoiceSequenceModel
	if err := r.db.WithContext(ctx).First(&model, "fy_code = ?", fyCode).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return model.CurrentValue, nil
}

// Ensure GormInvoiceSequenceRepository implements InvoiceSequenceRepository
var _ billing.InvoiceSequenceRepository = (*GormInvoiceSequenceRepository)(nil)
