package bulk

import (
	"context"

	"github.com/dairybooks/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// OperationLogRepository defines persistence operations for bulk operation logs.
// Create must commit independently of the batch it brackets.
type OperationLogRepository interface {
	Create(ctx context.Context, log *OperationLog) error
	FindByID(ctx context.Context, id uuid.UUID) (*OperationLog, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]*OperationLog, int64, error)
	Save(ctx context.Context, log *OperationLog) error
}
