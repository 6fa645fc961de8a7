package bulk

import (
	"encoding/json"
	"time"

	"github.com/dairybooks/backend/internal/domain/shared"
)

// OperationType identifies the kind of batch the log entry brackets.
type OperationType string

const (
	OperationTypeInvoiceGeneration OperationType = "invoice_generation"
	OperationTypeInvoiceDeletion   OperationType = "invoice_deletion"
	OperationTypeReconciliation    OperationType = "reconciliation"
	OperationTypeMappingMigration  OperationType = "mapping_migration"
)

// IsValid checks if the operation type is valid
func (t OperationType) IsValid() bool {
	switch t {
	case OperationTypeInvoiceGeneration, OperationTypeInvoiceDeletion,
		OperationTypeReconciliation, OperationTypeMappingMigration:
		return true
	}
	return false
}

// OperationStatus represents the lifecycle of a logged batch.
type OperationStatus string

const (
	OperationStatusStarted             OperationStatus = "started"
	OperationStatusCompleted           OperationStatus = "completed"
	OperationStatusCompletedWithErrors OperationStatus = "completed_with_errors"
	OperationStatusFailed              OperationStatus = "failed"
)

// IsValid checks if the status is valid
func (s OperationStatus) IsValid() bool {
	switch s {
	case OperationStatusStarted, OperationStatusCompleted,
		OperationStatusCompletedWithErrors, OperationStatusFailed:
		return true
	}
	return false
}

// IsTerminal returns true if this is a terminal state
func (s OperationStatus) IsTerminal() bool {
	return s != OperationStatusStarted
}

// ItemError records why one item of a batch failed.
type ItemError struct {
	ItemID  string `json:"item_id"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// OperationLog is the durable pre/post record of a batch. It is written and
// committed before the first item runs and finalized after the last, so the
// attempt survives a process crash mid-batch regardless of the batch outcome.
type OperationLog struct {
	shared.BaseEntity
	OperationType    OperationType
	OperationSubtype string
	TotalItems       int
	SuccessfulItems  int
	FailedItems      int
	Status           OperationStatus
	Parameters       json.RawMessage
	ErrorDetails     []ItemError
	StartedAt        time.Time
	CompletedAt      *time.Time
}

// NewOperationLog creates a log entry in the started state.
func NewOperationLog(opType OperationType, subtype string, totalItems int, parameters any) (*OperationLog, error) {
	if !opType.IsValid() {
		return nil, shared.NewDomainErrorf("INVALID_OPERATION_TYPE", "Invalid operation type: %s", opType)
	}
	if totalItems < 0 {
		return nil, shared.NewDomainError("INVALID_ITEM_COUNT", "Total items cannot be negative")
	}
	var raw json.RawMessage
	if parameters != nil {
		encoded, err := json.Marshal(parameters)
		if err != nil {
			return nil, shared.NewDomainErrorf("INVALID_PARAMETERS", "Parameters are not serializable: %v", err)
		}
		raw = encoded
	}
	return &OperationLog{
		BaseEntity:       shared.NewBaseEntity(),
		OperationType:    opType,
		OperationSubtype: subtype,
		TotalItems:       totalItems,
		Status:           OperationStatusStarted,
		Parameters:       raw,
		StartedAt:        time.Now(),
	}, nil
}

// Finalize moves the log to a terminal status with the batch's counts.
func (l *OperationLog) Finalize(status OperationStatus, successful, failed int, errorDetails []ItemError) error {
	if !status.IsValid() || !status.IsTerminal() {
		return shared.NewDomainErrorf("INVALID_STATUS", "Cannot finalize log with status %q", status)
	}
	if l.Status.IsTerminal() {
		return shared.NewDomainError("ALREADY_FINALIZED", "Operation log is already finalized")
	}
	now := time.Now()
	l.Status = status
	l.SuccessfulItems = successful
	l.FailedItems = failed
	l.ErrorDetails = errorDetails
	l.CompletedAt = &now
	return nil
}

// OutcomeStatus picks the terminal status that matches a batch's counts.
func OutcomeStatus(successful, failed int) OperationStatus {
	switch {
	case failed == 0:
		return OperationStatusCompleted
	case successful == 0:
		return OperationStatusFailed
	default:
		return OperationStatusCompletedWithErrors
	}
}
