package models

import (
	"encoding/json"
	"time"

	"github.com/dairybooks/backend/internal/domain/bulk"
)

// OperationLogModel is the persistence model for the OperationLog domain entity.
type OperationLogModel struct {
	BaseModel
	OperationType    bulk.OperationType   `gorm:"type:varchar(30);not null;index"`
	OperationSubtype string               `gorm:"type:varchar(50)"`
	TotalItems       int                  `gorm:"not null;default:0"`
	SuccessfulItems  int                  `gorm:"not null;default:0"`
	FailedItems      int                  `gorm:"not null;default:0"`
	Status           bulk.OperationStatus `gorm:"type:varchar(30);not null;default:'started';index"`
	Parameters       string               `gorm:"type:jsonb;default:'{}'"`
	ErrorDetails     string               `gorm:"type:jsonb;default:'[]'"`
	StartedAt        time.Time            `gorm:"type:timestamptz;not null"`
	CompletedAt      *time.Time           `gorm:"type:timestamptz"`
}

// TableName returns the table name for GORM
func (OperationLogModel) TableName() string {
	return "operation_logs"
}

// ToDomain converts the persistence model to a domain OperationLog entity.
func (m *OperationLogModel) ToDomain() *bulk.OperationLog {
	log := &bulk.OperationLog{
		BaseEntity:       m.BaseModel.ToDomain(),
		OperationType:    m.OperationType,
		OperationSubtype: m.OperationSubtype,
		TotalItems:       m.TotalItems,
		SuccessfulItems:  m.SuccessfulItems,
		FailedItems:      m.FailedItems,
		Status:           m.Status,
		StartedAt:        m.StartedAt,
		CompletedAt:      m.CompletedAt,
	}
	if m.Parameters != "" && m.Parameters != "{}" {
		log.Parameters = json.RawMessage(m.Parameters)
	}
	if m.ErrorDetails != "" {
		_ = json.Unmarshal([]byte(m.ErrorDetails), &log.ErrorDetails)
	}
	return log
}

// FromDomain populates the persistence model from a domain OperationLog entity.
func (m *OperationLogModel) FromDomain(l *bulk.OperationLog) {
	m.FromDomainBaseEntity(l.BaseEntity)
	m.OperationType = l.OperationType
	m.OperationSubtype = l.OperationSubtype
	m.TotalItems = l.TotalItems
	m.SuccessfulItems = l.SuccessfulItems
	m.FailedItems = l.FailedItems
	m.Status = l.Status
	m.StartedAt = l.StartedAt
	m.CompletedAt = l.CompletedAt

	if len(l.Parameters) > 0 {
		m.Parameters = string(l.Parameters)
	} else {
		m.Parameters = "{}"
	}
	if encoded, err := json.Marshal(l.ErrorDetails); err == nil && l.ErrorDetails != nil {
		m.ErrorDetails = string(encoded)
	} else {
		m.ErrorDetails = "[]"
	}
}

// OperationLogModelFromDomain creates a new persistence model from a domain OperationLog entity.
func OperationLogModelFromDomain(l *bulk.OperationLog) *OperationLogModel {
	m := &OperationLogModel{}
	m.FromDomain(l)
	return m
}
