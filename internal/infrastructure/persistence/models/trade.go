package models

import (
	"encoding/json"
	"time"

	"github.com/dairybooks/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleModel is the persistence model for the Sale domain entity.
// Items are stored as a jsonb document; sale lines are immutable once
// written, so a normalized line table buys nothing.
type SaleModel struct {
	BaseModel
	CustomerID    *uuid.UUID              `gorm:"type:uuid;index"`
	SaleType      trade.SaleType          `gorm:"type:varchar(20);not null"`
	PaymentStatus trade.SalePaymentStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	SaleDate      time.Time               `gorm:"type:timestamptz;not null;index"`
	TotalAmount   decimal.Decimal         `gorm:"type:decimal(18,4);not null;default:0"`
	Items         string                  `gorm:"type:jsonb;not null;default:'[]'"`
	Notes         string                  `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (SaleModel) TableName() string {
	return "sales"
}

// ToDomain converts the persistence model to a domain Sale entity.
func (m *SaleModel) ToDomain() *trade.Sale {
	sale := &trade.Sale{
		BaseEntity:    m.BaseModel.ToDomain(),
		CustomerID:    m.CustomerID,
		SaleType:      m.SaleType,
		PaymentStatus: m.PaymentStatus,
		SaleDate:      m.SaleDate,
		TotalAmount:   m.TotalAmount,
		Notes:         m.Notes,
	}
	if m.Items != "" {
		_ = json.Unmarshal([]byte(m.Items), &sale.Items)
	}
	return sale
}

// FromDomain populates the persistence model from a domain Sale entity.
func (m *SaleModel) FromDomain(s *trade.Sale) {
	m.FromDomainBaseEntity(s.BaseEntity)
	m.CustomerID = s.CustomerID
	m.SaleType = s.SaleType
	m.PaymentStatus = s.PaymentStatus
	m.SaleDate = s.SaleDate
	m.TotalAmount = s.TotalAmount
	m.Notes = s.Notes

	if encoded, err := json.Marshal(s.Items); err == nil {
		m.Items = string(encoded)
	} else {
		m.Items = "[]"
	}
}

// SaleModelFromDomain creates a new persistence model from a domain Sale entity.
func SaleModelFromDomain(s *trade.Sale) *SaleModel {
	m := &SaleModel{}
	m.FromDomain(s)
	return m
}
