package models

import (
	"github.com/dairybooks/backend/internal/domain/partner"
	"github.com/shopspring/decimal"
)

// CustomerModel is the persistence model for the Customer domain entity.
type CustomerModel struct {
	BaseModel
	Code              string                 `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name              string                 `gorm:"type:varchar(255);not null"`
	Phone             string                 `gorm:"type:varchar(20)"`
	Address           string                 `gorm:"type:text"`
	Route             string                 `gorm:"type:varchar(100);index"`
	Status            partner.CustomerStatus `gorm:"type:varchar(20);not null;default:'active'"`
	OpeningBalance    decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	OutstandingAmount decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer entity.
func (m *CustomerModel) ToDomain() *partner.Customer {
	return &partner.Customer{
		BaseEntity:        m.BaseModel.ToDomain(),
		Code:              m.Code,
		Name:              m.Name,
		Phone:             m.Phone,
		Address:           m.Address,
		Route:             m.Route,
		Status:            m.Status,
		OpeningBalance:    m.OpeningBalance,
		OutstandingAmount: m.OutstandingAmount,
	}
}

// FromDomain populates the persistence model from a domain Customer entity.
func (m *CustomerModel) FromDomain(c *partner.Customer) {
	m.FromDomainBaseEntity(c.BaseEntity)
	m.Code = c.Code
	m.Name = c.Name
	m.Phone = c.Phone
	m.Address = c.Address
	m.Route = c.Route
	m.Status = c.Status
	m.OpeningBalance = c.OpeningBalance
	m.OutstandingAmount = c.OutstandingAmount
}

// CustomerModelFromDomain creates a new persistence model from a domain Customer entity.
func CustomerModelFromDomain(c *partner.Customer) *CustomerModel {
	m := &CustomerModel{}
	m.FromDomain(c)
	return m
}
