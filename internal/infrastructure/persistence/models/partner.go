package models

import (
	"github.com/gemerp/backend/internal/domain/partner"
)

// CustomerModel is the persistence model for the Customer domain entity.
type CustomerModel struct {
	AggregateModel
	Name        string `gorm:"type:varchar(200);not null;index"`
	Company     string `gorm:"type:varchar(200)"`
	PhoneNumber string `gorm:"type:varchar(30);index"`
	Email       string `gorm:"type:varchar(200)"`
	NIC         string `gorm:"column:nic;type:varchar(20)"`
	Address     string `gorm:"type:text"`
	Notes       string `gorm:"type:text"`
	CreatedBy   string `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer entity.
func (m *CustomerModel) ToDomain() *partner.Customer {
	return &partner.Customer{
		BaseAggregateRoot: m.aggregate(),
		Name:              m.Name,
		Company:           m.Company,
		PhoneNumber:       m.PhoneNumber,
		Email:             m.Email,
		NIC:               m.NIC,
		Address:           m.Address,
		Notes:             m.Notes,
		CreatedBy:         m.CreatedBy,
	}
}

// FromDomain populates the persistence model from a domain Customer entity.
func (m *CustomerModel) FromDomain(c *partner.Customer) {
	m.setAggregate(c.BaseAggregateRoot)
	m.Name = c.Name
	m.Company = c.Company
	m.PhoneNumber = c.PhoneNumber
	m.Email = c.Email
	m.NIC = c.NIC
	m.Address = c.Address
	m.Notes = c.Notes
	m.CreatedBy = c.CreatedBy
}

// CustomerModelFromDomain creates a new persistence model from a domain Customer entity.
func CustomerModelFromDomain(c *partner.Customer) *CustomerModel {
	m := &CustomerModel{}
	m.FromDomain(c)
	return m
}
