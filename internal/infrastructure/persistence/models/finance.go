package models

import (
	"time"

	"github.com/gemerp/backend/internal/domain/finance"
	"github.com/shopspring/decimal"
)

// TransactionModel is the persistence model for a ledger row
type TransactionModel struct {
	AggregateModel
	Code                 *string                 `gorm:"type:varchar(50);uniqueIndex"`
	Type                 finance.TransactionType `gorm:"column:transaction_type;type:varchar(20);not null;index"`
	Reference            int64                   `gorm:"not null;index"`
	ReferenceTransaction int64                   `gorm:"not null;index"`
	Amount               decimal.Decimal         `gorm:"type:decimal(18,4);not null"`
	PaymentAmount        decimal.Decimal         `gorm:"type:decimal(18,4);not null"`
	AmountSettled        decimal.Decimal         `gorm:"type:decimal(18,4);not null"`
	DueAmount            decimal.Decimal         `gorm:"type:decimal(18,4);not null"`
	Method               string                  `gorm:"type:varchar(50);not null;index"`
	Status               string                  `gorm:"type:varchar(50)"`
	Date                 time.Time               `gorm:"not null;index"`
	Customer             *int64                  `gorm:"index"`
	Bearer               *int64                  `gorm:"index"`
	SharePercentage      decimal.Decimal         `gorm:"type:decimal(7,4);not null"`
	ShareValue           decimal.Decimal         `gorm:"type:decimal(18,4);not null"`
	OtherShares          string                  `gorm:"type:text"`
	Comments             string                  `gorm:"type:text"`
	PaymentETAStart      *time.Time              `gorm:"column:payment_eta_start"`
	PaymentETAEnd        *time.Time              `gorm:"column:payment_eta_end;index"`
	DateFinished         *time.Time
	CreatedBy            string `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (TransactionModel) TableName() string {
	return "transactions"
}

// ToDomain converts the persistence model to a domain Transaction.
// ShareHolders are filled in by the repository.
func (m *TransactionModel) ToDomain() *finance.Transaction {
	return &finance.Transaction{
		BaseAggregateRoot:    m.aggregate(),
		Code:                 codeValue(m.Code),
		Type:                 m.Type,
		Reference:            m.Reference,
		ReferenceTransaction: m.ReferenceTransaction,
		Amount:               m.Amount,
		PaymentAmount:        m.PaymentAmount,
		AmountSettled:        m.AmountSettled,
		DueAmount:            m.DueAmount,
		Method:               finance.PaymentMethod(m.Method),
		Status:               m.Status,
		Date:                 m.Date,
		Customer:             m.Customer,
		Bearer:               m.Bearer,
		SharePercentage:      m.SharePercentage,
		ShareValue:           m.ShareValue,
		OtherShares:          m.OtherShares,
		Comments:             m.Comments,
		PaymentETAStart:      m.PaymentETAStart,
		PaymentETAEnd:        m.PaymentETAEnd,
		DateFinished:         m.DateFinished,
		CreatedBy:            m.CreatedBy,
	}
}

// FromDomain populates the persistence model from a domain Transaction
func (m *TransactionModel) FromDomain(t *finance.Transaction) {
	m.setAggregate(t.BaseAggregateRoot)
	m.Code = codePtr(t.Code)
	m.Type = t.Type
	m.Reference = t.Reference
	m.ReferenceTransaction = t.ReferenceTransaction
	m.Amount = t.Amount
	m.PaymentAmount = t.PaymentAmount
	m.AmountSettled = t.AmountSettled
	m.DueAmount = t.DueAmount
	m.Method = string(t.Method)
	m.Status = t.Status
	m.Date = t.Date
	m.Customer = t.Customer
	m.Bearer = t.Bearer
	m.SharePercentage = t.SharePercentage
	m.ShareValue = t.ShareValue
	m.OtherShares = t.OtherShares
	m.Comments = t.Comments
	m.PaymentETAStart = t.PaymentETAStart
	m.PaymentETAEnd = t.PaymentETAEnd
	m.DateFinished = t.DateFinished
	m.CreatedBy = t.CreatedBy
}

// TransactionModelFromDomain creates a new persistence model from a domain Transaction
func TransactionModelFromDomain(t *finance.Transaction) *TransactionModel {
	m := &TransactionModel{}
	m.FromDomain(t)
	return m
}

// TransactionShareHolderModel is one ordered partner share of a deal
type TransactionShareHolderModel struct {
	TransactionID int64 `gorm:"primaryKey;autoIncrement:false"`
	CustomerID    int64 `gorm:"primaryKey;autoIncrement:false;index"`
	Position      int   `gorm:"not null"`
}

// TableName returns the table name for GORM
func (TransactionShareHolderModel) TableName() string {
	return "transaction_share_holders"
}

// ExpenseModel is the persistence model for an operating expense
type ExpenseModel struct {
	BaseModel
	Title     string          `gorm:"type:varchar(200);not null"`
	Category  string          `gorm:"type:varchar(100);index"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Method    string          `gorm:"type:varchar(50);not null"`
	Date      time.Time       `gorm:"not null;index"`
	Remark    string          `gorm:"type:text"`
	CreatedBy string          `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (ExpenseModel) TableName() string {
	return "expenses"
}

// ToDomain converts the persistence model to a domain Expense
func (m *ExpenseModel) ToDomain() *finance.Expense {
	return &finance.Expense{
		BaseEntity: m.entity(),
		Title:      m.Title,
		Category:   m.Category,
		Amount:     m.Amount,
		Method:     finance.PaymentMethod(m.Method),
		Date:       m.Date,
		Remark:     m.Remark,
		CreatedBy:  m.CreatedBy,
	}
}

// FromDomain populates the persistence model from a domain Expense
func (m *ExpenseModel) FromDomain(e *finance.Expense) {
	m.setEntity(e.BaseEntity)
	m.Title = e.Title
	m.Category = e.Category
	m.Amount = e.Amount
	m.Method = string(e.Method)
	m.Date = e.Date
	m.Remark = e.Remark
	m.CreatedBy = e.CreatedBy
}

// ExpenseModelFromDomain creates a new persistence model from a domain Expense
func ExpenseModelFromDomain(e *finance.Expense) *ExpenseModel {
	m := &ExpenseModel{}
	m.FromDomain(e)
	return m
}
