package finance

import (
	"strings"
	"time"

	"github.com/gemerp/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Expense is an operating cost outside any item deal (rent, travel, lab fees).
// Active expenses are totalled on the cash dashboard.
type Expense struct {
	shared.BaseEntity
	Title     string
	Category  string
	Amount    decimal.Decimal
	Method    PaymentMethod
	Date      time.Time
	Remark    string
	CreatedBy string
}

// ExpenseParams holds the editable expense values
type ExpenseParams struct {
	Title     string
	Category  string
	Amount    decimal.Decimal
	Method    PaymentMethod
	Date      time.Time
	Remark    string
	CreatedBy string
}

// NewExpense creates a new active expense
func NewExpense(p ExpenseParams) (*Expense, error) {
	e := &Expense{BaseEntity: shared.NewBaseEntity(), CreatedBy: p.CreatedBy}
	if err := e.apply(p); err != nil {
		return nil, err
	}
	return e, nil
}

// Update replaces the editable values
func (e *Expense) Update(p ExpenseParams) error {
	if !e.IsActive {
		return shared.NewNotFoundError("expense", e.ID)
	}
	if err := e.apply(p); err != nil {
		return err
	}
	e.Touch()
	return nil
}

func (e *Expense) apply(p ExpenseParams) error {
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return shared.NewValidationError("expense title is required")
	}
	if !p.Amount.IsPositive() {
		return shared.NewValidationError("expense amount must be positive")
	}
	e.Title = title
	e.Category = strings.TrimSpace(p.Category)
	e.Amount = p.Amount
	e.Method = p.Method
	if e.Method == "" {
		e.Method = MethodCash
	}
	e.Date = p.Date
	if e.Date.IsZero() {
		e.Date = time.Now()
	}
	e.Remark = p.Remark
	return nil
}
