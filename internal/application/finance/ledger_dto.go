package finance

import (
	"time"

	"github.com/gemerp/backend/internal/domain/finance"
	"github.com/shopspring/decimal"
)

// CreateTransactionRequest opens a Buying or Selling deal over an item
type CreateTransactionRequest struct {
	Type            string          `json:"type" binding:"required,oneof=Buying Selling"`
	ItemID          int64           `json:"item_id" binding:"required,min=1"`
	Amount          decimal.Decimal `json:"amount" binding:"decimal_nonnegative"`
	InitialPayment  decimal.Decimal `json:"initial_payment" binding:"decimal_nonnegative"`
	Method          string          `json:"method"`
	Status          string          `json:"status"`
	Date            *time.Time      `json:"date"`
	Customer        *int64          `json:"customer"`
	Bearer          *int64          `json:"bearer"`
	ShareHolders    []int64         `json:"share_holders"`
	SharePercentage decimal.Decimal `json:"share_percentage"`
	OtherShares     string          `json:"other_shares"`
	Comments        string          `json:"comments"`
	PaymentETAStart *time.Time      `json:"payment_eta_start"`
	PaymentETAEnd   *time.Time      `json:"payment_eta_end"`
	DateFinished    *time.Time      `json:"date_finished"`
	CreatedBy       string          `json:"-"`
}

// AddPaymentRequest records a payment against a deal root
type AddPaymentRequest struct {
	Amount    decimal.Decimal `json:"amount" binding:"decimal_positive"`
	Method    string          `json:"method"`
	Status    string          `json:"status"`
	Date      *time.Time      `json:"date"`
	Customer  *int64          `json:"customer"`
	Bearer    *int64          `json:"bearer"`
	Comments  string          `json:"comments"`
	CreatedBy string          `json:"-"`
}

// TransactionListFilter represents filter options for ledger listings
type TransactionListFilter struct {
	Search     string   `form:"search"`
	Types      []string `form:"type"`
	Method     string   `form:"method"`
	ItemID     *int64   `form:"item_id"`
	CustomerID *int64   `form:"customer_id"`
	BearerID   *int64   `form:"bearer_id"`
	RootsOnly  bool     `form:"roots_only"`
	Page       int      `form:"page" binding:"omitempty,min=1"`
	PageSize   int      `form:"page_size" binding:"omitempty,min=1,max=500"`
	OrderBy    string   `form:"order_by"`
	OrderDir   string   `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// TransactionResponse represents a ledger row in API responses
type TransactionResponse struct {
	ID                   int64           `json:"id"`
	Code                 string          `json:"code"`
	Type                 string          `json:"type"`
	Reference            int64           `json:"reference"`
	ReferenceTransaction int64           `json:"reference_transaction"`
	Amount               decimal.Decimal `json:"amount"`
	PaymentAmount        decimal.Decimal `json:"payment_amount"`
	AmountSettled        decimal.Decimal `json:"amount_settled"`
	DueAmount            decimal.Decimal `json:"due_amount"`
	Method               string          `json:"method"`
	Status               string          `json:"status"`
	Date                 time.Time       `json:"date"`
	Customer             *int64          `json:"customer,omitempty"`
	Bearer               *int64          `json:"bearer,omitempty"`
	ShareHolders         []int64         `json:"share_holders"`
	SharePercentage      decimal.Decimal `json:"share_percentage"`
	ShareValue           decimal.Decimal `json:"share_value"`
	OtherShares          string          `json:"other_shares,omitempty"`
	Comments             string          `json:"comments,omitempty"`
	PaymentETAStart      *time.Time      `json:"payment_eta_start,omitempty"`
	PaymentETAEnd        *time.Time      `json:"payment_eta_end,omitempty"`
	DateFinished         *time.Time      `json:"date_finished,omitempty"`
	IsActive             bool            `json:"is_active"`
	CreatedBy            string          `json:"created_by,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// DealResponse is a root transaction together with its live payments
type DealResponse struct {
	TransactionResponse
	Payments []TransactionResponse `json:"payments"`
}

// PaymentResponse is the outcome of adding a payment
type PaymentResponse struct {
	Payment TransactionResponse `json:"payment"`
	Root    TransactionResponse `json:"root"`
}

// ToTransactionResponse converts a domain Transaction to a response
func ToTransactionResponse(t *finance.Transaction) TransactionResponse {
	holders := t.ShareHolders
	if holders == nil {
		holders = []int64{}
	}
	return TransactionResponse{
		ID:                   t.ID,
		Code:                 t.Code,
		Type:                 string(t.Type),
		Reference:            t.Reference,
		ReferenceTransaction: t.ReferenceTransaction,
		Amount:               t.Amount,
		PaymentAmount:        t.PaymentAmount,
		AmountSettled:        t.AmountSettled,
		DueAmount:            t.DueAmount,
		Method:               string(t.Method),
		Status:               t.Status,
		Date:                 t.Date,
		Customer:             t.Customer,
		Bearer:               t.Bearer,
		ShareHolders:         holders,
		SharePercentage:      t.SharePercentage,
		ShareValue:           t.ShareValue,
		OtherShares:          t.OtherShares,
		Comments:             t.Comments,
		PaymentETAStart:      t.PaymentETAStart,
		PaymentETAEnd:        t.PaymentETAEnd,
		DateFinished:         t.DateFinished,
		IsActive:             t.IsActive,
		CreatedBy:            t.CreatedBy,
		CreatedAt:            t.CreatedAt,
		UpdatedAt:            t.UpdatedAt,
	}
}

// ToTransactionResponses converts a slice of transactions
func ToTransactionResponses(rows []finance.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, len(rows))
	for k := range rows {
		out[k] = ToTransactionResponse(&rows[k])
	}
	return out
}

// ExpenseRequest creates or replaces an expense
type ExpenseRequest struct {
	Title     string          `json:"title" binding:"required,max=200"`
	Category  string          `json:"category" binding:"max=100"`
	Amount    decimal.Decimal `json:"amount" binding:"decimal_positive"`
	Method    string          `json:"method"`
	Date      *time.Time      `json:"date"`
	Remark    string          `json:"remark"`
	CreatedBy string          `json:"-"`
}

// ExpenseListFilter represents filter options for expense listings
type ExpenseListFilter struct {
	Search   string     `form:"search"`
	Category string     `form:"category"`
	From     *time.Time `form:"from" time_format:"2006-01-02"`
	To       *time.Time `form:"to" time_format:"2006-01-02"`
	Page     int        `form:"page" binding:"omitempty,min=1"`
	PageSize int        `form:"page_size" binding:"omitempty,min=1,max=500"`
	OrderBy  string     `form:"order_by"`
	OrderDir string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ExpenseResponse represents an expense in API responses
type ExpenseResponse struct {
	ID        int64           `json:"id"`
	Title     string          `json:"title"`
	Category  string          `json:"category"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
	Date      time.Time       `json:"date"`
	Remark    string          `json:"remark,omitempty"`
	CreatedBy string          `json:"created_by,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ToExpenseResponse converts a domain Expense to a response
func ToExpenseResponse(e *finance.Expense) ExpenseResponse {
	return ExpenseResponse{
		ID:        e.ID,
		Title:     e.Title,
		Category:  e.Category,
		Amount:    e.Amount,
		Method:    string(e.Method),
		Date:      e.Date,
		Remark:    e.Remark,
		CreatedBy: e.CreatedBy,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}
