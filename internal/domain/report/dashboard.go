package report

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// SubtypeCount is the number of matching items of one subtype
type SubtypeCount struct {
	Subtype string `json:"subtype"`
	Count   int64  `json:"count"`
}

// InventoryCounts groups in-inventory item counts by type, then subtype
type InventoryCounts struct {
	Rough          []SubtypeCount `json:"rough"`
	Lots           []SubtypeCount `json:"lots"`
	SortedLots     []SubtypeCount `json:"sorted_lots"`
	CutAndPolished []SubtypeCount `json:"cut_and_polished"`
}

// SoldCounts is the number of sold items per type
type SoldCounts struct {
	Rough          int64 `json:"rough"`
	Lots           int64 `json:"lots"`
	SortedLots     int64 `json:"sorted_lots"`
	CutAndPolished int64 `json:"cut_and_polished"`
}

// MonthlySeries holds one amount per calendar month, January first
type MonthlySeries [12]decimal.Decimal

// NewMonthlySeries returns a series of zeros
func NewMonthlySeries() MonthlySeries {
	var s MonthlySeries
	for k := range s {
		s[k] = decimal.Zero
	}
	return s
}

// Add accumulates an amount into a month (1-12). Out-of-range months are ignored.
func (s *MonthlySeries) Add(month int, amount decimal.Decimal) {
	if month < 1 || month > 12 {
		return
	}
	s[month-1] = s[month-1].Add(amount)
}

// TradeVolume is the buy and sell payment flow per month
type TradeVolume struct {
	Since time.Time     `json:"since"`
	Buy   MonthlySeries `json:"buy"`
	Sell  MonthlySeries `json:"sell"`
}

// CashPosition summarises money in and out by method
type CashPosition struct {
	BuyCashOut    decimal.Decimal `json:"buy_cash_out"`
	SellCashIn    decimal.Decimal `json:"sell_cash_in"`
	CashBalance   decimal.Decimal `json:"cash_balance"`
	BuyBankOut    decimal.Decimal `json:"buy_bank_out"`
	SellBankIn    decimal.Decimal `json:"sell_bank_in"`
	BankBalance   decimal.Decimal `json:"bank_balance"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
}

// Settle computes the balances from the in and out figures
func (c *CashPosition) Settle() {
	c.CashBalance = c.SellCashIn.Sub(c.BuyCashOut)
	c.BankBalance = c.SellBankIn.Sub(c.BuyBankOut)
}

// MonthAmount is a raw per-month sum as returned by the store
type MonthAmount struct {
	Month  int
	Amount decimal.Decimal
}

// Side selects buy-side or sell-side ledger rows
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// DashboardRepository defines the read-only aggregate queries behind the dashboard
type DashboardRepository interface {
	// CountInInventoryBySubtype counts active in-inventory items of a type, grouped by subtype
	CountInInventoryBySubtype(ctx context.Context, itemType string) ([]SubtypeCount, error)

	// CountSold counts active items of a type whose status is Sold
	CountSold(ctx context.Context, itemType string) (int64, error)

	// SumPaymentsByMonth totals PaymentAmount of active rows on one side since a date, per month
	SumPaymentsByMonth(ctx context.Context, side Side, since time.Time) ([]MonthAmount, error)

	// SumPayments totals PaymentAmount of active rows on one side for a method
	SumPayments(ctx context.Context, side Side, method string) (decimal.Decimal, error)

	// SumExpenses totals active expenses
	SumExpenses(ctx context.Context) (decimal.Decimal, error)
}
