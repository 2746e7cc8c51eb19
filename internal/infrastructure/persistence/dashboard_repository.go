package persistence

import (
	"context"
	"time"

	"github.com/gemerp/backend/internal/domain/finance"
	"github.com/gemerp/backend/internal/domain/inventory"
	"github.com/gemerp/backend/internal/domain/report"
	"github.com/gemerp/backend/internal/domain/shared"
	"github.com/gemerp/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type sumRow struct {
	Total decimal.Decimal
}

// GormDashboardRepository implements the dashboard aggregate queries using GORM
type GormDashboardRepository struct {
	db *gorm.DB
}

// NewGormDashboardRepository creates a new GormDashboardRepository
func NewGormDashboardRepository(db *gorm.DB) *GormDashboardRepository {
	return &GormDashboardRepository{db: db}
}

// CountInInventoryBySubtype counts active in-inventory items of a type, grouped by subtype
func (r *GormDashboardRepository) CountInInventoryBySubtype(ctx context.Context, itemType string) ([]report.SubtypeCount, error) {
	column := models.SubtypeColumn(inventory.ItemType(itemType))
	if column == "" {
		return nil, shared.NewValidationError("unknown item type %q", itemType)
	}

	var counts []report.SubtypeCount
	if err := r.db.WithContext(ctx).
		Model(&models.ItemModel{}).
		Select(column+" AS subtype, COUNT(*) AS count").
		Where("item_type = ? AND is_active = ? AND is_in_inventory = ?", itemType, true, true).
		Group(column).
		Order(column).
		Scan(&counts).Error; err != nil {
		return nil, translateError("count inventory", err)
	}
	return counts, nil
}

// CountSold counts active items of a type whose status is Sold
func (r *GormDashboardRepository) CountSold(ctx context.Context, itemType string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ItemModel{}).
		Where("item_type = ? AND is_active = ? AND status = ?", itemType, true, inventory.StatusSold).
		Count(&count).Error; err != nil {
		return 0, translateError("count sold items", err)
	}
	return count, nil
}

// SumPaymentsByMonth totals payment amounts of active rows on one side since a date, per calendar month
func (r *GormDashboardRepository) SumPaymentsByMonth(ctx context.Context, side report.Side, since time.Time) ([]report.MonthAmount, error) {
	month := r.monthExpr("date")
	var rows []struct {
		Month  int
		Amount decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.TransactionModel{}).
		Select(month+" AS month, COALESCE(SUM(payment_amount), 0) AS amount").
		Where("transaction_type IN ? AND is_active = ? AND date >= ?", sideTypes(side), true, since).
		Group(month).
		Scan(&rows).Error; err != nil {
		return nil, translateError("sum payments by month", err)
	}

	out := make([]report.MonthAmount, len(rows))
	for k, row := range rows {
		out[k] = report.MonthAmount{Month: row.Month, Amount: row.Amount}
	}
	return out, nil
}

// SumPayments totals payment amounts of active rows on one side for a method
func (r *GormDashboardRepository) SumPayments(ctx context.Context, side report.Side, method string) (decimal.Decimal, error) {
	var row sumRow
	if err := r.db.WithContext(ctx).
		Model(&models.TransactionModel{}).
		Select("COALESCE(SUM(payment_amount), 0) AS total").
		Where("transaction_type IN ? AND is_active = ? AND method = ?", sideTypes(side), true, method).
		Scan(&row).Error; err != nil {
		return decimal.Zero, translateError("sum payments", err)
	}
	return row.Total, nil
}

// SumExpenses totals active expenses
func (r *GormDashboardRepository) SumExpenses(ctx context.Context) (decimal.Decimal, error) {
	var row sumRow
	if err := r.db.WithContext(ctx).
		Model(&models.ExpenseModel{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("is_active = ?", true).
		Scan(&row).Error; err != nil {
		return decimal.Zero, translateError("sum expenses", err)
	}
	return row.Total, nil
}

// monthExpr extracts the calendar month of a column in the current dialect
func (r *GormDashboardRepository) monthExpr(column string) string {
	switch r.db.Dialector.Name() {
	case "mysql":
		return "MONTH(" + column + ")"
	case "sqlite":
		return "CAST(strftime('%m', " + column + ") AS INTEGER)"
	default:
		return "CAST(EXTRACT(MONTH FROM " + column + ") AS INTEGER)"
	}
}

func sideTypes(side report.Side) []finance.TransactionType {
	if side == report.SideBuy {
		return []finance.TransactionType{finance.TypeBuying, finance.TypeBuyPayment}
	}
	return []finance.TransactionType{finance.TypeSelling, finance.TypeSellPayment}
}

// Ensure GormDashboardRepository implements DashboardRepository
var _ report.DashboardRepository = (*GormDashboardRepository)(nil)
