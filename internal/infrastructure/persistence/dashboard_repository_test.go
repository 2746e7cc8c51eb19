package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/gemerp/backend/internal/domain/finance"
	"github.com/gemerp/backend/internal/domain/inventory"
	"github.com/gemerp/backend/internal/domain/report"
	"github.com/gemerp/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormDashboardRepository_SQLite(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	items := NewGormItemRepository(db)
	txns := NewGormTransactionRepository(db)
	expenses := NewGormExpenseRepository(db)
	repo := NewGormDashboardRepository(db)

	createItem(t, items, newTestItem(t, inventory.TypeRough, "Blue Sapphire Natural"))
	createItem(t, items, newTestItem(t, inventory.TypeRough, "Blue Sapphire Natural"))
	createItem(t, items, newTestItem(t, inventory.TypeRough, "Mix"))
	sold := createItem(t, items, newTestItem(t, inventory.TypeRough, "Fancy"))
	sold.Status = inventory.StatusSold
	sold.IsInInventory = false
	require.NoError(t, items.Save(ctx, sold))

	march := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	july := time.Date(2026, 7, 2, 0, 0, 0, 0, time.UTC)
	buy := createRoot(t, txns, finance.RootParams{
		Type: finance.TypeBuying, ItemID: 1, Amount: d("1000"), InitialPayment: d("600"),
		Method: finance.MethodCash, Date: march,
	})
	payment, err := buy.RecordPayment(finance.PaymentParams{Amount: d("400"), Method: finance.MethodBank, Date: july})
	require.NoError(t, err)
	require.NoError(t, txns.Create(ctx, payment))
	createRoot(t, txns, finance.RootParams{
		Type: finance.TypeSelling, ItemID: 4, Amount: d("1500"), InitialPayment: d("1500"),
		Method: finance.MethodCash, Date: july,
	})

	expense, err := finance.NewExpense(finance.ExpenseParams{Title: "Lab report", Amount: d("75")})
	require.NoError(t, err)
	require.NoError(t, expenses.Create(ctx, expense))

	t.Run("inventory grouped by subtype", func(t *testing.T) {
		counts, err := repo.CountInInventoryBySubtype(ctx, string(inventory.TypeRough))
		require.NoError(t, err)
		assert.Equal(t, []report.SubtypeCount{
			{Subtype: "Blue Sapphire Natural", Count: 2},
			{Subtype: "Mix", Count: 1},
		}, counts)

		_, err = repo.CountInInventoryBySubtype(ctx, "Opal")
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("sold count", func(t *testing.T) {
		n, err := repo.CountSold(ctx, string(inventory.TypeRough))
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("monthly buy flow", func(t *testing.T) {
		rows, err := repo.SumPaymentsByMonth(ctx, report.SideBuy, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)

		series := report.NewMonthlySeries()
		for _, row := range rows {
			series.Add(row.Month, row.Amount)
		}
		assert.True(t, series[2].Equal(d("600")), "march: %s", series[2])
		assert.True(t, series[6].Equal(d("400")), "july: %s", series[6])
	})

	t.Run("payments by method", func(t *testing.T) {
		cash, err := repo.SumPayments(ctx, report.SideBuy, string(finance.MethodCash))
		require.NoError(t, err)
		assert.True(t, cash.Equal(d("600")))

		bank, err := repo.SumPayments(ctx, report.SideBuy, string(finance.MethodBank))
		require.NoError(t, err)
		assert.True(t, bank.Equal(d("400")))

		sellCash, err := repo.SumPayments(ctx, report.SideSell, string(finance.MethodCash))
		require.NoError(t, err)
		assert.True(t, sellCash.Equal(d("1500")))

		none, err := repo.SumPayments(ctx, report.SideSell, string(finance.MethodCheque))
		require.NoError(t, err)
		assert.True(t, none.IsZero())
	})

	t.Run("expenses", func(t *testing.T) {
		total, err := repo.SumExpenses(ctx)
		require.NoError(t, err)
		assert.True(t, total.Equal(d("75")))
	})
}
