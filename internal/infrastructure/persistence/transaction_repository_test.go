package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gemerp/backend/internal/domain/finance"
	"github.com/gemerp/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func createRoot(t *testing.T, repo *GormTransactionRepository, p finance.RootParams) *finance.Transaction {
	t.Helper()
	ctx := context.Background()
	root, err := finance.NewRootTransaction(p)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, root))
	require.NoError(t, root.AssignCode())
	require.NoError(t, repo.Save(ctx, root))
	return root
}

func addPayment(t *testing.T, repo *GormTransactionRepository, root *finance.Transaction, amount string) *finance.Transaction {
	t.Helper()
	ctx := context.Background()
	payment, err := root.RecordPayment(finance.PaymentParams{Amount: d(amount)})
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, payment))
	require.NoError(t, payment.AssignCode())
	require.NoError(t, repo.Save(ctx, payment))
	require.NoError(t, repo.Save(ctx, root))
	return payment
}

func TestGormTransactionRepository_UpdateChainSettlement_SQL(t *testing.T) {
	db, mock, mockDB := newMockDB(t)
	defer mockDB.Close()
	repo := NewGormTransactionRepository(db)

	mock.ExpectExec(`UPDATE "transactions" SET .*"amount_settled"=\$1.*WHERE reference_transaction = \$\d+ AND is_active = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.UpdateChainSettlement(context.Background(), 1, finance.ChainSettlement{AmountSettled: d("1000"), DueAmount: d("0")})

	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormTransactionRepository_SQLite(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	repo := NewGormTransactionRepository(db)

	past := time.Now().Add(-48 * time.Hour).UTC()
	customer := int64(11)
	buy := createRoot(t, repo, finance.RootParams{
		Type:           finance.TypeBuying,
		ItemID:         1,
		Amount:         d("1000"),
		InitialPayment: d("600"),
		Method:         finance.MethodCash,
		Customer:       &customer,
		ShareHolders:   []int64{4, 2},
		PaymentETAEnd:  &past,
	})
	sell := createRoot(t, repo, finance.RootParams{
		Type:           finance.TypeSelling,
		ItemID:         2,
		Amount:         d("500"),
		InitialPayment: d("500"),
		Method:         finance.MethodBank,
	})

	t.Run("root references itself and carries its code", func(t *testing.T) {
		found, err := repo.FindByID(ctx, buy.ID)
		require.NoError(t, err)
		assert.Equal(t, "B0001", found.Code)
		assert.Equal(t, buy.ID, found.ReferenceTransaction)
		assert.Equal(t, []int64{4, 2}, found.ShareHolders)
		assert.True(t, found.DueAmount.Equal(d("400")))
	})

	p1 := addPayment(t, repo, buy, "150")
	p2 := addPayment(t, repo, buy, "50")

	t.Run("chain lists payments oldest first", func(t *testing.T) {
		chain, err := repo.FindChain(ctx, buy.ID)
		require.NoError(t, err)
		require.Len(t, chain, 2)
		assert.Equal(t, p1.ID, chain[0].ID)
		assert.Equal(t, "BP0003", chain[0].Code)
		assert.Equal(t, p2.ID, chain[1].ID)
		assert.True(t, chain[1].AmountSettled.Equal(d("800")))
	})

	t.Run("chain settlement reaches every active row", func(t *testing.T) {
		n, err := repo.UpdateChainSettlement(ctx, buy.ID, finance.ChainSettlement{AmountSettled: d("800"), DueAmount: d("200"), Status: "Part paid"})
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)

		root, err := repo.FindByIDForUpdate(ctx, buy.ID)
		require.NoError(t, err)
		assert.Equal(t, "Part paid", root.Status)
		assert.True(t, root.DueAmount.Equal(d("200")))
	})

	t.Run("overdue roots", func(t *testing.T) {
		overdue, err := repo.FindOverdue(ctx, time.Now())
		require.NoError(t, err)
		require.Len(t, overdue, 1)
		assert.Equal(t, buy.ID, overdue[0].ID)
	})

	t.Run("filters", func(t *testing.T) {
		roots, total, err := repo.FindAll(ctx, finance.TransactionFilter{RootsOnly: true, Filter: shared.DefaultFilter()})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, roots, 2)

		bank, _, err := repo.FindAll(ctx, finance.TransactionFilter{Method: finance.MethodBank, Filter: shared.DefaultFilter()})
		require.NoError(t, err)
		require.Len(t, bank, 1)
		assert.Equal(t, sell.ID, bank[0].ID)

		item := int64(1)
		rows, total, err := repo.FindAll(ctx, finance.TransactionFilter{ItemID: &item, Filter: shared.DefaultFilter()})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Len(t, rows, 3)
	})

	t.Run("deactivate single row then the chain", func(t *testing.T) {
		n, err := repo.Deactivate(ctx, p1.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		n, err = repo.Deactivate(ctx, p1.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)

		n, err = repo.DeactivateChain(ctx, buy.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		_, err = repo.FindByID(ctx, buy.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)

		stillOpen, err := repo.FindOpenRoots(ctx)
		require.NoError(t, err)
		require.Len(t, stillOpen, 1)
		assert.Equal(t, sell.ID, stillOpen[0].ID)
	})
}

func TestGormExpenseRepository_SQLite(t *testing.T) {
	ctx := context.Background()
	repo := NewGormExpenseRepository(newSQLiteDB(t))

	for _, p := range []finance.ExpenseParams{
		{Title: "Furnace gas", Category: "Heat treatment", Amount: d("120.50"), Date: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
		{Title: "Courier", Category: "Logistics", Amount: d("30"), Date: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)},
	} {
		e, err := finance.NewExpense(p)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, e))
	}

	from := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	rows, total, err := repo.FindAll(ctx, finance.ExpenseFilter{From: &from, Filter: shared.DefaultFilter()})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "Courier", rows[0].Title)

	e, err := repo.FindByID(ctx, rows[0].ID)
	require.NoError(t, err)
	e.Deactivate()
	require.NoError(t, repo.Save(ctx, e))

	_, err = repo.FindByID(ctx, e.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	missing := &finance.Expense{}
	missing.ID = 999
	assert.ErrorIs(t, repo.Save(ctx, missing), shared.ErrWriteFailed)
}
