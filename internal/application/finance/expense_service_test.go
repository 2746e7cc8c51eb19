package finance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gemerp/backend/internal/domain/finance"
	"github.com/gemerp/backend/internal/domain/shared"
	"github.com/gemerp/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockExpenseRepository is a mock implementation of finance.ExpenseRepository
type MockExpenseRepository struct {
	mock.Mock
}

func (m *MockExpenseRepository) FindByID(ctx context.Context, id int64) (*finance.Expense, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.Expense), args.Error(1)
}

func (m *MockExpenseRepository) FindAll(ctx context.Context, filter finance.ExpenseFilter) ([]finance.Expense, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]finance.Expense), args.Get(1).(int64), args.Error(2)
}

func (m *MockExpenseRepository) Create(ctx context.Context, expense *finance.Expense) error {
	args := m.Called(ctx, expense)
	return args.Error(0)
}

func (m *MockExpenseRepository) Save(ctx context.Context, expense *finance.Expense) error {
	args := m.Called(ctx, expense)
	return args.Error(0)
}

func TestExpenseService_Create(t *testing.T) {
	repo := new(MockExpenseRepository)
	svc := NewExpenseService(repo, nil)

	repo.On("Create", mock.Anything, mock.MatchedBy(func(e *finance.Expense) bool {
		return e.Title == "Lab certificate" && e.Method == finance.MethodBank && e.IsActive
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*finance.Expense).ID = 7
	}).Return(nil)

	resp, err := svc.Create(context.Background(), ExpenseRequest{
		Title:    "  Lab certificate ",
		Category: "Certification",
		Amount:   testutil.Dec("150.00"),
		Method:   "BANK",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), resp.ID)
	assert.Equal(t, "Bank", resp.Method)
	assert.False(t, resp.Date.IsZero())
	repo.AssertExpectations(t)
}

func TestExpenseService_CreateValidation(t *testing.T) {
	repo := new(MockExpenseRepository)
	svc := NewExpenseService(repo, nil)

	_, err := svc.Create(context.Background(), ExpenseRequest{Title: "", Amount: testutil.Dec("10")})
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(context.Background(), ExpenseRequest{Title: "Rent", Amount: testutil.Dec("0")})
	assert.ErrorIs(t, err, shared.ErrValidation)

	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestExpenseService_UpdateNotFound(t *testing.T) {
	repo := new(MockExpenseRepository)
	svc := NewExpenseService(repo, nil)
	repo.On("FindByID", mock.Anything, int64(3)).Return(nil, shared.NewNotFoundError("expense", int64(3)))

	_, err := svc.Update(context.Background(), 3, ExpenseRequest{Title: "Rent", Amount: testutil.Dec("10")})
	assert.ErrorIs(t, err, shared.ErrNotFound)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestExpenseService_SaveFailure(t *testing.T) {
	repo := new(MockExpenseRepository)
	svc := NewExpenseService(repo, nil)
	expense, err := finance.NewExpense(finance.ExpenseParams{Title: "Travel", Amount: testutil.Dec("80")})
	require.NoError(t, err)
	expense.ID = 4

	writeErr := errors.New("disk full")
	repo.On("FindByID", mock.Anything, int64(4)).Return(expense, nil)
	repo.On("Save", mock.Anything, expense).Return(writeErr)

	err = svc.Deactivate(context.Background(), 4)
	assert.ErrorIs(t, err, writeErr)
}

func TestExpenseService_Workflow(t *testing.T) {
	env := testutil.NewEnv(t)
	svc := NewExpenseService(env.Repos.Expenses, nil)
	ctx := context.Background()

	march := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	april := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)

	rent, err := svc.Create(ctx, ExpenseRequest{Title: "Office rent", Category: "Rent", Amount: testutil.Dec("1200"), Date: &march})
	require.NoError(t, err)
	_, err = svc.Create(ctx, ExpenseRequest{Title: "Colombo trip", Category: "Travel", Amount: testutil.Dec("300"), Date: &april})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, rent.ID, ExpenseRequest{Title: "Office rent March", Category: "Rent", Amount: testutil.Dec("1250"), Date: &march})
	require.NoError(t, err)
	assert.True(t, updated.Amount.Equal(testutil.Dec("1250")))

	got, err := svc.GetByID(ctx, rent.ID)
	require.NoError(t, err)
	assert.Equal(t, "Office rent March", got.Title)

	rows, total, err := svc.List(ctx, ExpenseListFilter{Category: "Travel"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "Colombo trip", rows[0].Title)

	from := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	rows, _, err = svc.List(ctx, ExpenseListFilter{From: &from})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Colombo trip", rows[0].Title)

	require.NoError(t, svc.Deactivate(ctx, rent.ID))
	_, err = svc.GetByID(ctx, rent.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, total, err = svc.List(ctx, ExpenseListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}
