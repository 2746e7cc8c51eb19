package finance

import (
	"context"

	"github.com/gemerp/backend/internal/domain/finance"
	"go.uber.org/zap"
)

// ExpenseService manages operating expenses
type ExpenseService struct {
	expenseRepo finance.ExpenseRepository
	logger      *zap.Logger
}

// NewExpenseService creates a new ExpenseService
func NewExpenseService(expenseRepo finance.ExpenseRepository, logger *zap.Logger) *ExpenseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExpenseService{expenseRepo: expenseRepo, logger: logger}
}

// Create records a new expense
func (s *ExpenseService) Create(ctx context.Context, req ExpenseRequest) (*ExpenseResponse, error) {
	expense, err := finance.NewExpense(expenseParams(req))
	if err != nil {
		return nil, err
	}
	if err := s.expenseRepo.Create(ctx, expense); err != nil {
		return nil, err
	}
	s.logger.Info("expense recorded",
		zap.Int64("expense_id", expense.ID),
		zap.String("amount", expense.Amount.String()),
	)
	resp := ToExpenseResponse(expense)
	return &resp, nil
}

// Update replaces the editable values of an expense
func (s *ExpenseService) Update(ctx context.Context, id int64, req ExpenseRequest) (*ExpenseResponse, error) {
	expense, err := s.expenseRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := expense.Update(expenseParams(req)); err != nil {
		return nil, err
	}
	if err := s.expenseRepo.Save(ctx, expense); err != nil {
		return nil, err
	}
	resp := ToExpenseResponse(expense)
	return &resp, nil
}

// Deactivate soft-deletes an expense
func (s *ExpenseService) Deactivate(ctx context.Context, id int64) error {
	expense, err := s.expenseRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	expense.Deactivate()
	if err := s.expenseRepo.Save(ctx, expense); err != nil {
		return err
	}
	s.logger.Info("expense deactivated", zap.Int64("expense_id", id))
	return nil
}

// GetByID returns a live expense
func (s *ExpenseService) GetByID(ctx context.Context, id int64) (*ExpenseResponse, error) {
	expense, err := s.expenseRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToExpenseResponse(expense)
	return &resp, nil
}

// List lists live expenses
func (s *ExpenseService) List(ctx context.Context, filter ExpenseListFilter) ([]ExpenseResponse, int64, error) {
	rows, total, err := s.expenseRepo.FindAll(ctx, finance.ExpenseFilter{
		Filter:   listFilter(filter.Search, filter.Page, filter.PageSize, filter.OrderBy, filter.OrderDir),
		Category: filter.Category,
		From:     filter.From,
		To:       filter.To,
	})
	if err != nil {
		return nil, 0, err
	}
	out := make([]ExpenseResponse, len(rows))
	for k := range rows {
		out[k] = ToExpenseResponse(&rows[k])
	}
	return out, total, nil
}

func expenseParams(req ExpenseRequest) finance.ExpenseParams {
	return finance.ExpenseParams{
		Title:     req.Title,
		Category:  req.Category,
		Amount:    req.Amount,
		Method:    finance.ParsePaymentMethod(req.Method),
		Date:      timeOrZero(req.Date),
		Remark:    req.Remark,
		CreatedBy: req.CreatedBy,
	}
}
