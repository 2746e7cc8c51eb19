package persistence

import (
	"context"

	"github.com/gemerp/backend/internal/domain/finance"
	"github.com/gemerp/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormExpenseRepository implements ExpenseRepository using GORM
type GormExpenseRepository struct {
	db *gorm.DB
}

// NewGormExpenseRepository creates a new GormExpenseRepository
func NewGormExpenseRepository(db *gorm.DB) *GormExpenseRepository {
	return &GormExpenseRepository{db: db}
}

// FindByID finds an active expense by its ID
func (r *GormExpenseRepository) FindByID(ctx context.Context, id int64) (*finance.Expense, error) {
	var model models.ExpenseModel
	if err := r.db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&model).Error; err != nil {
		return nil, notFound("expense", id, err)
	}
	return model.ToDomain(), nil
}

// FindAll lists active expenses with filtering and pagination
func (r *GormExpenseRepository) FindAll(ctx context.Context, filter finance.ExpenseFilter) ([]finance.Expense, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ExpenseModel{}).Where("is_active = ?", true)
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.From != nil {
		query = query.Where("date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("date <= ?", *filter.To)
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("LOWER(title) LIKE ? OR LOWER(remark) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError("count expenses", err)
	}

	var rows []models.ExpenseModel
	if err := applyFilter(query, filter.Filter, ExpenseSortFields).Find(&rows).Error; err != nil {
		return nil, 0, translateError("list expenses", err)
	}
	expenses := make([]finance.Expense, len(rows))
	for k := range rows {
		expenses[k] = *rows[k].ToDomain()
	}
	return expenses, total, nil
}

// Create inserts a new expense and sets its ID
func (r *GormExpenseRepository) Create(ctx context.Context, expense *finance.Expense) error {
	model := models.ExpenseModelFromDomain(expense)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return translateError("create expense", err)
	}
	expense.ID = model.ID
	return nil
}

// Save updates an existing expense
func (r *GormExpenseRepository) Save(ctx context.Context, expense *finance.Expense) error {
	model := models.ExpenseModelFromDomain(expense)
	result := r.db.WithContext(ctx).Model(model).Select("*").Omit("id", "created_at").Updates(model)
	if err := expectRows(result, "save expense %d", expense.ID); err != nil {
		return err
	}
	expense.UpdatedAt = model.UpdatedAt
	return nil
}

// Ensure GormExpenseRepository implements ExpenseRepository
var _ finance.ExpenseRepository = (*GormExpenseRepository)(nil)
