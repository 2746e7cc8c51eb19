package persistence

import (
	"context"

	"github.com/gemerp/backend/internal/application/common"
	"github.com/gemerp/backend/internal/domain/finance"
	"github.com/gemerp/backend/internal/domain/inventory"
	"github.com/gemerp/backend/internal/domain/partner"
	"github.com/gemerp/backend/internal/domain/processing"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos common.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// ItemRepo returns the item repository scoped to the current transaction.
func (r *gormTransactionalRepositories) ItemRepo() inventory.ItemRepository {
	return NewGormItemRepository(r.tx)
}

// TransactionRepo returns the ledger repository scoped to the current transaction.
func (r *gormTransactionalRepositories) TransactionRepo() finance.TransactionRepository {
	return NewGormTransactionRepository(r.tx)
}

// ExpenseRepo returns the expense repository scoped to the current transaction.
func (r *gormTransactionalRepositories) ExpenseRepo() finance.ExpenseRepository {
	return NewGormExpenseRepository(r.tx)
}

// CutPolishRepo returns the cut-and-polish record repository scoped to the current transaction.
func (r *gormTransactionalRepositories) CutPolishRepo() processing.CutPolishRepository {
	return NewGormCutPolishRepository(r.tx)
}

// SortLotRepo returns the sort record repository scoped to the current transaction.
func (r *gormTransactionalRepositories) SortLotRepo() processing.SortLotRepository {
	return NewGormSortLotRepository(r.tx)
}

// HeatGroupRepo returns the heat treatment group repository scoped to the current transaction.
func (r *gormTransactionalRepositories) HeatGroupRepo() processing.HeatTreatmentGroupRepository {
	return NewGormHeatTreatmentGroupRepository(r.tx)
}

// HeatTreatmentRepo returns the heat treatment repository scoped to the current transaction.
func (r *gormTransactionalRepositories) HeatTreatmentRepo() processing.HeatTreatmentRepository {
	return NewGormHeatTreatmentRepository(r.tx)
}

// CustomerRepo returns the customer repository scoped to the current transaction.
func (r *gormTransactionalRepositories) CustomerRepo() partner.CustomerRepository {
	return NewGormCustomerRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ common.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ common.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
