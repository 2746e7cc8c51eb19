// Package common holds the contracts shared by every application service:
// the transaction scope that makes multi-step workflows atomic, the
// distributed locker and event publishing helpers.
package common

import (
	"context"

	"github.com/gemerp/backend/internal/domain/finance"
	"github.com/gemerp/backend/internal/domain/inventory"
	"github.com/gemerp/backend/internal/domain/partner"
	"github.com/gemerp/backend/internal/domain/processing"
)

// TransactionScope defines an interface for executing operations within a database transaction.
// Implementations ensure that all repository operations within the scope are atomic.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all repositories within a transaction.
// All repositories returned share the same underlying database transaction.
//
// Item mirrors of the ledger are written through ItemRepo and TransactionRepo in the
// same scope, so the item never observes a half-applied payment.
type TransactionalRepositories interface {
	ItemRepo() inventory.ItemRepository
	TransactionRepo() finance.TransactionRepository
	ExpenseRepo() finance.ExpenseRepository
	CutPolishRepo() processing.CutPolishRepository
	SortLotRepo() processing.SortLotRepository
	HeatGroupRepo() processing.HeatTreatmentGroupRepository
	HeatTreatmentRepo() processing.HeatTreatmentRepository
	CustomerRepo() partner.CustomerRepository
}

// Repositories is a plain bundle of repositories. It satisfies TransactionalRepositories
// and is what NoOpTransactionScope hands to the workflow.
type Repositories struct {
	Items          inventory.ItemRepository
	Transactions   finance.TransactionRepository
	Expenses       finance.ExpenseRepository
	CutPolish      processing.CutPolishRepository
	SortLots       processing.SortLotRepository
	HeatGroups     processing.HeatTreatmentGroupRepository
	HeatTreatments processing.HeatTreatmentRepository
	Customers      partner.CustomerRepository
}

func (r *Repositories) ItemRepo() inventory.ItemRepository                    { return r.Items }
func (r *Repositories) TransactionRepo() finance.TransactionRepository         { return r.Transactions }
func (r *Repositories) ExpenseRepo() finance.ExpenseRepository                 { return r.Expenses }
func (r *Repositories) CutPolishRepo() processing.CutPolishRepository          { return r.CutPolish }
func (r *Repositories) SortLotRepo() processing.SortLotRepository              { return r.SortLots }
func (r *Repositories) HeatGroupRepo() processing.HeatTreatmentGroupRepository { return r.HeatGroups }
func (r *Repositories) HeatTreatmentRepo() processing.HeatTreatmentRepository  { return r.HeatTreatments }
func (r *Repositories) CustomerRepo() partner.CustomerRepository               { return r.Customers }

// NoOpTransactionScope is a transaction scope that doesn't actually use transactions.
// This is useful for testing or when transaction support is not required.
type NoOpTransactionScope struct {
	repos *Repositories
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(repos *Repositories) *NoOpTransactionScope {
	return &NoOpTransactionScope{repos: repos}
}

// Execute runs the function without a real transaction (for testing/compatibility).
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s.repos)
}

var (
	_ TransactionScope          = (*NoOpTransactionScope)(nil)
	_ TransactionalRepositories = (*Repositories)(nil)
)
