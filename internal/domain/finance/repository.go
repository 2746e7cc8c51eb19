package finance

import (
	"context"
	"time"

	"github.com/gemerp/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// TransactionFilter defines filtering options for ledger queries
type TransactionFilter struct {
	shared.Filter
	Types      []TransactionType // empty means all types
	Method     PaymentMethod     // exact method match
	ItemID     *int64            // transactions referencing an item
	CustomerID *int64            // transactions with a counterparty
	BearerID   *int64            // transactions carried by a sales person
	RootsOnly  bool              // Buying and Selling rows only
}

// ChainSettlement is the cumulative state pushed onto every active row of a chain
type ChainSettlement struct {
	AmountSettled decimal.Decimal
	DueAmount     decimal.Decimal
	Status        string
}

// TransactionRepository defines the interface for ledger persistence
type TransactionRepository interface {
	// FindByID finds an active transaction by ID
	FindByID(ctx context.Context, id int64) (*Transaction, error)

	// FindByIDForUpdate loads a transaction regardless of state and locks its row
	FindByIDForUpdate(ctx context.Context, id int64) (*Transaction, error)

	// FindChain returns the active payments of a root, oldest first
	FindChain(ctx context.Context, rootID int64) ([]Transaction, error)

	// FindAll lists transactions with filtering and pagination
	FindAll(ctx context.Context, filter TransactionFilter) ([]Transaction, int64, error)

	// FindOverdue lists active roots with a positive due whose payment window ended before now
	FindOverdue(ctx context.Context, now time.Time) ([]Transaction, error)

	// FindOpenRoots lists active roots for reference pickers
	FindOpenRoots(ctx context.Context) ([]Transaction, error)

	// Create inserts a new transaction and sets its ID
	Create(ctx context.Context, txn *Transaction) error

	// Save updates an existing transaction. Zero affected rows is a write failure.
	Save(ctx context.Context, txn *Transaction) error

	// UpdateChainSettlement writes the cumulative settlement onto every active row of the chain
	UpdateChainSettlement(ctx context.Context, rootID int64, s ChainSettlement) (int64, error)

	// Deactivate soft-deletes a single row and returns the affected row count
	Deactivate(ctx context.Context, id int64) (int64, error)

	// DeactivateChain soft-deletes every row sharing the root's chain reference
	DeactivateChain(ctx context.Context, rootID int64) (int64, error)
}

// ExpenseFilter defines filtering options for expense queries
type ExpenseFilter struct {
	shared.Filter
	Category string
	From     *time.Time
	To       *time.Time
}

// ExpenseRepository defines the interface for expense persistence
type ExpenseRepository interface {
	FindByID(ctx context.Context, id int64) (*Expense, error)
	FindAll(ctx context.Context, filter ExpenseFilter) ([]Expense, int64, error)
	Create(ctx context.Context, expense *Expense) error
	Save(ctx context.Context, expense *Expense) error
}
