package inventory

import (
	"context"

	"github.com/gemerp/backend/internal/domain/shared"
)

// ItemFilter narrows item listings
type ItemFilter struct {
	shared.Filter
	Type          ItemType
	Status        ItemStatus
	InInventory   *bool
	IncludeClosed bool // include inactive rows
}

// ItemRepository defines the interface for item persistence
type ItemRepository interface {
	// FindByID finds an active item by ID
	FindByID(ctx context.Context, id int64) (*Item, error)

	// FindByIDForUpdate loads an item regardless of state and locks its row until the transaction ends
	FindByIDForUpdate(ctx context.Context, id int64) (*Item, error)

	// FindByIDsForUpdate locks several items, returned in the order of ids
	FindByIDsForUpdate(ctx context.Context, ids []int64) ([]*Item, error)

	// FindByCode finds an active item by its human code
	FindByCode(ctx context.Context, code string) (*Item, error)

	// FindAll lists items with filtering and pagination
	FindAll(ctx context.Context, filter ItemFilter) ([]Item, int64, error)

	// FindHeldBy lists active items out with a customer in the given role
	FindHeldBy(ctx context.Context, customerID int64, role HolderRole) ([]Item, error)

	// FindByShareHolder lists active items in which a customer holds a share
	FindByShareHolder(ctx context.Context, customerID int64) ([]Item, error)

	// Create inserts a new item and sets its ID
	Create(ctx context.Context, item *Item) error

	// Save updates an existing item. Zero affected rows is a write failure.
	Save(ctx context.Context, item *Item) error
}
