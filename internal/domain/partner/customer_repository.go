package partner

import (
	"context"
	"time"

	"github.com/gemerp/backend/internal/domain/shared"
)

// CustomerRepository defines the interface for customer persistence
type CustomerRepository interface {
	// FindByID finds an active customer by ID
	FindByID(ctx context.Context, id int64) (*Customer, error)

	// FindAll finds active customers; Search matches name, company and phone
	FindAll(ctx context.Context, filter shared.Filter) ([]Customer, int64, error)

	// FindByIDs finds active customers by their IDs
	FindByIDs(ctx context.Context, ids []int64) ([]Customer, error)

	// FindWithOverdue finds active customers on an active root whose due is
	// positive and whose payment window ended before now
	FindWithOverdue(ctx context.Context, now time.Time) ([]Customer, error)

	// Create inserts a new customer and sets its ID
	Create(ctx context.Context, customer *Customer) error

	// Save updates an existing customer
	Save(ctx context.Context, customer *Customer) error
}
