package partner

import "github.com/gemerp/backend/internal/domain/shared"

// Aggregate type constant
const AggregateTypeCustomer = "Customer"

// Event type constants
const (
	EventTypeCustomerCreated     = "CustomerCreated"
	EventTypeCustomerUpdated     = "CustomerUpdated"
	EventTypeCustomerDeactivated = "CustomerDeactivated"
)

// CustomerEvent carries a customer lifecycle change
type CustomerEvent struct {
	shared.BaseDomainEvent
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

// NewCustomerEvent creates a customer event of the given type
func NewCustomerEvent(eventType string, c *Customer) *CustomerEvent {
	return &CustomerEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeCustomer, c.ID),
		Name:            c.Name,
		PhoneNumber:     c.PhoneNumber,
	}
}
