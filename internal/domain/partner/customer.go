package partner

import (
	"strings"

	"github.com/gemerp/backend/internal/domain/shared"
	"github.com/ttacon/libphonenumber"
)

// DefaultPhoneRegion is used for numbers entered without a country prefix
const DefaultPhoneRegion = "LK"

// Customer is any counterparty: a buyer, a seller, a sales person carrying
// stones, a cutter, a heater or a partner holding a share.
type Customer struct {
	shared.BaseAggregateRoot
	Name        string
	Company     string
	PhoneNumber string // E.164 when present
	Email       string
	NIC         string
	Address     string
	Notes       string
	CreatedBy   string
}

// CustomerParams holds the editable customer values
type CustomerParams struct {
	Name        string
	Company     string
	PhoneNumber string
	Email       string
	NIC         string
	Address     string
	Notes       string
	CreatedBy   string
}

// NewCustomer creates an active customer. region is the default phone region.
func NewCustomer(p CustomerParams, region string) (*Customer, error) {
	c := &Customer{BaseAggregateRoot: shared.NewBaseAggregateRoot(), CreatedBy: p.CreatedBy}
	if err := c.apply(p, region); err != nil {
		return nil, err
	}
	c.AddDomainEvent(NewCustomerEvent(EventTypeCustomerCreated, c))
	return c, nil
}

// Update replaces the editable values
func (c *Customer) Update(p CustomerParams, region string) error {
	if !c.IsActive {
		return shared.NewNotFoundError("customer", c.ID)
	}
	if err := c.apply(p, region); err != nil {
		return err
	}
	c.Touch()
	c.AddDomainEvent(NewCustomerEvent(EventTypeCustomerUpdated, c))
	return nil
}

// Deactivate soft-deletes the customer. Links from items and transactions stay.
func (c *Customer) Deactivate() {
	c.BaseEntity.Deactivate()
	c.AddDomainEvent(NewCustomerEvent(EventTypeCustomerDeactivated, c))
}

func (c *Customer) apply(p CustomerParams, region string) error {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return shared.NewValidationError("customer name is required")
	}
	if len(name) > 200 {
		return shared.NewValidationError("customer name cannot exceed 200 characters")
	}
	phone, err := NormalizePhone(p.PhoneNumber, region)
	if err != nil {
		return err
	}
	email := strings.TrimSpace(p.Email)
	if email != "" && !strings.Contains(email, "@") {
		return shared.NewValidationError("invalid email %q", email)
	}
	c.Name = name
	c.Company = strings.TrimSpace(p.Company)
	c.PhoneNumber = phone
	c.Email = strings.ToLower(email)
	c.NIC = strings.ToUpper(strings.TrimSpace(p.NIC))
	c.Address = strings.TrimSpace(p.Address)
	c.Notes = p.Notes
	return nil
}

// NormalizePhone parses a phone number and renders it in E.164.
// An empty number stays empty.
func NormalizePhone(raw, region string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	if region == "" {
		region = DefaultPhoneRegion
	}
	num, err := libphonenumber.Parse(raw, strings.ToUpper(region))
	if err != nil {
		return "", shared.NewValidationError("invalid phone number %q: %v", raw, err)
	}
	if !libphonenumber.IsValidNumber(num) {
		return "", shared.NewValidationError("phone number %q is not valid", raw)
	}
	return libphonenumber.Format(num, libphonenumber.E164), nil
}
