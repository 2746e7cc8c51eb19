package partner

import (
	"time"

	"github.com/gemerp/backend/internal/domain/partner"
)

// CustomerRequest creates or edits a customer
type CustomerRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=200"`
	Company     string `json:"company" binding:"max=200"`
	PhoneNumber string `json:"phone_number" binding:"max=50"`
	Email       string `json:"email" binding:"omitempty,email,max=200"`
	NIC         string `json:"nic" binding:"max=50"`
	Address     string `json:"address"`
	Notes       string `json:"notes"`
	CreatedBy   string `json:"-"`
}

func (r CustomerRequest) params() partner.CustomerParams {
	return partner.CustomerParams{
		Name:        r.Name,
		Company:     r.Company,
		PhoneNumber: r.PhoneNumber,
		Email:       r.Email,
		NIC:         r.NIC,
		Address:     r.Address,
		Notes:       r.Notes,
		CreatedBy:   r.CreatedBy,
	}
}

// CustomerListFilter represents filter options for customer list
type CustomerListFilter struct {
	Search   string `form:"search"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=500"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// CustomerResponse represents a customer in API responses
type CustomerResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Company     string    `json:"company,omitempty"`
	PhoneNumber string    `json:"phone_number,omitempty"`
	Email       string    `json:"email,omitempty"`
	NIC         string    `json:"nic,omitempty"`
	Address     string    `json:"address,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedBy   string    `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Version     int       `json:"version"`
}

// ToCustomerResponse converts domain Customer to CustomerResponse
func ToCustomerResponse(c *partner.Customer) CustomerResponse {
	return CustomerResponse{
		ID:          c.ID,
		Name:        c.Name,
		Company:     c.Company,
		PhoneNumber: c.PhoneNumber,
		Email:       c.Email,
		NIC:         c.NIC,
		Address:     c.Address,
		Notes:       c.Notes,
		IsActive:    c.IsActive,
		CreatedBy:   c.CreatedBy,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
		Version:     c.Version,
	}
}

// ToCustomerResponses converts a slice of domain Customers
func ToCustomerResponses(customers []partner.Customer) []CustomerResponse {
	out := make([]CustomerResponse, len(customers))
	for k := range customers {
		out[k] = ToCustomerResponse(&customers[k])
	}
	return out
}
