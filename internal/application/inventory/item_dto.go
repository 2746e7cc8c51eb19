package inventory

import (
	"time"

	"github.com/gemerp/backend/internal/domain/inventory"
	"github.com/shopspring/decimal"
)

// CreateItemRequest represents a request to take a stone into inventory
type CreateItemRequest struct {
	Type              string          `json:"type" binding:"required,item_type"`
	Subtype           string          `json:"subtype" binding:"required,max=100"`
	Status            string          `json:"status"`
	Weight            decimal.Decimal `json:"weight" binding:"decimal_nonnegative"`
	CPColor           string          `json:"cp_color"`
	Shape             string          `json:"shape"`
	PhotoLink         string          `json:"photo_link"`
	Comments          string          `json:"comments"`
	Performer         *int64          `json:"performer"`
	ETBy              *int64          `json:"et_by"`
	HTBy              *int64          `json:"ht_by"`
	IsHeatTreated     bool            `json:"is_heat_treated"`
	WeightAfterHT     decimal.Decimal `json:"weight_after_ht"`
	PhotosAfterHTLink string          `json:"photos_after_ht_link"`
	ShareHolders      []int64         `json:"share_holders"`
	SharePercentage   decimal.Decimal `json:"share_percentage"`
	OtherShares       string          `json:"other_shares"`

	// HeatTreatmentGroupID appends the new item to an existing furnace batch
	HeatTreatmentGroupID *int64 `json:"heat_treatment_group_id"`

	// Purchase opens the Buying deal for the item in the same unit of work
	Purchase *PurchaseRequest `json:"purchase"`

	CreatedBy string `json:"-"`
}

// PurchaseRequest describes the Buying deal opened with a new item
type PurchaseRequest struct {
	Amount          decimal.Decimal `json:"amount" binding:"decimal_nonnegative"`
	InitialPayment  decimal.Decimal `json:"initial_payment" binding:"decimal_nonnegative"`
	Method          string          `json:"method"`
	Buyer           *int64          `json:"buyer"`
	Date            *time.Time      `json:"date"`
	PaymentETAStart *time.Time      `json:"payment_eta_start"`
	PaymentETAEnd   *time.Time      `json:"payment_eta_end"`
	DateFinished    *time.Time      `json:"date_finished"`
}

// UpdateItemRequest edits the descriptive fields of an item. Omitted fields are unchanged.
type UpdateItemRequest struct {
	Weight            *decimal.Decimal `json:"weight"`
	WeightAfterCP     *decimal.Decimal `json:"weight_after_cp"`
	WeightAfterHT     *decimal.Decimal `json:"weight_after_ht"`
	CPColor           *string          `json:"cp_color"`
	Shape             *string          `json:"shape"`
	TotalCost         *decimal.Decimal `json:"total_cost"`
	PhotoLink         *string          `json:"photo_link"`
	PhotosAfterHTLink *string          `json:"photos_after_ht_link"`
	Comments          *string          `json:"comments"`
	Performer         *int64           `json:"performer"`
	CPBy              *int64           `json:"cp_by"`
	HTBy              *int64           `json:"ht_by"`
	ETBy              *int64           `json:"et_by"`
	Bearer            *int64           `json:"bearer"`
	Status            *string          `json:"status"`
}

// ChangeStatusRequest moves an item to a new lifecycle status
type ChangeStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ItemListFilter represents filter options for item listings
type ItemListFilter struct {
	Search        string `form:"search"`
	Type          string `form:"type" binding:"omitempty,item_type"`
	Status        string `form:"status"`
	InInventory   *bool  `form:"in_inventory"`
	IncludeClosed bool   `form:"include_closed"`
	Page          int    `form:"page" binding:"omitempty,min=1"`
	PageSize      int    `form:"page_size" binding:"omitempty,min=1,max=500"`
	OrderBy       string `form:"order_by"`
	OrderDir      string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ItemResponse represents an item in API responses
type ItemResponse struct {
	ID                int64           `json:"id"`
	Code              string          `json:"code"`
	Type              string          `json:"type"`
	Subtype           string          `json:"subtype"`
	Status            string          `json:"status"`
	IsActive          bool            `json:"is_active"`
	IsInInventory     bool            `json:"is_in_inventory"`
	IsTransaction     bool            `json:"is_transaction"`
	IsHeatTreated     bool            `json:"is_heat_treated"`
	Weight            decimal.Decimal `json:"weight"`
	WeightAfterCP     decimal.Decimal `json:"weight_after_cp"`
	WeightAfterHT     decimal.Decimal `json:"weight_after_ht"`
	CPColor           string          `json:"cp_color,omitempty"`
	Shape             string          `json:"shape,omitempty"`
	TotalCost         decimal.Decimal `json:"total_cost"`
	PhotoLink         string          `json:"photo_link,omitempty"`
	PhotosAfterHTLink string          `json:"photos_after_ht_link,omitempty"`
	Comments          string          `json:"comments,omitempty"`
	Cost              decimal.Decimal `json:"cost"`
	GivenAmount       decimal.Decimal `json:"given_amount"`
	SoldAmount        decimal.Decimal `json:"sold_amount"`
	AmountReceived    decimal.Decimal `json:"amount_received"`
	DueAmount         decimal.Decimal `json:"due_amount"`
	PaymentMethod     string          `json:"payment_method,omitempty"`
	PaymentETAStart   *time.Time      `json:"payment_eta_start,omitempty"`
	PaymentETAEnd     *time.Time      `json:"payment_eta_end,omitempty"`
	DateFinished      *time.Time      `json:"date_finished,omitempty"`
	DateSold          *time.Time      `json:"date_sold,omitempty"`
	Seller            *int64          `json:"seller,omitempty"`
	Buyer             *int64          `json:"buyer,omitempty"`
	Bearer            *int64          `json:"bearer,omitempty"`
	Performer         *int64          `json:"performer,omitempty"`
	CPBy              *int64          `json:"cp_by,omitempty"`
	HTBy              *int64          `json:"ht_by,omitempty"`
	ETBy              *int64          `json:"et_by,omitempty"`
	ShareHolders      []int64         `json:"share_holders"`
	SharePercentage   decimal.Decimal `json:"share_percentage"`
	ShareValue        decimal.Decimal `json:"share_value"`
	OtherShares       string          `json:"other_shares,omitempty"`
	ReferenceIDCP     *int64          `json:"reference_id_cp,omitempty"`
	ReferenceIDLots   string          `json:"reference_id_lots,omitempty"`
	CreatedBy         string          `json:"created_by,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	Version           int             `json:"version"`
}

// ToItemResponse converts a domain Item to a response
func ToItemResponse(i *inventory.Item) ItemResponse {
	holders := i.ShareHolders
	if holders == nil {
		holders = []int64{}
	}
	return ItemResponse{
		ID:                i.ID,
		Code:              i.Code,
		Type:              string(i.Type),
		Subtype:           i.Subtype,
		Status:            string(i.Status),
		IsActive:          i.IsActive,
		IsInInventory:     i.IsInInventory,
		IsTransaction:     i.IsTransaction,
		IsHeatTreated:     i.IsHeatTreated,
		Weight:            i.Weight,
		WeightAfterCP:     i.WeightAfterCP,
		WeightAfterHT:     i.WeightAfterHT,
		CPColor:           i.CPColor,
		Shape:             i.Shape,
		TotalCost:         i.TotalCost,
		PhotoLink:         i.PhotoLink,
		PhotosAfterHTLink: i.PhotosAfterHTLink,
		Comments:          i.Comments,
		Cost:              i.Cost,
		GivenAmount:       i.GivenAmount,
		SoldAmount:        i.SoldAmount,
		AmountReceived:    i.AmountReceived,
		DueAmount:         i.DueAmount,
		PaymentMethod:     i.PaymentMethod,
		PaymentETAStart:   i.PaymentETAStart,
		PaymentETAEnd:     i.PaymentETAEnd,
		DateFinished:      i.DateFinished,
		DateSold:          i.DateSold,
		Seller:            i.Seller,
		Buyer:             i.Buyer,
		Bearer:            i.Bearer,
		Performer:         i.Performer,
		CPBy:              i.CPBy,
		HTBy:              i.HTBy,
		ETBy:              i.ETBy,
		ShareHolders:      holders,
		SharePercentage:   i.SharePercentage,
		ShareValue:        inventory.ShareValue(i.Cost, i.SharePercentage),
		OtherShares:       i.OtherShares,
		ReferenceIDCP:     i.ReferenceIDCP,
		ReferenceIDLots:   i.ReferenceIDLots(),
		CreatedBy:         i.CreatedBy,
		CreatedAt:         i.CreatedAt,
		UpdatedAt:         i.UpdatedAt,
		Version:           i.Version,
	}
}

// ToItemResponses converts a slice of items
func ToItemResponses(items []inventory.Item) []ItemResponse {
	out := make([]ItemResponse, len(items))
	for k := range items {
		out[k] = ToItemResponse(&items[k])
	}
	return out
}
