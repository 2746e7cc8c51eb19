package processing

import (
	"time"

	"github.com/gemerp/backend/internal/domain/inventory"
	"github.com/gemerp/backend/internal/domain/processing"
	"github.com/gemerp/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// CreateCutPolishRequest sends a stone to the cutter and books the stone that comes back
type CreateCutPolishRequest struct {
	SourceID      int64           `json:"source_id" binding:"required,min=1"`
	Subtype       string          `json:"subtype" binding:"required,max=100"`
	Status        string          `json:"status"`
	CPBy          *int64          `json:"cp_by"`
	CPColor       string          `json:"cp_color"`
	Shape         string          `json:"shape"`
	TotalCost     decimal.Decimal `json:"total_cost" binding:"decimal_nonnegative"`
	WeightAfterCP decimal.Decimal `json:"weight_after_cp" binding:"decimal_nonnegative"`
	Photo         string          `json:"photo"`
	Remark        string          `json:"remark"`

	// DeactivateReference takes the source out of inventory immediately instead of at approval
	DeactivateReference bool `json:"deactivate_reference"`

	CreatedBy string `json:"-"`
}

// UpdateCutPolishRequest edits the evidence of a record and the cutter's values on the derived item
type UpdateCutPolishRequest struct {
	Photo         string           `json:"photo"`
	Remark        string           `json:"remark"`
	CPBy          *int64           `json:"cp_by"`
	CPColor       *string          `json:"cp_color"`
	Shape         *string          `json:"shape"`
	TotalCost     *decimal.Decimal `json:"total_cost"`
	WeightAfterCP *decimal.Decimal `json:"weight_after_cp"`
}

// CreateSortLotRequest folds several items into one sorted lot
type CreateSortLotRequest struct {
	SourceIDs []int64         `json:"source_ids" binding:"required,min=1,dive,min=1"`
	Subtype   string          `json:"subtype" binding:"required,max=100"`
	Weight    decimal.Decimal `json:"weight" binding:"decimal_nonnegative"`
	PhotoLink string          `json:"photo_link"`
	Comments  string          `json:"comments"`
	Remark    string          `json:"remark"`
	CreatedBy string          `json:"-"`
}

// HeatGroupRequest creates or edits a furnace batch
type HeatGroupRequest struct {
	Name      string     `json:"name" binding:"required,max=100"`
	Members   []int64    `json:"members" binding:"omitempty,dive,min=1"`
	Remark    string     `json:"remark"`
	Date      *time.Time `json:"date"`
	CreatedBy string     `json:"-"`
}

// TreatmentLine is the measured outcome of one stone after a heating run
type TreatmentLine struct {
	ItemID            int64           `json:"item_id" binding:"required,min=1"`
	WeightAfterHT     decimal.Decimal `json:"weight_after_ht" binding:"decimal_nonnegative"`
	PhotosAfterHTLink string          `json:"photos_after_ht_link"`
	AfterStatus       string          `json:"after_status"`
	HTBy              *int64          `json:"ht_by"`
}

// HeatTreatmentRequest creates or edits a heating run and its per-item outcomes
type HeatTreatmentRequest struct {
	GroupID   int64           `json:"group_id" binding:"required,min=1"`
	HeatBy    *int64          `json:"heat_by"`
	Date      *time.Time      `json:"date"`
	Remark    string          `json:"remark"`
	Lines     []TreatmentLine `json:"lines" binding:"omitempty,dive"`
	CreatedBy string          `json:"-"`
}

// RecordListFilter represents filter options for processing record listings
type RecordListFilter struct {
	Approved *bool  `form:"approved"`
	GroupID  *int64 `form:"group_id"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=500"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

func (f RecordListFilter) toDomain() processing.RecordFilter {
	base := shared.DefaultFilter()
	if f.Page > 0 {
		base.Page = f.Page
	}
	if f.PageSize > 0 {
		base.PageSize = f.PageSize
	}
	if f.OrderBy != "" {
		base.OrderBy = f.OrderBy
	}
	if f.OrderDir != "" {
		base.OrderDir = f.OrderDir
	}
	return processing.RecordFilter{Filter: base, Approved: f.Approved, GroupID: f.GroupID}
}

// ItemSummary is the compact view of an item touched by a processing stage
type ItemSummary struct {
	ID              int64           `json:"id"`
	Code            string          `json:"code"`
	Type            string          `json:"type"`
	Subtype         string          `json:"subtype"`
	Status          string          `json:"status"`
	Weight          decimal.Decimal `json:"weight"`
	IsActive        bool            `json:"is_active"`
	IsInInventory   bool            `json:"is_in_inventory"`
	IsHeatTreated   bool            `json:"is_heat_treated"`
	WeightAfterHT   decimal.Decimal `json:"weight_after_ht"`
	ReferenceIDLots string          `json:"reference_id_lots,omitempty"`
}

// ToItemSummary converts a domain Item to a summary
func ToItemSummary(i *inventory.Item) ItemSummary {
	return ItemSummary{
		ID:              i.ID,
		Code:            i.Code,
		Type:            string(i.Type),
		Subtype:         i.Subtype,
		Status:          string(i.Status),
		Weight:          i.Weight,
		IsActive:        i.IsActive,
		IsInInventory:   i.IsInInventory,
		IsHeatTreated:   i.IsHeatTreated,
		WeightAfterHT:   i.WeightAfterHT,
		ReferenceIDLots: i.ReferenceIDLots(),
	}
}

// CutPolishResponse represents a cut-and-polish record in API responses
type CutPolishResponse struct {
	ID           int64        `json:"id"`
	Code         string       `json:"code"`
	OldReference int64        `json:"old_reference"`
	Reference    int64        `json:"reference"`
	Photo        string       `json:"photo,omitempty"`
	Remark       string       `json:"remark,omitempty"`
	IsApproved   bool         `json:"is_approved"`
	ApprovedAt   *time.Time   `json:"approved_at,omitempty"`
	IsActive     bool         `json:"is_active"`
	CreatedBy    string       `json:"created_by,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	Source       *ItemSummary `json:"source,omitempty"`
	Derived      *ItemSummary `json:"derived,omitempty"`
}

// ToCutPolishResponse converts a record; source and derived may be nil
func ToCutPolishResponse(r *processing.CutPolishRecord, source, derived *inventory.Item) CutPolishResponse {
	resp := CutPolishResponse{
		ID:           r.ID,
		Code:         r.Code,
		OldReference: r.OldReference,
		Reference:    r.Reference,
		Photo:        r.Photo,
		Remark:       r.Remark,
		IsApproved:   r.IsApproved,
		ApprovedAt:   r.ApprovedAt,
		IsActive:     r.IsActive,
		CreatedBy:    r.CreatedBy,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if source != nil {
		s := ToItemSummary(source)
		resp.Source = &s
	}
	if derived != nil {
		d := ToItemSummary(derived)
		resp.Derived = &d
	}
	return resp
}

// SortLotResponse represents a sort record in API responses
type SortLotResponse struct {
	ID              int64         `json:"id"`
	Code            string        `json:"code"`
	Reference       int64         `json:"reference"`
	Sources         []int64       `json:"sources"`
	ReferenceIDLots string        `json:"reference_id_lots"`
	Remark          string        `json:"remark,omitempty"`
	IsApproved      bool          `json:"is_approved"`
	ApprovedAt      *time.Time    `json:"approved_at,omitempty"`
	IsActive        bool          `json:"is_active"`
	CreatedBy       string        `json:"created_by,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
	Lot             *ItemSummary  `json:"lot,omitempty"`
	SourceItems     []ItemSummary `json:"source_items,omitempty"`
}

// ToSortLotResponse converts a record; lot and sources may be empty
func ToSortLotResponse(r *processing.SortLotRecord, lot *inventory.Item, sources []*inventory.Item) SortLotResponse {
	resp := SortLotResponse{
		ID:              r.ID,
		Code:            r.Code,
		Reference:       r.Reference,
		Sources:         r.Sources,
		ReferenceIDLots: inventory.JoinIDs(r.Sources),
		Remark:          r.Remark,
		IsApproved:      r.IsApproved,
		ApprovedAt:      r.ApprovedAt,
		IsActive:        r.IsActive,
		CreatedBy:       r.CreatedBy,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
	if resp.Sources == nil {
		resp.Sources = []int64{}
	}
	if lot != nil {
		l := ToItemSummary(lot)
		resp.Lot = &l
	}
	for _, s := range sources {
		resp.SourceItems = append(resp.SourceItems, ToItemSummary(s))
	}
	return resp
}

// HeatGroupResponse represents a heat treatment group in API responses
type HeatGroupResponse struct {
	ID        int64      `json:"id"`
	Code      string     `json:"code"`
	Name      string     `json:"name"`
	Members   []int64    `json:"members"`
	Remark    string     `json:"remark,omitempty"`
	Date      *time.Time `json:"date,omitempty"`
	IsActive  bool       `json:"is_active"`
	CreatedBy string     `json:"created_by,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ToHeatGroupResponse converts a group
func ToHeatGroupResponse(g *processing.HeatTreatmentGroup) HeatGroupResponse {
	members := g.Members
	if members == nil {
		members = []int64{}
	}
	return HeatGroupResponse{
		ID:        g.ID,
		Code:      g.Code,
		Name:      g.Name,
		Members:   members,
		Remark:    g.Remark,
		Date:      g.Date,
		IsActive:  g.IsActive,
		CreatedBy: g.CreatedBy,
		CreatedAt: g.CreatedAt,
		UpdatedAt: g.UpdatedAt,
	}
}

// HeatTreatmentResponse represents a heating run in API responses
type HeatTreatmentResponse struct {
	ID         int64         `json:"id"`
	Code       string        `json:"code"`
	GroupID    int64         `json:"group_id"`
	HeatBy     *int64        `json:"heat_by,omitempty"`
	IsApproved bool          `json:"is_approved"`
	Date       *time.Time    `json:"date,omitempty"`
	Remark     string        `json:"remark,omitempty"`
	IsActive   bool          `json:"is_active"`
	CreatedBy  string        `json:"created_by,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
	Items      []ItemSummary `json:"items,omitempty"`
}

// ToHeatTreatmentResponse converts a treatment with the items its lines touched
func ToHeatTreatmentResponse(t *processing.HeatTreatment, items []*inventory.Item) HeatTreatmentResponse {
	resp := HeatTreatmentResponse{
		ID:         t.ID,
		Code:       t.Code,
		GroupID:    t.GroupID,
		HeatBy:     t.HeatBy,
		IsApproved: t.IsApproved,
		Date:       t.Date,
		Remark:     t.Remark,
		IsActive:   t.IsActive,
		CreatedBy:  t.CreatedBy,
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
	}
	for _, i := range items {
		resp.Items = append(resp.Items, ToItemSummary(i))
	}
	return resp
}
