package inventory

import (
	"strconv"
	"strings"
	"time"

	"github.com/gemerp/backend/internal/domain/shared"
	"github.com/gemerp/backend/internal/domain/shared/codegen"
	"github.com/shopspring/decimal"
)

// ItemType is the physical category of an item
type ItemType string

const (
	TypeRough          ItemType = "Rough"
	TypeLots           ItemType = "Lots"
	TypeSortedLots     ItemType = "Sorted Lots"
	TypeCutAndPolished ItemType = "Cut and Polished"
)

// IsValid checks if the item type is valid
func (t ItemType) IsValid() bool {
	switch t {
	case TypeRough, TypeLots, TypeSortedLots, TypeCutAndPolished:
		return true
	}
	return false
}

// CodeKind returns the code generator family for the type
func (t ItemType) CodeKind() codegen.Kind {
	return codegen.Kind(t)
}

// Item is a physical inventory unit: a rough stone, a lot, a sorted lot or a
// cut-and-polished stone. It is the aggregate root of the item lifecycle.
//
// The buy-side (Cost, GivenAmount) and sell-side (SoldAmount, AmountReceived,
// DueAmount) figures mirror the transaction ledger and are only written by it.
type Item struct {
	shared.BaseAggregateRoot
	Code          string
	Type          ItemType
	Subtype       string
	Status        ItemStatus
	IsInInventory bool
	IsTransaction bool
	IsHeatTreated bool

	Weight        decimal.Decimal
	WeightAfterCP decimal.Decimal
	WeightAfterHT decimal.Decimal
	CPColor       string
	Shape         string
	TotalCost     decimal.Decimal

	PhotoLink         string
	PhotosAfterHTLink string
	Comments          string

	Cost           decimal.Decimal
	GivenAmount    decimal.Decimal
	SoldAmount     decimal.Decimal
	AmountReceived decimal.Decimal
	DueAmount      decimal.Decimal
	PaymentMethod  string

	PaymentETAStart *time.Time
	PaymentETAEnd   *time.Time
	DateFinished    *time.Time
	DateSold        *time.Time

	Seller    *int64
	Buyer     *int64
	Bearer    *int64
	Performer *int64
	CPBy      *int64
	HTBy      *int64
	ETBy      *int64

	ShareHolders    []int64
	SharePercentage decimal.Decimal
	OtherShares     string

	ReferenceIDCP *int64
	LotSources    []int64

	CreatedBy string
}

// NewItemParams holds the values an item is created with
type NewItemParams struct {
	Type              ItemType
	Subtype           string
	Status            ItemStatus
	Weight            decimal.Decimal
	CPColor           string
	Shape             string
	PhotoLink         string
	Comments          string
	Performer         *int64
	ETBy              *int64
	HTBy              *int64
	IsHeatTreated     bool
	WeightAfterHT     decimal.Decimal
	PhotosAfterHTLink string
	ShareHolders      []int64
	SharePercentage   decimal.Decimal
	OtherShares       string
	CreatedBy         string
}

// NewItem creates an in-inventory item. The subtype must have a code format,
// so no row is ever written that could not receive a code.
func NewItem(p NewItemParams) (*Item, error) {
	if !p.Type.IsValid() {
		return nil, shared.NewValidationError("invalid item type %q", p.Type)
	}
	subtype := strings.TrimSpace(p.Subtype)
	if subtype == "" {
		return nil, shared.NewValidationError("subtype is required for %s items", p.Type)
	}
	if !codegen.Supports(p.Type.CodeKind(), subtype) {
		return nil, shared.NewValidationError("no code format for %s subtype %q", p.Type, subtype)
	}
	status := p.Status
	if status == "" {
		status = StatusInStock
	}
	if !status.IsValid() {
		return nil, shared.NewValidationError("unknown item status %q", status)
	}
	if status.IsTerminal() {
		return nil, shared.NewValidationError("an item cannot be created as %q", status)
	}
	if p.Weight.IsNegative() {
		return nil, shared.NewValidationError("weight cannot be negative")
	}
	if err := validateShare(p.SharePercentage); err != nil {
		return nil, err
	}
	holders, err := normalizeIDList(p.ShareHolders, "share holder")
	if err != nil {
		return nil, err
	}

	item := &Item{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Type:              p.Type,
		Subtype:           subtype,
		Status:            status,
		IsInInventory:     true,
		IsHeatTreated:     p.IsHeatTreated,
		Weight:            p.Weight,
		WeightAfterHT:     p.WeightAfterHT,
		CPColor:           p.CPColor,
		Shape:             p.Shape,
		PhotoLink:         p.PhotoLink,
		PhotosAfterHTLink: p.PhotosAfterHTLink,
		Comments:          p.Comments,
		Performer:         p.Performer,
		ETBy:              p.ETBy,
		HTBy:              p.HTBy,
		ShareHolders:      holders,
		SharePercentage:   p.SharePercentage,
		OtherShares:       p.OtherShares,
		CreatedBy:         p.CreatedBy,
	}
	return item, nil
}

// AssignCode derives the human code from the persisted id
func (i *Item) AssignCode() error {
	code, err := codegen.Generate(i.Type.CodeKind(), i.Subtype, i.ID)
	if err != nil {
		return err
	}
	i.Code = code
	i.AddDomainEvent(NewItemCreatedEvent(i))
	return nil
}

// ChangeStatus moves the item to a new status through the transition table.
// An empty status leaves the item unchanged.
func (i *Item) ChangeStatus(next ItemStatus) error {
	if next == "" || next == i.Status {
		return nil
	}
	if !next.IsValid() {
		return shared.NewValidationError("unknown item status %q", next)
	}
	if !i.Status.CanTransitionTo(next) {
		return shared.NewInvalidStateError("item %s cannot move from %q to %q", i.Code, i.Status, next)
	}
	prev := i.Status
	i.Status = next
	i.Touch()
	i.AddDomainEvent(NewItemStatusChangedEvent(i, prev))
	return nil
}

// MoveTo is a manual status change. Terminal statuses are written by the
// ledger and lot approval only.
func (i *Item) MoveTo(next ItemStatus) error {
	if next.IsTerminal() && next != i.Status {
		return shared.NewInvalidStateError("item %s cannot be marked %q by hand", i.Code, next)
	}
	return i.ChangeStatus(next)
}

// EnsureActive fails when the item has been soft-deleted
func (i *Item) EnsureActive() error {
	if !i.IsActive {
		return shared.NewNotFoundError("item", i.ID)
	}
	return nil
}

// Deactivate soft-deletes the item without touching linked records
func (i *Item) Deactivate() {
	i.BaseEntity.Deactivate()
}

// RecordPurchase mirrors the buy side of a ledger chain onto the item
func (i *Item) RecordPurchase(amount, settled decimal.Decimal, buyer *int64, method string) {
	i.Cost = amount
	i.GivenAmount = settled
	if buyer != nil {
		i.Buyer = buyer
	}
	i.IsTransaction = true
	if method != "" {
		i.PaymentMethod = method
	}
	i.Touch()
}

// RecordSale mirrors the sell side of a ledger chain onto the item and takes it out of inventory
func (i *Item) RecordSale(amount, settled, due decimal.Decimal, seller, bearer *int64, soldAt *time.Time) {
	i.SoldAmount = amount
	i.AmountReceived = settled
	i.DueAmount = due
	if seller != nil {
		i.Seller = seller
	}
	if bearer != nil {
		i.Bearer = bearer
	}
	if soldAt != nil {
		i.DateSold = soldAt
	}
	i.IsInInventory = false
	i.Touch()
}

// DealTerms are the commercial annotations copied from a root transaction onto its item
type DealTerms struct {
	Comments        string
	ShareHolders    []int64
	SharePercentage decimal.Decimal
	OtherShares     string
	PaymentETAStart *time.Time
	PaymentETAEnd   *time.Time
	DateFinished    *time.Time
}

// ApplyDealTerms stamps the commercial annotations of a deal onto the item
func (i *Item) ApplyDealTerms(t DealTerms) {
	i.Comments = t.Comments
	i.ShareHolders = t.ShareHolders
	i.SharePercentage = t.SharePercentage
	i.OtherShares = t.OtherShares
	i.PaymentETAStart = t.PaymentETAStart
	i.PaymentETAEnd = t.PaymentETAEnd
	i.DateFinished = t.DateFinished
	i.Touch()
}

// Release puts an approved derived item into inventory
func (i *Item) Release() error {
	i.IsActive = true
	i.IsInInventory = true
	if err := i.ChangeStatus(StatusInStock); err != nil {
		return err
	}
	i.Touch()
	return nil
}

// Consume takes a source item out of inventory after a later stage absorbed it
func (i *Item) Consume(status ItemStatus) error {
	if err := i.ChangeStatus(status); err != nil {
		return err
	}
	i.IsInInventory = false
	i.Touch()
	return nil
}

// WithdrawFromInventory clears the inventory flag without a status change
func (i *Item) WithdrawFromInventory() {
	i.IsInInventory = false
	i.Touch()
}

// HeatTreatmentResult is the post-treatment measurement of one item
type HeatTreatmentResult struct {
	WeightAfterHT     decimal.Decimal
	HTBy              *int64
	PhotosAfterHTLink string
	AfterStatus       ItemStatus
}

// ApplyHeatTreatment records a treatment outcome on the item
func (i *Item) ApplyHeatTreatment(r HeatTreatmentResult) error {
	if r.WeightAfterHT.IsNegative() {
		return shared.NewValidationError("weight after heat treatment cannot be negative")
	}
	if err := i.ChangeStatus(r.AfterStatus); err != nil {
		return err
	}
	i.IsHeatTreated = true
	i.WeightAfterHT = r.WeightAfterHT
	i.HTBy = r.HTBy
	i.PhotosAfterHTLink = r.PhotosAfterHTLink
	i.Touch()
	return nil
}

// CutPolishParams are the values a cut-and-polished stone gets from the cutter
type CutPolishParams struct {
	Subtype       string
	Status        ItemStatus
	CPBy          *int64
	CPColor       string
	Shape         string
	TotalCost     decimal.Decimal
	WeightAfterCP decimal.Decimal
	CreatedBy     string
}

// DeriveCutPolished builds the new cut-and-polished row from this source.
// Stage-specific fields are dropped and replaced by the cutter's values; ledger
// mirrors stay with the source, whose transactions still reference it.
func (i *Item) DeriveCutPolished(p CutPolishParams) (*Item, error) {
	if !codegen.Supports(codegen.KindCutAndPolished, p.Subtype) {
		return nil, shared.NewValidationError("no code format for %s subtype %q", TypeCutAndPolished, p.Subtype)
	}
	status := p.Status
	if status == "" {
		status = StatusInStock
	}
	if !status.IsValid() {
		return nil, shared.NewValidationError("unknown item status %q", status)
	}
	if p.WeightAfterCP.IsNegative() || p.TotalCost.IsNegative() {
		return nil, shared.NewValidationError("weight and total cost cannot be negative")
	}
	source := i.ID
	derived := &Item{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Type:              TypeCutAndPolished,
		Subtype:           p.Subtype,
		Status:            status,
		IsInInventory:     false,
		IsHeatTreated:     i.IsHeatTreated,
		Weight:            i.Weight,
		WeightAfterHT:     i.WeightAfterHT,
		WeightAfterCP:     p.WeightAfterCP,
		CPColor:           p.CPColor,
		Shape:             p.Shape,
		TotalCost:         p.TotalCost,
		PhotoLink:         i.PhotoLink,
		PhotosAfterHTLink: i.PhotosAfterHTLink,
		Comments:          i.Comments,
		Performer:         i.Performer,
		HTBy:              i.HTBy,
		ETBy:              i.ETBy,
		CPBy:              p.CPBy,
		ShareHolders:      append([]int64(nil), i.ShareHolders...),
		SharePercentage:   i.SharePercentage,
		OtherShares:       i.OtherShares,
		ReferenceIDCP:     &source,
		CreatedBy:         p.CreatedBy,
	}
	return derived, nil
}

// SortedLotParams describe the lot produced by folding several sources together
type SortedLotParams struct {
	Subtype   string
	Weight    decimal.Decimal
	PhotoLink string
	Comments  string
	CreatedBy string
}

// NewSortedLot creates the sorted-lot item that folds the given sources, in order
func NewSortedLot(sources []int64, p SortedLotParams) (*Item, error) {
	ids, err := normalizeIDList(sources, "lot source")
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, shared.NewValidationError("a sorted lot needs at least one source item")
	}
	item, err := NewItem(NewItemParams{
		Type:      TypeSortedLots,
		Subtype:   p.Subtype,
		Status:    StatusInStock,
		Weight:    p.Weight,
		PhotoLink: p.PhotoLink,
		Comments:  p.Comments,
		CreatedBy: p.CreatedBy,
	})
	if err != nil {
		return nil, err
	}
	item.IsInInventory = false
	item.LotSources = ids
	return item, nil
}

// ReferenceIDLots renders the lot sources as the legacy comma-joined list
func (i *Item) ReferenceIDLots() string {
	return JoinIDs(i.LotSources)
}

// JoinIDs renders ids as "5,7,9"
func JoinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for k, id := range ids {
		parts[k] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

// ParseIDs reads a legacy comma-joined id list, keeping order
func ParseIDs(raw string) ([]int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, shared.NewValidationError("invalid id %q in list", p)
		}
		ids = append(ids, id)
	}
	return normalizeIDList(ids, "list")
}

// normalizeIDList rejects non-positive and duplicate ids while keeping order
func normalizeIDList(ids []int64, what string) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			return nil, shared.NewValidationError("invalid %s id %d", what, id)
		}
		if seen[id] {
			return nil, shared.NewValidationError("duplicate %s id %d", what, id)
		}
		seen[id] = true
		out = append(out, id)
	}
	return out, nil
}

func validateShare(pct decimal.Decimal) error {
	if pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(100)) {
		return shared.NewValidationError("share percentage must be between 0 and 100")
	}
	return nil
}

// ShareValue is the partner share of an amount: amount * pct / 100
func ShareValue(amount, pct decimal.Decimal) decimal.Decimal {
	if pct.IsZero() {
		return decimal.Zero
	}
	return amount.Mul(pct).Div(decimal.NewFromInt(100)).Round(4)
}

// UpdateDetails are the descriptive fields an operator may edit freely
type UpdateDetails struct {
	Weight            *decimal.Decimal
	WeightAfterCP     *decimal.Decimal
	WeightAfterHT     *decimal.Decimal
	CPColor           *string
	Shape             *string
	TotalCost         *decimal.Decimal
	PhotoLink         *string
	PhotosAfterHTLink *string
	Comments          *string
	Performer         *int64
	CPBy              *int64
	HTBy              *int64
	ETBy              *int64
	Bearer            *int64
	Status            *ItemStatus
}

// Update applies descriptive edits. Ledger mirrors and inventory flags are not editable here.
func (i *Item) Update(d UpdateDetails) error {
	if d.Weight != nil {
		if d.Weight.IsNegative() {
			return shared.NewValidationError("weight cannot be negative")
		}
		i.Weight = *d.Weight
	}
	if d.WeightAfterCP != nil {
		i.WeightAfterCP = *d.WeightAfterCP
	}
	if d.WeightAfterHT != nil {
		i.WeightAfterHT = *d.WeightAfterHT
	}
	if d.CPColor != nil {
		i.CPColor = *d.CPColor
	}
	if d.Shape != nil {
		i.Shape = *d.Shape
	}
	if d.TotalCost != nil {
		i.TotalCost = *d.TotalCost
	}
	if d.PhotoLink != nil {
		i.PhotoLink = *d.PhotoLink
	}
	if d.PhotosAfterHTLink != nil {
		i.PhotosAfterHTLink = *d.PhotosAfterHTLink
	}
	if d.Comments != nil {
		i.Comments = *d.Comments
	}
	if d.Performer != nil {
		i.Performer = d.Performer
	}
	if d.CPBy != nil {
		i.CPBy = d.CPBy
	}
	if d.HTBy != nil {
		i.HTBy = d.HTBy
	}
	if d.ETBy != nil {
		i.ETBy = d.ETBy
	}
	if d.Bearer != nil {
		i.Bearer = d.Bearer
	}
	if d.Status != nil {
		if err := i.MoveTo(*d.Status); err != nil {
			return err
		}
	}
	i.Touch()
	return nil
}
