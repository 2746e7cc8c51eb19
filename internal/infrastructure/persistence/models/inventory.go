package models

import (
	"time"

	"github.com/gemerp/backend/internal/domain/inventory"
	"github.com/shopspring/decimal"
)

// ItemModel is the persistence model for the Item aggregate.
// The subtype is written to the column of its type so per-type reports can
// group on a single column.
type ItemModel struct {
	AggregateModel
	Code          *string            `gorm:"type:varchar(50);uniqueIndex"`
	Type          inventory.ItemType `gorm:"column:item_type;type:varchar(30);not null;index"`
	RoughType     string             `gorm:"type:varchar(100)"`
	LotType       string             `gorm:"type:varchar(100)"`
	SortedLotType string             `gorm:"type:varchar(100)"`
	CPType        string             `gorm:"column:cp_type;type:varchar(100)"`
	Status        string             `gorm:"type:varchar(50);not null;index"`
	IsInInventory bool               `gorm:"not null;index"`
	IsTransaction bool               `gorm:"not null"`
	IsHeatTreated bool               `gorm:"not null"`

	Weight        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	WeightAfterCP decimal.Decimal `gorm:"column:weight_after_cp;type:decimal(18,4);not null"`
	WeightAfterHT decimal.Decimal `gorm:"column:weight_after_ht;type:decimal(18,4);not null"`
	CPColor       string          `gorm:"column:cp_color;type:varchar(100)"`
	Shape         string          `gorm:"type:varchar(100)"`
	TotalCost     decimal.Decimal `gorm:"type:decimal(18,4);not null"`

	PhotoLink         string `gorm:"type:text"`
	PhotosAfterHTLink string `gorm:"column:photos_after_ht_link;type:text"`
	Comments          string `gorm:"type:text"`

	Cost           decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	GivenAmount    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	SoldAmount     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	AmountReceived decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	DueAmount      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	PaymentMethod  string          `gorm:"type:varchar(50)"`

	PaymentETAStart *time.Time `gorm:"column:payment_eta_start"`
	PaymentETAEnd   *time.Time `gorm:"column:payment_eta_end"`
	DateFinished    *time.Time
	DateSold        *time.Time

	Seller    *int64 `gorm:"index"`
	Buyer     *int64 `gorm:"index"`
	Bearer    *int64 `gorm:"index"`
	Performer *int64 `gorm:"index"`
	CPBy      *int64 `gorm:"column:cp_by;index"`
	HTBy      *int64 `gorm:"column:ht_by;index"`
	ETBy      *int64 `gorm:"column:et_by;index"`

	SharePercentage decimal.Decimal `gorm:"type:decimal(7,4);not null"`
	OtherShares     string          `gorm:"type:text"`

	ReferenceIDCP   *int64 `gorm:"column:reference_id_cp;index"`
	ReferenceIDLots string `gorm:"column:reference_id_lots;type:text"`

	CreatedBy string `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (ItemModel) TableName() string {
	return "items"
}

// SubtypeColumn returns the column holding the subtype of an item type
func SubtypeColumn(t inventory.ItemType) string {
	switch t {
	case inventory.TypeRough:
		return "rough_type"
	case inventory.TypeLots:
		return "lot_type"
	case inventory.TypeSortedLots:
		return "sorted_lot_type"
	case inventory.TypeCutAndPolished:
		return "cp_type"
	}
	return ""
}

// ToDomain converts the persistence model to a domain Item. Link-table
// slices (LotSources, ShareHolders) are filled in by the repository.
func (m *ItemModel) ToDomain() *inventory.Item {
	item := &inventory.Item{
		BaseAggregateRoot: m.aggregate(),
		Code:              codeValue(m.Code),
		Type:              m.Type,
		Subtype:           m.subtype(),
		Status:            inventory.ItemStatus(m.Status),
		IsInInventory:     m.IsInInventory,
		IsTransaction:     m.IsTransaction,
		IsHeatTreated:     m.IsHeatTreated,
		Weight:            m.Weight,
		WeightAfterCP:     m.WeightAfterCP,
		WeightAfterHT:     m.WeightAfterHT,
		CPColor:           m.CPColor,
		Shape:             m.Shape,
		TotalCost:         m.TotalCost,
		PhotoLink:         m.PhotoLink,
		PhotosAfterHTLink: m.PhotosAfterHTLink,
		Comments:          m.Comments,
		Cost:              m.Cost,
		GivenAmount:       m.GivenAmount,
		SoldAmount:        m.SoldAmount,
		AmountReceived:    m.AmountReceived,
		DueAmount:         m.DueAmount,
		PaymentMethod:     m.PaymentMethod,
		PaymentETAStart:   m.PaymentETAStart,
		PaymentETAEnd:     m.PaymentETAEnd,
		DateFinished:      m.DateFinished,
		DateSold:          m.DateSold,
		Seller:            m.Seller,
		Buyer:             m.Buyer,
		Bearer:            m.Bearer,
		Performer:         m.Performer,
		CPBy:              m.CPBy,
		HTBy:              m.HTBy,
		ETBy:              m.ETBy,
		SharePercentage:   m.SharePercentage,
		OtherShares:       m.OtherShares,
		ReferenceIDCP:     m.ReferenceIDCP,
		CreatedBy:         m.CreatedBy,
	}
	return item
}

func (m *ItemModel) subtype() string {
	switch m.Type {
	case inventory.TypeRough:
		return m.RoughType
	case inventory.TypeLots:
		return m.LotType
	case inventory.TypeSortedLots:
		return m.SortedLotType
	case inventory.TypeCutAndPolished:
		return m.CPType
	}
	return ""
}

// FromDomain populates the persistence model from a domain Item
func (m *ItemModel) FromDomain(i *inventory.Item) {
	m.setAggregate(i.BaseAggregateRoot)
	m.Code = codePtr(i.Code)
	m.Type = i.Type
	m.RoughType, m.LotType, m.SortedLotType, m.CPType = "", "", "", ""
	switch i.Type {
	case inventory.TypeRough:
		m.RoughType = i.Subtype
	case inventory.TypeLots:
		m.LotType = i.Subtype
	case inventory.TypeSortedLots:
		m.SortedLotType = i.Subtype
	case inventory.TypeCutAndPolished:
		m.CPType = i.Subtype
	}
	m.Status = string(i.Status)
	m.IsInInventory = i.IsInInventory
	m.IsTransaction = i.IsTransaction
	m.IsHeatTreated = i.IsHeatTreated
	m.Weight = i.Weight
	m.WeightAfterCP = i.WeightAfterCP
	m.WeightAfterHT = i.WeightAfterHT
	m.CPColor = i.CPColor
	m.Shape = i.Shape
	m.TotalCost = i.TotalCost
	m.PhotoLink = i.PhotoLink
	m.PhotosAfterHTLink = i.PhotosAfterHTLink
	m.Comments = i.Comments
	m.Cost = i.Cost
	m.GivenAmount = i.GivenAmount
	m.SoldAmount = i.SoldAmount
	m.AmountReceived = i.AmountReceived
	m.DueAmount = i.DueAmount
	m.PaymentMethod = i.PaymentMethod
	m.PaymentETAStart = i.PaymentETAStart
	m.PaymentETAEnd = i.PaymentETAEnd
	m.DateFinished = i.DateFinished
	m.DateSold = i.DateSold
	m.Seller = i.Seller
	m.Buyer = i.Buyer
	m.Bearer = i.Bearer
	m.Performer = i.Performer
	m.CPBy = i.CPBy
	m.HTBy = i.HTBy
	m.ETBy = i.ETBy
	m.SharePercentage = i.SharePercentage
	m.OtherShares = i.OtherShares
	m.ReferenceIDCP = i.ReferenceIDCP
	m.ReferenceIDLots = i.ReferenceIDLots()
	m.CreatedBy = i.CreatedBy
}

// ItemModelFromDomain creates a new persistence model from a domain Item
func ItemModelFromDomain(i *inventory.Item) *ItemModel {
	m := &ItemModel{}
	m.FromDomain(i)
	return m
}

// ItemLotSourceModel is one ordered source of a sorted lot
type ItemLotSourceModel struct {
	ItemID   int64 `gorm:"primaryKey;autoIncrement:false"`
	SourceID int64 `gorm:"primaryKey;autoIncrement:false;index"`
	Position int   `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ItemLotSourceModel) TableName() string {
	return "item_lot_sources"
}

// ItemShareHolderModel is one ordered partner share of an item
type ItemShareHolderModel struct {
	ItemID     int64 `gorm:"primaryKey;autoIncrement:false"`
	CustomerID int64 `gorm:"primaryKey;autoIncrement:false;index"`
	Position   int   `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ItemShareHolderModel) TableName() string {
	return "item_share_holders"
}
