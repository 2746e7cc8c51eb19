package models

import (
	"time"

	"github.com/gemerp/backend/internal/domain/processing"
)

// CutPolishRecordModel is the persistence model for a cut-and-polish record
type CutPolishRecordModel struct {
	AggregateModel
	Code         *string `gorm:"type:varchar(20);uniqueIndex"`
	OldReference int64   `gorm:"not null;index"`
	Reference    int64   `gorm:"not null;index"`
	Photo        string  `gorm:"type:text"`
	Remark       string  `gorm:"type:text"`
	IsApproved   bool    `gorm:"not null;index"`
	ApprovedAt   *time.Time
	CreatedBy    string `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (CutPolishRecordModel) TableName() string {
	return "cut_polish_records"
}

// ToDomain converts the persistence model to a domain record
func (m *CutPolishRecordModel) ToDomain() *processing.CutPolishRecord {
	return &processing.CutPolishRecord{
		BaseAggregateRoot: m.aggregate(),
		Code:              codeValue(m.Code),
		OldReference:      m.OldReference,
		Reference:         m.Reference,
		Photo:             m.Photo,
		Remark:            m.Remark,
		IsApproved:        m.IsApproved,
		ApprovedAt:        m.ApprovedAt,
		CreatedBy:         m.CreatedBy,
	}
}

// FromDomain populates the persistence model from a domain record
func (m *CutPolishRecordModel) FromDomain(r *processing.CutPolishRecord) {
	m.setAggregate(r.BaseAggregateRoot)
	m.Code = codePtr(r.Code)
	m.OldReference = r.OldReference
	m.Reference = r.Reference
	m.Photo = r.Photo
	m.Remark = r.Remark
	m.IsApproved = r.IsApproved
	m.ApprovedAt = r.ApprovedAt
	m.CreatedBy = r.CreatedBy
}

// SortLotRecordModel is the persistence model for a sort record. Its sources
// are the lot sources of the sorted-lot item it references.
type SortLotRecordModel struct {
	AggregateModel
	Code       *string `gorm:"type:varchar(20);uniqueIndex"`
	Reference  int64   `gorm:"not null;index"`
	Remark     string  `gorm:"type:text"`
	IsApproved bool    `gorm:"not null;index"`
	ApprovedAt *time.Time
	CreatedBy  string `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (SortLotRecordModel) TableName() string {
	return "sort_lot_records"
}

// ToDomain converts the persistence model to a domain record without sources
func (m *SortLotRecordModel) ToDomain() *processing.SortLotRecord {
	return &processing.SortLotRecord{
		BaseAggregateRoot: m.aggregate(),
		Code:              codeValue(m.Code),
		Reference:         m.Reference,
		Remark:            m.Remark,
		IsApproved:        m.IsApproved,
		ApprovedAt:        m.ApprovedAt,
		CreatedBy:         m.CreatedBy,
	}
}

// FromDomain populates the persistence model from a domain record
func (m *SortLotRecordModel) FromDomain(r *processing.SortLotRecord) {
	m.setAggregate(r.BaseAggregateRoot)
	m.Code = codePtr(r.Code)
	m.Reference = r.Reference
	m.Remark = r.Remark
	m.IsApproved = r.IsApproved
	m.ApprovedAt = r.ApprovedAt
	m.CreatedBy = r.CreatedBy
}

// HeatTreatmentGroupModel is the persistence model for a furnace batch
type HeatTreatmentGroupModel struct {
	AggregateModel
	Code      *string `gorm:"type:varchar(20);uniqueIndex"`
	Name      string  `gorm:"type:varchar(200);not null"`
	Remark    string  `gorm:"type:text"`
	Date      *time.Time
	CreatedBy string `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (HeatTreatmentGroupModel) TableName() string {
	return "heat_treatment_groups"
}

// ToDomain converts the persistence model to a domain group without members
func (m *HeatTreatmentGroupModel) ToDomain() *processing.HeatTreatmentGroup {
	return &processing.HeatTreatmentGroup{
		BaseAggregateRoot: m.aggregate(),
		Code:              codeValue(m.Code),
		Name:              m.Name,
		Remark:            m.Remark,
		Date:              m.Date,
		CreatedBy:         m.CreatedBy,
	}
}

// FromDomain populates the persistence model from a domain group
func (m *HeatTreatmentGroupModel) FromDomain(g *processing.HeatTreatmentGroup) {
	m.setAggregate(g.BaseAggregateRoot)
	m.Code = codePtr(g.Code)
	m.Name = g.Name
	m.Remark = g.Remark
	m.Date = g.Date
	m.CreatedBy = g.CreatedBy
}

// HeatTreatmentGroupItemModel is one ordered member of a heat treatment group
type HeatTreatmentGroupItemModel struct {
	GroupID  int64 `gorm:"primaryKey;autoIncrement:false"`
	ItemID   int64 `gorm:"primaryKey;autoIncrement:false;index"`
	Position int   `gorm:"not null"`
}

// TableName returns the table name for GORM
func (HeatTreatmentGroupItemModel) TableName() string {
	return "heat_treatment_group_items"
}

// HeatTreatmentModel is the persistence model for one heating run
type HeatTreatmentModel struct {
	AggregateModel
	Code       *string `gorm:"type:varchar(20);uniqueIndex"`
	GroupID    int64   `gorm:"not null;index"`
	HeatBy     *int64  `gorm:"index"`
	IsApproved bool    `gorm:"not null"`
	Date       *time.Time
	Remark     string `gorm:"type:text"`
	CreatedBy  string `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (HeatTreatmentModel) TableName() string {
	return "heat_treatments"
}

// ToDomain converts the persistence model to a domain treatment
func (m *HeatTreatmentModel) ToDomain() *processing.HeatTreatment {
	return &processing.HeatTreatment{
		BaseAggregateRoot: m.aggregate(),
		Code:              codeValue(m.Code),
		GroupID:           m.GroupID,
		HeatBy:            m.HeatBy,
		IsApproved:        m.IsApproved,
		Date:              m.Date,
		Remark:            m.Remark,
		CreatedBy:         m.CreatedBy,
	}
}

// FromDomain populates the persistence model from a domain treatment
func (m *HeatTreatmentModel) FromDomain(t *processing.HeatTreatment) {
	m.setAggregate(t.BaseAggregateRoot)
	m.Code = codePtr(t.Code)
	m.GroupID = t.GroupID
	m.HeatBy = t.HeatBy
	m.IsApproved = t.IsApproved
	m.Date = t.Date
	m.Remark = t.Remark
	m.CreatedBy = t.CreatedBy
}

// All returns every persistence model, in dependency order, for schema creation
// on databases without migrations (SQLite in tests and local development).
func All() []any {
	return []any{
		&CustomerModel{},
		&ItemModel{},
		&ItemLotSourceModel{},
		&ItemShareHolderModel{},
		&TransactionModel{},
		&TransactionShareHolderModel{},
		&ExpenseModel{},
		&CutPolishRecordModel{},
		&SortLotRecordModel{},
		&HeatTreatmentGroupModel{},
		&HeatTreatmentGroupItemModel{},
		&HeatTreatmentModel{},
	}
}
