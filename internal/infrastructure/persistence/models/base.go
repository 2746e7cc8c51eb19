package models

import (
	"time"

	"github.com/gemerp/backend/internal/domain/shared"
)

// BaseModel holds the columns every table shares
type BaseModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	IsActive  bool      `gorm:"not null;index"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (m *BaseModel) entity() shared.BaseEntity {
	return shared.BaseEntity{ID: m.ID, IsActive: m.IsActive, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt}
}

func (m *BaseModel) setEntity(e shared.BaseEntity) {
	m.ID, m.IsActive, m.CreatedAt, m.UpdatedAt = e.ID, e.IsActive, e.CreatedAt, e.UpdatedAt
}

// AggregateModel adds the version column of aggregate roots (deal roots, items,
// processing records)
type AggregateModel struct {
	BaseModel
	Version int `gorm:"not null;default:1"`
}

func (m *AggregateModel) aggregate() shared.BaseAggregateRoot {
	return shared.BaseAggregateRoot{BaseEntity: m.entity(), Version: m.Version}
}

func (m *AggregateModel) setAggregate(a shared.BaseAggregateRoot) {
	m.setEntity(a.BaseEntity)
	m.Version = a.Version
}

// codePtr stores an unassigned code as NULL so the unique index tolerates rows
// between insert and code assignment
func codePtr(code string) *string {
	if code == "" {
		return nil
	}
	return &code
}

func codeValue(code *string) string {
	if code == nil {
		return ""
	}
	return *code
}
