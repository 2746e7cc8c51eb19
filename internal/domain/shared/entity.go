package shared

import "time"

// Entity is anything with a store-assigned id
type Entity interface {
	GetID() int64
}

// BaseEntity holds the columns every table shares. IDs are assigned on insert
// and the human codes (B0001, SLT001, ...) are derived from them afterwards.
// Rows are never deleted; IsActive=false hides them.
type BaseEntity struct {
	ID        int64
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewBaseEntity() BaseEntity {
	now := time.Now()
	return BaseEntity{IsActive: true, CreatedAt: now, UpdatedAt: now}
}

func (e *BaseEntity) GetID() int64 { return e.ID }

// Deactivate soft-deletes the entity
func (e *BaseEntity) Deactivate() {
	e.IsActive = false
	e.Touch()
}

func (e *BaseEntity) Touch() { e.UpdatedAt = time.Now() }
