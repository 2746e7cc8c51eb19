package processing

import (
	"context"

	"github.com/gemerp/backend/internal/domain/shared"
)

// RecordFilter narrows processing record listings
type RecordFilter struct {
	shared.Filter
	Approved *bool
	GroupID  *int64 // heat treatments only
}

// CutPolishRepository defines the interface for cut-and-polish record persistence
type CutPolishRepository interface {
	// FindByID finds an active record by ID
	FindByID(ctx context.Context, id int64) (*CutPolishRecord, error)
	// FindByIDForUpdate loads a record regardless of state and locks its row
	FindByIDForUpdate(ctx context.Context, id int64) (*CutPolishRecord, error)
	// FindByDerivedItem finds the active record that produced an item
	FindByDerivedItem(ctx context.Context, itemID int64) (*CutPolishRecord, error)
	FindAll(ctx context.Context, filter RecordFilter) ([]CutPolishRecord, int64, error)
	Create(ctx context.Context, record *CutPolishRecord) error
	Save(ctx context.Context, record *CutPolishRecord) error
}

// SortLotRepository defines the interface for sort record persistence
type SortLotRepository interface {
	FindByID(ctx context.Context, id int64) (*SortLotRecord, error)
	FindByIDForUpdate(ctx context.Context, id int64) (*SortLotRecord, error)
	FindAll(ctx context.Context, filter RecordFilter) ([]SortLotRecord, int64, error)
	Create(ctx context.Context, record *SortLotRecord) error
	Save(ctx context.Context, record *SortLotRecord) error
}

// HeatTreatmentGroupRepository defines the interface for heat treatment group persistence.
// Members are stored in order and replaced as a whole on Save.
type HeatTreatmentGroupRepository interface {
	FindByID(ctx context.Context, id int64) (*HeatTreatmentGroup, error)
	FindByIDForUpdate(ctx context.Context, id int64) (*HeatTreatmentGroup, error)
	FindAll(ctx context.Context, filter RecordFilter) ([]HeatTreatmentGroup, int64, error)
	Create(ctx context.Context, group *HeatTreatmentGroup) error
	Save(ctx context.Context, group *HeatTreatmentGroup) error
}

// HeatTreatmentRepository defines the interface for heat treatment persistence
type HeatTreatmentRepository interface {
	FindByID(ctx context.Context, id int64) (*HeatTreatment, error)
	FindByIDForUpdate(ctx context.Context, id int64) (*HeatTreatment, error)
	FindAll(ctx context.Context, filter RecordFilter) ([]HeatTreatment, int64, error)
	Create(ctx context.Context, treatment *HeatTreatment) error
	Save(ctx context.Context, treatment *HeatTreatment) error
}
