package processing

import (
	"time"

	"github.com/gemerp/backend/internal/domain/shared"
	"github.com/gemerp/backend/internal/domain/shared/codegen"
)

// SortLotRecord links the ordered source items of a sort to the sorted-lot item they became
type SortLotRecord struct {
	shared.BaseAggregateRoot
	Code       string
	Reference  int64   // sorted-lot item
	Sources    []int64 // source items, in the order given
	Remark     string
	IsApproved bool
	ApprovedAt *time.Time
	CreatedBy  string
}

// NewSortLotRecord creates an unapproved sort record
func NewSortLotRecord(lotID int64, sources []int64, remark, createdBy string) (*SortLotRecord, error) {
	if lotID <= 0 {
		return nil, shared.NewValidationError("sort record needs the sorted-lot item")
	}
	if len(sources) == 0 {
		return nil, shared.NewValidationError("sort record needs at least one source item")
	}
	for _, id := range sources {
		if id == lotID {
			return nil, shared.NewValidationError("item %d cannot be sorted into itself", id)
		}
	}
	return &SortLotRecord{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Reference:         lotID,
		Sources:           append([]int64(nil), sources...),
		Remark:            remark,
		CreatedBy:         createdBy,
	}, nil
}

// AssignCode derives the SLT### code from the persisted id
func (r *SortLotRecord) AssignCode() error {
	code, err := codegen.Generate(codegen.KindSortLotBatch, "", r.ID)
	if err != nil {
		return err
	}
	r.Code = code
	return nil
}

// Approve marks the sort approved; a sort is approved at most once
func (r *SortLotRecord) Approve() error {
	if err := approvable(r.IsActive, r.IsApproved, r.Code); err != nil {
		return err
	}
	now := time.Now()
	r.IsApproved = true
	r.ApprovedAt = &now
	r.Touch()
	r.AddDomainEvent(NewStageApprovedEvent(AggregateTypeSortLot, r.ID, r.Code, r.Reference, r.Sources))
	return nil
}

// Deactivate soft-deletes the record
func (r *SortLotRecord) Deactivate() {
	r.BaseEntity.Deactivate()
}
