package processing

import (
	"time"

	"github.com/gemerp/backend/internal/domain/shared"
	"github.com/gemerp/backend/internal/domain/shared/codegen"
)

// CutPolishRecord links a source stone to the cut-and-polished item made from it.
// The derived item stays out of inventory until the record is approved.
type CutPolishRecord struct {
	shared.BaseAggregateRoot
	Code         string
	OldReference int64 // source item
	Reference    int64 // derived cut-and-polished item
	Photo        string
	Remark       string
	IsApproved   bool
	ApprovedAt   *time.Time
	CreatedBy    string
}

// NewCutPolishRecord creates an unapproved record for a source and its derived item
func NewCutPolishRecord(sourceID, derivedID int64, photo, remark, createdBy string) (*CutPolishRecord, error) {
	if sourceID <= 0 || derivedID <= 0 {
		return nil, shared.NewValidationError("cut and polish needs both a source and a derived item")
	}
	if sourceID == derivedID {
		return nil, shared.NewValidationError("source and derived item must differ")
	}
	return &CutPolishRecord{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OldReference:      sourceID,
		Reference:         derivedID,
		Photo:             photo,
		Remark:            remark,
		CreatedBy:         createdBy,
	}, nil
}

// AssignCode derives the CP### code from the persisted id
func (r *CutPolishRecord) AssignCode() error {
	code, err := codegen.Generate(codegen.KindCutPolish, "", r.ID)
	if err != nil {
		return err
	}
	r.Code = code
	return nil
}

// Update edits the evidence fields
func (r *CutPolishRecord) Update(photo, remark string) error {
	if !r.IsActive {
		return shared.NewNotFoundError("cut and polish record", r.ID)
	}
	r.Photo = photo
	r.Remark = remark
	r.Touch()
	return nil
}

// Approve marks the record approved; a record is approved at most once
func (r *CutPolishRecord) Approve() error {
	if err := approvable(r.IsActive, r.IsApproved, r.Code); err != nil {
		return err
	}
	now := time.Now()
	r.IsApproved = true
	r.ApprovedAt = &now
	r.Touch()
	r.AddDomainEvent(NewStageApprovedEvent(AggregateTypeCutPolish, r.ID, r.Code, r.Reference, []int64{r.OldReference}))
	return nil
}

// Deactivate soft-deletes the record. Linked items are left as they are.
func (r *CutPolishRecord) Deactivate() {
	r.BaseEntity.Deactivate()
}

func approvable(active, approved bool, code string) error {
	if !active {
		return shared.NewInvalidStateError("record %s is deactivated", code)
	}
	if approved {
		return shared.NewInvalidStateError("record %s is already approved", code)
	}
	return nil
}
