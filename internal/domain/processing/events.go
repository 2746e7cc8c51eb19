package processing

import "github.com/gemerp/backend/internal/domain/shared"

// Aggregate type constants
const (
	AggregateTypeCutPolish = "CutPolishRecord"
	AggregateTypeSortLot   = "SortLotRecord"
)

// EventTypeStageApproved is raised when a processing record releases its derived item
const EventTypeStageApproved = "ProcessingStageApproved"

// StageApprovedEvent is raised when a cut-and-polish or sort record is approved
type StageApprovedEvent struct {
	shared.BaseDomainEvent
	Code        string  `json:"code"`
	DerivedItem int64   `json:"derived_item"`
	SourceItems []int64 `json:"source_items"`
}

// NewStageApprovedEvent creates a new StageApprovedEvent
func NewStageApprovedEvent(aggType string, id int64, code string, derived int64, sources []int64) *StageApprovedEvent {
	return &StageApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStageApproved, aggType, id),
		Code:            code,
		DerivedItem:     derived,
		SourceItems:     append([]int64(nil), sources...),
	}
}
