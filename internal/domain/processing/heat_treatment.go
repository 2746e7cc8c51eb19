package processing

import (
	"strings"
	"time"

	"github.com/gemerp/backend/internal/domain/shared"
	"github.com/gemerp/backend/internal/domain/shared/codegen"
)

// HeatTreatmentGroup is a furnace batch: an ordered set of items sent for heating together
type HeatTreatmentGroup struct {
	shared.BaseAggregateRoot
	Code      string
	Name      string
	Members   []int64
	Remark    string
	Date      *time.Time
	CreatedBy string
}

// NewHeatTreatmentGroup creates a group with its initial members
func NewHeatTreatmentGroup(name string, members []int64, remark string, date *time.Time, createdBy string) (*HeatTreatmentGroup, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewValidationError("heat treatment group name is required")
	}
	g := &HeatTreatmentGroup{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Remark:            remark,
		Date:              date,
		CreatedBy:         createdBy,
	}
	if err := g.SetMembers(members); err != nil {
		return nil, err
	}
	return g, nil
}

// AssignCode derives the GHT### code from the persisted id
func (g *HeatTreatmentGroup) AssignCode() error {
	code, err := codegen.Generate(codegen.KindHeatGroup, "", g.ID)
	if err != nil {
		return err
	}
	g.Code = code
	return nil
}

// Update edits the descriptive fields
func (g *HeatTreatmentGroup) Update(name, remark string, date *time.Time) error {
	if !g.IsActive {
		return shared.NewNotFoundError("heat treatment group", g.ID)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewValidationError("heat treatment group name is required")
	}
	g.Name = name
	g.Remark = remark
	g.Date = date
	g.Touch()
	return nil
}

// SetMembers replaces the member list, keeping the given order
func (g *HeatTreatmentGroup) SetMembers(ids []int64) error {
	seen := make(map[int64]bool, len(ids))
	members := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			return shared.NewValidationError("invalid member item id %d", id)
		}
		if seen[id] {
			return shared.NewValidationError("item %d is listed twice in the group", id)
		}
		seen[id] = true
		members = append(members, id)
	}
	g.Members = members
	g.Touch()
	return nil
}

// AddMember appends an item to the end of the group. Adding an existing member is a no-op.
func (g *HeatTreatmentGroup) AddMember(id int64) error {
	if !g.IsActive {
		return shared.NewInvalidStateError("heat treatment group %s is deactivated", g.Code)
	}
	if id <= 0 {
		return shared.NewValidationError("invalid member item id %d", id)
	}
	if g.Contains(id) {
		return nil
	}
	g.Members = append(g.Members, id)
	g.Touch()
	return nil
}

// Contains reports whether an item belongs to the group
func (g *HeatTreatmentGroup) Contains(id int64) bool {
	for _, m := range g.Members {
		if m == id {
			return true
		}
	}
	return false
}

// Deactivate soft-deletes the group
func (g *HeatTreatmentGroup) Deactivate() {
	g.BaseEntity.Deactivate()
}

// HeatTreatment is one heating run over a group. Its per-item outcomes are
// written onto the items themselves.
type HeatTreatment struct {
	shared.BaseAggregateRoot
	Code       string
	GroupID    int64
	HeatBy     *int64
	IsApproved bool
	Date       *time.Time
	Remark     string
	CreatedBy  string
}

// NewHeatTreatment creates an unapproved treatment for an active group
func NewHeatTreatment(group *HeatTreatmentGroup, heatBy *int64, date *time.Time, remark, createdBy string) (*HeatTreatment, error) {
	if group == nil || !group.IsActive {
		return nil, shared.NewValidationError("heat treatment needs an active group")
	}
	return &HeatTreatment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		GroupID:           group.ID,
		HeatBy:            heatBy,
		Date:              date,
		Remark:            remark,
		CreatedBy:         createdBy,
	}, nil
}

// AssignCode derives the HT### code from the persisted id
func (t *HeatTreatment) AssignCode() error {
	code, err := codegen.Generate(codegen.KindHeatTreatment, "", t.ID)
	if err != nil {
		return err
	}
	t.Code = code
	return nil
}

// Update edits the run details
func (t *HeatTreatment) Update(group *HeatTreatmentGroup, heatBy *int64, date *time.Time, remark string) error {
	if !t.IsActive {
		return shared.NewNotFoundError("heat treatment", t.ID)
	}
	if group == nil || !group.IsActive {
		return shared.NewValidationError("heat treatment needs an active group")
	}
	t.GroupID = group.ID
	t.HeatBy = heatBy
	t.Date = date
	t.Remark = remark
	t.Touch()
	return nil
}

// Deactivate soft-deletes the treatment. Item outcomes already written stay.
func (t *HeatTreatment) Deactivate() {
	t.BaseEntity.Deactivate()
}
