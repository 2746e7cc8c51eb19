package processing

import (
	"context"
	"errors"

	"github.com/gemerp/backend/internal/application/common"
	"github.com/gemerp/backend/internal/domain/inventory"
	"github.com/gemerp/backend/internal/domain/processing"
	"github.com/gemerp/backend/internal/domain/shared"
	"github.com/gemerp/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// HeatTreatmentService manages furnace batches and the heating runs over them
type HeatTreatmentService struct {
	runtime
	groupRepo     processing.HeatTreatmentGroupRepository
	treatmentRepo processing.HeatTreatmentRepository
	itemRepo      inventory.ItemRepository
}

// NewHeatTreatmentService creates a new HeatTreatmentService
func NewHeatTreatmentService(
	groupRepo processing.HeatTreatmentGroupRepository,
	treatmentRepo processing.HeatTreatmentRepository,
	itemRepo inventory.ItemRepository,
	scope common.TransactionScope,
	opts ...Option,
) *HeatTreatmentService {
	return &HeatTreatmentService{
		runtime:       newRuntime(scope, opts),
		groupRepo:     groupRepo,
		treatmentRepo: treatmentRepo,
		itemRepo:      itemRepo,
	}
}

// CreateGroup creates a group over live items, keeping the member order
func (s *HeatTreatmentService) CreateGroup(ctx context.Context, req HeatGroupRequest) (*HeatGroupResponse, error) {
	group, err := processing.NewHeatTreatmentGroup(req.Name, req.Members, req.Remark, req.Date, req.CreatedBy)
	if err != nil {
		return nil, err
	}
	err = s.scope.Execute(ctx, func(repos common.TransactionalRepositories) error {
		if err := requireLiveItems(ctx, repos, group.Members); err != nil {
			return err
		}
		groups := repos.HeatGroupRepo()
		if err := groups.Create(ctx, group); err != nil {
			return err
		}
		if err := group.AssignCode(); err != nil {
			return err
		}
		return groups.Save(ctx, group)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("heat treatment group created",
		zap.String("code", group.Code),
		zap.Int("members", len(group.Members)),
	)
	resp := ToHeatGroupResponse(group)
	return &resp, nil
}

// UpdateGroup edits a group. A nil member list leaves the members untouched.
func (s *HeatTreatmentService) UpdateGroup(ctx context.Context, id int64, req HeatGroupRequest) (*HeatGroupResponse, error) {
	var group *processing.HeatTreatmentGroup
	err := s.scope.Execute(ctx, func(repos common.TransactionalRepositories) error {
		var err error
		group, err = repos.HeatGroupRepo().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := group.Update(req.Name, req.Remark, req.Date); err != nil {
			return err
		}
		if req.Members != nil {
			if err := group.SetMembers(req.Members); err != nil {
				return err
			}
			if err := requireLiveItems(ctx, repos, group.Members); err != nil {
				return err
			}
		}
		return repos.HeatGroupRepo().Save(ctx, group)
	})
	if err != nil {
		return nil, err
	}
	resp := ToHeatGroupResponse(group)
	return &resp, nil
}

// DeactivateGroup soft-deletes a group; its treatments are left as they are
func (s *HeatTreatmentService) DeactivateGroup(ctx context.Context, id int64) error {
	err := s.scope.Execute(ctx, func(repos common.TransactionalRepositories) error {
		group, err := repos.HeatGroupRepo().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !group.IsActive {
			return shared.NewNotFoundError("heat treatment group", id)
		}
		group.Deactivate()
		return repos.HeatGroupRepo().Save(ctx, group)
	})
	if err != nil {
		return err
	}
	s.logger.Info("heat treatment group deactivated", zap.Int64("group_id", id))
	return nil
}

// GetGroup returns a live group
func (s *HeatTreatmentService) GetGroup(ctx context.Context, id int64) (*HeatGroupResponse, error) {
	group, err := s.groupRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToHeatGroupResponse(group)
	return &resp, nil
}

// GroupMembers returns the live member items of a group in member order
func (s *HeatTreatmentService) GroupMembers(ctx context.Context, id int64) ([]ItemSummary, error) {
	group, err := s.groupRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]ItemSummary, 0, len(group.Members))
	for _, itemID := range group.Members {
		item, err := s.itemRepo.FindByID(ctx, itemID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, ToItemSummary(item))
	}
	return out, nil
}

// ListGroups lists live groups
func (s *HeatTreatmentService) ListGroups(ctx context.Context, filter RecordListFilter) ([]HeatGroupResponse, int64, error) {
	groups, total, err := s.groupRepo.FindAll(ctx, filter.toDomain())
	if err != nil {
		return nil, 0, err
	}
	out := make([]HeatGroupResponse, len(groups))
	for k := range groups {
		out[k] = ToHeatGroupResponse(&groups[k])
	}
	return out, total, nil
}

// CreateTreatment records a heating run over a live group and writes each
// line's outcome onto its item. Every line item must belong to the group.
func (s *HeatTreatmentService) CreateTreatment(ctx context.Context, req HeatTreatmentRequest) (_ *HeatTreatmentResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "heat_treatment", "create", "group_id", req.GroupID, "lines", len(req.Lines))
	defer func() { telemetry.End(span, err) }()

	if err := checkLines(req.Lines); err != nil {
		return nil, err
	}

	var (
		treatment *processing.HeatTreatment
		touched   []*inventory.Item
	)
	err = s.locked(ctx, lineItems(req.Lines), func(repos common.TransactionalRepositories, events *common.EventCollector) error {
		group, err := liveGroup(ctx, repos, req.GroupID)
		if err != nil {
			return err
		}
		treatment, err = processing.NewHeatTreatment(group, req.HeatBy, req.Date, req.Remark, req.CreatedBy)
		if err != nil {
			return err
		}
		treatments := repos.HeatTreatmentRepo()
		if err := treatments.Create(ctx, treatment); err != nil {
			return err
		}
		if err := treatment.AssignCode(); err != nil {
			return err
		}
		if err := treatments.Save(ctx, treatment); err != nil {
			return err
		}

		touched, err = applyLines(ctx, repos, group, treatment, req.Lines)
		if err != nil {
			return err
		}
		for _, item := range touched {
			events.Collect(item)
		}
		events.Collect(treatment)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("heat treatment recorded",
		zap.String("code", treatment.Code),
		zap.Int64("group_id", treatment.GroupID),
		zap.Int("lines", len(req.Lines)),
	)
	resp := ToHeatTreatmentResponse(treatment, touched)
	return &resp, nil
}

// UpdateTreatment edits a run and re-applies the given line outcomes
func (s *HeatTreatmentService) UpdateTreatment(ctx context.Context, id int64, req HeatTreatmentRequest) (*HeatTreatmentResponse, error) {
	if err := checkLines(req.Lines); err != nil {
		return nil, err
	}

	var (
		treatment *processing.HeatTreatment
		touched   []*inventory.Item
	)
	err := s.locked(ctx, lineItems(req.Lines), func(repos common.TransactionalRepositories, events *common.EventCollector) error {
		var err error
		treatment, err = repos.HeatTreatmentRepo().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		group, err := liveGroup(ctx, repos, req.GroupID)
		if err != nil {
			return err
		}
		if err := treatment.Update(group, req.HeatBy, req.Date, req.Remark); err != nil {
			return err
		}
		if err := repos.HeatTreatmentRepo().Save(ctx, treatment); err != nil {
			return err
		}

		touched, err = applyLines(ctx, repos, group, treatment, req.Lines)
		if err != nil {
			return err
		}
		for _, item := range touched {
			events.Collect(item)
		}
		events.Collect(treatment)
		return nil
	})
	if err != nil {
		return nil, err
	}
	resp := ToHeatTreatmentResponse(treatment, touched)
	return &resp, nil
}

// DeactivateTreatment soft-deletes a run. Outcomes already written on items stay.
func (s *HeatTreatmentService) DeactivateTreatment(ctx context.Context, id int64) error {
	err := s.scope.Execute(ctx, func(repos common.TransactionalRepositories) error {
		treatment, err := repos.HeatTreatmentRepo().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !treatment.IsActive {
			return shared.NewNotFoundError("heat treatment", id)
		}
		treatment.Deactivate()
		return repos.HeatTreatmentRepo().Save(ctx, treatment)
	})
	if err != nil {
		return err
	}
	s.logger.Info("heat treatment deactivated", zap.Int64("treatment_id", id))
	return nil
}

// GetTreatment returns a live run
func (s *HeatTreatmentService) GetTreatment(ctx context.Context, id int64) (*HeatTreatmentResponse, error) {
	treatment, err := s.treatmentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToHeatTreatmentResponse(treatment, nil)
	return &resp, nil
}

// ListTreatments lists live runs, optionally for one group
func (s *HeatTreatmentService) ListTreatments(ctx context.Context, filter RecordListFilter) ([]HeatTreatmentResponse, int64, error) {
	treatments, total, err := s.treatmentRepo.FindAll(ctx, filter.toDomain())
	if err != nil {
		return nil, 0, err
	}
	out := make([]HeatTreatmentResponse, len(treatments))
	for k := range treatments {
		out[k] = ToHeatTreatmentResponse(&treatments[k], nil)
	}
	return out, total, nil
}

func liveGroup(ctx context.Context, repos common.TransactionalRepositories, id int64) (*processing.HeatTreatmentGroup, error) {
	group, err := repos.HeatGroupRepo().FindByIDForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if !group.IsActive {
		return nil, shared.NewNotFoundError("heat treatment group", id)
	}
	return group, nil
}

// requireLiveItems fails unless every id is an active item
func requireLiveItems(ctx context.Context, repos common.TransactionalRepositories, ids []int64) error {
	items, err := repos.ItemRepo().FindByIDsForUpdate(ctx, ids)
	if err != nil {
		return err
	}
	for _, item := range items {
		if err := item.EnsureActive(); err != nil {
			return err
		}
	}
	return nil
}

func checkLines(lines []TreatmentLine) error {
	seen := make(map[int64]bool, len(lines))
	for _, line := range lines {
		if line.ItemID <= 0 {
			return shared.NewValidationError("invalid item id %d", line.ItemID)
		}
		if seen[line.ItemID] {
			return shared.NewValidationError("item %d has two treatment lines", line.ItemID)
		}
		seen[line.ItemID] = true
		if line.WeightAfterHT.IsNegative() {
			return shared.NewValidationError("weight after heat treatment cannot be negative")
		}
	}
	return nil
}

func lineItems(lines []TreatmentLine) []int64 {
	ids := make([]int64, len(lines))
	for k, line := range lines {
		ids[k] = line.ItemID
	}
	return ids
}

// applyLines writes each outcome onto its item. A line without its own
// heater falls back to the run's heater.
func applyLines(
	ctx context.Context,
	repos common.TransactionalRepositories,
	group *processing.HeatTreatmentGroup,
	treatment *processing.HeatTreatment,
	lines []TreatmentLine,
) ([]*inventory.Item, error) {
	items := repos.ItemRepo()
	touched := make([]*inventory.Item, 0, len(lines))
	for _, line := range lines {
		if !group.Contains(line.ItemID) {
			return nil, shared.NewValidationError("item %d is not in group %s", line.ItemID, group.Code)
		}
		var status inventory.ItemStatus
		if line.AfterStatus != "" {
			parsed, err := inventory.ParseItemStatus(line.AfterStatus)
			if err != nil {
				return nil, err
			}
			status = parsed
		}

		item, err := items.FindByIDForUpdate(ctx, line.ItemID)
		if err != nil {
			return nil, err
		}
		if err := item.EnsureActive(); err != nil {
			return nil, err
		}
		heater := line.HTBy
		if heater == nil {
			heater = treatment.HeatBy
		}
		if err := item.ApplyHeatTreatment(inventory.HeatTreatmentResult{
			WeightAfterHT:     line.WeightAfterHT,
			HTBy:              heater,
			PhotosAfterHTLink: line.PhotosAfterHTLink,
			AfterStatus:       status,
		}); err != nil {
			return nil, err
		}
		if err := items.Save(ctx, item); err != nil {
			return nil, err
		}
		touched = append(touched, item)
	}
	return touched, nil
}
