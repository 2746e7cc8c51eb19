package processing

import (
	"context"

	"github.com/gemerp/backend/internal/application/common"
	"github.com/gemerp/backend/internal/domain/inventory"
	"github.com/gemerp/backend/internal/domain/processing"
	"github.com/gemerp/backend/internal/domain/shared"
	"github.com/gemerp/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// CutPolishService records stones sent to the cutter and releases the
// cut-and-polished result once the record is approved
type CutPolishService struct {
	runtime
	recordRepo processing.CutPolishRepository
	itemRepo   inventory.ItemRepository
}

// NewCutPolishService creates a new CutPolishService
func NewCutPolishService(
	recordRepo processing.CutPolishRepository,
	itemRepo inventory.ItemRepository,
	scope common.TransactionScope,
	opts ...Option,
) *CutPolishService {
	return &CutPolishService{
		runtime:    newRuntime(scope, opts),
		recordRepo: recordRepo,
		itemRepo:   itemRepo,
	}
}

// Create derives a new cut-and-polished item from a live source and records
// the link. The derived item stays out of inventory until approval.
func (s *CutPolishService) Create(ctx context.Context, req CreateCutPolishRequest) (_ *CutPolishResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "cut_polish", "create", "source_id", req.SourceID)
	defer func() { telemetry.End(span, err) }()

	var status inventory.ItemStatus
	if req.Status != "" {
		parsed, err := inventory.ParseItemStatus(req.Status)
		if err != nil {
			return nil, err
		}
		status = parsed
	}

	var (
		record          *processing.CutPolishRecord
		source, derived *inventory.Item
	)
	err = s.locked(ctx, []int64{req.SourceID}, func(repos common.TransactionalRepositories, events *common.EventCollector) error {
		items := repos.ItemRepo()
		var err error
		source, err = items.FindByIDForUpdate(ctx, req.SourceID)
		if err != nil {
			return err
		}
		if err := source.EnsureActive(); err != nil {
			return err
		}

		derived, err = source.DeriveCutPolished(inventory.CutPolishParams{
			Subtype:       req.Subtype,
			Status:        status,
			CPBy:          req.CPBy,
			CPColor:       req.CPColor,
			Shape:         req.Shape,
			TotalCost:     req.TotalCost,
			WeightAfterCP: req.WeightAfterCP,
			CreatedBy:     req.CreatedBy,
		})
		if err != nil {
			return err
		}
		if err := items.Create(ctx, derived); err != nil {
			return err
		}
		if err := derived.AssignCode(); err != nil {
			return err
		}
		if err := items.Save(ctx, derived); err != nil {
			return err
		}

		if req.DeactivateReference {
			source.WithdrawFromInventory()
			if err := items.Save(ctx, source); err != nil {
				return err
			}
		}

		record, err = processing.NewCutPolishRecord(source.ID, derived.ID, req.Photo, req.Remark, req.CreatedBy)
		if err != nil {
			return err
		}
		records := repos.CutPolishRepo()
		if err := records.Create(ctx, record); err != nil {
			return err
		}
		if err := record.AssignCode(); err != nil {
			return err
		}
		if err := records.Save(ctx, record); err != nil {
			return err
		}
		events.Collect(derived, source, record)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("cut and polish recorded",
		zap.String("code", record.Code),
		zap.String("source", source.Code),
		zap.String("derived", derived.Code),
		zap.Bool("source_withdrawn", req.DeactivateReference),
	)
	resp := ToCutPolishResponse(record, source, derived)
	return &resp, nil
}

// Update edits the record evidence and the cutter's values on the derived item
func (s *CutPolishService) Update(ctx context.Context, id int64, req UpdateCutPolishRequest) (*CutPolishResponse, error) {
	current, err := s.recordRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var (
		record  *processing.CutPolishRecord
		derived *inventory.Item
	)
	err = s.locked(ctx, []int64{current.Reference}, func(repos common.TransactionalRepositories, events *common.EventCollector) error {
		var err error
		record, err = repos.CutPolishRepo().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := record.Update(req.Photo, req.Remark); err != nil {
			return err
		}
		if err := repos.CutPolishRepo().Save(ctx, record); err != nil {
			return err
		}

		derived, err = repos.ItemRepo().FindByIDForUpdate(ctx, record.Reference)
		if err != nil {
			return err
		}
		if err := derived.Update(inventory.UpdateDetails{
			CPBy:          req.CPBy,
			CPColor:       req.CPColor,
			Shape:         req.Shape,
			TotalCost:     req.TotalCost,
			WeightAfterCP: req.WeightAfterCP,
		}); err != nil {
			return err
		}
		if err := repos.ItemRepo().Save(ctx, derived); err != nil {
			return err
		}
		events.Collect(record, derived)
		return nil
	})
	if err != nil {
		return nil, err
	}
	resp := ToCutPolishResponse(record, nil, derived)
	return &resp, nil
}

// Approve releases the derived item into inventory and retires the source as C&P.
// A record is approved at most once.
func (s *CutPolishService) Approve(ctx context.Context, id int64) (_ *CutPolishResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "cut_polish", "approve", "record_id", id)
	defer func() { telemetry.End(span, err) }()

	// any state: a deactivated record must fail with INVALID_STATE, not NOT_FOUND
	current, err := s.recordRepo.FindByIDForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}

	var (
		record          *processing.CutPolishRecord
		source, derived *inventory.Item
	)
	err = s.locked(ctx, []int64{current.OldReference, current.Reference}, func(repos common.TransactionalRepositories, events *common.EventCollector) error {
		var err error
		record, err = repos.CutPolishRepo().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := record.Approve(); err != nil {
			return err
		}

		items := repos.ItemRepo()
		derived, err = items.FindByIDForUpdate(ctx, record.Reference)
		if err != nil {
			return err
		}
		if err := derived.Release(); err != nil {
			return err
		}
		source, err = items.FindByIDForUpdate(ctx, record.OldReference)
		if err != nil {
			return err
		}
		if err := source.Consume(inventory.StatusCP); err != nil {
			return err
		}

		if err := items.Save(ctx, derived); err != nil {
			return err
		}
		if err := items.Save(ctx, source); err != nil {
			return err
		}
		if err := repos.CutPolishRepo().Save(ctx, record); err != nil {
			return err
		}
		events.Collect(record, derived, source)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("cut and polish approved",
		zap.String("code", record.Code),
		zap.String("source", source.Code),
		zap.String("derived", derived.Code),
	)
	resp := ToCutPolishResponse(record, source, derived)
	return &resp, nil
}

// Deactivate soft-deletes a record. The items it links are left as they are.
func (s *CutPolishService) Deactivate(ctx context.Context, id int64) error {
	err := s.scope.Execute(ctx, func(repos common.TransactionalRepositories) error {
		record, err := repos.CutPolishRepo().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !record.IsActive {
			return shared.NewNotFoundError("cut and polish record", id)
		}
		record.Deactivate()
		return repos.CutPolishRepo().Save(ctx, record)
	})
	if err != nil {
		return err
	}
	s.logger.Info("cut and polish record deactivated", zap.Int64("record_id", id))
	return nil
}

// GetByID returns a live record with both of its items
func (s *CutPolishService) GetByID(ctx context.Context, id int64) (*CutPolishResponse, error) {
	record, err := s.recordRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToCutPolishResponse(record, s.lookup(ctx, record.OldReference), s.lookup(ctx, record.Reference))
	return &resp, nil
}

// GetByDerivedItem returns the live record that produced an item
func (s *CutPolishService) GetByDerivedItem(ctx context.Context, itemID int64) (*CutPolishResponse, error) {
	record, err := s.recordRepo.FindByDerivedItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	resp := ToCutPolishResponse(record, s.lookup(ctx, record.OldReference), s.lookup(ctx, record.Reference))
	return &resp, nil
}

// List lists live records
func (s *CutPolishService) List(ctx context.Context, filter RecordListFilter) ([]CutPolishResponse, int64, error) {
	records, total, err := s.recordRepo.FindAll(ctx, filter.toDomain())
	if err != nil {
		return nil, 0, err
	}
	out := make([]CutPolishResponse, len(records))
	for k := range records {
		out[k] = ToCutPolishResponse(&records[k], nil, nil)
	}
	return out, total, nil
}

// lookup returns a live item or nil; a deactivated item is simply not shown
func (s *CutPolishService) lookup(ctx context.Context, id int64) *inventory.Item {
	item, err := s.itemRepo.FindByID(ctx, id)
	if err != nil {
		return nil
	}
	return item
}
