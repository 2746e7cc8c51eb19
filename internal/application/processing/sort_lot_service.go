package processing

import (
	"context"

	"github.com/gemerp/backend/internal/application/common"
	"github.com/gemerp/backend/internal/domain/inventory"
	"github.com/gemerp/backend/internal/domain/processing"
	"github.com/gemerp/backend/internal/domain/shared"
	"github.com/gemerp/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SortLotService folds several items into one sorted lot
type SortLotService struct {
	runtime
	recordRepo processing.SortLotRepository
	itemRepo   inventory.ItemRepository
}

// NewSortLotService creates a new SortLotService
func NewSortLotService(
	recordRepo processing.SortLotRepository,
	itemRepo inventory.ItemRepository,
	scope common.TransactionScope,
	opts ...Option,
) *SortLotService {
	return &SortLotService{
		runtime:    newRuntime(scope, opts),
		recordRepo: recordRepo,
		itemRepo:   itemRepo,
	}
}

// Create books a new Sorted Lots item over the given sources, in order.
// A zero weight is filled with the sum of the source weights.
func (s *SortLotService) Create(ctx context.Context, req CreateSortLotRequest) (_ *SortLotResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sort_lot", "create", "source_ids", req.SourceIDs)
	defer func() { telemetry.End(span, err) }()

	// validates and normalises the source list before anything is locked
	lot, err := inventory.NewSortedLot(req.SourceIDs, inventory.SortedLotParams{
		Subtype:   req.Subtype,
		Weight:    req.Weight,
		PhotoLink: req.PhotoLink,
		Comments:  req.Comments,
		CreatedBy: req.CreatedBy,
	})
	if err != nil {
		return nil, err
	}

	var (
		record  *processing.SortLotRecord
		sources []*inventory.Item
	)
	err = s.locked(ctx, lot.LotSources, func(repos common.TransactionalRepositories, events *common.EventCollector) error {
		items := repos.ItemRepo()
		var err error
		sources, err = items.FindByIDsForUpdate(ctx, lot.LotSources)
		if err != nil {
			return err
		}
		total := decimal.Zero
		for _, src := range sources {
			if err := src.EnsureActive(); err != nil {
				return err
			}
			total = total.Add(src.Weight)
		}
		if lot.Weight.IsZero() {
			lot.Weight = total
		}

		if err := items.Create(ctx, lot); err != nil {
			return err
		}
		if err := lot.AssignCode(); err != nil {
			return err
		}
		if err := items.Save(ctx, lot); err != nil {
			return err
		}

		record, err = processing.NewSortLotRecord(lot.ID, lot.LotSources, req.Remark, req.CreatedBy)
		if err != nil {
			return err
		}
		records := repos.SortLotRepo()
		if err := records.Create(ctx, record); err != nil {
			return err
		}
		if err := record.AssignCode(); err != nil {
			return err
		}
		if err := records.Save(ctx, record); err != nil {
			return err
		}
		events.Collect(lot, record)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("sort recorded",
		zap.String("code", record.Code),
		zap.String("lot", lot.Code),
		zap.String("sources", lot.ReferenceIDLots()),
	)
	resp := ToSortLotResponse(record, lot, sources)
	return &resp, nil
}

// Approve releases the lot into inventory and retires every source as Added to a lot
func (s *SortLotService) Approve(ctx context.Context, id int64) (_ *SortLotResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sort_lot", "approve", "record_id", id)
	defer func() { telemetry.End(span, err) }()

	// any state: a deactivated record must fail with INVALID_STATE, not NOT_FOUND
	current, err := s.recordRepo.FindByIDForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}

	var (
		record  *processing.SortLotRecord
		lot     *inventory.Item
		sources []*inventory.Item
	)
	ids := append([]int64{current.Reference}, current.Sources...)
	err = s.locked(ctx, ids, func(repos common.TransactionalRepositories, events *common.EventCollector) error {
		var err error
		record, err = repos.SortLotRepo().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := record.Approve(); err != nil {
			return err
		}

		items := repos.ItemRepo()
		lot, err = items.FindByIDForUpdate(ctx, record.Reference)
		if err != nil {
			return err
		}
		if err := lot.Release(); err != nil {
			return err
		}
		if err := items.Save(ctx, lot); err != nil {
			return err
		}

		sources, err = items.FindByIDsForUpdate(ctx, record.Sources)
		if err != nil {
			return err
		}
		for _, src := range sources {
			if err := src.Consume(inventory.StatusAddedToLot); err != nil {
				return err
			}
			if err := items.Save(ctx, src); err != nil {
				return err
			}
			events.Collect(src)
		}

		if err := repos.SortLotRepo().Save(ctx, record); err != nil {
			return err
		}
		events.Collect(record, lot)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("sort approved",
		zap.String("code", record.Code),
		zap.String("lot", lot.Code),
		zap.Int("sources", len(sources)),
	)
	resp := ToSortLotResponse(record, lot, sources)
	return &resp, nil
}

// Deactivate soft-deletes a sort record. The lot and its sources are left as they are.
func (s *SortLotService) Deactivate(ctx context.Context, id int64) error {
	err := s.scope.Execute(ctx, func(repos common.TransactionalRepositories) error {
		record, err := repos.SortLotRepo().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !record.IsActive {
			return shared.NewNotFoundError("sort record", id)
		}
		record.Deactivate()
		return repos.SortLotRepo().Save(ctx, record)
	})
	if err != nil {
		return err
	}
	s.logger.Info("sort record deactivated", zap.Int64("record_id", id))
	return nil
}

// GetByID returns a live record with the lot and its live sources
func (s *SortLotService) GetByID(ctx context.Context, id int64) (*SortLotResponse, error) {
	record, err := s.recordRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	var lot *inventory.Item
	if item, err := s.itemRepo.FindByID(ctx, record.Reference); err == nil {
		lot = item
	}
	sources := make([]*inventory.Item, 0, len(record.Sources))
	for _, srcID := range record.Sources {
		if item, err := s.itemRepo.FindByID(ctx, srcID); err == nil {
			sources = append(sources, item)
		}
	}
	resp := ToSortLotResponse(record, lot, sources)
	return &resp, nil
}

// List lists live sort records
func (s *SortLotService) List(ctx context.Context, filter RecordListFilter) ([]SortLotResponse, int64, error) {
	records, total, err := s.recordRepo.FindAll(ctx, filter.toDomain())
	if err != nil {
		return nil, 0, err
	}
	out := make([]SortLotResponse, len(records))
	for k := range records {
		out[k] = ToSortLotResponse(&records[k], nil, nil)
	}
	return out, total, nil
}
