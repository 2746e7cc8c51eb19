package inventory

import (
	"context"
	"time"

	"github.com/gemerp/backend/internal/application/common"
	ledger "github.com/gemerp/backend/internal/application/finance"
	"github.com/gemerp/backend/internal/domain/finance"
	"github.com/gemerp/backend/internal/domain/inventory"
	"github.com/gemerp/backend/internal/domain/shared"
	"github.com/gemerp/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ItemService handles the item lifecycle: intake, edits, status moves and reads
type ItemService struct {
	itemRepo       inventory.ItemRepository
	scope          common.TransactionScope
	locker         common.Locker
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// ItemServiceOption is a functional option for configuring ItemService
type ItemServiceOption func(*ItemService)

// WithItemLocker sets the distributed locker
func WithItemLocker(locker common.Locker) ItemServiceOption {
	return func(s *ItemService) {
		if locker != nil {
			s.locker = locker
		}
	}
}

// WithItemLogger sets the logger
func WithItemLogger(logger *zap.Logger) ItemServiceOption {
	return func(s *ItemService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewItemService creates a new ItemService
func NewItemService(itemRepo inventory.ItemRepository, scope common.TransactionScope, opts ...ItemServiceOption) *ItemService {
	s := &ItemService{
		itemRepo: itemRepo,
		scope:    scope,
		locker:   common.NoopLocker{},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *ItemService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create takes an item into inventory. The code, the optional Buying deal and
// the optional heat treatment group membership are written in the same unit
// of work as the item row.
func (s *ItemService) Create(ctx context.Context, req CreateItemRequest) (_ *ItemResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "item", "create", "type", req.Type, "subtype", req.Subtype)
	defer func() { telemetry.End(span, err) }()

	params, err := newItemParams(req)
	if err != nil {
		return nil, err
	}

	var item *inventory.Item
	events := &common.EventCollector{}
	err = s.scope.Execute(ctx, func(repos common.TransactionalRepositories) error {
		item, err = inventory.NewItem(params)
		if err != nil {
			return err
		}
		items := repos.ItemRepo()
		if err := items.Create(ctx, item); err != nil {
			return err
		}
		if err := item.AssignCode(); err != nil {
			return err
		}
		if err := items.Save(ctx, item); err != nil {
			return err
		}

		if req.HeatTreatmentGroupID != nil {
			if err := joinHeatGroup(ctx, repos, *req.HeatTreatmentGroupID, item.ID); err != nil {
				return err
			}
		}

		if p := req.Purchase; p != nil {
			root, err := ledger.OpenDeal(ctx, repos, item, finance.RootParams{
				Type:            finance.TypeBuying,
				Amount:          p.Amount,
				InitialPayment:  p.InitialPayment,
				Method:          finance.ParsePaymentMethod(p.Method),
				Date:            timeOrZero(p.Date),
				Customer:        p.Buyer,
				ShareHolders:    item.ShareHolders,
				SharePercentage: item.SharePercentage,
				OtherShares:     item.OtherShares,
				Comments:        item.Comments,
				PaymentETAStart: p.PaymentETAStart,
				PaymentETAEnd:   p.PaymentETAEnd,
				DateFinished:    p.DateFinished,
				CreatedBy:       req.CreatedBy,
			})
			if err != nil {
				return err
			}
			events.Collect(root)
		}
		events.Collect(item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	events.Publish(ctx, s.eventPublisher, s.logger)

	s.logger.Info("item created",
		zap.Int64("item_id", item.ID),
		zap.String("code", item.Code),
		zap.String("type", string(item.Type)),
		zap.Bool("with_purchase", req.Purchase != nil),
	)
	resp := ToItemResponse(item)
	return &resp, nil
}

// Update edits descriptive fields. Ledger mirrors and inventory flags are left alone.
func (s *ItemService) Update(ctx context.Context, id int64, req UpdateItemRequest) (*ItemResponse, error) {
	details, err := updateDetails(req)
	if err != nil {
		return nil, err
	}
	item, err := s.withItem(ctx, id, func(item *inventory.Item) error {
		return item.Update(details)
	})
	if err != nil {
		return nil, err
	}
	resp := ToItemResponse(item)
	return &resp, nil
}

// ChangeStatus moves an item through the status transition table. Sold and
// Added to a lot cannot be set here.
func (s *ItemService) ChangeStatus(ctx context.Context, id int64, req ChangeStatusRequest) (*ItemResponse, error) {
	status, err := inventory.ParseItemStatus(req.Status)
	if err != nil {
		return nil, err
	}
	item, err := s.withItem(ctx, id, func(item *inventory.Item) error {
		return item.MoveTo(status)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("item status changed",
		zap.Int64("item_id", item.ID),
		zap.String("code", item.Code),
		zap.String("status", string(item.Status)),
	)
	resp := ToItemResponse(item)
	return &resp, nil
}

// Deactivate soft-deletes an item. Transactions and processing records that
// reference it are left untouched.
func (s *ItemService) Deactivate(ctx context.Context, id int64) error {
	item, err := s.withItem(ctx, id, func(item *inventory.Item) error {
		item.Deactivate()
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("item deactivated", zap.Int64("item_id", item.ID), zap.String("code", item.Code))
	return nil
}

// withItem locks an active item, applies fn and saves it in one unit of work
func (s *ItemService) withItem(ctx context.Context, id int64, fn func(*inventory.Item) error) (*inventory.Item, error) {
	release, err := s.locker.Acquire(ctx, common.ItemLockKey(id))
	if err != nil {
		return nil, err
	}
	defer release()

	var item *inventory.Item
	events := &common.EventCollector{}
	err = s.scope.Execute(ctx, func(repos common.TransactionalRepositories) error {
		item, err = repos.ItemRepo().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := item.EnsureActive(); err != nil {
			return err
		}
		if err := fn(item); err != nil {
			return err
		}
		if err := repos.ItemRepo().Save(ctx, item); err != nil {
			return err
		}
		events.Collect(item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	events.Publish(ctx, s.eventPublisher, s.logger)
	return item, nil
}

// GetByID returns a live item
func (s *ItemService) GetByID(ctx context.Context, id int64) (*ItemResponse, error) {
	item, err := s.itemRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToItemResponse(item)
	return &resp, nil
}

// GetByCode returns a live item by its human code
func (s *ItemService) GetByCode(ctx context.Context, code string) (*ItemResponse, error) {
	item, err := s.itemRepo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	resp := ToItemResponse(item)
	return &resp, nil
}

// List lists items; search matches code, subtype and status
func (s *ItemService) List(ctx context.Context, filter ItemListFilter) ([]ItemResponse, int64, error) {
	f := inventory.ItemFilter{
		Filter:        shared.DefaultFilter(),
		Type:          inventory.ItemType(filter.Type),
		InInventory:   filter.InInventory,
		IncludeClosed: filter.IncludeClosed,
	}
	if filter.Type != "" && !f.Type.IsValid() {
		return nil, 0, shared.NewValidationError("invalid item type %q", filter.Type)
	}
	if filter.Status != "" {
		status, err := inventory.ParseItemStatus(filter.Status)
		if err != nil {
			return nil, 0, err
		}
		f.Status = status
	}
	f.Search = filter.Search
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		f.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		f.OrderDir = filter.OrderDir
	}

	items, total, err := s.itemRepo.FindAll(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	return ToItemResponses(items), total, nil
}

// ForReference lists live in-inventory items for pickers
func (s *ItemService) ForReference(ctx context.Context, itemType string) ([]ItemResponse, error) {
	inStock := true
	f := inventory.ItemFilter{
		Filter:      shared.Filter{OrderBy: "id", OrderDir: "desc"},
		Type:        inventory.ItemType(itemType),
		InInventory: &inStock,
	}
	if itemType != "" && !f.Type.IsValid() {
		return nil, shared.NewValidationError("invalid item type %q", itemType)
	}
	items, _, err := s.itemRepo.FindAll(ctx, f)
	if err != nil {
		return nil, err
	}
	return ToItemResponses(items), nil
}

// HeldBy lists the items a customer currently holds in a role (cutter, heater, sales person...)
func (s *ItemService) HeldBy(ctx context.Context, customerID int64, role string) ([]ItemResponse, error) {
	r, err := inventory.ParseHolderRole(role)
	if err != nil {
		return nil, err
	}
	items, err := s.itemRepo.FindHeldBy(ctx, customerID, r)
	if err != nil {
		return nil, err
	}
	return ToItemResponses(items), nil
}

// SharedWith lists the items a customer holds a partner share in
func (s *ItemService) SharedWith(ctx context.Context, customerID int64) ([]ItemResponse, error) {
	items, err := s.itemRepo.FindByShareHolder(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return ToItemResponses(items), nil
}

// joinHeatGroup appends an item to the end of a live heat treatment group
func joinHeatGroup(ctx context.Context, repos common.TransactionalRepositories, groupID, itemID int64) error {
	group, err := repos.HeatGroupRepo().FindByIDForUpdate(ctx, groupID)
	if err != nil {
		return err
	}
	if !group.IsActive {
		return shared.NewNotFoundError("heat treatment group", groupID)
	}
	if err := group.AddMember(itemID); err != nil {
		return err
	}
	return repos.HeatGroupRepo().Save(ctx, group)
}

func newItemParams(req CreateItemRequest) (inventory.NewItemParams, error) {
	var status inventory.ItemStatus
	if req.Status != "" {
		parsed, err := inventory.ParseItemStatus(req.Status)
		if err != nil {
			return inventory.NewItemParams{}, err
		}
		status = parsed
	}
	return inventory.NewItemParams{
		Type:              inventory.ItemType(req.Type),
		Subtype:           req.Subtype,
		Status:            status,
		Weight:            req.Weight,
		CPColor:           req.CPColor,
		Shape:             req.Shape,
		PhotoLink:         req.PhotoLink,
		Comments:          req.Comments,
		Performer:         req.Performer,
		ETBy:              req.ETBy,
		HTBy:              req.HTBy,
		IsHeatTreated:     req.IsHeatTreated,
		WeightAfterHT:     req.WeightAfterHT,
		PhotosAfterHTLink: req.PhotosAfterHTLink,
		ShareHolders:      req.ShareHolders,
		SharePercentage:   req.SharePercentage,
		OtherShares:       req.OtherShares,
		CreatedBy:         req.CreatedBy,
	}, nil
}

func updateDetails(req UpdateItemRequest) (inventory.UpdateDetails, error) {
	d := inventory.UpdateDetails{
		Weight:            req.Weight,
		WeightAfterCP:     req.WeightAfterCP,
		WeightAfterHT:     req.WeightAfterHT,
		CPColor:           req.CPColor,
		Shape:             req.Shape,
		TotalCost:         req.TotalCost,
		PhotoLink:         req.PhotoLink,
		PhotosAfterHTLink: req.PhotosAfterHTLink,
		Comments:          req.Comments,
		Performer:         req.Performer,
		CPBy:              req.CPBy,
		HTBy:              req.HTBy,
		ETBy:              req.ETBy,
		Bearer:            req.Bearer,
	}
	if req.Status != nil {
		status, err := inventory.ParseItemStatus(*req.Status)
		if err != nil {
			return d, err
		}
		d.Status = &status
	}
	return d, nil
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
