package persistence

import (
	"context"
	"fmt"

	"github.com/gemerp/backend/internal/domain/inventory"
	"github.com/gemerp/backend/internal/domain/shared"
	"github.com/gemerp/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormItemRepository implements ItemRepository using GORM
type GormItemRepository struct {
	db *gorm.DB
}

// NewGormItemRepository creates a new GormItemRepository
func NewGormItemRepository(db *gorm.DB) *GormItemRepository {
	return &GormItemRepository{db: db}
}

// FindByID finds an active item by its ID
func (r *GormItemRepository) FindByID(ctx context.Context, id int64) (*inventory.Item, error) {
	var model models.ItemModel
	if err := r.db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&model).Error; err != nil {
		return nil, notFound("item", id, err)
	}
	return r.hydrateOne(ctx, &model)
}

// FindByIDForUpdate loads an item in any state and locks its row
func (r *GormItemRepository) FindByIDForUpdate(ctx context.Context, id int64) (*inventory.Item, error) {
	var model models.ItemModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		return nil, notFound("item", id, err)
	}
	return r.hydrateOne(ctx, &model)
}

// FindByIDsForUpdate locks several items in id order and returns them in the order asked
func (r *GormItemRepository) FindByIDsForUpdate(ctx context.Context, ids []int64) ([]*inventory.Item, error) {
	if len(ids) == 0 {
		return []*inventory.Item{}, nil
	}

	var rows []models.ItemModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id").
		Find(&rows).Error; err != nil {
		return nil, translateError("lock items", err)
	}

	items, err := r.hydrate(ctx, rows)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*inventory.Item, len(items))
	for k := range items {
		byID[items[k].ID] = &items[k]
	}

	out := make([]*inventory.Item, 0, len(ids))
	for _, id := range ids {
		item, ok := byID[id]
		if !ok {
			return nil, shared.NewNotFoundError("item", id)
		}
		out = append(out, item)
	}
	return out, nil
}

// FindByCode finds an active item by its human code
func (r *GormItemRepository) FindByCode(ctx context.Context, code string) (*inventory.Item, error) {
	var model models.ItemModel
	if err := r.db.WithContext(ctx).Where("code = ? AND is_active = ?", code, true).First(&model).Error; err != nil {
		return nil, notFound("item", code, err)
	}
	return r.hydrateOne(ctx, &model)
}

// FindAll lists items with filtering and pagination
func (r *GormItemRepository) FindAll(ctx context.Context, filter inventory.ItemFilter) ([]inventory.Item, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ItemModel{})
	if !filter.IncludeClosed {
		query = query.Where("is_active = ?", true)
	}
	if filter.Type != "" {
		query = query.Where("item_type = ?", filter.Type)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.InInventory != nil {
		query = query.Where("is_in_inventory = ?", *filter.InInventory)
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where(
			"LOWER(code) LIKE ? OR LOWER(rough_type) LIKE ? OR LOWER(lot_type) LIKE ? OR LOWER(sorted_lot_type) LIKE ? OR LOWER(cp_type) LIKE ? OR LOWER(status) LIKE ?",
			pattern, pattern, pattern, pattern, pattern, pattern,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError("count items", err)
	}

	var rows []models.ItemModel
	if err := applyFilter(query, filter.Filter, ItemSortFields).Find(&rows).Error; err != nil {
		return nil, 0, translateError("list items", err)
	}
	items, err := r.hydrate(ctx, rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// FindHeldBy lists active items that are out with a customer in the given role
func (r *GormItemRepository) FindHeldBy(ctx context.Context, customerID int64, role inventory.HolderRole) ([]inventory.Item, error) {
	status, ok := role.Status()
	if !ok {
		return nil, shared.NewValidationError("unknown holder role %q", role)
	}

	var rows []models.ItemModel
	if err := r.db.WithContext(ctx).
		Where(fmt.Sprintf("%s = ? AND status = ? AND is_active = ?", role), customerID, status, true).
		Order("id DESC").
		Find(&rows).Error; err != nil {
		return nil, translateError("list held items", err)
	}
	return r.hydrate(ctx, rows)
}

// FindByShareHolder lists active items in which a customer holds a share
func (r *GormItemRepository) FindByShareHolder(ctx context.Context, customerID int64) ([]inventory.Item, error) {
	holders := r.db.Model(&models.ItemShareHolderModel{}).Select("item_id").Where("customer_id = ?", customerID)

	var rows []models.ItemModel
	if err := r.db.WithContext(ctx).
		Where("id IN (?) AND is_active = ?", holders, true).
		Order("id DESC").
		Find(&rows).Error; err != nil {
		return nil, translateError("list shared items", err)
	}
	return r.hydrate(ctx, rows)
}

// Create inserts a new item with its link rows and sets its ID
func (r *GormItemRepository) Create(ctx context.Context, item *inventory.Item) error {
	model := models.ItemModelFromDomain(item)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return translateError("create item", err)
	}
	item.ID = model.ID
	return r.writeLinks(ctx, item)
}

// Save updates an existing item and its link rows
func (r *GormItemRepository) Save(ctx context.Context, item *inventory.Item) error {
	model := models.ItemModelFromDomain(item)
	model.Version = item.Version + 1
	result := r.db.WithContext(ctx).
		Model(model).
		Where("version = ?", item.Version).
		Select("*").
		Omit("id", "created_at").
		Updates(model)
	if err := checkVersionedWrite(ctx, r.db, result, &models.ItemModel{}, "item", item.ID); err != nil {
		return err
	}
	item.Version = model.Version
	item.UpdatedAt = model.UpdatedAt
	return r.writeLinks(ctx, item)
}

func (r *GormItemRepository) writeLinks(ctx context.Context, item *inventory.Item) error {
	sources := make([]models.ItemLotSourceModel, len(item.LotSources))
	for k, id := range item.LotSources {
		sources[k] = models.ItemLotSourceModel{ItemID: item.ID, SourceID: id, Position: k}
	}
	if err := replaceLinks(ctx, r.db, "item_id", item.ID, sources); err != nil {
		return err
	}

	holders := make([]models.ItemShareHolderModel, len(item.ShareHolders))
	for k, id := range item.ShareHolders {
		holders[k] = models.ItemShareHolderModel{ItemID: item.ID, CustomerID: id, Position: k}
	}
	return replaceLinks(ctx, r.db, "item_id", item.ID, holders)
}

func (r *GormItemRepository) hydrateOne(ctx context.Context, model *models.ItemModel) (*inventory.Item, error) {
	items, err := r.hydrate(ctx, []models.ItemModel{*model})
	if err != nil {
		return nil, err
	}
	return &items[0], nil
}

// hydrate converts models and attaches their ordered lot sources and share holders
func (r *GormItemRepository) hydrate(ctx context.Context, rows []models.ItemModel) ([]inventory.Item, error) {
	items := make([]inventory.Item, len(rows))
	if len(rows) == 0 {
		return items, nil
	}
	ids := ownerIDs(rows, func(m *models.ItemModel) int64 { return m.ID })

	sources, err := loadLinks[models.ItemLotSourceModel](ctx, r.db, "item_id", "source_id", ids)
	if err != nil {
		return nil, err
	}
	holders, err := loadLinks[models.ItemShareHolderModel](ctx, r.db, "item_id", "customer_id", ids)
	if err != nil {
		return nil, err
	}

	for k := range rows {
		item := rows[k].ToDomain()
		item.LotSources = sources[item.ID]
		item.ShareHolders = holders[item.ID]
		items[k] = *item
	}
	return items, nil
}

// Ensure GormItemRepository implements ItemRepository
var _ inventory.ItemRepository = (*GormItemRepository)(nil)
