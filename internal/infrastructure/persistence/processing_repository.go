package persistence

import (
	"context"

	"github.com/gemerp/backend/internal/domain/processing"
	"github.com/gemerp/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// recordQuery applies the shared processing record filter
func recordQuery(db *gorm.DB, filter processing.RecordFilter) *gorm.DB {
	query := db.Where("is_active = ?", true)
	if filter.Approved != nil {
		query = query.Where("is_approved = ?", *filter.Approved)
	}
	if filter.Search != "" {
		query = query.Where("LOWER(code) LIKE ? OR LOWER(remark) LIKE ?", likePattern(filter.Search), likePattern(filter.Search))
	}
	return query
}

// GormCutPolishRepository implements CutPolishRepository using GORM
type GormCutPolishRepository struct {
	db *gorm.DB
}

// NewGormCutPolishRepository creates a new GormCutPolishRepository
func NewGormCutPolishRepository(db *gorm.DB) *GormCutPolishRepository {
	return &GormCutPolishRepository{db: db}
}

// FindByID finds an active record by ID
func (r *GormCutPolishRepository) FindByID(ctx context.Context, id int64) (*processing.CutPolishRecord, error) {
	var model models.CutPolishRecordModel
	if err := r.db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&model).Error; err != nil {
		return nil, notFound("cut and polish record", id, err)
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate loads a record in any state and locks its row
func (r *GormCutPolishRepository) FindByIDForUpdate(ctx context.Context, id int64) (*processing.CutPolishRecord, error) {
	var model models.CutPolishRecordModel
	if err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, notFound("cut and polish record", id, err)
	}
	return model.ToDomain(), nil
}

// FindByDerivedItem finds the active record that produced an item
func (r *GormCutPolishRepository) FindByDerivedItem(ctx context.Context, itemID int64) (*processing.CutPolishRecord, error) {
	var model models.CutPolishRecordModel
	if err := r.db.WithContext(ctx).Where("reference = ? AND is_active = ?", itemID, true).First(&model).Error; err != nil {
		return nil, notFound("cut and polish record for item", itemID, err)
	}
	return model.ToDomain(), nil
}

// FindAll lists active records
func (r *GormCutPolishRepository) FindAll(ctx context.Context, filter processing.RecordFilter) ([]processing.CutPolishRecord, int64, error) {
	query := recordQuery(r.db.WithContext(ctx).Model(&models.CutPolishRecordModel{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError("count cut and polish records", err)
	}
	var rows []models.CutPolishRecordModel
	if err := applyFilter(query, filter.Filter, RecordSortFields).Find(&rows).Error; err != nil {
		return nil, 0, translateError("list cut and polish records", err)
	}
	out := make([]processing.CutPolishRecord, len(rows))
	for k := range rows {
		out[k] = *rows[k].ToDomain()
	}
	return out, total, nil
}

// Create inserts a new record and sets its ID
func (r *GormCutPolishRepository) Create(ctx context.Context, record *processing.CutPolishRecord) error {
	model := &models.CutPolishRecordModel{}
	model.FromDomain(record)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return translateError("create cut and polish record", err)
	}
	record.ID = model.ID
	return nil
}

// Save updates an existing record
func (r *GormCutPolishRepository) Save(ctx context.Context, record *processing.CutPolishRecord) error {
	model := &models.CutPolishRecordModel{}
	model.FromDomain(record)
	model.Version = record.Version + 1
	result := r.db.WithContext(ctx).Model(model).Where("version = ?", record.Version).
		Select("*").Omit("id", "created_at").Updates(model)
	if err := checkVersionedWrite(ctx, r.db, result, &models.CutPolishRecordModel{}, "cut and polish record", record.ID); err != nil {
		return err
	}
	record.Version = model.Version
	record.UpdatedAt = model.UpdatedAt
	return nil
}

// GormSortLotRepository implements SortLotRepository using GORM.
// Record sources are the lot sources of the sorted-lot item.
type GormSortLotRepository struct {
	db *gorm.DB
}

// NewGormSortLotRepository creates a new GormSortLotRepository
func NewGormSortLotRepository(db *gorm.DB) *GormSortLotRepository {
	return &GormSortLotRepository{db: db}
}

// FindByID finds an active record by ID
func (r *GormSortLotRepository) FindByID(ctx context.Context, id int64) (*processing.SortLotRecord, error) {
	var model models.SortLotRecordModel
	if err := r.db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&model).Error; err != nil {
		return nil, notFound("sort lot record", id, err)
	}
	return r.hydrateOne(ctx, &model)
}

// FindByIDForUpdate loads a record in any state and locks its row
func (r *GormSortLotRepository) FindByIDForUpdate(ctx context.Context, id int64) (*processing.SortLotRecord, error) {
	var model models.SortLotRecordModel
	if err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, notFound("sort lot record", id, err)
	}
	return r.hydrateOne(ctx, &model)
}

// FindAll lists active records
func (r *GormSortLotRepository) FindAll(ctx context.Context, filter processing.RecordFilter) ([]processing.SortLotRecord, int64, error) {
	query := recordQuery(r.db.WithContext(ctx).Model(&models.SortLotRecordModel{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError("count sort lot records", err)
	}
	var rows []models.SortLotRecordModel
	if err := applyFilter(query, filter.Filter, RecordSortFields).Find(&rows).Error; err != nil {
		return nil, 0, translateError("list sort lot records", err)
	}
	records, err := r.hydrate(ctx, rows)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// Create inserts a new record and sets its ID. Sources live on the sorted-lot item.
func (r *GormSortLotRepository) Create(ctx context.Context, record *processing.SortLotRecord) error {
	model := &models.SortLotRecordModel{}
	model.FromDomain(record)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return translateError("create sort lot record", err)
	}
	record.ID = model.ID
	return nil
}

// Save updates an existing record
func (r *GormSortLotRepository) Save(ctx context.Context, record *processing.SortLotRecord) error {
	model := &models.SortLotRecordModel{}
	model.FromDomain(record)
	model.Version = record.Version + 1
	result := r.db.WithContext(ctx).Model(model).Where("version = ?", record.Version).
		Select("*").Omit("id", "created_at").Updates(model)
	if err := checkVersionedWrite(ctx, r.db, result, &models.SortLotRecordModel{}, "sort lot record", record.ID); err != nil {
		return err
	}
	record.Version = model.Version
	record.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *GormSortLotRepository) hydrateOne(ctx context.Context, model *models.SortLotRecordModel) (*processing.SortLotRecord, error) {
	records, err := r.hydrate(ctx, []models.SortLotRecordModel{*model})
	if err != nil {
		return nil, err
	}
	return &records[0], nil
}

func (r *GormSortLotRepository) hydrate(ctx context.Context, rows []models.SortLotRecordModel) ([]processing.SortLotRecord, error) {
	records := make([]processing.SortLotRecord, len(rows))
	if len(rows) == 0 {
		return records, nil
	}
	lots := ownerIDs(rows, func(m *models.SortLotRecordModel) int64 { return m.Reference })
	sources, err := loadLinks[models.ItemLotSourceModel](ctx, r.db, "item_id", "source_id", lots)
	if err != nil {
		return nil, err
	}
	for k := range rows {
		record := rows[k].ToDomain()
		record.Sources = sources[record.Reference]
		records[k] = *record
	}
	return records, nil
}

// GormHeatTreatmentGroupRepository implements HeatTreatmentGroupRepository using GORM
type GormHeatTreatmentGroupRepository struct {
	db *gorm.DB
}

// NewGormHeatTreatmentGroupRepository creates a new GormHeatTreatmentGroupRepository
func NewGormHeatTreatmentGroupRepository(db *gorm.DB) *GormHeatTreatmentGroupRepository {
	return &GormHeatTreatmentGroupRepository{db: db}
}

// FindByID finds an active group by ID, with its members in order
func (r *GormHeatTreatmentGroupRepository) FindByID(ctx context.Context, id int64) (*processing.HeatTreatmentGroup, error) {
	var model models.HeatTreatmentGroupModel
	if err := r.db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&model).Error; err != nil {
		return nil, notFound("heat treatment group", id, err)
	}
	return r.hydrateOne(ctx, &model)
}

// FindByIDForUpdate loads a group in any state and locks its row
func (r *GormHeatTreatmentGroupRepository) FindByIDForUpdate(ctx context.Context, id int64) (*processing.HeatTreatmentGroup, error) {
	var model models.HeatTreatmentGroupModel
	if err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, notFound("heat treatment group", id, err)
	}
	return r.hydrateOne(ctx, &model)
}

// FindAll lists active groups
func (r *GormHeatTreatmentGroupRepository) FindAll(ctx context.Context, filter processing.RecordFilter) ([]processing.HeatTreatmentGroup, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.HeatTreatmentGroupModel{}).Where("is_active = ?", true)
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("LOWER(code) LIKE ? OR LOWER(name) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError("count heat treatment groups", err)
	}
	var rows []models.HeatTreatmentGroupModel
	if err := applyFilter(query, filter.Filter, CommonSortFields).Find(&rows).Error; err != nil {
		return nil, 0, translateError("list heat treatment groups", err)
	}
	groups, err := r.hydrate(ctx, rows)
	if err != nil {
		return nil, 0, err
	}
	return groups, total, nil
}

// Create inserts a new group with its members and sets its ID
func (r *GormHeatTreatmentGroupRepository) Create(ctx context.Context, group *processing.HeatTreatmentGroup) error {
	model := &models.HeatTreatmentGroupModel{}
	model.FromDomain(group)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return translateError("create heat treatment group", err)
	}
	group.ID = model.ID
	return r.writeMembers(ctx, group)
}

// Save updates an existing group and replaces its members
func (r *GormHeatTreatmentGroupRepository) Save(ctx context.Context, group *processing.HeatTreatmentGroup) error {
	model := &models.HeatTreatmentGroupModel{}
	model.FromDomain(group)
	model.Version = group.Version + 1
	result := r.db.WithContext(ctx).Model(model).Where("version = ?", group.Version).
		Select("*").Omit("id", "created_at").Updates(model)
	if err := checkVersionedWrite(ctx, r.db, result, &models.HeatTreatmentGroupModel{}, "heat treatment group", group.ID); err != nil {
		return err
	}
	group.Version = model.Version
	group.UpdatedAt = model.UpdatedAt
	return r.writeMembers(ctx, group)
}

func (r *GormHeatTreatmentGroupRepository) writeMembers(ctx context.Context, group *processing.HeatTreatmentGroup) error {
	rows := make([]models.HeatTreatmentGroupItemModel, len(group.Members))
	for k, id := range group.Members {
		rows[k] = models.HeatTreatmentGroupItemModel{GroupID: group.ID, ItemID: id, Position: k}
	}
	return replaceLinks(ctx, r.db, "group_id", group.ID, rows)
}

func (r *GormHeatTreatmentGroupRepository) hydrateOne(ctx context.Context, model *models.HeatTreatmentGroupModel) (*processing.HeatTreatmentGroup, error) {
	groups, err := r.hydrate(ctx, []models.HeatTreatmentGroupModel{*model})
	if err != nil {
		return nil, err
	}
	return &groups[0], nil
}

func (r *GormHeatTreatmentGroupRepository) hydrate(ctx context.Context, rows []models.HeatTreatmentGroupModel) ([]processing.HeatTreatmentGroup, error) {
	groups := make([]processing.HeatTreatmentGroup, len(rows))
	if len(rows) == 0 {
		return groups, nil
	}
	ids := ownerIDs(rows, func(m *models.HeatTreatmentGroupModel) int64 { return m.ID })
	members, err := loadLinks[models.HeatTreatmentGroupItemModel](ctx, r.db, "group_id", "item_id", ids)
	if err != nil {
		return nil, err
	}
	for k := range rows {
		group := rows[k].ToDomain()
		group.Members = members[group.ID]
		groups[k] = *group
	}
	return groups, nil
}

// GormHeatTreatmentRepository implements HeatTreatmentRepository using GORM
type GormHeatTreatmentRepository struct {
	db *gorm.DB
}

// NewGormHeatTreatmentRepository creates a new GormHeatTreatmentRepository
func NewGormHeatTreatmentRepository(db *gorm.DB) *GormHeatTreatmentRepository {
	return &GormHeatTreatmentRepository{db: db}
}

// FindByID finds an active treatment by ID
func (r *GormHeatTreatmentRepository) FindByID(ctx context.Context, id int64) (*processing.HeatTreatment, error) {
	var model models.HeatTreatmentModel
	if err := r.db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&model).Error; err != nil {
		return nil, notFound("heat treatment", id, err)
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate loads a treatment in any state and locks its row
func (r *GormHeatTreatmentRepository) FindByIDForUpdate(ctx context.Context, id int64) (*processing.HeatTreatment, error) {
	var model models.HeatTreatmentModel
	if err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, notFound("heat treatment", id, err)
	}
	return model.ToDomain(), nil
}

// FindAll lists active treatments, optionally for one group
func (r *GormHeatTreatmentRepository) FindAll(ctx context.Context, filter processing.RecordFilter) ([]processing.HeatTreatment, int64, error) {
	query := recordQuery(r.db.WithContext(ctx).Model(&models.HeatTreatmentModel{}), filter)
	if filter.GroupID != nil {
		query = query.Where("group_id = ?", *filter.GroupID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError("count heat treatments", err)
	}
	var rows []models.HeatTreatmentModel
	if err := applyFilter(query, filter.Filter, CommonSortFields).Find(&rows).Error; err != nil {
		return nil, 0, translateError("list heat treatments", err)
	}
	out := make([]processing.HeatTreatment, len(rows))
	for k := range rows {
		out[k] = *rows[k].ToDomain()
	}
	return out, total, nil
}

// Create inserts a new treatment and sets its ID
func (r *GormHeatTreatmentRepository) Create(ctx context.Context, treatment *processing.HeatTreatment) error {
	model := &models.HeatTreatmentModel{}
	model.FromDomain(treatment)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return translateError("create heat treatment", err)
	}
	treatment.ID = model.ID
	return nil
}

// Save updates an existing treatment
func (r *GormHeatTreatmentRepository) Save(ctx context.Context, treatment *processing.HeatTreatment) error {
	model := &models.HeatTreatmentModel{}
	model.FromDomain(treatment)
	model.Version = treatment.Version + 1
	result := r.db.WithContext(ctx).Model(model).Where("version = ?", treatment.Version).
		Select("*").Omit("id", "created_at").Updates(model)
	if err := checkVersionedWrite(ctx, r.db, result, &models.HeatTreatmentModel{}, "heat treatment", treatment.ID); err != nil {
		return err
	}
	treatment.Version = model.Version
	treatment.UpdatedAt = model.UpdatedAt
	return nil
}

// Ensure the repositories implement their interfaces
var (
	_ processing.CutPolishRepository          = (*GormCutPolishRepository)(nil)
	_ processing.SortLotRepository            = (*GormSortLotRepository)(nil)
	_ processing.HeatTreatmentGroupRepository = (*GormHeatTreatmentGroupRepository)(nil)
	_ processing.HeatTreatmentRepository      = (*GormHeatTreatmentRepository)(nil)
)
