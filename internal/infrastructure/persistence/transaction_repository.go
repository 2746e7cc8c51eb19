package persistence

import (
	"context"
	"time"

	"github.com/gemerp/backend/internal/domain/finance"
	"github.com/gemerp/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var rootTypes = []finance.TransactionType{finance.TypeBuying, finance.TypeSelling}

// GormTransactionRepository implements TransactionRepository using GORM
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewGormTransactionRepository creates a new GormTransactionRepository
func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

// FindByID finds an active transaction by its ID
func (r *GormTransactionRepository) FindByID(ctx context.Context, id int64) (*finance.Transaction, error) {
	var model models.TransactionModel
	if err := r.db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&model).Error; err != nil {
		return nil, notFound("transaction", id, err)
	}
	return r.hydrateOne(ctx, &model)
}

// FindByIDForUpdate loads a transaction in any state and locks its row
func (r *GormTransactionRepository) FindByIDForUpdate(ctx context.Context, id int64) (*finance.Transaction, error) {
	var model models.TransactionModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		return nil, notFound("transaction", id, err)
	}
	return r.hydrateOne(ctx, &model)
}

// FindChain returns the active payments of a root, oldest first
func (r *GormTransactionRepository) FindChain(ctx context.Context, rootID int64) ([]finance.Transaction, error) {
	var rows []models.TransactionModel
	if err := r.db.WithContext(ctx).
		Where("reference_transaction = ? AND id <> ? AND is_active = ?", rootID, rootID, true).
		Order("id").
		Find(&rows).Error; err != nil {
		return nil, translateError("load chain", err)
	}
	return r.hydrate(ctx, rows)
}

// FindAll lists active transactions with filtering and pagination
func (r *GormTransactionRepository) FindAll(ctx context.Context, filter finance.TransactionFilter) ([]finance.Transaction, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.TransactionModel{}).Where("is_active = ?", true)
	switch {
	case filter.RootsOnly:
		query = query.Where("transaction_type IN ?", rootTypes)
	case len(filter.Types) > 0:
		query = query.Where("transaction_type IN ?", filter.Types)
	}
	if filter.Method != "" {
		query = query.Where("method = ?", filter.Method)
	}
	if filter.ItemID != nil {
		query = query.Where("reference = ?", *filter.ItemID)
	}
	if filter.CustomerID != nil {
		query = query.Where("customer = ?", *filter.CustomerID)
	}
	if filter.BearerID != nil {
		query = query.Where("bearer = ?", *filter.BearerID)
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("LOWER(code) LIKE ? OR LOWER(status) LIKE ? OR LOWER(comments) LIKE ?", pattern, pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError("count transactions", err)
	}

	var rows []models.TransactionModel
	if err := applyFilter(query, filter.Filter, TransactionSortFields).Find(&rows).Error; err != nil {
		return nil, 0, translateError("list transactions", err)
	}
	txns, err := r.hydrate(ctx, rows)
	if err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}

// FindOverdue lists active roots with money still due whose payment window closed before now
func (r *GormTransactionRepository) FindOverdue(ctx context.Context, now time.Time) ([]finance.Transaction, error) {
	var rows []models.TransactionModel
	if err := r.db.WithContext(ctx).
		Where("transaction_type IN ? AND is_active = ? AND due_amount > ? AND payment_eta_end < ?", rootTypes, true, 0, now).
		Order("payment_eta_end").
		Find(&rows).Error; err != nil {
		return nil, translateError("list overdue transactions", err)
	}
	return r.hydrate(ctx, rows)
}

// FindOpenRoots lists active roots, newest first
func (r *GormTransactionRepository) FindOpenRoots(ctx context.Context) ([]finance.Transaction, error) {
	var rows []models.TransactionModel
	if err := r.db.WithContext(ctx).
		Where("transaction_type IN ? AND is_active = ?", rootTypes, true).
		Order("id DESC").
		Find(&rows).Error; err != nil {
		return nil, translateError("list root transactions", err)
	}
	return r.hydrate(ctx, rows)
}

// Create inserts a new transaction with its share holders and sets its ID
func (r *GormTransactionRepository) Create(ctx context.Context, txn *finance.Transaction) error {
	model := models.TransactionModelFromDomain(txn)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return translateError("create transaction", err)
	}
	txn.ID = model.ID
	return r.writeShareHolders(ctx, txn)
}

// Save updates an existing transaction
func (r *GormTransactionRepository) Save(ctx context.Context, txn *finance.Transaction) error {
	model := models.TransactionModelFromDomain(txn)
	model.Version = txn.Version + 1
	result := r.db.WithContext(ctx).
		Model(model).
		Where("version = ?", txn.Version).
		Select("*").
		Omit("id", "created_at").
		Updates(model)
	if err := checkVersionedWrite(ctx, r.db, result, &models.TransactionModel{}, "transaction", txn.ID); err != nil {
		return err
	}
	txn.Version = model.Version
	txn.UpdatedAt = model.UpdatedAt
	return r.writeShareHolders(ctx, txn)
}

// UpdateChainSettlement writes the cumulative settlement onto every active row of a chain.
// The version column is left alone; the chain is guarded by the root's row lock.
func (r *GormTransactionRepository) UpdateChainSettlement(ctx context.Context, rootID int64, s finance.ChainSettlement) (int64, error) {
	updates := map[string]any{
		"amount_settled": s.AmountSettled,
		"due_amount":     s.DueAmount,
		"updated_at":     time.Now(),
	}
	if s.Status != "" {
		updates["status"] = s.Status
	}
	result := r.db.WithContext(ctx).
		Model(&models.TransactionModel{}).
		Where("reference_transaction = ? AND is_active = ?", rootID, true).
		UpdateColumns(updates)
	if result.Error != nil {
		return 0, translateError("update chain settlement", result.Error)
	}
	return result.RowsAffected, nil
}

// Deactivate soft-deletes a single active row
func (r *GormTransactionRepository) Deactivate(ctx context.Context, id int64) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.TransactionModel{}).
		Where("id = ? AND is_active = ?", id, true).
		UpdateColumns(map[string]any{"is_active": false, "updated_at": time.Now()})
	if result.Error != nil {
		return 0, translateError("deactivate transaction", result.Error)
	}
	return result.RowsAffected, nil
}

// DeactivateChain soft-deletes the root and every active row that references it
func (r *GormTransactionRepository) DeactivateChain(ctx context.Context, rootID int64) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.TransactionModel{}).
		Where("reference_transaction = ? AND is_active = ?", rootID, true).
		UpdateColumns(map[string]any{"is_active": false, "updated_at": time.Now()})
	if result.Error != nil {
		return 0, translateError("deactivate chain", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *GormTransactionRepository) writeShareHolders(ctx context.Context, txn *finance.Transaction) error {
	rows := make([]models.TransactionShareHolderModel, len(txn.ShareHolders))
	for k, id := range txn.ShareHolders {
		rows[k] = models.TransactionShareHolderModel{TransactionID: txn.ID, CustomerID: id, Position: k}
	}
	return replaceLinks(ctx, r.db, "transaction_id", txn.ID, rows)
}

func (r *GormTransactionRepository) hydrateOne(ctx context.Context, model *models.TransactionModel) (*finance.Transaction, error) {
	txns, err := r.hydrate(ctx, []models.TransactionModel{*model})
	if err != nil {
		return nil, err
	}
	return &txns[0], nil
}

func (r *GormTransactionRepository) hydrate(ctx context.Context, rows []models.TransactionModel) ([]finance.Transaction, error) {
	txns := make([]finance.Transaction, len(rows))
	if len(rows) == 0 {
		return txns, nil
	}
	ids := ownerIDs(rows, func(m *models.TransactionModel) int64 { return m.ID })
	holders, err := loadLinks[models.TransactionShareHolderModel](ctx, r.db, "transaction_id", "customer_id", ids)
	if err != nil {
		return nil, err
	}
	for k := range rows {
		txn := rows[k].ToDomain()
		txn.ShareHolders = holders[txn.ID]
		txns[k] = *txn
	}
	return txns, nil
}

// Ensure GormTransactionRepository implements TransactionRepository
var _ finance.TransactionRepository = (*GormTransactionRepository)(nil)
