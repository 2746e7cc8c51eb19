package persistence

import (
	"context"
	"time"

	"github.com/gemerp/backend/internal/domain/partner"
	"github.com/gemerp/backend/internal/domain/shared"
	"github.com/gemerp/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCustomerRepository implements CustomerRepository using GORM
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// FindByID finds an active customer by ID
func (r *GormCustomerRepository) FindByID(ctx context.Context, id int64) (*partner.Customer, error) {
	var model models.CustomerModel
	if err := r.db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&model).Error; err != nil {
		return nil, notFound("customer", id, err)
	}
	return model.ToDomain(), nil
}

// FindAll finds active customers; Search matches name, company and phone
func (r *GormCustomerRepository) FindAll(ctx context.Context, filter shared.Filter) ([]partner.Customer, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.CustomerModel{}).Where("is_active = ?", true)
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("LOWER(name) LIKE ? OR LOWER(company) LIKE ? OR phone_number LIKE ?", pattern, pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError("count customers", err)
	}

	var rows []models.CustomerModel
	if err := applyFilter(query, filter, CustomerSortFields).Find(&rows).Error; err != nil {
		return nil, 0, translateError("list customers", err)
	}
	return customersToDomain(rows), total, nil
}

// FindByIDs finds active customers by their IDs
func (r *GormCustomerRepository) FindByIDs(ctx context.Context, ids []int64) ([]partner.Customer, error) {
	if len(ids) == 0 {
		return []partner.Customer{}, nil
	}
	var rows []models.CustomerModel
	if err := r.db.WithContext(ctx).Where("id IN ? AND is_active = ?", ids, true).Order("id").Find(&rows).Error; err != nil {
		return nil, translateError("find customers", err)
	}
	return customersToDomain(rows), nil
}

// FindWithOverdue finds active customers on an active root whose due is
// positive and whose payment window ended before now
func (r *GormCustomerRepository) FindWithOverdue(ctx context.Context, now time.Time) ([]partner.Customer, error) {
	overdue := r.db.Model(&models.TransactionModel{}).
		Select("customer").
		Where("transaction_type IN ? AND is_active = ? AND due_amount > ? AND payment_eta_end < ? AND customer IS NOT NULL",
			rootTypes, true, 0, now)

	var rows []models.CustomerModel
	if err := r.db.WithContext(ctx).
		Where("id IN (?) AND is_active = ?", overdue, true).
		Order("name").
		Find(&rows).Error; err != nil {
		return nil, translateError("find overdue customers", err)
	}
	return customersToDomain(rows), nil
}

// Create inserts a new customer and sets its ID
func (r *GormCustomerRepository) Create(ctx context.Context, customer *partner.Customer) error {
	model := models.CustomerModelFromDomain(customer)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return translateError("create customer", err)
	}
	customer.ID = model.ID
	return nil
}

// Save updates an existing customer
func (r *GormCustomerRepository) Save(ctx context.Context, customer *partner.Customer) error {
	model := models.CustomerModelFromDomain(customer)
	model.Version = customer.Version + 1
	result := r.db.WithContext(ctx).
		Model(model).
		Where("version = ?", customer.Version).
		Select("*").
		Omit("id", "created_at").
		Updates(model)
	if err := checkVersionedWrite(ctx, r.db, result, &models.CustomerModel{}, "customer", customer.ID); err != nil {
		return err
	}
	customer.Version = model.Version
	customer.UpdatedAt = model.UpdatedAt
	return nil
}

func customersToDomain(rows []models.CustomerModel) []partner.Customer {
	out := make([]partner.Customer, len(rows))
	for k := range rows {
		out[k] = *rows[k].ToDomain()
	}
	return out
}

// Ensure GormCustomerRepository implements CustomerRepository
var _ partner.CustomerRepository = (*GormCustomerRepository)(nil)
