package partner

import (
	"context"
	"time"

	"github.com/gemerp/backend/internal/application/common"
	"github.com/gemerp/backend/internal/domain/partner"
	"github.com/gemerp/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// CustomerService handles customer-related business operations
type CustomerService struct {
	customerRepo   partner.CustomerRepository
	region         string
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	now            func() time.Time
}

// CustomerServiceOption is a functional option for configuring CustomerService
type CustomerServiceOption func(*CustomerService)

// WithPhoneRegion sets the region used for numbers entered without a country prefix
func WithPhoneRegion(region string) CustomerServiceOption {
	return func(s *CustomerService) {
		if region != "" {
			s.region = region
		}
	}
}

// WithCustomerLogger sets the logger
func WithCustomerLogger(logger *zap.Logger) CustomerServiceOption {
	return func(s *CustomerService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCustomerEventPublisher sets the event publisher
func WithCustomerEventPublisher(publisher shared.EventPublisher) CustomerServiceOption {
	return func(s *CustomerService) {
		s.eventPublisher = publisher
	}
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(customerRepo partner.CustomerRepository, opts ...CustomerServiceOption) *CustomerService {
	s := &CustomerService{
		customerRepo: customerRepo,
		region:       partner.DefaultPhoneRegion,
		logger:       zap.NewNop(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create creates a new customer
func (s *CustomerService) Create(ctx context.Context, req CustomerRequest) (*CustomerResponse, error) {
	customer, err := partner.NewCustomer(req.params(), s.region)
	if err != nil {
		return nil, err
	}
	if err := s.customerRepo.Create(ctx, customer); err != nil {
		return nil, err
	}
	// the creation event carries the id, which exists only after insert
	customer.ClearDomainEvents()
	customer.AddDomainEvent(partner.NewCustomerEvent(partner.EventTypeCustomerCreated, customer))
	s.publish(ctx, customer)

	s.logger.Info("customer created", zap.Int64("customer_id", customer.ID), zap.String("name", customer.Name))
	resp := ToCustomerResponse(customer)
	return &resp, nil
}

// Update edits a live customer
func (s *CustomerService) Update(ctx context.Context, id int64, req CustomerRequest) (*CustomerResponse, error) {
	customer, err := s.customerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := customer.Update(req.params(), s.region); err != nil {
		return nil, err
	}
	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return nil, err
	}
	s.publish(ctx, customer)
	resp := ToCustomerResponse(customer)
	return &resp, nil
}

// Deactivate soft-deletes a customer. Items and transactions keep their links.
func (s *CustomerService) Deactivate(ctx context.Context, id int64) error {
	customer, err := s.customerRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	customer.Deactivate()
	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return err
	}
	s.publish(ctx, customer)
	s.logger.Info("customer deactivated", zap.Int64("customer_id", id))
	return nil
}

// GetByID retrieves a live customer
func (s *CustomerService) GetByID(ctx context.Context, id int64) (*CustomerResponse, error) {
	customer, err := s.customerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToCustomerResponse(customer)
	return &resp, nil
}

// List lists live customers; search matches name, company and phone
func (s *CustomerService) List(ctx context.Context, filter CustomerListFilter) ([]CustomerResponse, int64, error) {
	f := shared.DefaultFilter()
	f.OrderBy = "name"
	f.OrderDir = "asc"
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
	customers, total, err := s.customerRepo.FindAll(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	return ToCustomerResponses(customers), total, nil
}

// Lookup returns the live customers among ids, for resolving role links on items
func (s *CustomerService) Lookup(ctx context.Context, ids []int64) ([]CustomerResponse, error) {
	if len(ids) == 0 {
		return []CustomerResponse{}, nil
	}
	customers, err := s.customerRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return ToCustomerResponses(customers), nil
}

// DueCustomers lists customers on a live deal that still owes and is past its payment window
func (s *CustomerService) DueCustomers(ctx context.Context) ([]CustomerResponse, error) {
	customers, err := s.customerRepo.FindWithOverdue(ctx, s.now())
	if err != nil {
		return nil, err
	}
	return ToCustomerResponses(customers), nil
}

func (s *CustomerService) publish(ctx context.Context, customer *partner.Customer) {
	events := &common.EventCollector{}
	events.Collect(customer)
	events.Publish(ctx, s.eventPublisher, s.logger)
}
