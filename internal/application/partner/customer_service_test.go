package partner

import (
	"context"
	"errors"
	"testing"
	"time"

	ledger "github.com/gemerp/backend/internal/application/finance"
	"github.com/gemerp/backend/internal/domain/inventory"
	"github.com/gemerp/backend/internal/domain/partner"
	"github.com/gemerp/backend/internal/domain/shared"
	"github.com/gemerp/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCustomerRepository is a mock implementation of CustomerRepository
type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) FindByID(ctx context.Context, id int64) (*partner.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindAll(ctx context.Context, filter shared.Filter) ([]partner.Customer, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]partner.Customer), args.Get(1).(int64), args.Error(2)
}

func (m *MockCustomerRepository) FindByIDs(ctx context.Context, ids []int64) ([]partner.Customer, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]partner.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindWithOverdue(ctx context.Context, now time.Time) ([]partner.Customer, error) {
	args := m.Called(ctx, now)
	return args.Get(0).([]partner.Customer), args.Error(1)
}

func (m *MockCustomerRepository) Create(ctx context.Context, customer *partner.Customer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

func (m *MockCustomerRepository) Save(ctx context.Context, customer *partner.Customer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

func TestCustomerService_Create(t *testing.T) {
	repo := new(MockCustomerRepository)
	publisher := &testutil.RecordingPublisher{}
	svc := NewCustomerService(repo, WithCustomerEventPublisher(publisher))

	repo.On("Create", mock.Anything, mock.MatchedBy(func(c *partner.Customer) bool {
		return c.Name == "Nimal Perera" && c.PhoneNumber == "+94771234567"
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*partner.Customer).ID = 11
	}).Return(nil)

	resp, err := svc.Create(context.Background(), CustomerRequest{
		Name:        " Nimal Perera ",
		PhoneNumber: "077 123 4567",
		Email:       "Nimal@Example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(11), resp.ID)
	assert.Equal(t, "nimal@example.com", resp.Email)
	require.Len(t, publisher.Events(), 1)
	assert.Equal(t, partner.EventTypeCustomerCreated, publisher.Events()[0].EventType())
	assert.Equal(t, int64(11), publisher.Events()[0].AggregateID())
	repo.AssertExpectations(t)
}

func TestCustomerService_PhoneRegion(t *testing.T) {
	repo := new(MockCustomerRepository)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)

	svc := NewCustomerService(repo, WithPhoneRegion("TH"))
	resp, err := svc.Create(context.Background(), CustomerRequest{Name: "Somchai", PhoneNumber: "081 234 5678"})
	require.NoError(t, err)
	assert.Equal(t, "+66812345678", resp.PhoneNumber)

	_, err = svc.Create(context.Background(), CustomerRequest{Name: "Bad", PhoneNumber: "12"})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestCustomerService_CreateValidation(t *testing.T) {
	repo := new(MockCustomerRepository)
	svc := NewCustomerService(repo)

	_, err := svc.Create(context.Background(), CustomerRequest{Name: "  "})
	assert.ErrorIs(t, err, shared.ErrValidation)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCustomerService_UpdateConflict(t *testing.T) {
	repo := new(MockCustomerRepository)
	svc := NewCustomerService(repo)

	customer, err := partner.NewCustomer(partner.CustomerParams{Name: "Kamal"}, "")
	require.NoError(t, err)
	customer.ID = 5
	repo.On("FindByID", mock.Anything, int64(5)).Return(customer, nil)
	repo.On("Save", mock.Anything, customer).Return(shared.NewDomainError(shared.CodeConcurrencyConflict, "customer 5 was modified"))

	_, err = svc.Update(context.Background(), 5, CustomerRequest{Name: "Kamal Silva"})
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
}

func TestCustomerService_LookupAndErrors(t *testing.T) {
	repo := new(MockCustomerRepository)
	svc := NewCustomerService(repo)

	got, err := svc.Lookup(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	readErr := errors.New("connection reset")
	repo.On("FindByIDs", mock.Anything, []int64{1, 2}).Return([]partner.Customer{}, readErr)
	_, err = svc.Lookup(context.Background(), []int64{1, 2})
	assert.ErrorIs(t, err, readErr)
}

func TestCustomerService_Workflow(t *testing.T) {
	env := testutil.NewEnv(t)
	svc := NewCustomerService(env.Repos.Customers)
	ledgerSvc := ledger.NewLedgerService(env.Repos.Transactions, env.Scope)
	ctx := context.Background()

	nimal, err := svc.Create(ctx, CustomerRequest{Name: "Nimal", Company: "Ratnapura Gems"})
	require.NoError(t, err)
	kamal, err := svc.Create(ctx, CustomerRequest{Name: "Kamal"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, nimal.ID, CustomerRequest{Name: "Nimal Perera", Company: "Ratnapura Gems"})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)

	rows, total, err := svc.List(ctx, CustomerListFilter{Search: "ratnapura"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "Nimal Perera", rows[0].Name)

	item, err := inventory.NewItem(inventory.NewItemParams{Type: inventory.TypeRough, Subtype: "Mix"})
	require.NoError(t, err)
	require.NoError(t, env.Repos.Items.Create(ctx, item))
	require.NoError(t, item.AssignCode())
	require.NoError(t, env.Repos.Items.Save(ctx, item))

	past := time.Now().AddDate(0, 0, -2)
	_, err = ledgerSvc.CreateTransaction(ctx, ledger.CreateTransactionRequest{
		Type:          "Selling",
		ItemID:        item.ID,
		Amount:        testutil.Dec("900"),
		Customer:      &kamal.ID,
		PaymentETAEnd: &past,
	})
	require.NoError(t, err)

	due, err := svc.DueCustomers(ctx)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, kamal.ID, due[0].ID)

	found, err := svc.Lookup(ctx, []int64{nimal.ID, kamal.ID, 99})
	require.NoError(t, err)
	assert.Len(t, found, 2)

	require.NoError(t, svc.Deactivate(ctx, kamal.ID))
	_, err = svc.GetByID(ctx, kamal.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	due, err = svc.DueCustomers(ctx)
	require.NoError(t, err)
	assert.Empty(t, due)
}
