package finance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gemerp/backend/internal/application/common"
	"github.com/gemerp/backend/internal/domain/finance"
	"github.com/gemerp/backend/internal/domain/inventory"
	"github.com/gemerp/backend/internal/domain/shared"
	"github.com/gemerp/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// MockLocker is a testify mock for common.Locker
type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) Acquire(ctx context.Context, keys ...string) (func(), error) {
	args := m.Called(ctx, keys)
	if fn, ok := args.Get(0).(func()); ok {
		return fn, args.Error(1)
	}
	return func() {}, args.Error(1)
}

type ledgerFixture struct {
	env       *testutil.Env
	svc       *LedgerService
	publisher *testutil.RecordingPublisher
}

func newLedgerFixture(t *testing.T, opts ...LedgerServiceOption) *ledgerFixture {
	t.Helper()
	env := testutil.NewEnv(t)
	publisher := &testutil.RecordingPublisher{}
	opts = append([]LedgerServiceOption{WithLedgerEventPublisher(publisher)}, opts...)
	return &ledgerFixture{
		env:       env,
		svc:       NewLedgerService(env.Repos.Transactions, env.Scope, opts...),
		publisher: publisher,
	}
}

// seedItem stores a coded item the way intake does
func (f *ledgerFixture) seedItem(t *testing.T, itemType inventory.ItemType, subtype string) *inventory.Item {
	t.Helper()
	ctx := context.Background()
	item, err := inventory.NewItem(inventory.NewItemParams{
		Type:    itemType,
		Subtype: subtype,
		Weight:  testutil.Dec("2.35"),
	})
	require.NoError(t, err)
	require.NoError(t, f.env.Repos.Items.Create(ctx, item))
	require.NoError(t, item.AssignCode())
	require.NoError(t, f.env.Repos.Items.Save(ctx, item))
	item.ClearDomainEvents()
	return item
}

func (f *ledgerFixture) item(t *testing.T, id int64) *inventory.Item {
	t.Helper()
	item, err := f.env.Repos.Items.FindByIDForUpdate(context.Background(), id)
	require.NoError(t, err)
	return item
}

func (f *ledgerFixture) txn(t *testing.T, id int64) *finance.Transaction {
	t.Helper()
	txn, err := f.env.Repos.Transactions.FindByIDForUpdate(context.Background(), id)
	require.NoError(t, err)
	return txn
}

func TestLedgerService_BuyingDealLifecycle(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	item := f.seedItem(t, inventory.TypeRough, "Blue Sapphire Natural")
	assert.Equal(t, "BSN0001", item.Code)

	root, err := f.svc.CreateTransaction(ctx, CreateTransactionRequest{
		Type:           "Buying",
		ItemID:         item.ID,
		Amount:         testutil.Dec("1000"),
		InitialPayment: testutil.Dec("600"),
		Method:         "cash",
	})
	require.NoError(t, err)
	assert.Equal(t, "B0001", root.Code)
	assert.Equal(t, root.ID, root.ReferenceTransaction)
	assert.True(t, root.AmountSettled.Equal(testutil.Dec("600")))
	assert.True(t, root.DueAmount.Equal(testutil.Dec("400")))
	assert.Equal(t, "Cash", root.Method)

	mirrored := f.item(t, item.ID)
	assert.True(t, mirrored.Cost.Equal(testutil.Dec("1000")))
	assert.True(t, mirrored.GivenAmount.Equal(testutil.Dec("600")))
	assert.True(t, mirrored.IsTransaction)
	assert.True(t, mirrored.IsInInventory)
	assert.Equal(t, "Cash", mirrored.PaymentMethod)

	paid, err := f.svc.AddPayment(ctx, root.ID, AddPaymentRequest{Amount: testutil.Dec("400")})
	require.NoError(t, err)
	assert.Equal(t, "BP0002", paid.Payment.Code)
	assert.Equal(t, string(finance.TypeBuyPayment), paid.Payment.Type)
	assert.Equal(t, root.ID, paid.Payment.ReferenceTransaction)
	assert.Equal(t, item.ID, paid.Payment.Reference)
	assert.True(t, paid.Payment.PaymentAmount.Equal(testutil.Dec("400")))
	assert.True(t, paid.Root.AmountSettled.Equal(testutil.Dec("1000")))
	assert.True(t, paid.Root.DueAmount.IsZero())

	// every live row of the chain carries the cumulative figures
	storedPayment := f.txn(t, paid.Payment.ID)
	assert.True(t, storedPayment.AmountSettled.Equal(testutil.Dec("1000")))
	assert.True(t, storedPayment.DueAmount.IsZero())
	assert.True(t, f.item(t, item.ID).GivenAmount.Equal(testutil.Dec("1000")))

	reverted, err := f.svc.DeletePayment(ctx, paid.Payment.ID)
	require.NoError(t, err)
	assert.True(t, reverted.AmountSettled.Equal(testutil.Dec("600")))
	assert.True(t, reverted.DueAmount.Equal(testutil.Dec("400")))

	storedRoot := f.txn(t, root.ID)
	assert.True(t, storedRoot.AmountSettled.Equal(testutil.Dec("600")))
	assert.True(t, storedRoot.DueAmount.Equal(testutil.Dec("400")))
	assert.False(t, f.txn(t, paid.Payment.ID).IsActive)
	assert.True(t, f.item(t, item.ID).GivenAmount.Equal(testutil.Dec("600")))

	deal, err := f.svc.GetTransaction(ctx, root.ID)
	require.NoError(t, err)
	assert.Empty(t, deal.Payments)

	assert.Equal(t, []string{
		finance.EventTypeTransactionOpened,
		finance.EventTypePaymentRecorded,
		finance.EventTypePaymentReverted,
	}, f.publisher.Types())
}

func TestLedgerService_PaymentDeletionOrderDoesNotMatter(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	item := f.seedItem(t, inventory.TypeRough, "Mix")

	root, err := f.svc.CreateTransaction(ctx, CreateTransactionRequest{
		Type:           "Buying",
		ItemID:         item.ID,
		Amount:         testutil.Dec("900"),
		InitialPayment: testutil.Dec("100"),
	})
	require.NoError(t, err)

	var payments []int64
	for _, amount := range []string{"200", "300", "150"} {
		p, err := f.svc.AddPayment(ctx, root.ID, AddPaymentRequest{Amount: testutil.Dec(amount)})
		require.NoError(t, err)
		payments = append(payments, p.Payment.ID)
	}
	assert.True(t, f.txn(t, root.ID).AmountSettled.Equal(testutil.Dec("750")))

	// delete the middle payment first, then the first
	_, err = f.svc.DeletePayment(ctx, payments[1])
	require.NoError(t, err)
	after, err := f.svc.DeletePayment(ctx, payments[0])
	require.NoError(t, err)

	assert.True(t, after.AmountSettled.Equal(testutil.Dec("250")))
	assert.True(t, after.DueAmount.Equal(testutil.Dec("650")))

	last := f.txn(t, payments[2])
	assert.True(t, last.IsActive)
	assert.True(t, last.AmountSettled.Equal(testutil.Dec("250")))
	assert.True(t, last.DueAmount.Equal(testutil.Dec("650")))
	assert.True(t, f.item(t, item.ID).GivenAmount.Equal(testutil.Dec("250")))

	// deleting twice is rejected
	_, err = f.svc.DeletePayment(ctx, payments[0])
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestLedgerService_SellingDealMirrorsSale(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	item := f.seedItem(t, inventory.TypeCutAndPolished, "Blue Sapphire Natural")
	assert.Equal(t, "BSN0001CP", item.Code)

	seller, bearer := int64(11), int64(12)
	soldAt := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	root, err := f.svc.CreateTransaction(ctx, CreateTransactionRequest{
		Type:           "Selling",
		ItemID:         item.ID,
		Amount:         testutil.Dec("5000"),
		InitialPayment: testutil.Dec("1000"),
		Method:         "Bank",
		Date:           &soldAt,
		Customer:       &seller,
		Bearer:         &bearer,
	})
	require.NoError(t, err)
	assert.Equal(t, "S0001", root.Code)
	assert.Equal(t, string(inventory.StatusSold), root.Status)

	sold := f.item(t, item.ID)
	assert.Equal(t, inventory.StatusSold, sold.Status)
	assert.False(t, sold.IsInInventory)
	assert.True(t, sold.SoldAmount.Equal(testutil.Dec("5000")))
	assert.True(t, sold.AmountReceived.Equal(testutil.Dec("1000")))
	assert.True(t, sold.DueAmount.Equal(testutil.Dec("4000")))
	require.NotNil(t, sold.Seller)
	assert.Equal(t, seller, *sold.Seller)
	require.NotNil(t, sold.DateSold)
	assert.True(t, sold.DateSold.Equal(soldAt))

	other := int64(13)
	paid, err := f.svc.AddPayment(ctx, root.ID, AddPaymentRequest{Amount: testutil.Dec("4500"), Customer: &other})
	require.NoError(t, err)
	assert.Equal(t, "SP0002", paid.Payment.Code)
	assert.Equal(t, "Bank", paid.Payment.Method)
	// overpayment leaves a negative due
	assert.True(t, paid.Root.DueAmount.Equal(testutil.Dec("-500")))

	sold = f.item(t, item.ID)
	assert.True(t, sold.AmountReceived.Equal(testutil.Dec("5500")))
	assert.Equal(t, other, *sold.Seller)
	assert.True(t, sold.DateSold.Equal(soldAt))
}

func TestLedgerService_BuyPaymentsKeepItemStatus(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	item := f.seedItem(t, inventory.TypeRough, "Blue Sapphire Natural")

	buy, err := f.svc.CreateTransaction(ctx, CreateTransactionRequest{
		Type:           "Buying",
		ItemID:         item.ID,
		Amount:         testutil.Dec("1000"),
		InitialPayment: testutil.Dec("600"),
		Status:         "In Stock",
	})
	require.NoError(t, err)

	held := f.item(t, item.ID)
	require.NoError(t, held.ChangeStatus(inventory.StatusWithPreformer))
	require.NoError(t, f.env.Repos.Items.Save(ctx, held))

	_, err = f.svc.AddPayment(ctx, buy.ID, AddPaymentRequest{Amount: testutil.Dec("100")})
	require.NoError(t, err)
	assert.Equal(t, inventory.StatusWithPreformer, f.item(t, item.ID).Status, "a payment without a status leaves the item alone")

	_, err = f.svc.AddPayment(ctx, buy.ID, AddPaymentRequest{Amount: testutil.Dec("50"), Status: "With C&P"})
	require.NoError(t, err)
	assert.Equal(t, inventory.StatusWithCP, f.item(t, item.ID).Status)

	_, err = f.svc.AddPayment(ctx, buy.ID, AddPaymentRequest{Amount: testutil.Dec("50"), Status: "Lost"})
	assert.ErrorIs(t, err, shared.ErrValidation)
	assert.True(t, f.txn(t, buy.ID).AmountSettled.Equal(testutil.Dec("750")))

	_, err = f.svc.CreateTransaction(ctx, CreateTransactionRequest{
		Type:   "Selling",
		ItemID: item.ID,
		Amount: testutil.Dec("3000"),
	})
	require.NoError(t, err)
	require.Equal(t, inventory.StatusSold, f.item(t, item.ID).Status)

	// the supplier is settled after the stone was sold
	settled, err := f.svc.AddPayment(ctx, buy.ID, AddPaymentRequest{Amount: testutil.Dec("250")})
	require.NoError(t, err)
	assert.True(t, settled.Root.DueAmount.IsZero())
	sold := f.item(t, item.ID)
	assert.Equal(t, inventory.StatusSold, sold.Status)
	assert.True(t, sold.GivenAmount.Equal(testutil.Dec("1000")))

	reverted, err := f.svc.DeletePayment(ctx, settled.Payment.ID)
	require.NoError(t, err)
	assert.True(t, reverted.DueAmount.Equal(testutil.Dec("250")))
	sold = f.item(t, item.ID)
	assert.Equal(t, inventory.StatusSold, sold.Status)
	assert.True(t, sold.GivenAmount.Equal(testutil.Dec("750")))
}

func TestLedgerService_CreateTransactionValidation(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	item := f.seedItem(t, inventory.TypeRough, "Mix")

	tests := []struct {
		name    string
		req     CreateTransactionRequest
		wantErr error
	}{
		{
			name:    "payment type cannot open a deal",
			req:     CreateTransactionRequest{Type: "B Payment", ItemID: item.ID, Amount: testutil.Dec("10")},
			wantErr: shared.ErrValidation,
		},
		{
			name:    "unknown item",
			req:     CreateTransactionRequest{Type: "Buying", ItemID: 999, Amount: testutil.Dec("10")},
			wantErr: shared.ErrNotFound,
		},
		{
			name:    "unknown status",
			req:     CreateTransactionRequest{Type: "Buying", ItemID: item.ID, Amount: testutil.Dec("10"), Status: "Lost"},
			wantErr: shared.ErrValidation,
		},
		{
			name:    "negative amount",
			req:     CreateTransactionRequest{Type: "Buying", ItemID: item.ID, Amount: testutil.Dec("-1")},
			wantErr: shared.ErrValidation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateTransaction(ctx, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	// nothing was written by the failed attempts
	rows, total, err := f.svc.ListTransactions(ctx, TransactionListFilter{})
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Zero(t, total)
	assert.False(t, f.item(t, item.ID).IsTransaction)
}

func TestLedgerService_PaymentAgainstPaymentIsRejected(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	item := f.seedItem(t, inventory.TypeRough, "Mix")

	root, err := f.svc.CreateTransaction(ctx, CreateTransactionRequest{Type: "Buying", ItemID: item.ID, Amount: testutil.Dec("100")})
	require.NoError(t, err)
	paid, err := f.svc.AddPayment(ctx, root.ID, AddPaymentRequest{Amount: testutil.Dec("50")})
	require.NoError(t, err)

	_, err = f.svc.AddPayment(ctx, paid.Payment.ID, AddPaymentRequest{Amount: testutil.Dec("10")})
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = f.svc.AddPayment(ctx, root.ID, AddPaymentRequest{Amount: testutil.Dec("0")})
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = f.svc.DeletePayment(ctx, root.ID)
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestLedgerService_DeactivateTransaction(t *testing.T) {
	t.Run("cascade retires the whole chain", func(t *testing.T) {
		f := newLedgerFixture(t)
		ctx := context.Background()
		item := f.seedItem(t, inventory.TypeRough, "Mix")

		root, err := f.svc.CreateTransaction(ctx, CreateTransactionRequest{Type: "Buying", ItemID: item.ID, Amount: testutil.Dec("300")})
		require.NoError(t, err)
		p1, err := f.svc.AddPayment(ctx, root.ID, AddPaymentRequest{Amount: testutil.Dec("100")})
		require.NoError(t, err)
		_, err = f.svc.AddPayment(ctx, root.ID, AddPaymentRequest{Amount: testutil.Dec("100")})
		require.NoError(t, err)

		// cascading from a payment follows its chain reference to the root
		rows, err := f.svc.DeactivateTransaction(ctx, p1.Payment.ID, true)
		require.NoError(t, err)
		assert.Equal(t, int64(3), rows)

		_, err = f.svc.GetTransaction(ctx, root.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.Contains(t, f.publisher.Types(), finance.EventTypeTransactionDeactivated)
	})

	t.Run("single row leaves the chain", func(t *testing.T) {
		f := newLedgerFixture(t)
		ctx := context.Background()
		item := f.seedItem(t, inventory.TypeRough, "Mix")

		root, err := f.svc.CreateTransaction(ctx, CreateTransactionRequest{Type: "Buying", ItemID: item.ID, Amount: testutil.Dec("300")})
		require.NoError(t, err)
		p1, err := f.svc.AddPayment(ctx, root.ID, AddPaymentRequest{Amount: testutil.Dec("100")})
		require.NoError(t, err)

		rows, err := f.svc.DeactivateTransaction(ctx, p1.Payment.ID, false)
		require.NoError(t, err)
		assert.Equal(t, int64(1), rows)

		deal, err := f.svc.GetTransaction(ctx, root.ID)
		require.NoError(t, err)
		assert.Empty(t, deal.Payments)

		_, err = f.svc.DeactivateTransaction(ctx, p1.Payment.ID, false)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestLedgerService_DueTransactions(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	f := newLedgerFixture(t, withLedgerClock(func() time.Time { return now }))
	ctx := context.Background()

	past := now.AddDate(0, 0, -3)
	future := now.AddDate(0, 1, 0)

	overdueItem := f.seedItem(t, inventory.TypeRough, "Mix")
	overdue, err := f.svc.CreateTransaction(ctx, CreateTransactionRequest{
		Type: "Buying", ItemID: overdueItem.ID, Amount: testutil.Dec("500"), InitialPayment: testutil.Dec("100"),
		PaymentETAEnd: &past,
	})
	require.NoError(t, err)
	_, err = f.svc.AddPayment(ctx, overdue.ID, AddPaymentRequest{Amount: testutil.Dec("50")})
	require.NoError(t, err)

	notYetItem := f.seedItem(t, inventory.TypeRough, "Mix")
	_, err = f.svc.CreateTransaction(ctx, CreateTransactionRequest{
		Type: "Buying", ItemID: notYetItem.ID, Amount: testutil.Dec("500"), PaymentETAEnd: &future,
	})
	require.NoError(t, err)

	settledItem := f.seedItem(t, inventory.TypeRough, "Mix")
	_, err = f.svc.CreateTransaction(ctx, CreateTransactionRequest{
		Type: "Buying", ItemID: settledItem.ID, Amount: testutil.Dec("500"), InitialPayment: testutil.Dec("500"),
		PaymentETAEnd: &past,
	})
	require.NoError(t, err)

	due, err := f.svc.DueTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, overdue.ID, due[0].ID)
	assert.True(t, due[0].DueAmount.Equal(testutil.Dec("350")))
	assert.Len(t, due[0].Payments, 1)
}

func TestLedgerService_MethodLedgerAndListing(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	a := f.seedItem(t, inventory.TypeRough, "Mix")
	b := f.seedItem(t, inventory.TypeRough, "Fancy")
	rootA, err := f.svc.CreateTransaction(ctx, CreateTransactionRequest{Type: "Buying", ItemID: a.ID, Amount: testutil.Dec("100"), Method: "Cash"})
	require.NoError(t, err)
	_, err = f.svc.CreateTransaction(ctx, CreateTransactionRequest{Type: "Buying", ItemID: b.ID, Amount: testutil.Dec("200"), Method: "Bank"})
	require.NoError(t, err)
	_, err = f.svc.AddPayment(ctx, rootA.ID, AddPaymentRequest{Amount: testutil.Dec("20"), Method: "Bank"})
	require.NoError(t, err)

	bank, total, err := f.svc.MethodLedger(ctx, "bank", TransactionListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, row := range bank {
		assert.Equal(t, "Bank", row.Method)
	}

	roots, total, err := f.svc.ListTransactions(ctx, TransactionListFilter{RootsOnly: true})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, roots, 2)

	byItem, _, err := f.svc.ListTransactions(ctx, TransactionListFilter{ItemID: &a.ID})
	require.NoError(t, err)
	assert.Len(t, byItem, 2)

	_, _, err = f.svc.ListTransactions(ctx, TransactionListFilter{Types: []string{"Barter"}})
	assert.ErrorIs(t, err, shared.ErrValidation)

	refs, err := f.svc.TransactionsForReference(ctx)
	require.NoError(t, err)
	assert.Len(t, refs, 2)
}

func TestLedgerService_LockFailureAbortsWorkflow(t *testing.T) {
	locker := new(MockLocker)
	lockErr := errors.New("lock held elsewhere")
	locker.On("Acquire", mock.Anything, []string{common.ItemLockKey(1)}).Return(nil, lockErr)

	f := newLedgerFixture(t, WithLedgerLocker(locker))
	item := f.seedItem(t, inventory.TypeRough, "Mix")

	_, err := f.svc.CreateTransaction(context.Background(), CreateTransactionRequest{Type: "Buying", ItemID: item.ID, Amount: testutil.Dec("10")})
	assert.ErrorIs(t, err, lockErr)
	locker.AssertExpectations(t)
	assert.Empty(t, f.publisher.Types())
}

func TestLedgerService_LockIsReleased(t *testing.T) {
	released := 0
	locker := new(MockLocker)
	locker.On("Acquire", mock.Anything, mock.Anything).Return(func() { released++ }, nil)

	f := newLedgerFixture(t, WithLedgerLocker(locker))
	item := f.seedItem(t, inventory.TypeRough, "Mix")
	ctx := context.Background()

	root, err := f.svc.CreateTransaction(ctx, CreateTransactionRequest{Type: "Buying", ItemID: item.ID, Amount: testutil.Dec("10")})
	require.NoError(t, err)
	_, err = f.svc.AddPayment(ctx, root.ID, AddPaymentRequest{Amount: testutil.Dec("5")})
	require.NoError(t, err)

	assert.Equal(t, 2, released)
	locker.AssertNumberOfCalls(t, "Acquire", 2)
}

func TestLedgerService_WorkflowsAreTraced(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	f := newLedgerFixture(t)
	ctx := context.Background()
	item := f.seedItem(t, inventory.TypeRough, "Mix")

	root, err := f.svc.CreateTransaction(ctx, CreateTransactionRequest{Type: "Buying", ItemID: item.ID, Amount: testutil.Dec("100")})
	require.NoError(t, err)
	_, err = f.svc.AddPayment(ctx, root.ID, AddPaymentRequest{Amount: testutil.Dec("0")})
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "ledger.create_transaction", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	assert.Equal(t, "ledger.add_payment", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Contains(t, spans[1].Attributes(), attribute.Int64("root_id", root.ID))
}
