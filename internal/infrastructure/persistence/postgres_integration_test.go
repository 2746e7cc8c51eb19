//go:build integration

package persistence_test

import (
	"context"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	ledger "github.com/gemerp/backend/internal/application/finance"
	inventoryapp "github.com/gemerp/backend/internal/application/inventory"
	"github.com/gemerp/backend/internal/infrastructure/config"
	"github.com/gemerp/backend/internal/infrastructure/migration"
	"github.com/gemerp/backend/internal/infrastructure/persistence"
	"github.com/gemerp/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newPostgres starts a disposable PostgreSQL and applies the versioned schema
func newPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("gemerp_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(20)
	t.Cleanup(func() { _ = sqlDB.Close() })

	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	root := filepath.Join(filepath.Dir(file), "..", "..", "..", "migrations")
	m, err := migration.New(sqlDB, config.DriverPostgres, migration.Dir(root, config.DriverPostgres), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, m.Up())
	return db
}

func TestPostgres_ConcurrentPaymentsSerialiseOnRoot(t *testing.T) {
	db := newPostgres(t)
	ctx := context.Background()
	scope := persistence.NewGormTransactionScope(db)
	txnRepo := persistence.NewGormTransactionRepository(db)
	items := inventoryapp.NewItemService(persistence.NewGormItemRepository(db), scope)
	ledgerSvc := ledger.NewLedgerService(txnRepo, scope)

	item, err := items.Create(ctx, inventoryapp.CreateItemRequest{
		Type:    "Rough",
		Subtype: "Blue Sapphire Natural",
		Purchase: &inventoryapp.PurchaseRequest{
			Amount:         testutil.Dec("1000"),
			InitialPayment: testutil.Dec("600"),
			Method:         "Cash",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "BSN0001", item.Code)

	roots, _, err := ledgerSvc.ListTransactions(ctx, ledger.TransactionListFilter{RootsOnly: true})
	require.NoError(t, err)
	require.Len(t, roots, 1)
	root := roots[0]
	assert.Equal(t, "B0001", root.Code)

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for k := 0; k < workers; k++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledgerSvc.AddPayment(ctx, root.ID, ledger.AddPaymentRequest{Amount: testutil.Dec("50"), Method: "Bank"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	deal, err := ledgerSvc.GetTransaction(ctx, root.ID)
	require.NoError(t, err)
	assert.Len(t, deal.Payments, workers)
	assert.True(t, deal.AmountSettled.Equal(testutil.Dec("1000")), "settled %s", deal.AmountSettled)
	assert.True(t, deal.DueAmount.IsZero(), "due %s", deal.DueAmount)

	codes := map[string]bool{}
	for _, p := range deal.Payments {
		assert.False(t, codes[p.Code], "duplicate code %s", p.Code)
		codes[p.Code] = true
	}

	stored, err := items.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, stored.GivenAmount.Equal(testutil.Dec("1000")))
}

func TestPostgres_CascadeTouchesOnlyTheChain(t *testing.T) {
	db := newPostgres(t)
	ctx := context.Background()
	scope := persistence.NewGormTransactionScope(db)
	items := inventoryapp.NewItemService(persistence.NewGormItemRepository(db), scope)
	ledgerSvc := ledger.NewLedgerService(persistence.NewGormTransactionRepository(db), scope)

	open := func() ledger.TransactionResponse {
		item, err := items.Create(ctx, inventoryapp.CreateItemRequest{Type: "Rough", Subtype: "Mix"})
		require.NoError(t, err)
		root, err := ledgerSvc.CreateTransaction(ctx, ledger.CreateTransactionRequest{
			Type: "Buying", ItemID: item.ID, Amount: testutil.Dec("500"), InitialPayment: testutil.Dec("100"),
		})
		require.NoError(t, err)
		_, err = ledgerSvc.AddPayment(ctx, root.ID, ledger.AddPaymentRequest{Amount: testutil.Dec("100")})
		require.NoError(t, err)
		return *root
	}
	first := open()
	second := open()

	n, err := ledgerSvc.DeactivateTransaction(ctx, first.ID, true)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	kept, err := ledgerSvc.GetTransaction(ctx, second.ID)
	require.NoError(t, err)
	assert.True(t, kept.IsActive)
	assert.Len(t, kept.Payments, 1)
}
