package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	ledger "github.com/gemerp/backend/internal/application/finance"
	inventoryapp "github.com/gemerp/backend/internal/application/inventory"
	partnerapp "github.com/gemerp/backend/internal/application/partner"
	processingapp "github.com/gemerp/backend/internal/application/processing"
	reportapp "github.com/gemerp/backend/internal/application/report"
	"github.com/gemerp/backend/internal/application/upload"
	"github.com/gemerp/backend/internal/infrastructure/persistence"
	"github.com/gemerp/backend/internal/infrastructure/storage"
	"github.com/gemerp/backend/internal/interfaces/http/middleware"
	"github.com/gemerp/backend/internal/interfaces/http/router"
	"github.com/gemerp/backend/internal/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := middleware.SetupValidator(); err != nil {
		panic(err)
	}
}

// testServer is the whole API over a private SQLite database
type testServer struct {
	engine  *gin.Engine
	env     *testutil.Env
	storage *storage.StubObjectStorage
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	env := testutil.NewEnv(t)
	objects := storage.NewStubObjectStorage()

	items := inventoryapp.NewItemService(env.Repos.Items, env.Scope)
	ledgerSvc := ledger.NewLedgerService(env.Repos.Transactions, env.Scope)
	expenses := ledger.NewExpenseService(env.Repos.Expenses, nil)
	customers := partnerapp.NewCustomerService(env.Repos.Customers)
	cutPolish := processingapp.NewCutPolishService(env.Repos.CutPolish, env.Repos.Items, env.Scope)
	sortLots := processingapp.NewSortLotService(env.Repos.SortLots, env.Repos.Items, env.Scope)
	heat := processingapp.NewHeatTreatmentService(env.Repos.HeatGroups, env.Repos.HeatTreatments, env.Repos.Items, env.Scope)
	dashboard := reportapp.NewDashboardService(persistence.NewGormDashboardRepository(env.DB), nil)
	export := reportapp.NewExportService(env.Repos.Transactions, nil)
	uploads := upload.NewService(objects, env.Scope, upload.WithMaxSize(1<<10))

	sqlDB, err := env.DB.DB()
	require.NoError(t, err)
	system := NewSystemHandler("gemerp-test", "test", sqlDB)

	engine := gin.New()
	engine.Use(middleware.RequestID(), middleware.Operator())
	router.NewRouter(engine, router.WithHealth(system.Health)).
		Register(system).
		Register(NewItemHandler(items)).
		Register(NewTransactionHandler(ledgerSvc)).
		Register(NewExpenseHandler(expenses)).
		Register(NewCustomerHandler(customers, items)).
		Register(NewProcessingHandler(cutPolish, sortLots, heat)).
		Register(NewReportHandler(dashboard, export)).
		Register(NewUploadHandler(uploads)).
		Setup()

	return &testServer{engine: engine, env: env, storage: objects}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return testutil.Do(t, s.engine, method, path, body)
}

// createItem posts a Rough item and returns it
func (s *testServer) createItem(t *testing.T, subtype string) inventoryapp.ItemResponse {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/items", map[string]any{
		"type":    "Rough",
		"subtype": subtype,
		"weight":  "1.25",
	})
	testutil.AssertSuccessResponse(t, w, http.StatusCreated)
	return testutil.DecodeResult[inventoryapp.ItemResponse](t, w)
}
