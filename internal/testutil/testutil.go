// Package testutil provides common test utilities for the gemstone ERP backend.
// It contains helpers for setting up databases and repositories, recording
// domain events, and performing common HTTP assertions.
package testutil

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gemerp/backend/internal/application/common"
	"github.com/gemerp/backend/internal/infrastructure/persistence"
	"github.com/gemerp/backend/internal/infrastructure/persistence/models"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// MockDB wraps a GORM database with sqlmock for testing.
type MockDB struct {
	DB    *gorm.DB
	Mock  sqlmock.Sqlmock
	SqlDB *sql.DB
}

// NewMockDB creates a new mock database for testing.
// The caller is responsible for calling Close() when done.
func NewMockDB(t *testing.T) *MockDB {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err, "Failed to create sqlmock")

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err, "Failed to open GORM connection")

	return &MockDB{
		DB:    gormDB,
		Mock:  mock,
		SqlDB: mockDB,
	}
}

// Close closes the mock database connection.
func (m *MockDB) Close() error {
	return m.SqlDB.Close()
}

// ExpectationsWereMet verifies that all expectations were met.
func (m *MockDB) ExpectationsWereMet(t *testing.T) {
	t.Helper()
	err := m.Mock.ExpectationsWereMet()
	require.NoError(t, err, "Unmet database expectations")
}

// NewSQLiteDB opens a file-backed SQLite database private to the test, with the
// full schema created from the persistence models. Real transactions and
// real arithmetic run against it, so workflow tests exercise the same code
// paths as production.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "gemerp_test.db")
	db, err := gorm.Open(sqlite.Open("file:"+path+"?_foreign_keys=on&_busy_timeout=5000"), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err, "Failed to open sqlite database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...), "Failed to create schema")
	return db
}

// Env bundles a test database with repositories and a transaction scope over it
type Env struct {
	DB    *gorm.DB
	Repos *common.Repositories
	Scope common.TransactionScope
}

// NewEnv creates a SQLite-backed environment for application service tests
func NewEnv(t *testing.T) *Env {
	t.Helper()

	db := NewSQLiteDB(t)
	return &Env{
		DB: db,
		Repos: &common.Repositories{
			Items:          persistence.NewGormItemRepository(db),
			Transactions:   persistence.NewGormTransactionRepository(db),
			Expenses:       persistence.NewGormExpenseRepository(db),
			CutPolish:      persistence.NewGormCutPolishRepository(db),
			SortLots:       persistence.NewGormSortLotRepository(db),
			HeatGroups:     persistence.NewGormHeatTreatmentGroupRepository(db),
			HeatTreatments: persistence.NewGormHeatTreatmentRepository(db),
			Customers:      persistence.NewGormCustomerRepository(db),
		},
		Scope: persistence.NewGormTransactionScope(db),
	}
}

// TestContext wraps a Gin test context with HTTP recorder.
type TestContext struct {
	Context  *gin.Context
	Recorder *httptest.ResponseRecorder
	Engine   *gin.Engine
}

// NewTestContext creates a new Gin test context.
func NewTestContext(t *testing.T) *TestContext {
	t.Helper()

	w := httptest.NewRecorder()
	c, engine := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	return &TestContext{
		Context:  c,
		Recorder: w,
		Engine:   engine,
	}
}

// SetRequestID sets a request ID in the context.
func (tc *TestContext) SetRequestID(id string) {
	tc.Context.Set("request_id", id)
}

// SetHeader sets a header on the request.
func (tc *TestContext) SetHeader(key, value string) {
	tc.Context.Request.Header.Set(key, value)
}

// ResponseBody returns the response body as bytes.
func (tc *TestContext) ResponseBody() []byte {
	return tc.Recorder.Body.Bytes()
}

// ResponseCode returns the HTTP status code.
func (tc *TestContext) ResponseCode() int {
	return tc.Recorder.Code
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// Dec parses a decimal literal and panics on malformed input.
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

