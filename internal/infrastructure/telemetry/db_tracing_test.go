package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type stone struct {
	ID   int64  `gorm:"primaryKey"`
	Name string `gorm:"size:100"`
}

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&stone{}))
	return db
}

func TestDBSystemFor(t *testing.T) {
	assert.Equal(t, "mysql", DBSystemFor("mysql"))
	assert.Equal(t, "sqlite", DBSystemFor("sqlite"))
	assert.Equal(t, "postgresql", DBSystemFor("postgres"))
	assert.Equal(t, "postgresql", DBSystemFor(""))
}

func TestRegisterOtelGorm_Disabled(t *testing.T) {
	db := setupTestDB(t)
	plugin := NewDBTracingPlugin(DefaultDBTracingConfig(), zap.NewNop())
	require.NoError(t, plugin.RegisterOtelGorm(db))

	_, ok := db.Config.Plugins["otelgorm"]
	assert.False(t, ok)
}

func TestAfterQuery_AnnotatesSpan(t *testing.T) {
	db := setupTestDB(t)
	plugin := NewDBTracingPlugin(DBTracingConfig{Enabled: true, SlowQueryThresh: time.Nanosecond, DBSystem: "sqlite"}, zap.NewNop())
	require.NoError(t, plugin.registerCallbacks(db))

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "create stone")
	require.NoError(t, db.WithContext(ctx).Create(&stone{Name: "sapphire"}).Error)
	err := db.WithContext(ctx).Exec("INSERT INTO missing_table VALUES (1)").Error
	require.Error(t, err)
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range spans[0].Attributes() {
		attrs[kv.Key] = kv.Value
	}
	assert.Equal(t, "stones", attrs["db.sql.table"].AsString())
	assert.True(t, attrs["db.slow_query"].AsBool())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
}

func TestNewResource(t *testing.T) {
	res, err := newResource(Config{ServiceName: "gemerp", Environment: "staging"})
	require.NoError(t, err)

	attrs := map[attribute.Key]string{}
	for _, kv := range res.Attributes() {
		attrs[kv.Key] = kv.Value.Emit()
	}
	assert.Equal(t, "gemerp", attrs["service.name"])
	assert.Equal(t, "dev", attrs["service.version"])
	assert.Equal(t, "staging", attrs["deployment.environment.name"])
}

func TestSamplerFor(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), samplerFor(1.5).Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), samplerFor(0).Description())
	assert.Contains(t, samplerFor(0.25).Description(), "TraceIDRatioBased")
}
