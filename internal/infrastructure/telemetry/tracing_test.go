package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/gemerp/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
)

// setupTestTracer installs a tracer provider backed by an in-memory span recorder.
func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

func TestStartServiceSpan(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartServiceSpan(context.Background(), "ledger", "add_payment",
		"root_id", int64(7), "method", "Cash", "settled", true, "dangling")
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "ledger.add_payment", spans[0].Name())

	attrs := map[string]any{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	assert.Equal(t, int64(7), attrs["root_id"])
	assert.Equal(t, "Cash", attrs["method"])
	assert.Equal(t, true, attrs["settled"])
	assert.Len(t, attrs, 3)
}

func TestEnd(t *testing.T) {
	sr := setupTestTracer(t)

	_, ok := telemetry.StartServiceSpan(context.Background(), "inventory", "create")
	telemetry.End(ok, nil)

	_, failed := telemetry.StartServiceSpan(context.Background(), "inventory", "update")
	telemetry.End(failed, errors.New("item not found"))

	spans := sr.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "item not found", spans[1].Status().Description)
	assert.Len(t, spans[1].Events(), 1)
}

func TestRecordError_NilSafe(t *testing.T) {
	assert.NotPanics(t, func() {
		telemetry.RecordError(nil, errors.New("x"))
		telemetry.SetAttributes(nil, "k", "v")
	})
}

func TestNewTracerProvider_Disabled(t *testing.T) {
	tp, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{Enabled: false}, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, tp.IsEnabled())
	assert.NoError(t, tp.Shutdown(context.Background()))
}
