package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/bizdesk/backend/internal/infrastructure/config"
	"github.com/bizdesk/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap/zaptest"
)

func telemetryConfigDisabled() config.TelemetryConfig {
	return config.TelemetryConfig{ServiceName: "test-service"}
}

func withSpanRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return recorder
}

func spanAttr(attrs []attribute.KeyValue, key string) (attribute.Value, bool) {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestNewTracerProvider_Disabled(t *testing.T) {
	tp, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:     false,
		ServiceName: "test-service",
	}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, tp.IsEnabled())
	assert.NotNil(t, tp.Tracer("test"))
	assert.NoError(t, tp.Shutdown(context.Background()))
}

func TestStartServiceSpan(t *testing.T) {
	recorder := withSpanRecorder(t)
	companyID := uuid.New()

	_, span := telemetry.StartServiceSpan(context.Background(), "invoice", "Create",
		telemetry.SpanAttrCompanyID, companyID,
		telemetry.SpanAttrQuantity, 3,
		telemetry.SpanAttrAmount, 12.5,
	)
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "invoice.Create", spans[0].Name())

	attrs := spans[0].Attributes()
	v, ok := spanAttr(attrs, telemetry.SpanAttrCompanyID)
	require.True(t, ok)
	assert.Equal(t, companyID.String(), v.AsString())
	v, ok = spanAttr(attrs, telemetry.SpanAttrQuantity)
	require.True(t, ok)
	assert.Equal(t, int64(3), v.AsInt64())
	v, ok = spanAttr(attrs, telemetry.SpanAttrAmount)
	require.True(t, ok)
	assert.Equal(t, 12.5, v.AsFloat64())
}

func TestRecordError(t *testing.T) {
	recorder := withSpanRecorder(t)

	_, span := telemetry.StartServiceSpan(context.Background(), "stock", "Apply")
	telemetry.RecordError(span, errors.New("insufficient stock"))
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "insufficient stock", spans[0].Status().Description)
	require.NotEmpty(t, spans[0].Events())
}

func TestRecordError_NilIsNoop(t *testing.T) {
	recorder := withSpanRecorder(t)

	_, span := telemetry.StartServiceSpan(context.Background(), "stock", "Apply")
	telemetry.RecordError(span, nil)
	span.End()

	assert.Equal(t, codes.Unset, recorder.Ended()[0].Status().Code)
}

func TestGetTraceID(t *testing.T) {
	assert.Empty(t, telemetry.GetTraceID(context.Background()))

	withSpanRecorder(t)
	ctx, span := telemetry.StartServiceSpan(context.Background(), "order", "Create")
	defer span.End()
	assert.Len(t, telemetry.GetTraceID(ctx), 32)
}
