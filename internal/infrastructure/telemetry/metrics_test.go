package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/bizdesk/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func newTestMeter(t *testing.T) (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return mp, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func int64Sum(t *testing.T, m metricdata.Metrics, attrs ...attribute.KeyValue) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)
	want := attribute.NewSet(attrs...)
	for _, dp := range sum.DataPoints {
		if dp.Attributes.Equals(&want) {
			return dp.Value
		}
	}
	return 0
}

func TestNewMeterProvider_Disabled(t *testing.T) {
	mp, err := telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{
		Enabled:     false,
		ServiceName: "test-service",
	}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, mp.IsEnabled())
	assert.NotNil(t, mp.Meter("test"))
	assert.NoError(t, mp.Shutdown(context.Background()))
}

func TestSetup_AllDisabled(t *testing.T) {
	providers, err := telemetry.Setup(context.Background(), telemetryConfigDisabled(), zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, providers.Tracer.IsEnabled())
	assert.False(t, providers.Meter.IsEnabled())
	assert.False(t, providers.Logs.IsEnabled())
	assert.NoError(t, providers.Shutdown(context.Background()))
}

func TestCounterAndHistogram(t *testing.T) {
	mp, reader := newTestMeter(t)
	meter := mp.Meter("test")

	counter, err := telemetry.NewCounter(meter, "requests_total", "Requests", "{request}")
	require.NoError(t, err)
	hist, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:       "request_duration_seconds",
		Unit:       "s",
		Boundaries: telemetry.HTTPDurationBuckets,
	})
	require.NoError(t, err)

	ctx := context.Background()
	counter.Inc(ctx, telemetry.AttrHTTPMethod.String("GET"))
	counter.Add(ctx, 2, telemetry.AttrHTTPMethod.String("GET"))
	hist.Record(ctx, 0.02)

	metrics := collect(t, reader)
	assert.Equal(t, int64(3), int64Sum(t, metrics["requests_total"], telemetry.AttrHTTPMethod.String("GET")))

	h, ok := metrics["request_duration_seconds"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, h.DataPoints, 1)
	assert.Equal(t, uint64(1), h.DataPoints[0].Count)
	assert.Equal(t, telemetry.HTTPDurationBuckets, h.DataPoints[0].Bounds)
}

func TestNewBusinessMetrics_NilMeter(t *testing.T) {
	_, err := telemetry.NewBusinessMetrics(nil, zap.NewNop())
	assert.ErrorIs(t, err, telemetry.ErrMeterNil)
}

func TestBusinessMetrics_NilReceiverIsNoop(t *testing.T) {
	var bm *telemetry.BusinessMetrics
	ctx := context.Background()

	assert.NotPanics(t, func() {
		bm.RecordInvoiceIssued(ctx, "c1", "USD", 10)
		bm.RecordOrderReceived(ctx, "c1")
		bm.RecordStockMovement(ctx, "c1", "IN")
		bm.RecordWebhookEvent(ctx, "checkout.session.completed", telemetry.WebhookOutcomeProcessed)
		bm.RecordAssistantRequest(ctx, "openai", telemetry.AssistantOutcomeAnswered, 1.5)
	})
	assert.NoError(t, bm.RegisterLowStockSource(nil, nil))
}

func TestBusinessMetrics_Records(t *testing.T) {
	mp, reader := newTestMeter(t)
	meter := mp.Meter("test")
	bm, err := telemetry.NewBusinessMetrics(meter, zap.NewNop())
	require.NoError(t, err)

	ctx := context.Background()
	bm.RecordInvoiceIssued(ctx, "c1", "USD", 120.5)
	bm.RecordInvoiceIssued(ctx, "c1", "USD", 79.5)
	bm.RecordOrderReceived(ctx, "c1")
	bm.RecordStockMovement(ctx, "c1", "OUT")
	bm.RecordStockMovement(ctx, "c1", "OUT")
	bm.RecordWebhookEvent(ctx, "invoice.paid", telemetry.WebhookOutcomeDuplicate)
	bm.RecordAssistantRequest(ctx, "gemini", telemetry.AssistantOutcomeRefused, 0)

	metrics := collect(t, reader)
	company := telemetry.AttrCompanyID.String("c1")

	assert.Equal(t, int64(2), int64Sum(t, metrics["invoice_issued_total"], company))
	amount, ok := metrics["invoice_amount_total"].Data.(metricdata.Sum[float64])
	require.True(t, ok)
	require.Len(t, amount.DataPoints, 1)
	assert.InDelta(t, 200.0, amount.DataPoints[0].Value, 0.001)

	assert.Equal(t, int64(1), int64Sum(t, metrics["order_received_total"], company))
	assert.Equal(t, int64(2), int64Sum(t, metrics["stock_movement_total"],
		company, telemetry.AttrMovementType.String("OUT")))
	assert.Equal(t, int64(1), int64Sum(t, metrics["billing_webhook_event_total"],
		telemetry.AttrEventType.String("invoice.paid"), telemetry.AttrOutcome.String(telemetry.WebhookOutcomeDuplicate)))
	assert.Equal(t, int64(1), int64Sum(t, metrics["assistant_request_total"],
		telemetry.AttrProvider.String("gemini"), telemetry.AttrOutcome.String(telemetry.AssistantOutcomeRefused)))

	// no LLM call, no latency sample
	_, recorded := metrics["assistant_llm_duration_seconds"]
	assert.False(t, recorded)
}

type stubLowStockSource struct {
	counts map[string]int64
	err    error
}

func (s stubLowStockSource) CountLowStockByCompany(context.Context) (map[string]int64, error) {
	return s.counts, s.err
}

func TestBusinessMetrics_LowStockGauge(t *testing.T) {
	mp, reader := newTestMeter(t)
	meter := mp.Meter("test")
	bm, err := telemetry.NewBusinessMetrics(meter, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, bm.RegisterLowStockSource(meter, stubLowStockSource{
		counts: map[string]int64{"c1": 3, "c2": 0},
	}))

	metrics := collect(t, reader)
	gauge, ok := metrics["product_low_stock"].Data.(metricdata.Gauge[int64])
	require.True(t, ok)

	got := map[string]int64{}
	for _, dp := range gauge.DataPoints {
		v, _ := dp.Attributes.Value(telemetry.AttrCompanyID)
		got[v.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{"c1": 3, "c2": 0}, got)
}

func TestBusinessMetrics_LowStockSourceErrorSkipsCollection(t *testing.T) {
	mp, reader := newTestMeter(t)
	meter := mp.Meter("test")
	bm, err := telemetry.NewBusinessMetrics(meter, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, bm.RegisterLowStockSource(meter, stubLowStockSource{err: errors.New("db down")}))

	metrics := collect(t, reader)
	_, ok := metrics["product_low_stock"]
	assert.False(t, ok)
}
