package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const businessMeterName = "bizdesk-backend/business"

// Assistant request outcomes
const (
	AssistantOutcomeAnswered = "answered"
	AssistantOutcomeRefused  = "refused"
	AssistantOutcomeQuota    = "quota_exceeded"
	AssistantOutcomeFailed   = "failed"
)

// Webhook processing outcomes
const (
	WebhookOutcomeProcessed = "processed"
	WebhookOutcomeDuplicate = "duplicate"
	WebhookOutcomeIgnored   = "ignored"
	WebhookOutcomeFailed    = "failed"
	WebhookOutcomeRejected  = "rejected"
)

// LowStockSource reports the number of low-stock products per company ID
type LowStockSource interface {
	CountLowStockByCompany(ctx context.Context) (map[string]int64, error)
}

// BusinessMetrics records domain counters. A nil *BusinessMetrics is valid
// and records nothing, so services can take it as an optional dependency.
type BusinessMetrics struct {
	logger *zap.Logger

	invoicesIssued   *Counter
	invoiceAmount    *FloatCounter
	ordersReceived   *Counter
	stockMovements   *Counter
	webhookEvents    *Counter
	assistantReqs    *Counter
	assistantLatency *Histogram
	lowStock         metric.Int64ObservableGauge
}

// NewBusinessMetrics creates the instruments on meter
func NewBusinessMetrics(meter metric.Meter, logger *zap.Logger) (*BusinessMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	bm := &BusinessMetrics{logger: logger}

	var err error
	if bm.invoicesIssued, err = NewCounter(meter, "invoice_issued_total", "Invoices issued", "{invoice}"); err != nil {
		return nil, err
	}
	if bm.invoiceAmount, err = NewFloatCounter(meter, "invoice_amount_total", "Invoiced amount", "{currency}"); err != nil {
		return nil, err
	}
	if bm.ordersReceived, err = NewCounter(meter, "order_received_total", "Purchase orders received", "{order}"); err != nil {
		return nil, err
	}
	if bm.stockMovements, err = NewCounter(meter, "stock_movement_total", "Stock movements applied", "{movement}"); err != nil {
		return nil, err
	}
	if bm.webhookEvents, err = NewCounter(meter, "billing_webhook_event_total", "Stripe webhook events", "{event}"); err != nil {
		return nil, err
	}
	if bm.assistantReqs, err = NewCounter(meter, "assistant_request_total", "Assistant requests", "{request}"); err != nil {
		return nil, err
	}
	if bm.assistantLatency, err = NewHistogram(meter, HistogramOpts{
		Name:        "assistant_llm_duration_seconds",
		Description: "LLM completion latency",
		Unit:        "s",
		Boundaries:  LLMDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if bm.lowStock, err = meter.Int64ObservableGauge("product_low_stock",
		metric.WithDescription("Products at or below their low-stock level"),
		metric.WithUnit("{product}")); err != nil {
		return nil, fmt.Errorf("failed to create product_low_stock: %w", err)
	}
	return bm, nil
}

// RegisterLowStockSource observes src on every collection
func (bm *BusinessMetrics) RegisterLowStockSource(meter metric.Meter, src LowStockSource) error {
	if bm == nil || src == nil {
		return nil
	}
	_, err := meter.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
		counts, err := src.CountLowStockByCompany(ctx)
		if err != nil {
			bm.logger.Warn("Failed to collect low-stock counts", zap.Error(err))
			return nil
		}
		for companyID, n := range counts {
			o.ObserveInt64(bm.lowStock, n, metric.WithAttributes(AttrCompanyID.String(companyID)))
		}
		return nil
	}, bm.lowStock)
	if err != nil {
		return fmt.Errorf("failed to register low-stock callback: %w", err)
	}
	return nil
}

// RecordInvoiceIssued counts an invoice and its total
func (bm *BusinessMetrics) RecordInvoiceIssued(ctx context.Context, companyID, currency string, total float64) {
	if bm == nil {
		return
	}
	bm.invoicesIssued.Inc(ctx, AttrCompanyID.String(companyID))
	bm.invoiceAmount.Add(ctx, total, AttrCompanyID.String(companyID), AttrCurrency.String(currency))
}

// RecordOrderReceived counts a received purchase order
func (bm *BusinessMetrics) RecordOrderReceived(ctx context.Context, companyID string) {
	if bm == nil {
		return
	}
	bm.ordersReceived.Inc(ctx, AttrCompanyID.String(companyID))
}

// RecordStockMovement counts an applied movement
func (bm *BusinessMetrics) RecordStockMovement(ctx context.Context, companyID, movementType string) {
	if bm == nil {
		return
	}
	bm.stockMovements.Inc(ctx, AttrCompanyID.String(companyID), AttrMovementType.String(movementType))
}

// RecordWebhookEvent counts a Stripe event by type and outcome
func (bm *BusinessMetrics) RecordWebhookEvent(ctx context.Context, eventType, outcome string) {
	if bm == nil {
		return
	}
	bm.webhookEvents.Inc(ctx, AttrEventType.String(eventType), AttrOutcome.String(outcome))
}

// RecordAssistantRequest counts an assistant request. seconds is the LLM
// latency and is ignored when no call was made.
func (bm *BusinessMetrics) RecordAssistantRequest(ctx context.Context, provider, outcome string, seconds float64) {
	if bm == nil {
		return
	}
	attrs := []attribute.KeyValue{AttrProvider.String(provider), AttrOutcome.String(outcome)}
	bm.assistantReqs.Inc(ctx, attrs...)
	if seconds > 0 {
		bm.assistantLatency.Record(ctx, seconds, attrs...)
	}
}
