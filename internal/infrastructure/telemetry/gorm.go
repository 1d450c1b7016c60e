package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultSlowQueryThreshold = 200 * time.Millisecond
	queryStartKey             = "telemetry:query_start"
)

// DBConfig configures database instrumentation
type DBConfig struct {
	TracingEnabled     bool
	DBSystem           string // postgresql
	LogFullSQL         bool   // include bound variables in spans; never in production
	SlowQueryThreshold time.Duration
}

// DBInstrumentation registers tracing and metric callbacks on a *gorm.DB
type DBInstrumentation struct {
	config DBConfig
	logger *zap.Logger

	queries   metric.Int64Counter
	duration  metric.Float64Histogram
	slow      metric.Int64Counter
	poolGauge metric.Int64ObservableGauge
}

// NewDBInstrumentation creates the DB instruments on meter
func NewDBInstrumentation(meter metric.Meter, cfg DBConfig, logger *zap.Logger) (*DBInstrumentation, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if cfg.SlowQueryThreshold <= 0 {
		cfg.SlowQueryThreshold = defaultSlowQueryThreshold
	}
	if cfg.DBSystem == "" {
		cfg.DBSystem = "postgresql"
	}

	d := &DBInstrumentation{config: cfg, logger: logger}
	var err error
	if d.queries, err = meter.Int64Counter("db_query_total",
		metric.WithDescription("Database queries executed"),
		metric.WithUnit("{query}")); err != nil {
		return nil, fmt.Errorf("failed to create db_query_total: %w", err)
	}
	if d.duration, err = meter.Float64Histogram("db_query_duration_seconds",
		metric.WithDescription("Database query latency"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(DBDurationBuckets...)); err != nil {
		return nil, fmt.Errorf("failed to create db_query_duration_seconds: %w", err)
	}
	if d.slow, err = meter.Int64Counter("db_slow_query_total",
		metric.WithDescription("Queries slower than the configured threshold"),
		metric.WithUnit("{query}")); err != nil {
		return nil, fmt.Errorf("failed to create db_slow_query_total: %w", err)
	}
	if d.poolGauge, err = meter.Int64ObservableGauge("db_pool_connections",
		metric.WithDescription("Database pool connections by state"),
		metric.WithUnit("{connection}")); err != nil {
		return nil, fmt.Errorf("failed to create db_pool_connections: %w", err)
	}
	return d, nil
}

// Instrument installs the otelgorm plugin (when tracing is enabled), the
// timing callbacks and the pool stats callback.
func (d *DBInstrumentation) Instrument(db *gorm.DB, meter metric.Meter) error {
	if d.config.TracingEnabled {
		opts := []otelgorm.Option{otelgorm.WithDBName(d.config.DBSystem)}
		if !d.config.LogFullSQL {
			opts = append(opts, otelgorm.WithoutQueryVariables())
		}
		if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
			return fmt.Errorf("failed to register otelgorm plugin: %w", err)
		}
	}

	cb := db.Callback()
	type hook struct {
		op     string
		before func(string, func(*gorm.DB)) error
		after  func(string, func(*gorm.DB)) error
	}
	hooks := []hook{
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"row", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	}
	for _, h := range hooks {
		if err := h.before("telemetry:before_"+h.op, d.before); err != nil {
			return fmt.Errorf("failed to register before_%s callback: %w", h.op, err)
		}
		if err := h.after("telemetry:after_"+h.op, d.afterFunc(h.op)); err != nil {
			return fmt.Errorf("failed to register after_%s callback: %w", h.op, err)
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	_, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := sqlDB.Stats()
		o.ObserveInt64(d.poolGauge, int64(stats.InUse), metric.WithAttributes(AttrDBState.String("in_use")))
		o.ObserveInt64(d.poolGauge, int64(stats.Idle), metric.WithAttributes(AttrDBState.String("idle")))
		o.ObserveInt64(d.poolGauge, int64(stats.OpenConnections), metric.WithAttributes(AttrDBState.String("open")))
		return nil
	}, d.poolGauge)
	if err != nil {
		return fmt.Errorf("failed to register pool callback: %w", err)
	}

	d.logger.Info("Database instrumentation enabled",
		zap.Bool("tracing", d.config.TracingEnabled),
		zap.Duration("slow_query_threshold", d.config.SlowQueryThreshold),
	)
	return nil
}

func (d *DBInstrumentation) before(db *gorm.DB) {
	db.InstanceSet(queryStartKey, time.Now())
}

func (d *DBInstrumentation) afterFunc(op string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		v, ok := db.InstanceGet(queryStartKey)
		if !ok {
			return
		}
		start, ok := v.(time.Time)
		if !ok {
			return
		}
		elapsed := time.Since(start)
		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}

		attrs := metric.WithAttributes(
			AttrDBOperation.String(op),
			AttrDBTable.String(db.Statement.Table),
		)
		d.queries.Add(ctx, 1, attrs)
		d.duration.Record(ctx, elapsed.Seconds(), attrs)

		if elapsed < d.config.SlowQueryThreshold {
			return
		}
		d.slow.Add(ctx, 1, attrs)
		span := trace.SpanFromContext(ctx)
		if span.IsRecording() {
			span.SetAttributes(
				attribute.Bool("db.slow_query", true),
				attribute.Int64("db.duration_ms", elapsed.Milliseconds()),
			)
		}
		d.logger.Warn("Slow query",
			zap.String("operation", op),
			zap.String("table", db.Statement.Table),
			zap.Duration("elapsed", elapsed),
			zap.String("trace_id", GetTraceID(ctx)),
		)
	}
}
