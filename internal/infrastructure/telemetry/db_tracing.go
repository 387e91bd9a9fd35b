package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/exportexpress/backoffice/internal/infrastructure/config"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracing registers otelgorm plus a callback pair that annotates each
// query span with rows affected, the table, errors and slow-query markers.
type DBTracing struct {
	enabled   bool
	fullSQL   bool
	slowQuery time.Duration
	provider  trace.TracerProvider
	logger    *zap.Logger
}

// NewDBTracing reads the DB tracing switches from cfg
func NewDBTracing(cfg config.TelemetryConfig, logger *zap.Logger) *DBTracing {
	slow := cfg.DBSlowQueryThresh
	if slow <= 0 {
		slow = 200 * time.Millisecond
	}
	return &DBTracing{
		enabled:   cfg.Enabled && cfg.DBTraceEnabled,
		fullSQL:   cfg.DBLogFullSQL,
		slowQuery: slow,
		logger:    logger,
	}
}

// WithTracerProvider overrides the global tracer provider
func (d *DBTracing) WithTracerProvider(tp trace.TracerProvider) *DBTracing {
	d.provider = tp
	return d
}

type queryStartKey struct{}

// registrar is satisfied by the value gorm returns from Before/After
type registrar interface {
	Register(name string, fn func(*gorm.DB)) error
}

// Register installs the plugin on db. It is a no-op when disabled.
func (d *DBTracing) Register(db *gorm.DB) error {
	if !d.enabled {
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName("postgresql")}
	if !d.fullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if d.provider != nil {
		opts = append(opts, otelgorm.WithTracerProvider(d.provider))
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}
	if err := d.registerCallbacks(db); err != nil {
		return err
	}

	d.logger.Info("database tracing enabled",
		zap.Bool("full_sql", d.fullSQL),
		zap.Duration("slow_query_threshold", d.slowQuery),
	)
	return nil
}

func (d *DBTracing) registerCallbacks(db *gorm.DB) error {
	cb := db.Callback()
	pairs := []struct {
		op            string
		before, after registrar
	}{
		{"create", cb.Create().Before("gorm:create"), cb.Create().After("gorm:create")},
		{"query", cb.Query().Before("gorm:query"), cb.Query().After("gorm:query")},
		{"update", cb.Update().Before("gorm:update"), cb.Update().After("gorm:update")},
		{"delete", cb.Delete().Before("gorm:delete"), cb.Delete().After("gorm:delete")},
		{"row", cb.Row().Before("gorm:row"), cb.Row().After("gorm:row")},
		{"raw", cb.Raw().Before("gorm:raw"), cb.Raw().After("gorm:raw")},
	}
	for _, p := range pairs {
		if err := p.before.Register("otel_timing:before_"+p.op, markQueryStart); err != nil {
			return err
		}
		if err := p.after.Register("otel_timing:after_"+p.op, d.annotate); err != nil {
			return err
		}
	}
	return nil
}

func markQueryStart(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartKey{}, time.Now())
	}
}

func (d *DBTracing) annotate(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.RecordError(db.Error)
		span.SetStatus(codes.Error, db.Error.Error())
	}

	start, ok := ctx.Value(queryStartKey{}).(time.Time)
	if !ok {
		return
	}
	if elapsed := time.Since(start); elapsed > d.slowQuery {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
		span.AddEvent("slow_query", trace.WithAttributes(
			attribute.Int64("threshold_ms", d.slowQuery.Milliseconds()),
		))
	}
}
