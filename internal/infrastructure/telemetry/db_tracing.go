package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig controls otelgorm registration.
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool // include bound variables in db.statement; never in production
	SlowQueryThresh time.Duration
	DBName          string
}

// RegisterDBTracing installs otelgorm on db and adds a callback that tags
// slow or failed statements on the active span.
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		return nil
	}
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = 200 * time.Millisecond
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBName)}
	if !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	after := func(string) func(*gorm.DB) {
		return func(tx *gorm.DB) { annotateSpan(tx, cfg.SlowQueryThresh) }
	}
	if err := registerAround(db, "shop_trace", markQueryStart, after); err != nil {
		return err
	}

	logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", cfg.LogFullSQL),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThresh),
	)
	return nil
}

func annotateSpan(tx *gorm.DB, slow time.Duration) {
	ctx := tx.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.SetAttributes(attribute.Int64("db.rows_affected", tx.Statement.RowsAffected))
	if tx.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", tx.Statement.Table))
	}
	if tx.Error != nil && !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		span.RecordError(tx.Error)
		span.SetStatus(codes.Error, tx.Error.Error())
	}
	if elapsed, ok := queryElapsed(ctx); ok && elapsed > slow {
		span.SetAttributes(attribute.Bool("db.slow_query", true))
		span.AddEvent("slow_query", trace.WithAttributes(
			attribute.Int64("duration_ms", elapsed.Milliseconds()),
			attribute.Int64("threshold_ms", slow.Milliseconds()),
		))
	}
}

type queryStartKey struct{}

func markQueryStart(string) func(*gorm.DB) {
	return func(tx *gorm.DB) {
		if tx.Statement.Context == nil {
			return
		}
		tx.Statement.Context = context.WithValue(tx.Statement.Context, queryStartKey{}, time.Now())
	}
}

func queryElapsed(ctx context.Context) (time.Duration, bool) {
	start, ok := ctx.Value(queryStartKey{}).(time.Time)
	if !ok {
		return 0, false
	}
	return time.Since(start), true
}

// registerAround hooks before and after into every gorm processor. After
// hooks run ahead of otelgorm's, while its span is still recording. The
// factories receive the operation name.
func registerAround(db *gorm.DB, prefix string, before, after func(op string) func(*gorm.DB)) error {
	cb := db.Callback()
	return errors.Join(
		cb.Create().Before("gorm:create").Register(prefix+":before_create", before("create")),
		cb.Create().After("gorm:create").Before("otel:after:create").Register(prefix+":after_create", after("create")),
		cb.Query().Before("gorm:query").Register(prefix+":before_query", before("select")),
		cb.Query().After("gorm:query").Before("otel:after:query").Register(prefix+":after_query", after("select")),
		cb.Update().Before("gorm:update").Register(prefix+":before_update", before("update")),
		cb.Update().After("gorm:update").Before("otel:after:update").Register(prefix+":after_update", after("update")),
		cb.Delete().Before("gorm:delete").Register(prefix+":before_delete", before("delete")),
		cb.Delete().After("gorm:delete").Before("otel:after:delete").Register(prefix+":after_delete", after("delete")),
		cb.Row().Before("gorm:row").Register(prefix+":before_row", before("row")),
		cb.Row().After("gorm:row").Before("otel:after:row").Register(prefix+":after_row", after("row")),
		cb.Raw().Before("gorm:raw").Register(prefix+":before_raw", before("raw")),
		cb.Raw().After("gorm:raw").Before("otel:after:raw").Register(prefix+":after_raw", after("raw")),
	)
}
