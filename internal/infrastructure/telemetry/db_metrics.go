package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.opentelemetry.io/otel/metric"
	"gorm.io/gorm"
)

// DBMetrics records query counts, latency and connection pool state.
type DBMetrics struct {
	queryTotal     *Counter
	queryDuration  *Histogram
	slowQueryTotal *Counter
	slowThreshold  time.Duration
}

// NewDBMetrics creates the query instruments. slowThreshold defaults to 200ms.
func NewDBMetrics(meter metric.Meter, slowThreshold time.Duration) (*DBMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if slowThreshold <= 0 {
		slowThreshold = 200 * time.Millisecond
	}

	m := &DBMetrics{slowThreshold: slowThreshold}
	var err error
	if m.queryTotal, err = NewCounter(meter, "db_query_total", "Database statements by operation and outcome", "{query}"); err != nil {
		return nil, err
	}
	if m.queryDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "db_query_duration_seconds",
		Description: "Database statement latency",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if m.slowQueryTotal, err = NewCounter(meter, "db_slow_query_total", "Statements slower than the slow query threshold", "{query}"); err != nil {
		return nil, err
	}
	return m, nil
}

// ObservePool reports sqlDB pool statistics on every collection.
func (m *DBMetrics) ObservePool(meter metric.Meter, sqlDB *sql.DB) error {
	_, err := meter.Int64ObservableGauge("db_pool_connections",
		metric.WithDescription("Connections in the pool by state"),
		metric.WithUnit("{connection}"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			s := sqlDB.Stats()
			o.Observe(int64(s.InUse), metric.WithAttributes(AttrDBState.String("in_use")))
			o.Observe(int64(s.Idle), metric.WithAttributes(AttrDBState.String("idle")))
			o.Observe(int64(s.MaxOpenConnections), metric.WithAttributes(AttrDBState.String("max")))
			return nil
		}),
	)
	if err != nil {
		return err
	}
	_, err = meter.Int64ObservableCounter("db_pool_wait_total",
		metric.WithDescription("Connections waited for"),
		metric.WithUnit("{wait}"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(sqlDB.Stats().WaitCount)
			return nil
		}),
	)
	return err
}

// Register hooks the recorder into gorm's callback chain.
func (m *DBMetrics) Register(db *gorm.DB) error {
	return registerAround(db, "shop_metrics", markQueryStart, func(op string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			if tx.Statement.Context == nil {
				return
			}
			elapsed, ok := queryElapsed(tx.Statement.Context)
			if !ok {
				return
			}
			m.RecordQuery(tx.Statement.Context, op, tx.Statement.Table, elapsed, tx.Error)
		}
	})
}

// RecordQuery records one statement. Not-found lookups count as successes.
func (m *DBMetrics) RecordQuery(ctx context.Context, operation, table string, d time.Duration, err error) {
	status := "ok"
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		status = "error"
	}
	m.queryTotal.Inc(ctx, AttrDBOperation.String(operation), AttrDBTable.String(table), AttrStatus.String(status))
	m.queryDuration.RecordDuration(ctx, d, AttrDBOperation.String(operation), AttrDBTable.String(table))
	if d > m.slowThreshold {
		m.slowQueryTotal.Inc(ctx, AttrDBOperation.String(operation), AttrDBTable.String(table))
	}
}
