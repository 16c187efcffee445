package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopfront/backend/internal/infrastructure/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const defaultConnectTimeout = 5 * time.Second

// Database is the shared postgres handle. Repositories take DB directly.
type Database struct {
	DB  *gorm.DB
	sql *sql.DB
}

type openOptions struct {
	gormLogger     logger.Interface
	connectTimeout time.Duration
	dialector      gorm.Dialector
}

// Option tweaks how Open connects
type Option func(*openOptions)

// WithGormLogger routes GORM's query log through l
func WithGormLogger(l logger.Interface) Option {
	return func(o *openOptions) { o.gormLogger = l }
}

// WithConnectTimeout bounds the initial ping
func WithConnectTimeout(d time.Duration) Option {
	return func(o *openOptions) {
		if d > 0 {
			o.connectTimeout = d
		}
	}
}

// WithDialector replaces the postgres dialector built from the DSN
func WithDialector(d gorm.Dialector) Option {
	return func(o *openOptions) { o.dialector = d }
}

// Open connects to postgres, sizes the pool from cfg and verifies the
// connection before returning.
func Open(ctx context.Context, cfg *config.DatabaseConfig, opts ...Option) (*Database, error) {
	o := openOptions{
		gormLogger:     logger.Default.LogMode(logger.Silent),
		connectTimeout: defaultConnectTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.dialector == nil {
		o.dialector = postgres.Open(cfg.DSN())
	}

	gdb, err := gorm.Open(o.dialector, &gorm.Config{
		Logger:                 o.gormLogger,
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		TranslateError:         true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.DBName, err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	configurePool(sqlDB, cfg)

	db := &Database{DB: gdb, sql: sqlDB}
	pingCtx, cancel := context.WithTimeout(ctx, o.connectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("reach database %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	return db, nil
}

func configurePool(db *sql.DB, cfg *config.DatabaseConfig) {
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)
	}
}

// PingContext satisfies the health handler's Pinger
func (d *Database) PingContext(ctx context.Context) error {
	return d.sql.PingContext(ctx)
}

// SQL exposes the pool for metrics and migrations
func (d *Database) SQL() *sql.DB {
	return d.sql
}

// Pool reports the in-use/idle split of the connection pool
func (d *Database) Pool() sql.DBStats {
	return d.sql.Stats()
}

// WithinTx runs fn in a transaction bound to ctx
func (d *Database) WithinTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return d.DB.WithContext(ctx).Transaction(fn)
}

func (d *Database) Close() error {
	return d.sql.Close()
}
