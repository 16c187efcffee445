package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB opens an in-memory SQLite database with every table migrated.
// A single connection keeps the in-memory database shared across queries.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.UserModel{},
		&models.ProductModel{},
		&models.CartModel{},
		&models.CartLineModel{},
		&models.OrderModel{},
		&models.OrderLineModel{},
		&models.OutboxEventModel{},
	))
	return db
}

// newMockDatabase wraps a sqlmock connection in the postgres dialector so
// tests can assert the exact SQL a repository issues
func newMockDatabase(t *testing.T) (*Database, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gdb, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       sqlDB,
		DriverName: "postgres",
	}), &gorm.Config{SkipDefaultTransaction: true, TranslateError: true})
	require.NoError(t, err)
	return &Database{DB: gdb, sql: sqlDB}, mock, sqlDB
}

// outboxRecorder writes events to the outbox table through the transaction it
// is handed, so tests can observe atomicity.
type outboxRecorder struct{}

func (outboxRecorder) SaveEvents(ctx context.Context, txProvider interface{}, events ...shared.DomainEvent) error {
	tx := txProvider.(*gorm.DB)
	for _, e := range events {
		entry := shared.NewOutboxEntry(e, []byte(`{}`))
		if err := tx.WithContext(ctx).Create(models.NewOutboxEventModel(entry)).Error; err != nil {
			return err
		}
	}
	return nil
}

func countOutbox(t *testing.T, db *gorm.DB, eventType string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.OutboxEventModel{}).Where("event_type = ?", eventType).Count(&n).Error)
	return n
}

func decimalFromString(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}
