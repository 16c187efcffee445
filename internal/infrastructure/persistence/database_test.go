package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopfront/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func openMocked(t *testing.T, cfg *config.DatabaseConfig) (*Database, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	mock.ExpectPing()

	db, err := Open(context.Background(), cfg,
		WithDialector(postgres.New(postgres.Config{Conn: conn, DriverName: "postgres"})),
		WithConnectTimeout(time.Second),
	)
	require.NoError(t, err)
	return db, mock
}

func TestOpen_SizesPool(t *testing.T) {
	db, mock := openMocked(t, &config.DatabaseConfig{DBName: "shop", MaxOpenConns: 7, MaxIdleConns: 2})

	assert.Equal(t, 7, db.Pool().MaxOpenConnections)
	assert.Same(t, db.SQL(), db.sql)

	mock.ExpectClose()
	require.NoError(t, db.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpen_PingFailureClosesPool(t *testing.T) {
	conn, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	mock.ExpectClose()

	_, err = Open(context.Background(), &config.DatabaseConfig{DBName: "shop", Host: "db", Port: 5432},
		WithDialector(postgres.New(postgres.Config{Conn: conn, DriverName: "postgres"})),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reach database db:5432")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabase_PingContext(t *testing.T) {
	db, mock := openMocked(t, &config.DatabaseConfig{DBName: "shop"})

	mock.ExpectPing()
	require.NoError(t, db.PingContext(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabase_WithinTxRollsBack(t *testing.T) {
	db, mock := openMocked(t, &config.DatabaseConfig{DBName: "shop"})
	boom := errors.New("stock changed")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := db.WithinTx(context.Background(), func(*gorm.DB) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpen_Unreachable(t *testing.T) {
	_, err := Open(context.Background(), &config.DatabaseConfig{
		Host:     "127.0.0.1",
		Port:     1,
		User:     "nobody",
		Password: "x",
		DBName:   "none",
		SSLMode:  "disable",
	}, WithConnectTimeout(time.Second))
	assert.Error(t, err)
}
