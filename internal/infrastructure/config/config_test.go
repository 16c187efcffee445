package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnvKeys = []string{
	"SHOP_APP_NAME",
	"SHOP_APP_ENV",
	"SHOP_APP_PORT",
	"SHOP_DATABASE_HOST",
	"SHOP_DATABASE_PORT",
	"SHOP_DATABASE_PASSWORD",
	"SHOP_DATABASE_SSLMODE",
	"SHOP_DATABASE_MAX_OPEN_CONNS",
	"SHOP_DATABASE_MAX_IDLE_CONNS",
	"SHOP_JWT_SECRET",
	"SHOP_ORDER_SHIPPING_STRATEGY",
	"SHOP_ORDER_FREE_SHIPPING_THRESHOLD",
	"SHOP_ORDER_FLAT_SHIPPING_FEE",
	"SHOP_ORDER_REQUIRE_PAYMENT_BEFORE_SHIPMENT",
	"SHOP_VENDOR_TOP_PRODUCTS",
	"SHOP_VENDOR_STATS_TIMEZONE",
	"SHOP_CATALOG_DRIVER",
	"SHOP_CATALOG_MONGO_URI",
	"SHOP_KAFKA_ENABLED",
	"SHOP_KAFKA_BROKERS",
	"SHOP_KAFKA_CLIENT_ID",
	"SHOP_SWAGGER_ENABLED",
	"SHOP_SWAGGER_REQUIRE_AUTH",
}

// clearEnv blanks every key the tests touch; viper ignores empty variables.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configEnvKeys {
		t.Setenv(k, "")
	}
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "shopfront-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "shopfront", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)

		assert.Equal(t, "threshold", cfg.Order.ShippingStrategy)
		assert.True(t, cfg.Order.FreeShippingThreshold.Equal(decimal.NewFromInt(100)))
		assert.True(t, cfg.Order.FlatShippingFee.Equal(decimal.NewFromInt(10)))
		assert.True(t, cfg.Order.RequirePaymentBeforeShipment)
		assert.Equal(t, 24*time.Hour, cfg.Order.IdempotencyTTL)
		assert.Equal(t, 10, cfg.Vendor.TopProducts)
		assert.Equal(t, "UTC", cfg.Vendor.StatsTimezone)
		assert.Equal(t, "gorm", cfg.Catalog.Driver)
		assert.False(t, cfg.Kafka.Enabled)
		assert.Empty(t, cfg.Redis.Host)
	})

	t.Run("loads values from environment variables with SHOP prefix", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SHOP_APP_NAME", "test-app")
		t.Setenv("SHOP_APP_PORT", "9000")
		t.Setenv("SHOP_DATABASE_HOST", "testdb.local")
		t.Setenv("SHOP_DATABASE_PORT", "5433")
		t.Setenv("SHOP_ORDER_FREE_SHIPPING_THRESHOLD", "150.00")
		t.Setenv("SHOP_ORDER_FLAT_SHIPPING_FEE", "7.5")
		t.Setenv("SHOP_ORDER_REQUIRE_PAYMENT_BEFORE_SHIPMENT", "false")
		t.Setenv("SHOP_VENDOR_TOP_PRODUCTS", "5")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.True(t, cfg.Order.FreeShippingThreshold.Equal(decimal.NewFromInt(150)))
		assert.True(t, cfg.Order.FlatShippingFee.Equal(decimal.RequireFromString("7.5")))
		assert.False(t, cfg.Order.RequirePaymentBeforeShipment)
		assert.Equal(t, 5, cfg.Vendor.TopProducts)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SHOP_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("SHOP_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("rejects malformed money values", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SHOP_ORDER_FREE_SHIPPING_THRESHOLD", "lots")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "order.free_shipping_threshold")
	})

	t.Run("rejects unknown shipping strategy", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SHOP_ORDER_SHIPPING_STRATEGY", "drone")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "order.shipping_strategy")
	})

	t.Run("rejects unknown timezone", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SHOP_VENDOR_STATS_TIMEZONE", "Mars/Olympus")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "vendor.stats_timezone")
	})

	t.Run("mongo catalog requires a URI", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SHOP_CATALOG_DRIVER", "mongo")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "catalog.mongo_uri")

		t.Setenv("SHOP_CATALOG_MONGO_URI", "mongodb://localhost:27017")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "mongo", cfg.Catalog.Driver)
	})

	t.Run("kafka requires brokers when enabled", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SHOP_KAFKA_ENABLED", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "kafka.brokers")
	})
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("SHOP_APP_PORT", "")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SHOP_APP_PORT=7070\n"), 0o600))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		_ = os.Chdir(wd)
		_ = os.Unsetenv("SHOP_APP_PORT")
	})

	// godotenv does not override variables that are already set, even empty
	require.NoError(t, os.Unsetenv("SHOP_APP_PORT"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.App.Port)
}

func TestLoad_ProductionValidation(t *testing.T) {
	setValidProductionBase := func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SHOP_APP_ENV", "production")
		t.Setenv("SHOP_JWT_SECRET", "this-is-a-very-secure-jwt-secret-key-32chars")
		t.Setenv("SHOP_DATABASE_PASSWORD", "secure-password")
		t.Setenv("SHOP_DATABASE_SSLMODE", "require")
		t.Setenv("SHOP_SWAGGER_ENABLED", "false")
	}

	t.Run("passes validation with valid production config", func(t *testing.T) {
		setValidProductionBase(t)

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})

	t.Run("requires jwt.secret in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("SHOP_JWT_SECRET", "")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.secret is required in production")
	})

	t.Run("requires jwt.secret at least 32 characters in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("SHOP_JWT_SECRET", "short-secret")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least 32 characters")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("SHOP_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode")
	})

	t.Run("fails if swagger enabled without protection in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("SHOP_SWAGGER_ENABLED", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "swagger endpoint must be disabled")
	})

	t.Run("passes with swagger enabled and require_auth in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("SHOP_SWAGGER_ENABLED", "true")
		t.Setenv("SHOP_SWAGGER_REQUIRE_AUTH", "true")

		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.Swagger.RequireAuth)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{Host: "localhost", Port: 5432, User: "testuser", Password: "testpass", DBName: "testdb", SSLMode: "disable"}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost:5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "/testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{Host: "localhost", Port: 5432, User: "user", Password: "pass@word#123", DBName: "db", SSLMode: "disable"}
		assert.Contains(t, cfg.DSN(), "pass%40word%23123")
	})
}

func TestRedisConfig_Addr(t *testing.T) {
	cfg := RedisConfig{Host: "cache", Port: 6380}
	assert.Equal(t, "cache:6380", cfg.Addr())
}

func TestLoad_ReportsEveryProblem(t *testing.T) {
	clearEnv(t)
	t.Setenv("SHOP_ORDER_SHIPPING_STRATEGY", "drone")
	t.Setenv("SHOP_VENDOR_TOP_PRODUCTS", "-1")
	t.Setenv("SHOP_KAFKA_ENABLED", "true")

	_, err := Load()
	require.Error(t, err)
	for _, want := range []string{"order.shipping_strategy", "vendor.top_products", "kafka.brokers"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestLoad_ZeroShippingFeeIsKept(t *testing.T) {
	clearEnv(t)
	t.Setenv("SHOP_ORDER_FLAT_SHIPPING_FEE", "0")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Order.FlatShippingFee.IsZero())
}
