// Package config reads service settings from config.toml, an optional
// .env file and SHOP_* environment variables.
package config

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Log       LogConfig
	Event     EventConfig
	HTTP      HTTPConfig
	Order     OrderConfig
	Vendor    VendorConfig
	Catalog   CatalogConfig
	Kafka     KafkaConfig
	Swagger   SwaggerConfig
	Telemetry TelemetryConfig
}

type AppConfig struct {
	Name string
	Env  string
	Port string
}

func (a AppConfig) IsProduction() bool { return a.Env == "production" }

// LogConfig.Output is stdout, stderr or a file path.
type LogConfig struct {
	Level  string
	Format string // json or console
	Output string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // minutes
	ConnMaxIdleTime int // minutes
}

// DSN builds a postgres URL, escaping credentials.
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     d.Host + ":" + strconv.Itoa(d.Port),
		Path:     d.DBName,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}

// RedisConfig with an empty Host means Redis is not used.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type JWTConfig struct {
	Secret                string
	AccessTokenExpiration time.Duration
	Issuer                string
}

// EventConfig drives the outbox relay.
type EventConfig struct {
	ProcessorEnabled bool
	BatchSize        int
	PollInterval     time.Duration
	MaxRetries       int
	CleanupEnabled   bool
	CleanupRetention time.Duration
}

type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	MaxBodySize      int64
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string
	// AuthRateLimit requests per AuthRateWindow, per client IP, on /auth
	AuthRateLimit  int
	AuthRateWindow time.Duration
}

type OrderConfig struct {
	Currency string
	// ShippingStrategy is threshold, flat_rate or free
	ShippingStrategy string
	// FreeShippingThreshold: subtotals strictly above it ship free
	FreeShippingThreshold        decimal.Decimal
	FlatShippingFee              decimal.Decimal
	RequirePaymentBeforeShipment bool
	IdempotencyTTL               time.Duration
}

type VendorConfig struct {
	TopProducts   int
	StatsTimezone string
}

func (v VendorConfig) Location() (*time.Location, error) {
	return time.LoadLocation(v.StatsTimezone)
}

// CatalogConfig.Driver is gorm or mongo.
type CatalogConfig struct {
	Driver        string
	MongoURI      string
	MongoDatabase string
}

type KafkaConfig struct {
	Enabled  bool
	Brokers  []string
	Topic    string
	ClientID string
}

// SwaggerConfig: an empty AllowedIPs admits every client.
type SwaggerConfig struct {
	Enabled     bool
	RequireAuth bool
	AllowedIPs  []string
}

type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string // OTLP gRPC, host:port
	SamplingRatio     float64
	ServiceName       string
	Insecure          bool

	MetricsEnabled  bool
	MetricsInterval time.Duration
	LogsEnabled     bool

	DBTraceEnabled    bool
	DBLogFullSQL      bool
	DBSlowQueryThresh time.Duration

	ProfilingEnabled bool
	ProfilerAddress  string
	ProfileTypes     []string
}
