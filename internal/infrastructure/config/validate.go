package config

import (
	"errors"
	"fmt"
	"slices"
)

var (
	shippingStrategies = []string{"threshold", "flat_rate", "free"}
	catalogDrivers     = []string{"gorm", "mongo"}
)

// validate reports every problem at once.
func (c *Config) validate() error {
	var errs []error
	fail := func(format string, args ...any) { errs = append(errs, fmt.Errorf(format, args...)) }

	db := c.Database
	switch {
	case db.MaxOpenConns <= 0:
		fail("database.max_open_conns must be positive")
	case db.MaxIdleConns < 0:
		fail("database.max_idle_conns cannot be negative")
	case db.MaxIdleConns > db.MaxOpenConns:
		fail("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)", db.MaxIdleConns, db.MaxOpenConns)
	}

	if !slices.Contains(shippingStrategies, c.Order.ShippingStrategy) {
		fail("order.shipping_strategy must be one of %v, got %q", shippingStrategies, c.Order.ShippingStrategy)
	}
	if c.Order.FreeShippingThreshold.IsNegative() {
		fail("order.free_shipping_threshold cannot be negative")
	}
	if c.Order.FlatShippingFee.IsNegative() {
		fail("order.flat_shipping_fee cannot be negative")
	}

	if c.Vendor.TopProducts < 0 {
		fail("vendor.top_products cannot be negative")
	}
	if _, err := c.Vendor.Location(); err != nil {
		fail("vendor.stats_timezone: %w", err)
	}

	if !slices.Contains(catalogDrivers, c.Catalog.Driver) {
		fail("catalog.driver must be one of %v, got %q", catalogDrivers, c.Catalog.Driver)
	} else if c.Catalog.Driver == "mongo" && c.Catalog.MongoURI == "" {
		fail("catalog.mongo_uri is required when catalog.driver is mongo")
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		fail("kafka.brokers is required when kafka.enabled is true")
	}

	t := c.Telemetry
	if t.ProfilingEnabled && t.ProfilerAddress == "" {
		fail("telemetry.profiler_address is required when profiling is enabled")
	}
	if t.SamplingRatio < 0 || t.SamplingRatio > 1 {
		fail("telemetry.sampling_ratio must be between 0 and 1, got %g", t.SamplingRatio)
	}

	if c.App.IsProduction() {
		errs = append(errs, c.productionProblems()...)
	}
	return errors.Join(errs...)
}

// productionProblems lists settings that are tolerable locally but unsafe
// once deployed.
func (c *Config) productionProblems() []error {
	var errs []error
	switch {
	case c.JWT.Secret == "":
		errs = append(errs, errors.New("jwt.secret is required in production"))
	case len(c.JWT.Secret) < 32:
		errs = append(errs, errors.New("jwt.secret must be at least 32 characters in production"))
	}
	if c.Database.Password == "" {
		errs = append(errs, errors.New("database.password is required in production"))
	}
	if c.Database.SSLMode == "disable" {
		errs = append(errs, errors.New("database.sslmode cannot be 'disable' in production"))
	}
	if slices.Contains(c.HTTP.CORSAllowOrigins, "*") {
		errs = append(errs, errors.New("http.cors_allow_origins cannot be '*' in production"))
	}
	if c.Swagger.Enabled && !c.Swagger.RequireAuth && len(c.Swagger.AllowedIPs) == 0 {
		errs = append(errs, errors.New("swagger endpoint must be disabled, require authentication, or have IP restriction in production"))
	}
	if c.Telemetry.DBLogFullSQL {
		errs = append(errs, errors.New("telemetry.db_log_full_sql must be false in production"))
	}
	return errs
}
