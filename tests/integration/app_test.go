//go:build integration

// Package integration drives the HTTP API against a real postgres.
package integration

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appcart "github.com/shopfront/backend/internal/application/cart"
	appevent "github.com/shopfront/backend/internal/application/event"
	appidentity "github.com/shopfront/backend/internal/application/identity"
	apporder "github.com/shopfront/backend/internal/application/order"
	appvendor "github.com/shopfront/backend/internal/application/vendor"
	"github.com/shopfront/backend/internal/domain/catalog"
	"github.com/shopfront/backend/internal/domain/order"
	"github.com/shopfront/backend/internal/infrastructure/auth"
	"github.com/shopfront/backend/internal/infrastructure/cache"
	"github.com/shopfront/backend/internal/infrastructure/config"
	"github.com/shopfront/backend/internal/infrastructure/event"
	"github.com/shopfront/backend/internal/infrastructure/persistence"
	"github.com/shopfront/backend/internal/infrastructure/strategy"
	"github.com/shopfront/backend/internal/interfaces/http/handler"
	"github.com/shopfront/backend/internal/interfaces/http/middleware"
	"github.com/shopfront/backend/internal/interfaces/http/router"
	"github.com/shopfront/backend/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

func init() {
	middleware.SetupValidator()
}

// app is the API wired the way the server wires it, minus telemetry
type app struct {
	db       *gorm.DB
	engine   *gin.Engine
	client   *testutil.APIClient
	products *persistence.GormProductRepository
}

func newApp(t *testing.T) *app {
	t.Helper()
	pg := testutil.StartPostgres(t)
	log := zaptest.NewLogger(t)

	users := persistence.NewGormUserRepository(pg.DB)
	carts := persistence.NewGormCartRepository(pg.DB)
	orders := persistence.NewGormOrderRepository(pg.DB)
	products := persistence.NewGormProductRepository(pg.DB)
	outbox := event.NewGormOutboxRepository(pg.DB)

	serializer := event.NewEventSerializer()
	event.RegisterAllEvents(serializer)
	orders.SetOutboxEventSaver(event.NewOutboxPublisher(serializer))

	strategies, err := strategy.NewRegistryWithDefaults(strategy.ShippingSettings{
		Default:               "threshold",
		FreeShippingThreshold: decimal.NewFromInt(100),
		FlatFee:               decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	pricer := order.NewPricer(products, strategies.Default(), "USD")

	blacklist := auth.NewInMemoryTokenBlacklist()
	jwt := auth.NewJWTService(config.JWTConfig{
		Secret:                "integration-secret-integration-secret",
		AccessTokenExpiration: time.Hour,
		Issuer:                "shopfront-test",
	})

	authService := appidentity.NewAuthService(users, jwt, blacklist, log)
	cartService := appcart.NewService(carts, products, log)
	orderService := apporder.NewService(orders, orders, pricer, products, users, cache.NewInMemoryIdempotencyStore(), log)
	vendorService := appvendor.NewService(orders, products, users, appvendor.Config{
		RequirePaymentBeforeShipment: true,
		TopProducts:                  5,
		Location:                     time.UTC,
	}, log)

	engine := gin.New()
	engine.Use(middleware.RequestID())
	authenticate := middleware.JWTAuth(middleware.JWTMiddlewareConfig{
		Validator:      jwt,
		TokenBlacklist: blacklist,
		Logger:         log,
	})
	router.NewRouter(engine).Register(router.Shopfront(router.Handlers{
		Auth:   handler.NewAuthHandler(authService),
		Cart:   handler.NewCartHandler(cartService),
		Order:  handler.NewOrderHandler(orderService),
		Vendor: handler.NewVendorHandler(vendorService),
		Outbox: handler.NewOutboxHandler(appevent.NewOutboxService(outbox, log)),
	}, router.Guards{Authenticate: authenticate})...).Setup()

	return &app{db: pg.DB, engine: engine, client: testutil.NewAPIClient(engine), products: products}
}

type account struct {
	ID     uuid.UUID
	client *testutil.APIClient
}

// register signs up a user through the API and returns a client holding
// their token
func (a *app) register(t *testing.T, name, role string) account {
	t.Helper()
	email := name + "@example.com"
	res := a.client.Post(t, "/api/v1/auth/register", map[string]string{
		"name":     name,
		"email":    email,
		"password": "correct-horse-battery",
		"role":     role,
	})
	require.Equal(t, http.StatusCreated, res.Status, res.ErrorCode())

	var body appidentity.AuthResponse
	res.Decode(t, &body)
	require.NotEmpty(t, body.AccessToken)
	return account{ID: body.User.ID, client: a.client.WithToken(body.AccessToken)}
}

// seedProduct stores an active product directly; vendors have no create
// endpoint
func (a *app) seedProduct(t *testing.T, vendorID uuid.UUID, name, price string) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(vendorID, name, decimal.RequireFromString(price))
	require.NoError(t, err)
	require.NoError(t, a.products.Save(context.Background(), p))
	return p
}

func (a *app) setPrice(t *testing.T, productID uuid.UUID, price string) {
	t.Helper()
	require.NoError(t, a.db.Exec("UPDATE products SET price = ? WHERE id = ?", price, productID).Error)
}

func (a *app) countOutbox(t *testing.T, eventType string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, a.db.Table("outbox_events").Where("event_type = ?", eventType).Count(&n).Error)
	return n
}

var checkoutBody = map[string]any{
	"shipping_address": map[string]string{
		"full_name":   "Ada Buyer",
		"address":     "1 Market St",
		"city":        "Springfield",
		"postal_code": "12345",
		"country":     "US",
	},
	"payment_method": "card",
}
