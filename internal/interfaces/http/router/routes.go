package router

import (
	"github.com/gin-gonic/gin"
	"github.com/shopfront/backend/internal/domain/identity"
	"github.com/shopfront/backend/internal/interfaces/http/handler"
	"github.com/shopfront/backend/internal/interfaces/http/middleware"
)

// Handlers are the API handlers mounted by Shopfront
type Handlers struct {
	Auth   *handler.AuthHandler
	Cart   *handler.CartHandler
	Order  *handler.OrderHandler
	Vendor *handler.VendorHandler
	Outbox *handler.OutboxHandler
}

// Guards are the access middleware shared by the route groups
type Guards struct {
	// Authenticate resolves the bearer token into a principal
	Authenticate gin.HandlerFunc
	// AuthRateLimit throttles the public auth endpoints; nil disables it
	AuthRateLimit gin.HandlerFunc
}

// Shopfront returns the route groups of the storefront API
func Shopfront(h Handlers, g Guards) []RouteRegistrar {
	authn := g.Authenticate
	admin := middleware.RequireRole(identity.RoleAdmin)
	vendorOnly := middleware.RequireRole(identity.RoleVendor)
	fulfilment := middleware.RequireRole(identity.RoleAdmin, identity.RoleVendor)

	authGroup := NewDomainGroup("auth", "/auth")
	if g.AuthRateLimit != nil {
		authGroup.Use(g.AuthRateLimit)
	}
	authGroup.
		POST("/register", h.Auth.Register).
		POST("/login", h.Auth.Login).
		POST("/logout", authn, h.Auth.Logout)

	orders := NewDomainGroup("orders", "/orders").Use(authn).
		POST("", h.Order.CreateOrder).
		GET("", admin, h.Order.ListOrders).
		GET("/myorders", h.Order.ListMyOrders).
		GET("/:id", h.Order.GetOrder).
		PUT("/:id/pay", h.Order.MarkPaid).
		PUT("/:id/deliver", fulfilment, h.Order.MarkDelivered).
		PUT("/:id/cancel", h.Order.CancelOrder)

	vendor := NewDomainGroup("vendor", "/vendor").Use(authn, vendorOnly).
		GET("/orders", h.Vendor.ListOrders).
		PUT("/orders/:orderId/ship", h.Vendor.ShipOrder).
		GET("/dashboard/stats", h.Vendor.DashboardStats).
		GET("/products", h.Vendor.ListProducts).
		PUT("/products/:id", h.Vendor.UpdateProduct)

	cart := NewDomainGroup("cart", "/cart").Use(authn).
		GET("", h.Cart.Get).
		POST("", h.Cart.AddItem).
		DELETE("", h.Cart.Clear).
		PUT("/:lineId", h.Cart.UpdateItem).
		DELETE("/:lineId", h.Cart.RemoveItem)

	adminGroup := NewDomainGroup("admin", "/admin").Use(authn, admin)
	adminGroup.Group("outbox", "/outbox").
		GET("/dead", h.Outbox.ListDead).
		GET("/stats", h.Outbox.Stats).
		POST("/:id/retry", h.Outbox.Retry)

	return []RouteRegistrar{authGroup, orders, vendor, cart, adminGroup}
}

// System mounts the unversioned endpoints: the health probe and, when a
// docs handler is given, the swagger UI behind its access guard
func System(engine *gin.Engine, health *handler.HealthHandler, docs gin.HandlerFunc, docsGuard gin.HandlerFunc) {
	engine.GET("/health", health.Health)
	if docs == nil {
		return
	}
	if docsGuard != nil {
		engine.GET("/swagger/*any", docsGuard, docs)
		return
	}
	engine.GET("/swagger/*any", docs)
}
