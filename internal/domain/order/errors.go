package order

import (
	"github.com/shopfront/backend/internal/domain/catalog"
	"github.com/shopfront/backend/internal/domain/shared"
)

var (
	// ErrOrderNotFound is returned when no order has the requested ID
	ErrOrderNotFound = shared.NewDomainError("ORDER_NOT_FOUND", "Order not found")
	// ErrLineNotFound is returned when the order has no line for a product
	ErrLineNotFound = shared.NewDomainError("ORDER_LINE_NOT_FOUND", "Product not found in this order")
	// ErrNotPaid blocks shipment of unpaid orders
	ErrNotPaid = shared.NewDomainError("ORDER_NOT_PAID", "Order must be paid before it can be shipped")
	// ErrProductNotFound is returned when a cart or shipment names an unknown product
	ErrProductNotFound = catalog.ErrProductNotFound
)
