package order

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/cart"
	"github.com/shopfront/backend/internal/domain/shared"
)

// Repository defines the interface for order persistence.
// Orders are never deleted.
type Repository interface {
	// FindByID finds an order with its lines, or returns ErrOrderNotFound
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByUser returns a page of the user's orders, newest first
	FindByUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]Order, int64, error)

	// FindAll returns a page of every order, newest first
	FindAll(ctx context.Context, filter shared.Filter) ([]Order, int64, error)

	// FindByProducts returns a page of orders containing any of the products,
	// newest first. Orders carry all their lines.
	FindByProducts(ctx context.Context, productIDs []uuid.UUID, filter shared.Filter) ([]Order, int64, error)

	// FindByProductsSince returns every order containing any of the products
	// created at or after since. A nil since means no lower bound.
	FindByProductsSince(ctx context.Context, productIDs []uuid.UUID, since *time.Time) ([]Order, error)

	// SaveWithLock persists status, payment and line shipment changes guarded
	// by the version column. Pending domain events are written to the outbox in
	// the same transaction. Returns shared.ErrConcurrencyConflict when the
	// stored version moved.
	SaveWithLock(ctx context.Context, order *Order) error
}

// BuildFunc prices the claimed cart lines into an order
type BuildFunc func(ctx context.Context, lines []cart.Line) (*Order, error)

// CheckoutStore turns a cart into an order atomically
type CheckoutStore interface {
	// PlaceOrder claims the user's cart lines, calls build with them and
	// persists the resulting order and its events in one transaction. A cart
	// with no lines left to claim yields cart.ErrEmptyCart.
	PlaceOrder(ctx context.Context, userID uuid.UUID, build BuildFunc) (*Order, error)
}
