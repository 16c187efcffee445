package cart

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for cart persistence
type Repository interface {
	// FindByUser returns the user's cart or ErrCartNotFound
	FindByUser(ctx context.Context, userID uuid.UUID) (*Cart, error)

	// Save inserts a new cart, or replaces the lines of a stored one when its
	// version still matches. A stale or vanished stored cart yields
	// shared.ErrConcurrencyConflict.
	Save(ctx context.Context, cart *Cart) error

	// Delete removes the user's cart and its lines
	Delete(ctx context.Context, userID uuid.UUID) error
}
