package cart

import "github.com/shopfront/backend/internal/domain/shared"

var (
	// ErrCartNotFound is returned when the user has no cart
	ErrCartNotFound = shared.NewDomainError("CART_NOT_FOUND", "Cart not found")
	// ErrLineNotFound is returned for an unknown cart line
	ErrLineNotFound = shared.NewDomainError("CART_LINE_NOT_FOUND", "Cart item not found")
	// ErrEmptyCart is returned when checking out a cart without lines
	ErrEmptyCart = shared.NewDomainError("EMPTY_CART", "Cart is empty. Cannot create an order.")
)
