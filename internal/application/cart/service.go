package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/cart"
	"github.com/shopfront/backend/internal/domain/catalog"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

var (
	errVariantNotFound    = shared.NewDomainError("VARIANT_NOT_FOUND", "Product variant not found")
	errVariantUnavailable = shared.NewDomainError("PRODUCT_UNAVAILABLE", "Product variant is not available")
	errProductUnavailable = shared.NewDomainError("PRODUCT_UNAVAILABLE", "Product is no longer available")
)

// Service manages the per-user cart
type Service struct {
	carts    cart.Repository
	products catalog.ProductReader
	logger   *zap.Logger
}

// NewService creates the cart service
func NewService(carts cart.Repository, products catalog.ProductReader, log *zap.Logger) *Service {
	return &Service{carts: carts, products: products, logger: log}
}

// Get returns the user's cart. A user without a cart gets an empty one.
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*CartResponse, error) {
	c, err := s.carts.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, cart.ErrCartNotFound) {
			return emptyCart(userID), nil
		}
		return nil, wrap(err)
	}
	return s.respond(ctx, c)
}

// AddItem adds a product to the cart, creating the cart on first use. Adding
// a product and variant already in the cart increments that line.
func (s *Service) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*CartResponse, error) {
	product, err := s.products.FindByID(ctx, input.ProductID)
	if err != nil {
		return nil, wrap(err)
	}
	if !product.IsActive() {
		return nil, errProductUnavailable
	}

	item := cart.AddItem{
		ProductID:  product.ID,
		VariantSKU: input.VariantSKU,
		Quantity:   input.Quantity,
		Size:       input.Size,
		Color:      input.Color,
	}
	if input.VariantSKU != "" {
		v, ok := product.Variant(input.VariantSKU)
		if !ok {
			return nil, errVariantNotFound
		}
		if !v.IsActive() {
			return nil, errVariantUnavailable
		}
		item.VariantSnapshot = v.AttributeMap()
	}

	c, err := s.carts.FindByUser(ctx, userID)
	switch {
	case errors.Is(err, cart.ErrCartNotFound):
		if c, err = cart.NewCart(userID); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, wrap(err)
	}

	line, err := c.Add(item)
	if err != nil {
		return nil, err
	}
	if err := s.carts.Save(ctx, c); err != nil {
		return nil, wrap(err)
	}

	logger.Ctx(ctx, s.logger).Debug("Cart line added",
		zap.String("line_id", line.ID.String()),
		zap.String("product_id", line.ProductID.String()),
		zap.Int("quantity", line.Quantity),
	)
	return s.respond(ctx, c)
}

// UpdateItemQuantity sets the quantity of one line
func (s *Service) UpdateItemQuantity(ctx context.Context, userID, lineID uuid.UUID, quantity int) (*CartResponse, error) {
	return s.mutate(ctx, userID, func(c *cart.Cart) error {
		return c.UpdateQuantity(lineID, quantity)
	})
}

// RemoveItem deletes one line
func (s *Service) RemoveItem(ctx context.Context, userID, lineID uuid.UUID) (*CartResponse, error) {
	return s.mutate(ctx, userID, func(c *cart.Cart) error {
		return c.Remove(lineID)
	})
}

// Clear removes every line of the user's cart
func (s *Service) Clear(ctx context.Context, userID uuid.UUID) (*CartResponse, error) {
	return s.mutate(ctx, userID, func(c *cart.Cart) error {
		c.Clear()
		return nil
	})
}

func (s *Service) mutate(ctx context.Context, userID uuid.UUID, fn func(*cart.Cart) error) (*CartResponse, error) {
	c, err := s.carts.FindByUser(ctx, userID)
	if err != nil {
		return nil, wrap(err)
	}
	if err := fn(c); err != nil {
		return nil, err
	}
	if err := s.carts.Save(ctx, c); err != nil {
		return nil, wrap(err)
	}
	return s.respond(ctx, c)
}

func (s *Service) respond(ctx context.Context, c *cart.Cart) (*CartResponse, error) {
	byID := make(map[uuid.UUID]*catalog.Product)
	if ids := c.ProductIDs(); len(ids) > 0 {
		products, err := s.products.FindByIDs(ctx, ids)
		if err != nil {
			return nil, wrap(err)
		}
		for i := range products {
			byID[products[i].ID] = &products[i]
		}
	}
	return toCartResponse(c, byID), nil
}

func wrap(err error) error {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return err
	}
	return fmt.Errorf("%w: %v", shared.ErrPersistence, err)
}
