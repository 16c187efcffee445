package order

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/cart"
	"github.com/shopfront/backend/internal/domain/catalog"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/domain/shared/strategy"
	"github.com/shopfront/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// ErrProductUnavailable is returned when a cart line points at a product that
// can no longer be bought
var ErrProductUnavailable = shared.NewDomainError("PRODUCT_UNAVAILABLE", "Product is no longer available")

// CheckoutRequest carries the buyer supplied part of an order
type CheckoutRequest struct {
	UserID          uuid.UUID
	ShippingAddress valueobject.ShippingAddress
	PaymentMethod   string
}

// Pricer builds orders from claimed cart lines. Unit prices always come from
// the catalog at checkout time; nothing stored on the cart line is trusted.
type Pricer struct {
	products catalog.ProductReader
	shipping strategy.ShippingStrategy
	currency string
	now      func() time.Time
}

// NewPricer creates a pricer
func NewPricer(products catalog.ProductReader, shipping strategy.ShippingStrategy, currency string) *Pricer {
	return &Pricer{
		products: products,
		shipping: shipping,
		currency: currency,
		now:      time.Now,
	}
}

// Build returns a BuildFunc bound to req, suitable for CheckoutStore.PlaceOrder
func (p *Pricer) Build(req CheckoutRequest) BuildFunc {
	return func(ctx context.Context, lines []cart.Line) (*Order, error) {
		return p.Price(ctx, req, lines)
	}
}

// Price resolves every cart line against the catalog and assembles a pending
// order with its shipping cost.
func (p *Pricer) Price(ctx context.Context, req CheckoutRequest, lines []cart.Line) (*Order, error) {
	if len(lines) == 0 {
		return nil, cart.ErrEmptyCart
	}

	products, err := p.loadProducts(ctx, lines)
	if err != nil {
		return nil, err
	}

	orderLines := make([]Line, 0, len(lines))
	subtotal := decimal.Zero
	items := 0
	for _, cl := range lines {
		product, ok := products[cl.ProductID]
		if !ok {
			return nil, ErrProductNotFound
		}
		if !product.IsActive() {
			return nil, ErrProductUnavailable
		}
		unitPrice, err := product.PriceFor(cl.VariantSKU)
		if err != nil {
			return nil, err
		}

		size, color := cl.Size, cl.Color
		if v, ok := product.Variant(cl.VariantSKU); ok {
			if s, found := v.Attribute("size"); found && size == "" {
				size = s
			}
			if c, found := v.Attribute("color"); found && color == "" {
				color = c
			}
		}

		line, err := NewLine(LineInput{
			ProductID:  product.ID,
			VendorID:   product.VendorID,
			VariantSKU: cl.VariantSKU,
			Name:       product.Name,
			ImageURL:   product.ImageURL,
			Size:       size,
			Color:      color,
			Quantity:   cl.Quantity,
			UnitPrice:  unitPrice,
		})
		if err != nil {
			return nil, err
		}
		orderLines = append(orderLines, line)
		subtotal = subtotal.Add(line.Amount)
		items += line.Quantity
	}

	quote, err := p.shipping.CalculateShipping(ctx, strategy.ShippingContext{
		UserID:    req.UserID.String(),
		Subtotal:  subtotal,
		ItemCount: items,
		Currency:  p.currency,
	})
	if err != nil {
		return nil, fmt.Errorf("calculate shipping: %w", err)
	}

	return NewOrder(NewOrderNumber(p.now()), req.UserID, req.ShippingAddress, req.PaymentMethod, orderLines, quote.Cost)
}

func (p *Pricer) loadProducts(ctx context.Context, lines []cart.Line) (map[uuid.UUID]*catalog.Product, error) {
	ids := make([]uuid.UUID, 0, len(lines))
	seen := make(map[uuid.UUID]struct{}, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.ProductID]; ok {
			continue
		}
		seen[l.ProductID] = struct{}{}
		ids = append(ids, l.ProductID)
	}

	found, err := p.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*catalog.Product, len(found))
	for i := range found {
		byID[found[i].ID] = &found[i]
	}
	return byID, nil
}
