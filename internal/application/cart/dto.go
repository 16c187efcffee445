package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/cart"
	"github.com/shopfront/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// AddItemInput is an add-to-cart request
type AddItemInput struct {
	ProductID  uuid.UUID
	VariantSKU string
	Quantity   int
	// Size and Color are accepted from clients that predate variant SKUs
	Size  string
	Color string
}

// CartResponse is the cart with current catalog details. Prices shown here
// are informational; checkout reprices every line.
type CartResponse struct {
	ID        uuid.UUID          `json:"id,omitempty"`
	UserID    uuid.UUID          `json:"user_id"`
	Lines     []CartLineResponse `json:"items"`
	ItemCount int                `json:"item_count"`
	Subtotal  decimal.Decimal    `json:"subtotal"`
	UpdatedAt *time.Time         `json:"updated_at,omitempty"`
}

// CartLineResponse is one cart line
type CartLineResponse struct {
	ID              uuid.UUID         `json:"id"`
	ProductID       uuid.UUID         `json:"product_id"`
	VariantSKU      string            `json:"variant_sku,omitempty"`
	Quantity        int               `json:"qty"`
	Size            string            `json:"size,omitempty"`
	Color           string            `json:"color,omitempty"`
	VariantSnapshot map[string]string `json:"variant,omitempty"`
	Name            string            `json:"name"`
	ImageURL        string            `json:"image,omitempty"`
	UnitPrice       decimal.Decimal   `json:"price"`
	// Available is false when the product was removed, deactivated or the
	// variant no longer exists; such lines fail checkout
	Available bool      `json:"available"`
	AddedAt   time.Time `json:"added_at"`
}

func emptyCart(userID uuid.UUID) *CartResponse {
	return &CartResponse{
		UserID:   userID,
		Lines:    []CartLineResponse{},
		Subtotal: decimal.Zero,
	}
}

func toCartResponse(c *cart.Cart, products map[uuid.UUID]*catalog.Product) *CartResponse {
	resp := emptyCart(c.UserID)
	resp.ID = c.ID
	updated := c.UpdatedAt
	resp.UpdatedAt = &updated
	resp.ItemCount = c.ItemCount()

	for _, l := range c.Lines {
		line := CartLineResponse{
			ID:              l.ID,
			ProductID:       l.ProductID,
			VariantSKU:      l.VariantSKU,
			Quantity:        l.Quantity,
			Size:            l.Size,
			Color:           l.Color,
			VariantSnapshot: l.VariantSnapshot,
			UnitPrice:       decimal.Zero,
			AddedAt:         l.AddedAt,
		}
		if p, ok := products[l.ProductID]; ok {
			line.Name = p.Name
			line.ImageURL = p.ImageURL
			if price, err := p.PriceFor(l.VariantSKU); err == nil && p.IsActive() {
				line.UnitPrice = price
				line.Available = true
				resp.Subtotal = resp.Subtotal.Add(price.Mul(decimal.NewFromInt(int64(l.Quantity))))
			}
		}
		resp.Lines = append(resp.Lines, line)
	}
	return resp
}
