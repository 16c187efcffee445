// Package strategy holds the pluggable pricing policies used at checkout.
package strategy

import (
	"context"

	"github.com/shopspring/decimal"
)

// ShippingContext carries the order facts a shipping policy may look at
type ShippingContext struct {
	UserID    string
	Subtotal  decimal.Decimal
	ItemCount int
	Currency  string
}

// ShippingQuote is the outcome of a shipping calculation
type ShippingQuote struct {
	Cost        decimal.Decimal
	AppliedRule string
}

// ShippingStrategy computes the shipping cost of an order
type ShippingStrategy interface {
	Name() string
	Description() string
	CalculateShipping(ctx context.Context, shippingCtx ShippingContext) (ShippingQuote, error)
}

// label names a policy for registries and logs
type label struct {
	name, description string
}

func (l label) Name() string        { return l.name }
func (l label) Description() string { return l.description }
