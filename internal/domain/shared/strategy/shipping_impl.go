package strategy

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// Shipping strategy names
const (
	ShippingThreshold = "threshold"
	ShippingFlatRate  = "flat_rate"
	ShippingFree      = "free"
)

var (
	// DefaultFreeShippingThreshold is the subtotal above which shipping is free
	DefaultFreeShippingThreshold = decimal.NewFromInt(100)
	// DefaultFlatShippingFee is charged when the threshold is not exceeded
	DefaultFlatShippingFee = decimal.NewFromInt(10)
)

var errNegativeSubtotal = errors.New("subtotal cannot be negative")

// ThresholdShippingStrategy ships free when the subtotal is strictly above
// the threshold and charges a flat fee otherwise.
type ThresholdShippingStrategy struct {
	label
	threshold decimal.Decimal
	fee       decimal.Decimal
}

// NewThresholdShippingStrategy creates a threshold strategy
func NewThresholdShippingStrategy(threshold, fee decimal.Decimal) *ThresholdShippingStrategy {
	return &ThresholdShippingStrategy{
		label:     label{ShippingThreshold, "Free shipping above a subtotal threshold, flat fee otherwise"},
		threshold: threshold,
		fee:       fee,
	}
}

// DefaultThresholdShippingStrategy uses the default threshold and fee
func DefaultThresholdShippingStrategy() *ThresholdShippingStrategy {
	return NewThresholdShippingStrategy(DefaultFreeShippingThreshold, DefaultFlatShippingFee)
}

// Threshold returns the free-shipping threshold
func (s *ThresholdShippingStrategy) Threshold() decimal.Decimal {
	return s.threshold
}

// Fee returns the flat fee
func (s *ThresholdShippingStrategy) Fee() decimal.Decimal {
	return s.fee
}

// CalculateShipping implements ShippingStrategy
func (s *ThresholdShippingStrategy) CalculateShipping(ctx context.Context, shippingCtx ShippingContext) (ShippingQuote, error) {
	if shippingCtx.Subtotal.IsNegative() {
		return ShippingQuote{}, errNegativeSubtotal
	}
	if shippingCtx.Subtotal.GreaterThan(s.threshold) {
		return ShippingQuote{Cost: decimal.Zero, AppliedRule: "free_above_threshold"}, nil
	}
	return ShippingQuote{Cost: s.fee, AppliedRule: "flat_fee_below_threshold"}, nil
}

// FlatRateShippingStrategy always charges the same fee
type FlatRateShippingStrategy struct {
	label
	fee decimal.Decimal
}

// NewFlatRateShippingStrategy creates a flat rate strategy
func NewFlatRateShippingStrategy(fee decimal.Decimal) *FlatRateShippingStrategy {
	return &FlatRateShippingStrategy{
		label: label{ShippingFlatRate, "Flat fee on every order"},
		fee:   fee,
	}
}

// CalculateShipping implements ShippingStrategy
func (s *FlatRateShippingStrategy) CalculateShipping(ctx context.Context, shippingCtx ShippingContext) (ShippingQuote, error) {
	if shippingCtx.Subtotal.IsNegative() {
		return ShippingQuote{}, errNegativeSubtotal
	}
	return ShippingQuote{Cost: s.fee, AppliedRule: "flat_fee"}, nil
}

// FreeShippingStrategy never charges for shipping
type FreeShippingStrategy struct {
	label
}

// NewFreeShippingStrategy creates a free shipping strategy
func NewFreeShippingStrategy() *FreeShippingStrategy {
	return &FreeShippingStrategy{
		label: label{ShippingFree, "Shipping is always free"},
	}
}

// CalculateShipping implements ShippingStrategy
func (s *FreeShippingStrategy) CalculateShipping(ctx context.Context, shippingCtx ShippingContext) (ShippingQuote, error) {
	return ShippingQuote{Cost: decimal.Zero, AppliedRule: "free"}, nil
}

var (
	_ ShippingStrategy = (*ThresholdShippingStrategy)(nil)
	_ ShippingStrategy = (*FlatRateShippingStrategy)(nil)
	_ ShippingStrategy = (*FreeShippingStrategy)(nil)
)
