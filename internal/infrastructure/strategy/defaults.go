package strategy

import (
	"github.com/shopfront/backend/internal/domain/shared/strategy"
	"github.com/shopspring/decimal"
)

// ShippingSettings configures the built-in shipping strategies
type ShippingSettings struct {
	Default               string
	FreeShippingThreshold decimal.Decimal
	FlatFee               decimal.Decimal
}

// NewRegistryWithDefaults registers threshold, flat_rate and free and
// selects settings.Default, threshold when empty.
func NewRegistryWithDefaults(settings ShippingSettings) (*Registry, error) {
	r := NewRegistry()
	for _, s := range []strategy.ShippingStrategy{
		strategy.NewThresholdShippingStrategy(settings.FreeShippingThreshold, settings.FlatFee),
		strategy.NewFlatRateShippingStrategy(settings.FlatFee),
		strategy.NewFreeShippingStrategy(),
	} {
		if err := r.Register(s); err != nil {
			return nil, err
		}
	}

	name := settings.Default
	if name == "" {
		name = strategy.ShippingThreshold
	}
	if err := r.UseDefault(name); err != nil {
		return nil, err
	}
	return r, nil
}
