package order

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/cart"
	"github.com/shopfront/backend/internal/domain/catalog"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/domain/shared/strategy"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockProductReader struct {
	mock.Mock
}

func (m *mockProductReader) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *mockProductReader) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *mockProductReader) FindIDsByVendor(ctx context.Context, vendorID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, vendorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *mockProductReader) FindByVendor(ctx context.Context, vendorID uuid.UUID, filter shared.Filter) ([]catalog.Product, int64, error) {
	args := m.Called(ctx, vendorID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]catalog.Product), args.Get(1).(int64), args.Error(2)
}

func newTestProduct(t *testing.T, vendorID uuid.UUID, name, price string) *catalog.Product {
	p, err := catalog.NewProduct(vendorID, name, decimal.RequireFromString(price))
	require.NoError(t, err)
	return p
}

func cartLine(productID uuid.UUID, sku string, qty int) cart.Line {
	return cart.Line{ID: uuid.New(), ProductID: productID, VariantSKU: sku, Quantity: qty}
}

func TestPricer_Price(t *testing.T) {
	ctx := context.Background()
	vendorA, vendorB := uuid.New(), uuid.New()
	x := newTestProduct(t, vendorA, "Shirt", "50")
	y := newTestProduct(t, vendorB, "Mug", "30")

	t.Run("prices from catalog with flat fee below threshold", func(t *testing.T) {
		products := new(mockProductReader)
		products.On("FindByIDs", ctx, []uuid.UUID{x.ID, y.ID}).Return([]catalog.Product{*y, *x}, nil)

		// A 150 threshold keeps a 130 subtotal on the paid side.
		pricer := NewPricer(products, strategy.NewThresholdShippingStrategy(decimal.NewFromInt(150), decimal.NewFromInt(10)), "USD")
		o, err := pricer.Price(ctx, CheckoutRequest{UserID: uuid.New(), ShippingAddress: testAddress(t), PaymentMethod: "PayPal"},
			[]cart.Line{cartLine(x.ID, "", 2), cartLine(y.ID, "", 1)})
		require.NoError(t, err)

		assert.True(t, o.Subtotal.Equal(decimal.NewFromInt(130)))
		assert.True(t, o.ShippingCost.Equal(decimal.NewFromInt(10)))
		assert.True(t, o.Total.Equal(decimal.NewFromInt(140)))
		require.Len(t, o.Lines, 2)
		assert.Equal(t, x.ID, o.Lines[0].ProductID)
		assert.Equal(t, vendorA, o.Lines[0].VendorID)
		assert.Equal(t, "Shirt", o.Lines[0].Name)
		assert.Equal(t, y.ID, o.Lines[1].ProductID)
		assert.Equal(t, vendorB, o.Lines[1].VendorID)
		require.NoError(t, o.CheckTotals())
		products.AssertExpectations(t)
	})

	t.Run("default threshold ships 130 for free", func(t *testing.T) {
		products := new(mockProductReader)
		products.On("FindByIDs", ctx, mock.Anything).Return([]catalog.Product{*x, *y}, nil)

		pricer := NewPricer(products, strategy.DefaultThresholdShippingStrategy(), "USD")
		o, err := pricer.Price(ctx, CheckoutRequest{UserID: uuid.New(), ShippingAddress: testAddress(t), PaymentMethod: "PayPal"},
			[]cart.Line{cartLine(x.ID, "", 2), cartLine(y.ID, "", 1)})
		require.NoError(t, err)
		assert.True(t, o.ShippingCost.IsZero())
		assert.True(t, o.Total.Equal(decimal.NewFromInt(130)))
	})

	t.Run("variant price overrides base price", func(t *testing.T) {
		p := newTestProduct(t, vendorA, "Hoodie", "40")
		require.NoError(t, p.UpsertVariant(catalog.Variant{
			SKU:        "HD-L-RED",
			Price:      decimal.NewFromInt(45),
			Attributes: []catalog.Attribute{{Name: "Size", Value: "L"}, {Name: "Color", Value: "Red"}},
		}))
		require.NoError(t, p.UpsertVariant(catalog.Variant{SKU: "HD-M-RED"}))

		products := new(mockProductReader)
		products.On("FindByIDs", ctx, []uuid.UUID{p.ID}).Return([]catalog.Product{*p}, nil)

		pricer := NewPricer(products, strategy.NewFlatRateShippingStrategy(decimal.NewFromInt(5)), "USD")
		o, err := pricer.Price(ctx, CheckoutRequest{UserID: uuid.New(), ShippingAddress: testAddress(t), PaymentMethod: "PayPal"},
			[]cart.Line{cartLine(p.ID, "HD-L-RED", 1), cartLine(p.ID, "HD-M-RED", 1)})
		require.NoError(t, err)

		assert.True(t, o.Lines[0].UnitPrice.Equal(decimal.NewFromInt(45)))
		assert.Equal(t, "L", o.Lines[0].Size)
		assert.Equal(t, "Red", o.Lines[0].Color)
		assert.True(t, o.Lines[1].UnitPrice.Equal(decimal.NewFromInt(40)))
		assert.True(t, o.Subtotal.Equal(decimal.NewFromInt(85)))
		assert.True(t, o.Total.Equal(decimal.NewFromInt(90)))
	})

	t.Run("cart line price fields are ignored", func(t *testing.T) {
		products := new(mockProductReader)
		products.On("FindByIDs", ctx, []uuid.UUID{x.ID}).Return([]catalog.Product{*x}, nil)

		line := cartLine(x.ID, "", 1)
		line.VariantSnapshot = map[string]string{"price": "0.01"}

		pricer := NewPricer(products, strategy.NewFreeShippingStrategy(), "USD")
		o, err := pricer.Price(ctx, CheckoutRequest{UserID: uuid.New(), ShippingAddress: testAddress(t), PaymentMethod: "PayPal"}, []cart.Line{line})
		require.NoError(t, err)
		assert.True(t, o.Lines[0].UnitPrice.Equal(decimal.NewFromInt(50)))
	})

	t.Run("empty cart", func(t *testing.T) {
		pricer := NewPricer(new(mockProductReader), strategy.NewFreeShippingStrategy(), "USD")
		_, err := pricer.Price(ctx, CheckoutRequest{UserID: uuid.New()}, nil)
		assert.ErrorIs(t, err, cart.ErrEmptyCart)
	})

	t.Run("unknown product", func(t *testing.T) {
		products := new(mockProductReader)
		products.On("FindByIDs", ctx, mock.Anything).Return([]catalog.Product{}, nil)

		pricer := NewPricer(products, strategy.NewFreeShippingStrategy(), "USD")
		_, err := pricer.Price(ctx, CheckoutRequest{UserID: uuid.New(), ShippingAddress: testAddress(t), PaymentMethod: "PayPal"},
			[]cart.Line{cartLine(uuid.New(), "", 1)})
		assert.ErrorIs(t, err, ErrProductNotFound)
	})

	t.Run("unknown variant", func(t *testing.T) {
		products := new(mockProductReader)
		products.On("FindByIDs", ctx, mock.Anything).Return([]catalog.Product{*x}, nil)

		pricer := NewPricer(products, strategy.NewFreeShippingStrategy(), "USD")
		_, err := pricer.Price(ctx, CheckoutRequest{UserID: uuid.New(), ShippingAddress: testAddress(t), PaymentMethod: "PayPal"},
			[]cart.Line{cartLine(x.ID, "NOPE", 1)})
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "VARIANT_NOT_FOUND", de.Code)
	})

	t.Run("inactive product", func(t *testing.T) {
		p := newTestProduct(t, vendorA, "Old", "5")
		p.Status = catalog.ProductStatusDiscontinued
		products := new(mockProductReader)
		products.On("FindByIDs", ctx, mock.Anything).Return([]catalog.Product{*p}, nil)

		pricer := NewPricer(products, strategy.NewFreeShippingStrategy(), "USD")
		_, err := pricer.Price(ctx, CheckoutRequest{UserID: uuid.New(), ShippingAddress: testAddress(t), PaymentMethod: "PayPal"},
			[]cart.Line{cartLine(p.ID, "", 1)})
		assert.ErrorIs(t, err, ErrProductUnavailable)
	})

	t.Run("catalog failure is returned", func(t *testing.T) {
		products := new(mockProductReader)
		products.On("FindByIDs", ctx, mock.Anything).Return(nil, errors.New("boom"))

		pricer := NewPricer(products, strategy.NewFreeShippingStrategy(), "USD")
		_, err := pricer.Price(ctx, CheckoutRequest{UserID: uuid.New()}, []cart.Line{cartLine(x.ID, "", 1)})
		assert.EqualError(t, err, "boom")
	})
}

func TestPricer_Build(t *testing.T) {
	ctx := context.Background()
	p := newTestProduct(t, uuid.New(), "Pen", "2.50")
	products := new(mockProductReader)
	products.On("FindByIDs", ctx, []uuid.UUID{p.ID}).Return([]catalog.Product{*p}, nil)

	userID := uuid.New()
	build := NewPricer(products, strategy.NewFreeShippingStrategy(), "USD").
		Build(CheckoutRequest{UserID: userID, ShippingAddress: testAddress(t), PaymentMethod: "Card"})

	o, err := build(ctx, []cart.Line{cartLine(p.ID, "", 4)})
	require.NoError(t, err)
	assert.Equal(t, userID, o.UserID)
	assert.True(t, o.Total.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, "Card", o.Payment.Method)
}
