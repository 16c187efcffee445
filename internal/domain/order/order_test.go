package order

import (
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAddress(t *testing.T) valueobject.ShippingAddress {
	addr, err := valueobject.NewShippingAddress("Jane Doe", "1 Main St", "Springfield", "12345", "US")
	require.NoError(t, err)
	return addr
}

func testLine(t *testing.T, productID, vendorID uuid.UUID, qty int, price string) Line {
	l, err := NewLine(LineInput{
		ProductID: productID,
		VendorID:  vendorID,
		Name:      "Item",
		Quantity:  qty,
		UnitPrice: decimal.RequireFromString(price),
	})
	require.NoError(t, err)
	return l
}

func createTestOrder(t *testing.T, lines ...Line) *Order {
	if len(lines) == 0 {
		lines = []Line{testLine(t, uuid.New(), uuid.New(), 1, "10")}
	}
	o, err := NewOrder("ORD-20240101-ABCDEF12", uuid.New(), testAddress(t), "PayPal", lines, decimal.NewFromInt(10))
	require.NoError(t, err)
	return o
}

// ============================================
// Status Tests
// ============================================

func TestStatus_IsValid(t *testing.T) {
	tests := []struct {
		status  Status
		isValid bool
	}{
		{StatusPending, true},
		{StatusPartiallyShipped, true},
		{StatusShipped, true},
		{StatusDelivered, true},
		{StatusCancelled, true},
		{Status("processing"), false},
		{Status(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.isValid, tt.status.IsValid())
		})
	}
}

func TestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		ok   bool
	}{
		{StatusPending, StatusPartiallyShipped, true},
		{StatusPending, StatusShipped, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusDelivered, false},
		{StatusPartiallyShipped, StatusShipped, true},
		{StatusPartiallyShipped, StatusCancelled, false},
		{StatusPartiallyShipped, StatusDelivered, false},
		{StatusShipped, StatusDelivered, true},
		{StatusShipped, StatusCancelled, false},
		{StatusDelivered, StatusPending, false},
		{StatusCancelled, StatusPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.ok, tt.from.CanTransitionTo(tt.to))
		})
	}
}

// ============================================
// Creation Tests
// ============================================

func TestNewLine(t *testing.T) {
	t.Run("computes amount", func(t *testing.T) {
		l := testLine(t, uuid.New(), uuid.New(), 3, "19.99")
		assert.True(t, l.Amount.Equal(decimal.RequireFromString("59.97")))
		assert.Equal(t, ShipmentPending, l.ShipmentStatus)
		assert.Nil(t, l.ShippedAt)
	})

	t.Run("rejects zero quantity", func(t *testing.T) {
		_, err := NewLine(LineInput{ProductID: uuid.New(), VendorID: uuid.New(), Quantity: 0, UnitPrice: decimal.NewFromInt(1)})
		require.Error(t, err)
	})

	t.Run("rejects negative price", func(t *testing.T) {
		_, err := NewLine(LineInput{ProductID: uuid.New(), VendorID: uuid.New(), Quantity: 1, UnitPrice: decimal.NewFromInt(-1)})
		require.Error(t, err)
	})

	t.Run("rejects missing vendor", func(t *testing.T) {
		_, err := NewLine(LineInput{ProductID: uuid.New(), Quantity: 1, UnitPrice: decimal.NewFromInt(1)})
		require.Error(t, err)
	})
}

func TestNewOrder(t *testing.T) {
	x := testLine(t, uuid.New(), uuid.New(), 2, "50")
	y := testLine(t, uuid.New(), uuid.New(), 1, "30")

	o, err := NewOrder("ORD-1", uuid.New(), testAddress(t), "PayPal", []Line{x, y}, decimal.NewFromInt(10))
	require.NoError(t, err)

	assert.True(t, o.Subtotal.Equal(decimal.NewFromInt(130)))
	assert.True(t, o.ShippingCost.Equal(decimal.NewFromInt(10)))
	assert.True(t, o.Total.Equal(decimal.NewFromInt(140)))
	assert.True(t, o.Tax.IsZero())
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, PaymentStatusPending, o.Payment.Status)
	assert.False(t, o.IsPaid())
	assert.Equal(t, x.ID, o.Lines[0].ID)
	assert.Equal(t, y.ID, o.Lines[1].ID)
	assert.Equal(t, 3, o.ItemCount())
	require.NoError(t, o.CheckTotals())

	events := o.PendingEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventTypeOrderPlaced, events[0].EventType())
	placed := events[0].(*OrderPlacedEvent)
	assert.Len(t, placed.Lines, 2)
	assert.True(t, placed.Total.Equal(decimal.NewFromInt(140)))
}

func TestNewOrder_Validation(t *testing.T) {
	line := testLine(t, uuid.New(), uuid.New(), 1, "10")

	tests := []struct {
		name    string
		number  string
		user    uuid.UUID
		addr    valueobject.ShippingAddress
		method  string
		lines   []Line
		ship    decimal.Decimal
		errCode string
	}{
		{"empty lines", "ORD-1", uuid.New(), testAddress(t), "PayPal", nil, decimal.Zero, "EMPTY_CART"},
		{"missing number", "", uuid.New(), testAddress(t), "PayPal", []Line{line}, decimal.Zero, "INVALID_ORDER_NUMBER"},
		{"missing user", "ORD-1", uuid.Nil, testAddress(t), "PayPal", []Line{line}, decimal.Zero, "INVALID_USER"},
		{"missing address", "ORD-1", uuid.New(), valueobject.ShippingAddress{}, "PayPal", []Line{line}, decimal.Zero, "VALIDATION_FAILED"},
		{"missing payment method", "ORD-1", uuid.New(), testAddress(t), " ", []Line{line}, decimal.Zero, "VALIDATION_FAILED"},
		{"negative shipping", "ORD-1", uuid.New(), testAddress(t), "PayPal", []Line{line}, decimal.NewFromInt(-1), "INVALID_AMOUNT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewOrder(tt.number, tt.user, tt.addr, tt.method, tt.lines, tt.ship)
			require.Error(t, err)
			var de *shared.DomainError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.errCode, de.Code)
		})
	}
}

func TestNewOrderNumber(t *testing.T) {
	now := time.Date(2024, 3, 9, 23, 0, 0, 0, time.UTC)
	n := NewOrderNumber(now)
	assert.Regexp(t, regexp.MustCompile(`^ORD-20240309-[0-9A-F]{8}$`), n)
	assert.NotEqual(t, n, NewOrderNumber(now))
}

// ============================================
// Payment Tests
// ============================================

func TestOrder_MarkPaid(t *testing.T) {
	t.Run("first payment stamps PaidAt", func(t *testing.T) {
		o := createTestOrder(t)
		o.ClearEvents()

		changed, err := o.MarkPaid(PaymentResult{ID: "PAY-1", Status: "COMPLETED"})
		require.NoError(t, err)
		assert.True(t, changed)
		assert.True(t, o.IsPaid())
		require.NotNil(t, o.Payment.PaidAt)
		assert.Equal(t, "PAY-1", o.Payment.Result.ID)
		require.Len(t, o.PendingEvents(), 1)
		assert.Equal(t, EventTypeOrderPaid, o.PendingEvents()[0].EventType())
	})

	t.Run("second payment is a no-op", func(t *testing.T) {
		o := createTestOrder(t)
		_, err := o.MarkPaid(PaymentResult{ID: "PAY-1"})
		require.NoError(t, err)
		paidAt := *o.Payment.PaidAt
		o.ClearEvents()

		changed, err := o.MarkPaid(PaymentResult{ID: "PAY-2"})
		require.NoError(t, err)
		assert.False(t, changed)
		assert.Equal(t, paidAt, *o.Payment.PaidAt)
		assert.Equal(t, "PAY-1", o.Payment.Result.ID)
		assert.Empty(t, o.PendingEvents())
	})

	t.Run("cancelled order cannot be paid", func(t *testing.T) {
		o := createTestOrder(t)
		_, err := o.Cancel("changed my mind")
		require.NoError(t, err)

		_, err = o.MarkPaid(PaymentResult{})
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})
}

// ============================================
// Shipment Tests
// ============================================

func TestOrder_ShipProduct(t *testing.T) {
	vendorA, vendorB := uuid.New(), uuid.New()
	productA, productB := uuid.New(), uuid.New()

	newOrder := func(t *testing.T) *Order {
		o := createTestOrder(t,
			testLine(t, productA, vendorA, 1, "10"),
			testLine(t, productB, vendorB, 2, "20"),
		)
		_, err := o.MarkPaid(PaymentResult{ID: "PAY"})
		require.NoError(t, err)
		o.ClearEvents()
		return o
	}

	t.Run("partial then full shipment derives status", func(t *testing.T) {
		o := newOrder(t)

		changed, err := o.ShipProduct(vendorA, productA, true)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, StatusPartiallyShipped, o.Status)
		assert.True(t, o.Lines[0].IsShipped())
		assert.False(t, o.Lines[1].IsShipped())

		changed, err = o.ShipProduct(vendorB, productB, true)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, StatusShipped, o.Status)
		assert.Len(t, o.PendingEvents(), 2)
	})

	t.Run("re-shipping is a no-op", func(t *testing.T) {
		o := newOrder(t)
		_, err := o.ShipProduct(vendorA, productA, true)
		require.NoError(t, err)
		shippedAt := *o.Lines[0].ShippedAt

		changed, err := o.ShipProduct(vendorA, productA, true)
		require.NoError(t, err)
		assert.False(t, changed)
		assert.Equal(t, shippedAt, *o.Lines[0].ShippedAt)
		assert.Equal(t, StatusPartiallyShipped, o.Status)
	})

	t.Run("other vendor's product is rejected and order unchanged", func(t *testing.T) {
		o := newOrder(t)
		version := o.Version

		_, err := o.ShipProduct(vendorB, productA, true)
		assert.ErrorIs(t, err, shared.ErrNotAuthorized)
		assert.False(t, o.Lines[0].IsShipped())
		assert.Equal(t, StatusPending, o.Status)
		assert.Equal(t, version, o.Version)
		assert.Empty(t, o.PendingEvents())
	})

	t.Run("product not in order", func(t *testing.T) {
		o := newOrder(t)
		_, err := o.ShipProduct(vendorA, uuid.New(), true)
		assert.ErrorIs(t, err, ErrLineNotFound)
	})

	t.Run("unpaid order blocked when payment required", func(t *testing.T) {
		o := createTestOrder(t, testLine(t, productA, vendorA, 1, "10"))
		_, err := o.ShipProduct(vendorA, productA, true)
		assert.ErrorIs(t, err, ErrNotPaid)
		assert.False(t, o.Lines[0].IsShipped())
	})

	t.Run("unpaid order allowed when payment not required", func(t *testing.T) {
		o := createTestOrder(t, testLine(t, productA, vendorA, 1, "10"))
		changed, err := o.ShipProduct(vendorA, productA, false)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, StatusShipped, o.Status)
	})

	t.Run("every line of the product is shipped", func(t *testing.T) {
		o := createTestOrder(t,
			testLine(t, productA, vendorA, 1, "10"),
			testLine(t, productA, vendorA, 2, "12"),
		)
		changed, err := o.ShipProduct(vendorA, productA, false)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.True(t, o.Lines[0].IsShipped())
		assert.True(t, o.Lines[1].IsShipped())
		assert.Equal(t, StatusShipped, o.Status)
	})

	t.Run("cancelled order cannot ship", func(t *testing.T) {
		o := createTestOrder(t, testLine(t, productA, vendorA, 1, "10"))
		_, err := o.Cancel("")
		require.NoError(t, err)
		_, err = o.ShipProduct(vendorA, productA, false)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})
}

// ============================================
// Delivery and Cancellation Tests
// ============================================

func TestOrder_MarkDelivered(t *testing.T) {
	vendor, product := uuid.New(), uuid.New()

	t.Run("from shipped", func(t *testing.T) {
		o := createTestOrder(t, testLine(t, product, vendor, 1, "10"))
		_, err := o.ShipProduct(vendor, product, false)
		require.NoError(t, err)

		changed, err := o.MarkDelivered()
		require.NoError(t, err)
		assert.True(t, changed)
		assert.True(t, o.IsDelivered())
		assert.NotNil(t, o.DeliveredAt)

		changed, err = o.MarkDelivered()
		require.NoError(t, err)
		assert.False(t, changed)
	})

	t.Run("pending is rejected", func(t *testing.T) {
		o := createTestOrder(t, testLine(t, product, vendor, 1, "10"))
		_, err := o.MarkDelivered()
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})

	t.Run("partially shipped is rejected", func(t *testing.T) {
		o := createTestOrder(t,
			testLine(t, product, vendor, 1, "10"),
			testLine(t, uuid.New(), vendor, 1, "10"),
		)
		_, err := o.ShipProduct(vendor, product, false)
		require.NoError(t, err)
		_, err = o.MarkDelivered()
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})
}

func TestOrder_Cancel(t *testing.T) {
	vendor, product := uuid.New(), uuid.New()

	t.Run("pending order", func(t *testing.T) {
		o := createTestOrder(t)
		changed, err := o.Cancel("  duplicate  ")
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, StatusCancelled, o.Status)
		assert.Equal(t, "duplicate", o.CancelReason)
		assert.NotNil(t, o.CancelledAt)

		changed, err = o.Cancel("again")
		require.NoError(t, err)
		assert.False(t, changed)
		assert.Equal(t, "duplicate", o.CancelReason)
	})

	t.Run("shipped line blocks cancel", func(t *testing.T) {
		o := createTestOrder(t,
			testLine(t, product, vendor, 1, "10"),
			testLine(t, uuid.New(), vendor, 1, "10"),
		)
		_, err := o.ShipProduct(vendor, product, false)
		require.NoError(t, err)
		_, err = o.Cancel("")
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})
}

func TestOrder_CheckTotals(t *testing.T) {
	o := createTestOrder(t, testLine(t, uuid.New(), uuid.New(), 2, "50"))
	require.NoError(t, o.CheckTotals())

	o.Total = o.Total.Add(decimal.NewFromInt(1))
	assert.Error(t, o.CheckTotals())
}

func TestPaymentResult_JSON(t *testing.T) {
	raw, err := json.Marshal(PaymentResult{
		ID:           "PAY-1",
		Status:       "COMPLETED",
		UpdateTime:   "2026-01-02T10:00:00Z",
		EmailAddress: "ada@example.com",
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": "PAY-1",
		"status": "COMPLETED",
		"update_time": "2026-01-02T10:00:00Z",
		"email_address": "ada@example.com"
	}`, string(raw))
}
