package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeOrder = "Order"

// Event type constants
const (
	EventTypeOrderPlaced      = "OrderPlaced"
	EventTypeOrderPaid        = "OrderPaid"
	EventTypeOrderLineShipped = "OrderLineShipped"
	EventTypeOrderDelivered   = "OrderDelivered"
	EventTypeOrderCancelled   = "OrderCancelled"
)

// LineInfo represents line information for events
type LineInfo struct {
	LineID    uuid.UUID       `json:"line_id"`
	ProductID uuid.UUID       `json:"product_id"`
	VendorID  uuid.UUID       `json:"vendor_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Amount    decimal.Decimal `json:"amount"`
}

// OrderPlacedEvent is raised when checkout turns a cart into an order
type OrderPlacedEvent struct {
	shared.BaseDomainEvent
	OrderID      uuid.UUID       `json:"order_id"`
	OrderNumber  string          `json:"order_number"`
	UserID       uuid.UUID       `json:"user_id"`
	Lines        []LineInfo      `json:"lines"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	ShippingCost decimal.Decimal `json:"shipping_cost"`
	Total        decimal.Decimal `json:"total"`
}

// NewOrderPlacedEvent creates a new OrderPlacedEvent
func NewOrderPlacedEvent(o *Order) *OrderPlacedEvent {
	lines := make([]LineInfo, len(o.Lines))
	for i, l := range o.Lines {
		lines[i] = LineInfo{
			LineID:    l.ID,
			ProductID: l.ProductID,
			VendorID:  l.VendorID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Amount:    l.Amount,
		}
	}
	return &OrderPlacedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderPlaced, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		UserID:          o.UserID,
		Lines:           lines,
		Subtotal:        o.Subtotal,
		ShippingCost:    o.ShippingCost,
		Total:           o.Total,
	}
}

// OrderPaidEvent is raised the first time an order is marked paid
type OrderPaidEvent struct {
	shared.BaseDomainEvent
	OrderID   uuid.UUID       `json:"order_id"`
	UserID    uuid.UUID       `json:"user_id"`
	Total     decimal.Decimal `json:"total"`
	PaymentID string          `json:"payment_id,omitempty"`
	PaidAt    time.Time       `json:"paid_at"`
}

// NewOrderPaidEvent creates a new OrderPaidEvent
func NewOrderPaidEvent(o *Order) *OrderPaidEvent {
	e := &OrderPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderPaid, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		UserID:          o.UserID,
		Total:           o.Total,
	}
	if o.Payment.PaidAt != nil {
		e.PaidAt = *o.Payment.PaidAt
	}
	if o.Payment.Result != nil {
		e.PaymentID = o.Payment.Result.ID
	}
	return e
}

// OrderLineShippedEvent is raised when a vendor ships the lines of a product
type OrderLineShippedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID   `json:"order_id"`
	VendorID    uuid.UUID   `json:"vendor_id"`
	ProductID   uuid.UUID   `json:"product_id"`
	LineIDs     []uuid.UUID `json:"line_ids"`
	OrderStatus Status      `json:"order_status"`
}

// NewOrderLineShippedEvent creates a new OrderLineShippedEvent
func NewOrderLineShippedEvent(o *Order, vendorID, productID uuid.UUID, lineIDs []uuid.UUID) *OrderLineShippedEvent {
	return &OrderLineShippedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderLineShipped, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		VendorID:        vendorID,
		ProductID:       productID,
		LineIDs:         lineIDs,
		OrderStatus:     o.Status,
	}
}

// OrderDeliveredEvent is raised when an order reaches its terminal delivered state
type OrderDeliveredEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID `json:"order_id"`
	UserID      uuid.UUID `json:"user_id"`
	DeliveredAt time.Time `json:"delivered_at"`
}

// NewOrderDeliveredEvent creates a new OrderDeliveredEvent
func NewOrderDeliveredEvent(o *Order) *OrderDeliveredEvent {
	e := &OrderDeliveredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderDelivered, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		UserID:          o.UserID,
	}
	if o.DeliveredAt != nil {
		e.DeliveredAt = *o.DeliveredAt
	}
	return e
}

// OrderCancelledEvent is raised when a pending order is cancelled
type OrderCancelledEvent struct {
	shared.BaseDomainEvent
	OrderID      uuid.UUID `json:"order_id"`
	UserID       uuid.UUID `json:"user_id"`
	CancelReason string    `json:"cancel_reason,omitempty"`
	WasPaid      bool      `json:"was_paid"`
}

// NewOrderCancelledEvent creates a new OrderCancelledEvent
func NewOrderCancelledEvent(o *Order) *OrderCancelledEvent {
	return &OrderCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCancelled, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		UserID:          o.UserID,
		CancelReason:    o.CancelReason,
		WasPaid:         o.IsPaid(),
	}
}
