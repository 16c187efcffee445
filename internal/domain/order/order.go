package order

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Status represents the fulfillment status of an order
type Status string

const (
	StatusPending          Status = "pending"
	StatusPartiallyShipped Status = "partially_shipped"
	StatusShipped          Status = "shipped"
	StatusDelivered        Status = "delivered"
	StatusCancelled        Status = "cancelled"
)

// IsValid checks if the status is a valid Status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusPartiallyShipped, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether no further transition is possible
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransitionTo checks if the status can transition to the target status.
// Shipping statuses are derived from the lines, so the table allows jumping
// from pending straight to shipped when a single product covers every line.
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusPending:
		return target == StatusPartiallyShipped || target == StatusShipped || target == StatusCancelled
	case StatusPartiallyShipped:
		return target == StatusShipped
	case StatusShipped:
		return target == StatusDelivered
	}
	return false
}

// PaymentStatus is the payment axis of an order, independent of fulfillment
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "Pending"
	PaymentStatusPaid    PaymentStatus = "Paid"
)

// ShipmentStatus is the per-line fulfillment state
type ShipmentStatus string

const (
	ShipmentPending ShipmentStatus = "pending"
	ShipmentShipped ShipmentStatus = "shipped"
)

// PaymentResult is the opaque confirmation returned by the payment provider
type PaymentResult struct {
	ID           string `json:"id,omitempty"`
	Status       string `json:"status,omitempty"`
	UpdateTime   string `json:"update_time,omitempty"`
	EmailAddress string `json:"email_address,omitempty"`
}

// Payment groups the payment attributes of an order
type Payment struct {
	Method string
	Status PaymentStatus
	PaidAt *time.Time
	Result *PaymentResult
}

// Line is a frozen, priced purchase line of an order
type Line struct {
	ID             uuid.UUID
	ProductID      uuid.UUID
	VendorID       uuid.UUID
	VariantSKU     string
	Name           string
	ImageURL       string
	Size           string
	Color          string
	Quantity       int
	UnitPrice      decimal.Decimal
	Amount         decimal.Decimal
	ShipmentStatus ShipmentStatus
	ShippedAt      *time.Time
}

// LineInput holds the resolved facts for one order line
type LineInput struct {
	ProductID  uuid.UUID
	VendorID   uuid.UUID
	VariantSKU string
	Name       string
	ImageURL   string
	Size       string
	Color      string
	Quantity   int
	UnitPrice  decimal.Decimal
}

// NewLine creates a pending order line
func NewLine(in LineInput) (Line, error) {
	if in.ProductID == uuid.Nil {
		return Line{}, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if in.VendorID == uuid.Nil {
		return Line{}, shared.NewDomainError("INVALID_VENDOR", "Vendor ID cannot be empty")
	}
	if in.Quantity <= 0 {
		return Line{}, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if in.UnitPrice.IsNegative() {
		return Line{}, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	price := in.UnitPrice.Round(2)
	return Line{
		ID:             uuid.New(),
		ProductID:      in.ProductID,
		VendorID:       in.VendorID,
		VariantSKU:     in.VariantSKU,
		Name:           in.Name,
		ImageURL:       in.ImageURL,
		Size:           in.Size,
		Color:          in.Color,
		Quantity:       in.Quantity,
		UnitPrice:      price,
		Amount:         price.Mul(decimal.NewFromInt(int64(in.Quantity))).Round(2),
		ShipmentStatus: ShipmentPending,
	}, nil
}

// IsShipped reports whether the line left the vendor
func (l Line) IsShipped() bool {
	return l.ShipmentStatus == ShipmentShipped
}

// Order is the immutable priced snapshot of a cart plus its mutable
// fulfillment and payment state.
type Order struct {
	shared.BaseAggregateRoot
	OrderNumber     string
	UserID          uuid.UUID
	Lines           []Line
	ShippingAddress valueobject.ShippingAddress
	Payment         Payment
	Subtotal        decimal.Decimal
	ShippingCost    decimal.Decimal
	Tax             decimal.Decimal
	Total           decimal.Decimal
	Status          Status
	DeliveredAt     *time.Time
	CancelledAt     *time.Time
	CancelReason    string
}

// NewOrder creates a pending, unpaid order from priced lines. Lines keep the
// order they are given in.
func NewOrder(orderNumber string, userID uuid.UUID, address valueobject.ShippingAddress, paymentMethod string, lines []Line, shippingCost decimal.Decimal) (*Order, error) {
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	if len(lines) == 0 {
		return nil, shared.NewDomainError("EMPTY_CART", "Cart is empty. Cannot create an order.")
	}
	if address.IsEmpty() {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Shipping address is required")
	}
	if strings.TrimSpace(paymentMethod) == "" {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Payment method is required")
	}
	if shippingCost.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Shipping cost cannot be negative")
	}

	o := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       orderNumber,
		UserID:            userID,
		Lines:             append([]Line(nil), lines...),
		ShippingAddress:   address,
		Payment: Payment{
			Method: strings.TrimSpace(paymentMethod),
			Status: PaymentStatusPending,
		},
		ShippingCost: shippingCost.Round(2),
		Tax:          decimal.Zero,
		Status:       StatusPending,
	}
	o.recalculateTotals()

	o.Record(NewOrderPlacedEvent(o))

	return o, nil
}

// IsPaid reports whether payment was recorded
func (o *Order) IsPaid() bool {
	return o.Payment.Status == PaymentStatusPaid
}

// IsDelivered reports whether the order reached the delivered state
func (o *Order) IsDelivered() bool {
	return o.Status == StatusDelivered
}

// IsOwnedBy reports whether userID placed the order
func (o *Order) IsOwnedBy(userID uuid.UUID) bool {
	return o.UserID == userID
}

// HasShippedLine reports whether any line already shipped
func (o *Order) HasShippedLine() bool {
	for _, l := range o.Lines {
		if l.IsShipped() {
			return true
		}
	}
	return false
}

// ItemCount returns the number of units across all lines
func (o *Order) ItemCount() int {
	n := 0
	for _, l := range o.Lines {
		n += l.Quantity
	}
	return n
}

// MarkPaid records a successful payment. Paying an already paid order is a
// no-op and returns false; PaidAt is not re-stamped.
func (o *Order) MarkPaid(result PaymentResult) (bool, error) {
	if o.Status == StatusCancelled {
		return false, shared.ErrInvalidState.Withf("Cannot pay a cancelled order")
	}
	if o.IsPaid() {
		return false, nil
	}

	now := time.Now()
	o.Payment.Status = PaymentStatusPaid
	o.Payment.PaidAt = &now
	o.Payment.Result = &result
	o.UpdatedAt = now

	o.Record(NewOrderPaidEvent(o))

	return true, nil
}

// ShipProduct marks every line of productID as shipped on behalf of vendorID.
// Lines already shipped are left untouched; the call returns false when
// nothing changed.
func (o *Order) ShipProduct(vendorID, productID uuid.UUID, requirePayment bool) (bool, error) {
	idx := make([]int, 0, 1)
	for i, l := range o.Lines {
		if l.ProductID != productID {
			continue
		}
		if l.VendorID != vendorID {
			return false, shared.ErrNotAuthorized
		}
		idx = append(idx, i)
	}
	if len(idx) == 0 {
		return false, ErrLineNotFound
	}
	if o.Status.IsTerminal() {
		return false, shared.ErrInvalidState.Withf("Cannot ship order in %s status", o.Status)
	}
	if requirePayment && !o.IsPaid() {
		return false, ErrNotPaid
	}

	now := time.Now()
	shipped := make([]uuid.UUID, 0, len(idx))
	for _, i := range idx {
		if o.Lines[i].IsShipped() {
			continue
		}
		o.Lines[i].ShipmentStatus = ShipmentShipped
		o.Lines[i].ShippedAt = &now
		shipped = append(shipped, o.Lines[i].ID)
	}
	if len(shipped) == 0 {
		return false, nil
	}

	o.Status = o.derivedShippingStatus()
	o.UpdatedAt = now

	o.Record(NewOrderLineShippedEvent(o, vendorID, productID, shipped))

	return true, nil
}

// MarkDelivered moves a fully shipped order to delivered. Delivering an
// already delivered order returns false without changes.
func (o *Order) MarkDelivered() (bool, error) {
	if o.Status == StatusDelivered {
		return false, nil
	}
	if !o.Status.CanTransitionTo(StatusDelivered) {
		return false, shared.ErrInvalidState.Withf("Cannot deliver order in %s status", o.Status)
	}

	now := time.Now()
	o.Status = StatusDelivered
	o.DeliveredAt = &now
	o.UpdatedAt = now

	o.Record(NewOrderDeliveredEvent(o))

	return true, nil
}

// Cancel cancels a pending order with no shipped line. Cancelling twice is a
// no-op.
func (o *Order) Cancel(reason string) (bool, error) {
	if o.Status == StatusCancelled {
		return false, nil
	}
	if !o.Status.CanTransitionTo(StatusCancelled) || o.HasShippedLine() {
		return false, shared.ErrInvalidState.Withf("Cannot cancel order in %s status", o.Status)
	}
	reason = strings.TrimSpace(reason)
	if len(reason) > 500 {
		return false, shared.NewDomainError("VALIDATION_FAILED", "Cancel reason cannot exceed 500 characters")
	}

	now := time.Now()
	o.Status = StatusCancelled
	o.CancelledAt = &now
	o.CancelReason = reason
	o.UpdatedAt = now

	o.Record(NewOrderCancelledEvent(o))

	return true, nil
}

// CheckTotals verifies the monetary invariants of the order
func (o *Order) CheckTotals() error {
	sum := decimal.Zero
	for _, l := range o.Lines {
		if !l.Amount.Equal(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))) {
			return shared.NewDomainError("INVALID_AMOUNT", "Line amount does not match unit price times quantity")
		}
		sum = sum.Add(l.Amount)
	}
	if !o.Subtotal.Equal(sum) {
		return shared.NewDomainError("INVALID_AMOUNT", "Subtotal does not match the lines")
	}
	if !o.Tax.IsZero() {
		return shared.NewDomainError("INVALID_AMOUNT", "Tax must be zero")
	}
	if !o.Total.Equal(o.Subtotal.Add(o.ShippingCost).Add(o.Tax)) {
		return shared.NewDomainError("INVALID_AMOUNT", "Total does not match subtotal plus shipping")
	}
	return nil
}

func (o *Order) derivedShippingStatus() Status {
	shipped := 0
	for _, l := range o.Lines {
		if l.IsShipped() {
			shipped++
		}
	}
	switch {
	case shipped == 0:
		return StatusPending
	case shipped == len(o.Lines):
		return StatusShipped
	default:
		return StatusPartiallyShipped
	}
}

// recalculateTotals recalculates the order totals
func (o *Order) recalculateTotals() {
	subtotal := decimal.Zero
	for _, l := range o.Lines {
		subtotal = subtotal.Add(l.Amount)
	}
	o.Subtotal = subtotal.Round(2)
	o.Total = o.Subtotal.Add(o.ShippingCost).Add(o.Tax).Round(2)
}
