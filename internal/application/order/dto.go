package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/identity"
	"github.com/shopfront/backend/internal/domain/order"
	"github.com/shopspring/decimal"
)

// AddressInput is the shipping address supplied at checkout
type AddressInput struct {
	FullName   string
	Address    string
	City       string
	PostalCode string
	Country    string
}

// CreateOrderInput contains the buyer supplied part of a checkout. Prices
// and lines always come from the server side cart and catalog.
type CreateOrderInput struct {
	ShippingAddress AddressInput
	PaymentMethod   string
	// IdempotencyKey is optional; replays with the same key return the
	// order the first request created
	IdempotencyKey string
}

// PaymentResultInput is the provider confirmation passed to MarkPaid
type PaymentResultInput struct {
	ID           string
	Status       string
	UpdateTime   string
	EmailAddress string
}

// OrderResponse is the API view of an order. For vendors Lines holds only
// their own lines and the Vendor* fields are set.
type OrderResponse struct {
	ID                   uuid.UUID           `json:"id"`
	OrderNumber          string              `json:"order_number"`
	UserID               uuid.UUID           `json:"user_id"`
	Buyer                *BuyerResponse      `json:"user,omitempty"`
	Lines                []OrderLineResponse `json:"order_items"`
	ShippingAddress      AddressResponse     `json:"shipping_address"`
	Payment              PaymentResponse     `json:"payment"`
	Subtotal             decimal.Decimal     `json:"subtotal"`
	ShippingCost         decimal.Decimal     `json:"shipping_price"`
	Tax                  decimal.Decimal     `json:"tax_price"`
	Total                decimal.Decimal     `json:"total_price"`
	Status               string              `json:"status"`
	IsPaid               bool                `json:"is_paid"`
	PaidAt               *time.Time          `json:"paid_at,omitempty"`
	IsDelivered          bool                `json:"is_delivered"`
	DeliveredAt          *time.Time          `json:"delivered_at,omitempty"`
	CancelledAt          *time.Time          `json:"cancelled_at,omitempty"`
	CancelReason         string              `json:"cancel_reason,omitempty"`
	VendorSubtotal       *decimal.Decimal    `json:"vendor_subtotal,omitempty"`
	VendorShipmentStatus string              `json:"vendor_shipment_status,omitempty"`
	Version              int                 `json:"version"`
	CreatedAt            time.Time           `json:"created_at"`
	UpdatedAt            time.Time           `json:"updated_at"`
}

// OrderLineResponse is one frozen order line
type OrderLineResponse struct {
	ID             uuid.UUID       `json:"id"`
	ProductID      uuid.UUID       `json:"product_id"`
	VendorID       uuid.UUID       `json:"vendor_id"`
	VariantSKU     string          `json:"variant_sku,omitempty"`
	Name           string          `json:"name"`
	ImageURL       string          `json:"image,omitempty"`
	Size           string          `json:"size,omitempty"`
	Color          string          `json:"color,omitempty"`
	Quantity       int             `json:"qty"`
	UnitPrice      decimal.Decimal `json:"price"`
	Amount         decimal.Decimal `json:"amount"`
	ShipmentStatus string          `json:"shipment_status"`
	ShippedAt      *time.Time      `json:"shipped_at,omitempty"`
}

// AddressResponse mirrors the stored shipping address
type AddressResponse struct {
	FullName   string `json:"full_name"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// PaymentResponse is the payment axis of an order
type PaymentResponse struct {
	Method string               `json:"method"`
	Status string               `json:"status"`
	Result *order.PaymentResult `json:"result,omitempty"`
}

// BuyerResponse is the limited buyer detail shown on orders
type BuyerResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// NewBuyerResponse builds the buyer detail from a user
func NewBuyerResponse(u *identity.User) *BuyerResponse {
	return &BuyerResponse{ID: u.ID, Name: u.Name, Email: u.Email}
}

// NewOrderResponse converts an order with all its lines
func NewOrderResponse(o *order.Order, buyer *BuyerResponse) OrderResponse {
	resp := OrderResponse{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		UserID:      o.UserID,
		Buyer:       buyer,
		Lines:       toLineResponses(o.Lines),
		ShippingAddress: AddressResponse{
			FullName:   o.ShippingAddress.FullName(),
			Address:    o.ShippingAddress.Address(),
			City:       o.ShippingAddress.City(),
			PostalCode: o.ShippingAddress.PostalCode(),
			Country:    o.ShippingAddress.Country(),
		},
		Payment: PaymentResponse{
			Method: o.Payment.Method,
			Status: string(o.Payment.Status),
			Result: o.Payment.Result,
		},
		Subtotal:     o.Subtotal,
		ShippingCost: o.ShippingCost,
		Tax:          o.Tax,
		Total:        o.Total,
		Status:       o.Status.String(),
		IsPaid:       o.IsPaid(),
		PaidAt:       o.Payment.PaidAt,
		IsDelivered:  o.IsDelivered(),
		DeliveredAt:  o.DeliveredAt,
		CancelledAt:  o.CancelledAt,
		CancelReason: o.CancelReason,
		Version:      o.Version,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
	}
	return resp
}

// NewVendorOrderResponse converts a vendor partition of an order. Order level
// totals and payment state stay visible; lines are the vendor's only.
func NewVendorOrderResponse(v order.VendorView, buyer *BuyerResponse) OrderResponse {
	resp := NewOrderResponse(v.Order, buyer)
	resp.Lines = toLineResponses(v.Lines)
	subtotal := v.VendorSubtotal
	resp.VendorSubtotal = &subtotal
	resp.VendorShipmentStatus = v.VendorShipmentStatus.String()
	return resp
}

func toLineResponses(lines []order.Line) []OrderLineResponse {
	out := make([]OrderLineResponse, len(lines))
	for i, l := range lines {
		out[i] = OrderLineResponse{
			ID:             l.ID,
			ProductID:      l.ProductID,
			VendorID:       l.VendorID,
			VariantSKU:     l.VariantSKU,
			Name:           l.Name,
			ImageURL:       l.ImageURL,
			Size:           l.Size,
			Color:          l.Color,
			Quantity:       l.Quantity,
			UnitPrice:      l.UnitPrice,
			Amount:         l.Amount,
			ShipmentStatus: string(l.ShipmentStatus),
			ShippedAt:      l.ShippedAt,
		}
	}
	return out
}
