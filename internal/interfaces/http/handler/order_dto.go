package handler

import (
	apporder "github.com/shopfront/backend/internal/application/order"
)

// IdempotencyKeyHeader carries the client chosen checkout key
const IdempotencyKeyHeader = "Idempotency-Key"

const maxIdempotencyKeyLength = 128

// ShippingAddressRequest is the delivery address of a checkout
type ShippingAddressRequest struct {
	FullName   string `json:"full_name" binding:"required,max=100"`
	Address    string `json:"address" binding:"required,max=200"`
	City       string `json:"city" binding:"required,max=100"`
	PostalCode string `json:"postal_code" binding:"required,max=20"`
	Country    string `json:"country" binding:"required,max=60"`
}

// CreateOrderRequest is the checkout body. It carries no lines or prices;
// those come from the caller's cart and the catalog.
type CreateOrderRequest struct {
	ShippingAddress ShippingAddressRequest `json:"shipping_address" binding:"required"`
	PaymentMethod   string                 `json:"payment_method" binding:"required,max=50"`
}

func (r CreateOrderRequest) toInput(idempotencyKey string) apporder.CreateOrderInput {
	return apporder.CreateOrderInput{
		ShippingAddress: apporder.AddressInput{
			FullName:   r.ShippingAddress.FullName,
			Address:    r.ShippingAddress.Address,
			City:       r.ShippingAddress.City,
			PostalCode: r.ShippingAddress.PostalCode,
			Country:    r.ShippingAddress.Country,
		},
		PaymentMethod:  r.PaymentMethod,
		IdempotencyKey: idempotencyKey,
	}
}

// PaymentResultRequest is the payment provider confirmation
type PaymentResultRequest struct {
	ID           string `json:"id" binding:"required,max=100"`
	Status       string `json:"status" binding:"required,max=50"`
	UpdateTime   string `json:"update_time" binding:"max=50"`
	EmailAddress string `json:"email_address" binding:"omitempty,email"`
}

func (r PaymentResultRequest) toInput() apporder.PaymentResultInput {
	return apporder.PaymentResultInput{
		ID:           r.ID,
		Status:       r.Status,
		UpdateTime:   r.UpdateTime,
		EmailAddress: r.EmailAddress,
	}
}

// CancelOrderRequest optionally explains a cancellation
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}
