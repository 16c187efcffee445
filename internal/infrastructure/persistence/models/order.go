package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/order"
	"github.com/shopfront/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// OrderModel is the persistence model for the Order aggregate root.
// The payment provider result is flattened into columns.
type OrderModel struct {
	AggregateModel
	OrderNumber     string                      `gorm:"type:varchar(30);not null;uniqueIndex"`
	UserID          uuid.UUID                   `gorm:"type:uuid;not null;index"`
	ShippingAddress valueobject.ShippingAddress `gorm:"type:jsonb;not null"`
	PaymentMethod   string                      `gorm:"type:varchar(50);not null"`
	PaymentStatus   order.PaymentStatus         `gorm:"type:varchar(20);not null;default:'Pending'"`
	PaidAt          *time.Time
	PaymentRef      string          `gorm:"type:varchar(100)"`
	PaymentState    string          `gorm:"type:varchar(50)"`
	PaymentUpdated  string          `gorm:"type:varchar(50)"`
	PayerEmail      string          `gorm:"type:varchar(200)"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	ShippingCost    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Tax             decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Total           decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Status          order.Status    `gorm:"type:varchar(20);not null;default:'pending';index"`
	DeliveredAt     *time.Time
	CancelledAt     *time.Time
	CancelReason    string           `gorm:"type:varchar(500)"`
	Lines           []OrderLineModel `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order
func (m *OrderModel) ToDomain() *order.Order {
	o := &order.Order{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		OrderNumber:       m.OrderNumber,
		UserID:            m.UserID,
		ShippingAddress:   m.ShippingAddress,
		Payment: order.Payment{
			Method: m.PaymentMethod,
			Status: m.PaymentStatus,
			PaidAt: m.PaidAt,
		},
		Subtotal:     m.Subtotal,
		ShippingCost: m.ShippingCost,
		Tax:          m.Tax,
		Total:        m.Total,
		Status:       m.Status,
		DeliveredAt:  m.DeliveredAt,
		CancelledAt:  m.CancelledAt,
		CancelReason: m.CancelReason,
	}
	if m.PaymentRef != "" || m.PaymentState != "" || m.PaymentUpdated != "" || m.PayerEmail != "" {
		o.Payment.Result = &order.PaymentResult{
			ID:           m.PaymentRef,
			Status:       m.PaymentState,
			UpdateTime:   m.PaymentUpdated,
			EmailAddress: m.PayerEmail,
		}
	}
	o.Lines = make([]order.Line, len(m.Lines))
	for i := range m.Lines {
		o.Lines[i] = m.Lines[i].ToDomain()
	}
	return o
}

// FromDomain populates the persistence model from a domain Order
func (m *OrderModel) FromDomain(o *order.Order) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.OrderNumber = o.OrderNumber
	m.UserID = o.UserID
	m.ShippingAddress = o.ShippingAddress
	m.PaymentMethod = o.Payment.Method
	m.PaymentStatus = o.Payment.Status
	m.PaidAt = o.Payment.PaidAt
	m.PaymentRef, m.PaymentState, m.PaymentUpdated, m.PayerEmail = "", "", "", ""
	if r := o.Payment.Result; r != nil {
		m.PaymentRef = r.ID
		m.PaymentState = r.Status
		m.PaymentUpdated = r.UpdateTime
		m.PayerEmail = r.EmailAddress
	}
	m.Subtotal = o.Subtotal
	m.ShippingCost = o.ShippingCost
	m.Tax = o.Tax
	m.Total = o.Total
	m.Status = o.Status
	m.DeliveredAt = o.DeliveredAt
	m.CancelledAt = o.CancelledAt
	m.CancelReason = o.CancelReason

	m.Lines = make([]OrderLineModel, len(o.Lines))
	for i, l := range o.Lines {
		m.Lines[i] = OrderLineModelFromDomain(o.ID, i, l)
	}
}

// OrderModelFromDomain creates a new persistence model from a domain Order
func OrderModelFromDomain(o *order.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(o)
	return m
}

// OrderLineModel is the persistence model for a frozen order line
type OrderLineModel struct {
	ID             uuid.UUID            `gorm:"type:uuid;primaryKey"`
	OrderID        uuid.UUID            `gorm:"type:uuid;not null;index"`
	Position       int                  `gorm:"not null"`
	ProductID      uuid.UUID            `gorm:"type:uuid;not null;index"`
	VendorID       uuid.UUID            `gorm:"type:uuid;not null;index"`
	VariantSKU     string               `gorm:"type:varchar(100)"`
	Name           string               `gorm:"type:varchar(200);not null"`
	ImageURL       string               `gorm:"type:varchar(500)"`
	Size           string               `gorm:"type:varchar(50)"`
	Color          string               `gorm:"type:varchar(50)"`
	Quantity       int                  `gorm:"not null"`
	UnitPrice      decimal.Decimal      `gorm:"type:decimal(12,2);not null"`
	Amount         decimal.Decimal      `gorm:"type:decimal(12,2);not null"`
	ShipmentStatus order.ShipmentStatus `gorm:"type:varchar(20);not null;default:'pending'"`
	ShippedAt      *time.Time
}

// TableName returns the table name for GORM
func (OrderLineModel) TableName() string {
	return "order_lines"
}

// ToDomain converts the persistence model to a domain order line
func (m *OrderLineModel) ToDomain() order.Line {
	return order.Line{
		ID:             m.ID,
		ProductID:      m.ProductID,
		VendorID:       m.VendorID,
		VariantSKU:     m.VariantSKU,
		Name:           m.Name,
		ImageURL:       m.ImageURL,
		Size:           m.Size,
		Color:          m.Color,
		Quantity:       m.Quantity,
		UnitPrice:      m.UnitPrice,
		Amount:         m.Amount,
		ShipmentStatus: m.ShipmentStatus,
		ShippedAt:      m.ShippedAt,
	}
}

// OrderLineModelFromDomain creates a persistence model for the line at position
func OrderLineModelFromDomain(orderID uuid.UUID, position int, l order.Line) OrderLineModel {
	return OrderLineModel{
		ID:             l.ID,
		OrderID:        orderID,
		Position:       position,
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
		ShipmentStatus: l.ShipmentStatus,
		ShippedAt:      l.ShippedAt,
	}
}
