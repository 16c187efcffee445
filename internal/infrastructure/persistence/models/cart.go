package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/cart"
)

// CartModel is the persistence model for the Cart aggregate root
type CartModel struct {
	AggregateModel
	UserID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	Lines  []CartLineModel `gorm:"foreignKey:CartID;references:ID"`
}

// TableName returns the table name for GORM
func (CartModel) TableName() string {
	return "carts"
}

// ToDomain converts the persistence model to a domain Cart
func (m *CartModel) ToDomain() *cart.Cart {
	c := &cart.Cart{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		UserID:            m.UserID,
		Lines:             make([]cart.Line, len(m.Lines)),
	}
	for i := range m.Lines {
		c.Lines[i] = m.Lines[i].ToDomain()
	}
	c.MarkStored()
	return c
}

// CartModelFromDomain creates a persistence model from a domain Cart
func CartModelFromDomain(c *cart.Cart) *CartModel {
	m := &CartModel{UserID: c.UserID}
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.Lines = make([]CartLineModel, len(c.Lines))
	for i, l := range c.Lines {
		m.Lines[i] = CartLineModelFromDomain(c.ID, i, l)
	}
	return m
}

// CartLineModel is the persistence model for a cart line
type CartLineModel struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	CartID          uuid.UUID `gorm:"type:uuid;not null;index"`
	Position        int       `gorm:"not null"`
	ProductID       uuid.UUID `gorm:"type:uuid;not null"`
	VariantSKU      string    `gorm:"type:varchar(100)"`
	Quantity        int       `gorm:"not null"`
	Size            string    `gorm:"type:varchar(50)"`
	Color           string    `gorm:"type:varchar(50)"`
	VariantSnapshot StringMap `gorm:"type:jsonb"`
	AddedAt         time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CartLineModel) TableName() string {
	return "cart_lines"
}

// ToDomain converts the persistence model to a domain cart line
func (m *CartLineModel) ToDomain() cart.Line {
	var snapshot map[string]string
	if len(m.VariantSnapshot) > 0 {
		snapshot = make(map[string]string, len(m.VariantSnapshot))
		for k, v := range m.VariantSnapshot {
			snapshot[k] = v
		}
	}
	return cart.Line{
		ID:              m.ID,
		ProductID:       m.ProductID,
		VariantSKU:      m.VariantSKU,
		Quantity:        m.Quantity,
		Size:            m.Size,
		Color:           m.Color,
		VariantSnapshot: snapshot,
		AddedAt:         m.AddedAt,
	}
}

// CartLineModelFromDomain creates a persistence model for the line at position
func CartLineModelFromDomain(cartID uuid.UUID, position int, l cart.Line) CartLineModel {
	return CartLineModel{
		ID:              l.ID,
		CartID:          cartID,
		Position:        position,
		ProductID:       l.ProductID,
		VariantSKU:      l.VariantSKU,
		Quantity:        l.Quantity,
		Size:            l.Size,
		Color:           l.Color,
		VariantSnapshot: StringMap(l.VariantSnapshot),
		AddedAt:         l.AddedAt,
	}
}
