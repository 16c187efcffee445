package models

import (
	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// ProductModel is the persistence model for the Product aggregate root.
// Variants are embedded as a JSON document keyed by SKU.
type ProductModel struct {
	AggregateModel
	VendorID    uuid.UUID             `gorm:"type:uuid;not null;index"`
	Name        string                `gorm:"type:varchar(200);not null"`
	Description string                `gorm:"type:text"`
	ImageURL    string                `gorm:"type:varchar(500)"`
	Price       decimal.Decimal       `gorm:"type:decimal(12,2);not null"`
	Status      catalog.ProductStatus `gorm:"type:varchar(20);not null;default:'active'"`
	Variants    VariantMap            `gorm:"type:jsonb;not null"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product
func (m *ProductModel) ToDomain() *catalog.Product {
	variants := make(map[string]catalog.Variant, len(m.Variants))
	for sku, v := range m.Variants {
		variants[sku] = v
	}
	return &catalog.Product{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		VendorID:          m.VendorID,
		Name:              m.Name,
		Description:       m.Description,
		ImageURL:          m.ImageURL,
		Price:             m.Price,
		Status:            m.Status,
		Variants:          variants,
	}
}

// ProductModelFromDomain creates a persistence model from a domain Product
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{
		VendorID:    p.VendorID,
		Name:        p.Name,
		Description: p.Description,
		ImageURL:    p.ImageURL,
		Price:       p.Price,
		Status:      p.Status,
		Variants:    VariantMap(p.Variants),
	}
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	return m
}
