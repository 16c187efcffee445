package mongo

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/catalog"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type variantDocument struct {
	SKU        string               `bson:"sku"`
	Attributes []catalog.Attribute  `bson:"attributes"`
	Price      primitive.Decimal128 `bson:"price"`
	Stock      int                  `bson:"stock"`
	Status     string               `bson:"status,omitempty"`
}

type productDocument struct {
	ID          string                     `bson:"_id"`
	VendorID    string                     `bson:"vendor_id"`
	Name        string                     `bson:"name"`
	Description string                     `bson:"description,omitempty"`
	ImageURL    string                     `bson:"image_url,omitempty"`
	Price       primitive.Decimal128       `bson:"price"`
	Status      string                     `bson:"status"`
	Variants    map[string]variantDocument `bson:"variants"`
	Version     int                        `bson:"version"`
	CreatedAt   time.Time                  `bson:"created_at"`
	UpdatedAt   time.Time                  `bson:"updated_at"`
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	return primitive.ParseDecimal128(d.String())
}

func fromDecimal128(d primitive.Decimal128) (decimal.Decimal, error) {
	return decimal.NewFromString(d.String())
}

func newProductDocument(p *catalog.Product) (*productDocument, error) {
	price, err := toDecimal128(p.Price)
	if err != nil {
		return nil, fmt.Errorf("encode price: %w", err)
	}
	doc := &productDocument{
		ID:          p.ID.String(),
		VendorID:    p.VendorID.String(),
		Name:        p.Name,
		Description: p.Description,
		ImageURL:    p.ImageURL,
		Price:       price,
		Status:      string(p.Status),
		Variants:    make(map[string]variantDocument, len(p.Variants)),
		Version:     p.Version,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	for sku, v := range p.Variants {
		vp, err := toDecimal128(v.Price)
		if err != nil {
			return nil, fmt.Errorf("encode variant %s price: %w", sku, err)
		}
		doc.Variants[sku] = variantDocument{
			SKU:        v.SKU,
			Attributes: v.Attributes,
			Price:      vp,
			Stock:      v.Stock,
			Status:     string(v.Status),
		}
	}
	return doc, nil
}

func (d *productDocument) toDomain() (*catalog.Product, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("decode product id: %w", err)
	}
	vendorID, err := uuid.Parse(d.VendorID)
	if err != nil {
		return nil, fmt.Errorf("decode vendor id: %w", err)
	}
	price, err := fromDecimal128(d.Price)
	if err != nil {
		return nil, fmt.Errorf("decode price: %w", err)
	}

	p := &catalog.Product{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{ID: id, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt},
			Version:    d.Version,
		},
		VendorID:    vendorID,
		Name:        d.Name,
		Description: d.Description,
		ImageURL:    d.ImageURL,
		Price:       price,
		Status:      catalog.ProductStatus(d.Status),
		Variants:    make(map[string]catalog.Variant, len(d.Variants)),
	}
	for sku, v := range d.Variants {
		vp, err := fromDecimal128(v.Price)
		if err != nil {
			return nil, fmt.Errorf("decode variant %s price: %w", sku, err)
		}
		p.Variants[sku] = catalog.Variant{
			SKU:        v.SKU,
			Attributes: v.Attributes,
			Price:      vp,
			Stock:      v.Stock,
			Status:     catalog.VariantStatus(v.Status),
		}
	}
	return p, nil
}
