package catalog

import (
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ProductStatus represents the lifecycle status of a product
type ProductStatus string

const (
	ProductStatusActive       ProductStatus = "active"
	ProductStatusInactive     ProductStatus = "inactive"
	ProductStatusDiscontinued ProductStatus = "discontinued"
)

// IsValid returns true if the status is a known value
func (s ProductStatus) IsValid() bool {
	switch s {
	case ProductStatusActive, ProductStatusInactive, ProductStatusDiscontinued:
		return true
	}
	return false
}

// VariantStatus represents whether a variant can be sold
type VariantStatus string

const (
	VariantStatusActive   VariantStatus = "active"
	VariantStatusInactive VariantStatus = "inactive"
)

// Attribute is a named variant attribute such as size or color
type Attribute struct {
	Name  string `json:"name" bson:"name"`
	Value string `json:"value" bson:"value"`
}

// Variant is a sellable configuration of a product, identified by SKU
type Variant struct {
	SKU        string          `json:"sku" bson:"sku"`
	Attributes []Attribute     `json:"attributes" bson:"attributes"`
	Price      decimal.Decimal `json:"price" bson:"price"`
	Stock      int             `json:"stock" bson:"stock"`
	Status     VariantStatus   `json:"status" bson:"status"`
}

// Attribute returns the value of the named attribute, case-insensitively
func (v Variant) Attribute(name string) (string, bool) {
	for _, a := range v.Attributes {
		if strings.EqualFold(a.Name, name) {
			return a.Value, true
		}
	}
	return "", false
}

// AttributeMap flattens the attributes into a map keyed by lower-case name
func (v Variant) AttributeMap() map[string]string {
	m := make(map[string]string, len(v.Attributes))
	for _, a := range v.Attributes {
		m[strings.ToLower(a.Name)] = a.Value
	}
	return m
}

// IsActive reports whether the variant can be added to a cart
func (v Variant) IsActive() bool {
	return v.Status == "" || v.Status == VariantStatusActive
}

func (v Variant) validate() error {
	sku := strings.TrimSpace(v.SKU)
	if sku == "" {
		return shared.NewDomainError("INVALID_VARIANT", "Variant SKU cannot be empty")
	}
	if len(sku) > 64 {
		return shared.NewDomainError("INVALID_VARIANT", "Variant SKU cannot exceed 64 characters")
	}
	if v.Price.IsNegative() {
		return shared.NewDomainError("INVALID_VARIANT", "Variant price cannot be negative")
	}
	if v.Stock < 0 {
		return shared.NewDomainError("INVALID_VARIANT", "Variant stock cannot be negative")
	}
	if v.Status != "" && v.Status != VariantStatusActive && v.Status != VariantStatusInactive {
		return shared.NewDomainError("INVALID_VARIANT", "Variant status must be active or inactive")
	}
	for _, a := range v.Attributes {
		if strings.TrimSpace(a.Name) == "" {
			return shared.NewDomainError("INVALID_VARIANT", "Variant attribute name cannot be empty")
		}
	}
	return nil
}

// Product is a catalog entry owned by a vendor.
// Variants are keyed by SKU.
type Product struct {
	shared.BaseAggregateRoot
	VendorID    uuid.UUID
	Name        string
	Description string
	ImageURL    string
	Price       decimal.Decimal
	Status      ProductStatus
	Variants    map[string]Variant
}

// NewProduct creates an active product owned by vendorID
func NewProduct(vendorID uuid.UUID, name string, price decimal.Decimal) (*Product, error) {
	if vendorID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_VENDOR", "Vendor ID cannot be empty")
	}
	if err := validateProductName(name); err != nil {
		return nil, err
	}
	if err := validatePrice(price); err != nil {
		return nil, err
	}

	return &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		VendorID:          vendorID,
		Name:              strings.TrimSpace(name),
		Price:             price.Round(2),
		Status:            ProductStatusActive,
		Variants:          make(map[string]Variant),
	}, nil
}

// IsOwnedBy reports whether the product belongs to the vendor
func (p *Product) IsOwnedBy(vendorID uuid.UUID) bool {
	return p.VendorID == vendorID
}

// IsActive reports whether the product can be purchased
func (p *Product) IsActive() bool {
	return p.Status == ProductStatusActive
}

// Variant returns the variant with the given SKU
func (p *Product) Variant(sku string) (Variant, bool) {
	v, ok := p.Variants[sku]
	return v, ok
}

// HasVariants reports whether the product is sold by variant
func (p *Product) HasVariants() bool {
	return len(p.Variants) > 0
}

// SortedSKUs returns the variant SKUs in lexical order
func (p *Product) SortedSKUs() []string {
	skus := make([]string, 0, len(p.Variants))
	for sku := range p.Variants {
		skus = append(skus, sku)
	}
	sort.Strings(skus)
	return skus
}

// PriceFor resolves the current unit price for an optional variant SKU.
// A variant with a positive price overrides the base price.
func (p *Product) PriceFor(sku string) (decimal.Decimal, error) {
	if sku == "" {
		return p.Price, nil
	}
	v, ok := p.Variants[sku]
	if !ok {
		return decimal.Zero, shared.NewDomainError("VARIANT_NOT_FOUND", "Product variant not found")
	}
	if v.Price.IsPositive() {
		return v.Price, nil
	}
	return p.Price, nil
}

// UpsertVariant adds or replaces a variant by SKU
func (p *Product) UpsertVariant(v Variant) error {
	v.SKU = strings.TrimSpace(v.SKU)
	if err := v.validate(); err != nil {
		return err
	}
	if v.Status == "" {
		v.Status = VariantStatusActive
	}
	v.Price = v.Price.Round(2)
	if p.Variants == nil {
		p.Variants = make(map[string]Variant)
	}
	p.Variants[v.SKU] = v
	p.Touch()
	return nil
}

// RemoveVariant deletes a variant by SKU
func (p *Product) RemoveVariant(sku string) error {
	if _, ok := p.Variants[sku]; !ok {
		return shared.NewDomainError("VARIANT_NOT_FOUND", "Product variant not found")
	}
	delete(p.Variants, sku)
	p.Touch()
	return nil
}

// ProductUpdate enumerates the fields a vendor may change. Nil pointers
// leave the field untouched.
type ProductUpdate struct {
	Name           *string
	Description    *string
	ImageURL       *string
	Price          *decimal.Decimal
	Status         *ProductStatus
	UpsertVariants []Variant
	RemoveVariants []string
}

// ApplyUpdate validates the whole update before mutating, so a rejected
// update leaves the product unchanged.
func (p *Product) ApplyUpdate(u ProductUpdate) error {
	if u.Name != nil {
		if err := validateProductName(*u.Name); err != nil {
			return err
		}
	}
	if u.Description != nil && len(*u.Description) > 5000 {
		return shared.NewDomainError("INVALID_DESCRIPTION", "Description cannot exceed 5000 characters")
	}
	if u.Price != nil {
		if err := validatePrice(*u.Price); err != nil {
			return err
		}
	}
	if u.Status != nil && !u.Status.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "Unknown product status")
	}
	seen := make(map[string]struct{}, len(u.UpsertVariants))
	for _, v := range u.UpsertVariants {
		if err := v.validate(); err != nil {
			return err
		}
		sku := strings.TrimSpace(v.SKU)
		if _, dup := seen[sku]; dup {
			return shared.NewDomainError("INVALID_VARIANT", "Duplicate variant SKU in update")
		}
		seen[sku] = struct{}{}
	}
	for _, sku := range u.RemoveVariants {
		if _, ok := p.Variants[sku]; !ok {
			if _, upserted := seen[sku]; !upserted {
				return shared.NewDomainError("VARIANT_NOT_FOUND", "Product variant not found")
			}
		}
	}

	if u.Name != nil {
		p.Name = strings.TrimSpace(*u.Name)
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.ImageURL != nil {
		p.ImageURL = *u.ImageURL
	}
	if u.Price != nil {
		p.Price = u.Price.Round(2)
	}
	if u.Status != nil {
		p.Status = *u.Status
	}
	for _, sku := range u.RemoveVariants {
		delete(p.Variants, sku)
	}
	for _, v := range u.UpsertVariants {
		// validated above
		_ = p.UpsertVariant(v)
	}
	p.Touch()
	p.Version++
	return nil
}

func validateProductName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 200 characters")
	}
	return nil
}

func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}
	return nil
}
