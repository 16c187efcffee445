package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/shared"
)

// ProductReader is the read side of the Catalog Store used by checkout and
// the vendor views.
type ProductReader interface {
	// FindByID finds a product by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindByIDs finds the products with the given IDs; unknown IDs are skipped
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error)

	// FindIDsByVendor returns the IDs of every product owned by the vendor
	FindIDsByVendor(ctx context.Context, vendorID uuid.UUID) ([]uuid.UUID, error)

	// FindByVendor returns a page of the vendor's products
	FindByVendor(ctx context.Context, vendorID uuid.UUID, filter shared.Filter) ([]Product, int64, error)
}

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	ProductReader

	// Save creates or updates a product
	Save(ctx context.Context, product *Product) error
}

// ErrProductNotFound is returned when no product has the requested ID
var ErrProductNotFound = shared.NewDomainError("PRODUCT_NOT_FOUND", "Product not found")
