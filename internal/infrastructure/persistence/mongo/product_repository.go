package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/catalog"
	"github.com/shopfront/backend/internal/domain/shared"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionProducts is the collection holding product documents
const CollectionProducts = "products"

var productSortFields = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"name":       "name",
	"price":      "price",
	"status":     "status",
}

// ProductRepository implements catalog.ProductRepository on MongoDB
type ProductRepository struct {
	collection *mongo.Collection
}

// NewProductRepository creates a product repository on db
func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{collection: db.Collection(CollectionProducts)}
}

// NewProductRepositoryWithCollection creates a product repository on an explicit collection
func NewProductRepositoryWithCollection(coll *mongo.Collection) *ProductRepository {
	return &ProductRepository{collection: coll}
}

// FindByID finds a product by ID
func (r *ProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var doc productDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, catalog.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return doc.toDomain()
}

// FindByIDs finds the products with the given IDs; unknown IDs are skipped
func (r *ProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	if len(ids) == 0 {
		return []catalog.Product{}, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": keys}}, options.Find())
}

// FindIDsByVendor returns the IDs of every product owned by the vendor
func (r *ProductRepository) FindIDsByVendor(ctx context.Context, vendorID uuid.UUID) ([]uuid.UUID, error) {
	opts := options.Find().
		SetProjection(bson.M{"_id": 1}).
		SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"vendor_id": vendorID.String()}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list vendor products: %w", err)
	}
	defer cursor.Close(ctx)

	ids := make([]uuid.UUID, 0)
	for cursor.Next(ctx) {
		var row struct {
			ID string `bson:"_id"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, fmt.Errorf("failed to decode product id: %w", err)
		}
		id, err := uuid.Parse(row.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid product id %q: %w", row.ID, err)
		}
		ids = append(ids, id)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate vendor products: %w", err)
	}
	return ids, nil
}

// FindByVendor returns a page of the vendor's products
func (r *ProductRepository) FindByVendor(ctx context.Context, vendorID uuid.UUID, filter shared.Filter) ([]catalog.Product, int64, error) {
	filter = filter.Normalize()
	query := bson.M{"vendor_id": vendorID.String()}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count vendor products: %w", err)
	}

	field, ok := productSortFields[filter.OrderBy]
	if !ok {
		field = "created_at"
	}
	dir := -1
	if filter.OrderDir == "asc" {
		dir = 1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: field, Value: dir}, {Key: "_id", Value: 1}}).
		SetSkip(int64(filter.Offset())).
		SetLimit(int64(filter.PageSize))

	products, err := r.find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// Save creates or replaces a product document
func (r *ProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	doc, err := newProductDocument(product)
	if err != nil {
		return err
	}
	_, err = r.collection.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save product: %w", err)
	}
	return nil
}

// CreateIndexes creates the indexes used by the vendor queries
func (r *ProductRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "vendor_id", Value: 1}, {Key: "created_at", Value: -1}}},
	}
	if _, err := r.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *ProductRepository) find(ctx context.Context, query bson.M, opts *options.FindOptions) ([]catalog.Product, error) {
	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find products: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []productDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}

	products := make([]catalog.Product, 0, len(docs))
	for i := range docs {
		p, err := docs[i].toDomain()
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, nil
}

// Ensure ProductRepository implements catalog.ProductRepository
var _ catalog.ProductRepository = (*ProductRepository)(nil)
