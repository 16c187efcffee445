package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/catalog"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func productDoc(t testing.TB, id, vendorID uuid.UUID, name, price string) bson.D {
	t.Helper()
	p, err := primitive.ParseDecimal128(price)
	require.NoError(t, err)
	vp, err := primitive.ParseDecimal128("12.5")
	require.NoError(t, err)
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	return bson.D{
		{Key: "_id", Value: id.String()},
		{Key: "vendor_id", Value: vendorID.String()},
		{Key: "name", Value: name},
		{Key: "price", Value: p},
		{Key: "status", Value: "active"},
		{Key: "variants", Value: bson.D{
			{Key: "MUG-RED", Value: bson.D{
				{Key: "sku", Value: "MUG-RED"},
				{Key: "attributes", Value: bson.A{bson.D{{Key: "name", Value: "Color"}, {Key: "value", Value: "Red"}}}},
				{Key: "price", Value: vp},
				{Key: "stock", Value: int32(4)},
			}},
		}},
		{Key: "version", Value: int32(1)},
		{Key: "created_at", Value: now},
		{Key: "updated_at", Value: now},
	}
}

func TestProductRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	ns := "shop.products"

	mt.Run("find by id decodes embedded variants", func(mt *mtest.T) {
		repo := NewProductRepositoryWithCollection(mt.Coll)
		id, vendor := uuid.New(), uuid.New()
		mt.AddMockResponses(mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, productDoc(mt, id, vendor, "Mug", "10")))

		p, err := repo.FindByID(ctx, id)
		require.NoError(mt, err)
		assert.Equal(mt, id, p.ID)
		assert.Equal(mt, vendor, p.VendorID)
		assert.True(mt, p.Price.Equal(decimal.NewFromInt(10)))

		v, ok := p.Variant("MUG-RED")
		require.True(mt, ok)
		assert.True(mt, v.Price.Equal(decimal.RequireFromString("12.5")))
		color, _ := v.Attribute("color")
		assert.Equal(mt, "Red", color)

		price, err := p.PriceFor("MUG-RED")
		require.NoError(mt, err)
		assert.True(mt, price.Equal(decimal.RequireFromString("12.5")))
	})

	mt.Run("find by id not found", func(mt *mtest.T) {
		repo := NewProductRepositoryWithCollection(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(mt, err, catalog.ErrProductNotFound)
	})

	mt.Run("find by ids", func(mt *mtest.T) {
		repo := NewProductRepositoryWithCollection(mt.Coll)
		vendor := uuid.New()
		a, b := uuid.New(), uuid.New()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, productDoc(mt, a, vendor, "A", "1")),
			mtest.CreateCursorResponse(0, ns, mtest.NextBatch, productDoc(mt, b, vendor, "B", "2")),
		)

		products, err := repo.FindByIDs(ctx, []uuid.UUID{a, b})
		require.NoError(mt, err)
		require.Len(mt, products, 2)
		assert.Equal(mt, "A", products[0].Name)
		assert.Equal(mt, "B", products[1].Name)
	})

	mt.Run("vendor product ids", func(mt *mtest.T) {
		repo := NewProductRepositoryWithCollection(mt.Coll)
		a, b := uuid.New(), uuid.New()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, bson.D{{Key: "_id", Value: a.String()}}),
			mtest.CreateCursorResponse(0, ns, mtest.NextBatch, bson.D{{Key: "_id", Value: b.String()}}),
		)

		ids, err := repo.FindIDsByVendor(ctx, uuid.New())
		require.NoError(mt, err)
		assert.Equal(mt, []uuid.UUID{a, b}, ids)
	})

	mt.Run("vendor products paginated", func(mt *mtest.T) {
		repo := NewProductRepositoryWithCollection(mt.Coll)
		vendor := uuid.New()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "n", Value: int32(7)}}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, productDoc(mt, uuid.New(), vendor, "Mug", "10")),
		)

		products, total, err := repo.FindByVendor(ctx, vendor, shared.Filter{Page: 2, PageSize: 1})
		require.NoError(mt, err)
		assert.Equal(mt, int64(7), total)
		require.Len(mt, products, 1)
	})

	mt.Run("save upserts", func(mt *mtest.T) {
		repo := NewProductRepositoryWithCollection(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: int32(1)},
			bson.E{Key: "nModified", Value: int32(0)},
		))

		p, err := catalog.NewProduct(uuid.New(), "Lamp", decimal.RequireFromString("80.25"))
		require.NoError(mt, err)
		require.NoError(mt, repo.Save(ctx, p))
	})

	mt.Run("server error is wrapped", func(mt *mtest.T) {
		repo := NewProductRepositoryWithCollection(mt.Coll)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 11600, Message: "interrupted"}))

		_, err := repo.FindByID(ctx, uuid.New())
		require.Error(mt, err)
		assert.Contains(mt, err.Error(), "failed to get product")
	})
}
