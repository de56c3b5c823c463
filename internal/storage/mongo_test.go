package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestMongoStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("ensure indexes", func(mt *mtest.T) {
		s := NewMongoStoreFromCollection(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		require.NoError(mt, s.EnsureIndexes(ctx))
	})

	mt.Run("upsert inserts", func(mt *mtest.T) {
		s := NewMongoStoreFromCollection(mt.Coll)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 0},
			bson.E{Key: "upserted", Value: bson.A{bson.D{{Key: "index", Value: 0}, {Key: "_id", Value: id}}}},
		))

		p := sampleProduct("https://limelight.pk/products/kurta", 2000)
		require.NoError(mt, s.Upsert(ctx, p))
		assert.Equal(mt, id.Hex(), p.ID)
	})

	mt.Run("upsert replaces", func(mt *mtest.T) {
		s := NewMongoStoreFromCollection(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		p := sampleProduct("https://limelight.pk/products/kurta", 1800)
		require.NoError(mt, s.Upsert(ctx, p))
		assert.Empty(mt, p.ID)
	})

	mt.Run("upsert write error is returned", func(mt *mtest.T) {
		s := NewMongoStoreFromCollection(mt.Coll)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index: 0, Code: 11000, Message: "duplicate key error",
		}))

		err := s.Upsert(ctx, sampleProduct("https://limelight.pk/products/kurta", 1800))
		require.Error(mt, err)
	})

	mt.Run("get", func(mt *mtest.T) {
		s := NewMongoStoreFromCollection(mt.Coll)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(1, "db.products", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "url", Value: "https://limelight.pk/products/kurta"},
			{Key: "title", Value: "Embroidered Lawn Kurta"},
			{Key: "price", Value: 2000.0},
			{Key: "original_price", Value: 4000.0},
			{Key: "discount_percent", Value: 50},
			{Key: "gender", Value: nil},
			{Key: "tags", Value: bson.A{"eid"}},
		}))

		got, err := s.Get(ctx, "https://limelight.pk/products/kurta")
		require.NoError(mt, err)
		assert.Equal(mt, id.Hex(), got.ID)
		assert.Equal(mt, 2000.0, got.Price)
		assert.Equal(mt, 50, got.DiscountPercent)
		assert.Nil(mt, got.Gender)
		assert.Equal(mt, []string{"eid"}, got.Tags)
	})

	mt.Run("get missing", func(mt *mtest.T) {
		s := NewMongoStoreFromCollection(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "db.products", mtest.FirstBatch))

		_, err := s.Get(ctx, "https://nowhere.pk/products/x")
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("count", func(mt *mtest.T) {
		s := NewMongoStoreFromCollection(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(1, "db.products", mtest.FirstBatch,
			bson.D{{Key: "n", Value: int32(7)}}))

		n, err := s.Count(ctx)
		require.NoError(mt, err)
		assert.EqualValues(mt, 7, n)
	})
}
