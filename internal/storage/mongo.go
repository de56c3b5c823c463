package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lukman83/pkdeals/internal/models"
)

// MongoStore keeps products as documents in one collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// productDocument adds the server-assigned _id to a product.
type productDocument struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	models.Product `bson:",inline"`
}

// NewMongoStore connects to uri and verifies the connection.
func NewMongoStore(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	const op = "storage.NewMongoStore"

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	opts := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(20).
		SetMaxConnIdleTime(5 * time.Minute).
		SetRetryWrites(true)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: connect: %w", op, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%s: ping: %w", op, err)
	}

	slog.Info("connected to mongodb", "op", op, "database", database, "collection", collection)
	return &MongoStore{client: client, coll: client.Database(database).Collection(collection)}, nil
}

// NewMongoStoreFromCollection wraps a collection whose client is owned by
// the caller. Close is then a no-op.
func NewMongoStoreFromCollection(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	const op = "storage.MongoStore.EnsureIndexes"

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "brand", Value: 1}}, Options: options.Index().SetName(IndexBrand)},
		{Keys: bson.D{{Key: "discount_percent", Value: 1}}, Options: options.Index().SetName(IndexDiscount)},
		{
			Keys:    bson.D{{Key: "gender", Value: 1}, {Key: "category", Value: 1}},
			Options: options.Index().SetName(IndexGenderCategory),
		},
		{Keys: bson.D{{Key: "source", Value: 1}}, Options: options.Index().SetName(IndexSource)},
		{
			// Only string urls take part, so documents lacking a url never collide.
			Keys: bson.D{{Key: "url", Value: 1}},
			Options: options.Index().
				SetName(IndexURLUnique).
				SetUnique(true).
				SetPartialFilterExpression(bson.D{{Key: "url", Value: bson.D{{Key: "$type", Value: "string"}}}}),
		},
	}

	if _, err := s.coll.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Upsert replaces the whole document matching p.URL. The stored _id of an
// existing document survives the replacement.
func (s *MongoStore) Upsert(ctx context.Context, p *models.Product) error {
	const op = "storage.MongoStore.Upsert"

	res, err := s.coll.ReplaceOne(ctx,
		bson.D{{Key: "url", Value: p.URL}},
		p,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if id, ok := res.UpsertedID.(primitive.ObjectID); ok {
		p.ID = id.Hex()
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, url string) (*models.Product, error) {
	const op = "storage.MongoStore.Get"

	var doc productDocument
	err := s.coll.FindOne(ctx, bson.D{{Key: "url", Value: url}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	p := doc.Product
	p.ID = doc.ID.Hex()
	return &p, nil
}

func (s *MongoStore) Count(ctx context.Context) (int64, error) {
	n, err := s.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("storage.MongoStore.Count: %w", err)
	}
	return n, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}
