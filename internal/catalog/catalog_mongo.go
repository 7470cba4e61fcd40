package catalog

import (
	"context"
	"fmt"

	"github.com/Alp4ka/keyset"
	"github.com/Alp4ka/keyset/internal/config"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type mongoCatalog struct {
	client *mongo.Client
	coll   *mongo.Collection
	pager  *keyset.Pager[Document]
}

func openMongo(ctx context.Context, store config.Store, log logrus.FieldLogger, opts ...keyset.Option) (Catalog, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(store.DSN))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err = client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	coll := client.Database(store.Database).Collection(store.Collection)
	if err = ensureIndexes(ctx, coll); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"database":   store.Database,
		"collection": store.Collection,
	}).Info("connected to MongoDB")

	opts = append(opts, keyset.WithIDField("id", "_id"))

	return &mongoCatalog{
		client: client,
		coll:   coll,
		pager:  keyset.NewPager[Document](keyset.NewMongoStore[Document](coll), keyset.ObjectIDCodec{}, documentGetters, opts...),
	}, nil
}

// ensureIndexes creates the indexes backing the sort keys and the category
// filter.
func ensureIndexes(ctx context.Context, coll *mongo.Collection) error {
	_, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "price", Value: 1}, {Key: "_id", Value: 1}}},
		{Keys: bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}},
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "price", Value: 1}, {Key: "_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

func (c *mongoCatalog) Page(ctx context.Context, req keyset.Request) (any, error) {
	return c.pager.Paginate(ctx, req)
}

// Seed replaces the collection contents. Identifiers are generated in
// insertion order so that the identifier order follows the product order.
func (c *mongoCatalog) Seed(ctx context.Context, products []Product) error {
	if _, err := c.coll.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("failed to clear products: %w", err)
	}

	if len(products) == 0 {
		return nil
	}

	docs := lo.Map(products, func(p Product, _ int) any { return toDocument(p) })
	if _, err := c.coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert products: %w", err)
	}

	return nil
}

func toDocument(p Product) Document {
	return Document{
		ID:       primitive.NewObjectID(),
		Name:     p.Name,
		Category: p.Category,
		Price:    p.Price,
		InStock:  p.InStock,
	}
}

func (c *mongoCatalog) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, readpref.Primary())
}

func (c *mongoCatalog) Close() error {
	return c.client.Disconnect(context.Background())
}
