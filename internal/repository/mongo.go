package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vitor-labes/catalogue-scraper/internal/domain"
)

type productDocument struct {
	domain.Product `bson:",inline"`
	ScrapedAt      time.Time `bson:"scraped_at"`
}

type MongoRepository struct {
	client   *mongo.Client
	products *mongo.Collection
}

func NewMongoRepository(ctx context.Context, uri, database, collection string) (*MongoRepository, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	coll := client.Database(database).Collection(collection)

	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "name", Value: 1}, {Key: "scraped_at", Value: -1}},
	})
	if err != nil {
		slog.Warn("failed to create product index", "error", err)
	}

	slog.Info("connected to MongoDB", "database", database, "collection", collection)

	return &MongoRepository{client: client, products: coll}, nil
}

func (m *MongoRepository) Save(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}

	scrapedAt := time.Now().UTC()
	docs := make([]interface{}, 0, len(products))
	for _, p := range products {
		docs = append(docs, productDocument{Product: p, ScrapedAt: scrapedAt})
	}

	if _, err := m.products.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert products: %w", err)
	}

	slog.Info("products saved to MongoDB", "total_products", len(products))
	return nil
}

func (m *MongoRepository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}
