// internal/adapter/storage/mongo.go

package storage

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"trendboard/internal/config"
)

// Collections names the collections the stores write to
type Collections struct {
	RawBatches   string
	UniqueTrends string
	Products     string
}

// CollectionsFromConfig reads collection names from configuration
func CollectionsFromConfig(cfg config.MongoConfig) Collections {
	return Collections{
		RawBatches:   cfg.RawBatchCollection,
		UniqueTrends: cfg.UniqueTrendCollection,
		Products:     cfg.ProductCollection,
	}
}

// ConnectMongo opens the pooled document store client. The client is meant to
// live for the whole process and be shared by every store.
func ConnectMongo(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetMinPoolSize(cfg.MinPoolSize).
		SetConnectTimeout(cfg.ConnectTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("unable to ping mongo: %w", err)
	}

	return client, nil
}
