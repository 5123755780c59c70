// internal/adapter/storage/product_store.go

package storage

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"trendboard/internal/domain/trend"
)

// ProductStore implements storage for product details
type ProductStore struct {
	products *mongo.Collection
}

// NewProductStore creates a new product store
func NewProductStore(db *mongo.Database, collections Collections) *ProductStore {
	return &ProductStore{
		products: db.Collection(collections.Products),
	}
}

// InsertProducts bulk-inserts product details in one write
func (s *ProductStore) InsertProducts(ctx context.Context, products []trend.Product) error {
	if len(products) == 0 {
		return nil
	}

	docs := make([]interface{}, len(products))
	for i := range products {
		docs[i] = products[i]
	}

	if _, err := s.products.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("error inserting products: %w", err)
	}

	return nil
}

// CountBySource counts matching products per e-commerce source
func (s *ProductStore) CountBySource(ctx context.Context, filter trend.ProductFilter) ([]trend.SourceCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: productFilter(filter)}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$ecommerce"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{
			{Key: "count", Value: -1},
			{Key: "_id", Value: 1},
		}}},
	}

	var counts []trend.SourceCount
	if err := aggregateAll(ctx, s.products, pipeline, &counts); err != nil {
		return nil, fmt.Errorf("error counting products by source: %w", err)
	}

	return counts, nil
}

// CountInBracket counts matching products whose price lies in the bracket
func (s *ProductStore) CountInBracket(ctx context.Context, filter trend.ProductFilter, bracket trend.PriceBracket) (int64, error) {
	price := bson.D{{Key: "$gte", Value: bracket.Min}}
	if !bracket.Unbounded() {
		price = append(price, bson.E{Key: "$lt", Value: bracket.Max})
	}

	query := append(productFilter(filter), bson.E{Key: "price", Value: price})

	count, err := s.products.CountDocuments(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("error counting products in %s: %w", bracket.Label(), err)
	}

	return count, nil
}

// FindTopScored returns up to limit matching products, best score first
func (s *ProductStore) FindTopScored(ctx context.Context, filter trend.ProductFilter, limit int) ([]trend.Product, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "score", Value: -1}}).
		SetLimit(int64(limit)).
		SetProjection(bson.D{{Key: "_id", Value: 0}})

	cursor, err := s.products.Find(ctx, productFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("error querying products: %w", err)
	}
	defer cursor.Close(ctx)

	products := []trend.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("error decoding products: %w", err)
	}

	return products, nil
}

// productFilter builds a query document from the non-empty filter fields
func productFilter(filter trend.ProductFilter) bson.D {
	query := bson.D{}
	if filter.Category != "" {
		query = append(query, bson.E{Key: "category", Value: filter.Category})
	}
	if filter.TrendName != "" {
		query = append(query, bson.E{Key: "trendName", Value: filter.TrendName})
	}
	if filter.Ecommerce != "" {
		query = append(query, bson.E{Key: "ecommerce", Value: filter.Ecommerce})
	}
	return query
}
