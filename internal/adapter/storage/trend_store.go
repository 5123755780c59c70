// internal/adapter/storage/trend_store.go

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"trendboard/internal/domain/trend"
)

// TrendStore implements storage for raw trend pages and unique trend entries
type TrendStore struct {
	rawBatches   *mongo.Collection
	uniqueTrends *mongo.Collection
}

// NewTrendStore creates a new trend store
func NewTrendStore(db *mongo.Database, collections Collections) *TrendStore {
	return &TrendStore{
		rawBatches:   db.Collection(collections.RawBatches),
		uniqueTrends: db.Collection(collections.UniqueTrends),
	}
}

// InsertPage stores one fetched page as a single document and returns its id
func (s *TrendStore) InsertPage(ctx context.Context, page trend.Page) (string, error) {
	res, err := s.rawBatches.InsertOne(ctx, page)
	if err != nil {
		return "", fmt.Errorf("error inserting raw batch: %w", err)
	}

	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		return oid.Hex(), nil
	}
	return fmt.Sprint(res.InsertedID), nil
}

// InsertUniqueTrends bulk-inserts unique trend entries
func (s *TrendStore) InsertUniqueTrends(ctx context.Context, entries []trend.UniqueTrend) error {
	if len(entries) == 0 {
		return nil
	}

	docs := make([]interface{}, len(entries))
	for i := range entries {
		docs[i] = entries[i]
	}

	if _, err := s.uniqueTrends.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("error inserting unique trends: %w", err)
	}

	return nil
}

// EnrichmentCandidates returns every named trend of a category together with
// its image count. Ordering is left to the caller.
func (s *TrendStore) EnrichmentCandidates(ctx context.Context, category string) ([]trend.Candidate, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{
			{Key: "data.category", Value: category},
			{Key: "data.name", Value: bson.D{
				{Key: "$exists", Value: true},
				{Key: "$ne", Value: nil},
			}},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "id", Value: bson.D{{Key: "$toString", Value: "$data.id"}}},
			{Key: "name", Value: "$data.name"},
			{Key: "gender", Value: "$gender"},
			{Key: "imageCount", Value: bson.D{
				{Key: "$size", Value: bson.D{
					{Key: "$ifNull", Value: bson.A{"$data.images", bson.A{}}},
				}},
			}},
		}}},
	}

	var candidates []trend.Candidate
	if err := aggregateAll(ctx, s.uniqueTrends, pipeline, &candidates); err != nil {
		return nil, fmt.Errorf("error querying enrichment candidates: %w", err)
	}

	return candidates, nil
}

// ImageCountsByTrend counts stored images per trend name within a category,
// most images first. A non-empty geography restricts the counted images.
func (s *TrendStore) ImageCountsByTrend(ctx context.Context, category, geography string) ([]trend.ImageCount, error) {
	match := bson.D{{Key: "data.category", Value: category}}
	if geography != "" {
		match = append(match, bson.E{Key: "data.images.geography", Value: geography})
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$unwind", Value: "$data.images"}},
	}

	if geography != "" {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.D{
			{Key: "data.images.geography", Value: geography},
		}}})
	}

	pipeline = append(pipeline,
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$data.name"},
			{Key: "imageCount", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "firstImage", Value: bson.D{{Key: "$first", Value: "$data.images"}}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{
			{Key: "imageCount", Value: -1},
			{Key: "_id", Value: 1},
		}}},
	)

	var counts []trend.ImageCount
	if err := aggregateAll(ctx, s.uniqueTrends, pipeline, &counts); err != nil {
		return nil, fmt.Errorf("error counting images by trend: %w", err)
	}

	return counts, nil
}

// DailyImageCounts counts a trend's images per UTC day since the given instant
func (s *TrendStore) DailyImageCounts(ctx context.Context, name string, since time.Time) ([]trend.DayCount, error) {
	sinceFilter := bson.D{{Key: "$gte", Value: since}}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{
			{Key: "data.name", Value: name},
			{Key: "data.images.timeStamp", Value: sinceFilter},
		}}},
		{{Key: "$unwind", Value: "$data.images"}},
		{{Key: "$match", Value: bson.D{
			{Key: "data.images.timeStamp", Value: sinceFilter},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "date", Value: bson.D{
				{Key: "$dateToString", Value: bson.D{
					{Key: "format", Value: "%Y-%m-%d"},
					{Key: "date", Value: "$data.images.timeStamp"},
				}},
			}},
		}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$date"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}

	var days []trend.DayCount
	if err := aggregateAll(ctx, s.uniqueTrends, pipeline, &days); err != nil {
		return nil, fmt.Errorf("error counting daily images: %w", err)
	}

	return days, nil
}

// CategoriesWithTrends lists each category with its distinct trend names
func (s *TrendStore) CategoriesWithTrends(ctx context.Context) ([]trend.CategoryTrends, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$data.category"},
			{Key: "trends", Value: bson.D{{Key: "$addToSet", Value: "$data.name"}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}

	var categories []trend.CategoryTrends
	if err := aggregateAll(ctx, s.uniqueTrends, pipeline, &categories); err != nil {
		return nil, fmt.Errorf("error listing categories: %w", err)
	}

	return categories, nil
}

// FindByNameAndGender returns the most recently stored entry for a trend
func (s *TrendStore) FindByNameAndGender(ctx context.Context, name, gender string) (*trend.UniqueTrend, error) {
	filter := bson.D{
		{Key: "data.name", Value: name},
		{Key: "gender", Value: gender},
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "_id", Value: -1}})

	var entry trend.UniqueTrend
	if err := s.uniqueTrends.FindOne(ctx, filter, opts).Decode(&entry); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, trend.ErrNotFound
		}
		return nil, fmt.Errorf("error querying trend: %w", err)
	}

	return &entry, nil
}

// aggregateAll runs a pipeline and decodes every result into out
func aggregateAll(ctx context.Context, coll *mongo.Collection, pipeline mongo.Pipeline, out interface{}) error {
	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	return cursor.All(ctx, out)
}
