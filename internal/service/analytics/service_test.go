package analytics

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"trendboard/internal/domain/trend"
)

type fakeTrendReader struct {
	counts     []trend.ImageCount
	days       []trend.DayCount
	categories []trend.CategoryTrends
	entry      *trend.UniqueTrend
	err        error

	gotGeography string
	gotSince     time.Time
}

func (f *fakeTrendReader) ImageCountsByTrend(ctx context.Context, category, geography string) ([]trend.ImageCount, error) {
	f.gotGeography = geography
	return f.counts, f.err
}

func (f *fakeTrendReader) DailyImageCounts(ctx context.Context, name string, since time.Time) ([]trend.DayCount, error) {
	f.gotSince = since
	return f.days, f.err
}

func (f *fakeTrendReader) CategoriesWithTrends(ctx context.Context) ([]trend.CategoryTrends, error) {
	return f.categories, f.err
}

func (f *fakeTrendReader) FindByNameAndGender(ctx context.Context, name, gender string) (*trend.UniqueTrend, error) {
	if f.entry == nil {
		return nil, trend.ErrNotFound
	}
	return f.entry, nil
}

type fakeProductReader struct {
	bySource map[string][]trend.SourceCount
	prices   []float64
	products []trend.Product
	err      error

	gotLimit   int
	gotFilters []trend.ProductFilter
}

func filterKey(f trend.ProductFilter) string {
	return f.Category + "|" + f.TrendName + "|" + f.Ecommerce
}

func (f *fakeProductReader) CountBySource(ctx context.Context, filter trend.ProductFilter) ([]trend.SourceCount, error) {
	f.gotFilters = append(f.gotFilters, filter)
	return f.bySource[filterKey(filter)], f.err
}

func (f *fakeProductReader) CountInBracket(ctx context.Context, filter trend.ProductFilter, bracket trend.PriceBracket) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	var n int64
	for _, p := range f.prices {
		if bracket.Contains(p) {
			n++
		}
	}
	return n, nil
}

func (f *fakeProductReader) FindTopScored(ctx context.Context, filter trend.ProductFilter, limit int) ([]trend.Product, error) {
	f.gotLimit = limit
	return f.products, f.err
}

func newTestService(trends *fakeTrendReader, products *fakeProductReader) *Service {
	s := NewService(trends, products, nil, Config{MaxProductCount: 50}, zap.NewNop())
	s.now = func() time.Time { return time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC) }
	return s
}

func TestTopTrendsPercentagesSumTo100(t *testing.T) {
	trends := &fakeTrendReader{counts: []trend.ImageCount{
		{Name: "Cargo Pants", ImageCount: 6},
		{Name: "Wide Leg", ImageCount: 3},
		{Name: "Flared", ImageCount: 1},
	}}
	s := newTestService(trends, &fakeProductReader{})

	top, err := s.TopTrends(context.Background(), "bottomwear", 3, "")
	require.NoError(t, err)
	require.Len(t, top, 3)

	sum := 0.0
	for _, tt := range top {
		sum += tt.PercentageDistribution
	}
	assert.InDelta(t, 100, sum, 1e-9)
	assert.InDelta(t, 60, top[0].PercentageDistribution, 1e-9)
}

func TestTopTrendsShareOfWholeCategory(t *testing.T) {
	trends := &fakeTrendReader{counts: []trend.ImageCount{
		{Name: "a", ImageCount: 5},
		{Name: "b", ImageCount: 3},
		{Name: "c", ImageCount: 2},
	}}
	s := newTestService(trends, &fakeProductReader{})

	top, err := s.TopTrends(context.Background(), "tops", 1, " IN ")
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.InDelta(t, 50, top[0].PercentageDistribution, 1e-9)
	assert.Equal(t, "IN", trends.gotGeography)
}

func TestTopTrendsGeographyShares(t *testing.T) {
	trends := &fakeTrendReader{counts: []trend.ImageCount{
		{Name: "Cargo Pants", ImageCount: 3},
		{Name: "Wide Leg", ImageCount: 1},
	}}
	s := newTestService(trends, &fakeProductReader{})

	top, err := s.TopTrends(context.Background(), "bottomwear", 10, "IN")
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "IN", trends.gotGeography)

	// the store returns geography-filtered counts; the total is their sum
	assert.InDelta(t, 75, top[0].PercentageDistribution, 1e-9)
	assert.InDelta(t, 25, top[1].PercentageDistribution, 1e-9)
}

func TestTopTrendsZeroTotal(t *testing.T) {
	trends := &fakeTrendReader{counts: []trend.ImageCount{{Name: "a", ImageCount: 0}}}
	s := newTestService(trends, &fakeProductReader{})

	top, err := s.TopTrends(context.Background(), "tops", 5, "")
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Zero(t, top[0].PercentageDistribution)
	assert.False(t, math.IsNaN(top[0].PercentageDistribution))
}

func TestTopTrendsEmptyCategory(t *testing.T) {
	s := newTestService(&fakeTrendReader{}, &fakeProductReader{})

	top, err := s.TopTrends(context.Background(), "tops", 5, "")
	require.NoError(t, err)
	assert.NotNil(t, top)
	assert.Empty(t, top)
}

func TestTopTrendsValidation(t *testing.T) {
	s := newTestService(&fakeTrendReader{}, &fakeProductReader{})

	_, err := s.TopTrends(context.Background(), "", 5, "")
	var validation *trend.ValidationError
	require.True(t, errors.As(err, &validation))
	assert.Equal(t, "category", validation.Field)

	_, err = s.TopTrends(context.Background(), "tops", 0, "")
	require.True(t, errors.As(err, &validation))
	assert.Equal(t, "top_n", validation.Field)
}

func TestTimeSeriesWindow(t *testing.T) {
	trends := &fakeTrendReader{days: []trend.DayCount{{Date: "2024-03-09", Count: 4}}}
	s := newTestService(trends, &fakeProductReader{})

	days, err := s.TimeSeries(context.Background(), "Cargo Pants", 7)
	require.NoError(t, err)
	assert.Equal(t, trends.days, days)
	assert.Equal(t, time.Date(2024, 3, 3, 8, 0, 0, 0, time.UTC), trends.gotSince)
}

func TestTimeSeriesValidation(t *testing.T) {
	s := newTestService(&fakeTrendReader{}, &fakeProductReader{})

	_, err := s.TimeSeries(context.Background(), "Cargo Pants", 0)
	var validation *trend.ValidationError
	require.True(t, errors.As(err, &validation))
	assert.Equal(t, "timewindow", validation.Field)

	days, err := s.TimeSeries(context.Background(), "Cargo Pants", 1)
	require.NoError(t, err)
	assert.NotNil(t, days)
}

func TestContribution(t *testing.T) {
	products := &fakeProductReader{bySource: map[string][]trend.SourceCount{
		"tops||":     {{Ecommerce: "Myntra", Count: 3}, {Ecommerce: "Ajio", Count: 1}},
		"tops|Tank|": {{Ecommerce: "Ajio", Count: 2}},
	}}
	s := newTestService(&fakeTrendReader{}, products)

	report, err := s.Contribution(context.Background(), "tops", "Tank")
	require.NoError(t, err)

	assert.Equal(t, []trend.Contribution{
		{Ecommerce: "Myntra", PercentageContribution: 75},
		{Ecommerce: "Ajio", PercentageContribution: 25},
	}, report.CategoryLevelContributions)
	assert.Equal(t, []trend.Contribution{
		{Ecommerce: "Ajio", PercentageContribution: 100},
	}, report.TrendLevelContributions)
}

func TestContributionWithoutTrend(t *testing.T) {
	products := &fakeProductReader{}
	s := newTestService(&fakeTrendReader{}, products)

	report, err := s.Contribution(context.Background(), "tops", "")
	require.NoError(t, err)

	assert.Empty(t, report.CategoryLevelContributions)
	assert.NotNil(t, report.TrendLevelContributions)
	assert.Len(t, products.gotFilters, 1, "trend level is not queried")
}

func TestSharesZeroTotal(t *testing.T) {
	out := shares([]trend.SourceCount{{Ecommerce: "Ajio", Count: 0}})
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestPriceBracketsPartition(t *testing.T) {
	prices := []float64{0, 999.99, 1000, 1999, 2500, 3000, 4999.5, 5000, 12000, 250000}
	s := newTestService(&fakeTrendReader{}, &fakeProductReader{prices: prices})

	counts, err := s.PriceBrackets(context.Background(), "Tank", "Ajio")
	require.NoError(t, err)
	require.Len(t, counts, 6)

	var total int64
	for _, c := range counts {
		total += c.Count
	}
	assert.Equal(t, int64(len(prices)), total)

	assert.Equal(t, "INR 0-1000", counts[0].Label)
	assert.Equal(t, int64(2), counts[0].Count)
	require.NotNil(t, counts[0].Max)
	assert.Equal(t, 1000.0, *counts[0].Max)

	assert.Equal(t, "INR 5000-inf", counts[5].Label)
	assert.Nil(t, counts[5].Max)
	assert.Equal(t, int64(3), counts[5].Count)
}

func TestProductsCapsCount(t *testing.T) {
	products := &fakeProductReader{products: []trend.Product{{"id": "p1"}}}
	s := newTestService(&fakeTrendReader{}, products)

	out, err := s.Products(context.Background(), "Tank", "Ajio", 1000)
	require.NoError(t, err)
	assert.Len(t, out, 1)
	assert.Equal(t, 50, products.gotLimit)

	_, err = s.Products(context.Background(), "Tank", "Ajio", 0)
	var validation *trend.ValidationError
	require.True(t, errors.As(err, &validation))
	assert.Equal(t, "count", validation.Field)
}

func TestTrendByNameAndGenderNotFound(t *testing.T) {
	s := newTestService(&fakeTrendReader{}, &fakeProductReader{})

	_, err := s.TrendByNameAndGender(context.Background(), "Tank", "men")
	assert.ErrorIs(t, err, trend.ErrNotFound)
}

func TestCategoriesNeverNil(t *testing.T) {
	s := newTestService(&fakeTrendReader{}, &fakeProductReader{})

	categories, err := s.Categories(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, categories)
}

type fakeRunLister struct {
	gotLimit int
}

func (f *fakeRunLister) ListRuns(ctx context.Context, limit int) ([]trend.Run, error) {
	f.gotLimit = limit
	return []trend.Run{{ID: "r1"}}, nil
}

func TestRuns(t *testing.T) {
	s := newTestService(&fakeTrendReader{}, &fakeProductReader{})
	runs, err := s.Runs(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, runs, "no ledger configured")

	lister := &fakeRunLister{}
	s.runs = lister

	_, err = s.Runs(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, defaultRunLimit, lister.gotLimit)

	_, err = s.Runs(context.Background(), 10000)
	require.NoError(t, err)
	assert.Equal(t, maxRunLimit, lister.gotLimit)
}
