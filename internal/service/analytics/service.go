// internal/service/analytics/service.go

package analytics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"trendboard/internal/domain/trend"
)

const (
	defaultRunLimit = 20
	maxRunLimit     = 200
)

// TrendReader defines the read side of trend storage
type TrendReader interface {
	ImageCountsByTrend(ctx context.Context, category, geography string) ([]trend.ImageCount, error)
	DailyImageCounts(ctx context.Context, name string, since time.Time) ([]trend.DayCount, error)
	CategoriesWithTrends(ctx context.Context) ([]trend.CategoryTrends, error)
	FindByNameAndGender(ctx context.Context, name, gender string) (*trend.UniqueTrend, error)
}

// ProductReader defines the read side of product storage
type ProductReader interface {
	CountBySource(ctx context.Context, filter trend.ProductFilter) ([]trend.SourceCount, error)
	CountInBracket(ctx context.Context, filter trend.ProductFilter, bracket trend.PriceBracket) (int64, error)
	FindTopScored(ctx context.Context, filter trend.ProductFilter, limit int) ([]trend.Product, error)
}

// RunLister lists recorded ingestion runs
type RunLister interface {
	ListRuns(ctx context.Context, limit int) ([]trend.Run, error)
}

// Config contains configuration for the query layer
type Config struct {
	MaxProductCount int
}

// Service implements the trend.Analytics interface
type Service struct {
	trends   TrendReader
	products ProductReader
	runs     RunLister
	config   Config
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates a new analytics service. runs may be nil when the run
// ledger is disabled.
func NewService(trends TrendReader, products ProductReader, runs RunLister, config Config, logger *zap.Logger) *Service {
	return &Service{
		trends:   trends,
		products: products,
		runs:     runs,
		config:   config,
		logger:   logger.Named("analytics"),
		now:      time.Now,
	}
}

// TopTrends ranks the category's trends by image count and gives each its
// share of all images in the category. With a geography both the counts and
// the total cover only images from that geography.
func (s *Service) TopTrends(ctx context.Context, category string, topN int, geography string) ([]trend.TopTrend, error) {
	if err := required("category", category); err != nil {
		return nil, err
	}
	if topN < 1 {
		return nil, trend.Invalid("top_n", "must be at least 1")
	}

	counts, err := s.trends.ImageCountsByTrend(ctx, category, strings.TrimSpace(geography))
	if err != nil {
		return nil, fmt.Errorf("error ranking trends for %s: %w", category, err)
	}

	total := 0
	for _, c := range counts {
		total += c.ImageCount
	}

	s.logger.Debug("Ranked trends",
		zap.String("category", category),
		zap.Int("trends", len(counts)),
		zap.Int("images", total),
	)

	if len(counts) > topN {
		counts = counts[:topN]
	}

	top := make([]trend.TopTrend, 0, len(counts))
	for _, c := range counts {
		top = append(top, trend.TopTrend{
			Name:                   c.Name,
			ImageCount:             c.ImageCount,
			PercentageDistribution: percentage(c.ImageCount, total),
			FirstImage:             c.FirstImage,
		})
	}

	return top, nil
}

// TimeSeries counts the trend's images per UTC day over the last windowDays days
func (s *Service) TimeSeries(ctx context.Context, trendName string, windowDays int) ([]trend.DayCount, error) {
	if err := required("trend_name", trendName); err != nil {
		return nil, err
	}
	if windowDays < 1 {
		return nil, trend.Invalid("timewindow", "must be at least 1 day")
	}

	since := s.now().UTC().Add(-time.Duration(windowDays) * 24 * time.Hour)

	days, err := s.trends.DailyImageCounts(ctx, trendName, since)
	if err != nil {
		return nil, fmt.Errorf("error building time series for %s: %w", trendName, err)
	}
	if days == nil {
		days = []trend.DayCount{}
	}

	return days, nil
}

// Contribution gives each e-commerce source's share of the category's
// products and, when trendName is set, of that trend's products
func (s *Service) Contribution(ctx context.Context, category, trendName string) (*trend.ContributionReport, error) {
	if err := required("category", category); err != nil {
		return nil, err
	}

	report := &trend.ContributionReport{
		Category:                   category,
		TrendName:                  trendName,
		CategoryLevelContributions: []trend.Contribution{},
		TrendLevelContributions:    []trend.Contribution{},
	}

	categoryCounts, err := s.products.CountBySource(ctx, trend.ProductFilter{Category: category})
	if err != nil {
		return nil, fmt.Errorf("error counting products for %s: %w", category, err)
	}
	report.CategoryLevelContributions = shares(categoryCounts)

	if trendName != "" {
		trendCounts, err := s.products.CountBySource(ctx, trend.ProductFilter{Category: category, TrendName: trendName})
		if err != nil {
			return nil, fmt.Errorf("error counting products for %s/%s: %w", category, trendName, err)
		}
		report.TrendLevelContributions = shares(trendCounts)
	}

	return report, nil
}

// PriceBrackets counts the trend's products from one source in each fixed
// price bracket
func (s *Service) PriceBrackets(ctx context.Context, trendName, ecommerce string) ([]trend.BracketCount, error) {
	if err := required("trendName", trendName); err != nil {
		return nil, err
	}
	if err := required("ecommerce", ecommerce); err != nil {
		return nil, err
	}

	filter := trend.ProductFilter{TrendName: trendName, Ecommerce: ecommerce}
	brackets := trend.DefaultPriceBrackets()
	counts := make([]trend.BracketCount, 0, len(brackets))

	for _, b := range brackets {
		n, err := s.products.CountInBracket(ctx, filter, b)
		if err != nil {
			return nil, fmt.Errorf("error counting %s: %w", b.Label(), err)
		}

		bc := trend.BracketCount{Label: b.Label(), Min: b.Min, Count: n}
		if !b.Unbounded() {
			upper := b.Max
			bc.Max = &upper
		}
		counts = append(counts, bc)
	}

	return counts, nil
}

// Products lists up to count of the trend's products from one source, best
// score first
func (s *Service) Products(ctx context.Context, trendName, ecommerce string, count int) ([]trend.Product, error) {
	if err := required("trendName", trendName); err != nil {
		return nil, err
	}
	if err := required("ecommerce", ecommerce); err != nil {
		return nil, err
	}
	if count < 1 {
		return nil, trend.Invalid("count", "must be at least 1")
	}
	if s.config.MaxProductCount > 0 && count > s.config.MaxProductCount {
		count = s.config.MaxProductCount
	}

	products, err := s.products.FindTopScored(ctx, trend.ProductFilter{TrendName: trendName, Ecommerce: ecommerce}, count)
	if err != nil {
		return nil, fmt.Errorf("error listing products for %s: %w", trendName, err)
	}

	return products, nil
}

// Categories lists each stored category with its trend names
func (s *Service) Categories(ctx context.Context) ([]trend.CategoryTrends, error) {
	categories, err := s.trends.CategoriesWithTrends(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing categories: %w", err)
	}
	if categories == nil {
		categories = []trend.CategoryTrends{}
	}
	return categories, nil
}

// TrendByNameAndGender returns the newest stored entry for the pair
func (s *Service) TrendByNameAndGender(ctx context.Context, name, gender string) (*trend.UniqueTrend, error) {
	if err := required("trend_name", name); err != nil {
		return nil, err
	}
	if err := required("gender", gender); err != nil {
		return nil, err
	}

	entry, err := s.trends.FindByNameAndGender(ctx, name, gender)
	if err != nil {
		return nil, fmt.Errorf("error looking up %s (%s): %w", name, gender, err)
	}

	return entry, nil
}

// Runs lists recent ingestion runs, newest first
func (s *Service) Runs(ctx context.Context, limit int) ([]trend.Run, error) {
	if s.runs == nil {
		return []trend.Run{}, nil
	}

	if limit <= 0 {
		limit = defaultRunLimit
	}
	if limit > maxRunLimit {
		limit = maxRunLimit
	}

	runs, err := s.runs.ListRuns(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing runs: %w", err)
	}

	return runs, nil
}

// shares converts per-source counts into percentages of their sum. A zero
// sum gives an empty breakdown.
func shares(counts []trend.SourceCount) []trend.Contribution {
	total := 0
	for _, c := range counts {
		total += c.Count
	}

	out := []trend.Contribution{}
	if total == 0 {
		return out
	}

	for _, c := range counts {
		out = append(out, trend.Contribution{
			Ecommerce:              c.Ecommerce,
			PercentageContribution: percentage(c.Count, total),
		})
	}
	return out
}

func percentage(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return trend.Invalid(field, "must not be empty")
	}
	return nil
}
