// internal/domain/trend/service.go

package trend

import (
	"context"
	"time"
)

// Source defines the upstream trends service
type Source interface {
	// FetchTrendPage fetches one page of the trend listing for a gender
	FetchTrendPage(ctx context.Context, page int, gender string, limit int) (*SourcePage, error)

	// FetchProducts fetches the e-commerce listings for one trend
	FetchProducts(ctx context.Context, category, trendID string) ([]Product, error)
}

// SyncResult describes a finished trend catalog sync
type SyncResult struct {
	Message    string `json:"message"`
	DocumentID string `json:"document_id"`
	Pages      int    `json:"pages"`
}

// EnrichResult describes a finished product enrichment
type EnrichResult struct {
	Message  string `json:"message"`
	Trends   int    `json:"trends"`
	Products int    `json:"products"`
}

// Ingester defines the write side: catalog sync and product enrichment
type Ingester interface {
	// SyncTrends pulls every page of the trend catalog for a gender and stores it
	SyncTrends(ctx context.Context, gender string) (*SyncResult, error)

	// EnrichCategory fetches and stores products for the top trends of a category
	EnrichCategory(ctx context.Context, category string) (*EnrichResult, error)
}

// Analytics defines the read side used by the dashboard
type Analytics interface {
	// TopTrends ranks trends of a category by image count
	TopTrends(ctx context.Context, category string, topN int, geography string) ([]TopTrend, error)

	// TimeSeries counts a trend's images per day over the last windowDays days
	TimeSeries(ctx context.Context, trendName string, windowDays int) ([]DayCount, error)

	// Contribution breaks products down by e-commerce source
	Contribution(ctx context.Context, category, trendName string) (*ContributionReport, error)

	// PriceBrackets counts products per fixed price bracket
	PriceBrackets(ctx context.Context, trendName, ecommerce string) ([]BracketCount, error)

	// Products lists the best scored products for a trend and source
	Products(ctx context.Context, trendName, ecommerce string, count int) ([]Product, error)

	// Categories lists each category with its trend names
	Categories(ctx context.Context) ([]CategoryTrends, error)

	// TrendByNameAndGender returns the latest stored entry for a trend
	TrendByNameAndGender(ctx context.Context, name, gender string) (*UniqueTrend, error)

	// Runs lists recent ingestion runs
	Runs(ctx context.Context, limit int) ([]Run, error)
}

// RunRecorder persists the ingestion run ledger
type RunRecorder interface {
	StartRun(ctx context.Context, run Run) error
	FinishRun(ctx context.Context, run Run) error
	ListRuns(ctx context.Context, limit int) ([]Run, error)
}

// EventPublisher broadcasts pipeline progress
type EventPublisher interface {
	Publish(subject string, payload interface{}) error
}

// Event subjects, relative to the configured events topic
const (
	EventIngestPage      = "ingest.page"
	EventIngestCompleted = "ingest.completed"
	EventIngestFailed    = "ingest.failed"
	EventEnrichTrend     = "enrich.trend"
	EventEnrichCompleted = "enrich.completed"
	EventEnrichFailed    = "enrich.failed"
)

// Event is the payload published for pipeline progress
type Event struct {
	RunID     string    `json:"run_id"`
	Kind      RunKind   `json:"kind"`
	Scope     string    `json:"scope"`
	Page      int       `json:"page,omitempty"`
	TrendName string    `json:"trend_name,omitempty"`
	Documents int       `json:"documents,omitempty"`
	Error     string    `json:"error,omitempty"`
	Time      time.Time `json:"time"`
}
