// internal/service/ingest/pipeline.go

package ingest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"trendboard/internal/domain/trend"
	"trendboard/internal/metrics"
)

const (
	MessageTrendsSaved   = "Data saved to MongoDB"
	MessageNoTrends      = "No trends available for gender"
	MessageProductsSaved = "Product details saved to MongoDB"
	MessageNoCandidates  = "No trends available for category"
)

// TrendStore defines storage for fetched trend pages
type TrendStore interface {
	InsertPage(ctx context.Context, page trend.Page) (string, error)
	InsertUniqueTrends(ctx context.Context, entries []trend.UniqueTrend) error
	EnrichmentCandidates(ctx context.Context, category string) ([]trend.Candidate, error)
}

// ProductStore defines storage for product details
type ProductStore interface {
	InsertProducts(ctx context.Context, products []trend.Product) error
}

// PipelineConfig contains configuration for the pipeline
type PipelineConfig struct {
	PageSize   int
	EnrichTopN int
}

// Pipeline implements the trend.Ingester interface
type Pipeline struct {
	source    trend.Source
	trends    TrendStore
	products  ProductStore
	pacer     Pacer
	recorder  trend.RunRecorder
	publisher trend.EventPublisher
	metrics   *metrics.Metrics
	logger    *zap.Logger
	config    PipelineConfig
	now       func() time.Time
}

// NewPipeline creates a new ingestion pipeline. recorder and publisher may be
// nil when the run ledger or event bus is not configured.
func NewPipeline(
	source trend.Source,
	trends TrendStore,
	products ProductStore,
	pacer Pacer,
	recorder trend.RunRecorder,
	publisher trend.EventPublisher,
	m *metrics.Metrics,
	logger *zap.Logger,
	config PipelineConfig,
) *Pipeline {
	if config.PageSize <= 0 {
		config.PageSize = 20
	}
	if config.EnrichTopN <= 0 {
		config.EnrichTopN = 10
	}

	return &Pipeline{
		source:    source,
		trends:    trends,
		products:  products,
		pacer:     pacer,
		recorder:  recorder,
		publisher: publisher,
		metrics:   m,
		logger:    logger.Named("ingest"),
		config:    config,
		now:       time.Now,
	}
}

// SyncTrends pulls every page of the trend catalog for a gender and stores
// each page followed by its unique trend entries
func (p *Pipeline) SyncTrends(ctx context.Context, gender string) (*trend.SyncResult, error) {
	gender = strings.TrimSpace(gender)
	if gender == "" {
		return nil, trend.Invalid("gender", "must not be empty")
	}

	run := p.startRun(ctx, trend.RunKindTrends, gender)
	result, err := p.syncTrends(ctx, gender, run)
	p.finishRun(ctx, run, err)

	return result, err
}

func (p *Pipeline) syncTrends(ctx context.Context, gender string, run *trend.Run) (*trend.SyncResult, error) {
	log := p.logger.With(zap.String("run_id", run.ID), zap.String("gender", gender))

	first, err := p.fetchPage(ctx, 1, gender)
	if err != nil {
		return nil, err
	}

	numPages := pageCount(first.Count, p.config.PageSize)
	if numPages == 0 {
		log.Info("Upstream reported no trends")
		return &trend.SyncResult{Message: MessageNoTrends}, nil
	}

	log.Info("Starting trend sync", zap.Int("count", first.Count), zap.Int("pages", numPages))

	var lastID string
	for page := 1; page <= numPages; page++ {
		src := first
		if page > 1 {
			src, err = p.fetchPage(ctx, page, gender)
			if err != nil {
				return nil, err
			}
		}

		id, stored, err := p.storePage(ctx, src, gender, page, log)
		if err != nil {
			return nil, err
		}

		lastID = id
		run.Pages++
		run.Documents += stored

		p.publish(trend.EventIngestPage, trend.Event{
			RunID:     run.ID,
			Kind:      run.Kind,
			Scope:     gender,
			Page:      page,
			Documents: stored,
			Time:      p.now(),
		})
	}

	log.Info("Trend sync complete", zap.Int("pages", run.Pages), zap.String("document_id", lastID))

	return &trend.SyncResult{
		Message:    MessageTrendsSaved,
		DocumentID: lastID,
		Pages:      run.Pages,
	}, nil
}

func (p *Pipeline) fetchPage(ctx context.Context, page int, gender string) (*trend.SourcePage, error) {
	src, err := p.source.FetchTrendPage(ctx, page, gender, p.config.PageSize)
	if err != nil {
		p.metrics.UpstreamErrorsTotal.WithLabelValues("trend_page").Inc()
		return nil, fmt.Errorf("error fetching page %d: %w", page, err)
	}
	return src, nil
}

// storePage writes the raw batch and its unique entries, returning the raw
// batch id and the number of unique entries written
func (p *Pipeline) storePage(ctx context.Context, src *trend.SourcePage, gender string, page int, log *zap.Logger) (string, int, error) {
	records := normalizeRecords(src.Data, gender, func(dataErr *trend.DataError) {
		p.metrics.MalformedFieldsTotal.WithLabelValues(dataErr.Field).Inc()
		log.Warn("Malformed field nulled",
			zap.Int("page", page),
			zap.String("field", dataErr.Field),
			zap.String("value", dataErr.Value),
		)
	})

	id, err := p.trends.InsertPage(ctx, trend.Page{
		Count:     src.Count,
		Data:      records,
		Gender:    gender,
		Page:      page,
		FetchedAt: p.now().UTC(),
	})
	if err != nil {
		return "", 0, fmt.Errorf("error storing page %d: %w", page, err)
	}
	p.metrics.PagesIngestedTotal.WithLabelValues(gender).Inc()

	entries := collapseByName(records, gender, func(r trend.Document) {
		p.metrics.MalformedFieldsTotal.WithLabelValues("name").Inc()
		log.Warn("Skipping unnamed trend record", zap.Int("page", page), zap.String("trend_id", r.String("id")))
	})

	if err := p.trends.InsertUniqueTrends(ctx, entries); err != nil {
		return "", 0, fmt.Errorf("error storing unique trends for page %d: %w", page, err)
	}
	p.metrics.TrendsStoredTotal.WithLabelValues(gender).Add(float64(len(entries)))

	log.Debug("Stored page", zap.Int("page", page), zap.Int("records", len(records)), zap.Int("unique", len(entries)))

	return id, len(entries), nil
}

// EnrichCategory fetches and stores products for the category's trends with
// the most images. Trends are processed one at a time through the pacer and
// processing stops at the first failure.
func (p *Pipeline) EnrichCategory(ctx context.Context, category string) (*trend.EnrichResult, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, trend.Invalid("category", "must not be empty")
	}

	run := p.startRun(ctx, trend.RunKindProducts, category)
	result, err := p.enrichCategory(ctx, category, run)
	p.finishRun(ctx, run, err)

	return result, err
}

func (p *Pipeline) enrichCategory(ctx context.Context, category string, run *trend.Run) (*trend.EnrichResult, error) {
	log := p.logger.With(zap.String("run_id", run.ID), zap.String("category", category))

	candidates, err := p.trends.EnrichmentCandidates(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("error loading trends for %s: %w", category, err)
	}

	selected := selectTop(candidates, p.config.EnrichTopN)
	if len(selected) == 0 {
		log.Info("No stored trends to enrich")
		return &trend.EnrichResult{Message: MessageNoCandidates}, nil
	}

	log.Info("Starting product enrichment", zap.Int("candidates", len(candidates)), zap.Int("selected", len(selected)))

	result := &trend.EnrichResult{Message: MessageProductsSaved}
	for _, c := range selected {
		if err := p.pacer.Wait(ctx); err != nil {
			return nil, fmt.Errorf("error waiting to fetch products for %s: %w", c.Name, err)
		}

		count, err := p.enrichTrend(ctx, category, c)
		if err != nil {
			log.Error("Product enrichment stopped", zap.String("trend", c.Name), zap.Error(err))
			return nil, err
		}

		result.Trends++
		result.Products += count
		run.Pages++
		run.Documents += count

		p.publish(trend.EventEnrichTrend, trend.Event{
			RunID:     run.ID,
			Kind:      run.Kind,
			Scope:     category,
			TrendName: c.Name,
			Documents: count,
			Time:      p.now(),
		})
	}

	log.Info("Product enrichment complete", zap.Int("trends", result.Trends), zap.Int("products", result.Products))

	return result, nil
}

func (p *Pipeline) enrichTrend(ctx context.Context, category string, c trend.Candidate) (int, error) {
	products, err := p.source.FetchProducts(ctx, category, c.ID)
	if err != nil {
		p.metrics.UpstreamErrorsTotal.WithLabelValues("products").Inc()
		return 0, fmt.Errorf("error fetching products for %s: %w", c.Name, err)
	}

	stored := make([]trend.Product, 0, len(products))
	for _, product := range products {
		if product == nil {
			continue
		}
		product[trend.ProductCategory] = category
		product[trend.ProductTrendID] = c.ID
		product[trend.ProductTrendName] = c.Name
		product[trend.ProductTrendGender] = c.Gender
		stored = append(stored, product)
	}

	if len(stored) == 0 {
		return 0, nil
	}

	if err := p.products.InsertProducts(ctx, stored); err != nil {
		return 0, fmt.Errorf("error storing products for %s: %w", c.Name, err)
	}
	p.metrics.ProductsStoredTotal.WithLabelValues(category).Add(float64(len(stored)))

	return len(stored), nil
}

// selectTop orders candidates by image count, most first, and keeps n.
// Ties keep their stored order.
func selectTop(candidates []trend.Candidate, n int) []trend.Candidate {
	sorted := make([]trend.Candidate, len(candidates))
	copy(sorted, candidates)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ImageCount > sorted[j].ImageCount
	})

	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func (p *Pipeline) startRun(ctx context.Context, kind trend.RunKind, scope string) *trend.Run {
	run := &trend.Run{
		ID:        uuid.New().String(),
		Kind:      kind,
		Scope:     scope,
		Status:    trend.RunRunning,
		StartedAt: p.now().UTC(),
	}

	p.metrics.RunStarted()

	if p.recorder != nil {
		if err := p.recorder.StartRun(ctx, *run); err != nil {
			p.logger.Warn("Failed to record run start", zap.String("run_id", run.ID), zap.Error(err))
		}
	}

	return run
}

func (p *Pipeline) finishRun(ctx context.Context, run *trend.Run, runErr error) {
	finished := p.now().UTC()
	run.FinishedAt = &finished
	run.Status = trend.RunSucceeded

	completed, failed := trend.EventIngestCompleted, trend.EventIngestFailed
	if run.Kind == trend.RunKindProducts {
		completed, failed = trend.EventEnrichCompleted, trend.EventEnrichFailed
	}

	evt := trend.Event{
		RunID:     run.ID,
		Kind:      run.Kind,
		Scope:     run.Scope,
		Documents: run.Documents,
		Time:      finished,
	}

	if runErr != nil {
		run.Status = trend.RunFailed
		run.Error = runErr.Error()
		evt.Error = runErr.Error()
		p.publish(failed, evt)
	} else {
		p.publish(completed, evt)
	}

	p.metrics.RunFinished(string(run.Kind), string(run.Status), finished.Sub(run.StartedAt))

	if p.recorder != nil {
		// the run's own context may already be done
		if err := p.recorder.FinishRun(context.WithoutCancel(ctx), *run); err != nil {
			p.logger.Warn("Failed to record run finish", zap.String("run_id", run.ID), zap.Error(err))
		}
	}
}

func (p *Pipeline) publish(subject string, evt trend.Event) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.Publish(subject, evt); err != nil {
		p.logger.Warn("Failed to publish event", zap.String("subject", subject), zap.Error(err))
	}
}
