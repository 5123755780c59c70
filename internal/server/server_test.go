package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"trendboard/internal/config"
	"trendboard/internal/domain/trend"
	"trendboard/internal/metrics"
)

type stubIngester struct {
	calls int
}

func (s *stubIngester) SyncTrends(ctx context.Context, gender string) (*trend.SyncResult, error) {
	s.calls++
	return &trend.SyncResult{Message: "Data saved to MongoDB", DocumentID: "abc"}, nil
}

func (s *stubIngester) EnrichCategory(ctx context.Context, category string) (*trend.EnrichResult, error) {
	s.calls++
	return &trend.EnrichResult{Message: "Product details saved to MongoDB"}, nil
}

type stubAnalytics struct{}

func (stubAnalytics) TopTrends(ctx context.Context, category string, topN int, geography string) ([]trend.TopTrend, error) {
	return []trend.TopTrend{}, nil
}

func (stubAnalytics) TimeSeries(ctx context.Context, trendName string, windowDays int) ([]trend.DayCount, error) {
	return []trend.DayCount{}, nil
}

func (stubAnalytics) Contribution(ctx context.Context, category, trendName string) (*trend.ContributionReport, error) {
	return &trend.ContributionReport{Category: category}, nil
}

func (stubAnalytics) PriceBrackets(ctx context.Context, trendName, ecommerce string) ([]trend.BracketCount, error) {
	return []trend.BracketCount{}, nil
}

func (stubAnalytics) Products(ctx context.Context, trendName, ecommerce string, count int) ([]trend.Product, error) {
	return []trend.Product{}, nil
}

func (stubAnalytics) Categories(ctx context.Context) ([]trend.CategoryTrends, error) {
	return []trend.CategoryTrends{}, nil
}

func (stubAnalytics) TrendByNameAndGender(ctx context.Context, name, gender string) (*trend.UniqueTrend, error) {
	return nil, trend.ErrNotFound
}

func (stubAnalytics) Runs(ctx context.Context, limit int) ([]trend.Run, error) {
	return []trend.Run{}, nil
}

func newTestServer(t *testing.T) (*Server, *stubIngester) {
	t.Helper()

	registry := prometheus.NewRegistry()
	metrics.NewMetrics(registry)

	ingester := &stubIngester{}
	srv := NewServer(
		config.ServerConfig{
			Host:           "127.0.0.1",
			Port:           0,
			RequestTimeout: 5 * time.Second,
			CorsOrigins:    []string{"*"},
		},
		config.AuthConfig{TriggerSecret: "s3cret"},
		ingester,
		stubAnalytics{},
		nil,
		"trends",
		registry,
		zap.NewNop(),
	)

	return srv, ingester
}

func serve(srv *Server, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := serve(srv, http.MethodGet, "/api/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestReadRoutes(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, target := range []string{
		"/api/v1/trends/top?category=tops&top_n=3",
		"/api/v1/trends/timeseries?trend_name=Tank&timewindow=7",
		"/api/v1/trends/categories",
		"/api/v1/products?trendName=Tank&ecommerce=Ajio&count=5",
		"/api/v1/products/contribution?category=tops",
		"/api/v1/products/price-ranges?trendName=Tank&ecommerce=Ajio",
		"/api/v1/runs",
	} {
		rec := serve(srv, http.MethodGet, target)
		assert.Equal(t, http.StatusOK, rec.Code, target)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"), target)
	}

	rec := serve(srv, http.MethodGet, "/api/v1/trends/lookup?trend_name=Tank&gender=men")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTriggerRoutesGate(t *testing.T) {
	srv, ingester := newTestServer(t)

	rec := serve(srv, http.MethodPost, "/api/v1/ingest/trends?gender=women&key_ftf=nope")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = serve(srv, http.MethodPost, "/api/v1/ingest/products?category=tops")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, ingester.calls)

	rec = serve(srv, http.MethodPost, "/api/v1/ingest/trends?gender=women&key_ftf=s3cret")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, ingester.calls)
}

func TestTriggerRequiresPost(t *testing.T) {
	srv, ingester := newTestServer(t)

	rec := serve(srv, http.MethodGet, "/api/v1/ingest/trends?gender=women&key_ftf=s3cret")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Zero(t, ingester.calls)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := serve(srv, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "trendboard_ingest_runs_in_progress")
}

func TestEventFeedWithoutNATS(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := serve(srv, http.MethodGet, "/ws/ingest")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
