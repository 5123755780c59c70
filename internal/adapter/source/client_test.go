package source

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"trendboard/internal/config"
	"trendboard/internal/domain/trend"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(config.SourceConfig{
		BaseURL:        srv.URL + "/",
		BearerToken:    "test-token",
		RequestTimeout: 5 * time.Second,
		ProductTimeout: 5 * time.Second,
	}, zap.NewNop())
}

func TestFetchTrendPage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/trend/userid", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "women", r.URL.Query().Get("gender"))
		assert.Equal(t, "3", r.URL.Query().Get("page"))
		assert.Equal(t, "20", r.URL.Query().Get("limit"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"count": 41,
			"data": [
				{"id": "t1", "name": "Cargo Pants", "category": "bottomwear",
				 "images": [{"id": "i1", "geography": "IN", "timeStamp": "2024-01-01T00:00:00Z"}]}
			]
		}`))
	})

	page, err := client.FetchTrendPage(context.Background(), 3, "women", 0)
	require.NoError(t, err)
	assert.Equal(t, 41, page.Count)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Cargo Pants", page.Data[0].String("name"))
	images := page.Data[0].Documents("images")
	require.Len(t, images, 1)
	assert.Equal(t, "2024-01-01T00:00:00Z", images[0].String("timeStamp"))
}

func TestFetchTrendPageKeepsUnknownFields(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"count": 1,
			"data": [
				{"id": 123, "name": "Cargo Pants", "likes": 42, "tags": ["street", "summer"],
				 "images": [{"id": 9007199254740993, "url": "u", "source": "instagram"}]}
			]
		}`))
	})

	page, err := client.FetchTrendPage(context.Background(), 1, "women", 20)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)

	record := page.Data[0]
	assert.Equal(t, "123", record.String("id"))
	assert.Equal(t, json.Number("42"), record["likes"])
	assert.Equal(t, []interface{}{"street", "summer"}, record["tags"])

	images := record.Documents("images")
	require.Len(t, images, 1)
	assert.Equal(t, "instagram", images[0].String("source"))
	assert.Equal(t, "9007199254740993", images[0].String("id"), "large ids keep every digit")
}

func TestFetchTrendPageNon2xx(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.FetchTrendPage(context.Background(), 1, "men", 20)
	require.Error(t, err)

	var upstream *trend.UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, http.StatusUnauthorized, upstream.StatusCode)
}

func TestFetchTrendPageBadBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})

	_, err := client.FetchTrendPage(context.Background(), 1, "men", 20)

	var upstream *trend.UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Zero(t, upstream.StatusCode)
}

func TestFetchTrendPageNetworkFailure(t *testing.T) {
	client := NewClient(config.SourceConfig{
		BaseURL:        "http://127.0.0.1:1",
		RequestTimeout: time.Second,
		ProductTimeout: time.Second,
	}, zap.NewNop())

	_, err := client.FetchTrendPage(context.Background(), 1, "men", 20)

	var upstream *trend.UpstreamError
	assert.True(t, errors.As(err, &upstream))
}

func TestFetchProducts(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/trend/tops/t-9", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"results": {"tops": [
			{"id": "p1", "title": "Crop Top", "ecommerce": "Ajio", "price": 799, "score": 0.9},
			{"id": "p2", "title": "Tank", "ecommerce": "Myntra", "price": 1299.5, "score": 0.4}
		]}}`))
	})

	products, err := client.FetchProducts(context.Background(), "tops", "t-9")
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Ajio", products[0].String("ecommerce"))
	assert.Equal(t, json.Number("1299.5"), products[1]["price"])
}

func TestFetchProductsToleratesFieldTypes(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results": {"tops": [
			{"id": 77, "title": "Crop Top", "price": "799", "rating": {"stars": 4.5}}
		]}}`))
	})

	products, err := client.FetchProducts(context.Background(), "tops", "t-9")
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "77", products[0].String("id"))
	assert.Equal(t, "799", products[0]["price"])
	assert.Contains(t, products[0], "rating")
}

func TestFetchProductsMissingCategory(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results": {"other": [{"id": "p1"}]}}`))
	})

	products, err := client.FetchProducts(context.Background(), "tops", "t-9")
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestFetchProductsUsesProductTimeout(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{"results": {}}`))
	})
	client.ProductClient.Timeout = 50 * time.Millisecond

	_, err := client.FetchProducts(context.Background(), "tops", "t-9")

	var upstream *trend.UpstreamError
	assert.True(t, errors.As(err, &upstream))
}
