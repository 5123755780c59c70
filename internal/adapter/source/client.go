// internal/adapter/source/client.go

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"trendboard/internal/config"
	"trendboard/internal/domain/trend"
)

// DefaultPageSize is the listing page size used when none is given
const DefaultPageSize = 20

// Client handles interactions with the upstream trends service
type Client struct {
	BaseURL       string
	BearerToken   string
	HTTPClient    *http.Client
	ProductClient *http.Client
	logger        *zap.Logger
}

// productResponse represents the structure of the product endpoint response
type productResponse struct {
	Results map[string][]trend.Product `json:"results"`
}

// NewClient creates a new trends service client
func NewClient(cfg config.SourceConfig, logger *zap.Logger) *Client {
	return &Client{
		BaseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		BearerToken: cfg.BearerToken,
		HTTPClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		ProductClient: &http.Client{
			Timeout: cfg.ProductTimeout,
		},
		logger: logger.Named("source"),
	}
}

// FetchTrendPage fetches one page of the trend listing for a gender
func (c *Client) FetchTrendPage(ctx context.Context, page int, gender string, limit int) (*trend.SourcePage, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}

	params := url.Values{}
	params.Set("gender", gender)
	params.Set("page", strconv.Itoa(page))
	params.Set("limit", strconv.Itoa(limit))
	endpoint := fmt.Sprintf("%s/trend/userid?%s", c.BaseURL, params.Encode())

	var result trend.SourcePage
	if err := c.get(ctx, c.HTTPClient, endpoint, &result); err != nil {
		return nil, err
	}

	c.logger.Debug("fetched trend page",
		zap.Int("page", page),
		zap.String("gender", gender),
		zap.Int("records", len(result.Data)),
		zap.Int("count", result.Count))

	return &result, nil
}

// FetchProducts fetches the e-commerce listings for one trend
func (c *Client) FetchProducts(ctx context.Context, category, trendID string) ([]trend.Product, error) {
	endpoint := fmt.Sprintf("%s/products/trend/%s/%s",
		c.BaseURL, url.PathEscape(category), url.PathEscape(trendID))

	var result productResponse
	if err := c.get(ctx, c.ProductClient, endpoint, &result); err != nil {
		return nil, err
	}

	products := result.Results[category]
	c.logger.Debug("fetched products",
		zap.String("category", category),
		zap.String("trend_id", trendID),
		zap.Int("products", len(products)))

	return products, nil
}

// get performs one authenticated GET and decodes the JSON body into out
func (c *Client) get(ctx context.Context, httpClient *http.Client, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &trend.UpstreamError{URL: endpoint, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return &trend.UpstreamError{URL: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused
		_, _ = io.Copy(io.Discard, resp.Body)
		return &trend.UpstreamError{URL: endpoint, StatusCode: resp.StatusCode}
	}

	// Numbers stay json.Number so upstream ids keep their exact digits
	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()
	if err := decoder.Decode(out); err != nil {
		return &trend.UpstreamError{URL: endpoint, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	return nil
}
