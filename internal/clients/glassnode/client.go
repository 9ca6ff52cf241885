// Package glassnode provides on-chain metric fetching with persistent caching.
package glassnode

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/CryptoBazari/coin-reset-ignition-launch-sub005/internal/clientdata"
	"github.com/CryptoBazari/coin-reset-ignition-launch-sub005/internal/clients/ratelimit"
	"github.com/CryptoBazari/coin-reset-ignition-launch-sub005/internal/domain"
)

const (
	cacheTable = "glassnode_metric"

	requestsPerMinute = 20
)

// Metric paths consumed by the pipeline.
const (
	MetricAVIV          = "indicators/aviv"
	MetricVaultedSupply = "supply/vaulted"
	MetricActiveSupply  = "supply/active_more_1y_percent"
)

// MetricPoint is one observation of an on-chain metric series.
type MetricPoint struct {
	T int64   `json:"t"` // unix seconds
	V float64 `json:"v"`
}

// Client for the Glassnode on-chain analytics API.
// The client is optional infrastructure: analyses degrade to basic mode
// when no API key is configured or a fetch fails.
type Client struct {
	baseURL   string
	apiKey    string
	client    *resty.Client
	limiter   *ratelimit.Limiter
	log       zerolog.Logger
	cacheRepo *clientdata.Repository
}

// NewClient creates a new Glassnode client.
// cacheRepo is optional - if nil, caching is disabled.
func NewClient(apiKey string, cacheRepo *clientdata.Repository, log zerolog.Logger) *Client {
	client := resty.New()
	client.SetTimeout(15 * time.Second)

	return &Client{
		baseURL:   "https://api.glassnode.com/v1/metrics",
		apiKey:    apiKey,
		client:    client,
		limiter:   ratelimit.NewLimiter("glassnode", requestsPerMinute),
		log:       log.With().Str("client", "glassnode").Logger(),
		cacheRepo: cacheRepo,
	}
}

// Enabled reports whether the client is configured with an API key.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

// GetMetric fetches a metric series for an asset since the given time,
// with cache. If the API fails, returns stale cached data if available.
func (c *Client) GetMetric(ctx context.Context, metricPath, asset string, since time.Time) ([]MetricPoint, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("%w: glassnode API key not configured", domain.ErrAPIError)
	}

	cacheKey := asset + ":" + metricPath

	if c.cacheRepo != nil {
		data, err := c.cacheRepo.GetIfFresh(cacheTable, cacheKey)
		if err == nil && data != nil {
			var cached []MetricPoint
			if err := json.Unmarshal(data, &cached); err == nil {
				c.log.Debug().Str("metric", metricPath).Str("asset", asset).Msg("Cache hit")
				return cached, nil
			}
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var points []MetricPoint
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&points).
		SetQueryParams(map[string]string{
			"a":       asset,
			"s":       fmt.Sprintf("%d", since.Unix()),
			"i":       "24h",
			"api_key": c.apiKey,
		}).
		Get(c.baseURL + "/" + metricPath)

	if err != nil || !resp.IsSuccess() {
		if stale, ok := c.staleMetric(cacheKey); ok {
			c.log.Warn().Err(err).Str("metric", metricPath).Msg("API failed, using stale cached metric")
			return stale, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: glassnode %s for %s: %v", domain.ErrAPIError, metricPath, asset, err)
		}
		return nil, fmt.Errorf("%w: glassnode %s for %s returned status %d", domain.ErrAPIError, metricPath, asset, resp.StatusCode())
	}

	if c.cacheRepo != nil {
		if err := c.cacheRepo.Store(cacheTable, cacheKey, points, clientdata.TTLOnchainMetric); err != nil {
			c.log.Warn().Err(err).Str("metric", metricPath).Msg("Failed to cache metric")
		}
	}

	return points, nil
}

// LatestValue fetches a metric and returns its most recent observation.
func (c *Client) LatestValue(ctx context.Context, metricPath, asset string) (float64, error) {
	points, err := c.GetMetric(ctx, metricPath, asset, time.Now().AddDate(0, -3, 0))
	if err != nil {
		return 0, err
	}
	if len(points) == 0 {
		return 0, fmt.Errorf("%w: glassnode %s for %s returned no data", domain.ErrAPIError, metricPath, asset)
	}
	return points[len(points)-1].V, nil
}

func (c *Client) staleMetric(cacheKey string) ([]MetricPoint, bool) {
	if c.cacheRepo == nil {
		return nil, false
	}
	data, err := c.cacheRepo.Get(cacheTable, cacheKey)
	if err != nil || data == nil {
		return nil, false
	}
	var cached []MetricPoint
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, false
	}
	return cached, true
}
