// Package coingecko provides market data fetching with persistent caching.
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/CryptoBazari/coin-reset-ignition-launch-sub005/internal/clientdata"
	"github.com/CryptoBazari/coin-reset-ignition-launch-sub005/internal/clients/ratelimit"
	"github.com/CryptoBazari/coin-reset-ignition-launch-sub005/internal/domain"
)

const (
	historyTable = "coingecko_history"
	coinTable    = "coingecko_coin"

	// Public API allowance is 30 calls/min; stay under it.
	requestsPerMinute = 25
)

// Client for the CoinGecko market-data API.
type Client struct {
	baseURL   string
	apiKey    string
	client    *resty.Client
	limiter   *ratelimit.Limiter
	log       zerolog.Logger
	cacheRepo *clientdata.Repository
}

// NewClient creates a new CoinGecko client.
// cacheRepo is optional - if nil, caching is disabled.
func NewClient(apiKey string, cacheRepo *clientdata.Repository, log zerolog.Logger) *Client {
	client := resty.New()
	client.SetTimeout(15 * time.Second)

	return &Client{
		baseURL:   "https://api.coingecko.com/api/v3",
		apiKey:    apiKey,
		client:    client,
		limiter:   ratelimit.NewLimiter("coingecko", requestsPerMinute),
		log:       log.With().Str("client", "coingecko").Logger(),
		cacheRepo: cacheRepo,
	}
}

// marketChartResponse is CoinGecko's market_chart payload: arrays of
// [unixMillis, value] pairs.
type marketChartResponse struct {
	Prices       [][2]float64 `json:"prices"`
	MarketCaps   [][2]float64 `json:"market_caps"`
	TotalVolumes [][2]float64 `json:"total_volumes"`
}

// coinResponse is the subset of CoinGecko's /coins/{id} payload we consume.
type coinResponse struct {
	ID         string   `json:"id"`
	Symbol     string   `json:"symbol"`
	Name       string   `json:"name"`
	Categories []string `json:"categories"`
	MarketData struct {
		MarketCap map[string]float64 `json:"market_cap"`
	} `json:"market_data"`
}

// GetPriceHistory fetches the daily price/volume series for a coin over
// the last `days` days, with cache. If the API fails, returns stale cached
// data if available (stale data > no data).
func (c *Client) GetPriceHistory(ctx context.Context, coinID string, days int) (domain.PriceSeries, error) {
	cacheKey := coinID + ":" + strconv.Itoa(days)

	// Check persistent cache for fresh data
	if c.cacheRepo != nil {
		data, err := c.cacheRepo.GetIfFresh(historyTable, cacheKey)
		if err == nil && data != nil {
			var cached marketChartResponse
			if err := json.Unmarshal(data, &cached); err == nil {
				c.log.Debug().Str("coin", coinID).Int("days", days).Msg("Cache hit")
				return toPriceSeries(cached), nil
			}
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var chart marketChartResponse
	resp, err := c.newRequest(ctx).
		SetResult(&chart).
		SetQueryParams(map[string]string{
			"vs_currency": "usd",
			"days":        strconv.Itoa(days),
			"interval":    "daily",
		}).
		Get(c.baseURL + "/coins/" + coinID + "/market_chart")

	if err != nil || !resp.IsSuccess() {
		if stale, ok := c.staleHistory(cacheKey); ok {
			c.log.Warn().Err(err).Str("coin", coinID).Msg("API failed, using stale cached history")
			return stale, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: coingecko market_chart for %s: %v", domain.ErrAPIError, coinID, err)
		}
		return nil, fmt.Errorf("%w: coingecko market_chart for %s returned status %d", domain.ErrAPIError, coinID, resp.StatusCode())
	}

	if len(chart.Prices) == 0 {
		return nil, fmt.Errorf("%w: coingecko returned empty history for %s", domain.ErrAPIError, coinID)
	}

	if c.cacheRepo != nil {
		if err := c.cacheRepo.Store(historyTable, cacheKey, chart, clientdata.TTLPriceHistory); err != nil {
			c.log.Warn().Err(err).Str("coin", coinID).Msg("Failed to cache price history")
		}
	}

	return toPriceSeries(chart), nil
}

// GetCoin fetches static coin metadata, with cache.
func (c *Client) GetCoin(ctx context.Context, coinID string) (domain.Coin, error) {
	if c.cacheRepo != nil {
		data, err := c.cacheRepo.GetIfFresh(coinTable, coinID)
		if err == nil && data != nil {
			var cached coinResponse
			if err := json.Unmarshal(data, &cached); err == nil {
				return toCoin(cached), nil
			}
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return domain.Coin{}, err
	}

	var coin coinResponse
	resp, err := c.newRequest(ctx).
		SetResult(&coin).
		SetQueryParam("localization", "false").
		Get(c.baseURL + "/coins/" + coinID)

	if err != nil || !resp.IsSuccess() {
		if stale, ok := c.staleCoin(coinID); ok {
			c.log.Warn().Err(err).Str("coin", coinID).Msg("API failed, using stale cached metadata")
			return stale, nil
		}
		if err != nil {
			return domain.Coin{}, fmt.Errorf("%w: coingecko coin %s: %v", domain.ErrAPIError, coinID, err)
		}
		return domain.Coin{}, fmt.Errorf("%w: coingecko coin %s returned status %d", domain.ErrAPIError, coinID, resp.StatusCode())
	}

	if c.cacheRepo != nil {
		if err := c.cacheRepo.Store(coinTable, coinID, coin, clientdata.TTLCoinMetadata); err != nil {
			c.log.Warn().Err(err).Str("coin", coinID).Msg("Failed to cache coin metadata")
		}
	}

	return toCoin(coin), nil
}

func (c *Client) newRequest(ctx context.Context) *resty.Request {
	req := c.client.R().SetContext(ctx)
	if c.apiKey != "" {
		req.SetHeader("x-cg-demo-api-key", c.apiKey)
	}
	return req
}

func (c *Client) staleHistory(cacheKey string) (domain.PriceSeries, bool) {
	if c.cacheRepo == nil {
		return nil, false
	}
	data, err := c.cacheRepo.Get(historyTable, cacheKey)
	if err != nil || data == nil {
		return nil, false
	}
	var cached marketChartResponse
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, false
	}
	return toPriceSeries(cached), true
}

func (c *Client) staleCoin(coinID string) (domain.Coin, bool) {
	if c.cacheRepo == nil {
		return domain.Coin{}, false
	}
	data, err := c.cacheRepo.Get(coinTable, coinID)
	if err != nil || data == nil {
		return domain.Coin{}, false
	}
	var cached coinResponse
	if err := json.Unmarshal(data, &cached); err != nil {
		return domain.Coin{}, false
	}
	return toCoin(cached), true
}

// toPriceSeries converts the [millis, value] pair arrays into a sorted
// daily series, joining volumes and market caps by timestamp.
func toPriceSeries(chart marketChartResponse) domain.PriceSeries {
	volumes := make(map[int64]float64, len(chart.TotalVolumes))
	for _, pair := range chart.TotalVolumes {
		volumes[int64(pair[0])] = pair[1]
	}
	caps := make(map[int64]float64, len(chart.MarketCaps))
	for _, pair := range chart.MarketCaps {
		caps[int64(pair[0])] = pair[1]
	}

	series := make(domain.PriceSeries, 0, len(chart.Prices))
	for _, pair := range chart.Prices {
		millis := int64(pair[0])
		series = append(series, domain.PricePoint{
			Date:      time.UnixMilli(millis).UTC(),
			Price:     pair[1],
			Volume:    volumes[millis],
			MarketCap: caps[millis],
		})
	}

	sort.Slice(series, func(i, j int) bool { return series[i].Date.Before(series[j].Date) })
	return series
}

func toCoin(resp coinResponse) domain.Coin {
	sector := ""
	if len(resp.Categories) > 0 {
		sector = resp.Categories[0]
	}
	return domain.Coin{
		ID:        resp.ID,
		Symbol:    resp.Symbol,
		Name:      resp.Name,
		Sector:    sector,
		MarketCap: resp.MarketData.MarketCap["usd"],
		UpdatedAt: time.Now().UTC(),
	}
}
