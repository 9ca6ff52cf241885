// Package fred provides macro-economic series fetching with persistent caching.
package fred

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/CryptoBazari/coin-reset-ignition-launch-sub005/internal/clientdata"
	"github.com/CryptoBazari/coin-reset-ignition-launch-sub005/internal/clients/ratelimit"
	"github.com/CryptoBazari/coin-reset-ignition-launch-sub005/internal/domain"
)

const (
	cacheTable = "fred_series"

	requestsPerMinute = 60
)

// Series identifiers consumed by the pipeline.
const (
	SeriesFedFunds = "FEDFUNDS" // Effective federal funds rate, percent
	SeriesSP500    = "SP500"    // S&P 500 index level, daily
)

// Observation is one dated value of a macro series.
type Observation struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Client for the FRED economic-data API.
type Client struct {
	baseURL   string
	apiKey    string
	client    *resty.Client
	limiter   *ratelimit.Limiter
	log       zerolog.Logger
	cacheRepo *clientdata.Repository
}

// NewClient creates a new FRED client.
// cacheRepo is optional - if nil, caching is disabled.
func NewClient(apiKey string, cacheRepo *clientdata.Repository, log zerolog.Logger) *Client {
	client := resty.New()
	client.SetTimeout(15 * time.Second)

	return &Client{
		baseURL:   "https://api.stlouisfed.org/fred",
		apiKey:    apiKey,
		client:    client,
		limiter:   ratelimit.NewLimiter("fred", requestsPerMinute),
		log:       log.With().Str("client", "fred").Logger(),
		cacheRepo: cacheRepo,
	}
}

// observationsResponse mirrors FRED's series/observations payload. Values
// arrive as strings; missing observations are ".".
type observationsResponse struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
}

// GetSeries fetches a macro series since the given time, with cache.
// If the API fails, returns stale cached data if available.
func (c *Client) GetSeries(ctx context.Context, seriesID string, since time.Time) ([]Observation, error) {
	if c.cacheRepo != nil {
		data, err := c.cacheRepo.GetIfFresh(cacheTable, seriesID)
		if err == nil && data != nil {
			var cached []Observation
			if err := json.Unmarshal(data, &cached); err == nil {
				c.log.Debug().Str("series", seriesID).Msg("Cache hit")
				return cached, nil
			}
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var raw observationsResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&raw).
		SetQueryParams(map[string]string{
			"series_id":         seriesID,
			"api_key":           c.apiKey,
			"file_type":         "json",
			"observation_start": since.Format("2006-01-02"),
		}).
		Get(c.baseURL + "/series/observations")

	if err != nil || !resp.IsSuccess() {
		if stale, ok := c.staleSeries(seriesID); ok {
			c.log.Warn().Err(err).Str("series", seriesID).Msg("API failed, using stale cached series")
			return stale, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: fred series %s: %v", domain.ErrAPIError, seriesID, err)
		}
		return nil, fmt.Errorf("%w: fred series %s returned status %d", domain.ErrAPIError, seriesID, resp.StatusCode())
	}

	observations := make([]Observation, 0, len(raw.Observations))
	for _, obs := range raw.Observations {
		// FRED marks missing observations with ".".
		value, err := strconv.ParseFloat(obs.Value, 64)
		if err != nil {
			continue
		}
		date, err := time.Parse("2006-01-02", obs.Date)
		if err != nil {
			continue
		}
		observations = append(observations, Observation{Date: date, Value: value})
	}

	if len(observations) == 0 {
		return nil, fmt.Errorf("%w: fred series %s returned no usable observations", domain.ErrAPIError, seriesID)
	}

	if c.cacheRepo != nil {
		if err := c.cacheRepo.Store(cacheTable, seriesID, observations, clientdata.TTLMacroSeries); err != nil {
			c.log.Warn().Err(err).Str("series", seriesID).Msg("Failed to cache series")
		}
	}

	return observations, nil
}

// RiskFreeRate returns the latest effective Fed funds rate as a decimal
// (e.g. 0.045 for 4.5%).
func (c *Client) RiskFreeRate(ctx context.Context) (float64, error) {
	observations, err := c.GetSeries(ctx, SeriesFedFunds, time.Now().AddDate(-1, 0, 0))
	if err != nil {
		return 0, err
	}
	return observations[len(observations)-1].Value / 100, nil
}

// FedRateChange returns the latest period-over-period change of the Fed
// funds rate, in percentage points.
func (c *Client) FedRateChange(ctx context.Context) (float64, error) {
	observations, err := c.GetSeries(ctx, SeriesFedFunds, time.Now().AddDate(-1, 0, 0))
	if err != nil {
		return 0, err
	}
	if len(observations) < 2 {
		return 0, nil
	}
	last := observations[len(observations)-1].Value
	previous := observations[len(observations)-2].Value
	return last - previous, nil
}

// GetBenchmarkSeries returns the S&P 500 index as a price series usable by
// the beta estimator.
func (c *Client) GetBenchmarkSeries(ctx context.Context, since time.Time) (domain.PriceSeries, error) {
	observations, err := c.GetSeries(ctx, SeriesSP500, since)
	if err != nil {
		return nil, err
	}

	series := make(domain.PriceSeries, 0, len(observations))
	for _, obs := range observations {
		series = append(series, domain.PricePoint{Date: obs.Date, Price: obs.Value})
	}
	return series, nil
}

func (c *Client) staleSeries(seriesID string) ([]Observation, bool) {
	if c.cacheRepo == nil {
		return nil, false
	}
	data, err := c.cacheRepo.Get(cacheTable, seriesID)
	if err != nil || data == nil {
		return nil, false
	}
	var cached []Observation
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, false
	}
	return cached, true
}
