package coingecko

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/CryptoBazari/coin-reset-ignition-launch-sub005/internal/clientdata"
)

const cacheSchema = `
CREATE TABLE coingecko_history (coin TEXT PRIMARY KEY, data TEXT NOT NULL, expires_at INTEGER NOT NULL);
CREATE TABLE coingecko_coin (coin TEXT PRIMARY KEY, data TEXT NOT NULL, expires_at INTEGER NOT NULL);
CREATE TABLE glassnode_metric ("key" TEXT PRIMARY KEY, data TEXT NOT NULL, expires_at INTEGER NOT NULL);
CREATE TABLE fred_series (series TEXT PRIMARY KEY, data TEXT NOT NULL, expires_at INTEGER NOT NULL);
`

func setupCacheRepo(t *testing.T) *clientdata.Repository {
	db, err := sql.Open("sqlite", "file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(cacheSchema)
	require.NoError(t, err)

	return clientdata.NewRepository(db)
}

func chartPayload(days int) marketChartResponse {
	var chart marketChartResponse
	base := time.Now().UTC().AddDate(0, 0, -days)
	for i := 0; i < days; i++ {
		millis := float64(base.AddDate(0, 0, i).UnixMilli())
		chart.Prices = append(chart.Prices, [2]float64{millis, 100 + float64(i)})
		chart.TotalVolumes = append(chart.TotalVolumes, [2]float64{millis, 5e6})
		chart.MarketCaps = append(chart.MarketCaps, [2]float64{millis, 1e9})
	}
	return chart
}

func newTestClient(t *testing.T, handler http.HandlerFunc, repo *clientdata.Repository) *Client {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewClient("", repo, zerolog.Nop())
	client.baseURL = srv.URL
	return client
}

func TestGetPriceHistoryFetchesAndCaches(t *testing.T) {
	repo := setupCacheRepo(t)

	var calls int
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/coins/bitcoin/market_chart", r.URL.Path)
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currency"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chartPayload(10))
	}, repo)

	series, err := client.GetPriceHistory(context.Background(), "bitcoin", 10)
	require.NoError(t, err)
	require.Len(t, series, 10)
	assert.Equal(t, 100.0, series[0].Price)
	assert.Equal(t, 5e6, series[0].Volume)
	assert.True(t, series[0].Date.Before(series[9].Date))

	// Second call is served from cache
	_, err = client.GetPriceHistory(context.Background(), "bitcoin", 10)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestGetPriceHistoryStaleFallback(t *testing.T) {
	repo := setupCacheRepo(t)

	// Seed an expired cache entry
	require.NoError(t, repo.Store("coingecko_history", "bitcoin:10", chartPayload(10), -time.Hour))

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, repo)

	series, err := client.GetPriceHistory(context.Background(), "bitcoin", 10)
	require.NoError(t, err)
	assert.Len(t, series, 10)
}

func TestGetPriceHistoryErrorWithoutCache(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}, setupCacheRepo(t))

	_, err := client.GetPriceHistory(context.Background(), "bitcoin", 10)
	assert.Error(t, err)
}

func TestGetCoin(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/bitcoin", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(coinResponse{
			ID:         "bitcoin",
			Symbol:     "btc",
			Name:       "Bitcoin",
			Categories: []string{"layer1", "store-of-value"},
			MarketData: struct {
				MarketCap map[string]float64 `json:"market_cap"`
			}{MarketCap: map[string]float64{"usd": 1.2e12}},
		})
	}, setupCacheRepo(t))

	coin, err := client.GetCoin(context.Background(), "bitcoin")
	require.NoError(t, err)
	assert.Equal(t, "btc", coin.Symbol)
	assert.Equal(t, "layer1", coin.Sector)
	assert.Equal(t, 1.2e12, coin.MarketCap)
}
