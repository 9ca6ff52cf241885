package coins

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/CryptoBazari/coin-reset-ignition-launch-sub005/internal/domain"
)

const testSchema = `
CREATE TABLE coins (
    id         TEXT PRIMARY KEY,
    symbol     TEXT NOT NULL,
    name       TEXT NOT NULL,
    sector     TEXT NOT NULL DEFAULT '',
    market_cap REAL NOT NULL DEFAULT 0,
    updated_at TEXT NOT NULL
);
CREATE TABLE price_history (
    coin_id    TEXT NOT NULL,
    date       TEXT NOT NULL,
    price      REAL NOT NULL,
    volume     REAL NOT NULL DEFAULT 0,
    market_cap REAL NOT NULL DEFAULT 0,
    PRIMARY KEY (coin_id, date)
);
CREATE TABLE onchain_snapshots (
    coin_id TEXT NOT NULL,
    metric  TEXT NOT NULL,
    date    TEXT NOT NULL,
    value   REAL NOT NULL,
    PRIMARY KEY (coin_id, metric, date)
);
`

func setupTestRepo(t *testing.T) *Repository {
	db, err := sql.Open("sqlite", "file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(testSchema)
	require.NoError(t, err)

	return NewRepository(db, zerolog.Nop())
}

func TestUpsertAndGetCoin(t *testing.T) {
	repo := setupTestRepo(t)

	coin := domain.Coin{
		ID:        "bitcoin",
		Symbol:    "btc",
		Name:      "Bitcoin",
		Sector:    "layer1",
		MarketCap: 1.2e12,
		UpdatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.UpsertCoin(coin))

	got, err := repo.GetCoin("bitcoin")
	require.NoError(t, err)
	assert.Equal(t, "btc", got.Symbol)
	assert.Equal(t, "layer1", got.Sector)
	assert.Equal(t, coin.UpdatedAt, got.UpdatedAt)

	// Upsert replaces, never duplicates
	coin.MarketCap = 1.5e12
	require.NoError(t, repo.UpsertCoin(coin))

	got, err = repo.GetCoin("bitcoin")
	require.NoError(t, err)
	assert.Equal(t, 1.5e12, got.MarketCap)

	list, err := repo.ListCoins()
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestGetCoinNotFound(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.GetCoin("dogecoin")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestListCoinsOrderedByMarketCap(t *testing.T) {
	repo := setupTestRepo(t)

	for _, c := range []domain.Coin{
		{ID: "ethereum", Symbol: "eth", Name: "Ethereum", MarketCap: 4e11},
		{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin", MarketCap: 1.2e12},
	} {
		require.NoError(t, repo.UpsertCoin(c))
	}

	list, err := repo.ListCoins()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "bitcoin", list[0].ID)
	assert.Equal(t, "ethereum", list[1].ID)
}

func TestSaveAndGetPriceHistory(t *testing.T) {
	repo := setupTestRepo(t)

	now := time.Now().UTC()
	series := domain.PriceSeries{
		{Date: now.AddDate(0, 0, -2), Price: 100, Volume: 5e6},
		{Date: now.AddDate(0, 0, -1), Price: 110, Volume: 6e6},
		{Date: now, Price: 105, Volume: 4e6},
	}
	require.NoError(t, repo.SavePriceHistory("bitcoin", series))

	got, err := repo.GetPriceHistory("bitcoin", 30)
	require.NoError(t, err)
	require.Len(t, got, 3)

	// Oldest first
	assert.Equal(t, 100.0, got[0].Price)
	assert.Equal(t, 105.0, got[2].Price)
	assert.Equal(t, 6e6, got[1].Volume)
}

func TestSavePriceHistoryIdempotent(t *testing.T) {
	repo := setupTestRepo(t)

	now := time.Now().UTC()
	series := domain.PriceSeries{{Date: now, Price: 100}}
	require.NoError(t, repo.SavePriceHistory("bitcoin", series))

	// Re-sync the same day with a corrected close
	series[0].Price = 101
	require.NoError(t, repo.SavePriceHistory("bitcoin", series))

	got, err := repo.GetPriceHistory("bitcoin", 7)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 101.0, got[0].Price)
}

func TestGetPriceHistoryWindow(t *testing.T) {
	repo := setupTestRepo(t)

	now := time.Now().UTC()
	series := domain.PriceSeries{
		{Date: now.AddDate(0, 0, -40), Price: 90},
		{Date: now.AddDate(0, 0, -5), Price: 100},
	}
	require.NoError(t, repo.SavePriceHistory("bitcoin", series))

	got, err := repo.GetPriceHistory("bitcoin", 30)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 100.0, got[0].Price)

	empty, err := repo.GetPriceHistory("bitcoin", 0)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestOnchainSnapshots(t *testing.T) {
	repo := setupTestRepo(t)

	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.SaveOnchainSnapshot("bitcoin", "aviv", base, 1.2))
	require.NoError(t, repo.SaveOnchainSnapshot("bitcoin", "aviv", base.AddDate(0, 0, 1), 1.4))

	value, date, err := repo.LatestOnchainSnapshot("bitcoin", "aviv")
	require.NoError(t, err)
	assert.Equal(t, 1.4, value)
	assert.Equal(t, base.AddDate(0, 0, 1), date)

	_, _, err = repo.LatestOnchainSnapshot("bitcoin", "mvrv")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

// fakeMarketClient serves canned data for sync tests.
type fakeMarketClient struct {
	coins    map[string]domain.Coin
	series   map[string]domain.PriceSeries
	failures map[string]error
}

func (f *fakeMarketClient) GetCoin(_ context.Context, coinID string) (domain.Coin, error) {
	if err, ok := f.failures[coinID]; ok {
		return domain.Coin{}, err
	}
	return f.coins[coinID], nil
}

func (f *fakeMarketClient) GetPriceHistory(_ context.Context, coinID string, _ int) (domain.PriceSeries, error) {
	if err, ok := f.failures[coinID]; ok {
		return nil, err
	}
	return f.series[coinID], nil
}

func TestSyncAllContinuesPastFailures(t *testing.T) {
	repo := setupTestRepo(t)

	now := time.Now().UTC()
	client := &fakeMarketClient{
		coins: map[string]domain.Coin{
			"bitcoin": {ID: "bitcoin", Symbol: "btc", Name: "Bitcoin"},
		},
		series: map[string]domain.PriceSeries{
			"bitcoin": {{Date: now, Price: 50000}},
		},
		failures: map[string]error{
			"ethereum": domain.ErrAPIError,
		},
	}

	svc := NewSyncService(repo, client, []string{"bitcoin", "ethereum"}, zerolog.Nop())
	require.NoError(t, svc.SyncAll(context.Background()))

	got, err := repo.GetCoin("bitcoin")
	require.NoError(t, err)
	assert.Equal(t, "btc", got.Symbol)

	history, err := repo.GetPriceHistory("bitcoin", 7)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	_, err = repo.GetCoin("ethereum")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestSyncAllFailsWhenEverythingFails(t *testing.T) {
	repo := setupTestRepo(t)

	client := &fakeMarketClient{
		failures: map[string]error{"bitcoin": domain.ErrAPIError},
	}

	svc := NewSyncService(repo, client, []string{"bitcoin"}, zerolog.Nop())
	assert.Error(t, svc.SyncAll(context.Background()))
}
