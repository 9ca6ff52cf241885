package analysis

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/CryptoBazari/coin-reset-ignition-launch-sub005/internal/domain"
	"github.com/CryptoBazari/coin-reset-ignition-launch-sub005/pkg/formulas"
)

const analysesSchema = `
CREATE TABLE analyses (
    id             TEXT PRIMARY KEY,
    coin_id        TEXT NOT NULL,
    recommendation TEXT NOT NULL,
    npv            REAL NOT NULL,
    cagr           REAL NOT NULL,
    data           TEXT NOT NULL,
    created_at     TEXT NOT NULL
);
`

func setupAnalysisRepo(t *testing.T) *Repository {
	db, err := sql.Open("sqlite", "file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(analysesSchema)
	require.NoError(t, err)

	return NewRepository(db, zerolog.Nop())
}

// growthSeries builds a dense daily series with a steady drift and a small
// deterministic wobble, ending today.
func growthSeries(days int, start, dailyDrift float64) domain.PriceSeries {
	now := time.Now().UTC().Truncate(24 * time.Hour)
	series := make(domain.PriceSeries, days)
	price := start
	for i := 0; i < days; i++ {
		wobble := 1 + 0.01*math.Sin(float64(i)/5)
		series[i] = domain.PricePoint{
			Date:   now.AddDate(0, 0, i-days+1),
			Price:  price * wobble,
			Volume: 5e6,
		}
		price *= 1 + dailyDrift
	}
	return series
}

// crashedSeries rises then collapses below 1% of its all-time high.
func crashedSeries(days int) domain.PriceSeries {
	now := time.Now().UTC().Truncate(24 * time.Hour)
	series := make(domain.PriceSeries, days)
	for i := 0; i < days; i++ {
		price := 100 + float64(i)
		if i > days/2 {
			price = math.Max(0.5, price*math.Pow(0.9, float64(i-days/2)))
		}
		series[i] = domain.PricePoint{
			Date:   now.AddDate(0, 0, i-days+1),
			Price:  price,
			Volume: 1e5,
		}
	}
	return series
}

type fakeMarket struct {
	coin    domain.Coin
	history map[string]domain.PriceSeries
	err     error
}

func (f *fakeMarket) GetCoin(context.Context, string) (domain.Coin, error) {
	return f.coin, f.err
}

func (f *fakeMarket) GetPriceHistory(_ context.Context, coinID string, _ int) (domain.PriceSeries, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.history[coinID], nil
}

type fakeMacro struct {
	rate      float64
	rateErr   error
	benchmark domain.PriceSeries
	benchErr  error
}

func (f *fakeMacro) RiskFreeRate(context.Context) (float64, error) {
	return f.rate, f.rateErr
}

func (f *fakeMacro) GetBenchmarkSeries(context.Context, time.Time) (domain.PriceSeries, error) {
	return f.benchmark, f.benchErr
}

type fakeConditions struct {
	snapshot domain.MarketConditions
}

func (f *fakeConditions) Snapshot(context.Context) domain.MarketConditions {
	return f.snapshot
}

func newTestService(t *testing.T, market *fakeMarket, macro *fakeMacro, cond domain.MarketConditions) (*Service, *Repository) {
	repo := setupAnalysisRepo(t)
	svc := NewService(market, macro, &fakeConditions{snapshot: cond}, repo, zerolog.Nop())
	return svc, repo
}

func validInputs() domain.InvestmentInputs {
	return domain.InvestmentInputs{
		CoinID:           "bitcoin",
		InvestmentAmount: 1000,
		TotalPortfolio:   20000,
		HorizonYears:     3,
	}
}

func TestAnalyzeHappyPath(t *testing.T) {
	market := &fakeMarket{
		coin: domain.Coin{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin", Sector: "layer1"},
		history: map[string]domain.PriceSeries{
			"bitcoin": growthSeries(365, 30000, 0.001),
		},
	}
	macro := &fakeMacro{
		rate:      0.05,
		benchmark: growthSeries(365, 4000, 0.0003),
	}

	svc, repo := newTestService(t, market, macro, domain.MarketConditions{BitcoinState: domain.BitcoinBullish})

	result, err := svc.Analyze(context.Background(), validInputs())
	require.NoError(t, err)

	assert.NotEmpty(t, result.ID)
	assert.Equal(t, "bitcoin", result.Coin.ID)
	assert.Equal(t, domain.QualityReal, result.Metrics.DataQuality)
	assert.Greater(t, result.Metrics.CAGR, 0.0)
	assert.Greater(t, result.Metrics.StandardDeviation, 0.0)
	assert.GreaterOrEqual(t, result.Metrics.Beta, formulas.MinBeta)
	assert.LessOrEqual(t, result.Metrics.Beta, formulas.MaxBeta)
	assert.Equal(t, formulas.DefaultMonteCarloPaths, result.Projection.Paths)
	assert.Len(t, result.YearlyBreakdown, 3)
	assert.NotEmpty(t, result.Verdict.Action)

	// Persisted append-only and retrievable
	stored, err := repo.Get(result.ID)
	require.NoError(t, err)
	assert.Equal(t, result.ID, stored.ID)
	assert.Equal(t, result.Verdict.Action, stored.Verdict.Action)
}

func TestAnalyzeInvalidInputs(t *testing.T) {
	svc, _ := newTestService(t, &fakeMarket{}, &fakeMacro{}, domain.MarketConditions{})

	_, err := svc.Analyze(context.Background(), domain.InvestmentInputs{CoinID: "bitcoin"})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestAnalyzeInsufficientHistory(t *testing.T) {
	market := &fakeMarket{
		coin: domain.Coin{ID: "bitcoin"},
		history: map[string]domain.PriceSeries{
			"bitcoin": growthSeries(30, 30000, 0.001),
		},
	}
	macro := &fakeMacro{rate: 0.05, benchmark: growthSeries(365, 4000, 0.0003)}

	svc, _ := newTestService(t, market, macro, domain.MarketConditions{})

	_, err := svc.Analyze(context.Background(), validInputs())
	assert.True(t, errors.Is(err, domain.ErrInsufficientData))
}

func TestAnalyzeDeadAssetRecommendsSell(t *testing.T) {
	market := &fakeMarket{
		coin: domain.Coin{ID: "luna-classic", Sector: "layer1"},
		history: map[string]domain.PriceSeries{
			"luna-classic": crashedSeries(365),
		},
	}
	macro := &fakeMacro{rate: 0.05, benchmark: growthSeries(365, 4000, 0.0003)}

	svc, _ := newTestService(t, market, macro, domain.MarketConditions{BitcoinState: domain.BitcoinNeutral})

	inputs := validInputs()
	inputs.CoinID = "luna-classic"

	result, err := svc.Analyze(context.Background(), inputs)
	require.NoError(t, err)

	assert.Equal(t, -1.0, result.Metrics.CAGR)
	assert.Equal(t, domain.ActionSell, result.Verdict.Action)
}

func TestAnalyzeFallsBackWhenMacroDown(t *testing.T) {
	market := &fakeMarket{
		coin: domain.Coin{ID: "bitcoin", Sector: "layer1"},
		history: map[string]domain.PriceSeries{
			"bitcoin": growthSeries(365, 30000, 0.001),
		},
	}
	macro := &fakeMacro{
		rateErr:  domain.ErrAPIError,
		benchErr: domain.ErrAPIError,
	}

	svc, _ := newTestService(t, market, macro, domain.MarketConditions{})

	result, err := svc.Analyze(context.Background(), validInputs())
	require.NoError(t, err)

	assert.Equal(t, domain.QualityFallback, result.Metrics.DataQuality)
	// Sector fallback beta, flagged low confidence
	assert.Equal(t, formulas.ConfidenceLow, result.Metrics.BetaConfidence)
}

func TestAnalyzeExpectedPriceOverridesHistory(t *testing.T) {
	market := &fakeMarket{
		coin: domain.Coin{ID: "bitcoin", Sector: "layer1"},
		history: map[string]domain.PriceSeries{
			"bitcoin": growthSeries(365, 30000, 0.001),
		},
	}
	macro := &fakeMacro{rate: 0.05, benchmark: growthSeries(365, 4000, 0.0003)}

	svc, _ := newTestService(t, market, macro, domain.MarketConditions{})

	inputs := validInputs()
	result, err := svc.Analyze(context.Background(), inputs)
	require.NoError(t, err)

	// A pessimistic target price must pull ROI below the historical run
	current := market.history["bitcoin"][364].Price
	inputs.ExpectedPrice = current * 0.5
	pessimistic, err := svc.Analyze(context.Background(), inputs)
	require.NoError(t, err)

	assert.Less(t, pessimistic.Metrics.ROI, result.Metrics.ROI)
	assert.Less(t, pessimistic.Metrics.NPV, result.Metrics.NPV)
}

func TestRepositoryListByCoin(t *testing.T) {
	repo := setupAnalysisRepo(t)

	for i := 0; i < 3; i++ {
		result := domain.AnalysisResult{
			ID:        "id-" + string(rune('a'+i)),
			Coin:      domain.Coin{ID: "bitcoin"},
			Verdict:   domain.Recommendation{Action: domain.ActionBuy},
			CreatedAt: time.Now().UTC().Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, repo.Save(result))
	}

	results, err := repo.ListByCoin("bitcoin", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	// Newest first
	assert.Equal(t, "id-c", results[0].ID)

	_, err = repo.Get("missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
