package analysis

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/CryptoBazari/coin-reset-ignition-launch-sub005/internal/domain"
	"github.com/CryptoBazari/coin-reset-ignition-launch-sub005/pkg/formulas"
)

// History window fetched per analysis, in days.
const historyDays = 365

// Average days per month, used to scale daily return statistics to the
// monthly simulation step.
const daysPerMonth = formulas.DaysPerYear / 12

// MarketDataClient is the slice of the market-data API the pipeline needs.
type MarketDataClient interface {
	GetCoin(ctx context.Context, coinID string) (domain.Coin, error)
	GetPriceHistory(ctx context.Context, coinID string, days int) (domain.PriceSeries, error)
}

// MacroClient supplies the risk-free rate and the equity benchmark.
type MacroClient interface {
	RiskFreeRate(ctx context.Context) (float64, error)
	GetBenchmarkSeries(ctx context.Context, since time.Time) (domain.PriceSeries, error)
}

// ConditionsProvider supplies the qualitative market snapshot.
type ConditionsProvider interface {
	Snapshot(ctx context.Context) domain.MarketConditions
}

// Sector-level beta fallbacks used when an asset lacks the history for its
// own estimate.
var sectorBetas = map[string]float64{
	"layer1":         1.0,
	"layer2":         1.3,
	"defi":           1.5,
	"exchange":       1.2,
	"stablecoin":     0.2,
	"meme":           2.5,
	"gaming":         1.8,
	"privacy":        1.4,
	"infrastructure": 1.1,
}

// Service runs the analysis pipeline end to end.
type Service struct {
	market     MarketDataClient
	macro      MacroClient
	conditions ConditionsProvider
	repo       *Repository
	log        zerolog.Logger
}

// NewService creates the pipeline service.
func NewService(market MarketDataClient, macro MacroClient, cond ConditionsProvider, repo *Repository, log zerolog.Logger) *Service {
	return &Service{
		market:     market,
		macro:      macro,
		conditions: cond,
		repo:       repo,
		log:        log.With().Str("component", "analysis").Logger(),
	}
}

// fetched carries the results of the concurrent fan-out phase.
type fetched struct {
	coin         domain.Coin
	history      domain.PriceSeries
	benchmark    domain.PriceSeries
	riskFreeRate float64
	conditions   domain.MarketConditions

	coinErr      error
	historyErr   error
	benchmarkErr error
	riskFreeErr  error
}

// Analyze runs one full analysis for the given inputs, persists the result
// and returns it. Each run builds fresh values; nothing is shared across
// concurrent analyses.
func (s *Service) Analyze(ctx context.Context, inputs domain.InvestmentInputs) (domain.AnalysisResult, error) {
	if err := inputs.Validate(); err != nil {
		return domain.AnalysisResult{}, err
	}

	data := s.fetchAll(ctx, inputs)
	if data.coinErr != nil {
		return domain.AnalysisResult{}, data.coinErr
	}
	if data.historyErr != nil {
		return domain.AnalysisResult{}, data.historyErr
	}

	quality := domain.QualityReal

	riskFreeRate := data.riskFreeRate
	if data.riskFreeErr != nil {
		s.log.Warn().Err(data.riskFreeErr).Msg("Risk-free rate unavailable, using default")
		riskFreeRate = formulas.DefaultRiskFreeRate
		quality = domain.QualityFallback
	}

	prices := data.history.Prices()
	volumes := data.history.Volumes()
	dailyReturns := formulas.SimpleReturns(prices)
	annualVol := formulas.AnnualizedVolatility(dailyReturns)

	cagrResult, err := formulas.CalculateCAGR(formulas.CAGRInput{
		Dates:             data.history.Dates(),
		Prices:            prices,
		SourceReliability: 0.9,
	})
	if err != nil && !cagrResult.Dead {
		return domain.AnalysisResult{}, err
	}

	beta := s.estimateBeta(data, volumes)
	if data.benchmarkErr != nil {
		quality = domain.QualityFallback
	}

	liquidity := formulas.ClassifyLiquidity(volumes)

	marketReturn := formulas.MarketReturnSP500
	if inputs.Benchmark == domain.BenchmarkBitcoin {
		marketReturn = formulas.MarketReturnBitcoin
	}
	discountRate := formulas.DiscountRate(riskFreeRate, beta.Beta, marketReturn, liquidity.Premium)

	growth := projectedGrowth(inputs, cagrResult.AdjustedCAGR, prices)
	npvResult := formulas.CalculateNPV(inputs.InvestmentAmount, growth, inputs.HorizonYears, discountRate)
	roi := math.Pow(1+growth, inputs.HorizonYears) - 1

	sharpe := 0.0
	if s := formulas.CalculateSharpeFromPrices(prices, riskFreeRate); s != nil {
		sharpe = *s
	}

	projection := s.project(inputs, dailyReturns)

	riskFactor := formulas.Clamp(annualVol*beta.Beta, 0, 5)

	metrics := domain.FinancialMetrics{
		NPV:               npvResult.NPV,
		IRR:               npvResult.IRR,
		CAGR:              cagrResult.AdjustedCAGR,
		ROI:               roi,
		Beta:              beta.Beta,
		BetaConfidence:    beta.Confidence,
		StandardDeviation: annualVol,
		SharpeRatio:       sharpe,
		RiskFactor:        riskFactor,
		RiskAdjustedNPV:   npvResult.NPV / (1 + riskFactor),
		DataQuality:       quality,
	}

	verdict := ComposeRecommendation(metrics, data.conditions, inputs)

	result := domain.AnalysisResult{
		ID:              uuid.NewString(),
		Coin:            data.coin,
		Inputs:          inputs,
		Metrics:         metrics,
		Conditions:      data.conditions,
		Verdict:         verdict,
		Benchmark:       s.compareBenchmark(inputs, data),
		Projection:      projection,
		YearlyBreakdown: npvResult.YearlyBreakdown,
		CreatedAt:       time.Now().UTC(),
	}

	if err := s.repo.Save(result); err != nil {
		return domain.AnalysisResult{}, err
	}

	s.log.Info().
		Str("id", result.ID).
		Str("coin", inputs.CoinID).
		Str("recommendation", verdict.Action).
		Float64("npv", metrics.NPV).
		Str("quality", string(quality)).
		Msg("Analysis complete")

	return result, nil
}

// fetchAll fans out the independent upstream fetches concurrently and waits
// for all of them.
func (s *Service) fetchAll(ctx context.Context, inputs domain.InvestmentInputs) fetched {
	var data fetched
	var wg sync.WaitGroup

	wg.Add(4)

	go func() {
		defer wg.Done()
		data.coin, data.coinErr = s.market.GetCoin(ctx, inputs.CoinID)
	}()

	go func() {
		defer wg.Done()
		data.history, data.historyErr = s.market.GetPriceHistory(ctx, inputs.CoinID, historyDays)
	}()

	go func() {
		defer wg.Done()
		since := time.Now().AddDate(0, 0, -historyDays)
		if inputs.Benchmark == domain.BenchmarkBitcoin {
			data.benchmark, data.benchmarkErr = s.market.GetPriceHistory(ctx, domain.BenchmarkBitcoin, historyDays)
		} else {
			data.benchmark, data.benchmarkErr = s.macro.GetBenchmarkSeries(ctx, since)
		}
	}()

	go func() {
		defer wg.Done()
		data.riskFreeRate, data.riskFreeErr = s.macro.RiskFreeRate(ctx)
		data.conditions = s.conditions.Snapshot(ctx)
	}()

	wg.Wait()
	return data
}

// estimateBeta aligns the asset and benchmark series by date and runs the
// comprehensive estimator. A missing benchmark falls back to the sector
// estimate.
func (s *Service) estimateBeta(data fetched, volumes []float64) formulas.BetaResult {
	sectorBeta := formulas.DefaultBeta
	if b, ok := sectorBetas[data.coin.Sector]; ok {
		sectorBeta = b
	}

	if data.benchmarkErr != nil || len(data.benchmark) == 0 {
		s.log.Warn().Err(data.benchmarkErr).Msg("Benchmark unavailable, using sector beta")
		return formulas.BetaResult{
			Beta:                formulas.Clamp(sectorBeta, formulas.MinBeta, formulas.MaxBeta),
			RawBeta:             sectorBeta,
			Confidence:          formulas.ConfidenceLow,
			ProvisionalEstimate: true,
			LiquidityAdjustment: 1.0,
		}
	}

	assetReturns, benchmarkReturns := alignedReturns(data.history, data.benchmark)
	return formulas.CalculateComprehensiveBeta(assetReturns, benchmarkReturns, volumes, sectorBeta)
}

// alignedReturns intersects two series by calendar date and computes simple
// returns over the common days only, keeping the pairs index-aligned.
func alignedReturns(asset, benchmark domain.PriceSeries) ([]float64, []float64) {
	benchmarkByDay := make(map[string]float64, len(benchmark))
	for _, p := range benchmark {
		benchmarkByDay[p.Date.UTC().Format("2006-01-02")] = p.Price
	}

	var assetPrices, benchmarkPrices []float64
	for _, p := range asset {
		if b, ok := benchmarkByDay[p.Date.UTC().Format("2006-01-02")]; ok {
			assetPrices = append(assetPrices, p.Price)
			benchmarkPrices = append(benchmarkPrices, b)
		}
	}

	return formulas.SimpleReturns(assetPrices), formulas.SimpleReturns(benchmarkPrices)
}

// projectedGrowth picks the annual growth rate used for NPV and ROI. An
// explicit expected price overrides the historical estimate; staking yield
// adds on top either way.
func projectedGrowth(inputs domain.InvestmentInputs, adjustedCAGR float64, prices []float64) float64 {
	growth := adjustedCAGR
	if inputs.ExpectedPrice > 0 && len(prices) > 0 && prices[len(prices)-1] > 0 {
		current := prices[len(prices)-1]
		growth = math.Pow(inputs.ExpectedPrice/current, 1/inputs.HorizonYears) - 1
	}
	return growth + inputs.StakingYield
}

// project runs the Monte Carlo simulation over the holding horizon.
func (s *Service) project(inputs domain.InvestmentInputs, dailyReturns []float64) formulas.MonteCarloResult {
	meanMonthly := formulas.Mean(dailyReturns) * daysPerMonth
	stdMonthly := formulas.StdDev(dailyReturns) * math.Sqrt(daysPerMonth)
	horizonMonths := int(math.Round(inputs.HorizonYears * 12))
	if horizonMonths < 1 {
		horizonMonths = 1
	}
	return formulas.RunMonteCarlo(inputs.InvestmentAmount, meanMonthly, stdMonthly, horizonMonths, formulas.DefaultMonteCarloPaths)
}

// compareBenchmark summarizes asset-vs-benchmark performance over the
// overlapping span.
func (s *Service) compareBenchmark(inputs domain.InvestmentInputs, data fetched) domain.BenchmarkComparison {
	benchmarkName := inputs.Benchmark
	if benchmarkName == "" {
		benchmarkName = domain.BenchmarkSP500
	}

	comparison := domain.BenchmarkComparison{Benchmark: benchmarkName}
	if data.benchmarkErr != nil || len(data.benchmark) < 2 || len(data.history) < 2 {
		return comparison
	}

	comparison.AssetReturn = totalReturn(data.history.Prices())
	comparison.BenchmarkReturn = totalReturn(data.benchmark.Prices())

	assetReturns, benchmarkReturns := alignedReturns(data.history, data.benchmark)
	comparison.Correlation = formulas.Correlation(assetReturns, benchmarkReturns)
	return comparison
}

func totalReturn(prices []float64) float64 {
	if len(prices) < 2 || prices[0] <= 0 {
		return 0
	}
	return prices[len(prices)-1]/prices[0] - 1
}
