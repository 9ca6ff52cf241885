// Package domain defines the core value records of the analysis pipeline.
// Every record is a plain value, computed once per analysis run and never
// mutated afterwards; nothing here depends on infrastructure.
package domain

import (
	"fmt"
	"time"

	"github.com/CryptoBazari/coin-reset-ignition-launch-sub005/pkg/formulas"
)

// PricePoint is a single observation in an asset's price history.
type PricePoint struct {
	Date      time.Time `json:"date"`
	Price     float64   `json:"price"`
	Volume    float64   `json:"volume,omitempty"`
	MarketCap float64   `json:"market_cap,omitempty"`
}

// PriceSeries is a date-ordered sequence of price points.
type PriceSeries []PricePoint

// Dates returns the observation dates, in series order.
func (s PriceSeries) Dates() []time.Time {
	dates := make([]time.Time, len(s))
	for i, p := range s {
		dates[i] = p.Date
	}
	return dates
}

// Prices returns the closing prices, in series order.
func (s PriceSeries) Prices() []float64 {
	prices := make([]float64, len(s))
	for i, p := range s {
		prices[i] = p.Price
	}
	return prices
}

// Volumes returns the traded volumes, in series order.
func (s PriceSeries) Volumes() []float64 {
	volumes := make([]float64, len(s))
	for i, p := range s {
		volumes[i] = p.Volume
	}
	return volumes
}

// Coin holds static attributes of a tracked asset.
type Coin struct {
	ID        string    `json:"id"` // Provider identifier, e.g. "bitcoin"
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name"`
	Sector    string    `json:"sector,omitempty"` // e.g. "layer1", "defi"; used for beta fallback
	MarketCap float64   `json:"market_cap,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Benchmarks for beta and market-premium derivation.
const (
	BenchmarkSP500   = "sp500"
	BenchmarkBitcoin = "bitcoin"
)

// InvestmentInputs are the user-supplied parameters of one analysis run.
type InvestmentInputs struct {
	CoinID           string  `json:"coin_id"`
	InvestmentAmount float64 `json:"investment_amount"`
	TotalPortfolio   float64 `json:"total_portfolio"`
	HorizonYears     float64 `json:"horizon_years"`
	ExpectedPrice    float64 `json:"expected_price,omitempty"`
	StakingYield     float64 `json:"staking_yield,omitempty"`

	// Benchmark selects the comparison series: "sp500" (default) or
	// "bitcoin" for crypto-vs-crypto analysis.
	Benchmark string `json:"benchmark,omitempty"`
}

// Validate checks inputs for positivity and range only; everything else is
// the pipeline's business.
func (in InvestmentInputs) Validate() error {
	if in.CoinID == "" {
		return fmt.Errorf("%w: coin_id is required", ErrInvalidInput)
	}
	if in.InvestmentAmount <= 0 {
		return fmt.Errorf("%w: investment_amount must be positive", ErrInvalidInput)
	}
	if in.TotalPortfolio < in.InvestmentAmount {
		return fmt.Errorf("%w: total_portfolio must be at least investment_amount", ErrInvalidInput)
	}
	if in.HorizonYears <= 0 || in.HorizonYears > 50 {
		return fmt.Errorf("%w: horizon_years must be in (0, 50]", ErrInvalidInput)
	}
	if in.ExpectedPrice < 0 {
		return fmt.Errorf("%w: expected_price must be non-negative", ErrInvalidInput)
	}
	if in.StakingYield < 0 || in.StakingYield > 1 {
		return fmt.Errorf("%w: staking_yield must be in [0, 1]", ErrInvalidInput)
	}
	switch in.Benchmark {
	case "", BenchmarkSP500, BenchmarkBitcoin:
	default:
		return fmt.Errorf("%w: unknown benchmark %q", ErrInvalidInput, in.Benchmark)
	}
	return nil
}

// DataQuality tags the provenance of a metrics record structurally, so
// downstream consumers never have to infer it from which fields happen to
// be present.
type DataQuality string

const (
	// QualityReal: all inputs came from live provider data.
	QualityReal DataQuality = "real"
	// QualityFallback: one or more inputs came from the static/estimated
	// fallback path after an upstream failure.
	QualityFallback DataQuality = "fallback"
)

// FinancialMetrics is the flat record of computed metrics for one
// (coin, investment-input) pair.
type FinancialMetrics struct {
	NPV               float64     `json:"npv"`
	IRR               float64     `json:"irr"`
	CAGR              float64     `json:"cagr"`
	ROI               float64     `json:"roi"`
	Beta              float64     `json:"beta"`
	BetaConfidence    string      `json:"beta_confidence"`
	StandardDeviation float64     `json:"standard_deviation"`
	SharpeRatio       float64     `json:"sharpe_ratio"`
	RiskFactor        float64     `json:"risk_factor"`
	RiskAdjustedNPV   float64     `json:"risk_adjusted_npv"`
	DataQuality       DataQuality `json:"data_quality"`
}

// Bitcoin market trend states.
const (
	BitcoinBullish = "bullish"
	BitcoinBearish = "bearish"
	BitcoinNeutral = "neutral"
)

// MarketConditions is a qualitative snapshot of the wider market,
// recomputed per analysis and never updated in place.
type MarketConditions struct {
	BitcoinState       string   `json:"bitcoin_state"` // bullish, bearish or neutral
	AvivRatio          *float64 `json:"aviv_ratio,omitempty"`
	VaultedSupply      *float64 `json:"vaulted_supply,omitempty"`
	ActiveSupply       *float64 `json:"active_supply,omitempty"`
	SmartMoneyActivity bool     `json:"smart_money_activity"`
	FedRateChange      float64  `json:"fed_rate_change"` // Latest period-over-period change, percentage points
}

// Recommendation actions.
const (
	ActionBuy      = "buy"
	ActionBuyLess  = "buy_less"
	ActionDoNotBuy = "do_not_buy"
	ActionSell     = "sell"
)

// Recommendation is the discrete verdict produced once per analysis.
type Recommendation struct {
	Action            string   `json:"recommendation"`
	Confidence        float64  `json:"confidence"` // 0..1, accumulated per signal
	WorthInvesting    bool     `json:"worth_investing"`
	GoodTiming        bool     `json:"good_timing"`
	AppropriateAmount bool     `json:"appropriate_amount"`
	ShouldDiversify   bool     `json:"should_diversify"`
	RiskFactor        float64  `json:"risk_factor"`
	Conditions        []string `json:"conditions"`
	Risks             []string `json:"risks"`
}

// BenchmarkComparison summarizes how the asset fared against the selected
// benchmark over the analyzed span.
type BenchmarkComparison struct {
	Benchmark       string  `json:"benchmark"`
	BenchmarkReturn float64 `json:"benchmark_return"` // Total return over the span
	AssetReturn     float64 `json:"asset_return"`
	Correlation     float64 `json:"correlation"`
}

// AnalysisResult aggregates everything one analysis run produced. Results
// are persisted append-only and never mutated or deleted.
type AnalysisResult struct {
	ID         string              `json:"id"` // uuid
	Coin       Coin                `json:"coin"`
	Inputs     InvestmentInputs    `json:"inputs"`
	Metrics    FinancialMetrics    `json:"metrics"`
	Conditions MarketConditions    `json:"conditions"`
	Verdict    Recommendation      `json:"verdict"`
	Benchmark  BenchmarkComparison `json:"benchmark"`

	// Display-only detail: the simulated terminal-value distribution and
	// the discounted yearly cash flows behind the NPV.
	Projection      formulas.MonteCarloResult `json:"projection"`
	YearlyBreakdown []formulas.YearCashFlow   `json:"yearly_breakdown"`

	CreatedAt time.Time `json:"created_at"`
}
