// Package conditions builds the qualitative market snapshot consumed by the
// recommendation composer: bitcoin trend state, on-chain valuation flags and
// the latest Fed-rate direction.
package conditions

import (
	"context"
	"time"

	talib "github.com/markcheno/go-talib"
	"github.com/rs/zerolog"

	"github.com/CryptoBazari/coin-reset-ignition-launch-sub005/internal/clients/glassnode"
	"github.com/CryptoBazari/coin-reset-ignition-launch-sub005/internal/domain"
)

// Trend detection windows, in daily bars.
const (
	shortTrendPeriod = 50
	longTrendPeriod  = 200

	// Crossovers inside this band count as neutral rather than flip-flopping
	// between states on noise.
	trendNeutralBand = 0.01
)

// AVIV ratio buckets.
const (
	AvivOversold   = 0.55
	AvivOverbought = 2.5
)

// PriceSource supplies daily price history.
type PriceSource interface {
	GetPriceHistory(ctx context.Context, coinID string, days int) (domain.PriceSeries, error)
}

// OnchainSource supplies on-chain metric series. Enabled reports whether the
// provider is configured at all.
type OnchainSource interface {
	Enabled() bool
	GetMetric(ctx context.Context, metricPath, asset string, since time.Time) ([]glassnode.MetricPoint, error)
	LatestValue(ctx context.Context, metricPath, asset string) (float64, error)
}

// MacroSource supplies the Fed funds rate direction.
type MacroSource interface {
	FedRateChange(ctx context.Context) (float64, error)
}

// Service computes market-condition snapshots.
type Service struct {
	prices  PriceSource
	onchain OnchainSource
	macro   MacroSource
	log     zerolog.Logger
}

// NewService creates a conditions service.
func NewService(prices PriceSource, onchain OnchainSource, macro MacroSource, log zerolog.Logger) *Service {
	return &Service{
		prices:  prices,
		onchain: onchain,
		macro:   macro,
		log:     log.With().Str("component", "conditions").Logger(),
	}
}

// Snapshot computes the current market conditions. Every input is optional:
// a failed or unconfigured source leaves its fields at their zero value and
// the snapshot still returns, so an analysis never fails on conditions.
func (s *Service) Snapshot(ctx context.Context) domain.MarketConditions {
	conditions := domain.MarketConditions{
		BitcoinState: domain.BitcoinNeutral,
	}

	series, err := s.prices.GetPriceHistory(ctx, domain.BenchmarkBitcoin, longTrendPeriod+30)
	if err != nil {
		s.log.Warn().Err(err).Msg("Bitcoin history unavailable, trend state neutral")
	} else {
		conditions.BitcoinState = BitcoinTrendState(series.Prices())
	}

	if s.onchain != nil && s.onchain.Enabled() {
		s.fillOnchain(ctx, &conditions)
	}

	if s.macro != nil {
		change, err := s.macro.FedRateChange(ctx)
		if err != nil {
			s.log.Warn().Err(err).Msg("Fed rate change unavailable")
		} else {
			conditions.FedRateChange = change
		}
	}

	return conditions
}

// BitcoinTrendState classifies a daily close series as bullish, bearish or
// neutral by comparing the 50-day and 200-day simple moving averages.
func BitcoinTrendState(closes []float64) string {
	if len(closes) < longTrendPeriod {
		return domain.BitcoinNeutral
	}

	shortMA := talib.Sma(closes, shortTrendPeriod)
	longMA := talib.Sma(closes, longTrendPeriod)

	latestShort := shortMA[len(shortMA)-1]
	latestLong := longMA[len(longMA)-1]
	if latestLong <= 0 {
		return domain.BitcoinNeutral
	}

	spread := (latestShort - latestLong) / latestLong
	switch {
	case spread > trendNeutralBand:
		return domain.BitcoinBullish
	case spread < -trendNeutralBand:
		return domain.BitcoinBearish
	default:
		return domain.BitcoinNeutral
	}
}

// AvivBucket classifies an AVIV ratio value.
func AvivBucket(ratio float64) string {
	switch {
	case ratio < AvivOversold:
		return "oversold"
	case ratio > AvivOverbought:
		return "overbought"
	default:
		return "neutral"
	}
}

func (s *Service) fillOnchain(ctx context.Context, conditions *domain.MarketConditions) {
	if aviv, err := s.onchain.LatestValue(ctx, glassnode.MetricAVIV, "BTC"); err != nil {
		s.log.Warn().Err(err).Msg("AVIV ratio unavailable")
	} else {
		conditions.AvivRatio = &aviv
	}

	if active, err := s.onchain.LatestValue(ctx, glassnode.MetricActiveSupply, "BTC"); err != nil {
		s.log.Warn().Err(err).Msg("Active supply unavailable")
	} else {
		conditions.ActiveSupply = &active
	}

	since := time.Now().AddDate(0, -1, 0)
	vaulted, err := s.onchain.GetMetric(ctx, glassnode.MetricVaultedSupply, "BTC", since)
	if err != nil || len(vaulted) == 0 {
		s.log.Warn().Err(err).Msg("Vaulted supply unavailable")
		return
	}

	latest := vaulted[len(vaulted)-1].V
	conditions.VaultedSupply = &latest

	// Long-term holders moving coins into vaulted (dormant) supply over the
	// trailing month reads as smart-money accumulation.
	conditions.SmartMoneyActivity = latest > vaulted[0].V
}
