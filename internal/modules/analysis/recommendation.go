package analysis

import (
	"github.com/CryptoBazari/coin-reset-ignition-launch-sub005/internal/domain"
	"github.com/CryptoBazari/coin-reset-ignition-launch-sub005/internal/modules/conditions"
	"github.com/CryptoBazari/coin-reset-ignition-launch-sub005/pkg/formulas"
)

// Signal thresholds for the rule-based composer.
const (
	strongIRRThreshold = 0.15

	// Annualized volatility bands.
	lowVolatilityBand  = 0.60
	highVolatilityBand = 1.20

	goodSharpeThreshold = 1.0

	// Portfolio sizing bands, as fraction of total portfolio.
	appropriateAllocation = 0.10
	diversifyAllocation   = 0.25

	baseConfidence      = 0.5
	confidencePerSignal = 0.05
)

// ComposeRecommendation maps computed metrics and market conditions to a
// discrete action. It is deterministic and stateless: the same metrics and
// conditions always produce the same verdict.
func ComposeRecommendation(
	metrics domain.FinancialMetrics,
	market domain.MarketConditions,
	inputs domain.InvestmentInputs,
) domain.Recommendation {
	var positives, negatives []string

	if metrics.NPV > 0 {
		positives = append(positives, "positive net present value at the required discount rate")
	} else {
		negatives = append(negatives, "negative net present value at the required discount rate")
	}

	switch {
	case metrics.IRR >= strongIRRThreshold:
		positives = append(positives, "internal rate of return above 15%")
	case metrics.IRR < 0:
		negatives = append(negatives, "negative internal rate of return")
	}

	switch {
	case metrics.StandardDeviation > 0 && metrics.StandardDeviation <= lowVolatilityBand:
		positives = append(positives, "volatility in the lower band for crypto assets")
	case metrics.StandardDeviation >= highVolatilityBand:
		negatives = append(negatives, "extreme price volatility")
	}

	switch {
	case metrics.SharpeRatio >= goodSharpeThreshold:
		positives = append(positives, "risk-adjusted returns beat the risk-free alternative")
	case metrics.SharpeRatio < 0:
		negatives = append(negatives, "historical returns below the risk-free rate")
	}

	if market.AvivRatio != nil {
		switch conditions.AvivBucket(*market.AvivRatio) {
		case "oversold":
			positives = append(positives, "on-chain valuation in oversold territory")
		case "overbought":
			negatives = append(negatives, "on-chain valuation in overbought territory")
		}
	}

	if market.SmartMoneyActivity {
		positives = append(positives, "long-term holders accumulating")
	}

	switch {
	case market.FedRateChange < 0:
		positives = append(positives, "monetary policy easing")
	case market.FedRateChange > 0:
		negatives = append(negatives, "monetary policy tightening")
	}

	switch market.BitcoinState {
	case domain.BitcoinBullish:
		positives = append(positives, "bitcoin in a bullish trend")
	case domain.BitcoinBearish:
		negatives = append(negatives, "bitcoin in a bearish trend")
	}

	if metrics.DataQuality == domain.QualityFallback {
		negatives = append(negatives, "analysis based on fallback data, treat with caution")
	}

	allocation := 0.0
	if inputs.TotalPortfolio > 0 {
		allocation = inputs.InvestmentAmount / inputs.TotalPortfolio
	}

	rec := domain.Recommendation{
		Action:            chooseAction(metrics, len(positives), len(negatives)),
		Confidence:        signalConfidence(len(positives), len(negatives)),
		WorthInvesting:    metrics.NPV > 0,
		GoodTiming:        goodTiming(market),
		AppropriateAmount: allocation <= appropriateAllocation,
		ShouldDiversify:   allocation > diversifyAllocation,
		RiskFactor:        metrics.RiskFactor,
		Conditions:        positives,
		Risks:             negatives,
	}
	if rec.Conditions == nil {
		rec.Conditions = []string{}
	}
	if rec.Risks == nil {
		rec.Risks = []string{}
	}
	return rec
}

func chooseAction(metrics domain.FinancialMetrics, positives, negatives int) string {
	// A dead asset is a sell regardless of signal counts.
	if metrics.CAGR <= -1.0 {
		return domain.ActionSell
	}

	switch {
	case positives >= negatives+2:
		return domain.ActionBuy
	case positives > negatives:
		return domain.ActionBuyLess
	default:
		return domain.ActionDoNotBuy
	}
}

// signalConfidence starts at the base and moves a fixed increment per net
// signal, clamped to [0.1, 0.95].
func signalConfidence(positives, negatives int) float64 {
	net := float64(positives - negatives)
	return formulas.Clamp(baseConfidence+net*confidencePerSignal, 0.1, 0.95)
}

func goodTiming(market domain.MarketConditions) bool {
	if market.BitcoinState == domain.BitcoinBearish {
		return false
	}
	if market.AvivRatio != nil && conditions.AvivBucket(*market.AvivRatio) == "overbought" {
		return false
	}
	return true
}
