package formulas

import (
	"fmt"
	"math"
	"time"
)

// Data-sufficiency requirements for CAGR calculations.
const (
	// MinHistoryDays is the minimum span a price series must cover.
	MinHistoryDays = 90
	// MaxConsecutiveGapDays is the largest run of missing daily
	// observations tolerated inside the series.
	MaxConsecutiveGapDays = 3
	// MinCompleteness is the minimum ratio of observed to expected daily
	// points over the series span.
	MinCompleteness = 0.95

	// DeadAssetThreshold: an asset whose last price is below this fraction
	// of its all-time high is considered dead.
	DeadAssetThreshold = 0.01

	// volatilityWindowDays is the rolling window for the volatility
	// adjustment. Series with fewer usable daily returns fall back to the
	// unadjusted CAGR.
	volatilityWindowDays = 90
)

// Confidence buckets shared by CAGR, beta and NPV calculations.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// CAGRInput holds the inputs for a CAGR calculation.
type CAGRInput struct {
	Dates  []time.Time // Strictly increasing, aligned with Prices
	Prices []float64   // Daily closing prices, all > 0

	// SourceReliability scores the data source in [0, 1]. Zero means
	// unknown and is treated as 1 (direct exchange data).
	SourceReliability float64
}

// CAGRResult holds the output of a CAGR calculation.
type CAGRResult struct {
	BasicCAGR    float64 `json:"basic_cagr"`    // (end/start)^(1/years) - 1, as decimal
	AdjustedCAGR float64 `json:"adjusted_cagr"` // Volatility-adjusted CAGR
	Years        float64 `json:"years"`
	DaysHeld     int     `json:"days_held"`
	Completeness float64 `json:"completeness"`

	// Volatility adjustment details. VolatilityAdjusted is false when the
	// series had fewer than 90 usable daily returns and AdjustedCAGR
	// equals BasicCAGR.
	VolatilityAdjusted bool    `json:"volatility_adjusted"`
	MedianVolatility   float64 `json:"median_volatility"`
	AdjustmentFactor   float64 `json:"adjustment_factor"`

	// Dead marks assets whose price collapsed below 1% of the all-time
	// high. Dead assets short-circuit to -100% CAGR.
	Dead bool `json:"dead"`

	Confidence string `json:"confidence"`
}

// BasicCAGR computes the unadjusted compound annual growth rate:
// (endPrice/startPrice)^(1/years) - 1, with years = daysHeld / 365.25.
// This is the minimal form usable on as little as two price points; the
// full engine in CalculateCAGR adds validation and volatility adjustment.
// Returns 0 on non-positive prices or a non-positive holding period.
func BasicCAGR(startPrice, endPrice float64, daysHeld int) float64 {
	if startPrice <= 0 || endPrice <= 0 || daysHeld <= 0 {
		return 0
	}
	years := float64(daysHeld) / DaysPerYear
	return math.Pow(endPrice/startPrice, 1/years) - 1
}

// ValidatePriceHistory checks a daily price series against the
// data-sufficiency rules: minimum 90-day span, no more than 3 consecutive
// missing daily observations, and at least 95% completeness over the span.
// All violations wrap ErrInsufficientData.
func ValidatePriceHistory(dates []time.Time, prices []float64) error {
	if len(dates) != len(prices) {
		return fmt.Errorf("%w: dates and prices length mismatch (%d vs %d)", ErrInsufficientData, len(dates), len(prices))
	}
	if len(prices) < 2 {
		return fmt.Errorf("%w: need at least 2 price points, got %d", ErrInsufficientData, len(prices))
	}

	for i, p := range prices {
		if p <= 0 {
			return fmt.Errorf("%w: non-positive price %.8f at index %d", ErrInsufficientData, p, i)
		}
	}

	spanDays := dates[len(dates)-1].Sub(dates[0]).Hours() / 24
	if spanDays < MinHistoryDays {
		return fmt.Errorf("%w: series spans %.0f days, need %d", ErrInsufficientData, spanDays, MinHistoryDays)
	}

	for i := 1; i < len(dates); i++ {
		if !dates[i].After(dates[i-1]) {
			return fmt.Errorf("%w: dates not strictly increasing at index %d", ErrInsufficientData, i)
		}
		gapDays := int(dates[i].Sub(dates[i-1]).Hours()/24) - 1
		if gapDays > MaxConsecutiveGapDays {
			return fmt.Errorf("%w: %d consecutive missing days at index %d", ErrInsufficientData, gapDays, i)
		}
	}

	if completeness(dates) < MinCompleteness {
		return fmt.Errorf("%w: series is %.1f%% complete, need %.0f%%", ErrInsufficientData, completeness(dates)*100, MinCompleteness*100)
	}

	return nil
}

// completeness returns observed / expected daily points over the span.
func completeness(dates []time.Time) float64 {
	if len(dates) < 2 {
		return 0
	}
	expected := dates[len(dates)-1].Sub(dates[0]).Hours()/24 + 1
	if expected <= 0 {
		return 0
	}
	ratio := float64(len(dates)) / expected
	if ratio > 1 {
		ratio = 1
	}
	return ratio
}

// CalculateCAGR computes basic and volatility-adjusted compound annual
// growth rate from a daily price series.
//
// Dead assets (last price below 1% of the all-time high) short-circuit to
// exactly -100% with low confidence and no volatility adjustment; the
// result is returned alongside ErrDeadAsset so callers can decide whether
// to surface it or carry the fixed result forward.
func CalculateCAGR(in CAGRInput) (CAGRResult, error) {
	if err := ValidatePriceHistory(in.Dates, in.Prices); err != nil {
		return CAGRResult{}, err
	}

	startPrice := in.Prices[0]
	endPrice := in.Prices[len(in.Prices)-1]
	daysHeld := int(in.Dates[len(in.Dates)-1].Sub(in.Dates[0]).Hours() / 24)
	years := float64(daysHeld) / DaysPerYear
	comp := completeness(in.Dates)

	// Dead-asset rule: price collapsed below 1% of all-time high.
	allTimeHigh := 0.0
	for _, p := range in.Prices {
		if p > allTimeHigh {
			allTimeHigh = p
		}
	}
	if endPrice < DeadAssetThreshold*allTimeHigh {
		result := CAGRResult{
			BasicCAGR:    -1.0,
			AdjustedCAGR: -1.0,
			Years:        years,
			DaysHeld:     daysHeld,
			Completeness: comp,
			Dead:         true,
			Confidence:   ConfidenceLow,
		}
		return result, fmt.Errorf("%w: last price %.8f is below 1%% of all-time high %.8f", ErrDeadAsset, endPrice, allTimeHigh)
	}

	basic := math.Pow(endPrice/startPrice, 1/years) - 1

	result := CAGRResult{
		BasicCAGR:    basic,
		AdjustedCAGR: basic,
		Years:        years,
		DaysHeld:     daysHeld,
		Completeness: comp,
		Confidence:   cagrConfidence(len(in.Prices), daysHeld, in.SourceReliability, comp),
	}

	// Volatility adjustment: median 90-day rolling annualized volatility
	// dampens the growth estimate for erratic series.
	dailyReturns := SimpleReturns(in.Prices)
	if len(dailyReturns) >= volatilityWindowDays {
		medianVol := medianRollingVolatility(dailyReturns, volatilityWindowDays)
		factor := Clamp(1/(1+medianVol), 0.1, 2.0)

		result.VolatilityAdjusted = true
		result.MedianVolatility = medianVol
		result.AdjustmentFactor = factor
		result.AdjustedCAGR = basic * factor
	}

	return result, nil
}

// medianRollingVolatility computes the median annualized volatility across
// all rolling windows of the given size.
func medianRollingVolatility(dailyReturns []float64, window int) float64 {
	if len(dailyReturns) < window {
		return 0
	}

	vols := make([]float64, 0, len(dailyReturns)-window+1)
	for i := 0; i+window <= len(dailyReturns); i++ {
		vols = append(vols, AnnualizedVolatility(dailyReturns[i:i+window]))
	}
	return Median(vols)
}

// cagrConfidence scores the reliability of a CAGR estimate from data-point
// count, span, source reliability and completeness.
func cagrConfidence(points, daysHeld int, sourceReliability, completeness float64) string {
	if sourceReliability <= 0 {
		sourceReliability = 1.0
	}

	score := 0.3*math.Min(float64(points)/365, 1) +
		0.3*math.Min(float64(daysHeld)/365, 1) +
		0.2*sourceReliability +
		0.2*completeness

	switch {
	case score >= 0.8:
		return ConfidenceHigh
	case score >= 0.5:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
