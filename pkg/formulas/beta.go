package formulas

// Beta estimation bounds. Low-sample estimates can produce pathological
// values; the raw covariance/variance ratio is clamped to this range.
const (
	MinBeta = 0.1
	MaxBeta = 5.0

	// DefaultBeta is used when the benchmark variance is zero or the
	// series cannot be aligned.
	DefaultBeta = 1.0
)

// BetaResult holds the output of the comprehensive beta estimation.
type BetaResult struct {
	Beta    float64 `json:"beta"`     // Final estimate, clamped to [0.1, 5.0]
	RawBeta float64 `json:"raw_beta"` // Before liquidity adjustment and clamping

	Confidence string `json:"confidence"`

	// ProvisionalEstimate is true when historical depth was insufficient
	// and a sector-level fallback beta was used instead.
	ProvisionalEstimate bool `json:"provisional_estimate"`

	LookbackDays        int     `json:"lookback_days"`
	LiquidityAdjustment float64 `json:"liquidity_adjustment"`
}

// CalculateBeta computes covariance(asset, benchmark) / variance(benchmark)
// over pairwise-aligned return series, clamped to [0.1, 5.0].
//
// A zero-variance or misaligned benchmark yields the default beta of 1.0
// rather than a division error.
func CalculateBeta(assetReturns, benchmarkReturns []float64) float64 {
	if len(assetReturns) < 2 || len(assetReturns) != len(benchmarkReturns) {
		return DefaultBeta
	}

	benchmarkVariance := Variance(benchmarkReturns)
	if benchmarkVariance == 0 {
		return DefaultBeta
	}

	// Mean-center both series. Covariance is shift-invariant, but working
	// on centered values keeps intermediate magnitudes small for assets
	// with strong drift.
	assetCentered := meanCenter(assetReturns)
	benchmarkCentered := meanCenter(benchmarkReturns)

	beta := Covariance(assetCentered, benchmarkCentered) / benchmarkVariance
	return Clamp(beta, MinBeta, MaxBeta)
}

// CalculateComprehensiveBeta estimates beta with an adaptive lookback
// window derived from recent volatility, a liquidity-based adjustment, and
// a sector-level fallback when historical depth is insufficient.
//
// sectorBeta is the fallback estimate for the asset's sector; pass 0 when
// no sector estimate is available (the default beta is used instead).
func CalculateComprehensiveBeta(assetReturns, benchmarkReturns, volumes []float64, sectorBeta float64) BetaResult {
	lookback := adaptiveLookbackDays(assetReturns)

	// Insufficient aligned history: fall back to the sector estimate and
	// tag the result as provisional.
	if len(assetReturns) < lookback/2 || len(assetReturns) != len(benchmarkReturns) || len(assetReturns) < 2 {
		beta := sectorBeta
		if beta <= 0 {
			beta = DefaultBeta
		}
		return BetaResult{
			Beta:                Clamp(beta, MinBeta, MaxBeta),
			RawBeta:             beta,
			Confidence:          ConfidenceLow,
			ProvisionalEstimate: true,
			LookbackDays:        lookback,
			LiquidityAdjustment: 1.0,
		}
	}

	// Trim both series to the lookback window.
	asset := assetReturns
	benchmark := benchmarkReturns
	if len(asset) > lookback {
		asset = asset[len(asset)-lookback:]
		benchmark = benchmark[len(benchmark)-lookback:]
	}

	raw := CalculateBeta(asset, benchmark)

	// Thinly traded assets show dampened covariance with the benchmark;
	// scale the estimate up by liquidity class.
	adjustment := liquidityBetaAdjustment(volumes)
	beta := Clamp(raw*adjustment, MinBeta, MaxBeta)

	return BetaResult{
		Beta:                beta,
		RawBeta:             raw,
		Confidence:          betaConfidence(len(asset)),
		LookbackDays:        lookback,
		LiquidityAdjustment: adjustment,
	}
}

// adaptiveLookbackDays derives the estimation window from the annualized
// volatility of the last 30 daily returns: calmer assets get a longer
// window, volatile ones a shorter, more reactive one.
func adaptiveLookbackDays(dailyReturns []float64) int {
	window := dailyReturns
	if len(window) > 30 {
		window = window[len(window)-30:]
	}
	vol := AnnualizedVolatility(window)

	switch {
	case vol < 0.5:
		return 365
	case vol < 1.0:
		return 180
	default:
		return 90
	}
}

func liquidityBetaAdjustment(volumes []float64) float64 {
	switch ClassifyLiquidity(volumes).Class {
	case LiquidityIlliquid:
		return 1.2
	case LiquidityModerate:
		return 1.1
	default:
		return 1.0
	}
}

func betaConfidence(samples int) string {
	switch {
	case samples >= 180:
		return ConfidenceHigh
	case samples >= 90:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

func meanCenter(data []float64) []float64 {
	mean := Mean(data)
	centered := make([]float64, len(data))
	for i, v := range data {
		centered[i] = v - mean
	}
	return centered
}
