package formulas

// Liquidity classes derived from median 30-day traded volume. Each class
// carries a fixed premium consumed by the discount-rate calculation.
const (
	LiquidityLiquid   = "liquid"
	LiquidityModerate = "moderate"
	LiquidityIlliquid = "illiquid"
)

// Volume thresholds in USD for liquidity classification.
const (
	liquidVolumeThreshold   = 1e7
	moderateVolumeThreshold = 1e6

	liquidPremium   = 0.02
	moderatePremium = 0.05
	illiquidPremium = 0.15

	liquidityWindowDays = 30
)

// LiquidityClass describes an asset's tradability bucket.
type LiquidityClass struct {
	Class   string  `json:"class"`
	Premium float64 `json:"premium"` // Added to the discount rate, as decimal

	// MedianVolume is the median daily volume over the last 30
	// observations, in USD.
	MedianVolume float64 `json:"median_volume"`
}

// ClassifyLiquidity buckets an asset by the median of its last 30 daily
// volumes: >= $10M liquid (2% premium), >= $1M moderate (5%), else
// illiquid (15%). An empty volume series classifies as illiquid.
func ClassifyLiquidity(volumes []float64) LiquidityClass {
	if len(volumes) == 0 {
		return LiquidityClass{Class: LiquidityIlliquid, Premium: illiquidPremium}
	}

	window := volumes
	if len(window) > liquidityWindowDays {
		window = window[len(window)-liquidityWindowDays:]
	}
	median := Median(window)

	switch {
	case median >= liquidVolumeThreshold:
		return LiquidityClass{Class: LiquidityLiquid, Premium: liquidPremium, MedianVolume: median}
	case median >= moderateVolumeThreshold:
		return LiquidityClass{Class: LiquidityModerate, Premium: moderatePremium, MedianVolume: median}
	default:
		return LiquidityClass{Class: LiquidityIlliquid, Premium: illiquidPremium, MedianVolume: median}
	}
}
