package formulas

import "math"

// MaxPeriodReturn bounds a single period return. Raw exchange data
// occasionally contains bad ticks (decimal shifts, repeated candles);
// anything beyond +/-50% per period is treated as a data error and clamped.
const MaxPeriodReturn = 0.5

// SimpleReturns converts prices to percentage returns.
// Returns[i] = (Price[i+1] - Price[i]) / Price[i], clamped to +/-MaxPeriodReturn.
// The result has length len(prices)-1.
func SimpleReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}

	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] != 0 {
			returns[i-1] = clampReturn((prices[i] - prices[i-1]) / prices[i-1])
		}
	}

	return returns
}

// LogReturns converts prices to log returns: ln(Price[i+1]/Price[i]),
// clamped to +/-MaxPeriodReturn. The result has length len(prices)-1.
func LogReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}

	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] > 0 && prices[i] > 0 {
			returns[i-1] = clampReturn(math.Log(prices[i] / prices[i-1]))
		}
	}

	return returns
}

func clampReturn(r float64) float64 {
	return Clamp(r, -MaxPeriodReturn, MaxPeriodReturn)
}
