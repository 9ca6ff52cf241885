package formulas

import "math"

// CalculateSharpeRatio calculates the annualized Sharpe ratio.
//
// Sharpe = (Mean Periodic Return - Periodic Risk-free Rate) / Std Dev,
// annualized by sqrt(periodsPerYear).
//
// Args:
//
//	returns: Array of periodic returns (daily, monthly, etc.)
//	riskFreeRate: Risk-free rate (annual, as decimal, e.g., 0.045)
//	periodsPerYear: Number of periods per year (365 for daily crypto data,
//	  12 for monthly)
//
// Returns:
//
//	Sharpe ratio or nil if insufficient data or zero volatility
func CalculateSharpeRatio(returns []float64, riskFreeRate float64, periodsPerYear int) *float64 {
	if len(returns) < 2 || periodsPerYear <= 0 {
		return nil
	}

	stdDev := StdDev(returns)
	if stdDev == 0 {
		return nil
	}

	periodicRiskFree := riskFreeRate / float64(periodsPerYear)
	sharpe := (Mean(returns) - periodicRiskFree) / stdDev

	annualized := sharpe * math.Sqrt(float64(periodsPerYear))
	return &annualized
}

// CalculateSharpeFromPrices calculates the Sharpe ratio directly from a
// daily price series.
func CalculateSharpeFromPrices(prices []float64, riskFreeRate float64) *float64 {
	if len(prices) < 2 {
		return nil
	}
	return CalculateSharpeRatio(SimpleReturns(prices), riskFreeRate, 365)
}
