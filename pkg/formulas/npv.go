package formulas

import "math"

// Benchmark expected returns and the risk-free fallback used by the
// CAPM-style discount rate. The risk-free rate is normally sourced from
// the Fed funds series; DefaultRiskFreeRate applies when that series is
// unavailable.
const (
	DefaultRiskFreeRate = 0.045

	// MarketReturnSP500 is the assumed long-run return of the broad
	// equity index benchmark.
	MarketReturnSP500 = 0.10
	// MarketReturnBitcoin is the assumed long-run return when Bitcoin is
	// the benchmark.
	MarketReturnBitcoin = 0.15
)

// YearCashFlow is one row of the yearly NPV breakdown. Only the terminal
// year carries a nonzero cash flow; the breakdown exists for display, not
// further computation.
type YearCashFlow struct {
	Year           int     `json:"year"`
	CashFlow       float64 `json:"cash_flow"`
	DiscountFactor float64 `json:"discount_factor"`
	PresentValue   float64 `json:"present_value"`
}

// NPVResult holds the output of the NPV/IRR calculation.
type NPVResult struct {
	NPV           float64 `json:"npv"`
	IRR           float64 `json:"irr"`
	TerminalValue float64 `json:"terminal_value"`
	DiscountRate  float64 `json:"discount_rate"`

	YearlyBreakdown []YearCashFlow `json:"yearly_breakdown"`
}

// DiscountRate combines the risk-free rate, beta, market premium and
// liquidity premium into a CAPM-style discount rate:
//
//	discount = rf + beta x (market - rf) + liquidityPremium
func DiscountRate(riskFreeRate, beta, marketReturn, liquidityPremium float64) float64 {
	return riskFreeRate + beta*(marketReturn-riskFreeRate) + liquidityPremium
}

// CalculateNPV derives NPV, IRR and the yearly breakdown for a single
// terminal cash flow model:
//
//	terminal = investment x (1+cagr)^years
//	NPV      = terminal / (1+discount)^years - investment
//	IRR      = (terminal/investment)^(1/years) - 1
//
// Returns a zero result when investment or years is non-positive.
func CalculateNPV(investment, cagr, years, discountRate float64) NPVResult {
	if investment <= 0 || years <= 0 {
		return NPVResult{}
	}

	terminal := investment * math.Pow(1+cagr, years)
	npv := terminal/math.Pow(1+discountRate, years) - investment
	irr := math.Pow(terminal/investment, 1/years) - 1

	// Yearly breakdown: discount factor per year, cash flow only in the
	// terminal year.
	numYears := int(math.Ceil(years))
	breakdown := make([]YearCashFlow, 0, numYears)
	for year := 1; year <= numYears; year++ {
		factor := math.Pow(1+discountRate, float64(year))
		row := YearCashFlow{
			Year:           year,
			DiscountFactor: factor,
		}
		if year == numYears {
			row.CashFlow = terminal
			row.PresentValue = terminal / factor
		}
		breakdown = append(breakdown, row)
	}

	return NPVResult{
		NPV:             npv,
		IRR:             irr,
		TerminalValue:   terminal,
		DiscountRate:    discountRate,
		YearlyBreakdown: breakdown,
	}
}

// NPVConfidence scores the reliability of an NPV estimate from
// price-history depth, volume-data availability and beta plausibility
// (estimates in the 0.5-2.0 range are preferred).
func NPVConfidence(historyDays int, hasVolumeData bool, beta float64) string {
	score := 0.4 * math.Min(float64(historyDays)/365, 1)
	if hasVolumeData {
		score += 0.3
	}
	if beta >= 0.5 && beta <= 2.0 {
		score += 0.3
	}

	switch {
	case score >= 0.8:
		return ConfidenceHigh
	case score >= 0.5:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
