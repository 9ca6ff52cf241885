package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscountRate(t *testing.T) {
	// rf + beta x (market - rf) + liquidity premium
	got := DiscountRate(0.045, 1.5, 0.10, 0.05)
	assert.InDelta(t, 0.045+1.5*0.055+0.05, got, 1e-12)
}

func TestCalculateNPVZeroAtDiscountEqualsCAGR(t *testing.T) {
	// When the discount rate equals the growth rate, the present value of
	// the terminal cash flow equals the investment.
	result := CalculateNPV(10000, 0.15, 3, 0.15)
	assert.InDelta(t, 0.0, result.NPV, 1e-9)
}

func TestCalculateNPVPositiveWhenDiscountBelowGrowth(t *testing.T) {
	result := CalculateNPV(10000, 0.15, 3, 0.05)
	assert.Greater(t, result.NPV, 0.0)
}

func TestCalculateNPVNegativeWhenDiscountAboveGrowth(t *testing.T) {
	result := CalculateNPV(10000, 0.05, 3, 0.15)
	assert.Less(t, result.NPV, 0.0)
}

func TestCalculateNPVIRREqualsCAGR(t *testing.T) {
	// Single terminal cash flow: IRR collapses to the growth rate.
	result := CalculateNPV(10000, 0.15, 3, 0.08)
	assert.InDelta(t, 0.15, result.IRR, 1e-9)
}

func TestCalculateNPVYearlyBreakdown(t *testing.T) {
	result := CalculateNPV(10000, 0.10, 3, 0.08)
	require.Len(t, result.YearlyBreakdown, 3)

	// Only the terminal year carries a cash flow.
	assert.Equal(t, 0.0, result.YearlyBreakdown[0].CashFlow)
	assert.Equal(t, 0.0, result.YearlyBreakdown[1].CashFlow)
	assert.InDelta(t, result.TerminalValue, result.YearlyBreakdown[2].CashFlow, 1e-9)

	// The terminal row's present value minus the investment is the NPV.
	assert.InDelta(t, result.NPV, result.YearlyBreakdown[2].PresentValue-10000, 1e-9)
}

func TestCalculateNPVInvalidInputs(t *testing.T) {
	assert.Equal(t, NPVResult{}, CalculateNPV(0, 0.1, 3, 0.1))
	assert.Equal(t, NPVResult{}, CalculateNPV(10000, 0.1, 0, 0.1))
}

func TestNPVConfidence(t *testing.T) {
	assert.Equal(t, ConfidenceHigh, NPVConfidence(400, true, 1.2))
	assert.Equal(t, ConfidenceMedium, NPVConfidence(200, true, 4.0))
	assert.Equal(t, ConfidenceLow, NPVConfidence(30, false, 4.0))
}
