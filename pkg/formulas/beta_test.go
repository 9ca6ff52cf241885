package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateBetaAgainstItself(t *testing.T) {
	returns := []float64{0.01, -0.02, 0.03, 0.005, -0.015, 0.02, -0.01}
	assert.InDelta(t, 1.0, CalculateBeta(returns, returns), 1e-9)
}

func TestCalculateBetaZeroVarianceBenchmark(t *testing.T) {
	asset := []float64{0.01, -0.02, 0.03}
	benchmark := []float64{0.005, 0.005, 0.005}
	assert.Equal(t, DefaultBeta, CalculateBeta(asset, benchmark))
}

func TestCalculateBetaMisalignedSeries(t *testing.T) {
	assert.Equal(t, DefaultBeta, CalculateBeta([]float64{0.01, 0.02}, []float64{0.01}))
	assert.Equal(t, DefaultBeta, CalculateBeta(nil, nil))
}

func TestCalculateBetaClamping(t *testing.T) {
	// Asset moves 10x the benchmark: raw beta 10, clamped to 5.0.
	benchmark := []float64{0.01, -0.01, 0.02, -0.02, 0.015, -0.015}
	asset := make([]float64, len(benchmark))
	for i, r := range benchmark {
		asset[i] = r * 10
	}
	assert.Equal(t, MaxBeta, CalculateBeta(asset, benchmark))

	// Asset moves a hundredth of the benchmark: clamped to 0.1.
	for i, r := range benchmark {
		asset[i] = r * 0.01
	}
	assert.Equal(t, MinBeta, CalculateBeta(asset, benchmark))
}

func TestComprehensiveBetaSectorFallback(t *testing.T) {
	// Ten observations cannot support any lookback window.
	asset := []float64{0.01, -0.02, 0.03, 0.005, -0.015, 0.02, -0.01, 0.01, 0.0, 0.005}
	benchmark := []float64{0.005, -0.01, 0.02, 0.0, -0.01, 0.015, -0.005, 0.005, 0.0, 0.002}

	result := CalculateComprehensiveBeta(asset, benchmark, nil, 1.3)
	assert.True(t, result.ProvisionalEstimate)
	assert.Equal(t, 1.3, result.Beta)
	assert.Equal(t, ConfidenceLow, result.Confidence)
}

func TestComprehensiveBetaSectorFallbackWithoutSectorEstimate(t *testing.T) {
	result := CalculateComprehensiveBeta([]float64{0.01}, []float64{0.01}, nil, 0)
	assert.True(t, result.ProvisionalEstimate)
	assert.Equal(t, DefaultBeta, result.Beta)
}

func TestComprehensiveBetaLiquidityAdjustment(t *testing.T) {
	// Calm, deeply correlated series over a full year.
	asset := make([]float64, 400)
	benchmark := make([]float64, 400)
	for i := range asset {
		r := 0.001
		if i%2 == 0 {
			r = -0.001
		}
		benchmark[i] = r
		asset[i] = r
	}

	// Thin volume scales the raw estimate up by 1.2.
	thinVolumes := make([]float64, 30)
	for i := range thinVolumes {
		thinVolumes[i] = 100_000
	}

	result := CalculateComprehensiveBeta(asset, benchmark, thinVolumes, 0)
	assert.False(t, result.ProvisionalEstimate)
	assert.InDelta(t, 1.0, result.RawBeta, 1e-9)
	assert.Equal(t, 1.2, result.LiquidityAdjustment)
	assert.InDelta(t, 1.2, result.Beta, 1e-9)
}

func TestAdaptiveLookbackDays(t *testing.T) {
	calm := make([]float64, 60)
	assert.Equal(t, 365, adaptiveLookbackDays(calm))

	wild := make([]float64, 60)
	for i := range wild {
		if i%2 == 0 {
			wild[i] = 0.10
		} else {
			wild[i] = -0.10
		}
	}
	assert.Equal(t, 90, adaptiveLookbackDays(wild))
}
