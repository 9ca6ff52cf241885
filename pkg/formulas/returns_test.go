package formulas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimpleReturns(t *testing.T) {
	assert.Empty(t, SimpleReturns([]float64{100}))

	returns := SimpleReturns([]float64{100, 110, 99})
	assert.Len(t, returns, 2)
	assert.InDelta(t, 0.10, returns[0], 1e-12)
	assert.InDelta(t, -0.10, returns[1], 1e-12)
}

func TestSimpleReturnsClampsDataErrorSpikes(t *testing.T) {
	// A decimal-shift style bad tick produces a +900% period return,
	// which must be bounded to +50%.
	returns := SimpleReturns([]float64{100, 1000, 100})
	assert.Equal(t, MaxPeriodReturn, returns[0])
	assert.Equal(t, -MaxPeriodReturn, returns[1])
}

func TestLogReturns(t *testing.T) {
	returns := LogReturns([]float64{100, 110})
	assert.Len(t, returns, 1)
	assert.InDelta(t, math.Log(1.1), returns[0], 1e-12)

	// Non-positive prices contribute a zero return instead of NaN.
	returns = LogReturns([]float64{100, 0, 100})
	assert.Equal(t, 0.0, returns[0])
	assert.Equal(t, 0.0, returns[1])
}
