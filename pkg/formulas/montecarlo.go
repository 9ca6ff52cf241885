package formulas

import (
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// DefaultMonteCarloPaths is the number of simulated paths when the caller
// does not specify one.
const DefaultMonteCarloPaths = 10000

// MonteCarloResult holds the distribution statistics of the simulated
// terminal values.
type MonteCarloResult struct {
	ExpectedValue float64 `json:"expected_value"` // Mean terminal value across paths
	P5            float64 `json:"p5"`             // 5th percentile terminal value
	P95           float64 `json:"p95"`            // 95th percentile terminal value

	// ProbabilityOfLoss is the fraction of paths ending below the initial
	// investment.
	ProbabilityOfLoss float64 `json:"probability_of_loss"`

	// ValueAtRisk = investment - P5.
	ValueAtRisk float64 `json:"value_at_risk"`

	Paths int `json:"paths"`
}

// RunMonteCarlo simulates random walks over the holding horizon using the
// historical mean and standard deviation of monthly returns.
//
// Each month's return is drawn uniform in [mean-stdDev, mean+stdDev] and
// compounded. The uniform (not Gaussian) draw bounds the tails and keeps
// the per-month return inside one standard deviation of the mean.
//
// paths <= 0 selects DefaultMonteCarloPaths.
func RunMonteCarlo(investment, meanMonthlyReturn, monthlyStdDev float64, horizonMonths, paths int) MonteCarloResult {
	if paths <= 0 {
		paths = DefaultMonteCarloPaths
	}
	if investment <= 0 || horizonMonths <= 0 {
		return MonteCarloResult{Paths: paths}
	}

	terminals := make([]float64, paths)
	for p := 0; p < paths; p++ {
		value := investment
		for m := 0; m < horizonMonths; m++ {
			// Uniform draw in [-1, 1]. Monte Carlo does not need
			// crypto-grade randomness.
			monthlyReturn := meanMonthlyReturn + monthlyStdDev*(rand.Float64()*2-1) //nolint:gosec
			value *= 1 + monthlyReturn
			if value < 0 {
				value = 0
			}
		}
		terminals[p] = value
	}

	losses := 0
	for _, v := range terminals {
		if v < investment {
			losses++
		}
	}

	sort.Float64s(terminals)
	p5 := stat.Quantile(0.05, stat.Empirical, terminals, nil)
	p95 := stat.Quantile(0.95, stat.Empirical, terminals, nil)

	return MonteCarloResult{
		ExpectedValue:     stat.Mean(terminals, nil),
		P5:                p5,
		P95:               p95,
		ProbabilityOfLoss: float64(losses) / float64(paths),
		ValueAtRisk:       investment - p5,
		Paths:             paths,
	}
}
