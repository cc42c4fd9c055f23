package optimization

import (
	"gonum.org/v1/gonum/mat"

	"github.com/rs/zerolog"

	"github.com/quantframe/quantframe/pkg/formulas"
)

// MaximumSharpeRatioOptimizer maximizes the portfolio Sharpe ratio
// indirectly: it minimizes portfolio variance subject to the budget
// constraint (sum of weights = 1) and a fixed excess-return level
// (mu - rf)' w = k, with k evaluated at the equal-weight initial
// guess. The indirect formulation keeps the objective quadratic and
// avoids the non-smooth direct Sharpe objective.
//
// Solver failure is NOT absorbed here: non-convergence propagates to
// the caller, unlike MinimumVarianceOptimizer's equal-weight fallback.
type MaximumSharpeRatioOptimizer struct {
	minimumWeight float64
	maximumWeight float64
	riskFreeRate  float64
	log           zerolog.Logger
}

// NewMaximumSharpeRatioOptimizer creates the optimizer with per-asset
// weight bounds and an annualized risk-free rate.
func NewMaximumSharpeRatioOptimizer(minimumWeight, maximumWeight, riskFreeRate float64, log zerolog.Logger) *MaximumSharpeRatioOptimizer {
	return &MaximumSharpeRatioOptimizer{
		minimumWeight: minimumWeight,
		maximumWeight: maximumWeight,
		riskFreeRate:  riskFreeRate,
		log:           log.With().Str("component", "max_sharpe_optimizer").Logger(),
	}
}

// Optimize implements PortfolioOptimizer.
func (o *MaximumSharpeRatioOptimizer) Optimize(historicalReturns mat.Matrix, expectedReturns []float64, covariance mat.Symmetric) ([]float64, error) {
	n, mu, cov, err := prepareInputs(historicalReturns, expectedReturns, covariance)
	if err != nil {
		return nil, err
	}

	w0 := equalWeights(n)
	k := 0.0
	for i := range w0 {
		k += (mu[i] - o.riskFreeRate) * w0[i]
	}

	// Budget row plus excess-return row.
	a := mat.NewDense(2, n, nil)
	for i := 0; i < n; i++ {
		a.Set(0, i, 1.0)
		a.Set(1, i, mu[i]-o.riskFreeRate)
	}
	b := []float64{1.0, k}

	w, err := solveQP(cov, a, b, o.minimumWeight, o.maximumWeight)
	if err != nil {
		return nil, err
	}

	variance := formulas.PortfolioVariance(w, cov)
	if variance <= 0 {
		return nil, ErrZeroVariance
	}

	o.log.Debug().
		Int("assets", n).
		Float64("variance", variance).
		Float64("excess_return", k).
		Msg("Solved maximum Sharpe ratio weights")

	return w, nil
}
