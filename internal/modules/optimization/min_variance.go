package optimization

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/rs/zerolog"

	"github.com/quantframe/quantframe/pkg/formulas"
)

// MinimumVarianceOptimizer minimizes portfolio variance subject to the
// budget constraint (sum of weights = 1) and a target annualized
// return mu' w = targetReturn.
//
// On solver failure the equal-weight initial guess is returned
// unchanged instead of propagating the numerical failure. On success
// the solution is rescaled so the absolute weights sum to 1, which
// differs from the budget normalization used by the maximum Sharpe
// optimizer and changes effective leverage for long-short portfolios.
type MinimumVarianceOptimizer struct {
	minimumWeight float64
	maximumWeight float64
	targetReturn  float64
	log           zerolog.Logger
}

// NewMinimumVarianceOptimizer creates the optimizer with per-asset
// weight bounds and an annualized target return.
func NewMinimumVarianceOptimizer(minimumWeight, maximumWeight, targetReturn float64, log zerolog.Logger) *MinimumVarianceOptimizer {
	return &MinimumVarianceOptimizer{
		minimumWeight: minimumWeight,
		maximumWeight: maximumWeight,
		targetReturn:  targetReturn,
		log:           log.With().Str("component", "min_variance_optimizer").Logger(),
	}
}

// Optimize implements PortfolioOptimizer.
func (o *MinimumVarianceOptimizer) Optimize(historicalReturns mat.Matrix, expectedReturns []float64, covariance mat.Symmetric) ([]float64, error) {
	n, mu, cov, err := prepareInputs(historicalReturns, expectedReturns, covariance)
	if err != nil {
		return nil, err
	}

	w0 := equalWeights(n)

	// Budget row plus target-return row.
	a := mat.NewDense(2, n, nil)
	for i := 0; i < n; i++ {
		a.Set(0, i, 1.0)
		a.Set(1, i, mu[i])
	}
	b := []float64{1.0, o.targetReturn}

	w, err := solveQP(cov, a, b, o.minimumWeight, o.maximumWeight)
	if err != nil {
		o.log.Warn().Err(err).
			Int("assets", n).
			Msg("Solver failed, falling back to equal weights")
		return w0, nil
	}

	variance := formulas.PortfolioVariance(w, cov)
	if variance <= 0 {
		if degenerate(w) {
			// All-zero weights with zero variance are tolerated.
			return w, nil
		}
		return nil, ErrZeroVariance
	}

	// Normalize so absolute weights sum to 1.
	sum := 0.0
	for _, wi := range w {
		sum += math.Abs(wi)
	}
	if sum > 0 {
		for i := range w {
			w[i] /= sum
		}
	}

	o.log.Debug().
		Int("assets", n).
		Float64("variance", variance).
		Float64("target_return", o.targetReturn).
		Msg("Solved minimum variance weights")

	return w, nil
}

// degenerate reports whether every weight is zero.
func degenerate(w []float64) bool {
	for _, wi := range w {
		if wi != 0 {
			return false
		}
	}
	return true
}
