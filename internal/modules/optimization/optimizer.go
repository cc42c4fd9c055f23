package optimization

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/quantframe/quantframe/pkg/formulas"
)

// Default optimizer parameters.
const (
	DefaultMinimumWeight = -1.0
	DefaultMaximumWeight = 1.0
	DefaultRiskFreeRate  = 0.0
	DefaultTargetReturn  = 0.02 // 2% annualized
)

// Error taxonomy. Zero variance and dimension errors are fatal for the
// current solve; non-convergence handling is optimizer-specific.
var (
	ErrZeroVariance      = errors.New("optimization: zero portfolio variance with non-zero weights")
	ErrNoConvergence     = errors.New("optimization: solver failed to converge")
	ErrEmptyReturns      = errors.New("optimization: empty returns matrix")
	ErrDimensionMismatch = errors.New("optimization: input dimensions do not agree")
)

// PortfolioOptimizer computes asset weights from a historical-returns
// matrix (rows are time steps, columns are assets). Expected returns
// and covariance may be passed precomputed by callers that already
// hold them (e.g. a rolling-window cache upstream); pass nil to derive
// them from the returns matrix.
type PortfolioOptimizer interface {
	Optimize(historicalReturns mat.Matrix, expectedReturns []float64, covariance mat.Symmetric) ([]float64, error)
}

// prepareInputs derives missing expected returns / covariance from the
// historical matrix and validates dimensions. Returns the asset count.
func prepareInputs(historicalReturns mat.Matrix, expectedReturns []float64, covariance mat.Symmetric) (int, []float64, mat.Symmetric, error) {
	if historicalReturns == nil && (expectedReturns == nil || covariance == nil) {
		return 0, nil, nil, ErrEmptyReturns
	}

	if covariance == nil {
		rows, cols := historicalReturns.Dims()
		if rows < 2 || cols == 0 {
			return 0, nil, nil, ErrEmptyReturns
		}
		covariance = formulas.CovarianceMatrix(historicalReturns)
	}
	n := covariance.SymmetricDim()

	if expectedReturns == nil {
		_, cols := historicalReturns.Dims()
		if cols != n {
			return 0, nil, nil, fmt.Errorf("%w: %d return columns vs %d covariance assets", ErrDimensionMismatch, cols, n)
		}
		expectedReturns = formulas.ColumnMeans(historicalReturns)
	}

	if len(expectedReturns) != n {
		return 0, nil, nil, fmt.Errorf("%w: %d expected returns vs %d covariance assets", ErrDimensionMismatch, len(expectedReturns), n)
	}
	return n, expectedReturns, covariance, nil
}

// equalWeights returns the 1/n initial guess.
func equalWeights(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 1.0 / float64(n)
	}
	return w
}
