package formulas

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the standard deviation of a slice of float64 values
func StdDev(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// Variance calculates the variance of a slice of float64 values
func Variance(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Variance(data, nil)
}

// CalculateReturns converts prices to percentage returns
// Returns[i] = (Price[i] - Price[i-1]) / Price[i-1]
func CalculateReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}

	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] != 0 {
			returns[i-1] = (prices[i] - prices[i-1]) / prices[i-1]
		}
	}

	return returns
}

// AnnualizeReturn compounds a periodic simple return to an annual
// rate: (1+r)^periodsPerYear - 1.
func AnnualizeReturn(periodic float64, periodsPerYear float64) float64 {
	return math.Pow(1.0+periodic, periodsPerYear) - 1.0
}

// ColumnMeans returns the per-column mean of a T x N matrix.
func ColumnMeans(m mat.Matrix) []float64 {
	rows, cols := m.Dims()
	means := make([]float64, cols)
	if rows == 0 {
		return means
	}
	col := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(col, j, m)
		means[j] = stat.Mean(col, nil)
	}
	return means
}

// CovarianceMatrix computes the sample covariance of a T x N
// observations matrix (rows are time steps, columns are assets).
func CovarianceMatrix(m mat.Matrix) *mat.SymDense {
	_, cols := m.Dims()
	cov := mat.NewSymDense(cols, nil)
	stat.CovarianceMatrix(cov, m, nil)
	return cov
}

// PortfolioVariance computes w' * cov * w.
func PortfolioVariance(weights []float64, cov mat.Symmetric) float64 {
	n := len(weights)
	variance := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			variance += weights[i] * weights[j] * cov.At(i, j)
		}
	}
	return variance
}

// Correlation calculates the Pearson correlation coefficient between two datasets
func Correlation(x, y []float64) float64 {
	if len(x) == 0 || len(y) == 0 || len(x) != len(y) {
		return 0
	}
	return stat.Correlation(x, y, nil)
}

// Covariance calculates the covariance between two datasets
func Covariance(x, y []float64) float64 {
	if len(x) == 0 || len(y) == 0 || len(x) != len(y) {
		return 0
	}
	return stat.Covariance(x, y, nil)
}
