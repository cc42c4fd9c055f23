package optimization

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// boundTolerance is the slack allowed on box bounds before a weight is
// considered in violation.
const boundTolerance = 1e-9

// solveQP minimizes w' * cov * w subject to the linear equality
// constraints a*w = b and box bounds lower <= w_i <= upper.
//
// The solver runs a sequence of least-squares steps: each step solves
// the KKT system of the equality-constrained subproblem
//
//	[ 2*cov  A' ] [w]   [0]
//	[ A      0  ] [λ] = [b]
//
// via a dense linear solve, then pins the worst bound violation to its
// nearest bound as an extra equality row and repeats. It terminates
// when all bounds hold, or reports ErrNoConvergence when the KKT
// system is singular or the iteration budget is exhausted.
func solveQP(cov mat.Symmetric, a *mat.Dense, b []float64, lower, upper float64) ([]float64, error) {
	n := cov.SymmetricDim()
	m, ac := a.Dims()
	if ac != n || len(b) != m {
		return nil, fmt.Errorf("%w: constraints %dx%d, rhs %d, assets %d", ErrDimensionMismatch, m, ac, len(b), n)
	}

	// Pinned bounds, index -> bound value.
	pinned := make(map[int]float64)

	for iter := 0; iter <= n; iter++ {
		w, err := solveKKT(cov, a, b, pinned)
		if err != nil {
			return nil, err
		}

		violated, bound, excess := -1, 0.0, boundTolerance
		for i, wi := range w {
			if d := lower - wi; d > excess {
				violated, bound, excess = i, lower, d
			}
			if d := wi - upper; d > excess {
				violated, bound, excess = i, upper, d
			}
		}
		if violated < 0 {
			return w, nil
		}
		pinned[violated] = bound
	}
	return nil, fmt.Errorf("%w: active-set iteration budget exhausted", ErrNoConvergence)
}

// solveKKT solves one equality-constrained subproblem with the given
// pinned bounds added as equality rows.
func solveKKT(cov mat.Symmetric, a *mat.Dense, b []float64, pinned map[int]float64) ([]float64, error) {
	n := cov.SymmetricDim()
	m, _ := a.Dims()
	size := n + m + len(pinned)

	kkt := mat.NewDense(size, size, nil)
	rhs := mat.NewVecDense(size, nil)

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			kkt.Set(i, j, 2.0*cov.At(i, j))
		}
	}
	for r := 0; r < m; r++ {
		for j := 0; j < n; j++ {
			v := a.At(r, j)
			kkt.Set(n+r, j, v)
			kkt.Set(j, n+r, v)
		}
		rhs.SetVec(n+r, b[r])
	}
	row := n + m
	for i := 0; i < n; i++ { // deterministic order over pinned indices
		bound, ok := pinned[i]
		if !ok {
			continue
		}
		kkt.Set(row, i, 1.0)
		kkt.Set(i, row, 1.0)
		rhs.SetVec(row, bound)
		row++
	}

	var sol mat.VecDense
	if err := sol.SolveVec(kkt, rhs); err != nil {
		return nil, fmt.Errorf("%w: singular KKT system: %v", ErrNoConvergence, err)
	}

	w := make([]float64, n)
	for i := range w {
		wi := sol.AtVec(i)
		if math.IsNaN(wi) || math.IsInf(wi, 0) {
			return nil, fmt.Errorf("%w: non-finite solution component", ErrNoConvergence)
		}
		w[i] = wi
	}
	return w, nil
}
