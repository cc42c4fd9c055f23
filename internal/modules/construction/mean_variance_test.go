package construction

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/quantframe/quantframe/internal/domain"
	"github.com/quantframe/quantframe/internal/modules/insight"
	"github.com/quantframe/quantframe/internal/modules/optimization"
	"github.com/quantframe/quantframe/pkg/logger"
)

type stubOptimizer struct {
	weights  []float64
	err      error
	lastRows int
	lastCols int
	calls    int
}

var _ optimization.PortfolioOptimizer = (*stubOptimizer)(nil)

func (o *stubOptimizer) Optimize(returns mat.Matrix, _ []float64, _ mat.Symmetric) ([]float64, error) {
	o.calls++
	o.lastRows, o.lastCols = returns.Dims()
	if o.err != nil {
		return nil, o.err
	}
	return o.weights, nil
}

type stubHistory struct {
	closes map[domain.Symbol][]float64
}

func (h *stubHistory) Closes(symbol domain.Symbol, limit int) ([]float64, error) {
	closes, ok := h.closes[symbol]
	if !ok {
		return nil, fmt.Errorf("no history for %s", symbol)
	}
	if len(closes) > limit {
		closes = closes[len(closes)-limit:]
	}
	return closes, nil
}

func flatCloses(n int, price float64) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = price
	}
	return closes
}

func TestMeanVarianceDelegatesToOptimizer(t *testing.T) {
	lookback := 5
	opt := &stubOptimizer{weights: []float64{0.6, 0.4}}
	history := &stubHistory{closes: map[domain.Symbol][]float64{
		"AAPL": flatCloses(lookback+1, 100),
		"MSFT": flatCloses(lookback+1, 200),
	}}

	model := NewMeanVarianceModel(lookback, opt, history, Daily(), logger.Nop())

	aapl := &domain.Security{Symbol: "AAPL", Price: 100}
	msft := &domain.Security{Symbol: "MSFT", Price: 200}
	algo := domain.NewSnapshot(cycleStart, 100000).WithSecurity(aapl).WithSecurity(msft)

	model.OnSecuritiesChanged(algo, domain.SecurityChanges{Added: []*domain.Security{aapl, msft}})

	targets, err := model.CreateTargets(algo, []*insight.Insight{
		insight.Price("AAPL", cycleStart, 2*time.Hour, insight.DirectionUp),
		insight.Price("MSFT", cycleStart, 2*time.Hour, insight.DirectionUp),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, opt.calls)
	assert.Equal(t, lookback, opt.lastRows)
	assert.Equal(t, 2, opt.lastCols)

	got := targetsBySymbol(targets)
	assert.Equal(t, float64(600), got["AAPL"], "60% of 100000 at price 100")
	assert.Equal(t, float64(200), got["MSFT"], "40% of 100000 at price 200")
}

func TestMeanVarianceSkipsSymbolsWithoutFullWindows(t *testing.T) {
	lookback := 5
	opt := &stubOptimizer{weights: []float64{1}}
	history := &stubHistory{closes: map[domain.Symbol][]float64{
		"AAPL": flatCloses(lookback+1, 100),
		// MSFT has too little history to fill its window.
		"MSFT": flatCloses(2, 200),
	}}

	model := NewMeanVarianceModel(lookback, opt, history, Daily(), logger.Nop())

	aapl := &domain.Security{Symbol: "AAPL", Price: 100}
	msft := &domain.Security{Symbol: "MSFT", Price: 200}
	algo := domain.NewSnapshot(cycleStart, 100000).WithSecurity(aapl).WithSecurity(msft)
	model.OnSecuritiesChanged(algo, domain.SecurityChanges{Added: []*domain.Security{aapl, msft}})

	targets, err := model.CreateTargets(algo, []*insight.Insight{
		insight.Price("AAPL", cycleStart, 2*time.Hour, insight.DirectionUp),
		insight.Price("MSFT", cycleStart, 2*time.Hour, insight.DirectionUp),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, opt.lastCols, "only the fully seeded symbol is optimized")

	got := targetsBySymbol(targets)
	assert.Equal(t, float64(1000), got["AAPL"])
	assert.Equal(t, float64(0), got["MSFT"], "ineligible symbol sizes to zero")
}

func TestMeanVarianceOptimizerErrorPropagates(t *testing.T) {
	lookback := 3
	optErr := errors.New("did not converge")
	opt := &stubOptimizer{err: optErr}
	history := &stubHistory{closes: map[domain.Symbol][]float64{
		"AAPL": flatCloses(lookback+1, 100),
	}}

	model := NewMeanVarianceModel(lookback, opt, history, Daily(), logger.Nop())

	aapl := &domain.Security{Symbol: "AAPL", Price: 100}
	algo := domain.NewSnapshot(cycleStart, 100000).WithSecurity(aapl)
	model.OnSecuritiesChanged(algo, domain.SecurityChanges{Added: []*domain.Security{aapl}})

	targets, err := model.CreateTargets(algo, []*insight.Insight{
		insight.Price("AAPL", cycleStart, 2*time.Hour, insight.DirectionUp),
	})
	require.ErrorIs(t, err, optErr)
	assert.Nil(t, targets)
}

func TestMeanVarianceNoEligibleSymbolsSkipsOptimizer(t *testing.T) {
	opt := &stubOptimizer{weights: []float64{1}}
	model := NewMeanVarianceModel(5, opt, nil, Daily(), logger.Nop())

	aapl := &domain.Security{Symbol: "AAPL", Price: 100}
	algo := domain.NewSnapshot(cycleStart, 100000).WithSecurity(aapl)
	model.OnSecuritiesChanged(algo, domain.SecurityChanges{Added: []*domain.Security{aapl}})

	targets, err := model.CreateTargets(algo, []*insight.Insight{
		insight.Price("AAPL", cycleStart, 2*time.Hour, insight.DirectionUp),
	})
	require.NoError(t, err)

	assert.Equal(t, 0, opt.calls)
	got := targetsBySymbol(targets)
	assert.Equal(t, float64(0), got["AAPL"])
}

func TestReturnsWindowRollsAndRecordsZeroReturns(t *testing.T) {
	w := newReturnsWindow(3)
	for _, price := range []float64{100, 100, 110, 110, 99} {
		w.observe(price)
	}

	require.True(t, w.full())
	samples := w.values()
	require.Len(t, samples, 3)
	assert.InDelta(t, 0.1, samples[0], 1e-12)
	assert.InDelta(t, 0.0, samples[1], 1e-12)
	assert.InDelta(t, -0.1, samples[2], 1e-12)
}

func TestReturnsWindowIgnoresNonPositivePrices(t *testing.T) {
	w := newReturnsWindow(3)
	w.observe(100)
	w.observe(0)
	w.observe(-5)
	w.observe(110)

	samples := w.values()
	require.Len(t, samples, 1)
	assert.InDelta(t, 0.1, samples[0], 1e-12)
}
