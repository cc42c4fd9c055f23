package construction

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/rs/zerolog"

	"github.com/quantframe/quantframe/internal/domain"
	"github.com/quantframe/quantframe/internal/modules/insight"
	"github.com/quantframe/quantframe/internal/modules/optimization"
	"github.com/quantframe/quantframe/pkg/formulas"
)

// DefaultLookback is the number of daily return samples fed to the
// optimizer per symbol, one quarter of trading days.
const DefaultLookback = 63

const tradingDaysPerYear = 252.0

// MeanVariance delegates weighting to a portfolio optimizer over a
// rolling window of observed returns. Each symbol owns a rolling
// window fed from snapshot prices once per cycle; the window can be
// seeded from a price-history store when a symbol enters the universe.
// When an insight carries a predicted magnitude it substitutes the
// window's most recent sample.
type MeanVariance struct {
	lookback  int
	optimizer optimization.PortfolioOptimizer
	history   optimization.HistorySource // optional, seeds new windows
	windows   map[domain.Symbol]*returnsWindow
	log       zerolog.Logger
}

// NewMeanVarianceModel creates a mean-variance construction model. A
// non-positive lookback falls back to the default; history may be nil.
func NewMeanVarianceModel(lookback int, optimizer optimization.PortfolioOptimizer, history optimization.HistorySource, rebalance RebalanceFunc, log zerolog.Logger) *Model {
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	w := &MeanVariance{
		lookback:  lookback,
		optimizer: optimizer,
		history:   history,
		windows:   make(map[domain.Symbol]*returnsWindow),
		log:       log.With().Str("model", "mean_variance").Logger(),
	}
	return NewModel(w, rebalance, log.With().Str("model", "mean_variance").Logger())
}

// OnSecuritiesChanged implements SecuritiesObserver: windows are
// created (and seeded when a history store is wired) on addition and
// dropped on removal.
func (w *MeanVariance) OnSecuritiesChanged(_ domain.Algorithm, changes domain.SecurityChanges) {
	for _, sec := range changes.Removed {
		delete(w.windows, sec.Symbol)
	}
	for _, sec := range changes.Added {
		if _, ok := w.windows[sec.Symbol]; ok {
			continue
		}
		window := newReturnsWindow(w.lookback)
		if w.history != nil {
			closes, err := w.history.Closes(sec.Symbol, w.lookback+1)
			if err != nil {
				w.log.Warn().
					Str("symbol", string(sec.Symbol)).
					Err(err).
					Msg("Could not seed returns window from history")
			} else {
				window.seed(closes)
			}
		}
		w.windows[sec.Symbol] = window
	}
}

// DetermineTargetPercent implements Weighting. Optimizer errors are
// fatal for the cycle and propagate.
func (w *MeanVariance) DetermineTargetPercent(algo domain.Algorithm, activeInsights []*insight.Insight) (map[*insight.Insight]float64, error) {
	w.observePrices(algo)

	result := make(map[*insight.Insight]float64, len(activeInsights))
	var eligible []*insight.Insight
	for _, in := range activeInsights {
		result[in] = 0
		if window, ok := w.windows[in.Symbol]; ok && window.full() {
			eligible = append(eligible, in)
		}
	}
	if len(eligible) == 0 {
		return result, nil
	}

	returns := mat.NewDense(w.lookback, len(eligible), nil)
	for j, in := range eligible {
		samples := w.windows[in.Symbol].values()
		if in.Magnitude != nil {
			samples[len(samples)-1] = *in.Magnitude
		}
		for i, r := range samples {
			returns.Set(i, j, formulas.AnnualizeReturn(r, tradingDaysPerYear))
		}
	}

	weights, err := w.optimizer.Optimize(returns, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("mean-variance optimization failed: %w", err)
	}
	for j, in := range eligible {
		result[in] = weights[j]
	}
	return result, nil
}

// observePrices feeds the rolling windows from the current snapshot.
func (w *MeanVariance) observePrices(algo domain.Algorithm) {
	for symbol, sec := range algo.ActiveSecurities() {
		window, ok := w.windows[symbol]
		if !ok {
			window = newReturnsWindow(w.lookback)
			w.windows[symbol] = window
		}
		window.observe(sec.Price)
	}
}

// returnsWindow is a fixed-size rolling window of simple returns
// derived from consecutive observed prices.
type returnsWindow struct {
	size      int
	lastPrice float64
	samples   []float64
}

func newReturnsWindow(size int) *returnsWindow {
	return &returnsWindow{size: size}
}

// seed initializes the window from historical closes, oldest first.
func (w *returnsWindow) seed(closes []float64) {
	for _, price := range closes {
		w.observe(price)
	}
}

// observe records a price, appending the return since the previous
// observation. Non-positive prices are ignored.
func (w *returnsWindow) observe(price float64) {
	if price <= 0 {
		return
	}
	if w.lastPrice > 0 {
		w.samples = append(w.samples, (price-w.lastPrice)/w.lastPrice)
		if len(w.samples) > w.size {
			w.samples = w.samples[len(w.samples)-w.size:]
		}
	}
	w.lastPrice = price
}

func (w *returnsWindow) full() bool {
	return len(w.samples) >= w.size
}

// values returns a copy of the window's samples, oldest first.
func (w *returnsWindow) values() []float64 {
	return append([]float64{}, w.samples...)
}
