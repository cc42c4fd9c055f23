package alpha

import (
	"sort"

	"github.com/quantframe/quantframe/internal/domain"
	"github.com/quantframe/quantframe/internal/modules/insight"
)

// Model produces insights from market data. Models own their
// per-symbol indicator state and evict it when a symbol leaves the
// universe.
type Model interface {
	// Update consumes the tick's bars and returns any new insights.
	Update(algo domain.Algorithm, bars map[domain.Symbol]domain.Bar) []*insight.Insight

	// OnSecuritiesChanged tracks universe additions and removals.
	OnSecuritiesChanged(algo domain.Algorithm, changes domain.SecurityChanges)

	// Name identifies the model in logs and insight tags.
	Name() string
}

// priceWindow is a bounded rolling window of closing prices, oldest
// first. talib indicators consume the full window each update.
type priceWindow struct {
	max    int
	closes []float64
}

func newPriceWindow(max int) *priceWindow {
	return &priceWindow{max: max}
}

func (w *priceWindow) add(close float64) {
	w.closes = append(w.closes, close)
	if len(w.closes) > w.max {
		w.closes = w.closes[len(w.closes)-w.max:]
	}
}

func (w *priceWindow) len() int {
	return len(w.closes)
}

func (w *priceWindow) values() []float64 {
	return w.closes
}

// sortedBars returns the tick's bars in symbol order so insight
// emission order is deterministic.
func sortedBars(bars map[domain.Symbol]domain.Bar) []domain.Bar {
	out := make([]domain.Bar, 0, len(bars))
	for _, bar := range bars {
		out = append(out, bar)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}
