package construction

import (
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/quantframe/quantframe/internal/domain"
	"github.com/quantframe/quantframe/internal/modules/insight"
)

// DefaultAccumulativeStep is the per-insight percent increment.
const DefaultAccumulativeStep = 0.03

// AccumulativeInsight sizes positions by replaying the cycle's active
// insights in generation-time order: each Up/Down insight moves the
// symbol's percent by a fixed step, a Flat insight moves it toward
// zero by one step (snapping when closer than a step). The replay
// covers every active insight, not just the last per symbol, so the
// ordering of the sort is load-bearing: it is stable, with equal
// generation times keeping insertion order.
type AccumulativeInsight struct {
	step float64
	bias PortfolioBias
}

// NewAccumulativeInsightModel creates an accumulative construction
// model. A non-positive step falls back to the default.
func NewAccumulativeInsightModel(step float64, bias PortfolioBias, rebalance RebalanceFunc, log zerolog.Logger) *Model {
	if step <= 0 {
		step = DefaultAccumulativeStep
	}
	w := &AccumulativeInsight{step: step, bias: bias}
	return NewModel(w, rebalance, log.With().Str("model", "accumulative_insight").Logger())
}

// SelectTargetInsights implements InsightSelector: the full active set
// sorted ascending by generation time, not last-per-symbol.
func (w *AccumulativeInsight) SelectTargetInsights(active []*insight.Insight) []*insight.Insight {
	sorted := append([]*insight.Insight{}, active...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].GeneratedTimeUTC.Before(sorted[j].GeneratedTimeUTC)
	})
	return sorted
}

// DetermineTargetPercent implements Weighting.
func (w *AccumulativeInsight) DetermineTargetPercent(_ domain.Algorithm, activeInsights []*insight.Insight) (map[*insight.Insight]float64, error) {
	percentPerSymbol := make(map[domain.Symbol]float64)
	for _, in := range activeInsights {
		percent := percentPerSymbol[in.Symbol]
		switch in.Direction {
		case insight.DirectionFlat:
			if math.Abs(percent) < w.step {
				percent = 0
			} else if percent > 0 {
				percent -= w.step
			} else {
				percent += w.step
			}
		default:
			percent += float64(in.Direction) * w.step
		}
		if w.disagreesWithBias(percent) {
			percent = 0
		}
		percentPerSymbol[in.Symbol] = percent
	}

	result := make(map[*insight.Insight]float64, len(activeInsights))
	for _, in := range activeInsights {
		result[in] = percentPerSymbol[in.Symbol]
	}
	return result, nil
}

func (w *AccumulativeInsight) disagreesWithBias(percent float64) bool {
	switch w.bias {
	case BiasLong:
		return percent < 0
	case BiasShort:
		return percent > 0
	default:
		return false
	}
}
