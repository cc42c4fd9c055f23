package construction

import (
	"github.com/rs/zerolog"

	"github.com/quantframe/quantframe/internal/domain"
	"github.com/quantframe/quantframe/internal/modules/insight"
)

// PortfolioBias restricts which position signs a model may hold.
type PortfolioBias int

const (
	BiasLongShort PortfolioBias = iota
	BiasLong
	BiasShort
)

// Allows reports whether an insight direction is compatible with the
// bias. Flat is never "allowed" for sizing purposes; flat insights
// always resolve to percent 0.
func (b PortfolioBias) Allows(d insight.Direction) bool {
	switch b {
	case BiasLong:
		return d == insight.DirectionUp
	case BiasShort:
		return d == insight.DirectionDown
	default:
		return d != insight.DirectionFlat
	}
}

// EqualWeighting assigns each non-flat, bias-compatible last-active
// insight an equal share of the portfolio, signed by direction.
type EqualWeighting struct {
	bias PortfolioBias
}

// NewEqualWeightingModel creates an equal-weighting construction model.
func NewEqualWeightingModel(bias PortfolioBias, rebalance RebalanceFunc, log zerolog.Logger) *Model {
	return NewModel(&EqualWeighting{bias: bias}, rebalance, log.With().Str("model", "equal_weighting").Logger())
}

// DetermineTargetPercent implements Weighting.
func (w *EqualWeighting) DetermineTargetPercent(_ domain.Algorithm, activeInsights []*insight.Insight) (map[*insight.Insight]float64, error) {
	result := make(map[*insight.Insight]float64, len(activeInsights))

	count := 0
	for _, in := range activeInsights {
		if w.bias.Allows(in.Direction) {
			count++
		}
	}
	if count == 0 {
		for _, in := range activeInsights {
			result[in] = 0
		}
		return result, nil
	}

	percent := 1.0 / float64(count)
	for _, in := range activeInsights {
		if !w.bias.Allows(in.Direction) {
			result[in] = 0
			continue
		}
		result[in] = float64(in.Direction) * percent
	}
	return result, nil
}
