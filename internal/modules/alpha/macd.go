package alpha

import (
	"time"

	"github.com/markcheno/go-talib"
	"github.com/rs/zerolog"

	"github.com/quantframe/quantframe/internal/domain"
	"github.com/quantframe/quantframe/internal/modules/insight"
)

// DefaultMacdTolerance is the dead band, as a fraction of price, the
// MACD/signal deviation must exceed before a directional insight is
// emitted.
const DefaultMacdTolerance = 0.0025

// Macd emits directional insights from the deviation of the MACD line
// from its signal line, normalized by price. An insight is emitted
// only when the resolved direction changes.
type Macd struct {
	fastPeriod   int
	slowPeriod   int
	signalPeriod int
	tolerance    float64
	period       time.Duration

	state map[domain.Symbol]*macdState
	log   zerolog.Logger
}

type macdState struct {
	window    *priceWindow
	direction *insight.Direction
}

// NewMacd creates the model with standard 12/26/9 periods unless
// overridden. A non-positive tolerance falls back to the default.
func NewMacd(fastPeriod, slowPeriod, signalPeriod int, tolerance float64, period time.Duration, log zerolog.Logger) *Macd {
	if tolerance <= 0 {
		tolerance = DefaultMacdTolerance
	}
	return &Macd{
		fastPeriod:   fastPeriod,
		slowPeriod:   slowPeriod,
		signalPeriod: signalPeriod,
		tolerance:    tolerance,
		period:       period,
		state:        make(map[domain.Symbol]*macdState),
		log:          log.With().Str("model", "macd").Logger(),
	}
}

// Name implements Model.
func (m *Macd) Name() string { return "Macd" }

// Update implements Model.
func (m *Macd) Update(algo domain.Algorithm, bars map[domain.Symbol]domain.Bar) []*insight.Insight {
	now := algo.UTCTime()

	var insights []*insight.Insight
	for _, bar := range sortedBars(bars) {
		state, ok := m.state[bar.Symbol]
		if !ok || bar.Close <= 0 {
			continue
		}
		state.window.add(bar.Close)
		if state.window.len() < m.slowPeriod+m.signalPeriod {
			continue
		}

		macdLine, signalLine, _ := talib.Macd(state.window.values(), m.fastPeriod, m.slowPeriod, m.signalPeriod)
		deviation := (macdLine[len(macdLine)-1] - signalLine[len(signalLine)-1]) / bar.Close

		direction := insight.DirectionFlat
		if deviation > m.tolerance {
			direction = insight.DirectionUp
		} else if deviation < -m.tolerance {
			direction = insight.DirectionDown
		}

		changed := state.direction != nil && *state.direction != direction
		if changed || (state.direction == nil && direction != insight.DirectionFlat) {
			insights = append(insights, insight.Price(bar.Symbol, now, m.period, direction).WithTag(m.Name()))
		}
		state.direction = &direction
	}
	return insights
}

// OnSecuritiesChanged implements Model.
func (m *Macd) OnSecuritiesChanged(_ domain.Algorithm, changes domain.SecurityChanges) {
	for _, sec := range changes.Removed {
		delete(m.state, sec.Symbol)
	}
	for _, sec := range changes.Added {
		if _, ok := m.state[sec.Symbol]; !ok {
			m.state[sec.Symbol] = &macdState{
				window: newPriceWindow((m.slowPeriod + m.signalPeriod) * 3),
			}
		}
	}
}
