package alpha

import (
	"time"

	"github.com/markcheno/go-talib"
	"github.com/rs/zerolog"

	"github.com/quantframe/quantframe/internal/domain"
	"github.com/quantframe/quantframe/internal/modules/insight"
)

// RSI bands for the mean-reversion trigger.
const (
	rsiOversold   = 30.0
	rsiOverbought = 70.0
)

// Rsi emits mean-reversion insights when the RSI leaves its neutral
// band: Up on entering oversold, Down on entering overbought. One
// insight per band entry.
type Rsi struct {
	rsiPeriod int
	period    time.Duration

	state map[domain.Symbol]*rsiState
	log   zerolog.Logger
}

type rsiState struct {
	window *priceWindow
	zone   int // -1 oversold, 0 neutral, +1 overbought
}

// NewRsi creates the model; rsiPeriod is typically 14.
func NewRsi(rsiPeriod int, period time.Duration, log zerolog.Logger) *Rsi {
	return &Rsi{
		rsiPeriod: rsiPeriod,
		period:    period,
		state:     make(map[domain.Symbol]*rsiState),
		log:       log.With().Str("model", "rsi").Logger(),
	}
}

// Name implements Model.
func (m *Rsi) Name() string { return "Rsi" }

// Update implements Model.
func (m *Rsi) Update(algo domain.Algorithm, bars map[domain.Symbol]domain.Bar) []*insight.Insight {
	now := algo.UTCTime()

	var insights []*insight.Insight
	for _, bar := range sortedBars(bars) {
		state, ok := m.state[bar.Symbol]
		if !ok {
			continue
		}
		state.window.add(bar.Close)
		if state.window.len() < m.rsiPeriod+1 {
			continue
		}

		values := talib.Rsi(state.window.values(), m.rsiPeriod)
		current := values[len(values)-1]

		zone := 0
		if current <= rsiOversold {
			zone = -1
		} else if current >= rsiOverbought {
			zone = 1
		}

		if zone != state.zone && zone != 0 {
			direction := insight.DirectionUp
			if zone == 1 {
				direction = insight.DirectionDown
			}
			insights = append(insights, insight.Price(bar.Symbol, now, m.period, direction).WithTag(m.Name()))
		}
		state.zone = zone
	}
	return insights
}

// OnSecuritiesChanged implements Model.
func (m *Rsi) OnSecuritiesChanged(_ domain.Algorithm, changes domain.SecurityChanges) {
	for _, sec := range changes.Removed {
		delete(m.state, sec.Symbol)
	}
	for _, sec := range changes.Added {
		if _, ok := m.state[sec.Symbol]; !ok {
			m.state[sec.Symbol] = &rsiState{
				window: newPriceWindow(m.rsiPeriod * 6),
			}
		}
	}
}
