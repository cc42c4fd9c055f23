package alpha

import (
	"time"

	"github.com/markcheno/go-talib"
	"github.com/rs/zerolog"

	"github.com/quantframe/quantframe/internal/domain"
	"github.com/quantframe/quantframe/internal/modules/insight"
)

// EmaCross emits an Up insight when the fast EMA crosses above the
// slow EMA and a Down insight on the opposite cross.
type EmaCross struct {
	fastPeriod int
	slowPeriod int
	period     time.Duration

	state map[domain.Symbol]*emaCrossState
	log   zerolog.Logger
}

type emaCrossState struct {
	window        *priceWindow
	fastAboveSlow *bool
}

// NewEmaCross creates the model. period is the emitted insight's
// prediction window.
func NewEmaCross(fastPeriod, slowPeriod int, period time.Duration, log zerolog.Logger) *EmaCross {
	return &EmaCross{
		fastPeriod: fastPeriod,
		slowPeriod: slowPeriod,
		period:     period,
		state:      make(map[domain.Symbol]*emaCrossState),
		log:        log.With().Str("model", "ema_cross").Logger(),
	}
}

// Name implements Model.
func (m *EmaCross) Name() string { return "EmaCross" }

// Update implements Model.
func (m *EmaCross) Update(algo domain.Algorithm, bars map[domain.Symbol]domain.Bar) []*insight.Insight {
	now := algo.UTCTime()

	var insights []*insight.Insight
	for _, bar := range sortedBars(bars) {
		state, ok := m.state[bar.Symbol]
		if !ok {
			continue
		}
		state.window.add(bar.Close)
		if state.window.len() < m.slowPeriod+1 {
			continue
		}

		closes := state.window.values()
		fast := talib.Ema(closes, m.fastPeriod)
		slow := talib.Ema(closes, m.slowPeriod)
		above := fast[len(fast)-1] > slow[len(slow)-1]

		if state.fastAboveSlow != nil && above != *state.fastAboveSlow {
			direction := insight.DirectionDown
			if above {
				direction = insight.DirectionUp
			}
			insights = append(insights, insight.Price(bar.Symbol, now, m.period, direction).WithTag(m.Name()))
		}
		state.fastAboveSlow = &above
	}
	return insights
}

// OnSecuritiesChanged implements Model.
func (m *EmaCross) OnSecuritiesChanged(_ domain.Algorithm, changes domain.SecurityChanges) {
	for _, sec := range changes.Removed {
		delete(m.state, sec.Symbol)
	}
	for _, sec := range changes.Added {
		if _, ok := m.state[sec.Symbol]; !ok {
			m.state[sec.Symbol] = &emaCrossState{
				window: newPriceWindow(m.slowPeriod * 4),
			}
		}
	}
}
