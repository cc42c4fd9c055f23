package alpha

import (
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantframe/quantframe/internal/domain"
	"github.com/quantframe/quantframe/internal/modules/insight"
)

// ConstantAlpha emits the same directional insight for every tracked
// symbol, once per insight period. Useful as a baseline and in
// regression strategies.
type ConstantAlpha struct {
	typ       insight.Type
	direction insight.Direction
	period    time.Duration

	nextEmit map[domain.Symbol]time.Time
	log      zerolog.Logger
}

// NewConstantAlpha creates the model.
func NewConstantAlpha(typ insight.Type, direction insight.Direction, period time.Duration, log zerolog.Logger) *ConstantAlpha {
	return &ConstantAlpha{
		typ:       typ,
		direction: direction,
		period:    period,
		nextEmit:  make(map[domain.Symbol]time.Time),
		log:       log.With().Str("model", "constant_alpha").Logger(),
	}
}

// Name implements Model.
func (m *ConstantAlpha) Name() string { return "ConstantAlpha" }

// Update implements Model.
func (m *ConstantAlpha) Update(algo domain.Algorithm, _ map[domain.Symbol]domain.Bar) []*insight.Insight {
	now := algo.UTCTime()

	symbols := make([]domain.Symbol, 0, len(m.nextEmit))
	for symbol := range m.nextEmit {
		symbols = append(symbols, symbol)
	}
	sort.Slice(symbols, func(i, j int) bool { return symbols[i] < symbols[j] })

	var insights []*insight.Insight
	for _, symbol := range symbols {
		if now.Before(m.nextEmit[symbol]) {
			continue
		}
		insights = append(insights, insight.New(symbol, now, m.period, m.typ, m.direction))
		m.nextEmit[symbol] = now.Add(m.period)
	}
	return insights
}

// OnSecuritiesChanged implements Model.
func (m *ConstantAlpha) OnSecuritiesChanged(algo domain.Algorithm, changes domain.SecurityChanges) {
	for _, sec := range changes.Removed {
		delete(m.nextEmit, sec.Symbol)
	}
	now := algo.UTCTime()
	for _, sec := range changes.Added {
		if _, ok := m.nextEmit[sec.Symbol]; !ok {
			m.nextEmit[sec.Symbol] = now
		}
	}
}
