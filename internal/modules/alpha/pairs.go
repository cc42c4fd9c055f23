package alpha

import (
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantframe/quantframe/internal/domain"
	"github.com/quantframe/quantframe/internal/modules/insight"
	"github.com/quantframe/quantframe/pkg/formulas"
)

// Default z-score thresholds for spread entry and exit.
const (
	DefaultPairsEntryThreshold = 2.0
	DefaultPairsExitThreshold  = 0.5
)

// PairsTrading watches the log-price spread of one symbol pair and
// emits grouped long/short insights when the spread's z-score leaves
// the entry band, and grouped flat insights when it reverts inside the
// exit band. The two insights of each emission share a group id, so
// downstream consumers treat them as one atomic set.
type PairsTrading struct {
	a, b           domain.Symbol
	windowSize     int
	entryThreshold float64
	exitThreshold  float64
	period         time.Duration

	spreads  *priceWindow
	inSpread bool
	log      zerolog.Logger
}

// NewPairsTrading creates the model for one pair. Non-positive
// thresholds fall back to the defaults.
func NewPairsTrading(a, b domain.Symbol, windowSize int, entryThreshold, exitThreshold float64, period time.Duration, log zerolog.Logger) *PairsTrading {
	if entryThreshold <= 0 {
		entryThreshold = DefaultPairsEntryThreshold
	}
	if exitThreshold <= 0 {
		exitThreshold = DefaultPairsExitThreshold
	}
	return &PairsTrading{
		a:              a,
		b:              b,
		windowSize:     windowSize,
		entryThreshold: entryThreshold,
		exitThreshold:  exitThreshold,
		period:         period,
		spreads:        newPriceWindow(windowSize),
		log:            log.With().Str("model", "pairs_trading").Logger(),
	}
}

// Name implements Model.
func (m *PairsTrading) Name() string { return "PairsTrading" }

// Update implements Model.
func (m *PairsTrading) Update(algo domain.Algorithm, bars map[domain.Symbol]domain.Bar) []*insight.Insight {
	barA, okA := bars[m.a]
	barB, okB := bars[m.b]
	if !okA || !okB || barA.Close <= 0 || barB.Close <= 0 {
		return nil
	}

	spread := math.Log(barA.Close) - math.Log(barB.Close)
	m.spreads.add(spread)
	if m.spreads.len() < m.windowSize {
		return nil
	}

	values := m.spreads.values()
	mean := formulas.Mean(values)
	std := formulas.StdDev(values)
	if std == 0 {
		return nil
	}
	z := (spread - mean) / std

	now := algo.UTCTime()
	switch {
	case !m.inSpread && z > m.entryThreshold:
		// A rich relative to B: short A, long B.
		m.inSpread = true
		return insight.Group(
			insight.Price(m.a, now, m.period, insight.DirectionDown).WithTag(m.Name()),
			insight.Price(m.b, now, m.period, insight.DirectionUp).WithTag(m.Name()),
		)
	case !m.inSpread && z < -m.entryThreshold:
		m.inSpread = true
		return insight.Group(
			insight.Price(m.a, now, m.period, insight.DirectionUp).WithTag(m.Name()),
			insight.Price(m.b, now, m.period, insight.DirectionDown).WithTag(m.Name()),
		)
	case m.inSpread && math.Abs(z) < m.exitThreshold:
		m.inSpread = false
		return insight.Group(
			insight.Price(m.a, now, m.period, insight.DirectionFlat).WithTag(m.Name()),
			insight.Price(m.b, now, m.period, insight.DirectionFlat).WithTag(m.Name()),
		)
	}
	return nil
}

// OnSecuritiesChanged implements Model. Removing either leg resets the
// spread history.
func (m *PairsTrading) OnSecuritiesChanged(_ domain.Algorithm, changes domain.SecurityChanges) {
	for _, sec := range changes.Removed {
		if sec.Symbol == m.a || sec.Symbol == m.b {
			m.spreads = newPriceWindow(m.windowSize)
			m.inSpread = false
			m.log.Info().
				Str("symbol", string(sec.Symbol)).
				Msg("Pair leg removed from universe, resetting spread state")
			return
		}
	}
}
