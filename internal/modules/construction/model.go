package construction

import (
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantframe/quantframe/internal/domain"
	"github.com/quantframe/quantframe/internal/modules/insight"
)

// Weighting decides per-insight target percents for one rebalance
// cycle. Implementations own any cross-cycle per-symbol state.
type Weighting interface {
	DetermineTargetPercent(algo domain.Algorithm, activeInsights []*insight.Insight) (map[*insight.Insight]float64, error)
}

// InsightSelector optionally overrides which active insights drive
// weighting. The default keeps the last-generated insight per symbol.
type InsightSelector interface {
	SelectTargetInsights(active []*insight.Insight) []*insight.Insight
}

// TargetFilter optionally rejects insights before weighting.
type TargetFilter interface {
	ShouldCreateTargetForInsight(algo domain.Algorithm, in *insight.Insight) bool
}

// SecuritiesObserver receives universe change notifications forwarded
// by the owning model.
type SecuritiesObserver interface {
	OnSecuritiesChanged(algo domain.Algorithm, changes domain.SecurityChanges)
}

// Model orchestrates the insight lifecycle for one construction
// strategy: ingestion, active-set resolution, weighting, target
// emission, and expiry/rebalance bookkeeping. It exclusively owns its
// insight collection. Single-threaded: one CreateTargets call runs to
// completion per engine tick.
type Model struct {
	weighting Weighting
	rebalance RebalanceFunc

	insights      *insight.Collection
	nextExpiry    *time.Time
	nextRebalance *time.Time
	removed       []domain.Symbol

	log zerolog.Logger
}

// NewModel wires a weighting strategy into the shared lifecycle
// machinery.
func NewModel(weighting Weighting, rebalance RebalanceFunc, log zerolog.Logger) *Model {
	return &Model{
		weighting: weighting,
		rebalance: rebalance,
		insights:  insight.NewCollection(),
		log:       log.With().Str("component", "portfolio_construction").Logger(),
	}
}

// InsightCollection exposes the owned collection for diagnostics.
func (m *Model) InsightCollection() *insight.Collection {
	return m.insights
}

// Weighting returns the wired strategy.
func (m *Model) Weighting() Weighting {
	return m.weighting
}

// OnSecuritiesChanged records universe removals for the next cycle's
// deselection sweep and forwards the change set to the strategy.
func (m *Model) OnSecuritiesChanged(algo domain.Algorithm, changes domain.SecurityChanges) {
	for _, sec := range changes.Removed {
		m.removed = append(m.removed, sec.Symbol)
	}
	if observer, ok := m.weighting.(SecuritiesObserver); ok {
		observer.OnSecuritiesChanged(algo, changes)
	}
}

// CreateTargets runs one rebalance cycle: it ingests the new insights
// and converts the resulting active set into portfolio targets. An
// idle cycle (nothing new, nothing expired, no rebalance due) returns
// no targets.
func (m *Model) CreateTargets(algo domain.Algorithm, newInsights []*insight.Insight) ([]*PortfolioTarget, error) {
	now := algo.UTCTime()

	if !m.isRebalanceDue(now, newInsights) {
		return nil, nil
	}

	m.insights.AddRange(newInsights)

	targets := NewTargetCollection()

	// Deselection: flatten symbols that left the universe and drop
	// their insights so stale signals cannot resurrect a target.
	if len(m.removed) > 0 {
		for _, symbol := range m.removed {
			targets.Add(NewTarget(symbol, 0))
		}
		m.insights.Clear(m.removed)
		m.removed = nil
	}

	active := m.insights.GetActiveInsights(now)
	selected := m.selectTargetInsights(active)
	selected = m.filterInsights(algo, selected)

	percents, err := m.weighting.DetermineTargetPercent(algo, selected)
	if err != nil {
		return nil, err
	}

	// Symbols whose percent the engine could not honor; excluded from
	// the expiry flatten below so a rejected position is not flattened
	// twice.
	errored := make(map[domain.Symbol]struct{})
	for _, in := range selected {
		percent, ok := percents[in]
		if !ok {
			continue
		}
		target, err := NewTargetPercent(algo, in.Symbol, percent)
		if err != nil {
			errored[in.Symbol] = struct{}{}
			m.log.Warn().
				Str("symbol", string(in.Symbol)).
				Float64("percent", percent).
				Err(err).
				Msg("Could not resolve target for insight")
			continue
		}
		targets.Add(target)
	}

	// Expiry sweep: flatten symbols whose last insight just expired.
	expired := m.insights.RemoveExpiredInsights(now)
	seen := make(map[domain.Symbol]struct{})
	for _, in := range expired {
		if _, ok := seen[in.Symbol]; ok {
			continue
		}
		seen[in.Symbol] = struct{}{}
		if m.insights.HasActiveInsights(in.Symbol, now) {
			continue
		}
		if _, ok := errored[in.Symbol]; ok {
			continue
		}
		targets.Add(NewTarget(in.Symbol, 0))
	}

	m.nextExpiry = m.insights.GetNextExpiryTime()
	if next := m.rebalance(now); next.Known() {
		at := next.At()
		m.nextRebalance = &at
	}

	result := targets.Targets()
	m.log.Debug().
		Time("utc_time", now).
		Int("new_insights", len(newInsights)).
		Int("active_insights", len(selected)).
		Int("targets", len(result)).
		Msg("Created portfolio targets")

	return result, nil
}

// isRebalanceDue is the idle-state short-circuit: a cycle runs only on
// new insights, pending removals, a reached rebalance time, or a
// reached expiry time.
func (m *Model) isRebalanceDue(now time.Time, newInsights []*insight.Insight) bool {
	if len(newInsights) > 0 || len(m.removed) > 0 {
		return true
	}
	if m.nextRebalance == nil {
		// Schedule still unknown; ask again, retaining nothing.
		if next := m.rebalance(now); next.Known() {
			at := next.At()
			m.nextRebalance = &at
		}
	}
	if m.nextRebalance != nil && !now.Before(*m.nextRebalance) {
		return true
	}
	if m.nextExpiry != nil && !now.Before(*m.nextExpiry) {
		return true
	}
	return false
}

// selectTargetInsights reduces the active set to the insights that
// drive weighting. The default keeps the most recently generated
// insight per symbol; ties on generation time resolve by stable sort
// to the later-inserted insight.
func (m *Model) selectTargetInsights(active []*insight.Insight) []*insight.Insight {
	if selector, ok := m.weighting.(InsightSelector); ok {
		return selector.SelectTargetInsights(active)
	}
	return LastPerSymbol(active)
}

func (m *Model) filterInsights(algo domain.Algorithm, insights []*insight.Insight) []*insight.Insight {
	filter, ok := m.weighting.(TargetFilter)
	if !ok {
		return insights
	}
	kept := insights[:0:0]
	for _, in := range insights {
		if filter.ShouldCreateTargetForInsight(algo, in) {
			kept = append(kept, in)
		}
	}
	return kept
}

// LastPerSymbol keeps the last-generated active insight per symbol,
// preserving the relative order of the kept insights.
func LastPerSymbol(active []*insight.Insight) []*insight.Insight {
	sorted := append([]*insight.Insight{}, active...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].GeneratedTimeUTC.Before(sorted[j].GeneratedTimeUTC)
	})

	last := make(map[domain.Symbol]*insight.Insight, len(sorted))
	for _, in := range sorted {
		last[in.Symbol] = in
	}

	kept := make([]*insight.Insight, 0, len(last))
	for _, in := range sorted {
		if last[in.Symbol] == in {
			kept = append(kept, in)
		}
	}
	return kept
}
