package construction

import (
	"github.com/rs/zerolog"

	"github.com/quantframe/quantframe/internal/domain"
	"github.com/quantframe/quantframe/internal/modules/insight"
)

// SectorWeighting allocates in two stages: an equal share per distinct
// sector, then an equal share per symbol within each sector, signed by
// insight direction. Symbols without a sector classification never
// receive a target. The symbol-to-sector map is instance-owned state,
// populated and evicted on universe changes.
type SectorWeighting struct {
	bias               PortfolioBias
	sectorCodeBySymbol map[domain.Symbol]string
	log                zerolog.Logger
}

// NewSectorWeightingModel creates a sector-weighting construction
// model.
func NewSectorWeightingModel(bias PortfolioBias, rebalance RebalanceFunc, log zerolog.Logger) *Model {
	w := &SectorWeighting{
		bias:               bias,
		sectorCodeBySymbol: make(map[domain.Symbol]string),
		log:                log.With().Str("model", "sector_weighting").Logger(),
	}
	return NewModel(w, rebalance, log.With().Str("model", "sector_weighting").Logger())
}

// OnSecuritiesChanged implements SecuritiesObserver, maintaining the
// sector classification map from security fundamentals.
func (w *SectorWeighting) OnSecuritiesChanged(_ domain.Algorithm, changes domain.SecurityChanges) {
	for _, sec := range changes.Removed {
		delete(w.sectorCodeBySymbol, sec.Symbol)
	}
	for _, sec := range changes.Added {
		code := sec.SectorCode()
		if code == "" {
			w.log.Debug().
				Str("symbol", string(sec.Symbol)).
				Msg("Security has no sector classification, skipping")
			continue
		}
		w.sectorCodeBySymbol[sec.Symbol] = code
	}
}

// ShouldCreateTargetForInsight implements TargetFilter: insights for
// unclassified symbols are rejected.
func (w *SectorWeighting) ShouldCreateTargetForInsight(_ domain.Algorithm, in *insight.Insight) bool {
	_, ok := w.sectorCodeBySymbol[in.Symbol]
	return ok
}

// DetermineTargetPercent implements Weighting.
func (w *SectorWeighting) DetermineTargetPercent(_ domain.Algorithm, activeInsights []*insight.Insight) (map[*insight.Insight]float64, error) {
	result := make(map[*insight.Insight]float64, len(activeInsights))

	grouped := make(map[string][]*insight.Insight)
	var sectorOrder []string
	for _, in := range activeInsights {
		if !w.bias.Allows(in.Direction) {
			result[in] = 0
			continue
		}
		code := w.sectorCodeBySymbol[in.Symbol]
		if _, ok := grouped[code]; !ok {
			sectorOrder = append(sectorOrder, code)
		}
		grouped[code] = append(grouped[code], in)
	}
	if len(grouped) == 0 {
		return result, nil
	}

	sectorPercent := 1.0 / float64(len(grouped))
	for _, code := range sectorOrder {
		group := grouped[code]
		percent := sectorPercent / float64(len(group))
		for _, in := range group {
			result[in] = float64(in.Direction) * percent
		}
	}
	return result, nil
}
