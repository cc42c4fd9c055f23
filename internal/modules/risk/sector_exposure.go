package risk

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/quantframe/quantframe/internal/domain"
	"github.com/quantframe/quantframe/internal/modules/construction"
)

var (
	// ErrInvalidExposure is a configuration error raised at
	// construction time.
	ErrInvalidExposure = errors.New("risk: maximum sector exposure must be a positive fraction")

	// ErrMissingFundamentals is raised on the first universe change
	// when no selected security carries sector data; the model is
	// meaningless without it and silently doing nothing is worse than
	// failing loudly.
	ErrMissingFundamentals = errors.New("risk: universe has no securities with sector classification data")
)

// MaximumSectorExposure caps each sector's aggregate absolute holdings
// value at a fraction of total portfolio value, proportionally
// shrinking every non-zero holding or proposed target in an
// over-exposed sector.
type MaximumSectorExposure struct {
	maximumSectorExposure float64
	validated             bool
	log                   zerolog.Logger
}

// NewMaximumSectorExposure creates the risk model. The cap is a
// fraction of portfolio value, e.g. 0.20 for 20%.
func NewMaximumSectorExposure(maximumSectorExposure float64, log zerolog.Logger) (*MaximumSectorExposure, error) {
	if maximumSectorExposure <= 0 {
		return nil, fmt.Errorf("%w: got %f", ErrInvalidExposure, maximumSectorExposure)
	}
	return &MaximumSectorExposure{
		maximumSectorExposure: maximumSectorExposure,
		log:                   log.With().Str("component", "max_sector_exposure").Logger(),
	}, nil
}

// OnSecuritiesChanged verifies the universe carries the sector data
// the model depends on. The check runs once, on the first change.
func (m *MaximumSectorExposure) OnSecuritiesChanged(algo domain.Algorithm, changes domain.SecurityChanges) error {
	if m.validated {
		return nil
	}
	for _, sec := range changes.Added {
		if sec.SectorCode() != "" {
			m.validated = true
			return nil
		}
	}
	for _, sec := range algo.ActiveSecurities() {
		if sec.SectorCode() != "" {
			m.validated = true
			return nil
		}
	}
	return ErrMissingFundamentals
}

// ManageRisk post-processes the cycle's proposed targets against live
// portfolio state, returning the final target list. For each security
// the proposed target quantity is used where one exists, else the
// existing live holding; sectors whose aggregate absolute value
// exceeds the cap are scaled down by the overflow ratio.
func (m *MaximumSectorExposure) ManageRisk(algo domain.Algorithm, targets []*construction.PortfolioTarget) []*construction.PortfolioTarget {
	final := construction.NewTargetCollection()
	final.AddRange(targets)

	securities := algo.ActiveSecurities()
	symbols := make([]domain.Symbol, 0, len(securities))
	for symbol := range securities {
		symbols = append(symbols, symbol)
	}
	sort.Slice(symbols, func(i, j int) bool { return symbols[i] < symbols[j] })

	grouped := make(map[string][]domain.Symbol)
	var sectorOrder []string
	for _, symbol := range symbols {
		code := securities[symbol].SectorCode()
		if code == "" {
			continue
		}
		if _, ok := grouped[code]; !ok {
			sectorOrder = append(sectorOrder, code)
		}
		grouped[code] = append(grouped[code], symbol)
	}

	maxValue := m.maximumSectorExposure * algo.TotalPortfolioValue()

	for _, code := range sectorOrder {
		members := grouped[code]

		aggregate := 0.0
		quantities := make(map[domain.Symbol]float64, len(members))
		for _, symbol := range members {
			quantity := m.proposedQuantity(algo, final, symbol)
			quantities[symbol] = quantity
			aggregate += math.Abs(quantity) * securities[symbol].Price
		}
		if aggregate <= maxValue {
			continue
		}

		ratio := maxValue / aggregate
		m.log.Info().
			Str("sector", code).
			Float64("exposure", aggregate).
			Float64("cap", maxValue).
			Float64("ratio", ratio).
			Msg("Sector over-exposed, scaling down holdings")

		for _, symbol := range members {
			quantity := quantities[symbol]
			if quantity == 0 {
				continue
			}
			final.Add(construction.NewTarget(symbol, quantity*ratio))
		}
	}

	return final.Targets()
}

// proposedQuantity prefers the cycle's proposed target over the live
// holding.
func (m *MaximumSectorExposure) proposedQuantity(algo domain.Algorithm, targets *construction.TargetCollection, symbol domain.Symbol) float64 {
	if t, ok := targets.Get(symbol); ok {
		return t.Quantity
	}
	if h, ok := algo.Holding(symbol); ok {
		return h.Quantity
	}
	return 0
}
