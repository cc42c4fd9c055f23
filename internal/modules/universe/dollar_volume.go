package universe

import (
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantframe/quantframe/internal/domain"
)

// DollarVolume selects the top-N symbols by smoothed dollar volume.
// The per-symbol running average is instance-owned state, evicted when
// a symbol stops appearing in the coarse data.
type DollarVolume struct {
	count     int
	smoothing float64

	dollarVolumeBySymbol map[domain.Symbol]float64
	log                  zerolog.Logger
}

// NewDollarVolume creates the model selecting the top count symbols.
// smoothing in (0,1] is the weight of the newest observation; 1 keeps
// raw dollar volume.
func NewDollarVolume(count int, smoothing float64, log zerolog.Logger) *DollarVolume {
	if smoothing <= 0 || smoothing > 1 {
		smoothing = 1
	}
	return &DollarVolume{
		count:                count,
		smoothing:            smoothing,
		dollarVolumeBySymbol: make(map[domain.Symbol]float64),
		log:                  log.With().Str("model", "dollar_volume_universe").Logger(),
	}
}

// Select implements SelectionModel.
func (m *DollarVolume) Select(_ time.Time, coarse []CoarseFundamental) Selection {
	seen := make(map[domain.Symbol]struct{}, len(coarse))
	for _, c := range coarse {
		seen[c.Symbol] = struct{}{}
		prev, ok := m.dollarVolumeBySymbol[c.Symbol]
		if !ok {
			m.dollarVolumeBySymbol[c.Symbol] = c.DollarVolume
			continue
		}
		m.dollarVolumeBySymbol[c.Symbol] = prev + m.smoothing*(c.DollarVolume-prev)
	}
	for symbol := range m.dollarVolumeBySymbol {
		if _, ok := seen[symbol]; !ok {
			delete(m.dollarVolumeBySymbol, symbol)
		}
	}

	ranked := make([]domain.Symbol, 0, len(coarse))
	for _, c := range coarse {
		ranked = append(ranked, c.Symbol)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return m.dollarVolumeBySymbol[ranked[i]] > m.dollarVolumeBySymbol[ranked[j]]
	})

	if len(ranked) > m.count {
		ranked = ranked[:m.count]
	}
	return Symbols(ranked...)
}
