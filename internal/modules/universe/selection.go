package universe

import (
	"time"

	"github.com/quantframe/quantframe/internal/domain"
)

// Selection is the outcome of a universe-selection pass: either an
// explicit symbol list, or "unchanged" meaning the engine keeps the
// previous universe. Unchanged is a first-class value, not a nil
// sentinel.
type Selection struct {
	unchanged bool
	symbols   []domain.Symbol
}

// Unchanged keeps the previous universe.
func Unchanged() Selection {
	return Selection{unchanged: true}
}

// Symbols selects an explicit universe.
func Symbols(symbols ...domain.Symbol) Selection {
	return Selection{symbols: symbols}
}

// IsUnchanged reports whether the previous universe is kept.
func (s Selection) IsUnchanged() bool { return s.unchanged }

// List returns the selected symbols; only meaningful when not
// unchanged.
func (s Selection) List() []domain.Symbol { return s.symbols }

// CoarseFundamental is the per-symbol coarse data row selection models
// filter on.
type CoarseFundamental struct {
	Symbol             domain.Symbol
	Price              float64
	Volume             float64
	DollarVolume       float64
	HasFundamentalData bool
}

// SelectionModel produces symbol lists from coarse data.
type SelectionModel interface {
	Select(now time.Time, coarse []CoarseFundamental) Selection
}
