package universe

import (
	"time"

	"github.com/quantframe/quantframe/internal/domain"
)

// Manual selects a fixed symbol list once and reports the universe
// unchanged afterwards.
type Manual struct {
	symbols  []domain.Symbol
	selected bool
}

// NewManual creates the model.
func NewManual(symbols ...domain.Symbol) *Manual {
	return &Manual{symbols: symbols}
}

// Select implements SelectionModel.
func (m *Manual) Select(_ time.Time, _ []CoarseFundamental) Selection {
	if m.selected {
		return Unchanged()
	}
	m.selected = true
	return Symbols(m.symbols...)
}
