package construction

import (
	"errors"
	"fmt"
	"math"

	"github.com/quantframe/quantframe/internal/domain"
)

// Per-target resolution failures. These are recoverable: the
// construction model records the symbol and moves on.
var (
	ErrUnknownSecurity  = errors.New("construction: security not found in snapshot")
	ErrZeroPrice        = errors.New("construction: security has no price")
	ErrUnresolvedTarget = errors.New("construction: percent does not resolve to a tradable quantity")
)

// PortfolioTarget is a desired holding for one symbol, expressed as a
// signed quantity. A zero quantity means "flatten this position".
// Targets are created fresh each cycle and never mutated.
type PortfolioTarget struct {
	Symbol   domain.Symbol
	Quantity float64
}

// NewTarget creates a target with an explicit quantity.
func NewTarget(symbol domain.Symbol, quantity float64) *PortfolioTarget {
	return &PortfolioTarget{Symbol: symbol, Quantity: quantity}
}

// NewTargetPercent resolves a signed percent of total portfolio value
// into a whole-unit quantity against the engine snapshot. A zero
// percent resolves to a flatten target. Resolution fails when the
// security is unknown, has no price, or the percent is too small to
// buy a single unit.
func NewTargetPercent(algo domain.Algorithm, symbol domain.Symbol, percent float64) (*PortfolioTarget, error) {
	if percent == 0 {
		return NewTarget(symbol, 0), nil
	}

	security, ok := algo.Security(symbol)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSecurity, symbol)
	}
	if security.Price <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrZeroPrice, symbol)
	}

	value := percent * algo.TotalPortfolioValue()
	quantity := math.Trunc(value / security.Price)
	if quantity == 0 {
		return nil, fmt.Errorf("%w: %s at %.4f%%", ErrUnresolvedTarget, symbol, percent*100)
	}
	return NewTarget(symbol, quantity), nil
}

// TargetCollection accumulates targets for one cycle, keeping at most
// one target per symbol (last added wins) while preserving first-seen
// symbol order.
type TargetCollection struct {
	targets map[domain.Symbol]*PortfolioTarget
	order   []domain.Symbol
}

// NewTargetCollection creates an empty collection.
func NewTargetCollection() *TargetCollection {
	return &TargetCollection{targets: make(map[domain.Symbol]*PortfolioTarget)}
}

// Add inserts or replaces the target for its symbol.
func (c *TargetCollection) Add(t *PortfolioTarget) {
	if _, ok := c.targets[t.Symbol]; !ok {
		c.order = append(c.order, t.Symbol)
	}
	c.targets[t.Symbol] = t
}

// AddRange inserts every target in order.
func (c *TargetCollection) AddRange(targets []*PortfolioTarget) {
	for _, t := range targets {
		c.Add(t)
	}
}

// Contains reports whether a target exists for the symbol.
func (c *TargetCollection) Contains(symbol domain.Symbol) bool {
	_, ok := c.targets[symbol]
	return ok
}

// Get returns the target for a symbol, if present.
func (c *TargetCollection) Get(symbol domain.Symbol) (*PortfolioTarget, bool) {
	t, ok := c.targets[symbol]
	return t, ok
}

// Targets returns the collected targets in first-seen symbol order.
func (c *TargetCollection) Targets() []*PortfolioTarget {
	out := make([]*PortfolioTarget, 0, len(c.order))
	for _, s := range c.order {
		out = append(out, c.targets[s])
	}
	return out
}
