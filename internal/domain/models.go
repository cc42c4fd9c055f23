package domain

import (
	"math"
	"time"
)

// Symbol identifies a tradable instrument. It is opaque to this
// library; the surrounding engine decides its format.
type Symbol string

// Fundamentals carries the optional classification data attached to a
// security by the upstream data pipeline.
type Fundamentals struct {
	SectorCode string // opaque industry classification, e.g. "311" or "Technology"
}

// Security represents a tradable security as seen in the engine's
// per-tick snapshot.
type Security struct {
	Symbol       Symbol
	Exchange     string
	Price        float64
	Fundamentals *Fundamentals
}

// SectorCode returns the security's sector classification, or "" when
// no fundamental data is attached.
func (s *Security) SectorCode() string {
	if s == nil || s.Fundamentals == nil {
		return ""
	}
	return s.Fundamentals.SectorCode
}

// Holding is a point-in-time view of one portfolio position.
type Holding struct {
	Symbol       Symbol
	Quantity     float64
	AveragePrice float64
	Price        float64
}

// AbsoluteHoldingsValue returns |quantity| * price.
func (h Holding) AbsoluteHoldingsValue() float64 {
	return math.Abs(h.Quantity) * h.Price
}

// HoldingsValue returns the signed market value of the position.
func (h Holding) HoldingsValue() float64 {
	return h.Quantity * h.Price
}

// Invested reports whether the position is open.
func (h Holding) Invested() bool {
	return h.Quantity != 0
}

// Bar is a single OHLCV observation for one symbol.
type Bar struct {
	Symbol Symbol
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Algorithm is the read-only engine snapshot handed to every model on
// each tick. Models must not mutate it.
type Algorithm interface {
	// UTCTime is the current simulation or live clock.
	UTCTime() time.Time

	// TotalPortfolioValue is the aggregate value of holdings plus cash.
	TotalPortfolioValue() float64

	// Holding returns the current position for a symbol, if any.
	Holding(symbol Symbol) (Holding, bool)

	// Security returns the security snapshot for a symbol, if known.
	Security(symbol Symbol) (*Security, bool)

	// ActiveSecurities returns all securities currently selected into
	// the tradable universe.
	ActiveSecurities() map[Symbol]*Security
}

// SecurityChanges describes additions to and removals from the
// tradable universe between two ticks.
type SecurityChanges struct {
	Added   []*Security
	Removed []*Security
}

// NoChanges is the empty change set.
var NoChanges = SecurityChanges{}

// Count returns the total number of changed securities.
func (c SecurityChanges) Count() int {
	return len(c.Added) + len(c.Removed)
}

// Merge combines two change sets, left operand first.
func (c SecurityChanges) Merge(other SecurityChanges) SecurityChanges {
	return SecurityChanges{
		Added:   append(append([]*Security{}, c.Added...), other.Added...),
		Removed: append(append([]*Security{}, c.Removed...), other.Removed...),
	}
}
