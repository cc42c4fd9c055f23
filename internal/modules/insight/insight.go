package insight

import (
	"time"

	"github.com/google/uuid"

	"github.com/quantframe/quantframe/internal/domain"
)

// Type is the quantity an insight predicts.
type Type int

const (
	TypePrice Type = iota
	TypeVolatility
)

// Direction is the predicted direction of change, usable directly in
// weight arithmetic.
type Direction int

const (
	DirectionDown Direction = -1
	DirectionFlat Direction = 0
	DirectionUp   Direction = 1
)

// Insight is a timestamped directional prediction for one symbol.
// Content is read-only after emission; only lifecycle bookkeeping
// (close-time override on forced eviction) is ever adjusted.
type Insight struct {
	ID               uuid.UUID
	Symbol           domain.Symbol
	GeneratedTimeUTC time.Time
	CloseTimeUTC     time.Time
	Period           time.Duration
	Type             Type
	Direction        Direction

	// Optional prediction attributes.
	Magnitude  *float64 // predicted percent change
	Confidence *float64 // in [0, 1]
	Weight     *float64 // portfolio-weight hint

	GroupID *uuid.UUID // links insights emitted together as an atomic set
	Tag     string
}

// New creates an insight of the given type. The close time is the
// generated time plus the period.
func New(symbol domain.Symbol, generated time.Time, period time.Duration, typ Type, direction Direction) *Insight {
	return &Insight{
		ID:               uuid.New(),
		Symbol:           symbol,
		GeneratedTimeUTC: generated,
		CloseTimeUTC:     generated.Add(period),
		Period:           period,
		Type:             typ,
		Direction:        direction,
	}
}

// Price creates a price-type insight.
func Price(symbol domain.Symbol, generated time.Time, period time.Duration, direction Direction) *Insight {
	return New(symbol, generated, period, TypePrice, direction)
}

// WithMagnitude sets the predicted percent change and returns the
// insight for chaining.
func (i *Insight) WithMagnitude(m float64) *Insight {
	i.Magnitude = &m
	return i
}

// WithConfidence sets the prediction confidence and returns the
// insight for chaining.
func (i *Insight) WithConfidence(c float64) *Insight {
	i.Confidence = &c
	return i
}

// WithWeight sets the portfolio-weight hint and returns the insight
// for chaining.
func (i *Insight) WithWeight(w float64) *Insight {
	i.Weight = &w
	return i
}

// WithTag sets the free-text tag and returns the insight for chaining.
func (i *Insight) WithTag(tag string) *Insight {
	i.Tag = tag
	return i
}

// IsActive reports whether the insight's prediction window covers the
// given time: generated <= t < close.
func (i *Insight) IsActive(t time.Time) bool {
	return !t.Before(i.GeneratedTimeUTC) && t.Before(i.CloseTimeUTC)
}

// IsExpired reports whether the insight's window has closed:
// t >= close.
func (i *Insight) IsExpired(t time.Time) bool {
	return !t.Before(i.CloseTimeUTC)
}

// Expire overrides the close time so the insight is expired as of t.
// Used when a symbol is forcibly evicted before its window closes.
func (i *Insight) Expire(t time.Time) {
	if i.CloseTimeUTC.After(t) {
		i.CloseTimeUTC = t
	}
}

// Group assigns a fresh shared group id to a set of insights emitted
// together as an atomic unit, and returns the same slice.
func Group(insights ...*Insight) []*Insight {
	id := uuid.New()
	for _, in := range insights {
		in.GroupID = &id
	}
	return insights
}
