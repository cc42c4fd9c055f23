package domain

import "time"

// Snapshot is a concrete, immutable Algorithm implementation. The
// engine adapter builds one per tick; tests build them directly.
type Snapshot struct {
	Time       time.Time
	Value      float64
	Holdings   map[Symbol]Holding
	Securities map[Symbol]*Security
}

// NewSnapshot creates an empty snapshot at the given time and
// portfolio value.
func NewSnapshot(t time.Time, value float64) *Snapshot {
	return &Snapshot{
		Time:       t,
		Value:      value,
		Holdings:   make(map[Symbol]Holding),
		Securities: make(map[Symbol]*Security),
	}
}

// WithSecurity registers a security and returns the snapshot for
// chaining.
func (s *Snapshot) WithSecurity(sec *Security) *Snapshot {
	s.Securities[sec.Symbol] = sec
	return s
}

// WithHolding registers a position and returns the snapshot for
// chaining.
func (s *Snapshot) WithHolding(h Holding) *Snapshot {
	s.Holdings[h.Symbol] = h
	return s
}

// UTCTime implements Algorithm.
func (s *Snapshot) UTCTime() time.Time { return s.Time }

// TotalPortfolioValue implements Algorithm.
func (s *Snapshot) TotalPortfolioValue() float64 { return s.Value }

// Holding implements Algorithm.
func (s *Snapshot) Holding(symbol Symbol) (Holding, bool) {
	h, ok := s.Holdings[symbol]
	return h, ok
}

// Security implements Algorithm.
func (s *Snapshot) Security(symbol Symbol) (*Security, bool) {
	sec, ok := s.Securities[symbol]
	return sec, ok
}

// ActiveSecurities implements Algorithm.
func (s *Snapshot) ActiveSecurities() map[Symbol]*Security {
	return s.Securities
}
