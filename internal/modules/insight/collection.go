package insight

import (
	"time"

	"github.com/quantframe/quantframe/internal/domain"
)

// Collection is an append-only, time-indexed store of insights, owned
// exclusively by one portfolio-construction model instance. Insertion
// order (generation-time order as emitted upstream) is preserved; the
// collection never deduplicates.
type Collection struct {
	insights []*Insight
}

// NewCollection creates an empty collection.
func NewCollection() *Collection {
	return &Collection{}
}

// Add appends a single insight.
func (c *Collection) Add(in *Insight) {
	c.insights = append(c.insights, in)
}

// AddRange appends insights preserving their order.
func (c *Collection) AddRange(insights []*Insight) {
	c.insights = append(c.insights, insights...)
}

// Len returns the number of stored insights, expired or not.
func (c *Collection) Len() int {
	return len(c.insights)
}

// GetActiveInsights returns all insights whose prediction window
// covers t, in insertion order. Callers that need one authoritative
// insight per symbol must select the last-generated themselves.
func (c *Collection) GetActiveInsights(t time.Time) []*Insight {
	var active []*Insight
	for _, in := range c.insights {
		if in.IsActive(t) {
			active = append(active, in)
		}
	}
	return active
}

// HasActiveInsights reports whether any insight for the symbol is
// active at t.
func (c *Collection) HasActiveInsights(symbol domain.Symbol, t time.Time) bool {
	for _, in := range c.insights {
		if in.Symbol == symbol && in.IsActive(t) {
			return true
		}
	}
	return false
}

// RemoveExpiredInsights removes and returns every insight whose close
// time is at or before t. Each insight is returned by exactly one call.
func (c *Collection) RemoveExpiredInsights(t time.Time) []*Insight {
	var expired []*Insight
	remaining := c.insights[:0]
	for _, in := range c.insights {
		if in.IsExpired(t) {
			expired = append(expired, in)
		} else {
			remaining = append(remaining, in)
		}
	}
	c.insights = remaining
	return expired
}

// GetNextExpiryTime returns the minimum close time across stored
// insights, or nil when the collection is empty. Callers substitute
// their own "never" sentinel for nil.
func (c *Collection) GetNextExpiryTime() *time.Time {
	var next *time.Time
	for _, in := range c.insights {
		if next == nil || in.CloseTimeUTC.Before(*next) {
			t := in.CloseTimeUTC
			next = &t
		}
	}
	return next
}

// Clear removes all insights, active or not, for the given symbols.
// Used when a symbol leaves the universe so stale signals cannot
// resurrect a target.
func (c *Collection) Clear(symbols []domain.Symbol) {
	if len(symbols) == 0 {
		return
	}
	drop := make(map[domain.Symbol]struct{}, len(symbols))
	for _, s := range symbols {
		drop[s] = struct{}{}
	}
	remaining := c.insights[:0]
	for _, in := range c.insights {
		if _, ok := drop[in.Symbol]; !ok {
			remaining = append(remaining, in)
		}
	}
	c.insights = remaining
}
