package insight

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantframe/quantframe/internal/domain"
)

var t0 = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

func TestInsightActiveWindow(t *testing.T) {
	in := Price("AAPL", t0, 10*time.Minute, DirectionUp)

	assert.True(t, in.IsActive(t0), "active at generation time")
	assert.True(t, in.IsActive(t0.Add(5*time.Minute)))
	assert.False(t, in.IsActive(t0.Add(10*time.Minute)), "close time is exclusive")
	assert.False(t, in.IsActive(t0.Add(-time.Second)))

	assert.False(t, in.IsExpired(t0.Add(9*time.Minute)))
	assert.True(t, in.IsExpired(t0.Add(10*time.Minute)))
}

func TestCollectionSingleInsightLifecycle(t *testing.T) {
	c := NewCollection()
	in := Price("AAPL", t0, 10*time.Minute, DirectionUp)
	c.AddRange([]*Insight{in})

	active := c.GetActiveInsights(t0.Add(5 * time.Minute))
	require.Len(t, active, 1)
	assert.Same(t, in, active[0])

	assert.Empty(t, c.GetActiveInsights(t0.Add(10*time.Minute)))

	expired := c.RemoveExpiredInsights(t0.Add(10 * time.Minute))
	require.Len(t, expired, 1)
	assert.Same(t, in, expired[0])

	// A second sweep returns nothing: each insight expires exactly once.
	assert.Empty(t, c.RemoveExpiredInsights(t0.Add(20*time.Minute)))
	assert.Equal(t, 0, c.Len())
}

func TestCollectionActiveInsightsPreserveInsertionOrder(t *testing.T) {
	c := NewCollection()
	first := Price("AAPL", t0, time.Hour, DirectionUp)
	second := Price("AAPL", t0.Add(time.Minute), time.Hour, DirectionDown)
	third := Price("MSFT", t0.Add(2*time.Minute), time.Hour, DirectionUp)
	c.AddRange([]*Insight{first, second, third})

	active := c.GetActiveInsights(t0.Add(5 * time.Minute))
	require.Len(t, active, 3)
	assert.Same(t, first, active[0])
	assert.Same(t, second, active[1])
	assert.Same(t, third, active[2])
}

func TestCollectionHasActiveInsights(t *testing.T) {
	c := NewCollection()
	c.Add(Price("AAPL", t0, 10*time.Minute, DirectionUp))

	assert.True(t, c.HasActiveInsights("AAPL", t0.Add(time.Minute)))
	assert.False(t, c.HasActiveInsights("MSFT", t0.Add(time.Minute)))
	assert.False(t, c.HasActiveInsights("AAPL", t0.Add(10*time.Minute)))
}

func TestCollectionNextExpiryTime(t *testing.T) {
	c := NewCollection()
	assert.Nil(t, c.GetNextExpiryTime())

	c.Add(Price("AAPL", t0, time.Hour, DirectionUp))
	c.Add(Price("MSFT", t0, 30*time.Minute, DirectionDown))

	next := c.GetNextExpiryTime()
	require.NotNil(t, next)
	assert.Equal(t, t0.Add(30*time.Minute), *next)
}

func TestCollectionClearRemovesAllInsightsForSymbols(t *testing.T) {
	c := NewCollection()
	c.Add(Price("AAPL", t0, time.Hour, DirectionUp))
	c.Add(Price("AAPL", t0.Add(time.Minute), time.Hour, DirectionDown))
	c.Add(Price("MSFT", t0, time.Hour, DirectionUp))

	c.Clear([]domain.Symbol{"AAPL"})

	assert.False(t, c.HasActiveInsights("AAPL", t0.Add(2*time.Minute)))
	assert.True(t, c.HasActiveInsights("MSFT", t0.Add(2*time.Minute)))
	assert.Equal(t, 1, c.Len())
}

func TestCollectionExpirySweepCompleteness(t *testing.T) {
	c := NewCollection()
	short := Price("AAPL", t0, 10*time.Minute, DirectionUp)
	long := Price("MSFT", t0, time.Hour, DirectionUp)
	c.AddRange([]*Insight{short, long})

	expired := c.RemoveExpiredInsights(t0.Add(15 * time.Minute))
	require.Len(t, expired, 1)
	assert.Same(t, short, expired[0])

	// The swept insight never reappears; the long one stays active.
	active := c.GetActiveInsights(t0.Add(20 * time.Minute))
	require.Len(t, active, 1)
	assert.Same(t, long, active[0])
	assert.NotContains(t, active, short)

	expired = c.RemoveExpiredInsights(t0.Add(2 * time.Hour))
	require.Len(t, expired, 1)
	assert.Same(t, long, expired[0])
}

func TestGroupAssignsSharedID(t *testing.T) {
	a := Price("AAPL", t0, time.Hour, DirectionDown)
	b := Price("MSFT", t0, time.Hour, DirectionUp)
	Group(a, b)

	require.NotNil(t, a.GroupID)
	require.NotNil(t, b.GroupID)
	assert.Equal(t, *a.GroupID, *b.GroupID)
}

func TestExpireOverridesCloseTime(t *testing.T) {
	in := Price("AAPL", t0, time.Hour, DirectionUp)
	in.Expire(t0.Add(time.Minute))
	assert.True(t, in.IsExpired(t0.Add(time.Minute)))

	// Expiring later than the close time never extends the window.
	in2 := Price("AAPL", t0, time.Minute, DirectionUp)
	in2.Expire(t0.Add(time.Hour))
	assert.Equal(t, t0.Add(time.Minute), in2.CloseTimeUTC)
}
