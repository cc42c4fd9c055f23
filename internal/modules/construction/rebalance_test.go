package construction

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantframe/quantframe/internal/modules/insight"
	"github.com/quantframe/quantframe/pkg/logger"
)

func TestFixedPeriodSchedulesFromNow(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

	next := FixedPeriod(6 * time.Hour)(now)
	require.True(t, next.Known())
	assert.Equal(t, now.Add(6*time.Hour), next.At())

	next = Daily()(now)
	require.True(t, next.Known())
	assert.Equal(t, now.Add(24*time.Hour), next.At())
}

func TestCronScheduleParsesStandardExpressions(t *testing.T) {
	fn, err := CronSchedule("0 16 * * 1-5")
	require.NoError(t, err)

	// Friday 09:30, next weekday 16:00 is the same day.
	now := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	next := fn(now)
	require.True(t, next.Known())
	assert.Equal(t, time.Date(2024, 3, 1, 16, 0, 0, 0, time.UTC), next.At())

	_, err = CronSchedule("not a schedule")
	assert.Error(t, err)
}

func TestNeverYieldsUnknown(t *testing.T) {
	next := Never()(time.Now().UTC())
	assert.False(t, next.Known())
}

func TestNeverScheduleStaysIdleWithoutInsights(t *testing.T) {
	model := NewEqualWeightingModel(BiasLongShort, Never(), logger.Nop())

	start := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	_, err := model.CreateTargets(twoSymbolSnapshot(start), []*insight.Insight{
		insight.Price("AAPL", start, 4*time.Hour, insight.DirectionUp),
	})
	require.NoError(t, err)

	// With no schedule and nothing new, cycles stay idle until expiry.
	targets, err := model.CreateTargets(twoSymbolSnapshot(start.Add(time.Hour)), nil)
	require.NoError(t, err)
	assert.Empty(t, targets)

	targets, err = model.CreateTargets(twoSymbolSnapshot(start.Add(4*time.Hour)), nil)
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, float64(0), targets[0].Quantity)
}

func TestUnknownScheduleRetainsPreviousTime(t *testing.T) {
	calls := 0
	scheduleOnce := func(now time.Time) NextRebalance {
		calls++
		if calls == 1 {
			return RebalanceAt(now.Add(2 * time.Hour))
		}
		return RebalanceUnknown()
	}

	model := NewEqualWeightingModel(BiasLongShort, scheduleOnce, logger.Nop())

	start := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	_, err := model.CreateTargets(twoSymbolSnapshot(start), []*insight.Insight{
		insight.Price("AAPL", start, 8*time.Hour, insight.DirectionUp),
	})
	require.NoError(t, err)

	// Later Unknown answers keep the +2h schedule in force: idle at +1h,
	// a full sizing cycle at +2h.
	targets, err := model.CreateTargets(twoSymbolSnapshot(start.Add(time.Hour)), nil)
	require.NoError(t, err)
	assert.Empty(t, targets)

	targets, err = model.CreateTargets(twoSymbolSnapshot(start.Add(2*time.Hour)), nil)
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, float64(1000), targets[0].Quantity)
}
