package construction

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantframe/quantframe/internal/domain"
	"github.com/quantframe/quantframe/internal/modules/insight"
	"github.com/quantframe/quantframe/pkg/logger"
)

func TestAccumulativeInsightReplaysInGenerationOrder(t *testing.T) {
	w := &AccumulativeInsight{step: 0.03, bias: BiasLongShort}
	algo := domain.NewSnapshot(cycleStart, 100000)

	insights := []*insight.Insight{
		insight.Price("AAPL", cycleStart, time.Hour, insight.DirectionUp),
		insight.Price("AAPL", cycleStart.Add(time.Minute), time.Hour, insight.DirectionUp),
		insight.Price("AAPL", cycleStart.Add(2*time.Minute), time.Hour, insight.DirectionFlat),
	}

	percents, err := w.DetermineTargetPercent(algo, insights)
	require.NoError(t, err)

	// Up, Up, Flat with step 0.03 nets out at 0.03.
	for _, in := range insights {
		assert.InDelta(t, 0.03, percents[in], 1e-12)
	}
}

func TestAccumulativeInsightFlatSnapsToZeroWithinOneStep(t *testing.T) {
	w := &AccumulativeInsight{step: 0.03, bias: BiasLongShort}
	algo := domain.NewSnapshot(cycleStart, 100000)

	insights := []*insight.Insight{
		insight.Price("AAPL", cycleStart, time.Hour, insight.DirectionUp),
		insight.Price("AAPL", cycleStart.Add(time.Minute), time.Hour, insight.DirectionFlat),
	}

	percents, err := w.DetermineTargetPercent(algo, insights)
	require.NoError(t, err)
	assert.Equal(t, float64(0), percents[insights[1]])
}

func TestAccumulativeInsightBiasZeroesDisagreement(t *testing.T) {
	w := &AccumulativeInsight{step: 0.03, bias: BiasLong}
	algo := domain.NewSnapshot(cycleStart, 100000)

	insights := []*insight.Insight{
		insight.Price("AAPL", cycleStart, time.Hour, insight.DirectionDown),
		insight.Price("AAPL", cycleStart.Add(time.Minute), time.Hour, insight.DirectionUp),
	}

	percents, err := w.DetermineTargetPercent(algo, insights)
	require.NoError(t, err)

	// The short step is zeroed by the long bias, so the replay restarts
	// from zero and the final Up step stands alone.
	assert.InDelta(t, 0.03, percents[insights[1]], 1e-12)
}

func TestAccumulativeInsightSelectsFullActiveSetSorted(t *testing.T) {
	w := &AccumulativeInsight{step: 0.03, bias: BiasLongShort}

	later := insight.Price("AAPL", cycleStart.Add(time.Minute), time.Hour, insight.DirectionUp)
	earlier := insight.Price("AAPL", cycleStart, time.Hour, insight.DirectionUp)

	selected := w.SelectTargetInsights([]*insight.Insight{later, earlier})
	require.Len(t, selected, 2, "accumulation keeps every active insight")
	assert.Same(t, earlier, selected[0])
	assert.Same(t, later, selected[1])
}

func TestAccumulativeInsightModelAccumulatesAcrossCycles(t *testing.T) {
	model := NewAccumulativeInsightModel(0.05, BiasLongShort, Daily(), logger.Nop())

	snap := func(t time.Time) *domain.Snapshot {
		return domain.NewSnapshot(t, 100000).
			WithSecurity(&domain.Security{Symbol: "AAPL", Price: 100})
	}

	targets, err := model.CreateTargets(snap(cycleStart), []*insight.Insight{
		insight.Price("AAPL", cycleStart, 8*time.Hour, insight.DirectionUp),
	})
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, float64(50), targets[0].Quantity)

	// The earlier insight is still active, so the second one stacks.
	targets, err = model.CreateTargets(snap(cycleStart.Add(time.Hour)), []*insight.Insight{
		insight.Price("AAPL", cycleStart.Add(time.Hour), 8*time.Hour, insight.DirectionUp),
	})
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, float64(100), targets[0].Quantity)
}

func TestNewAccumulativeInsightModelDefaultsStep(t *testing.T) {
	model := NewAccumulativeInsightModel(0, BiasLongShort, Daily(), logger.Nop())

	w, ok := model.Weighting().(*AccumulativeInsight)
	require.True(t, ok)
	assert.Equal(t, DefaultAccumulativeStep, w.step)
}
