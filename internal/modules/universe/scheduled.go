package universe

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduled gates an inner selection model behind a cron schedule:
// between scheduled times it reports the universe unchanged without
// consulting the inner model.
type Scheduled struct {
	inner    SelectionModel
	schedule cron.Schedule
	next     time.Time
}

// NewScheduled wraps a selection model with a standard 5-field cron
// expression (descriptors such as "@weekly" are accepted).
func NewScheduled(inner SelectionModel, expr string) (*Scheduled, error) {
	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid selection schedule %q: %w", expr, err)
	}
	return &Scheduled{inner: inner, schedule: schedule}, nil
}

// Select implements SelectionModel.
func (m *Scheduled) Select(now time.Time, coarse []CoarseFundamental) Selection {
	if m.next.IsZero() {
		// First call runs the inner model and starts the schedule.
		m.next = m.schedule.Next(now)
		return m.inner.Select(now, coarse)
	}
	if now.Before(m.next) {
		return Unchanged()
	}
	m.next = m.schedule.Next(now)
	return m.inner.Select(now, coarse)
}
