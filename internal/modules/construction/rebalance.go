package construction

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// NextRebalance is the outcome of querying a rebalance schedule: a
// concrete next time, or "unknown yet". Unknown means the previously
// scheduled time stays in force and the schedule is queried again on
// the next cycle.
type NextRebalance struct {
	at    time.Time
	known bool
}

// RebalanceAt schedules the next rebalance for a concrete time.
func RebalanceAt(t time.Time) NextRebalance {
	return NextRebalance{at: t, known: true}
}

// RebalanceUnknown defers the decision to a later cycle.
func RebalanceUnknown() NextRebalance {
	return NextRebalance{}
}

// Known reports whether a concrete time was decided.
func (n NextRebalance) Known() bool { return n.known }

// At returns the scheduled time; only meaningful when Known.
func (n NextRebalance) At() time.Time { return n.at }

// RebalanceFunc computes the next scheduled rebalance from the
// current cycle time.
type RebalanceFunc func(now time.Time) NextRebalance

// FixedPeriod schedules a rebalance a fixed duration after every
// cycle that runs.
func FixedPeriod(period time.Duration) RebalanceFunc {
	return func(now time.Time) NextRebalance {
		return RebalanceAt(now.Add(period))
	}
}

// Daily rebalances every 24 hours.
func Daily() RebalanceFunc {
	return FixedPeriod(24 * time.Hour)
}

// CronSchedule schedules rebalances from a standard 5-field cron
// expression (descriptors such as "@daily" are accepted).
func CronSchedule(expr string) (RebalanceFunc, error) {
	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid rebalance schedule %q: %w", expr, err)
	}
	return func(now time.Time) NextRebalance {
		return RebalanceAt(schedule.Next(now))
	}, nil
}

// Never yields no scheduled rebalances: cycles run only on new
// insights, expiries, or universe removals.
func Never() RebalanceFunc {
	return func(time.Time) NextRebalance {
		return RebalanceUnknown()
	}
}
