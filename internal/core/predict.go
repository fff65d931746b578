package core

import (
	"fmt"
	"math"
	"slices"
	"time"
)

// Status classifies the outcome of one goal's affordability forecast.
// The labels are stable identifiers surfaced verbatim to callers;
// user-facing sentences are rendered separately via Message.
type Status string

const (
	StatusInvalidTarget Status = "invalid-target"
	StatusAffordNow     Status = "afford-now"
	StatusPredicted     Status = "predicted"
	StatusNoRate        Status = "unpredictable-no-rate"
)

// PredictionRecord is the forecast for a single goal. Records are
// produced fresh on every PredictGoals call and are never persisted;
// the goal entities themselves stay untouched.
type PredictionRecord struct {
	GoalID    int64
	Title     string
	Priority  int
	Target    float64
	CreatedAt time.Time

	// Start is the instant this goal's saving window opens: the
	// invocation instant for the first goal, or the resolution instant
	// of the previous goal in priority order.
	Start time.Time

	// End is the predicted completion instant. Nil means the goal
	// cannot be predicted (no saving rate and not enough pot).
	End *time.Time

	Status Status

	// Progress is how much of this goal the original savings lump sum
	// alone would cover, in percent, clamped to [0, 100] and rounded
	// to two decimals. It is informational and deliberately ignores
	// the sequential depletion of the pot.
	Progress float64
}

// Message renders the user-facing status line for a record. Dashboard,
// CSV and PDF all call this instead of wording statuses themselves.
func (r PredictionRecord) Message() string {
	switch r.Status {
	case StatusAffordNow:
		return fmt.Sprintf("You can afford '%s' now!", r.Title)
	case StatusPredicted:
		return fmt.Sprintf("You can afford '%s' by %s.", r.Title, r.End.Format("02-01-2006"))
	case StatusNoRate:
		return fmt.Sprintf("You can't afford '%s' yet (no monthly savings).", r.Title)
	default:
		return fmt.Sprintf("'%s' has an invalid target amount.", r.Title)
	}
}

// PredictGoals produces an affordability forecast for each goal by
// greedily allocating the current savings pot in priority order and
// projecting forward at the constant monthly saving rate.
//
// Goals are processed sorted by (priority ascending, creation time
// ascending), with insertion order as the stable final tiebreak. The
// allocation is inherently sequential: money committed to an earlier
// goal is unavailable to a later one, and a later goal's saving window
// cannot open before the earlier goal resolves. The fold carries
// (pot, clock) across the ordered goals and emits one record per step.
//
// There are no error returns. Zero or negative rate, zero or negative
// savings, non-positive targets and an empty goal list are all valid
// inputs with defined outputs.
func PredictGoals(now time.Time, monthlySavingRate, currentSavings float64, goals []Goal) []PredictionRecord {
	if len(goals) == 0 {
		return []PredictionRecord{}
	}

	ordered := make([]Goal, len(goals))
	copy(ordered, goals)
	slices.SortStableFunc(ordered, func(a, b Goal) int {
		if a.Priority != b.Priority {
			return a.Priority - b.Priority
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	var (
		pot         = currentSavings
		clock       = now
		originalPot = currentSavings
	)

	records := make([]PredictionRecord, 0, len(ordered))
	for _, g := range ordered {
		target := g.Target.Amount()
		rec := PredictionRecord{
			GoalID:    g.ID,
			Title:     g.Title,
			Priority:  g.Priority,
			Target:    target,
			CreatedAt: g.CreatedAt,
			Start:     clock,
			Progress:  progressPercent(originalPot, target),
		}

		switch {
		case target <= 0:
			// Error state, not a crash: report it and leave pot and
			// clock untouched.
			end := clock
			rec.End = &end
			rec.Status = StatusInvalidTarget

		case pot >= target:
			end := clock
			rec.End = &end
			rec.Status = StatusAffordNow
			pot -= target

		case monthlySavingRate > 0:
			stillNeeded := target - pot
			months := stillNeeded / monthlySavingRate
			days := math.Max(1, months*avgMonthLength)
			end := clock.Add(time.Duration(days * 24 * float64(time.Hour)))
			rec.End = &end
			rec.Status = StatusPredicted
			pot = 0
			// Later goals wait until this one's money is saved.
			clock = end

		default:
			// No rate and not enough pot: duration is undefined, so
			// the clock holds its last valid position.
			rec.End = nil
			rec.Status = StatusNoRate
			pot = 0
		}

		records = append(records, rec)
	}
	return records
}

// progressPercent computes the informational lump-sum coverage of a
// goal: originalPot / target, clamped to [0, 100], two decimals.
func progressPercent(originalPot, target float64) float64 {
	if originalPot <= 0 {
		return 0
	}
	if target <= 0 {
		// Division is meaningless; a positive pot covers "all" of a
		// non-positive target.
		return 100
	}
	pct := originalPot / target * 100
	if pct > 100 {
		pct = 100
	}
	if pct < 0 {
		pct = 0
	}
	return math.Round(pct*100) / 100
}
