package stats

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"moneyflow/internal/core"
)

// Urgency buckets the days remaining before a goal deadline.
type Urgency string

const (
	UrgencyNone     Urgency = ""
	UrgencyNormal   Urgency = "normal"
	UrgencyWarning  Urgency = "warning"
	UrgencyCritical Urgency = "critical"
)

type (
	// GoalView is a goal with its derived progress figures.
	GoalView struct {
		core.Goal
		Progress    decimal.Decimal
		Remaining   core.Money
		DaysLeft    int
		HasDeadline bool
		Urgency     Urgency
	}

	GoalSummary struct {
		Count        int
		TotalTarget  core.Money
		TotalCurrent core.Money
		Progress     decimal.Decimal
		Completed    int
	}
)

// Progress returns current/target in percent. It is not clamped, so an
// overfunded goal reports more than 100.
func Progress(g core.Goal) decimal.Decimal {
	return percent(g.Current, g.Target)
}

func percent(part, whole core.Money) decimal.Decimal {
	if whole.Cents <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(part.Cents).Mul(hundred).
		Div(decimal.NewFromInt(whole.Cents)).
		Round(2)
}

// DaysLeft counts whole days until the deadline, rounding partial days up
// and never going below zero. ok is false when there is no deadline.
func DaysLeft(deadline core.Date, now time.Time) (days int, ok bool) {
	if deadline.IsZero() {
		return 0, false
	}
	diff := deadline.Sub(now)
	if diff <= 0 {
		return 0, true
	}
	return int(math.Ceil(diff.Hours() / 24)), true
}

func UrgencyFor(days int) Urgency {
	switch {
	case days <= 7:
		return UrgencyCritical
	case days <= 30:
		return UrgencyWarning
	}
	return UrgencyNormal
}

// ProgressWidth clamps the progress percentage into [0, 100] for bars.
func (v GoalView) ProgressWidth() int {
	p := v.Progress.IntPart()
	return int(min(max(p, 0), 100))
}

func ViewGoal(g core.Goal, now time.Time) GoalView {
	v := GoalView{Goal: g, Progress: Progress(g)}
	if g.Target.Cents > g.Current.Cents {
		v.Remaining = g.Target.Sub(g.Current)
	}
	v.DaysLeft, v.HasDeadline = DaysLeft(g.Deadline, now)
	if v.HasDeadline {
		v.Urgency = UrgencyFor(v.DaysLeft)
	}
	return v
}

func ViewGoals(goals []core.Goal, now time.Time) []GoalView {
	out := make([]GoalView, len(goals))
	for i, g := range goals {
		out[i] = ViewGoal(g, now)
	}
	return out
}

// SummarizeGoals totals targets and savings across goals.
func SummarizeGoals(goals []core.Goal) GoalSummary {
	s := GoalSummary{Count: len(goals)}
	for _, g := range goals {
		s.TotalTarget = s.TotalTarget.Add(g.Target)
		s.TotalCurrent = s.TotalCurrent.Add(g.Current)
		if g.Reached() {
			s.Completed++
		}
	}
	s.Progress = percent(s.TotalCurrent, s.TotalTarget)
	return s
}
