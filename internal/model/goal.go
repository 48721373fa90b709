package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// GoalStatus is the display bucket for a savings goal's progress.
type GoalStatus string

const (
	GoalComplete    GoalStatus = "Complete"
	GoalInProgress  GoalStatus = "In Progress"
	GoalJustStarted GoalStatus = "Just Started"
)

var hundred = decimal.NewFromInt(100)

// SavingsGoal tracks progress toward a target amount by a deadline.
// CurrentAmount may exceed TargetAmount; only the display percentage is clamped.
type SavingsGoal struct {
	ID            int64
	Name          string
	TargetAmount  decimal.Decimal
	CurrentAmount decimal.Decimal
	Deadline      time.Time
}

// Percent returns progress as a percentage in [0, 100].
// A non-positive target is treated as 1 so the ratio stays defined.
func (g SavingsGoal) Percent() decimal.Decimal {
	target := g.TargetAmount
	if !target.IsPositive() {
		target = decimal.NewFromInt(1)
	}
	pct := g.CurrentAmount.Div(target).Mul(hundred)
	if pct.GreaterThan(hundred) {
		return hundred
	}
	if pct.IsNegative() {
		return decimal.Zero
	}
	return pct
}

// Progress returns Percent as a 0.0-1.0 fraction for bar rendering.
func (g SavingsGoal) Progress() float64 {
	return g.Percent().Div(hundred).InexactFloat64()
}

// Status buckets the goal by how far along it is.
func (g SavingsGoal) Status() GoalStatus {
	pct := g.Percent()
	switch {
	case pct.GreaterThanOrEqual(hundred):
		return GoalComplete
	case pct.GreaterThanOrEqual(decimal.NewFromInt(50)):
		return GoalInProgress
	default:
		return GoalJustStarted
	}
}

// Remaining is how much is still needed to reach the target, never negative.
func (g SavingsGoal) Remaining() decimal.Decimal {
	rem := g.TargetAmount.Sub(g.CurrentAmount)
	if rem.IsNegative() {
		return decimal.Zero
	}
	return rem
}
