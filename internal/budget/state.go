// Package budget is the budget state manager: it owns the income, expense and
// savings-goal collections for a session, mediates every mutation through the
// remote service, and answers derived queries over the current state.
package budget

import (
	"slices"

	"github.com/theirongolddev/budgetplanner/internal/model"

	"github.com/shopspring/decimal"
)

// State is the collection state for one session.
type State struct {
	Income       []model.Income
	Expenses     []model.Expense
	SavingsGoals []model.SavingsGoal
	Loading      bool
	Categories   []string
}

// NewState returns the empty state a session starts with.
func NewState() State {
	return State{
		Income:       []model.Income{},
		Expenses:     []model.Expense{},
		SavingsGoals: []model.SavingsGoal{},
		Categories:   slices.Clone(model.Categories),
	}
}

// Clone returns a copy whose slices do not alias s.
func (s State) Clone() State {
	return State{
		Income:       slices.Clone(s.Income),
		Expenses:     slices.Clone(s.Expenses),
		SavingsGoals: slices.Clone(s.SavingsGoals),
		Loading:      s.Loading,
		Categories:   slices.Clone(s.Categories),
	}
}

// Command is one state transition. The set is closed: only the types in this
// file implement it.
type Command interface {
	command()
}

// SetLoading sets the loading flag.
type SetLoading struct{ Loading bool }

// ReplaceAll swaps in freshly loaded collections. Nil slices become empty.
type ReplaceAll struct {
	Income       []model.Income
	Expenses     []model.Expense
	SavingsGoals []model.SavingsGoal
}

// AppendIncome adds a created income entry.
type AppendIncome struct{ Income model.Income }

// AppendExpense adds a created expense entry.
type AppendExpense struct{ Expense model.Expense }

// AppendSavingsGoal adds a created savings goal.
type AppendSavingsGoal struct{ Goal model.SavingsGoal }

// RemoveIncome drops every income entry with the given id.
type RemoveIncome struct{ ID int64 }

// RemoveExpense drops every expense entry with the given id.
type RemoveExpense struct{ ID int64 }

// RemoveSavingsGoal drops every savings goal with the given id.
type RemoveSavingsGoal struct{ ID int64 }

// AddToSavingsGoal adds Delta to the current amount of the goal with the given id.
type AddToSavingsGoal struct {
	ID    int64
	Delta decimal.Decimal
}

// Reset returns to the empty state.
type Reset struct{}

func (SetLoading) command()        {}
func (ReplaceAll) command()        {}
func (AppendIncome) command()      {}
func (AppendExpense) command()     {}
func (AppendSavingsGoal) command() {}
func (RemoveIncome) command()      {}
func (RemoveExpense) command()     {}
func (RemoveSavingsGoal) command() {}
func (AddToSavingsGoal) command()  {}
func (Reset) command()             {}

// Apply folds one command over s and returns the new state. It never mutates
// the slices of s, so a State handed out earlier stays valid.
func Apply(s State, cmd Command) State {
	switch c := cmd.(type) {
	case SetLoading:
		s.Loading = c.Loading
	case ReplaceAll:
		s.Income = nonNil(slices.Clone(c.Income))
		s.Expenses = nonNil(slices.Clone(c.Expenses))
		s.SavingsGoals = nonNil(slices.Clone(c.SavingsGoals))
	case AppendIncome:
		s.Income = appended(s.Income, c.Income)
	case AppendExpense:
		s.Expenses = appended(s.Expenses, c.Expense)
	case AppendSavingsGoal:
		s.SavingsGoals = appended(s.SavingsGoals, c.Goal)
	case RemoveIncome:
		s.Income = without(s.Income, func(in model.Income) bool { return in.ID == c.ID })
	case RemoveExpense:
		s.Expenses = without(s.Expenses, func(e model.Expense) bool { return e.ID == c.ID })
	case RemoveSavingsGoal:
		s.SavingsGoals = without(s.SavingsGoals, func(g model.SavingsGoal) bool { return g.ID == c.ID })
	case AddToSavingsGoal:
		goals := make([]model.SavingsGoal, len(s.SavingsGoals))
		for i, g := range s.SavingsGoals {
			if g.ID == c.ID {
				g.CurrentAmount = g.CurrentAmount.Add(c.Delta)
			}
			goals[i] = g
		}
		s.SavingsGoals = goals
	case Reset:
		return NewState()
	}
	return s
}

func appended[T any](xs []T, x T) []T {
	out := make([]T, len(xs), len(xs)+1)
	copy(out, xs)
	return append(out, x)
}

func without[T any](xs []T, match func(T) bool) []T {
	out := make([]T, 0, len(xs))
	for _, x := range xs {
		if !match(x) {
			out = append(out, x)
		}
	}
	return out
}

func nonNil[T any](xs []T) []T {
	if xs == nil {
		return []T{}
	}
	return xs
}
