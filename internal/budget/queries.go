package budget

import (
	"sort"

	"github.com/theirongolddev/budgetplanner/internal/model"

	"github.com/shopspring/decimal"
)

// TotalIncome sums every income amount.
func TotalIncome(s State) decimal.Decimal {
	total := decimal.Zero
	for _, in := range s.Income {
		total = total.Add(in.Amount)
	}
	return total
}

// TotalExpenses sums every expense amount.
func TotalExpenses(s State) decimal.Decimal {
	total := decimal.Zero
	for _, e := range s.Expenses {
		total = total.Add(e.Amount)
	}
	return total
}

// RemainingBudget is income minus expenses. Negative means over budget.
func RemainingBudget(s State) decimal.Decimal {
	return TotalIncome(s).Sub(TotalExpenses(s))
}

// ExpensesByCategory sums expenses per category. Categories without any
// expense are absent, not zero.
func ExpensesByCategory(s State) map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal)
	for _, e := range s.Expenses {
		totals[e.Category] = totals[e.Category].Add(e.Amount)
	}
	return totals
}

// CategoryBreakdown returns ExpensesByCategory as a slice sorted by amount
// (largest first, ties by name) with each category's share of total spend.
func CategoryBreakdown(s State) []model.CategoryTotal {
	byCat := ExpensesByCategory(s)
	total := TotalExpenses(s)

	out := make([]model.CategoryTotal, 0, len(byCat))
	for cat, amt := range byCat {
		ct := model.CategoryTotal{Category: cat, Amount: amt}
		if total.IsPositive() {
			ct.Share = amt.Div(total).InexactFloat64()
		}
		out = append(out, ct)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// Summarize computes every derived figure in one pass over s.
func Summarize(s State) model.Summary {
	income := TotalIncome(s)
	expenses := TotalExpenses(s)
	remaining := income.Sub(expenses)

	saved, target := decimal.Zero, decimal.Zero
	for _, g := range s.SavingsGoals {
		saved = saved.Add(g.CurrentAmount)
		target = target.Add(g.TargetAmount)
	}

	return model.Summary{
		TotalIncome:     income,
		TotalExpenses:   expenses,
		RemainingBudget: remaining,
		OverBudget:      remaining.IsNegative(),
		IncomeCount:     len(s.Income),
		ExpenseCount:    len(s.Expenses),
		GoalCount:       len(s.SavingsGoals),
		TotalSaved:      saved,
		TotalTarget:     target,
		Categories:      CategoryBreakdown(s),
	}
}
