package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/budgetplanner/internal/cli"
	"github.com/theirongolddev/budgetplanner/internal/model"
	"github.com/theirongolddev/budgetplanner/internal/tui/components"
	"github.com/theirongolddev/budgetplanner/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

const trendMonths = 6

func (a App) renderOverviewTab(cw int) string {
	t := theme.Active
	s := a.summary
	var b strings.Builder

	saved := "no goals"
	if s.GoalCount > 0 {
		saved = "of " + cli.FormatMoney(s.TotalTarget)
	}
	remainingNote := "within budget"
	if s.OverBudget {
		remainingNote = "over budget"
	}

	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Income", Value: cli.FormatMoney(s.TotalIncome), Note: plural(s.IncomeCount, "entry", "entries"), Color: t.Income()},
		{Label: "Expenses", Value: cli.FormatMoney(s.TotalExpenses), Note: plural(s.ExpenseCount, "entry", "entries"), Color: t.Expense()},
		{Label: "Remaining", Value: cli.FormatMoney(s.RemainingBudget), Note: remainingNote, Color: t.Balance(s.OverBudget)},
		{Label: "Saved", Value: cli.FormatMoney(s.TotalSaved), Note: saved, Color: t.AccentBright},
	}, cw))
	b.WriteString("\n")

	widths := components.LayoutRow(cw, 2)
	b.WriteString(components.CardRow([]string{
		components.ContentCard("Spending by Category", a.categoryChart(components.CardInnerWidth(widths[0])), widths[0]),
		components.ContentCard("Savings Goals", a.goalBars(components.CardInnerWidth(widths[1]), 6), widths[1]),
	}))
	b.WriteString("\n")

	values, labels := monthlyExpenses(a.state.Expenses, model.Today(), trendMonths)
	innerW := components.CardInnerWidth(cw)
	b.WriteString(components.ContentCard(
		fmt.Sprintf("Expenses, last %d months", trendMonths),
		components.ColumnChart(values, labels, t.Expense(), innerW, 6),
		cw,
	))

	return b.String()
}

func (a App) categoryChart(w int) string {
	t := theme.Active
	if len(a.summary.Categories) == 0 {
		return lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Render("No expenses recorded.")
	}
	bars := make([]components.Bar, 0, len(a.summary.Categories))
	for _, c := range a.summary.Categories {
		bars = append(bars, components.Bar{
			Label: c.Category,
			Value: c.Amount.InexactFloat64(),
			Note:  cli.FormatMoney(c.Amount) + " " + cli.FormatShare(c.Share),
		})
	}
	return components.HBarChart(bars, t.Expense(), w)
}

func (a App) goalBars(w, limit int) string {
	t := theme.Active
	goals := a.state.SavingsGoals
	if len(goals) == 0 {
		return lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Render("No savings goals yet. Press g then a to add one.")
	}

	labelW := 0
	for _, g := range goals {
		labelW = max(labelW, lipgloss.Width(g.Name))
	}
	labelW = min(labelW, max(w/3, 8))
	barW := max(w-labelW-8, 10)

	lines := make([]string, 0, min(len(goals), limit)+1)
	for i, g := range goals {
		if i == limit {
			more := fmt.Sprintf("+%d more", len(goals)-limit)
			lines = append(lines, lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Render(more))
			break
		}
		lines = append(lines, components.GoalBar(g.Name, g.Percent().InexactFloat64(), labelW, barW))
	}
	return strings.Join(lines, "\n")
}

// monthlyExpenses sums expenses per calendar month for the n months ending
// with now's month, oldest first.
func monthlyExpenses(expenses []model.Expense, now time.Time, n int) ([]float64, []string) {
	values := make([]float64, n)
	labels := make([]string, n)
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(n - 1), 0)
	for i := range n {
		labels[i] = first.AddDate(0, i, 0).Format("Jan")
	}
	for _, e := range expenses {
		if e.Date.IsZero() {
			continue
		}
		idx := (e.Date.Year()-first.Year())*12 + int(e.Date.Month()) - int(first.Month())
		if idx >= 0 && idx < n {
			values[idx] += e.Amount.InexactFloat64()
		}
	}
	return values, labels
}

func plural(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return fmt.Sprintf("%d %s", n, many)
}
