package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/budgetplanner/internal/cli"
	"github.com/theirongolddev/budgetplanner/internal/model"
	"github.com/theirongolddev/budgetplanner/internal/tui/components"
	"github.com/theirongolddev/budgetplanner/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// column is one table column; width 0 means it absorbs the leftover space.
type column struct {
	title string
	width int
	right bool
}

func (a App) renderIncomeTab(cw, h int) string {
	cols := []column{
		{title: "Source"},
		{title: "Frequency", width: 10},
		{title: "Date", width: 10},
		{title: "Amount", width: 14, right: true},
	}
	rows := make([][]string, len(a.state.Income))
	for i, in := range a.state.Income {
		rows[i] = []string{in.Source, string(in.Frequency), cli.FormatDate(in.Date), cli.FormatMoney(in.Amount)}
	}
	title := fmt.Sprintf("Income · %s total", cli.FormatMoney(a.summary.TotalIncome))
	return a.renderList(title, cols, rows, a.cursors[0], cw, h, "[a] add  [d] delete  [j/k] select")
}

func (a App) renderExpensesTab(cw, h int) string {
	cols := []column{
		{title: "Description"},
		{title: "Category", width: 17},
		{title: "Date", width: 10},
		{title: "Amount", width: 14, right: true},
	}
	rows := make([][]string, len(a.state.Expenses))
	for i, e := range a.state.Expenses {
		rows[i] = []string{e.Description, e.Category, cli.FormatDate(e.Date), cli.FormatMoney(e.Amount)}
	}
	title := fmt.Sprintf("Expenses · %s total", cli.FormatMoney(a.summary.TotalExpenses))
	return a.renderList(title, cols, rows, a.cursors[1], cw, h, "[a] add  [d] delete  [j/k] select")
}

func (a App) renderGoalsTab(cw, h int) string {
	cols := []column{
		{title: "Goal"},
		{title: "Saved", width: 13, right: true},
		{title: "Target", width: 13, right: true},
		{title: "Progress", width: 8, right: true},
		{title: "Deadline", width: 14},
	}
	today := model.Today()
	rows := make([][]string, len(a.state.SavingsGoals))
	for i, g := range a.state.SavingsGoals {
		rows[i] = []string{
			g.Name,
			cli.FormatMoney(g.CurrentAmount),
			cli.FormatMoney(g.TargetAmount),
			cli.FormatPercent(g.Percent().InexactFloat64()),
			cli.FormatDeadline(g.Deadline, today),
		}
	}
	title := fmt.Sprintf("Savings Goals · %s of %s", cli.FormatMoney(a.summary.TotalSaved), cli.FormatMoney(a.summary.TotalTarget))
	list := a.renderList(title, cols, rows, a.cursors[2], cw, h-detailCardHeight, "[a] add  [+] deposit  [d] delete  [j/k] select")

	if c := a.cursors[2]; c < len(a.state.SavingsGoals) {
		list += "\n" + goalDetail(a.state.SavingsGoals[c], cw)
	}
	return list
}

const detailCardHeight = 5

func goalDetail(g model.SavingsGoal, cw int) string {
	t := theme.Active
	innerW := components.CardInnerWidth(cw)
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	body := components.GoalBar(string(g.Status()), g.Percent().InexactFloat64(), 12, max(innerW-20, 10)) + "\n" +
		muted.Render(fmt.Sprintf("%s to go · %s", cli.FormatMoney(g.Remaining()), cli.FormatDeadline(g.Deadline, model.Today())))
	return components.ContentCard(g.Name, body, cw)
}

// renderList draws a titled table with a highlighted cursor row, scrolling
// so the cursor stays visible within h lines.
func (a App) renderList(title string, cols []column, rows [][]string, cursor, cw, h int, hint string) string {
	t := theme.Active
	innerW := components.CardInnerWidth(cw)

	headerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	markerStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceBright)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	widths := fitColumns(cols, innerW-2)

	var b strings.Builder
	b.WriteString(spaceStyle.Render("  "))
	b.WriteString(headerStyle.Render(formatRow(cols, widths, columnTitles(cols))))
	b.WriteString("\n")

	if len(rows) == 0 {
		b.WriteString(dimStyle.Render("  Nothing here yet. Press a to add an entry."))
		b.WriteString("\n\n")
		b.WriteString(dimStyle.Render(hint))
		return components.ContentCard(title, b.String(), cw)
	}

	// card border, title, header, blank and hint lines
	visible := max(h-6, 1)
	offset := 0
	if cursor >= visible {
		offset = cursor - visible + 1
	}
	end := min(offset+visible, len(rows))

	for i := offset; i < end; i++ {
		line := formatRow(cols, widths, rows[i])
		if i == cursor {
			b.WriteString(markerStyle.Render("▸ "))
			b.WriteString(selStyle.Render(line))
		} else {
			b.WriteString(spaceStyle.Render("  "))
			b.WriteString(rowStyle.Render(line))
		}
		b.WriteString("\n")
	}

	footer := hint
	if len(rows) > visible {
		footer = fmt.Sprintf("%d-%d of %d  %s", offset+1, end, len(rows), hint)
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(footer))
	return components.ContentCard(title, b.String(), cw)
}

// fitColumns gives fixed columns their width and splits what is left among
// the flexible ones, with one space between columns.
func fitColumns(cols []column, total int) []int {
	widths := make([]int, len(cols))
	used, flex := len(cols)-1, 0
	for i, c := range cols {
		if c.width == 0 {
			flex++
			continue
		}
		widths[i] = c.width
		used += c.width
	}
	if flex == 0 {
		return widths
	}
	share := max((total-used)/flex, 8)
	for i, c := range cols {
		if c.width == 0 {
			widths[i] = share
		}
	}
	return widths
}

func formatRow(cols []column, widths []int, cells []string) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		cell := ""
		if i < len(cells) {
			cell = cli.Truncate(cells[i], widths[i])
		}
		if c.right {
			parts[i] = fmt.Sprintf("%*s", widths[i], cell)
		} else {
			parts[i] = fmt.Sprintf("%-*s", widths[i], cell)
		}
	}
	return strings.Join(parts, " ")
}

func columnTitles(cols []column) []string {
	titles := make([]string, len(cols))
	for i, c := range cols {
		titles[i] = c.title
	}
	return titles
}
