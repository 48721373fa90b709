package cli

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/budgetplanner/internal/model"

	"github.com/charmbracelet/lipgloss"
)

// Theme colors (Flexoki Dark)
var (
	ColorBorder    = lipgloss.Color("#282726")
	ColorTextDim   = lipgloss.Color("#575653")
	ColorTextMuted = lipgloss.Color("#6F6E69")
	ColorText      = lipgloss.Color("#FFFCF0")
	ColorAccent    = lipgloss.Color("#3AA99F")
	ColorGreen     = lipgloss.Color("#879A39")
	ColorOrange    = lipgloss.Color("#DA702C")
	ColorRed       = lipgloss.Color("#D14D41")
	ColorBlue      = lipgloss.Color("#4385BE")
	ColorYellow    = lipgloss.Color("#D0A215")
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText).
			Align(lipgloss.Center)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent)

	valueStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	mutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	goodStyle = lipgloss.NewStyle().
			Foreground(ColorGreen)

	warnStyle = lipgloss.NewStyle().
			Foreground(ColorOrange)

	badStyle = lipgloss.NewStyle().
			Foreground(ColorRed)

	dimStyle = lipgloss.NewStyle().
			Foreground(ColorTextDim)
)

// Table represents a bordered text table for CLI output.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	// LeftCols is how many leading columns are left-aligned; the rest are
	// right-aligned. Zero means one.
	LeftCols int
	Widths   []int // optional column widths, auto-calculated if nil
}

// RenderTitle renders a centered title bar in a bordered box.
func RenderTitle(title string) string {
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Width(55).
		Align(lipgloss.Center).
		Padding(0, 1)

	return border.Render(titleStyle.Render(title))
}

// RenderTable renders a bordered table with headers and rows. A row holding
// the single cell "---" renders as a separator.
func RenderTable(t Table) string {
	if len(t.Rows) == 0 && len(t.Headers) == 0 {
		return ""
	}

	numCols := len(t.Headers)
	if numCols == 0 {
		numCols = len(t.Rows[0])
	}
	left := t.LeftCols
	if left <= 0 {
		left = 1
	}

	widths := make([]int, numCols)
	if t.Widths != nil {
		copy(widths, t.Widths)
	} else {
		for i, h := range t.Headers {
			widths[i] = max(widths[i], lipgloss.Width(h))
		}
		for _, row := range t.Rows {
			for i, cell := range row {
				if i < numCols {
					widths[i] = max(widths[i], lipgloss.Width(cell))
				}
			}
		}
	}

	rule := func(l, mid, r string) string {
		var b strings.Builder
		b.WriteString(l)
		for i, w := range widths {
			b.WriteString(strings.Repeat("─", w+2))
			if i < numCols-1 {
				b.WriteString(mid)
			}
		}
		b.WriteString(r)
		return dimStyle.Render(b.String()) + "\n"
	}
	sep := dimStyle.Render("│")

	var b strings.Builder
	if t.Title != "" {
		b.WriteString("  ")
		b.WriteString(headerStyle.Render(t.Title))
		b.WriteString("\n")
	}

	b.WriteString(rule("╭", "┬", "╮"))

	if len(t.Headers) > 0 {
		b.WriteString(sep)
		for i, h := range t.Headers {
			b.WriteString(headerStyle.Render(" " + pad(h, widths[i], i >= left) + " "))
			if i < numCols-1 {
				b.WriteString(sep)
			}
		}
		b.WriteString(sep + "\n")
		b.WriteString(rule("├", "┼", "┤"))
	}

	for _, row := range t.Rows {
		if len(row) == 1 && row[0] == "---" {
			b.WriteString(rule("├", "┼", "┤"))
			continue
		}
		b.WriteString(sep)
		for i := 0; i < numCols; i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			b.WriteString(valueStyle.Render(" " + pad(cell, widths[i], i >= left) + " "))
			if i < numCols-1 {
				b.WriteString(sep)
			}
		}
		b.WriteString(sep + "\n")
	}

	b.WriteString(rule("╰", "┴", "╯"))
	return b.String()
}

func pad(s string, w int, right bool) string {
	gap := w - lipgloss.Width(s)
	if gap <= 0 {
		return s
	}
	if right {
		return strings.Repeat(" ", gap) + s
	}
	return s + strings.Repeat(" ", gap)
}

// RenderProgressBar renders a goal progress bar for a 0-100 percentage.
func RenderProgressBar(pct float64, width int) string {
	if width <= 0 {
		return ""
	}
	pct = min(max(pct, 0), 100)
	filled := int(pct / 100 * float64(width))

	style := warnStyle
	switch {
	case pct >= 100:
		style = goodStyle
	case pct >= 50:
		style = lipgloss.NewStyle().Foreground(ColorBlue)
	}
	bar := style.Render(strings.Repeat("█", filled)) + dimStyle.Render(strings.Repeat("░", width-filled))
	return fmt.Sprintf("[%s] %s", bar, FormatPercent(pct))
}

// RenderHorizontalBar renders one labelled row of a bar chart.
func RenderHorizontalBar(label string, value, maxValue float64, labelWidth, maxWidth int) string {
	barLen := 0
	if maxValue > 0 && value > 0 {
		barLen = int(value / maxValue * float64(maxWidth))
	}
	if value > 0 && barLen == 0 {
		barLen = 1
	}
	return fmt.Sprintf("  %s %s", pad(Truncate(label, labelWidth), labelWidth, false),
		lipgloss.NewStyle().Foreground(ColorAccent).Render(strings.Repeat("█", barLen)))
}

// RenderCategoryChart renders expense totals per category as horizontal bars
// with amount and share.
func RenderCategoryChart(cats []model.CategoryTotal, width int) string {
	if len(cats) == 0 {
		return mutedStyle.Render("  No expenses recorded.") + "\n"
	}
	labelW := 0
	for _, c := range cats {
		labelW = max(labelW, lipgloss.Width(c.Category))
	}
	labelW = min(labelW, 22)
	maxVal := cats[0].Amount.InexactFloat64()
	for _, c := range cats {
		maxVal = max(maxVal, c.Amount.InexactFloat64())
	}

	var b strings.Builder
	for _, c := range cats {
		b.WriteString(RenderHorizontalBar(c.Category, c.Amount.InexactFloat64(), maxVal, labelW, width))
		b.WriteString("  ")
		b.WriteString(mutedStyle.Render(FormatMoney(c.Amount) + " (" + FormatShare(c.Share) + ")"))
		b.WriteString("\n")
	}
	return b.String()
}

// RenderSummary renders the headline figures of a budget summary.
func RenderSummary(s model.Summary) string {
	remaining := goodStyle
	if s.OverBudget {
		remaining = badStyle
	}
	rows := []struct {
		label string
		value string
	}{
		{"Total income", goodStyle.Render(FormatMoney(s.TotalIncome))},
		{"Total expenses", warnStyle.Render(FormatMoney(s.TotalExpenses))},
		{"Remaining budget", remaining.Render(FormatMoney(s.RemainingBudget))},
		{"Saved toward goals", valueStyle.Render(FormatMoney(s.TotalSaved) + " of " + FormatMoney(s.TotalTarget))},
	}

	var b strings.Builder
	for _, r := range rows {
		b.WriteString("  ")
		b.WriteString(mutedStyle.Render(pad(r.label, 20, false)))
		b.WriteString(r.value)
		b.WriteString("\n")
	}
	if s.OverBudget {
		b.WriteString("  ")
		b.WriteString(badStyle.Render("Over budget: expenses exceed income."))
		b.WriteString("\n")
	}
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %d income, %d expenses, %d goals",
		s.IncomeCount, s.ExpenseCount, s.GoalCount)))
	b.WriteString("\n")
	return b.String()
}
