package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/theirongolddev/budgetplanner/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// Bar is one row of a horizontal bar chart.
type Bar struct {
	Label string
	Value float64
	Note  string
}

// HBarChart renders labelled horizontal bars scaled to the largest value.
// Every positive value gets at least one cell.
func HBarChart(bars []Bar, color lipgloss.Color, width int) string {
	if len(bars) == 0 {
		return ""
	}
	t := theme.Active

	labelW, noteW := 0, 0
	peak := 0.0
	for _, b := range bars {
		labelW = max(labelW, lipgloss.Width(b.Label))
		noteW = max(noteW, lipgloss.Width(b.Note))
		peak = max(peak, b.Value)
	}
	labelW = min(labelW, 20)
	barW := max(width-labelW-noteW-3, 5)
	if peak <= 0 {
		peak = 1
	}

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	barStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface)
	noteStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	space := lipgloss.NewStyle().Background(t.Surface)

	lines := make([]string, len(bars))
	for i, b := range bars {
		n := int(math.Round(b.Value / peak * float64(barW)))
		if b.Value > 0 && n == 0 {
			n = 1
		}
		n = min(n, barW)
		lines[i] = labelStyle.Render(fmt.Sprintf("%-*s", labelW, truncate(b.Label, labelW))) +
			space.Render(" ") +
			barStyle.Render(strings.Repeat("█", n)) +
			space.Render(strings.Repeat(" ", barW-n+1)) +
			noteStyle.Render(fmt.Sprintf("%*s", noteW, b.Note))
	}
	return strings.Join(lines, "\n")
}

// ColumnChart renders vertical columns with labels under each, as used for
// month-by-month totals. height is the number of rows above the axis.
func ColumnChart(values []float64, labels []string, color lipgloss.Color, width, height int) string {
	n := len(values)
	if n == 0 || height < 1 {
		return ""
	}
	t := theme.Active

	peak := 0.0
	for _, v := range values {
		peak = max(peak, v)
	}
	if peak <= 0 {
		peak = 1
	}

	colW := max(min((width-n)/n, 7), 1)
	blocks := []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	barStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface)
	axisStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	space := lipgloss.NewStyle().Background(t.Surface)

	var b strings.Builder
	for row := height; row >= 1; row-- {
		for i, v := range values {
			if i > 0 {
				b.WriteString(space.Render(" "))
			}
			// eighths of a cell filled at this row
			level := v / peak * float64(height) * 8
			fill := int(math.Round(level)) - (row-1)*8
			switch {
			case fill >= 8:
				b.WriteString(barStyle.Render(strings.Repeat("█", colW)))
			case fill > 0:
				b.WriteString(barStyle.Render(strings.Repeat(string(blocks[fill]), colW)))
			default:
				b.WriteString(space.Render(strings.Repeat(" ", colW)))
			}
		}
		b.WriteString("\n")
	}

	axisLen := n*colW + n - 1
	b.WriteString(axisStyle.Render(strings.Repeat("─", axisLen)))
	if len(labels) == n {
		b.WriteString("\n")
		for i, l := range labels {
			if i > 0 {
				b.WriteString(space.Render(" "))
			}
			b.WriteString(axisStyle.Render(fmt.Sprintf("%-*s", colW, truncate(l, colW))))
		}
	}
	return b.String()
}
