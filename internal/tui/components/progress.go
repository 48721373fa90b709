package components

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/budgetplanner/internal/tui/theme"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// ProgressBar renders a block progress bar for a 0-1 fraction with a
// percentage suffix. The loading screen uses it.
func ProgressBar(frac float64, width int) string {
	t := theme.Active
	frac = min(max(frac, 0), 1)
	filled := int(frac * float64(width))

	filledStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)
	emptyStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	pctStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)

	var b strings.Builder
	b.WriteString(filledStyle.Render(strings.Repeat("█", filled)))
	b.WriteString(emptyStyle.Render(strings.Repeat("░", width-filled)))
	b.WriteString(pctStyle.Render(fmt.Sprintf(" %.0f%%", frac*100)))
	return b.String()
}

// GoalBar renders a labelled savings-goal bar for a 0-100 percentage, colored
// by how far along the goal is.
func GoalBar(label string, pct float64, labelW, barWidth int) string {
	t := theme.Active
	pct = min(max(pct, 0), 100)
	color := t.GoalProgress(pct)

	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(max(barWidth, 4)),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	pctStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface).Bold(true)
	space := lipgloss.NewStyle().Background(t.Surface).Render(" ")

	return labelStyle.Render(fmt.Sprintf("%-*s", labelW, truncate(label, labelW))) +
		space +
		bar.ViewAs(pct/100) +
		space +
		pctStyle.Render(fmt.Sprintf("%5.1f%%", pct))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
