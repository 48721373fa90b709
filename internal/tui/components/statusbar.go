package components

import (
	"strings"

	"github.com/theirongolddev/budgetplanner/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// StatusInfo is what the bottom bar shows.
type StatusInfo struct {
	User        string
	Flash       string
	FlashIsErr  bool
	DataAge     string
	Refreshing  bool
	AutoRefresh bool
}

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, info StatusInfo) string {
	t := theme.Active

	base := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	accent := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)

	left := base.Render(" [?]help  [q]uit")
	if info.User != "" {
		left += base.Render("  │  ") + accent.Render(info.User)
	}
	if info.Flash != "" {
		color := t.GreenBright
		if info.FlashIsErr {
			color = t.Red
		}
		left += base.Render("  │  ") + lipgloss.NewStyle().Foreground(color).Background(t.Surface).Render(info.Flash)
	}

	var right []string
	switch {
	case info.Refreshing:
		right = append(right, accent.Render("↻ refreshing"))
	case info.AutoRefresh:
		right = append(right, base.Render("auto"))
	}
	if info.DataAge != "" {
		right = append(right, base.Render("Data: "+info.DataAge))
	}
	rightStr := strings.Join(right, base.Render("  ")) + base.Render(" ")

	gap := max(width-lipgloss.Width(left)-lipgloss.Width(rightStr), 0)
	return left + base.Render(strings.Repeat(" ", gap)) + rightStr
}
