// Package theme defines color themes for the budget dashboard.
package theme

import "github.com/charmbracelet/lipgloss"

// Theme defines the color roles used throughout the TUI.
type Theme struct {
	Name          string
	Background    lipgloss.Color // Main app background
	Surface       lipgloss.Color // Card/panel backgrounds
	SurfaceHover  lipgloss.Color // Highlighted surface (active tab, selected row)
	SurfaceBright lipgloss.Color // Extra bright surface for emphasis
	Border        lipgloss.Color // Subtle borders
	BorderBright  lipgloss.Color // Prominent borders (cards, focus)
	BorderAccent  lipgloss.Color // Accent-colored borders for focus states
	TextDim       lipgloss.Color // Lowest contrast text (hints, disabled)
	TextMuted     lipgloss.Color // Secondary text (labels, metadata)
	TextPrimary   lipgloss.Color // Primary content text
	Accent        lipgloss.Color // Primary accent (links, active states)
	AccentBright  lipgloss.Color // Brighter accent for emphasis
	AccentDim     lipgloss.Color // Dimmed accent for backgrounds
	Green         lipgloss.Color
	GreenBright   lipgloss.Color
	Orange        lipgloss.Color
	Red           lipgloss.Color
	Blue          lipgloss.Color
	BlueBright    lipgloss.Color
	Yellow        lipgloss.Color
	Magenta       lipgloss.Color
	Cyan          lipgloss.Color
}

// Active is the currently selected theme.
var Active = FlexokiDark

// palette holds the base colors a Theme is derived from. Backgrounds run
// darkest first: bg, surface, hover, bright.
type palette struct {
	bg, surface, hover, bright string
	border, borderHi           string
	dim, muted, text           string
	accent, accentHi, accentLo string
	green, greenHi, orange     string
	red, blue, blueHi          string
	yellow, magenta, cyan      string
}

func newTheme(name string, p palette) Theme {
	c := func(s string) lipgloss.Color { return lipgloss.Color(s) }
	return Theme{
		Name:          name,
		Background:    c(p.bg),
		Surface:       c(p.surface),
		SurfaceHover:  c(p.hover),
		SurfaceBright: c(p.bright),
		Border:        c(p.border),
		BorderBright:  c(p.borderHi),
		BorderAccent:  c(p.accent),
		TextDim:       c(p.dim),
		TextMuted:     c(p.muted),
		TextPrimary:   c(p.text),
		Accent:        c(p.accent),
		AccentBright:  c(p.accentHi),
		AccentDim:     c(p.accentLo),
		Green:         c(p.green),
		GreenBright:   c(p.greenHi),
		Orange:        c(p.orange),
		Red:           c(p.red),
		Blue:          c(p.blue),
		BlueBright:    c(p.blueHi),
		Yellow:        c(p.yellow),
		Magenta:       c(p.magenta),
		Cyan:          c(p.cyan),
	}
}

// FlexokiDark is the default: warm paper tones on near-black.
var FlexokiDark = newTheme("flexoki-dark", palette{
	bg: "#100F0F", surface: "#1C1B1A", hover: "#282726", bright: "#343331",
	border: "#403E3C", borderHi: "#575653",
	dim: "#575653", muted: "#878580", text: "#FFFCF0",
	accent: "#3AA99F", accentHi: "#5BC8BE", accentLo: "#1A3533",
	green: "#879A39", greenHi: "#A3B859", orange: "#DA702C",
	red: "#D14D41", blue: "#4385BE", blueHi: "#6BA3D6",
	yellow: "#D0A215", magenta: "#CE5D97", cyan: "#24837B",
})

// Nord is a cool arctic theme.
var Nord = newTheme("nord", palette{
	bg: "#2E3440", surface: "#3B4252", hover: "#434C5E", bright: "#4C566A",
	border: "#4C566A", borderHi: "#616E88",
	dim: "#616E88", muted: "#D8DEE9", text: "#ECEFF4",
	accent: "#88C0D0", accentHi: "#A3D4E0", accentLo: "#34434F",
	green: "#A3BE8C", greenHi: "#B9D3A3", orange: "#D08770",
	red: "#BF616A", blue: "#81A1C1", blueHi: "#9DB8D6",
	yellow: "#EBCB8B", magenta: "#B48EAD", cyan: "#8FBCBB",
})

// GruvboxDark is a retro high-contrast theme with earthy colors.
var GruvboxDark = newTheme("gruvbox-dark", palette{
	bg: "#1D2021", surface: "#282828", hover: "#3C3836", bright: "#504945",
	border: "#504945", borderHi: "#665C54",
	dim: "#7C6F64", muted: "#A89984", text: "#EBDBB2",
	accent: "#83A598", accentHi: "#A1C2B6", accentLo: "#2B3533",
	green: "#98971A", greenHi: "#B8BB26", orange: "#FE8019",
	red: "#FB4934", blue: "#458588", blueHi: "#83A598",
	yellow: "#FABD2F", magenta: "#D3869B", cyan: "#8EC07C",
})

// Terminal sticks to the 16 ANSI colors.
var Terminal = newTheme("terminal", palette{
	bg: "0", surface: "0", hover: "8", bright: "8",
	border: "8", borderHi: "7",
	dim: "8", muted: "7", text: "15",
	accent: "6", accentHi: "14", accentLo: "0",
	green: "2", greenHi: "10", orange: "3",
	red: "1", blue: "4", blueHi: "12",
	yellow: "3", magenta: "5", cyan: "6",
})

// All available themes, in display order.
var All = []Theme{FlexokiDark, Nord, GruvboxDark, Terminal}

// Names lists the theme names in display order.
func Names() []string {
	names := make([]string, len(All))
	for i, t := range All {
		names[i] = t.Name
	}
	return names
}

// Valid reports whether name is a known theme.
func Valid(name string) bool {
	for _, t := range All {
		if t.Name == name {
			return true
		}
	}
	return false
}

// Income is the color for money coming in.
func (t Theme) Income() lipgloss.Color { return t.Green }

// Expense is the color for money going out.
func (t Theme) Expense() lipgloss.Color { return t.Orange }

// Balance picks the color for a remaining budget figure.
func (t Theme) Balance(overBudget bool) lipgloss.Color {
	if overBudget {
		return t.Red
	}
	return t.GreenBright
}

// GoalProgress picks the color for a savings goal at pct percent.
func (t Theme) GoalProgress(pct float64) lipgloss.Color {
	switch {
	case pct >= 100:
		return t.GreenBright
	case pct >= 50:
		return t.Accent
	default:
		return t.Yellow
	}
}

// ByName returns a theme by its name, defaulting to FlexokiDark.
func ByName(name string) Theme {
	for _, t := range All {
		if t.Name == name {
			return t
		}
	}
	return FlexokiDark
}

// SetActive sets the active theme by name.
func SetActive(name string) {
	Active = ByName(name)
}
