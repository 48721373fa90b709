package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/theirongolddev/budgetplanner/internal/cli"
	"github.com/theirongolddev/budgetplanner/internal/config"
	"github.com/theirongolddev/budgetplanner/internal/tui/components"
	"github.com/theirongolddev/budgetplanner/internal/tui/theme"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Settings rows, in display order.
const (
	settingsFieldServerURL = iota
	settingsFieldTheme
	settingsFieldAutoRefresh
	settingsFieldRefreshInterval
	settingsFieldCount
)

const (
	minRefreshSec   = 10
	settingsLabelW  = 18
	settingsInputW  = 50
	settingsMaxChar = 256
)

type settingsState struct {
	cursor  int
	editing bool
	input   textinput.Model
	saved   bool
	saveErr error
	invalid string // rejection message, cleared on the next edit
}

// settingsField describes one editable row. apply validates raw and writes
// it into cfg and the live app.
type settingsField struct {
	label       string
	placeholder func() string
	current     func(a *App) string
	display     func(a *App) string
	apply       func(a *App, cfg *config.Config, raw string) error
}

var settingsFields = [settingsFieldCount]settingsField{
	settingsFieldServerURL: {
		label:       "Server URL",
		placeholder: func() string { return config.DefaultServerURL },
		current:     func(a *App) string { return a.cfg.Server.BaseURL },
		display:     func(a *App) string { return a.cfg.Server.BaseURL + " (applies on restart)" },
		apply: func(_ *App, cfg *config.Config, raw string) error {
			if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
				return errors.New("server URL must start with http:// or https://")
			}
			cfg.Server.BaseURL = strings.TrimRight(raw, "/")
			return nil
		},
	},
	settingsFieldTheme: {
		label:       "Theme",
		placeholder: func() string { return strings.Join(theme.Names(), ", ") },
		current:     func(a *App) string { return a.cfg.Appearance.Theme },
		apply: func(_ *App, cfg *config.Config, raw string) error {
			if !theme.Valid(raw) {
				return fmt.Errorf("unknown theme %q", raw)
			}
			cfg.Appearance.Theme = raw
			theme.SetActive(raw)
			return nil
		},
	},
	settingsFieldAutoRefresh: {
		label:       "Auto Refresh",
		placeholder: func() string { return "true or false" },
		current:     func(a *App) string { return strconv.FormatBool(a.autoRefresh) },
		apply: func(a *App, cfg *config.Config, raw string) error {
			on, err := strconv.ParseBool(raw)
			if err != nil {
				return errors.New("auto refresh must be true or false")
			}
			cfg.TUI.AutoRefresh = on
			a.autoRefresh = on
			return nil
		},
	},
	settingsFieldRefreshInterval: {
		label:       "Refresh Interval",
		placeholder: func() string { return fmt.Sprintf("seconds, minimum %d", minRefreshSec) },
		current:     func(a *App) string { return strconv.Itoa(int(a.refreshInterval.Seconds())) },
		display:     func(a *App) string { return fmt.Sprintf("%ds", int(a.refreshInterval.Seconds())) },
		apply: func(a *App, cfg *config.Config, raw string) error {
			sec, err := strconv.Atoi(raw)
			if err != nil || sec < minRefreshSec {
				return fmt.Errorf("refresh interval must be a whole number of seconds >= %d", minRefreshSec)
			}
			cfg.TUI.RefreshIntervalSec = sec
			a.refreshInterval = time.Duration(sec) * time.Second
			return nil
		},
	},
}

func (f settingsField) shown(a *App) string {
	if f.display != nil {
		return f.display(a)
	}
	return f.current(a)
}

func (a App) settingsStartEdit() (tea.Model, tea.Cmd) {
	f := settingsFields[a.settings.cursor]

	ti := textinput.New()
	ti.CharLimit = settingsMaxChar
	ti.Width = settingsInputW
	ti.Placeholder = f.placeholder()
	ti.SetValue(f.current(&a))
	ti.Focus()

	a.settings.input = ti
	a.settings.editing = true
	a.settings.saved = false
	a.settings.invalid = ""
	return a, ti.Cursor.BlinkCmd()
}

func (a App) updateSettingsInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.settings.editing = false
		return a, nil
	case "enter":
		a.settingsSave()
		a.settings.editing = false
		a.settings.saved = a.settings.invalid == "" && a.settings.saveErr == nil
		return a, nil
	}
	var cmd tea.Cmd
	a.settings.input, cmd = a.settings.input.Update(msg)
	return a, cmd
}

// settingsSave applies the edited row and persists the config. A rejected
// value leaves both the config and the app untouched.
func (a *App) settingsSave() {
	cfg := a.cfg
	probe := *a
	raw := strings.TrimSpace(a.settings.input.Value())
	if err := settingsFields[a.settings.cursor].apply(&probe, &cfg, raw); err != nil {
		a.settings.invalid = err.Error()
		return
	}
	a.autoRefresh, a.refreshInterval = probe.autoRefresh, probe.refreshInterval
	a.cfg = cfg
	a.settings.saveErr = a.saveCfg(cfg)
}

func (a App) renderSettingsTab(cw int) string {
	t := theme.Active
	surface := lipgloss.NewStyle().Background(t.Surface)
	label := surface.Foreground(t.TextMuted)
	value := surface.Foreground(t.TextPrimary)
	hi := lipgloss.NewStyle().Background(t.SurfaceBright)
	inner := components.CardInnerWidth(cw)

	var form strings.Builder
	for i, f := range settingsFields {
		name := fmt.Sprintf("%-*s ", settingsLabelW, f.label+":")
		var row string
		switch {
		case i == a.settings.cursor && a.settings.editing:
			row = hi.Foreground(t.AccentBright).Render("▸ ") +
				surface.Foreground(t.AccentBright).Render(name) +
				a.settings.input.View()
		case i == a.settings.cursor:
			row = hi.Foreground(t.AccentBright).Render("▸ ") +
				hi.Foreground(t.Accent).Bold(true).Render(name) +
				hi.Foreground(t.TextPrimary).Bold(true).Render(f.shown(&a))
			if gap := inner - lipgloss.Width(row); gap > 0 {
				row += hi.Render(strings.Repeat(" ", gap))
			}
		default:
			row = surface.Render("  ") + label.Render(name) + value.Render(f.shown(&a))
		}
		form.WriteString(row + "\n")
	}

	var note string
	switch {
	case a.settings.invalid != "":
		note = surface.Foreground(t.Orange).Render("Not saved: " + a.settings.invalid)
	case a.settings.saveErr != nil:
		note = surface.Foreground(t.Orange).Render("Save failed: " + a.settings.saveErr.Error())
	case a.settings.saved:
		note = surface.Foreground(t.GreenBright).Render("Saved")
	}
	if note != "" {
		form.WriteString("\n" + note + "\n")
	}
	form.WriteString("\n" + label.Render("[j/k] move  [Enter] edit  [Esc] cancel"))

	info := [][2]string{
		{"Signed in as", a.user},
		{"Entries", fmt.Sprintf("%s income, %s expenses, %s goals",
			cli.FormatNumber(int64(a.summary.IncomeCount)),
			cli.FormatNumber(int64(a.summary.ExpenseCount)),
			cli.FormatNumber(int64(a.summary.GoalCount)))},
		{"Config file", config.ConfigPath()},
		{"Session store", config.SessionDBPath()},
	}
	lines := make([]string, len(info))
	for i, kv := range info {
		lines[i] = label.Render(fmt.Sprintf("%-15s", kv[0]+":")) + value.Render(kv[1])
	}

	return components.ContentCard("Settings", form.String(), cw) + "\n" +
		components.ContentCard("Session", strings.Join(lines, "\n"), cw)
}
