// Package tui provides the interactive Bubble Tea dashboard for the budget planner.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/budgetplanner/internal/budget"
	"github.com/theirongolddev/budgetplanner/internal/cli"
	"github.com/theirongolddev/budgetplanner/internal/config"
	"github.com/theirongolddev/budgetplanner/internal/model"
	"github.com/theirongolddev/budgetplanner/internal/tui/components"
	"github.com/theirongolddev/budgetplanner/internal/tui/theme"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// Sessions is the session lifecycle the dashboard drives. *session.Manager
// satisfies it.
type Sessions interface {
	Restore(ctx context.Context) error
	Current() (model.Session, bool)
	Login(ctx context.Context, username, password string) error
	Register(ctx context.Context, name, username, password string) error
	Logout() error
}

// Deps are the collaborators the dashboard is built from.
type Deps struct {
	Budget   *budget.Manager
	Sessions Sessions
	Config   config.Config
	// SaveConfig persists settings changes. Defaults to config.Save.
	SaveConfig func(config.Config) error
}

type (
	restoredMsg  struct{ err error }
	authDoneMsg  struct{ err error }
	loggedOutMsg struct{ err error }
	refreshedMsg struct{ res budget.Result }
	opDoneMsg    struct {
		res     budget.Result
		success string
	}
	tickMsg struct{}
)

// App is the root Bubble Tea model.
type App struct {
	budget   *budget.Manager
	sessions Sessions
	cfg      config.Config
	saveCfg  func(config.Config) error

	// Data
	state   budget.State
	summary model.Summary
	user    string

	// Session state
	restored       bool
	loggedIn       bool
	authenticating bool

	// Auto-refresh state
	autoRefresh     bool
	refreshInterval time.Duration
	lastRefresh     time.Time
	refreshing      bool

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool
	cursors   [3]int // income, expenses, goals
	confirm   bool   // awaiting y/n for a delete

	flash    string
	flashErr bool
	flashAt  time.Time

	// Entry and auth forms (huh). Values live behind pointers so the form
	// bindings survive App being copied by Update.
	form      *huh.Form
	formKind  formKind
	formVals  *entryValues
	login     *huh.Form
	loginVals *loginValues

	settings settingsState
	spinner  spinner.Model
}

const (
	minTerminalWidth = 80
	maxContentWidth  = 160
	minContentHeight = 5

	opTimeout    = 30 * time.Second
	flashTimeout = 6 * time.Second
)

// NewApp creates a new TUI app model.
func NewApp(d Deps) App {
	save := d.SaveConfig
	if save == nil {
		save = config.Save
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	return App{
		budget:          d.Budget,
		sessions:        d.Sessions,
		cfg:             d.Config,
		saveCfg:         save,
		state:           budget.NewState(),
		autoRefresh:     d.Config.TUI.AutoRefresh,
		refreshInterval: d.Config.TUI.RefreshInterval(),
		spinner:         sp,
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		a.restoreCmd(),
		a.spinner.Tick,
		tickCmd(),
	)
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.login != nil {
			a.login = a.login.WithWidth(min(msg.Width, 70))
		}
		if a.form != nil {
			a.form = a.form.WithWidth(min(msg.Width, 70))
		}
		return a, nil

	case restoredMsg:
		a.restored = true
		if msg.err != nil {
			a.setFlash("Stored session was unreadable: "+msg.err.Error(), true)
		}
		return a.afterSessionChange()

	case authDoneMsg:
		a.authenticating = false
		if msg.err != nil {
			a.setFlash(msg.err.Error(), true)
			return a.openLogin()
		}
		a.setFlash("Signed in", false)
		return a.afterSessionChange()

	case loggedOutMsg:
		if msg.err != nil {
			a.setFlash("Logout failed: "+msg.err.Error(), true)
		} else {
			a.setFlash("Signed out", false)
		}
		return a.afterSessionChange()

	case refreshedMsg:
		a.refreshing = false
		a.lastRefresh = time.Now()
		if !msg.res.Success {
			a.setFlash(msg.res.Message, true)
		}
		a.sync()
		if !a.loggedIn {
			return a.openLogin()
		}
		return a, nil

	case opDoneMsg:
		if msg.res.Success {
			a.setFlash(msg.success, false)
		} else {
			a.setFlash(msg.res.Message, true)
		}
		a.sync()
		if !a.loggedIn {
			return a.openLogin()
		}
		return a, nil

	case spinner.TickMsg:
		if !a.restored || a.refreshing || a.authenticating {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil

	case tickMsg:
		cmds := []tea.Cmd{tickCmd()}
		if a.flash != "" && time.Since(a.flashAt) > flashTimeout {
			a.flash = ""
		}
		if a.loggedIn && a.autoRefresh && !a.refreshing && a.form == nil &&
			time.Since(a.lastRefresh) >= a.refreshInterval {
			a.refreshing = true
			cmds = append(cmds, a.refreshCmd(), a.spinner.Tick)
		}
		return a, tea.Batch(cmds...)

	case tea.MouseMsg:
		if a.login != nil || a.form != nil || a.showHelp {
			return a, nil
		}
		if msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionPress && msg.Y == 0 {
			if tab := a.tabAtX(msg.X); tab >= 0 {
				a.activeTab = tab
				a.confirm = false
			}
		}
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.login != nil {
			if msg.String() == "esc" {
				return a, tea.Quit
			}
			return a.updateLogin(msg)
		}
		if a.form != nil {
			if msg.String() == "esc" {
				a.closeForm()
				return a, nil
			}
			return a.updateForm(msg)
		}
		if !a.loggedIn || a.authenticating {
			return a, nil
		}
		return a.handleKey(msg)
	}

	// Forward everything else (cursor blinks, etc.) to an active form.
	if a.login != nil {
		return a.updateLogin(msg)
	}
	if a.form != nil {
		return a.updateForm(msg)
	}
	return a, nil
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if a.activeTab == components.TabSettings && a.settings.editing {
		return a.updateSettingsInput(msg)
	}

	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	if a.confirm {
		a.confirm = false
		if key == "y" || key == "Y" {
			return a, a.deleteSelectedCmd()
		}
		a.setFlash("Delete cancelled", false)
		return a, nil
	}

	switch key {
	case "?":
		a.showHelp = true
		return a, nil
	case "q":
		return a, tea.Quit
	case "r":
		if !a.refreshing {
			a.refreshing = true
			return a, tea.Batch(a.refreshCmd(), a.spinner.Tick)
		}
		return a, nil
	case "R":
		a.autoRefresh = !a.autoRefresh
		a.cfg.TUI.AutoRefresh = a.autoRefresh
		// best-effort; the toggle still applies for this run
		_ = a.saveCfg(a.cfg)
		return a, nil
	case "L":
		return a, a.logoutCmd()
	case "left":
		a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
		return a, nil
	case "right", "tab":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
		return a, nil
	}

	if a.activeTab == components.TabSettings {
		switch key {
		case "j", "down":
			a.settings.cursor = min(a.settings.cursor+1, settingsFieldCount-1)
			return a, nil
		case "k", "up":
			a.settings.cursor = max(a.settings.cursor-1, 0)
			return a, nil
		case "enter":
			return a.settingsStartEdit()
		}
	}

	if list := a.listIndex(); list >= 0 {
		n := a.listLen(list)
		switch key {
		case "j", "down":
			a.cursors[list] = min(a.cursors[list]+1, max(n-1, 0))
			return a, nil
		case "k", "up":
			a.cursors[list] = max(a.cursors[list]-1, 0)
			return a, nil
		case "home":
			a.cursors[list] = 0
			return a, nil
		case "G", "end":
			a.cursors[list] = max(n-1, 0)
			return a, nil
		case "a", "n":
			return a.openForm(formKindForTab(a.activeTab))
		case "d", "delete":
			if n > 0 {
				a.confirm = true
			}
			return a, nil
		case "+", "=":
			if a.activeTab == components.TabGoals && n > 0 {
				return a.openForm(formDeposit)
			}
			return a, nil
		}
	}

	if len(key) == 1 {
		if tab := components.TabIdxByKey(rune(key[0])); tab >= 0 {
			a.activeTab = tab
		}
	}
	return a, nil
}

// afterSessionChange picks up whatever session the manager now reports.
func (a App) afterSessionChange() (tea.Model, tea.Cmd) {
	a.sync()
	a.lastRefresh = time.Now()
	if !a.loggedIn {
		return a.openLogin()
	}
	a.login = nil
	return a, nil
}

// sync copies the manager's state into the model for rendering.
func (a *App) sync() {
	sess, ok := a.sessions.Current()
	a.loggedIn = ok && sess.Valid()
	a.user = ""
	if a.loggedIn {
		a.user = sess.User.Username
		if sess.User.Name != "" {
			a.user = sess.User.Name
		}
	}
	a.state = a.budget.Snapshot()
	a.summary = budget.Summarize(a.state)
	for i := range a.cursors {
		a.cursors[i] = min(a.cursors[i], max(a.listLen(i)-1, 0))
	}
}

func (a *App) setFlash(msg string, isErr bool) {
	a.flash = msg
	a.flashErr = isErr
	a.flashAt = time.Now()
}

// listIndex maps the active tab to a cursor slot, or -1 for non-list tabs.
func (a App) listIndex() int {
	switch a.activeTab {
	case components.TabIncome:
		return 0
	case components.TabExpenses:
		return 1
	case components.TabGoals:
		return 2
	}
	return -1
}

func (a App) listLen(list int) int {
	switch list {
	case 0:
		return len(a.state.Income)
	case 1:
		return len(a.state.Expenses)
	case 2:
		return len(a.state.SavingsGoals)
	}
	return 0
}

// ─── Commands ───────────────────────────────────────────────────

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (a App) restoreCmd() tea.Cmd {
	sessions := a.sessions
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		return restoredMsg{err: sessions.Restore(ctx)}
	}
}

func (a App) refreshCmd() tea.Cmd {
	mgr := a.budget
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		return refreshedMsg{res: mgr.LoadAll(ctx)}
	}
}

func (a App) logoutCmd() tea.Cmd {
	sessions := a.sessions
	return func() tea.Msg {
		return loggedOutMsg{err: sessions.Logout()}
	}
}

// runOp executes a manager operation off the update loop.
func runOp(success string, op func(ctx context.Context) budget.Result) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		return opDoneMsg{res: op(ctx), success: success}
	}
}

func (a App) deleteSelectedCmd() tea.Cmd {
	mgr := a.budget
	switch a.activeTab {
	case components.TabIncome:
		if c := a.cursors[0]; c < len(a.state.Income) {
			id := a.state.Income[c].ID
			return runOp("Income deleted", func(ctx context.Context) budget.Result { return mgr.DeleteIncome(ctx, id) })
		}
	case components.TabExpenses:
		if c := a.cursors[1]; c < len(a.state.Expenses) {
			id := a.state.Expenses[c].ID
			return runOp("Expense deleted", func(ctx context.Context) budget.Result { return mgr.DeleteExpense(ctx, id) })
		}
	case components.TabGoals:
		if c := a.cursors[2]; c < len(a.state.SavingsGoals) {
			id := a.state.SavingsGoals[c].ID
			return runOp("Savings goal deleted", func(ctx context.Context) budget.Result { return mgr.DeleteSavingsGoal(ctx, id) })
		}
	}
	return nil
}

// ─── Views ──────────────────────────────────────────────────────

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if !a.restored {
		return a.viewLoading("Restoring session...")
	}
	if a.authenticating {
		return a.viewLoading("Signing in...")
	}
	if a.login != nil {
		return a.viewForm(a.login.View())
	}
	if a.form != nil {
		return a.viewForm(a.form.View())
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  The dashboard needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)
	h := max(a.height, 5)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading(label string) string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)
	logoStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ budget"))
	b.WriteString(subtitleStyle.Render(" · Personal Budget Planner"))
	b.WriteString("\n\n")
	b.WriteString(a.spinner.View())
	b.WriteString(subtitleStyle.Render(" " + label))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewForm(body string) string {
	t := theme.Active
	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Padding(1, 2).
		Render(body)
	if a.flash != "" && a.flashErr {
		card = lipgloss.JoinVertical(lipgloss.Left, card,
			lipgloss.NewStyle().Foreground(t.Red).Padding(0, 1).Render(a.flash))
	}
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card)
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Cyan).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	sections := []struct {
		title    string
		bindings []struct{ key, desc string }
	}{
		{"Navigation", []struct{ key, desc string }{
			{"o i e g x", "Jump to tab"},
			{"← →", "Previous / Next tab"},
			{"j k", "Move selection"},
			{"G", "Last entry"},
		}},
		{"Actions", []struct{ key, desc string }{
			{"a", "Add entry"},
			{"d", "Delete selected entry"},
			{"+", "Deposit to / withdraw from goal"},
			{"r", "Refresh data"},
			{"R", "Toggle auto-refresh"},
			{"L", "Sign out"},
			{"?", "Toggle help"},
			{"q", "Quit"},
		}},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n")
	for _, s := range sections {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render(s.title))
		b.WriteString("\n")
		for _, bind := range s.bindings {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-10s", bind.key)),
				descStyle.Render(bind.desc))
		}
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()

	header := components.RenderTabBar(a.activeTab, w)

	flash := a.flash
	if a.confirm {
		flash = "Delete selected entry? [y/N]"
	}
	age := ""
	if !a.lastRefresh.IsZero() {
		age = time.Since(a.lastRefresh).Truncate(time.Second).String()
	}
	statusBar := components.RenderStatusBar(w, components.StatusInfo{
		User:        a.user,
		Flash:       cli.Truncate(flash, w/2),
		FlashIsErr:  a.flashErr && !a.confirm,
		DataAge:     age,
		Refreshing:  a.refreshing,
		AutoRefresh: a.autoRefresh,
	})

	contentH := max(a.height-lipgloss.Height(header)-lipgloss.Height(statusBar), minContentHeight)

	var content string
	switch a.activeTab {
	case components.TabOverview:
		content = a.renderOverviewTab(cw)
	case components.TabIncome:
		content = a.renderIncomeTab(cw, contentH)
	case components.TabExpenses:
		content = a.renderExpensesTab(cw, contentH)
	case components.TabGoals:
		content = a.renderGoalsTab(cw, contentH)
	case components.TabSettings:
		content = a.renderSettingsTab(cw)
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, a.height, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

// ─── Helpers ────────────────────────────────────────────────────

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW
		if i < len(components.Tabs)-1 {
			pos++ // separator
		}
	}
	return -1
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg))
	}
	return strings.Join(lines, "\n")
}
