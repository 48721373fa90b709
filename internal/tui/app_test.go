package tui

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/theirongolddev/budgetplanner/internal/budget"
	"github.com/theirongolddev/budgetplanner/internal/config"
	"github.com/theirongolddev/budgetplanner/internal/gateway"
	"github.com/theirongolddev/budgetplanner/internal/model"
	"github.com/theirongolddev/budgetplanner/internal/tui/components"
	"github.com/theirongolddev/budgetplanner/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memGateway struct {
	mu        sync.Mutex
	incomes   []gateway.IncomeRecord
	expenses  []gateway.ExpenseRecord
	goals     []gateway.GoalRecord
	deleteErr error
}

func (g *memGateway) GetIncomes(context.Context, int64) ([]gateway.IncomeRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]gateway.IncomeRecord(nil), g.incomes...), nil
}

func (g *memGateway) CreateIncome(_ context.Context, rec gateway.IncomeRecord) (gateway.IncomeRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	rec.ID = int64(len(g.incomes) + 1)
	g.incomes = append(g.incomes, rec)
	return rec, nil
}

func (g *memGateway) DeleteIncome(context.Context, int64, int64) error { return g.deleteErr }

func (g *memGateway) GetExpenses(context.Context, int64) ([]gateway.ExpenseRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]gateway.ExpenseRecord(nil), g.expenses...), nil
}

func (g *memGateway) CreateExpense(_ context.Context, rec gateway.ExpenseRecord) (gateway.ExpenseRecord, error) {
	rec.ID = 7
	return rec, nil
}

func (g *memGateway) DeleteExpense(context.Context, int64, int64) error { return g.deleteErr }

func (g *memGateway) GetSavingsGoals(context.Context, int64) ([]gateway.GoalRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]gateway.GoalRecord(nil), g.goals...), nil
}

func (g *memGateway) CreateSavingsGoal(_ context.Context, rec gateway.GoalRecord) (gateway.GoalRecord, error) {
	rec.ID = 9
	return rec, nil
}

func (g *memGateway) AddAmountToGoal(context.Context, int64, int64, decimal.Decimal) error {
	return nil
}

func (g *memGateway) DeleteSavingsGoal(context.Context, int64, int64) error { return g.deleteErr }

// fakeSessions is an in-memory session lifecycle that resets the manager on
// logout the way the session store subscription does.
type fakeSessions struct {
	mu       sync.Mutex
	current  *model.Session
	onChange func(*model.Session)
	loginErr error
}

func (f *fakeSessions) Restore(context.Context) error { return nil }

func (f *fakeSessions) Current() (model.Session, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current == nil {
		return model.Session{}, false
	}
	return *f.current, true
}

func (f *fakeSessions) Login(_ context.Context, username, _ string) error {
	if f.loginErr != nil {
		return f.loginErr
	}
	f.set(&model.Session{User: model.User{ID: 1, Username: username}, Token: "t"})
	return nil
}

func (f *fakeSessions) Register(_ context.Context, name, username, _ string) error {
	f.set(&model.Session{User: model.User{ID: 2, Name: name, Username: username}, Token: "t"})
	return nil
}

func (f *fakeSessions) Logout() error {
	f.set(nil)
	return nil
}

func (f *fakeSessions) set(s *model.Session) {
	f.mu.Lock()
	f.current = s
	f.mu.Unlock()
	if f.onChange != nil {
		f.onChange(s)
	}
}

func newTestApp(t *testing.T, gw *memGateway, signedIn bool) (App, *budget.Manager, *fakeSessions) {
	t.Helper()
	sess := &fakeSessions{}
	mgr := budget.NewManager(gw, sess, budget.WithUnauthorizedHandler(func() { _ = sess.Logout() }))
	sess.onChange = func(s *model.Session) { mgr.HandleSessionChange(context.Background(), s) }
	if signedIn {
		sess.set(&model.Session{User: model.User{ID: 1, Name: "Ada", Username: "ada"}, Token: "t"})
	}

	cfg := config.DefaultConfig()
	app := NewApp(Deps{
		Budget:     mgr,
		Sessions:   sess,
		Config:     cfg,
		SaveConfig: func(config.Config) error { return nil },
	})
	m, _ := app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m.(App), mgr, sess
}

func update(t *testing.T, a App, msg tea.Msg) (App, tea.Cmd) {
	t.Helper()
	m, cmd := a.Update(msg)
	return m.(App), cmd
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func sampleGateway() *memGateway {
	return &memGateway{
		incomes: []gateway.IncomeRecord{
			{ID: 1, Source: "Salary", Amount: "3000", Frequency: "Monthly", Date: "2024-01-01"},
			{ID: 2, Source: "Gift", Amount: "100", Frequency: "One-time", Date: "2024-01-05"},
		},
		expenses: []gateway.ExpenseRecord{
			{ID: 3, Description: "Rent", Amount: "1200", Category: "Bills & Utilities", Date: "2024-01-02"},
		},
		goals: []gateway.GoalRecord{
			{ID: 4, GoalName: "Trip", TargetAmount: "1000", CurrentAmount: "250", DeadlineDate: "2024-12-31"},
		},
	}
}

func TestRestoreWithoutSessionOpensLogin(t *testing.T) {
	a, _, _ := newTestApp(t, &memGateway{}, false)

	a, _ = update(t, a, restoredMsg{})
	assert.True(t, a.restored)
	assert.False(t, a.loggedIn)
	require.NotNil(t, a.login)
	assert.NotEmpty(t, a.View())
}

func TestRestoreWithSessionShowsData(t *testing.T) {
	a, _, _ := newTestApp(t, sampleGateway(), true)

	a, _ = update(t, a, restoredMsg{})
	require.True(t, a.loggedIn)
	assert.Nil(t, a.login)
	assert.Equal(t, "Ada", a.user)
	assert.Len(t, a.state.Income, 2)
	assert.Equal(t, "1900", a.summary.RemainingBudget.String())
	assert.Contains(t, a.View(), "$1,900.00")
}

func TestLoginCommandSignsIn(t *testing.T) {
	a, _, _ := newTestApp(t, sampleGateway(), false)
	a, _ = update(t, a, restoredMsg{})

	msg := a.authCmd(loginValues{mode: modeSignIn, username: "ada", password: "pw"})()
	a, _ = update(t, a, msg)
	assert.True(t, a.loggedIn)
	assert.Equal(t, "ada", a.user)
	assert.Len(t, a.state.Expenses, 1)
}

func TestRegisterCommandUsesName(t *testing.T) {
	a, _, _ := newTestApp(t, &memGateway{}, false)
	a, _ = update(t, a, restoredMsg{})

	msg := a.authCmd(loginValues{mode: modeRegister, name: "Grace", username: "grace", password: "pw"})()
	a, _ = update(t, a, msg)
	assert.True(t, a.loggedIn)
	assert.Equal(t, "Grace", a.user)
}

func TestLoginFailureReopensForm(t *testing.T) {
	a, _, sess := newTestApp(t, &memGateway{}, false)
	sess.loginErr = errors.New("Invalid credentials")
	a, _ = update(t, a, restoredMsg{})

	a, _ = update(t, a, a.authCmd(loginValues{mode: modeSignIn, username: "ada"})())
	assert.False(t, a.loggedIn)
	require.NotNil(t, a.login)
	assert.Equal(t, "ada", a.loginVals.username)
	assert.True(t, a.flashErr)
	assert.Equal(t, "Invalid credentials", a.flash)
}

func TestTabKeys(t *testing.T) {
	a, _, _ := newTestApp(t, sampleGateway(), true)
	a, _ = update(t, a, restoredMsg{})

	for k, want := range map[string]int{
		"i": components.TabIncome,
		"e": components.TabExpenses,
		"g": components.TabGoals,
		"x": components.TabSettings,
		"o": components.TabOverview,
	} {
		a, _ = update(t, a, key(k))
		assert.Equal(t, want, a.activeTab, "key %q", k)
	}
}

func TestListCursorClamps(t *testing.T) {
	a, _, _ := newTestApp(t, sampleGateway(), true)
	a, _ = update(t, a, restoredMsg{})
	a, _ = update(t, a, key("i"))

	for range 5 {
		a, _ = update(t, a, key("j"))
	}
	assert.Equal(t, 1, a.cursors[0])
	a, _ = update(t, a, key("k"))
	assert.Equal(t, 0, a.cursors[0])
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	a, _, _ := newTestApp(t, sampleGateway(), true)
	a, _ = update(t, a, restoredMsg{})
	a, _ = update(t, a, key("i"))

	a, _ = update(t, a, key("d"))
	require.True(t, a.confirm)
	a, cmd := update(t, a, key("n"))
	assert.False(t, a.confirm)
	assert.Nil(t, cmd)
	assert.Len(t, a.state.Income, 2)

	a, _ = update(t, a, key("d"))
	a, cmd = update(t, a, key("y"))
	require.NotNil(t, cmd)
	a, _ = update(t, a, cmd())
	assert.Len(t, a.state.Income, 1)
	assert.Equal(t, "Income deleted", a.flash)
	assert.False(t, a.flashErr)
}

func TestUnauthorizedDeleteReturnsToLogin(t *testing.T) {
	gw := sampleGateway()
	gw.deleteErr = &gateway.Error{StatusCode: 401, Body: "expired"}
	a, mgr, _ := newTestApp(t, gw, true)
	a, _ = update(t, a, restoredMsg{})
	a, _ = update(t, a, key("e"))

	a, _ = update(t, a, key("d"))
	a, cmd := update(t, a, key("y"))
	require.NotNil(t, cmd)
	a, _ = update(t, a, cmd())

	assert.False(t, a.loggedIn)
	assert.NotNil(t, a.login)
	assert.True(t, a.flashErr)
	assert.Empty(t, mgr.Snapshot().Expenses)
}

func TestAddFormOpensOnListTabsOnly(t *testing.T) {
	a, _, _ := newTestApp(t, sampleGateway(), true)
	a, _ = update(t, a, restoredMsg{})

	a, _ = update(t, a, key("a"))
	assert.Nil(t, a.form, "overview has no add form")

	a, _ = update(t, a, key("e"))
	a, _ = update(t, a, key("a"))
	require.NotNil(t, a.form)
	assert.Equal(t, formExpense, a.formKind)

	a, _ = update(t, a, key("esc"))
	assert.Nil(t, a.form)
}

func TestSubmitGoalForm(t *testing.T) {
	a, _, _ := newTestApp(t, sampleGateway(), true)
	a, _ = update(t, a, restoredMsg{})
	a.formKind = formGoal
	a.formVals = &entryValues{name: "Car", target: "5000", current: "$1,000", deadline: "2025-06-30"}

	cmd := a.submitForm()
	require.NotNil(t, cmd)
	a, _ = update(t, a, cmd())
	require.Len(t, a.state.SavingsGoals, 2)
	assert.Equal(t, "Car", a.state.SavingsGoals[1].Name)
	assert.Equal(t, "1000", a.state.SavingsGoals[1].CurrentAmount.String())
}

func TestSubmitDepositWithdraws(t *testing.T) {
	a, _, _ := newTestApp(t, sampleGateway(), true)
	a, _ = update(t, a, restoredMsg{})
	a.formKind = formDeposit
	a.formVals = &entryValues{amount: "50", withdraw: true, goalID: 4, goalName: "Trip"}

	cmd := a.submitForm()
	require.NotNil(t, cmd)
	a, _ = update(t, a, cmd())
	assert.Equal(t, "200", a.state.SavingsGoals[0].CurrentAmount.String())
	assert.Equal(t, "Withdrew $50.00 from Trip", a.flash)
}

func TestLogoutKey(t *testing.T) {
	a, mgr, _ := newTestApp(t, sampleGateway(), true)
	a, _ = update(t, a, restoredMsg{})

	a, cmd := update(t, a, key("L"))
	require.NotNil(t, cmd)
	a, _ = update(t, a, cmd())
	assert.False(t, a.loggedIn)
	assert.NotNil(t, a.login)
	assert.Empty(t, mgr.Snapshot().Income)
}

func TestAutoRefreshToggleSaves(t *testing.T) {
	var saved []config.Config
	a, _, _ := newTestApp(t, sampleGateway(), true)
	a.saveCfg = func(c config.Config) error {
		saved = append(saved, c)
		return nil
	}
	a, _ = update(t, a, restoredMsg{})

	a, _ = update(t, a, key("R"))
	assert.False(t, a.autoRefresh)
	require.Len(t, saved, 1)
	assert.False(t, saved[0].TUI.AutoRefresh)
}

func TestSettingsRejectsShortInterval(t *testing.T) {
	a, _, _ := newTestApp(t, sampleGateway(), true)
	a, _ = update(t, a, restoredMsg{})
	a.settings.cursor = settingsFieldRefreshInterval
	m, _ := a.settingsStartEdit()
	a = m.(App)

	a.settings.input.SetValue("5")
	a.settingsSave()
	assert.NotEmpty(t, a.settings.invalid)
	assert.Equal(t, 60*time.Second, a.refreshInterval)

	a.settings.invalid = ""
	a.settings.input.SetValue("15")
	a.settingsSave()
	assert.Empty(t, a.settings.invalid)
	assert.Equal(t, 15*time.Second, a.refreshInterval)
	assert.Equal(t, 15, a.cfg.TUI.RefreshIntervalSec)
}

func TestSettingsThemeRow(t *testing.T) {
	a, _, _ := newTestApp(t, sampleGateway(), true)
	a, _ = update(t, a, restoredMsg{})
	t.Cleanup(func() { theme.SetActive(config.DefaultTheme) })

	a.settings.cursor = settingsFieldTheme
	m, _ := a.settingsStartEdit()
	a = m.(App)
	assert.Equal(t, config.DefaultTheme, a.settings.input.Value())

	a.settings.input.SetValue("solarized")
	a.settingsSave()
	assert.Contains(t, a.settings.invalid, "unknown theme")
	assert.Equal(t, config.DefaultTheme, a.cfg.Appearance.Theme)

	a.settings.invalid = ""
	a.settings.input.SetValue("nord")
	a.settingsSave()
	assert.Empty(t, a.settings.invalid)
	assert.Equal(t, "nord", a.cfg.Appearance.Theme)
	assert.Equal(t, "nord", theme.Active.Name)
}

func TestNarrowTerminal(t *testing.T) {
	a, _, _ := newTestApp(t, sampleGateway(), true)
	a, _ = update(t, a, restoredMsg{})
	a, _ = update(t, a, tea.WindowSizeMsg{Width: 60, Height: 20})
	assert.Contains(t, a.View(), "Terminal too narrow")
}

func TestBuildIncomeDefaultsDate(t *testing.T) {
	today := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	in, err := buildIncome(&entryValues{source: "Salary", amount: "1,250.50", frequency: model.FrequencyMonthly}, today)
	require.NoError(t, err)
	assert.Equal(t, today, in.Date)
	assert.Equal(t, "1250.5", in.Amount.String())

	_, err = buildIncome(&entryValues{amount: "-3"}, today)
	assert.Error(t, err)
}

func TestBuildExpenseKeepsDate(t *testing.T) {
	today := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	e, err := buildExpense(&entryValues{description: " Lunch ", amount: "12", category: "Food & Dining", date: "2024-02-01"}, today)
	require.NoError(t, err)
	assert.Equal(t, "Lunch", e.Description)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), e.Date)
}

func TestBuildGoalRequiresDeadline(t *testing.T) {
	_, err := buildGoal(&entryValues{name: "Bike", target: "500"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deadline is required")

	_, err = buildGoal(&entryValues{name: "Bike", target: "500", deadline: "next spring"})
	assert.Error(t, err)

	g, err := buildGoal(&entryValues{name: " Bike ", target: "500", deadline: "2024-09-01"})
	require.NoError(t, err)
	assert.Equal(t, "Bike", g.Name)
	assert.Equal(t, time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC), g.Deadline)
}

func TestMonthlyExpenses(t *testing.T) {
	now := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	values, labels := monthlyExpenses([]model.Expense{
		{Amount: decimal.NewFromInt(10), Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{Amount: decimal.NewFromInt(5), Date: time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)},
		{Amount: decimal.NewFromInt(99), Date: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)},
		{Amount: decimal.NewFromInt(7)},
	}, now, 3)
	assert.Equal(t, []string{"Jan", "Feb", "Mar"}, labels)
	assert.Equal(t, []float64{5, 0, 10}, values)
}

func TestFitColumns(t *testing.T) {
	cols := []column{{title: "Name"}, {title: "Amount", width: 10}}
	w := fitColumns(cols, 40)
	assert.Equal(t, []int{29, 10}, w)
}
