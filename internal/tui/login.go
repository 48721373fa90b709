package tui

import (
	"context"

	"github.com/theirongolddev/budgetplanner/internal/cli"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
)

const (
	modeSignIn   = "signin"
	modeRegister = "register"
)

type loginValues struct {
	mode     string
	name     string
	username string
	password string
}

func newLoginForm(v *loginValues) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Welcome to budget").
				Description("Sign in to load your budget from the server.").
				Options(
					huh.NewOption("Sign in", modeSignIn),
					huh.NewOption("Create an account", modeRegister),
				).
				Value(&v.mode),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Validate(cli.Required("name")).
				Value(&v.name),
		).WithHideFunc(func() bool { return v.mode != modeRegister }),
		huh.NewGroup(
			huh.NewInput().
				Title("Username").
				Validate(cli.Required("username")).
				Value(&v.username),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Validate(cli.Required("password")).
				Value(&v.password),
		),
	).WithShowHelp(true)
}

// openLogin shows a fresh sign-in form, keeping the last username.
func (a App) openLogin() (tea.Model, tea.Cmd) {
	v := &loginValues{mode: modeSignIn}
	if a.loginVals != nil {
		v.username = a.loginVals.username
	}
	a.loginVals = v
	a.login = newLoginForm(v)
	if a.width > 0 {
		a.login = a.login.WithWidth(min(a.width, 70))
	}
	return a, a.login.Init()
}

func (a App) updateLogin(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.login.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.login = f
	}

	switch a.login.State {
	case huh.StateCompleted:
		a.login = nil
		a.authenticating = true
		return a, tea.Batch(a.authCmd(*a.loginVals), a.spinner.Tick)
	case huh.StateAborted:
		return a, tea.Quit
	}
	return a, cmd
}

// authCmd signs in or registers. On success the session manager notifies
// the budget manager, which loads data before the command returns.
func (a App) authCmd(v loginValues) tea.Cmd {
	sessions := a.sessions
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		if v.mode == modeRegister {
			return authDoneMsg{err: sessions.Register(ctx, v.name, v.username, v.password)}
		}
		return authDoneMsg{err: sessions.Login(ctx, v.username, v.password)}
	}
}
